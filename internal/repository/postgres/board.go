package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/repositories"
)

const boardColumns = `id, tenant_id, code, name, description, board_type,
		read_permission, write_permission, comment_permission,
		enable_categories, is_active, is_deleted,
		created_at, created_by, updated_at, updated_by`

// PostgresBoardRepository implements the BoardRepository interface
type PostgresBoardRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(config *RepositoryConfig) repositories.BoardRepository {
	return &PostgresBoardRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresBoardRepository) exec(ctx context.Context) repositories.DBTX {
	return GetExecutor(ctx, r.pool)
}

// Insert stores a new board
func (r *PostgresBoardRepository) Insert(ctx context.Context, board *models.Board) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, code, name, description, board_type,
			read_permission, write_permission, comment_permission,
			enable_categories, is_active, is_deleted,
			created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, r.tables.Boards)

	_, err := r.exec(ctx).Exec(ctx, query,
		board.ID, board.TenantID, board.Code, board.Name, board.Description, board.BoardType,
		board.ReadPermission, board.WritePermission, board.CommentPermission,
		board.EnableCategories, board.IsActive, board.IsDeleted,
		board.CreatedAt, board.CreatedBy, board.UpdatedAt, board.UpdatedBy,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("board code %q is already in use", board.Code),
				ResourceType: "board",
			}
		}
		return fmt.Errorf("insert board: %w", err)
	}

	return nil
}

// GetByID retrieves a live board by id
func (r *PostgresBoardRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Board, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1 AND id = $2 AND NOT is_deleted
	`, boardColumns, r.tables.Boards)

	return r.queryOne(ctx, id, query, tenantID, id)
}

// GetByCode retrieves a live board by its URL code
func (r *PostgresBoardRepository) GetByCode(ctx context.Context, tenantID, code string) (*models.Board, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1 AND lower(code) = lower($2) AND NOT is_deleted
	`, boardColumns, r.tables.Boards)

	return r.queryOne(ctx, code, query, tenantID, code)
}

// List lists live boards for a tenant
func (r *PostgresBoardRepository) List(ctx context.Context, tenantID string, includeInactive bool) ([]models.Board, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1 AND NOT is_deleted
	`, boardColumns, r.tables.Boards)
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY code"

	rows, err := r.exec(ctx).Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	var boards []models.Board
	for rows.Next() {
		var board models.Board
		if err := scanBoard(rows, &board); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, board)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}

	return boards, nil
}

// Update persists mutable board fields
func (r *PostgresBoardRepository) Update(ctx context.Context, board *models.Board) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, board_type = $3,
			read_permission = $4, write_permission = $5, comment_permission = $6,
			enable_categories = $7, is_active = $8, updated_at = $9, updated_by = $10
		WHERE tenant_id = $11 AND id = $12 AND NOT is_deleted
	`, r.tables.Boards)

	result, err := r.exec(ctx).Exec(ctx, query,
		board.Name, board.Description, board.BoardType,
		board.ReadPermission, board.WritePermission, board.CommentPermission,
		board.EnableCategories, board.IsActive, board.UpdatedAt, board.UpdatedBy,
		board.TenantID, board.ID,
	)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("board %s: %w", board.ID, domain.ErrNotFound)
	}
	return nil
}

// SoftDelete marks a board deleted
func (r *PostgresBoardRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = true, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND NOT is_deleted
	`, r.tables.Boards)

	result, err := r.exec(ctx).Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("board %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresBoardRepository) queryOne(ctx context.Context, key, query string, args ...interface{}) (*models.Board, error) {
	var board models.Board
	err := scanBoard(r.exec(ctx).QueryRow(ctx, query, args...), &board)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("board %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	return &board, nil
}

func scanBoard(row pgx.Row, board *models.Board) error {
	return row.Scan(
		&board.ID, &board.TenantID, &board.Code, &board.Name, &board.Description, &board.BoardType,
		&board.ReadPermission, &board.WritePermission, &board.CommentPermission,
		&board.EnableCategories, &board.IsActive, &board.IsDeleted,
		&board.CreatedAt, &board.CreatedBy, &board.UpdatedAt, &board.UpdatedBy,
	)
}
