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

// nodeColumns is the select list shared by every node query.
const nodeColumns = `id, tenant_id, container_id, parent_id, depth, path,
		code, display_name, description, icon, color, link_url, link_target,
		sort_order, is_active, is_deleted, attached_count,
		created_at, created_by, updated_at, updated_by`

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresNodeRepository) exec(ctx context.Context) repositories.DBTX {
	return GetExecutor(ctx, r.pool)
}

// Insert stores a new node row
func (r *PostgresNodeRepository) Insert(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, container_id, parent_id, depth, path,
			code, display_name, description, icon, color, link_url, link_target,
			sort_order, is_active, is_deleted, attached_count,
			created_at, created_by, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21)
	`, r.tables.Nodes)

	_, err := r.exec(ctx).Exec(ctx, query,
		node.ID, node.TenantID, node.ContainerID, node.ParentID, node.Depth, node.Path,
		node.Code, node.DisplayName, node.Description, node.Icon, node.Color,
		node.LinkURL, node.LinkTarget,
		node.SortOrder, node.IsActive, node.IsDeleted, node.AttachedCount,
		node.CreatedAt, node.CreatedBy, node.UpdatedAt, node.UpdatedBy,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("code %q is already in use", node.Code),
				ResourceType: "node",
			}
		}
		return fmt.Errorf("insert node: %w", err)
	}

	return nil
}

// GetByID retrieves a node by id, including soft-deleted rows
func (r *PostgresNodeRepository) GetByID(ctx context.Context, scope models.Scope, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1 AND container_id = $2 AND id = $3
	`, nodeColumns, r.tables.Nodes)

	return r.queryOne(ctx, id, query, scope.TenantID, scope.ContainerID, id)
}

// GetLive retrieves a node by id, excluding soft-deleted rows
func (r *PostgresNodeRepository) GetLive(ctx context.Context, scope models.Scope, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1 AND container_id = $2 AND id = $3 AND NOT is_deleted
	`, nodeColumns, r.tables.Nodes)

	return r.queryOne(ctx, id, query, scope.TenantID, scope.ContainerID, id)
}

// CodeInUse reports whether a live node in scope uses the code
func (r *PostgresNodeRepository) CodeInUse(ctx context.Context, scope models.Scope, code string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE tenant_id = $1 AND container_id = $2
				AND lower(code) = lower($3) AND NOT is_deleted
		)
	`, r.tables.Nodes)

	var inUse bool
	err := r.exec(ctx).QueryRow(ctx, query, scope.TenantID, scope.ContainerID, code).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return inUse, nil
}

// ListSubtree returns the node at pathPrefix and every descendant in one
// range query, ordered by (depth, sort_order, code). Matching is exact or
// prefix-plus-separator so a path never matches an unrelated sibling.
func (r *PostgresNodeRepository) ListSubtree(ctx context.Context, scope models.Scope, pathPrefix string, includeInactive bool) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1 AND container_id = $2 AND NOT is_deleted
			AND (path = $3 OR path LIKE $3 || '/%%')
	`, nodeColumns, r.tables.Nodes)
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY depth, sort_order, code"

	return r.queryMany(ctx, query, scope.TenantID, scope.ContainerID, pathPrefix)
}

// ListScope returns every live node in the scope for whole-tree rendering
func (r *PostgresNodeRepository) ListScope(ctx context.Context, scope models.Scope, includeInactive bool) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1 AND container_id = $2 AND NOT is_deleted
	`, nodeColumns, r.tables.Nodes)
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY depth, sort_order, code"

	return r.queryMany(ctx, query, scope.TenantID, scope.ContainerID)
}

// ListByIDs batch-fetches live nodes by id
func (r *PostgresNodeRepository) ListByIDs(ctx context.Context, scope models.Scope, ids []string) ([]models.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE tenant_id = $1 AND container_id = $2 AND id = ANY($3) AND NOT is_deleted
	`, nodeColumns, r.tables.Nodes)

	return r.queryMany(ctx, query, scope.TenantID, scope.ContainerID, ids)
}

// ListChildren lists live immediate children of parentID (nil = roots)
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, scope models.Scope, parentID *string) ([]models.Node, error) {
	var query string
	args := []interface{}{scope.TenantID, scope.ContainerID}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE tenant_id = $1 AND container_id = $2 AND parent_id IS NULL AND NOT is_deleted
			ORDER BY sort_order, code
		`, nodeColumns, r.tables.Nodes)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE tenant_id = $1 AND container_id = $2 AND parent_id = $3 AND NOT is_deleted
			ORDER BY sort_order, code
		`, nodeColumns, r.tables.Nodes)
		args = append(args, *parentID)
	}

	return r.queryMany(ctx, query, args...)
}

// CountLiveChildren counts non-deleted children of a node
func (r *PostgresNodeRepository) CountLiveChildren(ctx context.Context, scope models.Scope, parentID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE tenant_id = $1 AND container_id = $2 AND parent_id = $3 AND NOT is_deleted
	`, r.tables.Nodes)

	var n int
	err := r.exec(ctx).QueryRow(ctx, query, scope.TenantID, scope.ContainerID, parentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

// UpdateStructure rewrites the structural fields of a single node
func (r *PostgresNodeRepository) UpdateStructure(ctx context.Context, scope models.Scope, id string, parentID *string, depth int, path string, sortOrder int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, depth = $2, path = $3, sort_order = $4, updated_at = now()
		WHERE tenant_id = $5 AND container_id = $6 AND id = $7 AND NOT is_deleted
	`, r.tables.Nodes)

	result, err := r.exec(ctx).Exec(ctx, query, parentID, depth, path, sortOrder,
		scope.TenantID, scope.ContainerID, id)
	if err != nil {
		return fmt.Errorf("update node structure: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RebasePaths rewrites every descendant under oldPath in one bulk statement:
// the oldPath prefix is replaced with newPath and depth shifts by depthDelta.
// The node itself (path = oldPath) is excluded; UpdateStructure covers it.
func (r *PostgresNodeRepository) RebasePaths(ctx context.Context, scope models.Scope, oldPath, newPath string, depthDelta int) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET path = $1 || substr(path, length($2) + 1),
			depth = depth + $3,
			updated_at = now()
		WHERE tenant_id = $4 AND container_id = $5 AND path LIKE $2 || '/%%'
	`, r.tables.Nodes)

	result, err := r.exec(ctx).Exec(ctx, query, newPath, oldPath, depthDelta,
		scope.TenantID, scope.ContainerID)
	if err != nil {
		return 0, fmt.Errorf("rebase paths: %w", err)
	}
	return result.RowsAffected(), nil
}

// SetSortOrder updates a single node's sort_order
func (r *PostgresNodeRepository) SetSortOrder(ctx context.Context, scope models.Scope, id string, sortOrder int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET sort_order = $1, updated_at = now()
		WHERE tenant_id = $2 AND container_id = $3 AND id = $4 AND NOT is_deleted
	`, r.tables.Nodes)

	result, err := r.exec(ctx).Exec(ctx, query, sortOrder, scope.TenantID, scope.ContainerID, id)
	if err != nil {
		return fmt.Errorf("set sort order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateMeta persists the non-structural fields
func (r *PostgresNodeRepository) UpdateMeta(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET display_name = $1, description = $2, icon = $3, color = $4,
			link_url = $5, link_target = $6, is_active = $7,
			updated_at = $8, updated_by = $9
		WHERE tenant_id = $10 AND container_id = $11 AND id = $12 AND NOT is_deleted
	`, r.tables.Nodes)

	result, err := r.exec(ctx).Exec(ctx, query,
		node.DisplayName, node.Description, node.Icon, node.Color,
		node.LinkURL, node.LinkTarget, node.IsActive,
		node.UpdatedAt, node.UpdatedBy,
		node.TenantID, node.ContainerID, node.ID,
	)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	return nil
}

// SoftDelete marks a single node deleted
func (r *PostgresNodeRepository) SoftDelete(ctx context.Context, scope models.Scope, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = true, updated_at = now()
		WHERE tenant_id = $1 AND container_id = $2 AND id = $3 AND NOT is_deleted
	`, r.tables.Nodes)

	result, err := r.exec(ctx).Exec(ctx, query, scope.TenantID, scope.ContainerID, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SoftDeleteSubtree marks the node at path and every descendant deleted
func (r *PostgresNodeRepository) SoftDeleteSubtree(ctx context.Context, scope models.Scope, path string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_deleted = true, updated_at = now()
		WHERE tenant_id = $1 AND container_id = $2 AND NOT is_deleted
			AND (path = $3 OR path LIKE $3 || '/%%')
	`, r.tables.Nodes)

	result, err := r.exec(ctx).Exec(ctx, query, scope.TenantID, scope.ContainerID, path)
	if err != nil {
		return 0, fmt.Errorf("delete subtree: %w", err)
	}
	return result.RowsAffected(), nil
}

// AdjustAttachedCount atomically applies a delta to a node's attached_count.
// The update is a single statement so concurrent adjustments never lose
// increments; greatest() keeps the cache from going negative.
func (r *PostgresNodeRepository) AdjustAttachedCount(ctx context.Context, scope models.Scope, id string, delta int) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET attached_count = greatest(attached_count + $1, 0)
		WHERE tenant_id = $2 AND container_id = $3 AND id = $4 AND NOT is_deleted
		RETURNING attached_count
	`, r.tables.Nodes)

	var count int
	err := r.exec(ctx).QueryRow(ctx, query, delta, scope.TenantID, scope.ContainerID, id).Scan(&count)
	if err != nil {
		if isPgNoRowsError(err) {
			return 0, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("adjust attached count: %w", err)
	}
	return count, nil
}

// HasLiveNodes reports whether any live node exists in the scope
func (r *PostgresNodeRepository) HasLiveNodes(ctx context.Context, scope models.Scope) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE tenant_id = $1 AND container_id = $2 AND NOT is_deleted
		)
	`, r.tables.Nodes)

	var exists bool
	err := r.exec(ctx).QueryRow(ctx, query, scope.TenantID, scope.ContainerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check scope nodes: %w", err)
	}
	return exists, nil
}

func (r *PostgresNodeRepository) queryOne(ctx context.Context, id, query string, args ...interface{}) (*models.Node, error) {
	var node models.Node
	err := scanNode(r.exec(ctx).QueryRow(ctx, query, args...), &node)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return &node, nil
}

func (r *PostgresNodeRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]models.Node, error) {
	rows, err := r.exec(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		if err := scanNode(rows, &node); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

func scanNode(row pgx.Row, node *models.Node) error {
	return row.Scan(
		&node.ID, &node.TenantID, &node.ContainerID, &node.ParentID, &node.Depth, &node.Path,
		&node.Code, &node.DisplayName, &node.Description, &node.Icon, &node.Color,
		&node.LinkURL, &node.LinkTarget,
		&node.SortOrder, &node.IsActive, &node.IsDeleted, &node.AttachedCount,
		&node.CreatedAt, &node.CreatedBy, &node.UpdatedAt, &node.UpdatedBy,
	)
}
