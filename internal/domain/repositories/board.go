package repositories

import (
	"context"

	"canopy/internal/domain/models"
)

// BoardRepository defines data access operations for boards
type BoardRepository interface {
	// Insert stores a new board. Fails with domain.ErrConflict if the code
	// is already used by a live board in the tenant.
	Insert(ctx context.Context, board *models.Board) error

	// GetByID retrieves a live board by id within a tenant.
	GetByID(ctx context.Context, tenantID, id string) (*models.Board, error)

	// GetByCode retrieves a live board by its URL code within a tenant.
	GetByCode(ctx context.Context, tenantID, code string) (*models.Board, error)

	// List lists live boards for a tenant ordered by code.
	List(ctx context.Context, tenantID string, includeInactive bool) ([]models.Board, error)

	// Update persists mutable board fields.
	Update(ctx context.Context, board *models.Board) error

	// SoftDelete marks a board deleted.
	SoftDelete(ctx context.Context, tenantID, id string) error
}
