package services

import (
	"context"

	"canopy/internal/domain/models"
)

// BoardService handles board container management. Category trees hang off
// a board's scope; the board layer never touches tree structure itself.
type BoardService interface {
	// CreateBoard creates a board for the tenant.
	CreateBoard(ctx context.Context, tenantID string, req *CreateBoardRequest) (*models.Board, error)

	// GetBoard retrieves a board by id.
	GetBoard(ctx context.Context, tenantID, id string) (*models.Board, error)

	// ListBoards lists the tenant's live boards.
	ListBoards(ctx context.Context, tenantID string, includeInactive bool) ([]models.Board, error)

	// UpdateBoard updates mutable board fields.
	UpdateBoard(ctx context.Context, tenantID, id string, req *UpdateBoardRequest) (*models.Board, error)

	// DeleteBoard soft-deletes a board. Blocked while live category nodes
	// remain in the board's scope.
	DeleteBoard(ctx context.Context, tenantID, id string) error
}

// CreateBoardRequest represents a board creation request
type CreateBoardRequest struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	BoardType         string `json:"board_type"`
	ReadPermission    string `json:"read_permission,omitempty"`
	WritePermission   string `json:"write_permission,omitempty"`
	CommentPermission string `json:"comment_permission,omitempty"`
	EnableCategories  *bool  `json:"enable_categories,omitempty"`
	CreatedBy         string `json:"-"`
}

// UpdateBoardRequest represents a board update request
type UpdateBoardRequest struct {
	Name              *string `json:"name,omitempty"`
	Description       *string `json:"description,omitempty"`
	BoardType         *string `json:"board_type,omitempty"`
	ReadPermission    *string `json:"read_permission,omitempty"`
	WritePermission   *string `json:"write_permission,omitempty"`
	CommentPermission *string `json:"comment_permission,omitempty"`
	EnableCategories  *bool   `json:"enable_categories,omitempty"`
	IsActive          *bool   `json:"is_active,omitempty"`
	UpdatedBy         string  `json:"-"`
}
