package services

import (
	"context"

	"canopy/internal/domain/models"
)

// TreeService is the scoped tree engine. It exclusively owns the structural
// fields of every node (parent, depth, path, sort order); callers supply a
// scope on every call and never inspect or write structure directly.
type TreeService interface {
	// Create inserts a node under the given parent (nil = root) and returns
	// it with structure computed from the parent's committed state.
	Create(ctx context.Context, scope models.Scope, req *CreateNodeRequest) (*models.Node, error)

	// Get retrieves a node by id, including soft-deleted nodes for audit.
	Get(ctx context.Context, scope models.Scope, id string) (*models.Node, error)

	// GetSubtree returns the node and every live descendant ordered by
	// (depth, sort_order) for stable rendering.
	GetSubtree(ctx context.Context, scope models.Scope, id string, includeInactive bool) ([]models.Node, error)

	// GetRoots returns every live root node and its descendants, nested,
	// the shape the admin tree UI consumes.
	GetRoots(ctx context.Context, scope models.Scope, includeInactive bool) ([]*models.TreeNode, error)

	// GetAncestors returns the node's ancestors root-first, for breadcrumbs.
	GetAncestors(ctx context.Context, scope models.Scope, id string) ([]models.Node, error)

	// Update mutates non-structural fields only.
	Update(ctx context.Context, scope models.Scope, id string, req *UpdateNodeRequest) (*models.Node, error)

	// Move reparents a node, rewriting depth and path of the node and every
	// descendant in one transaction. Rejects cycle-forming moves.
	Move(ctx context.Context, scope models.Scope, id string, req *MoveNodeRequest) (*models.Node, error)

	// ReorderSiblings reassigns sort_order for the children of parentID
	// (nil = roots) to match orderedIDs. The id set must exactly equal the
	// current live children or the call fails as a stale-client error.
	ReorderSiblings(ctx context.Context, scope models.Scope, parentID *string, orderedIDs []string) error

	// Delete soft-deletes a node. Without cascade the node must have no
	// live children and no attached items; with cascade the whole subtree
	// is soft-deleted in one transaction.
	Delete(ctx context.Context, scope models.Scope, id string, cascade bool) error

	// AdjustAttachedCount applies an atomic delta to a node's attachment
	// counter cache. Outside the structural transaction scope.
	AdjustAttachedCount(ctx context.Context, scope models.Scope, id string, delta int) (int, error)
}

// CreateNodeRequest represents a node creation request
type CreateNodeRequest struct {
	ParentID    *string `json:"parent_id,omitempty"` // null for root
	Code        string  `json:"code"`
	DisplayName string  `json:"display_name"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Color       string  `json:"color,omitempty"`
	LinkURL     string  `json:"link_url,omitempty"`
	LinkTarget  string  `json:"link_target,omitempty"`
	SortOrder   int     `json:"sort_order"`
	CreatedBy   string  `json:"-"`
}

// UpdateNodeRequest represents a non-structural node update. Code is
// immutable and structure is changed only through Move/ReorderSiblings.
type UpdateNodeRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Color       *string `json:"color,omitempty"`
	LinkURL     *string `json:"link_url,omitempty"`
	LinkTarget  *string `json:"link_target,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	UpdatedBy   string  `json:"-"`
}

// MoveNodeRequest represents a reparent request. NewParentID null promotes
// the node to root.
type MoveNodeRequest struct {
	NewParentID  *string `json:"new_parent_id"`
	NewSortOrder int     `json:"new_sort_order"`
	UpdatedBy    string  `json:"-"`
}
