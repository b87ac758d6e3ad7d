package repositories

import (
	"context"

	"canopy/internal/domain/models"
)

// NodeRepository defines data access for tree nodes. Implementations must
// participate in a transaction when one is present in the context, so the
// service layer can compose multi-statement mutations atomically.
type NodeRepository interface {
	// Insert stores a new node row. Fails with domain.ErrConflict if the
	// node's code is already used by a live node in the same scope.
	Insert(ctx context.Context, node *models.Node) error

	// GetByID retrieves a node by id regardless of its deleted flag.
	// Soft-deleted nodes stay addressable for audit.
	GetByID(ctx context.Context, scope models.Scope, id string) (*models.Node, error)

	// GetLive retrieves a node by id, excluding soft-deleted rows.
	GetLive(ctx context.Context, scope models.Scope, id string) (*models.Node, error)

	// CodeInUse reports whether a live node in scope uses the code
	// (case-insensitive).
	CodeInUse(ctx context.Context, scope models.Scope, code string) (bool, error)

	// ListSubtree returns the node whose path is pathPrefix plus every
	// descendant, ordered by (depth, sort_order, code). Soft-deleted rows
	// are always excluded; inactive rows only when includeInactive is set.
	// Single range query on the path index regardless of tree depth.
	ListSubtree(ctx context.Context, scope models.Scope, pathPrefix string, includeInactive bool) ([]models.Node, error)

	// ListScope returns every live node in the scope ordered by
	// (depth, sort_order, code), for whole-tree rendering.
	ListScope(ctx context.Context, scope models.Scope, includeInactive bool) ([]models.Node, error)

	// ListByIDs batch-fetches live nodes by id, preserving no particular order.
	ListByIDs(ctx context.Context, scope models.Scope, ids []string) ([]models.Node, error)

	// ListChildren lists live immediate children of parentID (nil = roots),
	// ordered by (sort_order, code).
	ListChildren(ctx context.Context, scope models.Scope, parentID *string) ([]models.Node, error)

	// CountLiveChildren counts non-deleted children of a node.
	CountLiveChildren(ctx context.Context, scope models.Scope, parentID string) (int, error)

	// UpdateStructure rewrites the structural fields of a single node.
	UpdateStructure(ctx context.Context, scope models.Scope, id string, parentID *string, depth int, path string, sortOrder int) error

	// RebasePaths rewrites every descendant under oldPath: the oldPath
	// prefix is replaced with newPath and depth shifts by depthDelta.
	// One bulk statement keyed by prefix match; returns rows affected.
	RebasePaths(ctx context.Context, scope models.Scope, oldPath, newPath string, depthDelta int) (int64, error)

	// SetSortOrder updates a single node's sort_order.
	SetSortOrder(ctx context.Context, scope models.Scope, id string, sortOrder int) error

	// UpdateMeta persists the non-structural fields (display name,
	// description, icon, color, active flag, audit columns).
	UpdateMeta(ctx context.Context, node *models.Node) error

	// SoftDelete marks a single node deleted.
	SoftDelete(ctx context.Context, scope models.Scope, id string) error

	// SoftDeleteSubtree marks the node at path and every descendant
	// deleted in one statement; returns rows affected.
	SoftDeleteSubtree(ctx context.Context, scope models.Scope, path string) (int64, error)

	// AdjustAttachedCount atomically applies a delta to a node's
	// attached_count and returns the new value. Not part of the structural
	// transaction scope; the count never drops below zero.
	AdjustAttachedCount(ctx context.Context, scope models.Scope, id string, delta int) (int, error)

	// HasLiveNodes reports whether any live node exists in the scope. Used
	// by container deletion checks.
	HasLiveNodes(ctx context.Context, scope models.Scope) (bool, error)
}
