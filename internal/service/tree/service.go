package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/repositories"
	"canopy/internal/domain/services"
)

// codePattern is the format rule for node codes: lowercase alphanumeric
// plus underscore, starting with a letter or digit.
var codePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)

const (
	maxCodeLength        = 50
	maxDisplayNameLength = 100

	// txConflict retries: bounded, with linear backoff between attempts
	maxTxAttempts  = 3
	txRetryBackoff = 25 * time.Millisecond
)

type treeService struct {
	nodeRepo  repositories.NodeRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewService creates the tree engine service
func NewService(
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.TreeService {
	return &treeService{
		nodeRepo:  nodeRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// Create inserts a node under the given parent (nil = root). Depth and path
// are computed from the parent's committed state inside the same
// transaction that performs the insert, so no later fixup is needed.
func (s *treeService) Create(ctx context.Context, scope models.Scope, req *services.CreateNodeRequest) (*models.Node, error) {
	// Codes are case-insensitive: normalize before the format check so
	// mixed-case input is accepted and stored in canonical form.
	req.Code = strings.ToLower(strings.TrimSpace(req.Code))
	if err := validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	node := &models.Node{
		ID:          uuid.NewString(),
		TenantID:    scope.TenantID,
		ContainerID: scope.ContainerID,
		ParentID:    req.ParentID,
		Code:        req.Code,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		LinkURL:     req.LinkURL,
		LinkTarget:  req.LinkTarget,
		SortOrder:   req.SortOrder,
		IsActive:    true,
		CreatedAt:   now,
		CreatedBy:   req.CreatedBy,
		UpdatedAt:   now,
		UpdatedBy:   req.CreatedBy,
	}

	err := s.withTxRetry(ctx, scope, func(txCtx context.Context) error {
		inUse, err := s.nodeRepo.CodeInUse(txCtx, scope, node.Code)
		if err != nil {
			return err
		}
		if inUse {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("code %q is already in use", node.Code),
				ResourceType: "node",
			}
		}

		if req.ParentID != nil {
			parent, err := s.nodeRepo.GetLive(txCtx, scope, *req.ParentID)
			if err != nil {
				return err
			}
			node.Depth = parent.Depth + 1
			node.Path = childPath(parent.Path, node.ID)
		} else {
			node.Depth = 0
			node.Path = rootPath(node.ID)
		}

		return s.nodeRepo.Insert(txCtx, node)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node created",
		"node_id", node.ID,
		"code", node.Code,
		"tenant_id", scope.TenantID,
		"container_id", scope.ContainerID,
		"depth", node.Depth,
	)

	return node, nil
}

// Get retrieves a node by id, including soft-deleted nodes for audit.
func (s *treeService) Get(ctx context.Context, scope models.Scope, id string) (*models.Node, error) {
	return s.nodeRepo.GetByID(ctx, scope, id)
}

// GetSubtree returns the node and every live descendant in (depth,
// sort_order) order. One range query on the path index regardless of depth.
func (s *treeService) GetSubtree(ctx context.Context, scope models.Scope, id string, includeInactive bool) ([]models.Node, error) {
	node, err := s.nodeRepo.GetLive(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return s.nodeRepo.ListSubtree(ctx, scope, node.Path, includeInactive)
}

// GetRoots returns the scope's whole live forest, nested for rendering.
func (s *treeService) GetRoots(ctx context.Context, scope models.Scope, includeInactive bool) ([]*models.TreeNode, error) {
	nodes, err := s.nodeRepo.ListScope(ctx, scope, includeInactive)
	if err != nil {
		return nil, err
	}
	return buildForest(nodes), nil
}

// GetAncestors returns the node's ancestors root-first. The ancestor id
// list comes straight from the node's path, then one batch fetch.
func (s *treeService) GetAncestors(ctx context.Context, scope models.Scope, id string) ([]models.Node, error) {
	node, err := s.nodeRepo.GetLive(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	ids := node.AncestorIDs()
	if len(ids) == 0 {
		return nil, nil
	}

	ancestors, err := s.nodeRepo.ListByIDs(ctx, scope, ids)
	if err != nil {
		return nil, err
	}
	sortByDepth(ancestors)
	return ancestors, nil
}

// Update mutates non-structural fields only. Code and structure are
// untouchable here by design of the ownership split.
func (s *treeService) Update(ctx context.Context, scope models.Scope, id string, req *services.UpdateNodeRequest) (*models.Node, error) {
	if err := validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, err := s.nodeRepo.GetLive(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		node.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Description != nil {
		node.Description = *req.Description
	}
	if req.Icon != nil {
		node.Icon = *req.Icon
	}
	if req.Color != nil {
		node.Color = *req.Color
	}
	if req.LinkURL != nil {
		node.LinkURL = *req.LinkURL
	}
	if req.LinkTarget != nil {
		node.LinkTarget = *req.LinkTarget
	}
	if req.IsActive != nil {
		node.IsActive = *req.IsActive
	}
	node.UpdatedAt = time.Now()
	node.UpdatedBy = req.UpdatedBy

	if err := s.nodeRepo.UpdateMeta(ctx, node); err != nil {
		return nil, err
	}

	return node, nil
}

// Move reparents a node. The node's own row and every descendant's
// depth/path are rewritten in one transaction serialized per scope; a
// failure at any step rolls the whole rewrite back.
func (s *treeService) Move(ctx context.Context, scope models.Scope, id string, req *services.MoveNodeRequest) (*models.Node, error) {
	if err := validateMoveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var moved *models.Node

	err := s.withTxRetry(ctx, scope, func(txCtx context.Context) error {
		node, err := s.nodeRepo.GetLive(txCtx, scope, id)
		if err != nil {
			return err
		}

		oldPath := node.Path
		oldDepth := node.Depth

		var newDepth int
		var newPath string
		if req.NewParentID != nil {
			if *req.NewParentID == node.ID {
				return &domain.InvalidOperationError{
					Message: "cannot move a node into its own subtree",
				}
			}
			parent, err := s.nodeRepo.GetLive(txCtx, scope, *req.NewParentID)
			if err != nil {
				return err
			}
			// Cycle check: the new parent must not live under the node
			if withinSubtree(parent.Path, oldPath) {
				return &domain.InvalidOperationError{
					Message: "cannot move a node into its own subtree",
				}
			}
			newDepth = parent.Depth + 1
			newPath = childPath(parent.Path, node.ID)
		} else {
			newDepth = 0
			newPath = rootPath(node.ID)
		}

		if err := s.nodeRepo.UpdateStructure(txCtx, scope, node.ID, req.NewParentID, newDepth, newPath, req.NewSortOrder); err != nil {
			return err
		}

		if newPath != oldPath {
			rebased, err := s.nodeRepo.RebasePaths(txCtx, scope, oldPath, newPath, newDepth-oldDepth)
			if err != nil {
				return err
			}
			s.logger.Debug("subtree rebased",
				"node_id", node.ID,
				"descendants", rebased,
				"old_path", oldPath,
				"new_path", newPath,
			)
		}

		node.ParentID = req.NewParentID
		node.Depth = newDepth
		node.Path = newPath
		node.SortOrder = req.NewSortOrder
		node.UpdatedAt = time.Now()
		moved = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node moved",
		"node_id", moved.ID,
		"tenant_id", scope.TenantID,
		"container_id", scope.ContainerID,
		"path", moved.Path,
	)

	return moved, nil
}

// ReorderSiblings assigns sort_order = index to the children of parentID in
// the given order. The id set must exactly match the current live children;
// a mismatch is a stale client, not a partial reorder.
func (s *treeService) ReorderSiblings(ctx context.Context, scope models.Scope, parentID *string, orderedIDs []string) error {
	return s.withTxRetry(ctx, scope, func(txCtx context.Context) error {
		if parentID != nil {
			if _, err := s.nodeRepo.GetLive(txCtx, scope, *parentID); err != nil {
				return err
			}
		}

		children, err := s.nodeRepo.ListChildren(txCtx, scope, parentID)
		if err != nil {
			return err
		}

		if err := matchSiblingSet(children, orderedIDs); err != nil {
			return err
		}

		for i, id := range orderedIDs {
			if err := s.nodeRepo.SetSortOrder(txCtx, scope, id, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete soft-deletes a node, or its whole subtree with cascade. Rows are
// never physically removed; retention/GC is an external concern.
func (s *treeService) Delete(ctx context.Context, scope models.Scope, id string, cascade bool) error {
	err := s.withTxRetry(ctx, scope, func(txCtx context.Context) error {
		node, err := s.nodeRepo.GetLive(txCtx, scope, id)
		if err != nil {
			return err
		}

		if cascade {
			deleted, err := s.nodeRepo.SoftDeleteSubtree(txCtx, scope, node.Path)
			if err != nil {
				return err
			}
			s.logger.Info("subtree deleted",
				"node_id", id,
				"nodes", deleted,
				"tenant_id", scope.TenantID,
				"container_id", scope.ContainerID,
			)
			return nil
		}

		children, err := s.nodeRepo.CountLiveChildren(txCtx, scope, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("node has %d children", children),
				ResourceType: "node",
				ResourceID:   id,
			}
		}
		if node.AttachedCount > 0 {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("node has %d attached items", node.AttachedCount),
				ResourceType: "node",
				ResourceID:   id,
			}
		}

		return s.nodeRepo.SoftDelete(txCtx, scope, id)
	})
	if err != nil {
		return err
	}

	if !cascade {
		s.logger.Info("node deleted",
			"node_id", id,
			"tenant_id", scope.TenantID,
			"container_id", scope.ContainerID,
		)
	}
	return nil
}

// AdjustAttachedCount applies an atomic delta to the attachment counter
// cache. Deliberately outside the structural transaction and scope lock:
// the counter is caller-owned state, not tree structure.
func (s *treeService) AdjustAttachedCount(ctx context.Context, scope models.Scope, id string, delta int) (int, error) {
	return s.nodeRepo.AdjustAttachedCount(ctx, scope, id, delta)
}

// withTxRetry runs a structural mutation in a scope-locked transaction,
// retrying only on transaction conflicts. All other errors are terminal
// and surface unchanged.
func (s *treeService) withTxRetry(ctx context.Context, scope models.Scope, fn repositories.TxFn) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.txManager.ExecTxInScope(ctx, scope, fn)
		if err == nil || !errors.Is(err, domain.ErrTxConflict) {
			return err
		}

		s.logger.Warn("transaction conflict, retrying",
			"attempt", attempt,
			"tenant_id", scope.TenantID,
			"container_id", scope.ContainerID,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * txRetryBackoff):
		}
	}
	return err
}

// matchSiblingSet verifies orderedIDs is exactly the current children set.
func matchSiblingSet(children []models.Node, orderedIDs []string) error {
	if len(children) != len(orderedIDs) {
		return &domain.InvalidOperationError{
			Message: fmt.Sprintf("reorder expects %d sibling ids, got %d", len(children), len(orderedIDs)),
		}
	}

	current := make(map[string]bool, len(children))
	for i := range children {
		current[children[i].ID] = true
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !current[id] {
			return &domain.InvalidOperationError{
				Message: fmt.Sprintf("id %s is not a child of the given parent", id),
			}
		}
		if seen[id] {
			return &domain.InvalidOperationError{
				Message: fmt.Sprintf("id %s appears more than once", id),
			}
		}
		seen[id] = true
	}
	return nil
}

// validateCreateRequest validates a node creation request
func validateCreateRequest(req *services.CreateNodeRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Code,
			validation.Required,
			validation.Length(1, maxCodeLength),
			validation.Match(codePattern).Error("code must be lowercase alphanumeric or underscore"),
		),
		validation.Field(&req.DisplayName,
			validation.Required,
			validation.Length(1, maxDisplayNameLength),
		),
		validation.Field(&req.SortOrder, validation.Min(0)),
		validation.Field(&req.LinkTarget, validation.In("", "_self", "_blank")),
	)
}

// validateMoveRequest validates a reparent request
func validateMoveRequest(req *services.MoveNodeRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.NewSortOrder, validation.Min(0)),
	)
}

// validateUpdateRequest validates a non-structural node update
func validateUpdateRequest(req *services.UpdateNodeRequest) error {
	rules := []*validation.FieldRules{
		validation.Field(&req.LinkTarget, validation.In("", "_self", "_blank")),
	}
	if req.DisplayName != nil {
		rules = append(rules,
			validation.Field(&req.DisplayName,
				validation.Required,
				validation.Length(1, maxDisplayNameLength),
			),
		)
	}
	return validation.ValidateStruct(req, rules...)
}
