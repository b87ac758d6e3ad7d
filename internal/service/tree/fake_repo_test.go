package tree

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/repositories"
)

// fakeStore is the shared in-memory node table behind the fake repository
// and transaction manager.
type fakeStore struct {
	nodes map[string]*models.Node
}

func newFakeStore() *fakeStore {
	return &fakeStore{nodes: make(map[string]*models.Node)}
}

func (s *fakeStore) snapshot() map[string]*models.Node {
	snap := make(map[string]*models.Node, len(s.nodes))
	for id, n := range s.nodes {
		copied := *n
		snap[id] = &copied
	}
	return snap
}

// fakeTxManager mimics transactional atomicity: the store is snapshotted
// before fn runs and restored if fn fails, so partial writes never survive
// a failed mutation.
type fakeTxManager struct {
	store *fakeStore

	// conflicts, when positive, makes the next calls fail with ErrTxConflict
	// before running fn. Used to exercise the retry path.
	conflicts int
}

func (tm *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return tm.run(ctx, fn)
}

func (tm *fakeTxManager) ExecTxInScope(ctx context.Context, _ models.Scope, fn repositories.TxFn) error {
	return tm.run(ctx, fn)
}

func (tm *fakeTxManager) run(ctx context.Context, fn repositories.TxFn) error {
	if tm.conflicts > 0 {
		tm.conflicts--
		return fmt.Errorf("simulated race: %w", domain.ErrTxConflict)
	}

	snap := tm.store.snapshot()
	if err := fn(ctx); err != nil {
		tm.store.nodes = snap
		return err
	}
	return nil
}

// fakeNodeRepo implements repositories.NodeRepository over the fake store,
// mirroring the SQL semantics of the postgres implementation.
type fakeNodeRepo struct {
	store *fakeStore

	// failRebase, when set, is returned by the next RebasePaths call.
	// Used to verify move atomicity.
	failRebase error
}

func (r *fakeNodeRepo) inScope(n *models.Node, scope models.Scope) bool {
	return n.TenantID == scope.TenantID && n.ContainerID == scope.ContainerID
}

func (r *fakeNodeRepo) Insert(_ context.Context, node *models.Node) error {
	for _, n := range r.store.nodes {
		if r.inScope(n, node.Scope()) && !n.IsDeleted && strings.EqualFold(n.Code, node.Code) {
			return &domain.ConflictError{Message: "duplicate code", ResourceType: "node"}
		}
	}
	copied := *node
	r.store.nodes[node.ID] = &copied
	return nil
}

func (r *fakeNodeRepo) GetByID(_ context.Context, scope models.Scope, id string) (*models.Node, error) {
	n, ok := r.store.nodes[id]
	if !ok || !r.inScope(n, scope) {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	copied := *n
	return &copied, nil
}

func (r *fakeNodeRepo) GetLive(ctx context.Context, scope models.Scope, id string) (*models.Node, error) {
	n, err := r.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if n.IsDeleted {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return n, nil
}

func (r *fakeNodeRepo) CodeInUse(_ context.Context, scope models.Scope, code string) (bool, error) {
	for _, n := range r.store.nodes {
		if r.inScope(n, scope) && !n.IsDeleted && strings.EqualFold(n.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNodeRepo) ListSubtree(_ context.Context, scope models.Scope, pathPrefix string, includeInactive bool) ([]models.Node, error) {
	var out []models.Node
	for _, n := range r.store.nodes {
		if !r.inScope(n, scope) || n.IsDeleted {
			continue
		}
		if !includeInactive && !n.IsActive {
			continue
		}
		if withinSubtree(n.Path, pathPrefix) {
			out = append(out, *n)
		}
	}
	orderNodes(out)
	return out, nil
}

func (r *fakeNodeRepo) ListScope(_ context.Context, scope models.Scope, includeInactive bool) ([]models.Node, error) {
	var out []models.Node
	for _, n := range r.store.nodes {
		if !r.inScope(n, scope) || n.IsDeleted {
			continue
		}
		if !includeInactive && !n.IsActive {
			continue
		}
		out = append(out, *n)
	}
	orderNodes(out)
	return out, nil
}

func (r *fakeNodeRepo) ListByIDs(_ context.Context, scope models.Scope, ids []string) ([]models.Node, error) {
	var out []models.Node
	for _, id := range ids {
		if n, ok := r.store.nodes[id]; ok && r.inScope(n, scope) && !n.IsDeleted {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNodeRepo) ListChildren(_ context.Context, scope models.Scope, parentID *string) ([]models.Node, error) {
	var out []models.Node
	for _, n := range r.store.nodes {
		if !r.inScope(n, scope) || n.IsDeleted {
			continue
		}
		if parentID == nil && n.ParentID == nil {
			out = append(out, *n)
		} else if parentID != nil && n.ParentID != nil && *n.ParentID == *parentID {
			out = append(out, *n)
		}
	}
	orderNodes(out)
	return out, nil
}

func (r *fakeNodeRepo) CountLiveChildren(ctx context.Context, scope models.Scope, parentID string) (int, error) {
	children, _ := r.ListChildren(ctx, scope, &parentID)
	return len(children), nil
}

func (r *fakeNodeRepo) UpdateStructure(_ context.Context, scope models.Scope, id string, parentID *string, depth int, path string, sortOrder int) error {
	n, ok := r.store.nodes[id]
	if !ok || !r.inScope(n, scope) || n.IsDeleted {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	n.ParentID = parentID
	n.Depth = depth
	n.Path = path
	n.SortOrder = sortOrder
	return nil
}

func (r *fakeNodeRepo) RebasePaths(_ context.Context, scope models.Scope, oldPath, newPath string, depthDelta int) (int64, error) {
	if r.failRebase != nil {
		err := r.failRebase
		r.failRebase = nil
		return 0, err
	}
	var count int64
	for _, n := range r.store.nodes {
		if !r.inScope(n, scope) {
			continue
		}
		if strings.HasPrefix(n.Path, oldPath+models.PathSep) {
			n.Path = newPath + n.Path[len(oldPath):]
			n.Depth += depthDelta
			count++
		}
	}
	return count, nil
}

func (r *fakeNodeRepo) SetSortOrder(_ context.Context, scope models.Scope, id string, sortOrder int) error {
	n, ok := r.store.nodes[id]
	if !ok || !r.inScope(n, scope) || n.IsDeleted {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	n.SortOrder = sortOrder
	return nil
}

func (r *fakeNodeRepo) UpdateMeta(_ context.Context, node *models.Node) error {
	n, ok := r.store.nodes[node.ID]
	if !ok || !r.inScope(n, node.Scope()) || n.IsDeleted {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	n.DisplayName = node.DisplayName
	n.Description = node.Description
	n.Icon = node.Icon
	n.Color = node.Color
	n.LinkURL = node.LinkURL
	n.LinkTarget = node.LinkTarget
	n.IsActive = node.IsActive
	n.UpdatedAt = node.UpdatedAt
	n.UpdatedBy = node.UpdatedBy
	return nil
}

func (r *fakeNodeRepo) SoftDelete(_ context.Context, scope models.Scope, id string) error {
	n, ok := r.store.nodes[id]
	if !ok || !r.inScope(n, scope) || n.IsDeleted {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	n.IsDeleted = true
	return nil
}

func (r *fakeNodeRepo) SoftDeleteSubtree(_ context.Context, scope models.Scope, path string) (int64, error) {
	var count int64
	for _, n := range r.store.nodes {
		if r.inScope(n, scope) && !n.IsDeleted && withinSubtree(n.Path, path) {
			n.IsDeleted = true
			count++
		}
	}
	return count, nil
}

func (r *fakeNodeRepo) AdjustAttachedCount(_ context.Context, scope models.Scope, id string, delta int) (int, error) {
	n, ok := r.store.nodes[id]
	if !ok || !r.inScope(n, scope) || n.IsDeleted {
		return 0, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	n.AttachedCount += delta
	if n.AttachedCount < 0 {
		n.AttachedCount = 0
	}
	return n.AttachedCount, nil
}

func (r *fakeNodeRepo) HasLiveNodes(_ context.Context, scope models.Scope) (bool, error) {
	for _, n := range r.store.nodes {
		if r.inScope(n, scope) && !n.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

// orderNodes applies the repository ordering contract (depth, sort_order, code).
func orderNodes(nodes []models.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].Code < nodes[j].Code
	})
}
