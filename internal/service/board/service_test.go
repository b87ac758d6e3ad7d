package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/repositories"
	"canopy/internal/domain/services"
)

type fakeBoardRepo struct {
	boards map[string]*models.Board
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{boards: make(map[string]*models.Board)}
}

func (r *fakeBoardRepo) Insert(_ context.Context, board *models.Board) error {
	for _, b := range r.boards {
		if b.TenantID == board.TenantID && !b.IsDeleted && strings.EqualFold(b.Code, board.Code) {
			return &domain.ConflictError{Message: "code in use", ResourceType: "board", ResourceID: b.ID}
		}
	}
	cp := *board
	r.boards[board.ID] = &cp
	return nil
}

func (r *fakeBoardRepo) GetByID(_ context.Context, tenantID, id string) (*models.Board, error) {
	b, ok := r.boards[id]
	if !ok || b.TenantID != tenantID || b.IsDeleted {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBoardRepo) GetByCode(_ context.Context, tenantID, code string) (*models.Board, error) {
	for _, b := range r.boards {
		if b.TenantID == tenantID && !b.IsDeleted && strings.EqualFold(b.Code, code) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBoardRepo) List(_ context.Context, tenantID string, includeInactive bool) ([]models.Board, error) {
	var out []models.Board
	for _, b := range r.boards {
		if b.TenantID != tenantID || b.IsDeleted {
			continue
		}
		if !includeInactive && !b.IsActive {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBoardRepo) Update(_ context.Context, board *models.Board) error {
	if _, ok := r.boards[board.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *board
	r.boards[board.ID] = &cp
	return nil
}

func (r *fakeBoardRepo) SoftDelete(_ context.Context, tenantID, id string) error {
	b, ok := r.boards[id]
	if !ok || b.TenantID != tenantID || b.IsDeleted {
		return domain.ErrNotFound
	}
	b.IsDeleted = true
	return nil
}

// fakeNodeRepo stubs just the scope-occupancy check the board service uses.
type fakeNodeRepo struct {
	repositories.NodeRepository
	hasLive bool
}

func (r *fakeNodeRepo) HasLiveNodes(_ context.Context, _ models.Scope) (bool, error) {
	return r.hasLive, nil
}

// fakeTxManager runs the function inline. onLock, when set, fires after the
// scope lock would have been acquired and before the function body runs.
type fakeTxManager struct {
	scopes []models.Scope
	onLock func()
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func (m *fakeTxManager) ExecTxInScope(ctx context.Context, scope models.Scope, fn repositories.TxFn) error {
	m.scopes = append(m.scopes, scope)
	if m.onLock != nil {
		m.onLock()
	}
	return fn(ctx)
}

func newService(repo *fakeBoardRepo, nodes *fakeNodeRepo) services.BoardService {
	return newServiceTx(repo, nodes, &fakeTxManager{})
}

func newServiceTx(repo *fakeBoardRepo, nodes *fakeNodeRepo, tx *fakeTxManager) services.BoardService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, nodes, tx, logger)
}

func TestCreateBoardDefaults(t *testing.T) {
	svc := newService(newFakeBoardRepo(), &fakeNodeRepo{})

	board, err := svc.CreateBoard(context.Background(), "t1", &services.CreateBoardRequest{
		Code:      "Notice",
		Name:      "  Notice  ",
		BoardType: models.BoardTypeNotice,
		CreatedBy: "admin",
	})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	if board.Code != "notice" {
		t.Errorf("code not lowercased: %q", board.Code)
	}
	if board.Name != "Notice" {
		t.Errorf("name not trimmed: %q", board.Name)
	}
	if board.ReadPermission != models.PermissionPublic {
		t.Errorf("read permission = %q, want public", board.ReadPermission)
	}
	if board.WritePermission != models.PermissionMember || board.CommentPermission != models.PermissionMember {
		t.Errorf("write/comment permissions not defaulted to member")
	}
	if !board.EnableCategories || !board.IsActive {
		t.Errorf("expected categories enabled and board active by default")
	}
}

func TestCreateBoardValidation(t *testing.T) {
	svc := newService(newFakeBoardRepo(), &fakeNodeRepo{})

	tests := []struct {
		name string
		req  services.CreateBoardRequest
	}{
		{"missing code", services.CreateBoardRequest{Name: "X", BoardType: models.BoardTypeFree}},
		{"bad code chars", services.CreateBoardRequest{Code: "My Board!", Name: "X", BoardType: models.BoardTypeFree}},
		{"missing name", services.CreateBoardRequest{Code: "x", BoardType: models.BoardTypeFree}},
		{"missing type", services.CreateBoardRequest{Code: "x", Name: "X"}},
		{"unknown type", services.CreateBoardRequest{Code: "x", Name: "X", BoardType: "wiki"}},
		{"unknown permission", services.CreateBoardRequest{Code: "x", Name: "X", BoardType: models.BoardTypeFree, ReadPermission: "everyone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBoard(context.Background(), "t1", &tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateBoardMixedCaseCode(t *testing.T) {
	svc := newService(newFakeBoardRepo(), &fakeNodeRepo{})
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "t1", &services.CreateBoardRequest{
		Code: "QnA-Board", Name: "Q&A", BoardType: models.BoardTypeQnA,
	})
	if err != nil {
		t.Fatalf("mixed-case create: %v", err)
	}
	if board.Code != "qna-board" {
		t.Errorf("code = %q, want %q", board.Code, "qna-board")
	}

	// A case variant of an existing code is the same code
	_, err = svc.CreateBoard(ctx, "t1", &services.CreateBoardRequest{
		Code: "qna-BOARD", Name: "Q&A 2", BoardType: models.BoardTypeQnA,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for case-variant code, got %v", err)
	}
}

func TestCreateBoardDuplicateCode(t *testing.T) {
	svc := newService(newFakeBoardRepo(), &fakeNodeRepo{})
	ctx := context.Background()

	req := services.CreateBoardRequest{Code: "free", Name: "Free", BoardType: models.BoardTypeFree}
	if _, err := svc.CreateBoard(ctx, "t1", &req); err != nil {
		t.Fatalf("first create: %v", err)
	}

	if _, err := svc.CreateBoard(ctx, "t1", &req); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Same code in another tenant is fine
	if _, err := svc.CreateBoard(ctx, "t2", &req); err != nil {
		t.Fatalf("cross-tenant create: %v", err)
	}
}

func TestUpdateBoard(t *testing.T) {
	svc := newService(newFakeBoardRepo(), &fakeNodeRepo{})
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "t1", &services.CreateBoardRequest{
		Code: "qna", Name: "Q&A", BoardType: models.BoardTypeQnA,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Questions"
	write := models.PermissionAdmin
	inactive := false
	updated, err := svc.UpdateBoard(ctx, "t1", board.ID, &services.UpdateBoardRequest{
		Name:            &name,
		WritePermission: &write,
		IsActive:        &inactive,
		UpdatedBy:       "admin",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != "Questions" || updated.WritePermission != models.PermissionAdmin || updated.IsActive {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.Code != "qna" {
		t.Errorf("code must be immutable, got %q", updated.Code)
	}
}

func TestDeleteBoardBlockedByCategories(t *testing.T) {
	nodes := &fakeNodeRepo{hasLive: true}
	svc := newService(newFakeBoardRepo(), nodes)
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "t1", &services.CreateBoardRequest{
		Code: "free", Name: "Free", BoardType: models.BoardTypeFree,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteBoard(ctx, "t1", board.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict while categories remain, got %v", err)
	}

	// Once the scope is empty the delete goes through
	nodes.hasLive = false
	if err := svc.DeleteBoard(ctx, "t1", board.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetBoard(ctx, "t1", board.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted board to be gone, got %v", err)
	}
}

func TestDeleteBoardChecksInsideScopeLock(t *testing.T) {
	nodes := &fakeNodeRepo{}
	tx := &fakeTxManager{}
	svc := newServiceTx(newFakeBoardRepo(), nodes, tx)
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "t1", &services.CreateBoardRequest{
		Code: "notice", Name: "Notice", BoardType: models.BoardTypeNotice,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A category create that committed while the delete waited on the
	// scope lock must be visible to the emptiness check.
	tx.onLock = func() { nodes.hasLive = true }

	if err := svc.DeleteBoard(ctx, "t1", board.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.GetBoard(ctx, "t1", board.ID); err != nil {
		t.Fatalf("board must survive a refused delete: %v", err)
	}

	want := board.CategoryScope()
	if len(tx.scopes) != 1 || tx.scopes[0] != want {
		t.Fatalf("delete not serialized on the category scope: %v", tx.scopes)
	}
}
