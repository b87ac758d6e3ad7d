package board

import (
	"context"
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

var codePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

const (
	maxCodeLength = 50
	maxNameLength = 100
)

var boardTypes = []interface{}{
	models.BoardTypeNotice,
	models.BoardTypeFree,
	models.BoardTypeQnA,
	models.BoardTypeFAQ,
	models.BoardTypeGallery,
	models.BoardTypeReview,
}

var permissions = []interface{}{
	models.PermissionPublic,
	models.PermissionMember,
	models.PermissionAdmin,
	models.PermissionDisabled,
}

type boardService struct {
	boardRepo repositories.BoardRepository
	nodeRepo  repositories.NodeRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewService creates the board container service
func NewService(
	boardRepo repositories.BoardRepository,
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.BoardService {
	return &boardService{
		boardRepo: boardRepo,
		nodeRepo:  nodeRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateBoard creates a board for the tenant. Permissions default to public
// read, member write/comment when omitted.
func (s *boardService) CreateBoard(ctx context.Context, tenantID string, req *services.CreateBoardRequest) (*models.Board, error) {
	// Codes are case-insensitive: normalize before the format check so
	// mixed-case input is accepted and stored in canonical form.
	req.Code = strings.ToLower(strings.TrimSpace(req.Code))
	if err := validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	board := &models.Board{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		Code:              req.Code,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		BoardType:         req.BoardType,
		ReadPermission:    defaultPermission(req.ReadPermission, models.PermissionPublic),
		WritePermission:   defaultPermission(req.WritePermission, models.PermissionMember),
		CommentPermission: defaultPermission(req.CommentPermission, models.PermissionMember),
		EnableCategories:  true,
		IsActive:          true,
		CreatedAt:         now,
		CreatedBy:         req.CreatedBy,
		UpdatedAt:         now,
		UpdatedBy:         req.CreatedBy,
	}
	if req.EnableCategories != nil {
		board.EnableCategories = *req.EnableCategories
	}

	if err := s.boardRepo.Insert(ctx, board); err != nil {
		return nil, err
	}

	s.logger.Info("board created",
		"board_id", board.ID,
		"code", board.Code,
		"tenant_id", tenantID,
		"board_type", board.BoardType,
	)

	return board, nil
}

// GetBoard retrieves a live board by id.
func (s *boardService) GetBoard(ctx context.Context, tenantID, id string) (*models.Board, error) {
	return s.boardRepo.GetByID(ctx, tenantID, id)
}

// ListBoards lists the tenant's live boards.
func (s *boardService) ListBoards(ctx context.Context, tenantID string, includeInactive bool) ([]models.Board, error) {
	return s.boardRepo.List(ctx, tenantID, includeInactive)
}

// UpdateBoard updates mutable board fields. Code is immutable because it is
// embedded in public URLs.
func (s *boardService) UpdateBoard(ctx context.Context, tenantID, id string, req *services.UpdateBoardRequest) (*models.Board, error) {
	if err := validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	board, err := s.boardRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		board.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.BoardType != nil {
		board.BoardType = *req.BoardType
	}
	if req.ReadPermission != nil {
		board.ReadPermission = *req.ReadPermission
	}
	if req.WritePermission != nil {
		board.WritePermission = *req.WritePermission
	}
	if req.CommentPermission != nil {
		board.CommentPermission = *req.CommentPermission
	}
	if req.EnableCategories != nil {
		board.EnableCategories = *req.EnableCategories
	}
	if req.IsActive != nil {
		board.IsActive = *req.IsActive
	}
	board.UpdatedAt = time.Now()
	board.UpdatedBy = req.UpdatedBy

	if err := s.boardRepo.Update(ctx, board); err != nil {
		return nil, err
	}

	return board, nil
}

// DeleteBoard soft-deletes a board. Refused while live categories remain in
// the board's scope, so a board never orphans its tree. The emptiness check
// and the delete run in one transaction holding the scope lock, so a
// category create serialized on the same lock cannot land between them.
func (s *boardService) DeleteBoard(ctx context.Context, tenantID, id string) error {
	board, err := s.boardRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTxInScope(ctx, board.CategoryScope(), func(txCtx context.Context) error {
		hasNodes, err := s.nodeRepo.HasLiveNodes(txCtx, board.CategoryScope())
		if err != nil {
			return err
		}
		if hasNodes {
			return &domain.ConflictError{
				Message:      "board still has live categories",
				ResourceType: "board",
				ResourceID:   id,
			}
		}
		return s.boardRepo.SoftDelete(txCtx, tenantID, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("board deleted",
		"board_id", id,
		"tenant_id", tenantID,
	)
	return nil
}

func defaultPermission(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func validateCreateRequest(req *services.CreateBoardRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Code,
			validation.Required,
			validation.Length(1, maxCodeLength),
			validation.Match(codePattern).Error("code must be lowercase alphanumeric, underscore or hyphen"),
		),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, maxNameLength),
		),
		validation.Field(&req.BoardType, validation.Required, validation.In(boardTypes...)),
		validation.Field(&req.ReadPermission, validation.In(permissions...)),
		validation.Field(&req.WritePermission, validation.In(permissions...)),
		validation.Field(&req.CommentPermission, validation.In(permissions...)),
	)
}

func validateUpdateRequest(req *services.UpdateBoardRequest) error {
	rules := []*validation.FieldRules{
		validation.Field(&req.ReadPermission, validation.In(permissions...)),
		validation.Field(&req.WritePermission, validation.In(permissions...)),
		validation.Field(&req.CommentPermission, validation.In(permissions...)),
	}
	if req.Name != nil {
		rules = append(rules,
			validation.Field(&req.Name, validation.Required, validation.Length(1, maxNameLength)),
		)
	}
	if req.BoardType != nil {
		rules = append(rules,
			validation.Field(&req.BoardType, validation.In(boardTypes...)),
		)
	}
	return validation.ValidateStruct(req, rules...)
}
