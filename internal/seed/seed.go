// Package seed creates boards, starter categories and default menus for a
// tenant from a YAML definition. Everything goes through the service layer,
// so seeded trees obey the same invariants as user-created ones.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/services"
	"canopy/internal/service/menu"
)

// Seeder applies a seed definition to one tenant
type Seeder struct {
	boards services.BoardService
	tree   services.TreeService
	logger *slog.Logger
}

// NewSeeder creates a seeder backed by the given services
func NewSeeder(boards services.BoardService, tree services.TreeService, logger *slog.Logger) *Seeder {
	return &Seeder{
		boards: boards,
		tree:   tree,
		logger: logger,
	}
}

// Apply creates every board and menu in the definition for the tenant.
// Existing boards are skipped rather than modified, so Apply is safe to run
// against a tenant that was already seeded.
func (s *Seeder) Apply(ctx context.Context, tenantID, userID string, def *Definition) error {
	for i := range def.Boards {
		if err := s.applyBoard(ctx, tenantID, userID, &def.Boards[i]); err != nil {
			return fmt.Errorf("seed board %s: %w", def.Boards[i].Code, err)
		}
	}
	for i := range def.Menus {
		if err := s.applyMenu(ctx, tenantID, userID, &def.Menus[i]); err != nil {
			return fmt.Errorf("seed menu %s: %w", def.Menus[i].Namespace, err)
		}
	}
	return nil
}

func (s *Seeder) applyBoard(ctx context.Context, tenantID, userID string, tpl *BoardTemplate) error {
	board, err := s.boards.CreateBoard(ctx, tenantID, &services.CreateBoardRequest{
		Code:        tpl.Code,
		Name:        tpl.Name,
		Description: tpl.Description,
		BoardType:   tpl.Type,
		CreatedBy:   userID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Info("board already exists, skipping", "code", tpl.Code, "tenant_id", tenantID)
			return nil
		}
		return err
	}

	scope := board.CategoryScope()
	for i := range tpl.Categories {
		if err := s.createCategory(ctx, scope, userID, nil, i, &tpl.Categories[i]); err != nil {
			return err
		}
	}

	s.logger.Info("board seeded", "code", tpl.Code, "board_id", board.ID, "tenant_id", tenantID)
	return nil
}

func (s *Seeder) createCategory(ctx context.Context, scope models.Scope, userID string, parentID *string, sortOrder int, tpl *CategoryTemplate) error {
	node, err := s.tree.Create(ctx, scope, &services.CreateNodeRequest{
		ParentID:    parentID,
		Code:        tpl.Code,
		DisplayName: tpl.Name,
		Description: tpl.Description,
		Icon:        tpl.Icon,
		Color:       tpl.Color,
		SortOrder:   sortOrder,
		CreatedBy:   userID,
	})
	if err != nil {
		return err
	}

	for i := range tpl.Children {
		if err := s.createCategory(ctx, scope, userID, &node.ID, i, &tpl.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) applyMenu(ctx context.Context, tenantID, userID string, tpl *MenuTemplate) error {
	scope, err := menu.Scope(tenantID, tpl.Namespace)
	if err != nil {
		return err
	}

	for i := range tpl.Items {
		if err := s.createMenuItem(ctx, scope, userID, nil, i, &tpl.Items[i]); err != nil {
			// A seeded namespace stays as-is on re-runs; item codes collide
			// with the previous run, which is fine.
			if errors.Is(err, domain.ErrConflict) {
				s.logger.Info("menu item already exists, skipping namespace",
					"namespace", tpl.Namespace, "tenant_id", tenantID)
				return nil
			}
			return err
		}
	}

	s.logger.Info("menu seeded", "namespace", tpl.Namespace, "tenant_id", tenantID)
	return nil
}

func (s *Seeder) createMenuItem(ctx context.Context, scope models.Scope, userID string, parentID *string, sortOrder int, tpl *MenuItemTemplate) error {
	item, err := s.tree.Create(ctx, scope, &services.CreateNodeRequest{
		ParentID:    parentID,
		Code:        tpl.Code,
		DisplayName: tpl.Name,
		Icon:        tpl.Icon,
		LinkURL:     tpl.URL,
		LinkTarget:  tpl.Target,
		SortOrder:   sortOrder,
		CreatedBy:   userID,
	})
	if err != nil {
		return err
	}

	for i := range tpl.Children {
		if err := s.createMenuItem(ctx, scope, userID, &item.ID, i, &tpl.Children[i]); err != nil {
			return err
		}
	}
	return nil
}
