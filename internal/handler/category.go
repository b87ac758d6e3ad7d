package handler

import (
	"log/slog"
	"net/http"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/services"
	"canopy/internal/httputil"
)

// CategoryHandler handles category tree HTTP requests. Every route is nested
// under its board, so the tree scope is always explicit in the URL.
type CategoryHandler struct {
	treeService  services.TreeService
	boardService services.BoardService
	logger       *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(treeService services.TreeService, boardService services.BoardService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		treeService:  treeService,
		boardService: boardService,
		logger:       logger,
	}
}

func (h *CategoryHandler) scope(r *http.Request) (models.Scope, string, bool) {
	boardID := r.PathValue("boardID")
	if boardID == "" {
		return models.Scope{}, "", false
	}
	return models.Scope{TenantID: httputil.GetTenantID(r), ContainerID: boardID}, boardID, true
}

// ListCategories returns the board's category forest, nested by default or
// flat with ?flat=true
// GET /api/boards/{boardID}/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}

	roots, err := h.treeService.GetRoots(r.Context(), scope, optionalBool(r, "include_inactive"))
	if err != nil {
		handleError(w, err)
		return
	}

	if optionalBool(r, "flat") {
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"categories": flattenForest(roots)})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"categories": roots})
}

// CreateCategory creates a category in the board's tree
// POST /api/boards/{boardID}/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	scope, boardID, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}

	// The board must exist and have categories enabled before its tree
	// accepts nodes.
	board, err := h.boardService.GetBoard(r.Context(), scope.TenantID, boardID)
	if err != nil {
		handleError(w, err)
		return
	}
	if !board.EnableCategories {
		handleError(w, &domain.InvalidOperationError{Message: "board has categories disabled"})
		return
	}

	var req services.CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CreatedBy = httputil.GetUserID(r)

	node, err := h.treeService.Create(r.Context(), scope, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// GetCategory retrieves a single category, including soft-deleted ones
// GET /api/boards/{boardID}/categories/{id}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "category ID is required")
		return
	}

	node, err := h.treeService.Get(r.Context(), scope, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// GetSubtree returns the category and all live descendants, ordered for
// rendering
// GET /api/boards/{boardID}/categories/{id}/subtree
func (h *CategoryHandler) GetSubtree(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "category ID is required")
		return
	}

	nodes, err := h.treeService.GetSubtree(r.Context(), scope, id, optionalBool(r, "include_inactive"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"categories": nodes})
}

// GetBreadcrumb returns the category's ancestors root-first
// GET /api/boards/{boardID}/categories/{id}/breadcrumb
func (h *CategoryHandler) GetBreadcrumb(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "category ID is required")
		return
	}

	ancestors, err := h.treeService.GetAncestors(r.Context(), scope, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"breadcrumb": ancestors})
}

// UpdateCategory updates non-structural category fields
// PATCH /api/boards/{boardID}/categories/{id}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "category ID is required")
		return
	}

	var req services.UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UpdatedBy = httputil.GetUserID(r)

	node, err := h.treeService.Update(r.Context(), scope, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// MoveCategory reparents a category
// POST /api/boards/{boardID}/categories/{id}/move
func (h *CategoryHandler) MoveCategory(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "category ID is required")
		return
	}

	var req services.MoveNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UpdatedBy = httputil.GetUserID(r)

	node, err := h.treeService.Move(r.Context(), scope, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// ReorderRequest carries a full sibling ordering under one parent
type ReorderRequest struct {
	ParentID   *string  `json:"parent_id"` // null reorders the roots
	OrderedIDs []string `json:"ordered_ids"`
}

// ReorderCategories rewrites sort order for one sibling group
// POST /api/boards/{boardID}/categories/reorder
func (h *CategoryHandler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}

	var req ReorderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.treeService.ReorderSiblings(r.Context(), scope, req.ParentID, req.OrderedIDs); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCategory soft-deletes a category, with ?cascade=true for the whole
// subtree
// DELETE /api/boards/{boardID}/categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "category ID is required")
		return
	}

	if err := h.treeService.Delete(r.Context(), scope, id, optionalBool(r, "cascade")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AttachmentRequest adjusts a category's attachment counter
type AttachmentRequest struct {
	Delta int `json:"delta"`
}

// AdjustAttachments applies a delta to the category's attachment counter
// POST /api/boards/{boardID}/categories/{id}/attachments
func (h *CategoryHandler) AdjustAttachments(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := h.scope(r)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "category ID is required")
		return
	}

	var req AttachmentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Delta == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "delta must be non-zero")
		return
	}

	count, err := h.treeService.AdjustAttachedCount(r.Context(), scope, id, req.Delta)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"attached_count": count})
}

// flattenForest walks nested trees back into a depth-first flat list.
func flattenForest(roots []*models.TreeNode) []models.Node {
	flat := make([]models.Node, 0, len(roots))
	var walk func(tn *models.TreeNode)
	walk = func(tn *models.TreeNode) {
		flat = append(flat, tn.Node)
		for _, child := range tn.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return flat
}
