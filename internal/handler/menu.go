package handler

import (
	"log/slog"
	"net/http"

	"canopy/internal/domain/models"
	"canopy/internal/domain/services"
	"canopy/internal/httputil"
	"canopy/internal/service/menu"
)

// MenuHandler exposes the tree engine under menu namespaces. Namespaces are
// created implicitly by the first item added to them; an unknown namespace
// simply lists empty.
type MenuHandler struct {
	treeService services.TreeService
	logger      *slog.Logger
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(treeService services.TreeService, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{
		treeService: treeService,
		logger:      logger,
	}
}

func (h *MenuHandler) scope(w http.ResponseWriter, r *http.Request) (models.Scope, bool) {
	scope, err := menu.Scope(httputil.GetTenantID(r), r.PathValue("namespace"))
	if err != nil {
		handleError(w, err)
		return models.Scope{}, false
	}
	return scope, true
}

// GetMenu returns the namespace's nested menu tree
// GET /api/menus/{namespace}
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	roots, err := h.treeService.GetRoots(r.Context(), scope, optionalBool(r, "include_inactive"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"items": roots})
}

// CreateItem creates a menu item in the namespace
// POST /api/menus/{namespace}/items
func (h *MenuHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req services.CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CreatedBy = httputil.GetUserID(r)

	item, err := h.treeService.Create(r.Context(), scope, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, item)
}

// GetItem retrieves a menu item, including soft-deleted ones
// GET /api/menus/{namespace}/items/{id}
func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item ID is required")
		return
	}

	item, err := h.treeService.Get(r.Context(), scope, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// UpdateItem updates non-structural menu item fields
// PATCH /api/menus/{namespace}/items/{id}
func (h *MenuHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item ID is required")
		return
	}

	var req services.UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UpdatedBy = httputil.GetUserID(r)

	item, err := h.treeService.Update(r.Context(), scope, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// MoveItem reparents a menu item
// POST /api/menus/{namespace}/items/{id}/move
func (h *MenuHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item ID is required")
		return
	}

	var req services.MoveNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UpdatedBy = httputil.GetUserID(r)

	item, err := h.treeService.Move(r.Context(), scope, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// ReorderItems rewrites sort order for one sibling group
// POST /api/menus/{namespace}/reorder
func (h *MenuHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
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

// DeleteItem soft-deletes a menu item, with ?cascade=true for the subtree
// DELETE /api/menus/{namespace}/items/{id}
func (h *MenuHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item ID is required")
		return
	}

	if err := h.treeService.Delete(r.Context(), scope, id, optionalBool(r, "cascade")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
