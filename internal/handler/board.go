package handler

import (
	"log/slog"
	"net/http"

	"canopy/internal/domain/services"
	"canopy/internal/httputil"
)

// BoardHandler handles board HTTP requests
type BoardHandler struct {
	boardService services.BoardService
	logger       *slog.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService services.BoardService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		logger:       logger,
	}
}

// CreateBoard creates a new board
// POST /api/boards
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req services.CreateBoardRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CreatedBy = httputil.GetUserID(r)

	board, err := h.boardService.CreateBoard(r.Context(), httputil.GetTenantID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, board)
}

// GetBoard retrieves a board by ID
// GET /api/boards/{id}
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}

	board, err := h.boardService.GetBoard(r.Context(), httputil.GetTenantID(r), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, board)
}

// ListBoards lists the tenant's boards
// GET /api/boards
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.boardService.ListBoards(r.Context(), httputil.GetTenantID(r), optionalBool(r, "include_inactive"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"boards": boards})
}

// UpdateBoard updates mutable board fields
// PATCH /api/boards/{id}
func (h *BoardHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}

	var req services.UpdateBoardRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UpdatedBy = httputil.GetUserID(r)

	board, err := h.boardService.UpdateBoard(r.Context(), httputil.GetTenantID(r), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, board)
}

// DeleteBoard soft-deletes a board
// DELETE /api/boards/{id}
func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "board ID is required")
		return
	}

	if err := h.boardService.DeleteBoard(r.Context(), httputil.GetTenantID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
