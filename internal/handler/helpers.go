package handler

import (
	"errors"
	"net/http"

	"canopy/internal/domain"
	"canopy/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidOperation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.Is(err, domain.ErrTxConflict):
		// Retries are exhausted by the time this surfaces
		httputil.RespondError(w, http.StatusServiceUnavailable, "temporarily unable to apply change, retry")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// optionalBool reads a boolean query parameter, absent means false.
func optionalBool(r *http.Request, name string) bool {
	return r.URL.Query().Get(name) == "true"
}
