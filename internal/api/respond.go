package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"channels-go/internal/catalog"
)

const (
	notFoundDetail = "Not found."
	internalDetail = "Internal server error."
)

type errorBody struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps catalog errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrEmptyPath), errors.Is(err, catalog.ErrEmptyName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound:
		respondJSON(w, status, errorBody{Detail: notFoundDetail})
	case http.StatusInternalServerError:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, status, errorBody{Detail: internalDetail})
	default:
		respondJSON(w, status, errorBody{Detail: err.Error()})
	}
}
