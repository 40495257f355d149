package server

import (
	"encoding/json"
	"net/http"

	"audioarchive/cache"
	"audioarchive/logger"
)

// PageSizeResponse carries the stored list page size preference.
type PageSizeResponse struct {
	PageSize int `json:"pageSize"`
}

// GetPageSizeHandler returns the user's preferred page size, falling
// back to the default when none is stored.
func (h *APIHandler) GetPageSizeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	size, err := cache.GetPageSize(r.Context(), userID)
	if err != nil {
		logger.Error("failed to read page size preference", logger.Int64("userId", userID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !h.cfg.AllowedPageSize(size) {
		size = h.cfg.DefaultPageSize
	}

	writeJSON(w, http.StatusOK, PageSizeResponse{PageSize: size})
}

// SetPageSizeHandler stores the user's preferred page size. Only the
// fixed choices are accepted.
func (h *APIHandler) SetPageSizeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req PageSizeResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !h.cfg.AllowedPageSize(req.PageSize) {
		http.Error(w, "Unsupported page size", http.StatusBadRequest)
		return
	}

	if err := cache.SetPageSize(r.Context(), userID, req.PageSize); err != nil {
		logger.Error("failed to store page size preference", logger.Int64("userId", userID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, req)
}
