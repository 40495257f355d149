package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"audioarchive/cache"
	"audioarchive/config"
	"audioarchive/core/auth"
	"audioarchive/core/media"
	"audioarchive/logger"
	"audioarchive/repository"
	"audioarchive/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	audioRepo repository.AudioFileRepository
	userRepo  repository.UserRepository
	pipeline  *media.Pipeline
	store     *storage.AudioStore
	cfg       *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	audioRepo repository.AudioFileRepository,
	userRepo repository.UserRepository,
	pipeline *media.Pipeline,
	store *storage.AudioStore,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		audioRepo: audioRepo,
		userRepo:  userRepo,
		pipeline:  pipeline,
		store:     store,
		cfg:       cfg,
	}
}

// AuthMiddleware checks for a valid, non-revoked session token and puts
// the identity on the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(h.cfg, parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		revoked, err := cache.IsSessionDenylisted(r.Context(), claims.ID)
		if err != nil {
			logger.Error("failed to check session denylist", logger.ErrorField(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if revoked {
			http.Error(w, "Token has been revoked", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "email", claims.Email)
		ctx = context.WithValue(ctx, "claims", claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// GetClaimsFromContext extracts the session claims from the request context.
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value("claims").(*auth.Claims)
	if !ok {
		return nil, fmt.Errorf("claims not found in context")
	}
	return claims, nil
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writePipelineError flattens a pipeline error into a short
// human-readable HTTP error. Structured errors stop here; the client
// only sees the message plus a status it can retry on.
func writePipelineError(w http.ResponseWriter, err error) {
	var decodeErr *media.DecodeError
	var writeErr *media.StorageWriteError
	var deleteErr *media.StorageDeleteError

	switch {
	case errors.Is(err, media.ErrNotFound):
		http.Error(w, "Audio file not found", http.StatusNotFound)
	case errors.Is(err, media.ErrNotOwner):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, media.ErrNotAudio):
		http.Error(w, "Please select an audio file", http.StatusBadRequest)
	case errors.Is(err, media.ErrEmptyTitle):
		http.Error(w, "Title must not be empty", http.StatusBadRequest)
	case errors.Is(err, media.ErrNoIdentity):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.As(err, &decodeErr):
		http.Error(w, "Failed to read audio duration. The file may be corrupt or unsupported.", http.StatusBadRequest)
	case errors.As(err, &writeErr):
		if errors.Is(err, storage.ErrObjectExists) {
			http.Error(w, "A file with this name already exists. Rename it and try again.", http.StatusConflict)
		} else {
			http.Error(w, "Failed to store audio file", http.StatusInternalServerError)
		}
	case errors.As(err, &deleteErr):
		http.Error(w, "Failed to delete audio file from storage", http.StatusInternalServerError)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// TotalPages computes ceil(total/pageSize).
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// sessionRemaining returns how long until the token's expiry, used to
// bound the denylist entry.
func sessionRemaining(claims *auth.Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}
