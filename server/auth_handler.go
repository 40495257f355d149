package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"audioarchive/cache"
	"audioarchive/core/auth"
	"audioarchive/logger"
)

// LoginRequest asks for a sign-in link.
type LoginRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirectTo"`
}

// LoginHandler dispatches a one-time sign-in link to the given email.
// There is no password path; this is the only way in.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		http.Error(w, "A valid email address is required", http.StatusBadRequest)
		return
	}

	user, err := h.userRepo.GetOrCreateByEmail(r.Context(), email)
	if err != nil {
		logger.Error("failed to resolve user for login", logger.String("email", email), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token := auth.NewLoginToken()
	ttl := time.Duration(h.cfg.LoginTokenTTL) * time.Minute
	if err := cache.StoreLoginToken(r.Context(), token, user.ID, ttl); err != nil {
		logger.Error("failed to store login token", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	link := auth.LoginLinkURL(h.cfg, token, req.RedirectTo)
	if err := auth.SendLoginLink(h.cfg, email, link); err != nil {
		logger.Error("failed to send login link", logger.String("email", email), logger.ErrorField(err))
		http.Error(w, "Failed to send login link. Please try again.", http.StatusInternalServerError)
		return
	}

	logger.Info("login link sent", logger.String("email", email))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Check your email for the login link",
	})
}

// VerifyHandler exchanges a one-time link token for a session token.
// With a redirect target the browser is sent there carrying the token
// in the URL fragment; otherwise the token comes back as JSON.
func (h *APIHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	userID, err := cache.ConsumeLoginToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, cache.ErrTokenNotFound) {
			http.Error(w, "This sign-in link is invalid or has expired", http.StatusUnauthorized)
			return
		}
		logger.Error("failed to consume login token", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil || user == nil {
		logger.Error("login token resolved to missing user", logger.Int64("userId", userID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.userRepo.TouchLastLogin(r.Context(), user.ID); err != nil {
		// Not fatal for sign-in.
		logger.Warn("failed to stamp last login", logger.Int64("userId", user.ID), logger.ErrorField(err))
	}

	session, err := auth.GenerateToken(h.cfg, user.ID, user.Email)
	if err != nil {
		logger.Error("failed to generate session token", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("user signed in", logger.Int64("userId", user.ID), logger.String("email", user.Email))

	if redirect := r.URL.Query().Get("redirect"); redirect != "" {
		http.Redirect(w, r, redirect+"#access_token="+url.QueryEscape(session), http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": session,
		"user":  user,
	})
}

// LogoutHandler revokes the current session token until its expiry.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := GetClaimsFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := cache.DenylistSession(r.Context(), claims.ID, sessionRemaining(claims)); err != nil {
		logger.Error("failed to revoke session", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("user signed out", logger.Int64("userId", claims.UserID))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Signed out",
	})
}

// MeHandler returns the signed-in identity.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load current user", logger.Int64("userId", userID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
