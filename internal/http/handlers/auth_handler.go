package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	mw "github.com/hoteleiro/breakfast-pass/internal/http/middleware"
	"github.com/hoteleiro/breakfast-pass/internal/http/response"
	"github.com/hoteleiro/breakfast-pass/internal/service"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

type AuthHandler struct {
	Auth         *service.AuthService
	SecureCookie bool
}

func NewAuthHandler(auth *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{Auth: auth, SecureCookie: secureCookie}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid request body.")
		return
	}

	tok, ttl, err := h.Auth.Login(r.Context(), in.Role, in.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUnknownRole):
		response.BadRequest(w, "Invalid role.")
		return
	case errors.Is(err, service.ErrBadCredentials):
		response.Unauthorized(w, "Incorrect password.")
		return
	case errors.Is(err, service.ErrRoleNotConfigured):
		response.InternalError(w, "Role password not configured on the server.")
		return
	default:
		logger.ErrorContext(r.Context(), "Login failed", "error", err)
		response.InternalError(w, "Internal error during login.")
		return
	}

	http.SetCookie(w, mw.NewSessionCookie(tok, ttl, h.SecureCookie))
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Logout just clears the cookie; tokens are stateless and expire on their
// own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, mw.ClearedSessionCookie(h.SecureCookie))
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me reports session state without requiring one: an anonymous caller gets
// 200 with authenticated=false, never 401.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(mw.SessionCookieName)
	if err != nil || cookie.Value == "" {
		response.WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	claims, err := h.Auth.Verify(cookie.Value)
	if err != nil {
		response.WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"role":          domain.Role(claims.Role),
	})
}
