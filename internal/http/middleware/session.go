package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/http/response"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

// SessionCookieName is fixed; clients and the reverse proxy depend on it.
const SessionCookieName = "hbcp_auth"

type ctxKey string

const ctxSession ctxKey = "session"

// SessionVerifier checks a raw session token. *service.AuthService
// satisfies it; tests substitute their own.
type SessionVerifier interface {
	Verify(tok string) (*token.SessionClaims, error)
}

// RequireRole gates a route on a valid session cookie carrying one of the
// allowed roles. Missing or bad cookie is 401; a valid session with the
// wrong role is 403.
func RequireRole(verifier SessionVerifier, roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				response.Unauthorized(w, "Session invalid or expired.")
				return
			}

			claims, err := verifier.Verify(cookie.Value)
			if err != nil {
				response.Unauthorized(w, "Session invalid or expired.")
				return
			}

			if !allowed[claims.Role] {
				response.Forbidden(w, "Role has no permission for this operation.")
				return
			}

			ctx := context.WithValue(r.Context(), ctxSession, claims)
			ctx = context.WithValue(ctx, logger.RoleKey, string(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Session returns the verified claims placed by RequireRole, or nil.
func Session(r *http.Request) *token.SessionClaims {
	v := r.Context().Value(ctxSession)
	if v == nil {
		return nil
	}
	return v.(*token.SessionClaims)
}

// NewSessionCookie builds the session cookie: HttpOnly, SameSite=Lax,
// Path=/, Max-Age from the session TTL, Secure when served over TLS.
func NewSessionCookie(tok string, maxAge time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// ClearedSessionCookie is the logout cookie. Max-Age=0 makes the client
// discard the token; the server keeps no session state to invalidate.
func ClearedSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}
