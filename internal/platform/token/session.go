package token

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
)

const DefaultSessionTTL = 8 * time.Hour

// SessionClaims is the payload of a staff session token. Exp is epoch
// milliseconds; validity is exclusive of the bound (now >= exp rejects).
type SessionClaims struct {
	Role domain.Role `json:"role"`
	Exp  int64       `json:"exp"`
}

// SessionService mints and checks role-scoped session tokens. The server
// keeps no session state: a token is valid until its embedded expiry, and
// logout is purely the client discarding its cookie.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(secret string, ttl time.Duration) (*SessionService, error) {
	if secret == "" {
		return nil, domain.ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{secret: []byte(secret), ttl: ttl}, nil
}

func (s *SessionService) TTL() time.Duration { return s.ttl }

func (s *SessionService) Issue(role domain.Role, now time.Time) (string, error) {
	if _, ok := domain.ParseRole(string(role)); !ok {
		return "", fmt.Errorf("unknown role %q", role)
	}

	payload, err := json.Marshal(SessionClaims{
		Role: role,
		Exp:  now.Add(s.ttl).UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal session claims: %w", err)
	}

	return seal(payload, s.secret), nil
}

// Verify returns the claims of a valid, unexpired session token. Every
// failure mode, including expiry, is domain.ErrInvalidToken: an expired
// session just means "log in again", it needs no softer message.
func (s *SessionService) Verify(tok string, now time.Time) (*SessionClaims, error) {
	payload, err := open(tok, s.secret)
	if err != nil {
		return nil, err
	}

	var claims SessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, domain.ErrInvalidToken
	}

	if _, ok := domain.ParseRole(string(claims.Role)); !ok {
		return nil, domain.ErrInvalidToken
	}
	if claims.Exp <= 0 {
		return nil, domain.ErrInvalidToken
	}
	if now.UnixMilli() >= claims.Exp {
		return nil, domain.ErrInvalidToken
	}

	return &claims, nil
}
