package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/platform/clock"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
	"github.com/hoteleiro/breakfast-pass/pkg/config"
	"github.com/hoteleiro/breakfast-pass/pkg/events"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

var (
	ErrUnknownRole = errors.New("unknown role")

	ErrBadCredentials = errors.New("incorrect password")

	// ErrRoleNotConfigured means the deployment has no password for the
	// requested role. Operator error, surfaced as a server failure.
	ErrRoleNotConfigured = errors.New("role password not configured")
)

// AuthService exchanges a role password for a session token. There is no
// user table: staff authenticate as one of three shared role profiles.
type AuthService struct {
	sessions  *token.SessionService
	clock     clock.Clock
	bus       events.Publisher
	passwords map[domain.Role]string
}

func NewAuthService(sessions *token.SessionService, clk clock.Clock, bus events.Publisher, authCfg config.AuthConfig) *AuthService {
	return &AuthService{
		sessions: sessions,
		clock:    clk,
		bus:      bus,
		passwords: map[domain.Role]string{
			domain.RoleReception:  authCfg.PasswordReception,
			domain.RoleRestaurant: authCfg.PasswordRestaurant,
			domain.RoleValidator:  authCfg.PasswordValidator,
		},
	}
}

func (s *AuthService) Login(ctx context.Context, roleRaw, password string) (string, time.Duration, error) {
	role, ok := domain.ParseRole(strings.ToUpper(strings.TrimSpace(roleRaw)))
	if !ok {
		return "", 0, ErrUnknownRole
	}

	expected := s.passwords[role]
	if expected == "" {
		return "", 0, ErrRoleNotConfigured
	}

	if !verifyPassword(password, expected) {
		return "", 0, ErrBadCredentials
	}

	tok, err := s.sessions.Issue(role, s.clock.Now())
	if err != nil {
		return "", 0, err
	}

	if err := s.bus.Publish(ctx, events.SubjectStaffLogin, map[string]string{"role": string(role)}); err != nil {
		logger.WarnContext(ctx, "Failed to publish login event", "error", err)
	}

	return tok, s.sessions.TTL(), nil
}

// Verify checks a session token against the current clock.
func (s *AuthService) Verify(tok string) (*token.SessionClaims, error) {
	return s.sessions.Verify(tok, s.clock.Now())
}

// verifyPassword accepts either an argon2id PHC hash or, for dev setups, a
// plain value compared in constant time.
func verifyPassword(password, expected string) bool {
	if strings.HasPrefix(expected, "$argon2id$") {
		match, err := argon2id.ComparePasswordAndHash(password, expected)
		return err == nil && match
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1
}
