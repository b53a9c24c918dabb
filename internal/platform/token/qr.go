package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
)

const (
	// DefaultQrTTL spans one breakfast visit without letting a
	// screenshotted code replay across days.
	DefaultQrTTL = 30 * time.Minute

	// DefaultQrMaxSkew bounds how far in the future an issuedAt claim may
	// sit before the token is rejected outright.
	DefaultQrMaxSkew = 10 * time.Second
)

// ErrEmptyGuestID is returned when issuance is attempted for a guest id
// that is empty after trimming.
var ErrEmptyGuestID = errors.New("guest id is required")

// QrClaims is the payload of a redemption token. IssuedAt is epoch
// milliseconds. The field names are part of the wire format.
type QrClaims struct {
	GuestID  string `json:"guestId"`
	IssuedAt int64  `json:"timestamp"`
}

// QrService is a pure codec and validator for guest redemption tokens. It
// knows nothing about entitlements; revocation is implicit in the
// entitlement store, not in the token.
type QrService struct {
	secret  []byte
	ttl     time.Duration
	maxSkew time.Duration
}

func NewQrService(secret string, ttl, maxSkew time.Duration) (*QrService, error) {
	if secret == "" {
		return nil, domain.ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultQrTTL
	}
	if maxSkew <= 0 {
		maxSkew = DefaultQrMaxSkew
	}
	return &QrService{secret: []byte(secret), ttl: ttl, maxSkew: maxSkew}, nil
}

func (s *QrService) TTL() time.Duration { return s.ttl }

func (s *QrService) Issue(guestID string, now time.Time) (string, error) {
	id := strings.TrimSpace(guestID)
	if id == "" {
		return "", ErrEmptyGuestID
	}

	payload, err := json.Marshal(QrClaims{
		GuestID:  id,
		IssuedAt: now.UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal qr claims: %w", err)
	}

	return seal(payload, s.secret), nil
}

// Verify validates a redemption token and returns its claims with the
// guest id trimmed. Expiry is reported as domain.ErrExpiredToken, distinct
// from ErrInvalidToken, so the UI can tell "generate a new code" apart
// from "bad code". A token stamped further than maxSkew into the future is
// invalid, not pending.
func (s *QrService) Verify(tok string, now time.Time) (*QrClaims, error) {
	payload, err := open(tok, s.secret)
	if err != nil {
		return nil, err
	}

	var claims QrClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims.GuestID = strings.TrimSpace(claims.GuestID)
	if claims.GuestID == "" || claims.IssuedAt <= 0 {
		return nil, domain.ErrInvalidToken
	}

	nowMs := now.UnixMilli()
	if claims.IssuedAt > nowMs+s.maxSkew.Milliseconds() {
		return nil, domain.ErrInvalidToken
	}
	if nowMs-claims.IssuedAt > s.ttl.Milliseconds() {
		return nil, domain.ErrExpiredToken
	}

	return &claims, nil
}
