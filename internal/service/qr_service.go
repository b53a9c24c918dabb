package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/platform/clock"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
	"github.com/hoteleiro/breakfast-pass/internal/platform/window"
	"github.com/hoteleiro/breakfast-pass/internal/repo/postgres"
	"github.com/hoteleiro/breakfast-pass/pkg/events"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

// QrService mints redemption tokens. Issuance, not redemption, is
// time-gated: a guest may redeem a minutes-old code after the window
// closes, inside the token's own TTL.
type QrService struct {
	guests postgres.GuestRepo
	tokens *token.QrService
	clock  clock.Clock
	bus    events.Publisher
}

func NewQrService(guests postgres.GuestRepo, tokens *token.QrService, clk clock.Clock, bus events.Publisher) *QrService {
	return &QrService{guests: guests, tokens: tokens, clock: clk, bus: bus}
}

// IssueForGuest checks the service window and the guest's entitlement,
// then mints a token. The entitlement check here is advisory (it gives the
// guest an early, specific error); the redemption guard re-checks
// atomically at consume time.
func (s *QrService) IssueForGuest(ctx context.Context, guestID string) (string, error) {
	id := strings.TrimSpace(guestID)
	if id == "" {
		return "", token.ErrEmptyGuestID
	}

	now := s.clock.Now()
	if !window.IsIssuanceAllowed(now) {
		return "", domain.ErrWindowClosed
	}

	g, err := s.guests.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("look up guest: %w", err)
	}
	if g == nil {
		return "", domain.ErrGuestNotFound
	}
	if !g.HasBreakfast {
		return "", domain.ErrNotEntitled
	}

	today := clock.Today(now)
	if g.ConsumptionDate != nil && *g.ConsumptionDate == today {
		return "", domain.ErrAlreadyConsumed
	}

	tok, err := s.tokens.Issue(g.ID, now)
	if err != nil {
		return "", err
	}

	if err := s.bus.Publish(ctx, events.SubjectQrIssued, map[string]string{"guest_id": g.ID, "room": g.Room}); err != nil {
		logger.WarnContext(ctx, "Failed to publish qr_issued event", "error", err)
	}

	return tok, nil
}
