package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/platform/clock"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
	"github.com/hoteleiro/breakfast-pass/internal/repo/postgres"
	"github.com/hoteleiro/breakfast-pass/pkg/events"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

// RedemptionService consumes a guest's daily entitlement exactly once.
// Mutual exclusion comes entirely from the store's conditional update;
// other instances may race on the same guest, so an in-process lock would
// not be sufficient and is not used.
type RedemptionService struct {
	guests postgres.GuestRepo
	tokens *token.QrService
	clock  clock.Clock
	bus    events.Publisher
}

func NewRedemptionService(guests postgres.GuestRepo, tokens *token.QrService, clk clock.Clock, bus events.Publisher) *RedemptionService {
	return &RedemptionService{guests: guests, tokens: tokens, clock: clk, bus: bus}
}

// Redeem verifies the QR token and applies the one conditional transition.
// Losing the race is not an error in any operational sense: the loser gets
// ErrAlreadyConsumed, which is exactly what the operator should see.
func (s *RedemptionService) Redeem(ctx context.Context, qrToken string, confirmed bool) (*domain.Guest, error) {
	if !confirmed {
		return nil, domain.ErrNotConfirmed
	}

	now := s.clock.Now()
	claims, err := s.tokens.Verify(strings.TrimSpace(qrToken), now)
	if err != nil {
		return nil, err
	}

	today := clock.Today(now)

	updated, err := s.guests.ConsumeBreakfast(ctx, claims.GuestID, today)
	if err != nil {
		// Store errors and timeouts are retryable: a retried attempt on a
		// record consumed in the meantime lands on ErrAlreadyConsumed.
		logger.ErrorContext(ctx, "Conditional consume failed", "error", err, "guest_id", claims.GuestID)
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientConflict, err)
	}

	if updated != nil {
		updated.MarkUsedToday(today)
		evt := events.RedeemedEvent{
			GuestID:    updated.ID,
			Room:       updated.Room,
			Date:       today,
			RedeemedAt: now,
		}
		if err := s.bus.Publish(ctx, events.SubjectBreakfastRedeemed, evt); err != nil {
			logger.WarnContext(ctx, "Failed to publish redeemed event", "error", err)
		}
		return updated, nil
	}

	// Zero rows is the normal signal to classify, not a failure. Priority:
	// missing guest, no entitlement, already consumed, then unexplained.
	g, err := s.guests.GetByID(ctx, claims.GuestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientConflict, err)
	}
	if g == nil {
		return nil, domain.ErrGuestNotFound
	}
	if !g.HasBreakfast {
		return nil, domain.ErrNotEntitled
	}
	if g.ConsumptionDate != nil && *g.ConsumptionDate == today {
		return nil, domain.ErrAlreadyConsumed
	}

	return nil, domain.ErrTransientConflict
}
