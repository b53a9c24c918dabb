package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/platform/clock"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
	"github.com/hoteleiro/breakfast-pass/internal/service"
	"github.com/hoteleiro/breakfast-pass/pkg/events"
)

func newIssuance(t *testing.T, repo *mockGuestRepo, clk clock.Clock) (*service.QrService, *token.QrService) {
	t.Helper()
	qrTokens, err := token.NewQrService("test-secret", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return service.NewQrService(repo, qrTokens, clk, events.NoopPublisher{}), qrTokens
}

func TestIssueForGuest(t *testing.T) {
	clk := testClock(t)
	repo := newMockGuestRepo(entitledGuest("g1"))
	svc, qrTokens := newIssuance(t, repo, clk)

	tok, err := svc.IssueForGuest(context.Background(), " g1 ")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := qrTokens.Verify(tok, clk.Now())
	if err != nil {
		t.Fatalf("verify minted token: %v", err)
	}
	if claims.GuestID != "g1" {
		t.Fatalf("token guest id = %q, want g1", claims.GuestID)
	}
}

func TestIssueRequiresGuestID(t *testing.T) {
	clk := testClock(t)
	svc, _ := newIssuance(t, newMockGuestRepo(), clk)

	if _, err := svc.IssueForGuest(context.Background(), "   "); !errors.Is(err, token.ErrEmptyGuestID) {
		t.Fatalf("got %v, want ErrEmptyGuestID", err)
	}
}

func TestIssueOutsideWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatal(err)
	}
	// Monday 15:00 local: gate closed, regardless of entitlement.
	clk := clock.Fixed{T: time.Date(2025, 3, 17, 15, 0, 0, 0, loc)}

	repo := newMockGuestRepo(entitledGuest("g1"))
	svc, _ := newIssuance(t, repo, clk)

	if _, err := svc.IssueForGuest(context.Background(), "g1"); !errors.Is(err, domain.ErrWindowClosed) {
		t.Fatalf("got %v, want ErrWindowClosed", err)
	}
}

func TestIssuePreChecksEntitlement(t *testing.T) {
	clk := testClock(t)

	t.Run("unknown guest", func(t *testing.T) {
		svc, _ := newIssuance(t, newMockGuestRepo(), clk)
		if _, err := svc.IssueForGuest(context.Background(), "ghost"); !errors.Is(err, domain.ErrGuestNotFound) {
			t.Fatalf("got %v, want ErrGuestNotFound", err)
		}
	})

	t.Run("no breakfast right", func(t *testing.T) {
		g := entitledGuest("g1")
		g.HasBreakfast = false
		svc, _ := newIssuance(t, newMockGuestRepo(g), clk)
		if _, err := svc.IssueForGuest(context.Background(), "g1"); !errors.Is(err, domain.ErrNotEntitled) {
			t.Fatalf("got %v, want ErrNotEntitled", err)
		}
	})

	t.Run("already used today", func(t *testing.T) {
		today := clock.Today(clk.Now())
		g := entitledGuest("g1")
		g.ConsumptionDate = &today
		svc, _ := newIssuance(t, newMockGuestRepo(g), clk)
		if _, err := svc.IssueForGuest(context.Background(), "g1"); !errors.Is(err, domain.ErrAlreadyConsumed) {
			t.Fatalf("got %v, want ErrAlreadyConsumed", err)
		}
	})

	t.Run("used yesterday issues again", func(t *testing.T) {
		yesterday := "2025-03-16"
		g := entitledGuest("g1")
		g.ConsumptionDate = &yesterday
		svc, _ := newIssuance(t, newMockGuestRepo(g), clk)
		if _, err := svc.IssueForGuest(context.Background(), "g1"); err != nil {
			t.Fatalf("issue after a past consumption: %v", err)
		}
	})
}
