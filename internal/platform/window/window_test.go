package window_test

import (
	"testing"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/platform/window"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	return loc
}

func TestIsIssuanceAllowed(t *testing.T) {
	loc := saoPaulo(t)

	// 2025-03-15 is a Saturday, 2025-03-16 a Sunday, 2025-03-17 a Monday.
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"saturday before open", time.Date(2025, 3, 15, 5, 59, 0, 0, loc), false},
		{"saturday at open", time.Date(2025, 3, 15, 6, 0, 0, 0, loc), true},
		{"saturday mid window", time.Date(2025, 3, 15, 9, 59, 0, 0, loc), true},
		{"saturday at close", time.Date(2025, 3, 15, 10, 0, 59, 0, loc), true},
		{"saturday after close", time.Date(2025, 3, 15, 10, 1, 0, 0, loc), false},
		{"sunday before open", time.Date(2025, 3, 16, 6, 59, 0, 0, loc), false},
		{"sunday at open", time.Date(2025, 3, 16, 7, 0, 0, 0, loc), true},
		{"sunday at close", time.Date(2025, 3, 16, 10, 0, 0, 0, loc), true},
		{"sunday after close", time.Date(2025, 3, 16, 10, 1, 0, 0, loc), false},
		{"monday weekday open", time.Date(2025, 3, 17, 6, 0, 0, 0, loc), true},
		{"monday early", time.Date(2025, 3, 17, 6, 30, 0, 0, loc), true},
		{"monday midnight", time.Date(2025, 3, 17, 0, 0, 0, 0, loc), false},
		{"monday afternoon", time.Date(2025, 3, 17, 15, 0, 0, 0, loc), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := window.IsIssuanceAllowed(tc.at); got != tc.want {
				t.Fatalf("IsIssuanceAllowed(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

// The gate must hold across a daylight-saving-free year boundary in the
// hotel timezone; the decision depends only on local wall-clock fields.
func TestIsIssuanceAllowedUsesLocalWallClock(t *testing.T) {
	loc := saoPaulo(t)

	// 08:00 UTC on a Monday is 05:00 in São Paulo (UTC-3): still closed
	// locally even though UTC is inside the window hours.
	at := time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC).In(loc)
	if window.IsIssuanceAllowed(at) {
		t.Fatal("05:00 local must be outside the window regardless of UTC hour")
	}
}
