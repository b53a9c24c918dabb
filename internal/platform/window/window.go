// Package window decides whether QR issuance is currently permitted.
//
// The gate applies to minting only: a code generated minutes before close
// can still be redeemed inside its own TTL. Redemption itself is never
// time-gated.
package window

import "time"

// Service hours in minutes since local midnight, both bounds inclusive.
// Sunday opens an hour later.
const (
	weekdayOpenMinutes = 6 * 60
	sundayOpenMinutes  = 7 * 60
	closeMinutes       = 10 * 60
)

// IsIssuanceAllowed reports whether the instant falls inside the breakfast
// issuance window. The time must already be in the hotel timezone. All
// arithmetic is integer minutes-since-midnight; no floats, no UTC offsets.
func IsIssuanceAllowed(now time.Time) bool {
	minutes := now.Hour()*60 + now.Minute()

	open := weekdayOpenMinutes
	if now.Weekday() == time.Sunday {
		open = sundayOpenMinutes
	}

	return minutes >= open && minutes <= closeMinutes
}
