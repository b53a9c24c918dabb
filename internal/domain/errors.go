package domain

import "errors"

// Sentinel errors for the redemption protocol. Handlers translate these to
// HTTP statuses; services return them wrapped so errors.Is still matches.
var (
	// ErrMissingSecret means a required signing secret is not configured.
	// Fatal until an operator fixes the deployment; never bypassed.
	ErrMissingSecret = errors.New("signing secret not configured")

	// ErrInvalidToken covers malformed, tampered or otherwise unverifiable
	// tokens. Not retryable; the caller must re-authenticate or re-scan.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is kept distinct from ErrInvalidToken so the UI can
	// say "generate a new code" instead of "bad code".
	ErrExpiredToken = errors.New("token expired")

	// ErrRateLimited is transient; retry after the advertised delay.
	ErrRateLimited = errors.New("rate limited")

	// ErrWindowClosed means QR issuance was attempted outside the
	// breakfast service window.
	ErrWindowClosed = errors.New("issuance window closed")

	// ErrNotConfirmed means the caller did not send the explicit
	// confirmation flag required to consume an entitlement.
	ErrNotConfirmed = errors.New("confirmation required")

	// Business outcomes of a redemption attempt. These are expected
	// results, not system failures.
	ErrGuestNotFound   = errors.New("guest not found")
	ErrNotEntitled     = errors.New("guest has no breakfast entitlement")
	ErrAlreadyConsumed = errors.New("breakfast already consumed today")

	// ErrTransientConflict is an unclassified failure of the conditional
	// update. Safe to retry: a retry on a meanwhile-consumed record simply
	// lands on ErrAlreadyConsumed.
	ErrTransientConflict = errors.New("could not record consumption, try again")
)
