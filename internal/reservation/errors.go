// internal/reservation/errors.go
package reservation

import "errors"

var (
	// ErrNotFound means the resource or reservation id is unknown.
	ErrNotFound = errors.New("reservation or resource not found")

	// ErrResourceUnavailable means the caller lost the race for a
	// specific resource; the next candidate may still succeed.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrNoResourceAvailable means every candidate was exhausted.
	ErrNoResourceAvailable = errors.New("no resource available")

	// ErrInvalidTransition is a state machine violation.
	ErrInvalidTransition = errors.New("invalid reservation transition")

	// ErrConflict means the proposed window overlaps an active
	// reservation, or the pool's holder policy was violated.
	ErrConflict = errors.New("conflicting reservation window")

	// ErrPaymentDeclined triggered an automatic rollback of the claim.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrHolderMismatch means the acting holder does not own the
	// reservation.
	ErrHolderMismatch = errors.New("holder does not match reservation")

	// ErrWindowRequired means a claim against a windowed pool carried
	// no time window.
	ErrWindowRequired = errors.New("window required for time-sliced pool")

	// ErrRateLimited means the reserve path shed the request.
	ErrRateLimited = errors.New("rate limit exceeded")
)
