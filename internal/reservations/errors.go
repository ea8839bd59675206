package reservations

import "errors"

var (
	// ErrInvalidSeatCount is returned when a reserve request names zero seats,
	// more than the configured maximum, or the same seat twice.
	ErrInvalidSeatCount = errors.New("invalid seat count")

	// ErrReservationNotFound is returned for a token with no ledger entry.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrReservationExpired is returned for a hold past its TTL. The hold is
	// unusable the instant the TTL elapses, before any sweep runs.
	ErrReservationExpired = errors.New("reservation expired")
)
