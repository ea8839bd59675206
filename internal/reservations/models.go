package reservations

import (
	"time"

	"ticketly/internal/seats"

	"github.com/google/uuid"
)

// Hold is a ledger entry: a time-limited exclusive claim on a set of seats,
// identified by an opaque capability token. Immutable after creation; the
// seat set never changes and ExpiresAt is never extended.
type Hold struct {
	Token       string    `json:"token"`
	EventID     uuid.UUID `json:"event_id"`
	SeatIDs     []string  `json:"seat_ids"` // request order preserved
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the hold is past its TTL at the given instant
func (h *Hold) ExpiredAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// RemainingAt returns the hold's remaining lifetime at the given instant
func (h *Hold) RemainingAt(now time.Time) time.Duration {
	if h.ExpiredAt(now) {
		return 0
	}
	return h.ExpiresAt.Sub(now)
}

// Request/response models

type ReserveRequest struct {
	EventID string   `json:"event_id" binding:"required,uuid"`
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,max=10,dive,uuid"`
}

type HoldResponse struct {
	Token       string               `json:"token"`
	EventID     string               `json:"event_id"`
	Seats       []seats.SeatResponse `json:"seats"`
	TotalAmount float64              `json:"total_amount"`
	ExpiresAt   time.Time            `json:"expires_at"`
	TTL         int                  `json:"ttl_seconds"`
}

type VerifyResponse struct {
	Valid            bool                 `json:"valid"`
	RemainingSeconds int                  `json:"remaining_seconds,omitempty"`
	Seats            []seats.SeatResponse `json:"seats,omitempty"`
	TotalAmount      float64              `json:"total_amount,omitempty"`
}
