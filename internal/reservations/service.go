package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketly/internal/events"
	"ticketly/internal/seats"
	"ticketly/internal/shared/config"
	"ticketly/internal/shared/constants"
	"ticketly/pkg/cache"
	"ticketly/pkg/logger"

	"github.com/google/uuid"
)

// EventDirectory is the slice of the events repository the reservation engine
// needs; satisfied by events.Repository.
type EventDirectory interface {
	EventExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service interface {
	// Reserve atomically claims the listed seats and writes a TTL-bound hold.
	// All-or-nothing: one unavailable seat fails the whole call with no state
	// change.
	Reserve(ctx context.Context, req ReserveRequest) (*HoldResponse, error)

	// Verify reports whether a hold is still usable. Missing or expired holds
	// are lazily cleaned up (seats released, entry deleted) and reported as
	// invalid; Verify itself never fails on an unknown token.
	Verify(ctx context.Context, token string) (*VerifyResponse, error)

	// Cancel releases the hold's seats and deletes the ledger entry.
	// Idempotent: cancelling a missing hold is a no-op.
	Cancel(ctx context.Context, token string) error

	// GetHold returns a live hold or ErrReservationNotFound /
	// ErrReservationExpired, lazily cleaning up dead entries.
	GetHold(ctx context.Context, token string) (*Hold, error)

	// Discard deletes the ledger entry without touching seat state. Used after
	// a confirmation has flipped the seats to BOOKED.
	Discard(ctx context.Context, token string) error
}

type service struct {
	store        seats.Store
	ledger       Ledger
	events       EventDirectory
	cacheService cache.Service
	config       *config.Config
	log          *logger.Logger

	// now is swappable for deterministic expiry tests
	now func() time.Time
}

// NewService creates the reservation orchestrator. cacheService may be nil.
func NewService(store seats.Store, ledger Ledger, eventDir EventDirectory, cacheService cache.Service, cfg *config.Config) Service {
	return &service{
		store:        store,
		ledger:       ledger,
		events:       eventDir,
		cacheService: cacheService,
		config:       cfg,
		log:          logger.GetDefault(),
		now:          time.Now,
	}
}

func (s *service) Reserve(ctx context.Context, req ReserveRequest) (*HoldResponse, error) {
	maxSeats := s.config.Reservations.MaxSeatsPerHold
	if len(req.SeatIDs) == 0 || len(req.SeatIDs) > maxSeats {
		return nil, ErrInvalidSeatCount
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID: %w", err)
	}

	exists, err := s.events.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return nil, events.ErrEventNotFound
	}

	seatIDs := make([]uuid.UUID, 0, len(req.SeatIDs))
	seen := make(map[uuid.UUID]bool, len(req.SeatIDs))
	for _, idStr := range req.SeatIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid seat ID: %s", idStr)
		}
		if seen[id] {
			return nil, ErrInvalidSeatCount
		}
		seen[id] = true
		seatIDs = append(seatIDs, id)
	}

	// Claim the seats. The store serializes overlapping claims; losers get a
	// SeatUnavailableError naming the contested seats.
	token := uuid.New().String()
	claimed, err := s.store.ReserveSeats(ctx, eventID, seatIDs, token)
	if err != nil {
		if seats.IsSeatUnavailable(err) {
			s.log.LogSeatConflict(ctx, req.EventID, req.SeatIDs)
		}
		return nil, err
	}

	var totalAmount float64
	byID := make(map[string]seats.Seat, len(claimed))
	for _, seat := range claimed {
		totalAmount += seat.Price
		byID[seat.ID.String()] = seat
	}

	now := s.now()
	ttl := s.config.Redis.SeatHoldTTL
	hold := &Hold{
		Token:       token,
		EventID:     eventID,
		SeatIDs:     req.SeatIDs,
		TotalAmount: totalAmount,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	if err := s.ledger.Put(ctx, hold, ttl); err != nil {
		// Compensate: the claim is useless without a ledger entry
		if _, releaseErr := s.store.ReleaseSeats(ctx, token); releaseErr != nil {
			s.log.ErrorWithContext(ctx, "failed to release seats after ledger write failure", releaseErr,
				map[string]interface{}{"token": token})
		}
		return nil, fmt.Errorf("failed to write hold: %w", err)
	}

	s.invalidateSeatMap(ctx, req.EventID)
	s.log.LogReservationCreated(ctx, token, req.EventID, len(claimed))

	// Seats in request order
	seatResponses := make([]seats.SeatResponse, 0, len(req.SeatIDs))
	for _, idStr := range req.SeatIDs {
		if seat, ok := byID[idStr]; ok {
			seatResponses = append(seatResponses, seat.ToResponse())
		}
	}

	return &HoldResponse{
		Token:       token,
		EventID:     req.EventID,
		Seats:       seatResponses,
		TotalAmount: totalAmount,
		ExpiresAt:   hold.ExpiresAt,
		TTL:         int(ttl.Seconds()),
	}, nil
}

func (s *service) Verify(ctx context.Context, token string) (*VerifyResponse, error) {
	hold, err := s.GetHold(ctx, token)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) || errors.Is(err, ErrReservationExpired) {
			return &VerifyResponse{Valid: false}, nil
		}
		return nil, err
	}

	seatRows, err := s.store.GetSeatsByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get held seats: %w", err)
	}

	seatResponses := make([]seats.SeatResponse, 0, len(seatRows))
	for _, seat := range seatRows {
		seatResponses = append(seatResponses, seat.ToResponse())
	}

	return &VerifyResponse{
		Valid:            true,
		RemainingSeconds: int(hold.RemainingAt(s.now()).Seconds()),
		Seats:            seatResponses,
		TotalAmount:      hold.TotalAmount,
	}, nil
}

func (s *service) Cancel(ctx context.Context, token string) error {
	hold, err := s.ledger.Get(ctx, token)
	if err != nil && !errors.Is(err, ErrReservationNotFound) {
		return fmt.Errorf("failed to read hold: %w", err)
	}

	// Entry goes first so a racing confirm cannot pass verification against a
	// hold whose seats are being released.
	if err := s.ledger.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete hold: %w", err)
	}

	released, err := s.store.ReleaseSeats(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	if hold != nil {
		s.invalidateSeatMap(ctx, hold.EventID.String())
	}
	if released > 0 || hold != nil {
		s.log.LogReservationReleased(ctx, token, "cancelled")
	}

	return nil
}

func (s *service) GetHold(ctx context.Context, token string) (*Hold, error) {
	hold, err := s.ledger.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			// Self-heal: release any seats orphaned by an already-expired entry
			if released, releaseErr := s.store.ReleaseSeats(ctx, token); releaseErr == nil && released > 0 {
				s.log.LogReservationReleased(ctx, token, "orphan")
			}
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	// expires_at is authoritative even if the physical TTL has not fired yet
	if hold.ExpiredAt(s.now()) {
		if _, releaseErr := s.store.ReleaseSeats(ctx, token); releaseErr != nil {
			s.log.ErrorWithContext(ctx, "failed to release expired hold seats", releaseErr,
				map[string]interface{}{"token": token})
		}
		if err := s.ledger.Delete(ctx, token); err != nil {
			s.log.ErrorWithContext(ctx, "failed to delete expired hold", err,
				map[string]interface{}{"token": token})
		}
		s.invalidateSeatMap(ctx, hold.EventID.String())
		s.log.LogReservationReleased(ctx, token, "expired")
		return nil, ErrReservationExpired
	}

	return hold, nil
}

func (s *service) Discard(ctx context.Context, token string) error {
	return s.ledger.Delete(ctx, token)
}

func (s *service) invalidateSeatMap(ctx context.Context, eventID string) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildSeatMapKey(eventID)); err != nil {
		s.log.DebugWithContext(ctx, "failed to invalidate seat map cache",
			map[string]interface{}{"event_id": eventID})
	}
}
