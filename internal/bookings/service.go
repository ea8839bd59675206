package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"time"

	"ticketly/internal/reservations"
	"ticketly/internal/seats"
	"ticketly/internal/shared/constants"
	"ticketly/pkg/cache"
	"ticketly/pkg/logger"

	"github.com/google/uuid"
)

// ErrAmountMismatch reports a payment amount that does not match the hold total.
var ErrAmountMismatch = errors.New("payment amount does not match reservation total")

// HoldSource is the slice of the reservation engine the finalizer needs;
// satisfied by reservations.Service.
type HoldSource interface {
	GetHold(ctx context.Context, token string) (*reservations.Hold, error)
	Discard(ctx context.Context, token string) error
}

// NotificationPublisher emits booking lifecycle events. Implementations must
// tolerate a nil receiver being skipped by the service.
type NotificationPublisher interface {
	PublishBookingConfirmed(ctx context.Context, booking *Booking) error
}

type Service interface {
	// Confirm finalizes a live hold into a booking. The hold must exist, be
	// unexpired, and the payment amount must match its total.
	Confirm(ctx context.Context, req ConfirmRequest) (*BookingResponse, error)

	GetBooking(ctx context.Context, id uuid.UUID) (*BookingResponse, error)
	GetBookingByRef(ctx context.Context, ref string) (*BookingResponse, error)
}

type service struct {
	repo         Repository
	holds        HoldSource
	store        seats.Store
	publisher    NotificationPublisher
	cacheService cache.Service
	log          *logger.Logger
	now          func() time.Time
}

// NewService creates the booking finalizer. publisher and cacheService may be nil.
func NewService(repo Repository, holds HoldSource, store seats.Store, publisher NotificationPublisher, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		holds:        holds,
		store:        store,
		publisher:    publisher,
		cacheService: cacheService,
		log:          logger.GetDefault(),
		now:          time.Now,
	}
}

func (s *service) Confirm(ctx context.Context, req ConfirmRequest) (*BookingResponse, error) {
	hold, err := s.holds.GetHold(ctx, req.ReservationToken)
	if err != nil {
		return nil, err
	}

	if math.Abs(req.Payment.Amount-hold.TotalAmount) > 0.001 {
		return nil, ErrAmountMismatch
	}

	seatRows, err := s.store.GetSeatsByToken(ctx, req.ReservationToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get held seats: %w", err)
	}

	ref, err := generateBookingRef(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking ref: %w", err)
	}

	booking := &Booking{
		ID:            uuid.New(),
		EventID:       hold.EventID,
		BookingRef:    ref,
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		CustomerPhone: req.Customer.Phone,
		TotalSeats:    len(hold.SeatIDs),
		TotalAmount:   hold.TotalAmount,
		PaymentMethod: req.Payment.Method,
		TransactionID: req.Payment.TransactionID,
		Status:        "CONFIRMED",
	}
	for _, seat := range seatRows {
		booking.Seats = append(booking.Seats, BookingSeat{
			ID:        uuid.New(),
			BookingID: booking.ID,
			SeatID:    seat.ID,
			SeatLabel: seat.Label(),
			Price:     seat.Price,
		})
	}

	if err := s.repo.CreateWithSeats(ctx, booking, req.ReservationToken, len(hold.SeatIDs)); err != nil {
		return nil, err
	}

	// The seats are BOOKED now; the ledger entry is just leftover state. A
	// failed delete is harmless because the sweeper's release cannot touch
	// BOOKED rows.
	if err := s.holds.Discard(ctx, req.ReservationToken); err != nil {
		s.log.ErrorWithContext(ctx, "failed to discard hold after confirmation", err,
			map[string]interface{}{"token": req.ReservationToken})
	}

	s.invalidateSeatMap(ctx, hold.EventID.String())
	s.log.LogBookingCreated(ctx, booking.ID.String(), booking.EventID.String(), booking.BookingRef)

	if s.publisher != nil {
		if err := s.publisher.PublishBookingConfirmed(ctx, booking); err != nil {
			s.log.ErrorWithContext(ctx, "failed to publish booking notification", err,
				map[string]interface{}{"booking_id": booking.ID.String()})
		}
	}

	response := booking.ToResponse(seatRows)
	return &response, nil
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, booking)
}

func (s *service) GetBookingByRef(ctx context.Context, ref string) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, booking)
}

func (s *service) toResponse(ctx context.Context, booking *Booking) (*BookingResponse, error) {
	seatIDs := make([]uuid.UUID, 0, len(booking.Seats))
	for _, bs := range booking.Seats {
		seatIDs = append(seatIDs, bs.SeatID)
	}

	seatRows, err := s.store.GetSeatsByIDs(ctx, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked seats: %w", err)
	}

	response := booking.ToResponse(seatRows)
	return &response, nil
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

const refAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateBookingRef produces a human-readable reference like TKT-20260901-K7M2QX
func generateBookingRef(now time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = refAlphabet[int(b)%len(refAlphabet)]
	}
	return fmt.Sprintf("TKT-%s-%s", now.Format("20060102"), string(buf)), nil
}
