package bookings

import (
	"context"
	"errors"
	"fmt"

	"ticketly/internal/seats"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatsNotHeld reports that the hold's seats were no longer in RESERVED
// state under the given token when the finalizing transaction ran.
var ErrSeatsNotHeld = errors.New("seats are no longer held by this reservation")

type Repository interface {
	// CreateWithSeats finalizes a hold in one transaction: flips the token's
	// RESERVED seats to BOOKED and inserts the booking with its seat rows.
	// Fails with ErrSeatsNotHeld if any expected seat was not flipped.
	CreateWithSeats(ctx context.Context, booking *Booking, token string, expectedSeats int) error

	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingByRef(ctx context.Context, ref string) (*Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithSeats(ctx context.Context, booking *Booking, token string, expectedSeats int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A sweep or cancel racing this call loses here: rows it already
		// released no longer match the token, and rows flipped to BOOKED
		// below are out of its reach.
		result := tx.Model(&seats.Seat{}).
			Where("reservation_token = ? AND status = ?", token, seats.StatusReserved).
			Update("status", seats.StatusBooked)
		if result.Error != nil {
			return fmt.Errorf("failed to finalize seats: %w", result.Error)
		}
		if result.RowsAffected != int64(expectedSeats) {
			return ErrSeatsNotHeld
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		return nil
	})
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("Seats").Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetBookingByRef(ctx context.Context, ref string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Preload("Seats").Where("booking_ref = ?", ref).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}
