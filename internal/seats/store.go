package seats

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the durable record of seat state. The claim path must be atomic:
// two concurrent claims on overlapping seat sets get exactly one winner, and
// the loser sees which seats conflicted.
type Store interface {
	// Seat CRUD
	CreateSeats(ctx context.Context, seats []Seat) error
	GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error)
	GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]Seat, error)
	GetSeatsByEventID(ctx context.Context, eventID uuid.UUID) ([]Seat, error)
	GetSeatsByToken(ctx context.Context, token string) ([]Seat, error)

	// State transitions
	ReserveSeats(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, token string) ([]Seat, error)
	ReleaseSeats(ctx context.Context, token string) (int64, error)

	// Sweep support
	FindReservedTokens(ctx context.Context) ([]string, error)
}

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

// SEAT CRUD

func (s *store) CreateSeats(ctx context.Context, seats []Seat) error {
	return s.db.WithContext(ctx).Create(&seats).Error
}

func (s *store) GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	err := s.db.WithContext(ctx).First(&seat, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &seat, nil
}

func (s *store) GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := s.db.WithContext(ctx).
		Where("id IN ?", seatIDs).
		Order("row ASC, seat_number ASC").
		Find(&seats).Error
	return seats, err
}

func (s *store) GetSeatsByEventID(ctx context.Context, eventID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("row ASC, seat_number ASC").
		Find(&seats).Error
	return seats, err
}

func (s *store) GetSeatsByToken(ctx context.Context, token string) ([]Seat, error) {
	var seats []Seat
	err := s.db.WithContext(ctx).
		Where("reservation_token = ?", token).
		Order("row ASC, seat_number ASC").
		Find(&seats).Error
	return seats, err
}

// STATE TRANSITIONS

// ReserveSeats atomically transitions every listed seat AVAILABLE -> RESERVED,
// stamping token on each row. All-or-nothing: the seat rows are locked FOR
// UPDATE, so overlapping claims serialize at the storage layer and the loser
// gets a SeatUnavailableError naming the conflicting seats.
func (s *store) ReserveSeats(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, token string) ([]Seat, error) {
	var claimed []Seat

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []Seat
		err := tx.
			Set("gorm:query_option", "FOR UPDATE").
			Where("id IN ? AND event_id = ?", seatIDs, eventID).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to lock seats: %w", err)
		}

		// Unknown seats or seats from another event
		if len(rows) != len(seatIDs) {
			return ErrSeatNotFound
		}

		var conflicts []string
		for _, seat := range rows {
			if seat.Status != StatusAvailable {
				conflicts = append(conflicts, seat.ID.String())
			}
		}
		if len(conflicts) > 0 {
			return &SeatUnavailableError{SeatIDs: conflicts}
		}

		res := tx.Model(&Seat{}).
			Where("id IN ? AND status = ?", seatIDs, StatusAvailable).
			Updates(map[string]interface{}{
				"status":            StatusReserved,
				"reservation_token": token,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to reserve seats: %w", res.Error)
		}
		if res.RowsAffected != int64(len(seatIDs)) {
			// Should not happen under the row locks above; treated as a conflict
			return &SeatUnavailableError{SeatIDs: uuidStrings(seatIDs)}
		}

		for i := range rows {
			rows[i].Status = StatusReserved
			t := token
			rows[i].ReservationToken = &t
		}
		claimed = rows
		return nil
	})

	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ReleaseSeats transitions all seats held by token RESERVED -> AVAILABLE.
// Rows already BOOKED are never touched, so a release racing a completed
// confirmation is a no-op. Returns the number of seats released.
func (s *store) ReleaseSeats(ctx context.Context, token string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&Seat{}).
		Where("reservation_token = ? AND status = ?", token, StatusReserved).
		Updates(map[string]interface{}{
			"status":            StatusAvailable,
			"reservation_token": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to release seats: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SWEEP SUPPORT

// FindReservedTokens returns the distinct tokens currently stamped on RESERVED
// rows. The sweeper cross-checks them against the ledger to find orphans.
func (s *store) FindReservedTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := s.db.WithContext(ctx).Model(&Seat{}).
		Where("status = ? AND reservation_token IS NOT NULL", StatusReserved).
		Distinct().
		Pluck("reservation_token", &tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reserved tokens: %w", err)
	}
	return tokens, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
