package seats

import (
	"time"

	"github.com/google/uuid"
)

// Seat defines the structure for individual seats
type Seat struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID    uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_event_seat" json:"event_id"`
	Row        string    `gorm:"not null;uniqueIndex:idx_event_seat" json:"row"`
	SeatNumber string    `gorm:"not null;uniqueIndex:idx_event_seat" json:"seat_number"`
	Section    string    `gorm:"not null" json:"section"`
	Price      float64   `gorm:"not null;check:price >= 0" json:"price"`
	Status     Status    `gorm:"type:varchar(20);check:status IN ('AVAILABLE', 'RESERVED', 'BOOKED');default:'AVAILABLE'" json:"status"`

	// Back-reference to the ledger entry currently holding this seat.
	// Set only while RESERVED; cleared on release, kept through BOOKED for audit.
	ReservationToken *string `gorm:"index" json:"reservation_token,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

func (s *Seat) IsReserved() bool {
	return s.Status == StatusReserved
}

func (s *Seat) IsBooked() bool {
	return s.Status == StatusBooked
}

// Label returns the human-readable seat position, e.g. "A12"
func (s *Seat) Label() string {
	return s.Row + s.SeatNumber
}

// SeatResponse for API responses
type SeatResponse struct {
	ID         string  `json:"id"`
	Row        string  `json:"row"`
	SeatNumber string  `json:"seat_number"`
	Section    string  `json:"section"`
	Price      float64 `json:"price"`
	Status     string  `json:"status"`
}

// ToResponse converts a Seat to its API representation
func (s *Seat) ToResponse() SeatResponse {
	return SeatResponse{
		ID:         s.ID.String(),
		Row:        s.Row,
		SeatNumber: s.SeatNumber,
		Section:    s.Section,
		Price:      s.Price,
		Status:     s.Status.String(),
	}
}
