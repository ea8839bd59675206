package bookings

import (
	"time"

	"ticketly/internal/seats"

	"github.com/google/uuid"
)

// Booking is the durable record produced when a hold is confirmed.
type Booking struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID       uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	BookingRef    string    `gorm:"type:varchar(32);unique;not null" json:"booking_ref"`
	CustomerName  string    `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail string    `gorm:"type:varchar(255);not null" json:"customer_email"`
	CustomerPhone string    `gorm:"type:varchar(32)" json:"customer_phone,omitempty"`
	TotalSeats    int       `gorm:"not null" json:"total_seats"`
	TotalAmount   float64   `gorm:"not null" json:"total_amount"`
	PaymentMethod string    `gorm:"type:varchar(50);not null" json:"payment_method"`
	TransactionID string    `gorm:"type:varchar(128);unique;not null" json:"transaction_id"`
	Status        string    `gorm:"type:varchar(20);check:status IN ('CONFIRMED', 'CANCELLED');default:'CONFIRMED'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Seats []BookingSeat `json:"seats,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// BookingSeat links a booking to one of its seats at the price paid.
type BookingSeat struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	SeatID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"seat_id"`
	SeatLabel string    `gorm:"type:varchar(32);not null" json:"seat_label"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (BookingSeat) TableName() string {
	return "booking_seats"
}

// ConfirmRequest is the payload for POST /bookings/confirm
type ConfirmRequest struct {
	ReservationToken string        `json:"reservation_token" validate:"required,uuid"`
	Customer         CustomerInput `json:"customer" validate:"required"`
	Payment          PaymentInput  `json:"payment" validate:"required"`
}

type CustomerInput struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type PaymentInput struct {
	Method        string  `json:"method" validate:"required"`
	TransactionID string  `json:"transactionId" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
}

// BookingResponse is the API representation of a confirmed booking
type BookingResponse struct {
	BookingID     string               `json:"booking_id"`
	BookingRef    string               `json:"booking_ref"`
	EventID       string               `json:"event_id"`
	Status        string               `json:"status"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	TotalSeats    int                  `json:"total_seats"`
	TotalAmount   float64              `json:"total_amount"`
	PaymentMethod string               `json:"payment_method"`
	TransactionID string               `json:"transaction_id"`
	Seats         []seats.SeatResponse `json:"seats"`
	CreatedAt     time.Time            `json:"created_at"`
}

func (b *Booking) ToResponse(seatRows []seats.Seat) BookingResponse {
	seatResponses := make([]seats.SeatResponse, 0, len(seatRows))
	for _, seat := range seatRows {
		seatResponses = append(seatResponses, seat.ToResponse())
	}

	return BookingResponse{
		BookingID:     b.ID.String(),
		BookingRef:    b.BookingRef,
		EventID:       b.EventID.String(),
		Status:        b.Status,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		TotalSeats:    b.TotalSeats,
		TotalAmount:   b.TotalAmount,
		PaymentMethod: b.PaymentMethod,
		TransactionID: b.TransactionID,
		Seats:         seatResponses,
		CreatedAt:     b.CreatedAt,
	}
}
