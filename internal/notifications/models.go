package notifications

import (
	"encoding/json"
	"time"
)

// BookingConfirmedMessage is the wire payload published when a booking is
// finalized. Downstream consumers (email, analytics) key off Type.
type BookingConfirmedMessage struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	BookingRef    string    `json:"booking_ref"`
	EventID       string    `json:"event_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	TotalSeats    int       `json:"total_seats"`
	TotalAmount   float64   `json:"total_amount"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

const TypeBookingConfirmed = "booking.confirmed"

func (m *BookingConfirmedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
