package seats

// Status is the canonical seat state. External naming differences (e.g. "sold",
// "held") are translation concerns at the API boundary, never stored.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusBooked    Status = "BOOKED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusBooked:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the seat lifecycle permits moving to next.
// BOOKED is terminal; RESERVED may settle back to AVAILABLE or forward to BOOKED.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusAvailable:
		return next == StatusReserved
	case StatusReserved:
		return next == StatusAvailable || next == StatusBooked
	case StatusBooked:
		return false
	}
	return false
}
