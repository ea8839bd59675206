package seats

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSeatNotFound is returned when a requested seat does not exist or does not
// belong to the given event.
var ErrSeatNotFound = errors.New("seat not found")

// SeatUnavailableError reports a lost seat-claim race. It names every seat that
// was not AVAILABLE so the caller can re-fetch the seat map and retry.
type SeatUnavailableError struct {
	SeatIDs []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats not available: %s", strings.Join(e.SeatIDs, ", "))
}

// IsSeatUnavailable reports whether err is a seat conflict
func IsSeatUnavailable(err error) bool {
	var unavailable *SeatUnavailableError
	return errors.As(err, &unavailable)
}
