package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrShowInPast         = errors.New("show has already started")
	ErrNoSeatsSelected    = errors.New("at least one seat must be selected")
	ErrTooManySeats       = fmt.Errorf("at most %d seats can be booked at once", MaxSeatsPerBooking)
	ErrDuplicateShow      = errors.New("a show for this movie and time already exists")
	ErrBookingNotPending  = errors.New("booking is not in pending state")
	ErrCatalogUnavailable = errors.New("movie catalog is unavailable")
)

// InvalidSeatsError reports seat IDs that don't exist in the hall layout.
type InvalidSeatsError struct {
	Seats []string
}

func (e *InvalidSeatsError) Error() string {
	return fmt.Sprintf("invalid seat(s): %s", strings.Join(e.Seats, ", "))
}

// SeatsUnavailableError reports the exact seats that lost the race, so
// clients can re-render availability without a full reload.
type SeatsUnavailableError struct {
	Seats []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seat(s) already taken: %s", strings.Join(e.Seats, ", "))
}
