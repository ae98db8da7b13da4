package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Show is one scheduled screening of a movie. Its seat occupancy lives in
// separate per-seat rows owned by the inventory store; a seat is available
// exactly when no row exists for it.
type Show struct {
	ID        uuid.UUID
	MovieID   string
	Movie     *Movie
	StartTime time.Time
	Price     decimal.Decimal
	CreatedAt time.Time
}

// SeatHold is one entry of a show's occupancy map.
type SeatHold struct {
	SeatID    string
	BookingID uuid.UUID
}

type ShowRepository interface {
	// Create inserts all shows or none. A (movie, start time) pair that
	// already exists yields ErrDuplicateShow.
	Create(ctx context.Context, shows []*Show) error
	GetByID(ctx context.Context, id uuid.UUID) (*Show, error)
	// GetUpcoming returns future shows with their movies populated, soonest
	// first.
	GetUpcoming(ctx context.Context) ([]*Show, error)
	GetUpcomingByMovie(ctx context.Context, movieID string) ([]*Show, error)
	GetOccupiedSeats(ctx context.Context, showID uuid.UUID) ([]SeatHold, error)
}
