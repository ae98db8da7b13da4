// Package reservation is the sole authority over show seat occupancy. All
// mutation of the occupancy map goes through the Engine; handlers and
// reporting code only ever read.
package reservation

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
)

// DefaultHoldWindow is how long a pending booking may keep its seats before
// the sweep releases them.
const DefaultHoldWindow = 10 * time.Minute

type Engine struct {
	shows      domain.ShowRepository
	bookings   domain.BookingRepository
	logger     *slog.Logger
	holdWindow time.Duration
	now        func() time.Time
}

type Option func(*Engine)

func WithHoldWindow(d time.Duration) Option {
	return func(e *Engine) {
		e.holdWindow = d
	}
}

// WithClock overrides the engine's time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(shows domain.ShowRepository, bookings domain.BookingRepository, logger *slog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		shows:      shows,
		bookings:   bookings,
		logger:     logger,
		holdWindow: DefaultHoldWindow,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// GetAvailability returns the currently occupied seat IDs of a show,
// reflecting the latest committed state.
func (e *Engine) GetAvailability(ctx context.Context, showID uuid.UUID) ([]string, error) {
	if _, err := e.shows.GetByID(ctx, showID); err != nil {
		return nil, err
	}

	holds, err := e.shows.GetOccupiedSeats(ctx, showID)
	if err != nil {
		return nil, err
	}

	occupied := make([]string, len(holds))
	for i, hold := range holds {
		occupied[i] = hold.SeatID
	}

	return occupied, nil
}

// Reserve validates the request and claims the seats for a new pending
// booking. The availability check and the claim happen inside one storage
// transaction, so two overlapping reserves can never both succeed; the
// engine itself never reads occupancy and writes it back in separate steps.
func (e *Engine) Reserve(ctx context.Context, showID uuid.UUID, seatIDs []string, userID string) (*domain.Booking, error) {
	if len(seatIDs) == 0 {
		return nil, domain.ErrNoSeatsSelected
	}

	seats := normalizeSeats(seatIDs)

	show, err := e.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	if !show.StartTime.After(e.now()) {
		return nil, domain.ErrShowInPast
	}

	var invalid []string
	for _, seat := range seats {
		if !domain.ValidSeatID(seat) {
			invalid = append(invalid, seat)
		}
	}
	if len(invalid) > 0 {
		return nil, &domain.InvalidSeatsError{Seats: invalid}
	}

	// Advisory occupancy check. The claim inside Create re-runs it
	// atomically, so a stale read here can only change which error the
	// caller sees, never let two overlapping reserves both succeed.
	holds, err := e.shows.GetOccupiedSeats(ctx, showID)
	if err != nil {
		return nil, err
	}

	occupied := make(map[string]bool, len(holds))
	for _, hold := range holds {
		occupied[hold.SeatID] = true
	}

	var conflicting []string
	for _, seat := range seats {
		if occupied[seat] {
			conflicting = append(conflicting, seat)
		}
	}
	if len(conflicting) > 0 {
		return nil, &domain.SeatsUnavailableError{Seats: conflicting}
	}

	if len(seats) > domain.MaxSeatsPerBooking {
		return nil, domain.ErrTooManySeats
	}

	booking := domain.NewBooking(userID, show, seats)

	err = e.bookings.Create(ctx, booking)
	if err != nil {
		var unavailable *domain.SeatsUnavailableError
		if errors.As(err, &unavailable) {
			e.logger.Info(
				"seat reservation conflict",
				"show_id", showID,
				"conflicting_seats", unavailable.Seats,
			)
		}

		return nil, err
	}

	e.logger.Info(
		"seats reserved",
		"booking_id", booking.ID,
		"show_id", showID,
		"seats", seats,
	)

	return booking, nil
}

// Release frees a booking's seats after a failed or abandoned payment.
// Safe to call more than once; a booking that is already paid or already
// released is left untouched.
func (e *Engine) Release(ctx context.Context, bookingID uuid.UUID) error {
	return e.bookings.ReleaseSeats(ctx, bookingID, domain.BookingStatusFailed)
}

// Confirm marks a booking paid. The seats stay held.
func (e *Engine) Confirm(ctx context.Context, bookingID uuid.UUID) error {
	return e.bookings.MarkPaid(ctx, bookingID)
}

// ExpireStalePending releases the seats of pending bookings older than the
// hold window. The underlying update is conditional on the booking still
// being pending, so a booking confirmed while the sweep runs keeps its seats.
func (e *Engine) ExpireStalePending(ctx context.Context, now time.Time) (int, error) {
	return e.bookings.ExpireStale(ctx, now.Add(-e.holdWindow))
}

// HoldWindow reports the configured hold duration.
func (e *Engine) HoldWindow() time.Duration {
	return e.holdWindow
}

// normalizeSeats sorts and de-duplicates the requested seat IDs so that the
// booking record and conflict reporting are deterministic.
func normalizeSeats(seatIDs []string) []string {
	seen := make(map[string]bool, len(seatIDs))
	seats := make([]string, 0, len(seatIDs))

	for _, seat := range seatIDs {
		if !seen[seat] {
			seen[seat] = true
			seats = append(seats, seat)
		}
	}

	sort.Strings(seats)

	return seats
}
