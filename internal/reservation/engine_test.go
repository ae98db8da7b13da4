package reservation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/quickshow/quickshow/internal/mocks"
	"github.com/shopspring/decimal"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestEngine(shows *mocks.MockShowRepo, bookings *mocks.MockBookingRepo, opts ...Option) *Engine {
	return NewEngine(shows, bookings, testLogger, opts...)
}

func futureShow() *domain.Show {
	return &domain.Show{
		ID:        uuid.New(),
		MovieID:   "27205",
		StartTime: time.Now().Add(24 * time.Hour),
		Price:     decimal.NewFromInt(15),
	}
}

func TestReserve(t *testing.T) {
	show := futureShow()

	tests := []struct {
		name     string
		seats    []string
		occupied []domain.SeatHold
		show     *domain.Show
		wantErr  func(t *testing.T, err error)
	}{
		{
			name:  "should reject an empty seat selection",
			seats: nil,
			show:  show,
			wantErr: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrNoSeatsSelected) {
					t.Errorf("err = %v, want ErrNoSeatsSelected", err)
				}
			},
		},
		{
			name:  "should reject an unknown show",
			seats: []string{"A1"},
			show:  nil,
			wantErr: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrRecordNotFound) {
					t.Errorf("err = %v, want ErrRecordNotFound", err)
				}
			},
		},
		{
			name:  "should reject a show that already started",
			seats: []string{"A1"},
			show: &domain.Show{
				ID:        show.ID,
				StartTime: time.Now().Add(-time.Minute),
			},
			wantErr: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrShowInPast) {
					t.Errorf("err = %v, want ErrShowInPast", err)
				}
			},
		},
		{
			name:  "should reject seat IDs outside the layout",
			seats: []string{"A1", "K1", "A0"},
			show:  show,
			wantErr: func(t *testing.T, err error) {
				var invalid *domain.InvalidSeatsError
				if !errors.As(err, &invalid) {
					t.Fatalf("err = %v, want InvalidSeatsError", err)
				}
				if diff := cmp.Diff([]string{"A0", "K1"}, invalid.Seats); diff != "" {
					t.Errorf("invalid seats mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:     "should reject seats that are already held",
			seats:    []string{"A1", "A2", "A3"},
			show:     show,
			occupied: []domain.SeatHold{{SeatID: "A2", BookingID: uuid.New()}},
			wantErr: func(t *testing.T, err error) {
				var unavailable *domain.SeatsUnavailableError
				if !errors.As(err, &unavailable) {
					t.Fatalf("err = %v, want SeatsUnavailableError", err)
				}
				if diff := cmp.Diff([]string{"A2"}, unavailable.Seats); diff != "" {
					t.Errorf("conflicting seats mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:  "should reject more seats than the per-booking limit",
			seats: []string{"A1", "A2", "A3", "A4", "A5", "A6"},
			show:  show,
			wantErr: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrTooManySeats) {
					t.Errorf("err = %v, want ErrTooManySeats", err)
				}
			},
		},
		{
			name:     "should prefer the conflict over the size limit when both apply",
			seats:    []string{"A1", "A2", "A3", "A4", "A5", "A6"},
			show:     show,
			occupied: []domain.SeatHold{{SeatID: "A1", BookingID: uuid.New()}},
			wantErr: func(t *testing.T, err error) {
				var unavailable *domain.SeatsUnavailableError
				if !errors.As(err, &unavailable) {
					t.Fatalf("err = %v, want SeatsUnavailableError", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			showRepo := &mocks.MockShowRepo{
				GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
					if tt.show == nil {
						return nil, domain.ErrRecordNotFound
					}
					return tt.show, nil
				},
				GetOccupiedSeatsFunc: func(ctx context.Context, showID uuid.UUID) ([]domain.SeatHold, error) {
					return tt.occupied, nil
				},
			}
			bookingRepo := &mocks.MockBookingRepo{
				CreateFunc: func(ctx context.Context, booking *domain.Booking) error {
					t.Fatal("Create should not be reached on a rejected reserve")
					return nil
				},
			}

			engine := newTestEngine(showRepo, bookingRepo)

			_, err := engine.Reserve(context.Background(), show.ID, tt.seats, "user-1")
			if err == nil {
				t.Fatal("expected an error")
			}

			tt.wantErr(t, err)
		})
	}
}

func TestReserveSuccess(t *testing.T) {
	show := futureShow()

	var created *domain.Booking

	showRepo := &mocks.MockShowRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
			return show, nil
		},
		GetOccupiedSeatsFunc: func(ctx context.Context, showID uuid.UUID) ([]domain.SeatHold, error) {
			return []domain.SeatHold{{SeatID: "C7", BookingID: uuid.New()}}, nil
		},
	}
	bookingRepo := &mocks.MockBookingRepo{
		CreateFunc: func(ctx context.Context, booking *domain.Booking) error {
			created = booking
			return nil
		},
	}

	engine := newTestEngine(showRepo, bookingRepo)

	booking, err := engine.Reserve(context.Background(), show.ID, []string{"B2", "A1", "B2"}, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	if created == nil {
		t.Fatal("expected the booking to be persisted")
	}

	if diff := cmp.Diff([]string{"A1", "B2"}, booking.Seats); diff != "" {
		t.Errorf("seats should be deduplicated and sorted (-want +got):\n%s", diff)
	}

	if !booking.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("amount = %s, want 30", booking.Amount)
	}

	if booking.Status != domain.BookingStatusPending {
		t.Errorf("status = %s, want pending", booking.Status)
	}

	if booking.UserID != "user-1" {
		t.Errorf("user = %s, want user-1", booking.UserID)
	}

	if booking.Show != show {
		t.Error("booking should carry the show it was priced against")
	}
}

func TestReserveSurfacesCommitConflict(t *testing.T) {
	show := futureShow()

	showRepo := &mocks.MockShowRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
			return show, nil
		},
		GetOccupiedSeatsFunc: func(ctx context.Context, showID uuid.UUID) ([]domain.SeatHold, error) {
			// The advisory read sees the seat as free; the claim loses the
			// race at commit time.
			return nil, nil
		},
	}
	bookingRepo := &mocks.MockBookingRepo{
		CreateFunc: func(ctx context.Context, booking *domain.Booking) error {
			return &domain.SeatsUnavailableError{Seats: []string{"A1"}}
		},
	}

	engine := newTestEngine(showRepo, bookingRepo)

	_, err := engine.Reserve(context.Background(), show.ID, []string{"A1"}, "user-1")

	var unavailable *domain.SeatsUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want SeatsUnavailableError", err)
	}
}

func TestGetAvailability(t *testing.T) {
	show := futureShow()
	holder := uuid.New()

	showRepo := &mocks.MockShowRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
			if id != show.ID {
				return nil, domain.ErrRecordNotFound
			}
			return show, nil
		},
		GetOccupiedSeatsFunc: func(ctx context.Context, showID uuid.UUID) ([]domain.SeatHold, error) {
			return []domain.SeatHold{
				{SeatID: "A1", BookingID: holder},
				{SeatID: "B5", BookingID: holder},
			}, nil
		},
	}

	engine := newTestEngine(showRepo, &mocks.MockBookingRepo{})

	occupied, err := engine.GetAvailability(context.Background(), show.ID)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"A1", "B5"}, occupied); diff != "" {
		t.Errorf("occupied seats mismatch (-want +got):\n%s", diff)
	}

	_, err = engine.GetAvailability(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound for an unknown show", err)
	}
}

func TestExpireStalePending(t *testing.T) {
	now := time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC)

	var gotCutoff time.Time

	bookingRepo := &mocks.MockBookingRepo{
		ExpireStaleFunc: func(ctx context.Context, cutoff time.Time) (int, error) {
			gotCutoff = cutoff
			return 3, nil
		},
	}

	engine := newTestEngine(&mocks.MockShowRepo{}, bookingRepo, WithHoldWindow(15*time.Minute))

	released, err := engine.ExpireStalePending(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}

	if released != 3 {
		t.Errorf("released = %d, want 3", released)
	}

	want := now.Add(-15 * time.Minute)
	if !gotCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", gotCutoff, want)
	}
}

func TestReleaseAndConfirmDelegate(t *testing.T) {
	bookingID := uuid.New()

	var releasedWith domain.BookingStatus
	var confirmed bool

	bookingRepo := &mocks.MockBookingRepo{
		ReleaseSeatsFunc: func(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
			releasedWith = status
			return nil
		},
		MarkPaidFunc: func(ctx context.Context, id uuid.UUID) error {
			confirmed = id == bookingID
			return nil
		},
	}

	engine := newTestEngine(&mocks.MockShowRepo{}, bookingRepo)

	if err := engine.Release(context.Background(), bookingID); err != nil {
		t.Fatal(err)
	}
	if releasedWith != domain.BookingStatusFailed {
		t.Errorf("release status = %s, want failed", releasedWith)
	}

	if err := engine.Confirm(context.Background(), bookingID); err != nil {
		t.Fatal(err)
	}
	if !confirmed {
		t.Error("expected MarkPaid to be called with the booking ID")
	}
}

func TestReserveUsesInjectedClock(t *testing.T) {
	start := time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC)
	show := &domain.Show{ID: uuid.New(), StartTime: start, Price: decimal.NewFromInt(10)}

	showRepo := &mocks.MockShowRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
			return show, nil
		},
		GetOccupiedSeatsFunc: func(ctx context.Context, showID uuid.UUID) ([]domain.SeatHold, error) {
			return nil, nil
		},
	}
	bookingRepo := &mocks.MockBookingRepo{
		CreateFunc: func(ctx context.Context, booking *domain.Booking) error {
			return nil
		},
	}

	// One second before the show starts the reserve still goes through.
	engine := newTestEngine(showRepo, bookingRepo, WithClock(func() time.Time {
		return start.Add(-time.Second)
	}))

	_, err := engine.Reserve(context.Background(), show.ID, []string{"A1"}, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	// At the exact start time it is rejected.
	engine = newTestEngine(showRepo, bookingRepo, WithClock(func() time.Time {
		return start
	}))

	_, err = engine.Reserve(context.Background(), show.ID, []string{"A1"}, "user-1")
	if !errors.Is(err, domain.ErrShowInPast) {
		t.Errorf("err = %v, want ErrShowInPast", err)
	}
}
