package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending BookingStatus = "pending"
	BookingStatusPaid    BookingStatus = "paid"
	BookingStatusFailed  BookingStatus = "failed"
	BookingStatusExpired BookingStatus = "expired"
)

// Released reports whether the booking's seats have been handed back.
func (s BookingStatus) Released() bool {
	return s == BookingStatusFailed || s == BookingStatusExpired
}

type Booking struct {
	ID                uuid.UUID
	UserID            string
	ShowID            uuid.UUID
	Seats             []string
	Amount            decimal.Decimal
	Status            BookingStatus
	CheckoutSessionID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Show is the show the booking was priced against. Populated by
	// NewBooking, not loaded from storage.
	Show *Show
}

func NewBooking(userID string, show *Show, seats []string) *Booking {
	return &Booking{
		ID:     uuid.New(),
		UserID: userID,
		ShowID: show.ID,
		Seats:  seats,
		Amount: show.Price.Mul(decimal.NewFromInt(int64(len(seats)))),
		Status: BookingStatusPending,
		Show:   show,
	}
}

// BookingDetail is the read model for user-facing and admin-facing lists.
type BookingDetail struct {
	Booking
	MovieTitle    string
	PosterPath    string
	ShowStartTime time.Time
}

// DashboardData backs the admin dashboard view.
type DashboardData struct {
	TotalBookings int
	TotalRevenue  decimal.Decimal
	TotalUsers    int
	ActiveShows   []*Show
}

type BookingRepository interface {
	// Create persists the booking and claims its seats in a single
	// transaction. Seats already held by another booking cause a
	// *SeatsUnavailableError and no mutation at all.
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByCheckoutSession(ctx context.Context, sessionID string) (*Booking, error)
	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	// MarkPaid transitions pending to paid. Any other current status yields
	// ErrBookingNotPending.
	MarkPaid(ctx context.Context, id uuid.UUID) error
	// ReleaseSeats transitions a pending booking to the given released
	// status and removes its seats from the occupancy map. Calling it on a
	// booking that is already released or paid is a no-op.
	ReleaseSeats(ctx context.Context, id uuid.UUID, status BookingStatus) error
	// ExpireStale releases every pending booking created before the cutoff
	// and reports how many were expired.
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
	GetByUser(ctx context.Context, userID string) ([]*BookingDetail, error)
	GetAll(ctx context.Context) ([]*BookingDetail, error)
	GetDashboardData(ctx context.Context) (*DashboardData, error)
}
