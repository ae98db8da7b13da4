package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
)

type MockBookingRepo struct {
	domain.BookingRepository
	CreateFunc               func(ctx context.Context, booking *domain.Booking) error
	GetByIDFunc              func(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByCheckoutSessionFunc func(ctx context.Context, sessionID string) (*domain.Booking, error)
	SetCheckoutSessionFunc   func(ctx context.Context, id uuid.UUID, sessionID string) error
	MarkPaidFunc             func(ctx context.Context, id uuid.UUID) error
	ReleaseSeatsFunc         func(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
	ExpireStaleFunc          func(ctx context.Context, cutoff time.Time) (int, error)
	GetByUserFunc            func(ctx context.Context, userID string) ([]*domain.BookingDetail, error)
	GetAllFunc               func(ctx context.Context) ([]*domain.BookingDetail, error)
	GetDashboardDataFunc     func(ctx context.Context) (*domain.DashboardData, error)
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	return m.CreateFunc(ctx, booking)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockBookingRepo) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Booking, error) {
	return m.GetByCheckoutSessionFunc(ctx, sessionID)
}

func (m *MockBookingRepo) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return m.SetCheckoutSessionFunc(ctx, id, sessionID)
}

func (m *MockBookingRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return m.MarkPaidFunc(ctx, id)
}

func (m *MockBookingRepo) ReleaseSeats(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	return m.ReleaseSeatsFunc(ctx, id, status)
}

func (m *MockBookingRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	return m.ExpireStaleFunc(ctx, cutoff)
}

func (m *MockBookingRepo) GetByUser(ctx context.Context, userID string) ([]*domain.BookingDetail, error) {
	return m.GetByUserFunc(ctx, userID)
}

func (m *MockBookingRepo) GetAll(ctx context.Context) ([]*domain.BookingDetail, error) {
	return m.GetAllFunc(ctx)
}

func (m *MockBookingRepo) GetDashboardData(ctx context.Context) (*domain.DashboardData, error) {
	return m.GetDashboardDataFunc(ctx)
}
