package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
)

type MockShowRepo struct {
	domain.ShowRepository
	CreateFunc             func(ctx context.Context, shows []*domain.Show) error
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*domain.Show, error)
	GetUpcomingFunc        func(ctx context.Context) ([]*domain.Show, error)
	GetUpcomingByMovieFunc func(ctx context.Context, movieID string) ([]*domain.Show, error)
	GetOccupiedSeatsFunc   func(ctx context.Context, showID uuid.UUID) ([]domain.SeatHold, error)
}

func (m *MockShowRepo) Create(ctx context.Context, shows []*domain.Show) error {
	return m.CreateFunc(ctx, shows)
}

func (m *MockShowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockShowRepo) GetUpcoming(ctx context.Context) ([]*domain.Show, error) {
	return m.GetUpcomingFunc(ctx)
}

func (m *MockShowRepo) GetUpcomingByMovie(ctx context.Context, movieID string) ([]*domain.Show, error) {
	return m.GetUpcomingByMovieFunc(ctx, movieID)
}

func (m *MockShowRepo) GetOccupiedSeats(ctx context.Context, showID uuid.UUID) ([]domain.SeatHold, error) {
	return m.GetOccupiedSeatsFunc(ctx, showID)
}
