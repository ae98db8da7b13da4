package mocks

import (
	"context"

	"github.com/quickshow/quickshow/internal/domain"
)

type MockMovieRepo struct {
	domain.MovieRepository
	CreateFunc  func(ctx context.Context, movie *domain.Movie) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Movie, error)
}

func (m *MockMovieRepo) Create(ctx context.Context, movie *domain.Movie) error {
	return m.CreateFunc(ctx, movie)
}

func (m *MockMovieRepo) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	return m.GetByIDFunc(ctx, id)
}
