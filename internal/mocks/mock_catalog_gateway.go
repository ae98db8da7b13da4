package mocks

import (
	"context"

	"github.com/quickshow/quickshow/internal/domain"
)

type MockCatalogGateway struct {
	domain.CatalogGateway
	GetMovieDetailsFunc func(ctx context.Context, id string) (*domain.Movie, error)
	ListNowPlayingFunc  func(ctx context.Context) ([]*domain.Movie, error)
}

func (m *MockCatalogGateway) GetMovieDetails(ctx context.Context, id string) (*domain.Movie, error) {
	return m.GetMovieDetailsFunc(ctx, id)
}

func (m *MockCatalogGateway) ListNowPlaying(ctx context.Context) ([]*domain.Movie, error) {
	return m.ListNowPlayingFunc(ctx)
}
