package domain

import (
	"context"
	"time"
)

// Movie is the locally cached copy of a catalog record. It is immutable once
// stored; the catalog is consulted only when a movie is referenced for the
// first time.
type Movie struct {
	ID               string
	Title            string
	Overview         string
	PosterPath       string
	BackdropPath     string
	Genres           []Genre
	Casts            []CastMember
	ReleaseDate      time.Time
	OriginalLanguage string
	Tagline          string
	VoteAverage      float64
	Runtime          int
	CreatedAt        time.Time
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember keeps the billing order from the catalog so clients can show
// the top-billed cast first.
type CastMember struct {
	Name        string `json:"name"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type MovieRepository interface {
	Create(ctx context.Context, movie *Movie) error
	GetByID(ctx context.Context, id string) (*Movie, error)
}

// CatalogGateway fronts the external movie catalog provider. Failures are
// surfaced as ErrCatalogUnavailable; callers that already have the movie
// cached locally must not depend on the gateway being reachable.
type CatalogGateway interface {
	GetMovieDetails(ctx context.Context, id string) (*Movie, error)
	ListNowPlaying(ctx context.Context) ([]*Movie, error)
}
