// Package catalog talks to the external movie catalog (TMDB) and normalizes
// its records into the local movie shape.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/quickshow/quickshow/internal/domain"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

type TMDBGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewTMDBGateway(baseURL, apiKey string) *TMDBGateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &TMDBGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type tmdbMovie struct {
	ID               int            `json:"id"`
	Title            string         `json:"title"`
	Overview         string         `json:"overview"`
	PosterPath       string         `json:"poster_path"`
	BackdropPath     string         `json:"backdrop_path"`
	Genres           []domain.Genre `json:"genres"`
	ReleaseDate      string         `json:"release_date"`
	OriginalLanguage string         `json:"original_language"`
	Tagline          string         `json:"tagline"`
	VoteAverage      float64        `json:"vote_average"`
	Runtime          int            `json:"runtime"`
}

type tmdbCredits struct {
	Cast []domain.CastMember `json:"cast"`
}

type tmdbNowPlaying struct {
	Results []tmdbMovie `json:"results"`
}

func (g *TMDBGateway) GetMovieDetails(ctx context.Context, id string) (*domain.Movie, error) {
	var details tmdbMovie

	err := g.get(ctx, fmt.Sprintf("/movie/%s", id), &details)
	if err != nil {
		return nil, err
	}

	var credits tmdbCredits

	err = g.get(ctx, fmt.Sprintf("/movie/%s/credits", id), &credits)
	if err != nil {
		return nil, err
	}

	movie := toMovie(details)
	movie.Casts = credits.Cast

	return movie, nil
}

func (g *TMDBGateway) ListNowPlaying(ctx context.Context) ([]*domain.Movie, error) {
	var page tmdbNowPlaying

	err := g.get(ctx, "/movie/now_playing", &page)
	if err != nil {
		return nil, err
	}

	movies := make([]*domain.Movie, len(page.Results))
	for i, result := range page.Results {
		movies[i] = toMovie(result)
	}

	return movies, nil
}

// get performs an authenticated GET with a single retry. The retry is safe
// because every catalog call is an idempotent read.
func (g *TMDBGateway) get(ctx context.Context, path string, dst any) error {
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		lastErr = g.doGet(ctx, path, dst)
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, domain.ErrRecordNotFound) {
			return lastErr
		}

		if ctx.Err() != nil {
			break
		}
	}

	return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, lastErr)
}

func (g *TMDBGateway) doGet(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrRecordNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

func toMovie(m tmdbMovie) *domain.Movie {
	movie := &domain.Movie{
		ID:               strconv.Itoa(m.ID),
		Title:            m.Title,
		Overview:         m.Overview,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		Genres:           m.Genres,
		OriginalLanguage: m.OriginalLanguage,
		Tagline:          m.Tagline,
		VoteAverage:      m.VoteAverage,
		Runtime:          m.Runtime,
	}

	if m.ReleaseDate != "" {
		if release, err := time.Parse("2006-01-02", m.ReleaseDate); err == nil {
			movie.ReleaseDate = release
		}
	}

	return movie
}
