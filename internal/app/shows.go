package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/shopspring/decimal"
)

type MovieResponse struct {
	Id               string              `json:"id"`
	Title            string              `json:"title"`
	Overview         string              `json:"overview"`
	PosterPath       string              `json:"posterPath"`
	BackdropPath     string              `json:"backdropPath"`
	Genres           []domain.Genre      `json:"genres"`
	Casts            []domain.CastMember `json:"casts,omitempty"`
	ReleaseDate      string              `json:"releaseDate,omitempty"`
	OriginalLanguage string              `json:"originalLanguage,omitempty"`
	Tagline          string              `json:"tagline,omitempty"`
	VoteAverage      float64             `json:"voteAverage"`
	Runtime          int                 `json:"runtime"`
}

type UpcomingShowResponse struct {
	Movie    MovieResponse `json:"movie"`
	NextShow time.Time     `json:"nextShow"`
}

type ShowTimeResponse struct {
	Time   time.Time `json:"time"`
	ShowId uuid.UUID `json:"showId"`
}

type MovieShowsResponse struct {
	Movie     MovieResponse                 `json:"movie"`
	DateTimes map[string][]ShowTimeResponse `json:"dateTimes"`
}

type CreateShowsRequest struct {
	MovieId    string          `json:"movieId" validate:"required"`
	ShowsInput []ShowInput     `json:"showsInput" validate:"required,min=1,dive"`
	ShowPrice  decimal.Decimal `json:"showPrice" validate:"required"`
}

type ShowInput struct {
	Date string   `json:"date" validate:"required,show_date"`
	Time []string `json:"time" validate:"required,min=1,dive,show_time"`
}

// ListUpcomingShows returns each movie that still has a future show, soonest
// show first.
func (app *Application) ListUpcomingShows(w http.ResponseWriter, r *http.Request) {
	shows, err := app.showRepo.GetUpcoming(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	seen := make(map[string]bool, len(shows))
	resp := make([]UpcomingShowResponse, 0, len(shows))

	// Shows arrive sorted by start time, so the first show of each movie is
	// its soonest one.
	for _, show := range shows {
		if seen[show.MovieID] {
			continue
		}
		seen[show.MovieID] = true

		resp = append(resp, UpcomingShowResponse{
			Movie:    toMovieResponse(show.Movie),
			NextShow: show.StartTime,
		})
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetShowsByMovie returns the movie together with its future shows grouped
// into a date to showtimes grid.
func (app *Application) GetShowsByMovie(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieId")

	movie, err := app.movieRepo.GetByID(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	shows, err := app.showRepo.GetUpcomingByMovie(r.Context(), movieID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	dateTimes := make(map[string][]ShowTimeResponse)
	for _, show := range shows {
		date := show.StartTime.UTC().Format("2006-01-02")
		dateTimes[date] = append(dateTimes[date], ShowTimeResponse{
			Time:   show.StartTime,
			ShowId: show.ID,
		})
	}

	resp := MovieShowsResponse{
		Movie:     toMovieResponse(movie),
		DateTimes: dateTimes,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// CreateShows schedules screenings for a movie. The movie is fetched from the
// catalog and cached locally the first time it is referenced.
func (app *Application) CreateShows(w http.ResponseWriter, r *http.Request) {
	var req CreateShowsRequest

	err := app.readJSON(w, r, &req)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			app.failedValidationResponse(w, r, validationErrs)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	if req.ShowPrice.LessThanOrEqual(decimal.Zero) {
		app.badRequestResponse(w, r, fmt.Errorf("showPrice must be greater than zero"))
		return
	}

	movie, err := app.getOrFetchMovie(r.Context(), req.MovieId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrCatalogUnavailable):
			app.upstreamUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	shows, err := toShows(movie.ID, req)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.showRepo.Create(r.Context(), shows)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateShow) {
			app.badRequestResponse(w, r, fmt.Errorf("a show for this movie at one of the given times already exists"))
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	app.publishEvent(domain.Event{
		Name: domain.EventShowAdded,
		Data: map[string]any{
			"movieId":    movie.ID,
			"movieTitle": movie.Title,
			"showCount":  len(shows),
		},
	})

	err = app.writeJSON(w, http.StatusCreated, map[string]string{"message": "Shows added successfully"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ListNowPlayingMovies is the admin passthrough to the catalog's now playing
// list, used to pick movies when scheduling shows.
func (app *Application) ListNowPlayingMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := app.catalog.ListNowPlaying(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			app.upstreamUnavailableResponse(w, r, err)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]MovieResponse, 0, len(movies))
	for _, movie := range movies {
		resp = append(resp, toMovieResponse(movie))
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) getOrFetchMovie(ctx context.Context, movieID string) (*domain.Movie, error) {
	movie, err := app.movieRepo.GetByID(ctx, movieID)
	if err == nil {
		return movie, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	movie, err = app.catalog.GetMovieDetails(ctx, movieID)
	if err != nil {
		return nil, err
	}

	err = app.movieRepo.Create(ctx, movie)
	if err != nil {
		return nil, err
	}

	return movie, nil
}

func toShows(movieID string, req CreateShowsRequest) ([]*domain.Show, error) {
	var shows []*domain.Show

	for _, input := range req.ShowsInput {
		for _, t := range input.Time {
			startTime, err := time.Parse("2006-01-02T15:04", input.Date+"T"+t)
			if err != nil {
				return nil, fmt.Errorf("invalid show time %s %s", input.Date, t)
			}

			shows = append(shows, &domain.Show{
				ID:        uuid.New(),
				MovieID:   movieID,
				StartTime: startTime.UTC(),
				Price:     req.ShowPrice,
			})
		}
	}

	return shows, nil
}

func toMovieResponse(movie *domain.Movie) MovieResponse {
	resp := MovieResponse{
		Id:               movie.ID,
		Title:            movie.Title,
		Overview:         movie.Overview,
		PosterPath:       movie.PosterPath,
		BackdropPath:     movie.BackdropPath,
		Genres:           movie.Genres,
		Casts:            movie.Casts,
		OriginalLanguage: movie.OriginalLanguage,
		Tagline:          movie.Tagline,
		VoteAverage:      movie.VoteAverage,
		Runtime:          movie.Runtime,
	}

	if !movie.ReleaseDate.IsZero() {
		resp.ReleaseDate = movie.ReleaseDate.Format("2006-01-02")
	}

	return resp
}
