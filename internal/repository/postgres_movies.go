package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickshow/quickshow/internal/domain"
)

type PostgresMovieRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMovieRepository(db *pgxpool.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{
		db: db,
	}
}

// Create caches a movie fetched from the catalog. Movies are immutable, so a
// concurrent insert of the same movie is not an error.
func (p *PostgresMovieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	genres, err := json.Marshal(movie.Genres)
	if err != nil {
		return err
	}

	casts, err := json.Marshal(movie.Casts)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO movies (
			id,
			title,
			overview,
			poster_path,
			backdrop_path,
			genres,
			casts,
			release_date,
			original_language,
			tagline,
			vote_average,
			runtime
		)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	var releaseDate *time.Time
	if !movie.ReleaseDate.IsZero() {
		releaseDate = &movie.ReleaseDate
	}

	_, err = p.db.Exec(
		ctx,
		query,
		movie.ID,
		movie.Title,
		movie.Overview,
		movie.PosterPath,
		movie.BackdropPath,
		string(genres),
		string(casts),
		releaseDate,
		movie.OriginalLanguage,
		movie.Tagline,
		movie.VoteAverage,
		movie.Runtime,
	)

	return err
}

func (p *PostgresMovieRepository) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	query := `
		SELECT
			id,
			title,
			overview,
			poster_path,
			backdrop_path,
			genres,
			casts,
			release_date,
			original_language,
			tagline,
			vote_average,
			runtime,
			created_at
		FROM movies
		WHERE id = $1
	`

	var movie domain.Movie
	var releaseDate *time.Time

	err := p.db.QueryRow(ctx, query, id).Scan(
		&movie.ID,
		&movie.Title,
		&movie.Overview,
		&movie.PosterPath,
		&movie.BackdropPath,
		&movie.Genres,
		&movie.Casts,
		&releaseDate,
		&movie.OriginalLanguage,
		&movie.Tagline,
		&movie.VoteAverage,
		&movie.Runtime,
		&movie.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	if releaseDate != nil {
		movie.ReleaseDate = *releaseDate
	}

	return &movie, nil
}
