package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/shopspring/decimal"
)

type PostgresShowRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowRepository(db *pgxpool.Pool) *PostgresShowRepository {
	return &PostgresShowRepository{
		db: db,
	}
}

func (p *PostgresShowRepository) Create(ctx context.Context, shows []*domain.Show) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO shows (id, movie_id, start_time, price)
			VALUES ($1, $2, $3, $4::numeric)
			RETURNING created_at
		`

		for _, show := range shows {
			err := tx.QueryRow(
				ctx,
				query,
				show.ID,
				show.MovieID,
				show.StartTime,
				show.Price.String(),
			).Scan(&show.CreatedAt)

			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
					return domain.ErrDuplicateShow
				}

				return err
			}
		}

		return nil
	})
}

func (p *PostgresShowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Show, error) {
	query := `
		SELECT id, movie_id, start_time, price::text, created_at
		FROM shows
		WHERE id = $1
	`

	show, err := scanShow(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return show, nil
}

func (p *PostgresShowRepository) GetUpcoming(ctx context.Context) ([]*domain.Show, error) {
	query := `
		SELECT
			s.id, s.movie_id, s.start_time, s.price::text, s.created_at,
			m.title, m.overview, m.poster_path, m.backdrop_path, m.genres,
			m.release_date, m.vote_average, m.runtime
		FROM shows s
		JOIN movies m ON s.movie_id = m.id
		WHERE s.start_time >= NOW()
		ORDER BY s.start_time
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shows := make([]*domain.Show, 0)

	for rows.Next() {
		var show domain.Show
		var movie domain.Movie
		var price string
		var release *time.Time

		err := rows.Scan(
			&show.ID,
			&show.MovieID,
			&show.StartTime,
			&price,
			&show.CreatedAt,
			&movie.Title,
			&movie.Overview,
			&movie.PosterPath,
			&movie.BackdropPath,
			&movie.Genres,
			&release,
			&movie.VoteAverage,
			&movie.Runtime,
		)
		if err != nil {
			return nil, err
		}

		show.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, err
		}

		movie.ID = show.MovieID
		if release != nil {
			movie.ReleaseDate = *release
		}
		show.Movie = &movie

		shows = append(shows, &show)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return shows, nil
}

func (p *PostgresShowRepository) GetUpcomingByMovie(ctx context.Context, movieID string) ([]*domain.Show, error) {
	query := `
		SELECT id, movie_id, start_time, price::text, created_at
		FROM shows
		WHERE movie_id = $1 AND start_time >= NOW()
		ORDER BY start_time
	`

	rows, err := p.db.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shows := make([]*domain.Show, 0)

	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, err
		}

		shows = append(shows, show)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return shows, nil
}

func (p *PostgresShowRepository) GetOccupiedSeats(ctx context.Context, showID uuid.UUID) ([]domain.SeatHold, error) {
	query := `
		SELECT seat_id, booking_id
		FROM show_seats
		WHERE show_id = $1
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holds := make([]domain.SeatHold, 0)

	for rows.Next() {
		var hold domain.SeatHold

		err := rows.Scan(&hold.SeatID, &hold.BookingID)
		if err != nil {
			return nil, err
		}

		holds = append(holds, hold)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holds, nil
}

func scanShow(row pgx.Row) (*domain.Show, error) {
	var show domain.Show
	var price string

	err := row.Scan(
		&show.ID,
		&show.MovieID,
		&show.StartTime,
		&price,
		&show.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	show.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}

	return &show, nil
}
