package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/shopspring/decimal"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// Create inserts the booking and claims its seats in one transaction. The
// primary key of show_seats is the only arbiter of seat ownership: a
// concurrent transaction inserting an overlapping seat blocks until this one
// commits and then takes the conflict path. This replaces the unguarded
// read-then-write the booking flow is often implemented with; the check and
// the commit are a single atomic statement here.
func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (id, user_id, show_id, seats, amount, status)
			VALUES ($1, $2, $3, $4, $5::numeric, $6)
			RETURNING created_at, updated_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			booking.ID,
			booking.UserID,
			booking.ShowID,
			booking.Seats,
			booking.Amount.String(),
			booking.Status,
		).Scan(&booking.CreatedAt, &booking.UpdatedAt)

		if err != nil {
			return err
		}

		query = `
			INSERT INTO show_seats (show_id, seat_id, booking_id)
			SELECT $1, unnest($2::text[]), $3
			ON CONFLICT (show_id, seat_id) DO NOTHING
		`

		tag, err := tx.Exec(ctx, query, booking.ShowID, booking.Seats, booking.ID)
		if err != nil {
			return err
		}

		if int(tag.RowsAffected()) == len(booking.Seats) {
			return nil
		}

		// Some seats were already held. Collect them for the rejection and
		// roll the whole transaction back.
		conflictQuery := `
			SELECT seat_id
			FROM show_seats
			WHERE show_id = $1 AND seat_id = ANY($2::text[]) AND booking_id <> $3
			ORDER BY seat_id
		`

		rows, err := tx.Query(ctx, conflictQuery, booking.ShowID, booking.Seats, booking.ID)
		if err != nil {
			return err
		}
		defer rows.Close()

		conflicting := make([]string, 0)

		for rows.Next() {
			var seatID string

			if err := rows.Scan(&seatID); err != nil {
				return err
			}

			conflicting = append(conflicting, seatID)
		}

		if err = rows.Err(); err != nil {
			return err
		}

		return &domain.SeatsUnavailableError{Seats: conflicting}
	})
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `
		SELECT id, user_id, show_id, seats, amount::text, status, checkout_session_id, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	return scanBooking(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresBookingRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Booking, error) {
	query := `
		SELECT id, user_id, show_id, seats, amount::text, status, checkout_session_id, created_at, updated_at
		FROM bookings
		WHERE checkout_session_id = $1
	`

	return scanBooking(p.db.QueryRow(ctx, query, sessionID))
}

func (p *PostgresBookingRepository) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	query := `
		UPDATE bookings
		SET checkout_session_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	tag, err := p.db.Exec(ctx, query, sessionID, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresBookingRepository) MarkPaid(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = 'paid', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	_, err = p.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return domain.ErrBookingNotPending
}

func (p *PostgresBookingRepository) ReleaseSeats(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings
			SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
		`

		tag, err := tx.Exec(ctx, query, id, status)
		if err != nil {
			return err
		}

		// Already paid or already released: nothing to free. The status
		// guard above is what makes release idempotent and keeps the sweep
		// from clawing back seats of a booking that just got paid.
		if tag.RowsAffected() == 0 {
			var exists bool

			err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
			if err != nil {
				return err
			}

			if !exists {
				return domain.ErrRecordNotFound
			}

			return nil
		}

		_, err = tx.Exec(ctx, `DELETE FROM show_seats WHERE booking_id = $1`, id)

		return err
	})
}

func (p *PostgresBookingRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	expired := 0

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings
			SET status = 'expired', updated_at = NOW()
			WHERE status = 'pending' AND created_at < $1
			RETURNING id
		`

		rows, err := tx.Query(ctx, query, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()

		ids := make([]uuid.UUID, 0)

		for rows.Next() {
			var id uuid.UUID

			if err := rows.Scan(&id); err != nil {
				return err
			}

			ids = append(ids, id)
		}

		if err = rows.Err(); err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `DELETE FROM show_seats WHERE booking_id = ANY($1)`, ids)
		if err != nil {
			return err
		}

		expired = len(ids)

		return nil
	})

	return expired, err
}

func (p *PostgresBookingRepository) GetByUser(ctx context.Context, userID string) ([]*domain.BookingDetail, error) {
	query := `
		SELECT
			b.id, b.user_id, b.show_id, b.seats, b.amount::text, b.status,
			b.checkout_session_id, b.created_at, b.updated_at,
			m.title, m.poster_path, s.start_time
		FROM bookings b
		JOIN shows s ON b.show_id = s.id
		JOIN movies m ON s.movie_id = m.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`

	return p.queryBookingDetails(ctx, query, userID)
}

func (p *PostgresBookingRepository) GetAll(ctx context.Context) ([]*domain.BookingDetail, error) {
	query := `
		SELECT
			b.id, b.user_id, b.show_id, b.seats, b.amount::text, b.status,
			b.checkout_session_id, b.created_at, b.updated_at,
			m.title, m.poster_path, s.start_time
		FROM bookings b
		JOIN shows s ON b.show_id = s.id
		JOIN movies m ON s.movie_id = m.id
		ORDER BY b.created_at DESC
	`

	return p.queryBookingDetails(ctx, query)
}

func (p *PostgresBookingRepository) GetDashboardData(ctx context.Context) (*domain.DashboardData, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'paid'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0)::text,
			COUNT(DISTINCT user_id)
		FROM bookings
	`

	var data domain.DashboardData
	var revenue string

	err := p.db.QueryRow(ctx, query).Scan(&data.TotalBookings, &revenue, &data.TotalUsers)
	if err != nil {
		return nil, err
	}

	data.TotalRevenue, err = decimal.NewFromString(revenue)
	if err != nil {
		return nil, err
	}

	showsQuery := `
		SELECT s.id, s.movie_id, s.start_time, s.price::text, m.title
		FROM shows s
		JOIN movies m ON s.movie_id = m.id
		WHERE s.start_time > NOW()
		ORDER BY s.start_time
	`

	rows, err := p.db.Query(ctx, showsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data.ActiveShows = make([]*domain.Show, 0)

	for rows.Next() {
		var show domain.Show
		var price string
		var title string

		err := rows.Scan(&show.ID, &show.MovieID, &show.StartTime, &price, &title)
		if err != nil {
			return nil, err
		}

		show.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, err
		}

		show.Movie = &domain.Movie{ID: show.MovieID, Title: title}

		data.ActiveShows = append(data.ActiveShows, &show)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return &data, nil
}

func (p *PostgresBookingRepository) queryBookingDetails(ctx context.Context, query string, args ...any) ([]*domain.BookingDetail, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]*domain.BookingDetail, 0)

	for rows.Next() {
		var detail domain.BookingDetail
		var amount string

		err := rows.Scan(
			&detail.ID,
			&detail.UserID,
			&detail.ShowID,
			&detail.Seats,
			&amount,
			&detail.Status,
			&detail.CheckoutSessionID,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.MovieTitle,
			&detail.PosterPath,
			&detail.ShowStartTime,
		)
		if err != nil {
			return nil, err
		}

		detail.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}

		details = append(details, &detail)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return details, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var booking domain.Booking
	var amount string

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ShowID,
		&booking.Seats,
		&amount,
		&booking.Status,
		&booking.CheckoutSessionID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	booking.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
