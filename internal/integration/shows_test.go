package integration_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/shopspring/decimal"
)

func (s *IntegrationSuite) TestCreateShowsRejectsDuplicates() {
	show := s.seedShow()
	ctx := context.Background()

	duplicate := &domain.Show{
		ID:        uuid.New(),
		MovieID:   show.MovieID,
		StartTime: show.StartTime,
		Price:     decimal.NewFromInt(20),
	}
	fresh := &domain.Show{
		ID:        uuid.New(),
		MovieID:   show.MovieID,
		StartTime: show.StartTime.Add(3 * time.Hour),
		Price:     decimal.NewFromInt(20),
	}

	err := s.showRepo.Create(ctx, []*domain.Show{fresh, duplicate})
	s.ErrorIs(err, domain.ErrDuplicateShow)

	// The batch is all-or-nothing, the fresh show must not exist either.
	shows, err := s.showRepo.GetUpcomingByMovie(ctx, show.MovieID)
	s.Require().NoError(err)
	s.Len(shows, 1)
}

func (s *IntegrationSuite) TestGetUpcomingPopulatesMovies() {
	show := s.seedShow()
	ctx := context.Background()

	later := &domain.Show{
		ID:        uuid.New(),
		MovieID:   show.MovieID,
		StartTime: show.StartTime.Add(3 * time.Hour),
		Price:     decimal.NewFromInt(18),
	}
	s.Require().NoError(s.showRepo.Create(ctx, []*domain.Show{later}))

	shows, err := s.showRepo.GetUpcoming(ctx)
	s.Require().NoError(err)
	s.Require().Len(shows, 2)

	s.Equal(show.ID, shows[0].ID, "soonest show comes first")
	s.Require().NotNil(shows[0].Movie)
	s.Equal("Inception", shows[0].Movie.Title)
	s.Equal([]domain.Genre{{ID: 878, Name: "Science Fiction"}}, shows[0].Movie.Genres)

	s.True(shows[1].Price.Equal(decimal.NewFromInt(18)))
}

func (s *IntegrationSuite) TestGetByIDRoundTrip() {
	show := s.seedShow()
	ctx := context.Background()

	got, err := s.showRepo.GetByID(ctx, show.ID)
	s.Require().NoError(err)

	s.Equal(show.ID, got.ID)
	s.Equal(show.MovieID, got.MovieID)
	s.WithinDuration(show.StartTime, got.StartTime, time.Second)
	s.True(got.Price.Equal(show.Price))

	_, err = s.showRepo.GetByID(ctx, uuid.New())
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *IntegrationSuite) TestOccupiedSeatsAreOrdered() {
	show := s.seedShow()
	ctx := context.Background()

	booking := domain.NewBooking("user-1", show, []string{"B2", "A1", "J9"})
	s.Require().NoError(s.bookingRepo.Create(ctx, booking))

	holds, err := s.showRepo.GetOccupiedSeats(ctx, show.ID)
	s.Require().NoError(err)

	seats := make([]string, len(holds))
	for i, hold := range holds {
		seats[i] = hold.SeatID
		s.Equal(booking.ID, hold.BookingID)
	}

	s.Equal([]string{"A1", "B2", "J9"}, seats)
}

func (s *IntegrationSuite) TestMovieRoundTrip() {
	ctx := context.Background()

	movie := &domain.Movie{
		ID:               "438631",
		Title:            "Dune",
		Overview:         "Paul Atreides leads nomadic tribes.",
		PosterPath:       "/dune.jpg",
		Genres:           []domain.Genre{{ID: 878, Name: "Science Fiction"}, {ID: 12, Name: "Adventure"}},
		Casts:            []domain.CastMember{{Name: "Timothée Chalamet", ProfilePath: "/tc.jpg", Order: 0}},
		ReleaseDate:      time.Date(2021, 9, 15, 0, 0, 0, 0, time.UTC),
		OriginalLanguage: "en",
		VoteAverage:      7.8,
		Runtime:          155,
	}

	s.Require().NoError(s.movieRepo.Create(ctx, movie))

	// Creating the same movie again is a no-op, not an error.
	s.Require().NoError(s.movieRepo.Create(ctx, movie))

	got, err := s.movieRepo.GetByID(ctx, movie.ID)
	s.Require().NoError(err)

	s.Equal(movie.Title, got.Title)
	s.Equal(movie.Genres, got.Genres)
	s.Equal(movie.Casts, got.Casts)
	s.WithinDuration(movie.ReleaseDate, got.ReleaseDate, time.Second)

	_, err = s.movieRepo.GetByID(ctx, "missing")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

// NewBooking derives the amount from the show price.
func (s *IntegrationSuite) TestBookingAmountDerivation() {
	show := s.seedShow()

	booking := domain.NewBooking("user-1", show, []string{"A1", "A2", "A3"})
	s.True(booking.Amount.Equal(decimal.NewFromInt(45)))
}
