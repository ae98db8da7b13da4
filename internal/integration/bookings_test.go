package integration_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
)

func (s *IntegrationSuite) TestConcurrentReservesNeverDoubleBook() {
	show := s.seedShow()
	ctx := context.Background()

	const contenders = 16
	seats := []string{"E4", "E5", "E6"}

	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			booking := domain.NewBooking(fmt.Sprintf("user-%d", i), show, seats)
			errs[i] = s.bookingRepo.Create(ctx, booking)
		}(i)
	}

	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}

		var unavailable *domain.SeatsUnavailableError
		s.Require().ErrorAs(err, &unavailable, "losers must get a seat conflict, got: %v", err)
		s.Equal(seats, unavailable.Seats)
	}

	s.Equal(1, winners, "exactly one of the overlapping reserves may succeed")

	holds, err := s.showRepo.GetOccupiedSeats(ctx, show.ID)
	s.Require().NoError(err)
	s.Len(holds, len(seats), "the winner holds each seat exactly once")
}

func (s *IntegrationSuite) TestPartialOverlapReportsOnlyConflictingSeats() {
	show := s.seedShow()
	ctx := context.Background()

	first := domain.NewBooking("user-1", show, []string{"A1", "A2"})
	s.Require().NoError(s.bookingRepo.Create(ctx, first))

	second := domain.NewBooking("user-2", show, []string{"A2", "A3"})
	err := s.bookingRepo.Create(ctx, second)

	var unavailable *domain.SeatsUnavailableError
	s.Require().ErrorAs(err, &unavailable)
	s.Equal([]string{"A2"}, unavailable.Seats)

	// The losing transaction must leave nothing behind, A3 stays free.
	holds, err := s.showRepo.GetOccupiedSeats(ctx, show.ID)
	s.Require().NoError(err)
	s.Len(holds, 2)

	_, err = s.bookingRepo.GetByID(ctx, second.ID)
	s.ErrorIs(err, domain.ErrRecordNotFound, "the rejected booking must not be persisted")
}

func (s *IntegrationSuite) TestBookingLifecycle() {
	show := s.seedShow()
	ctx := context.Background()

	booking := domain.NewBooking("user-1", show, []string{"B1", "B2"})
	s.Require().NoError(s.bookingRepo.Create(ctx, booking))

	s.Require().NoError(s.bookingRepo.SetCheckoutSession(ctx, booking.ID, "cs_test_123"))

	found, err := s.bookingRepo.GetByCheckoutSession(ctx, "cs_test_123")
	s.Require().NoError(err)
	s.Equal(booking.ID, found.ID)

	s.Require().NoError(s.bookingRepo.MarkPaid(ctx, booking.ID))

	paid, err := s.bookingRepo.GetByID(ctx, booking.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusPaid, paid.Status)

	// A second confirmation of the same booking is rejected.
	err = s.bookingRepo.MarkPaid(ctx, booking.ID)
	s.ErrorIs(err, domain.ErrBookingNotPending)

	// Releasing a paid booking is a no-op, the seats stay held.
	s.Require().NoError(s.bookingRepo.ReleaseSeats(ctx, booking.ID, domain.BookingStatusFailed))

	holds, err := s.showRepo.GetOccupiedSeats(ctx, show.ID)
	s.Require().NoError(err)
	s.Len(holds, 2)
}

func (s *IntegrationSuite) TestReleaseFreesSeatsAndIsIdempotent() {
	show := s.seedShow()
	ctx := context.Background()

	booking := domain.NewBooking("user-1", show, []string{"C1"})
	s.Require().NoError(s.bookingRepo.Create(ctx, booking))

	s.Require().NoError(s.bookingRepo.ReleaseSeats(ctx, booking.ID, domain.BookingStatusFailed))

	holds, err := s.showRepo.GetOccupiedSeats(ctx, show.ID)
	s.Require().NoError(err)
	s.Empty(holds)

	released, err := s.bookingRepo.GetByID(ctx, booking.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusFailed, released.Status)

	// Releasing again changes nothing.
	s.Require().NoError(s.bookingRepo.ReleaseSeats(ctx, booking.ID, domain.BookingStatusFailed))

	// The freed seat can be reserved again.
	next := domain.NewBooking("user-2", show, []string{"C1"})
	s.Require().NoError(s.bookingRepo.Create(ctx, next))

	s.ErrorIs(
		s.bookingRepo.ReleaseSeats(ctx, uuid.New(), domain.BookingStatusFailed),
		domain.ErrRecordNotFound,
	)
}

func (s *IntegrationSuite) TestExpireStaleSkipsPaidAndFreshBookings() {
	show := s.seedShow()
	ctx := context.Background()

	stale := domain.NewBooking("user-1", show, []string{"D1"})
	s.Require().NoError(s.bookingRepo.Create(ctx, stale))

	paid := domain.NewBooking("user-2", show, []string{"D2"})
	s.Require().NoError(s.bookingRepo.Create(ctx, paid))
	s.Require().NoError(s.bookingRepo.MarkPaid(ctx, paid.ID))

	// Backdate both so they fall behind the cutoff.
	_, err := s.db.Exec(ctx,
		`UPDATE bookings SET created_at = created_at - interval '1 hour' WHERE id = ANY($1)`,
		[]uuid.UUID{stale.ID, paid.ID},
	)
	s.Require().NoError(err)

	fresh := domain.NewBooking("user-3", show, []string{"D3"})
	s.Require().NoError(s.bookingRepo.Create(ctx, fresh))

	expired, err := s.bookingRepo.ExpireStale(ctx, time.Now().Add(-10*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, expired, "only the stale pending booking expires")

	holds, err := s.showRepo.GetOccupiedSeats(ctx, show.ID)
	s.Require().NoError(err)

	heldSeats := make([]string, len(holds))
	for i, hold := range holds {
		heldSeats[i] = hold.SeatID
	}
	s.Equal([]string{"D2", "D3"}, heldSeats, "paid and fresh bookings keep their seats")

	got, err := s.bookingRepo.GetByID(ctx, stale.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusExpired, got.Status)
}

func (s *IntegrationSuite) TestDashboardCountsPaidOnly() {
	show := s.seedShow()
	ctx := context.Background()

	paid := domain.NewBooking("user-1", show, []string{"A1", "A2"})
	s.Require().NoError(s.bookingRepo.Create(ctx, paid))
	s.Require().NoError(s.bookingRepo.MarkPaid(ctx, paid.ID))

	pending := domain.NewBooking("user-2", show, []string{"A3"})
	s.Require().NoError(s.bookingRepo.Create(ctx, pending))

	data, err := s.bookingRepo.GetDashboardData(ctx)
	s.Require().NoError(err)

	s.Equal(1, data.TotalBookings)
	s.True(data.TotalRevenue.Equal(paid.Amount), "revenue = %s, want %s", data.TotalRevenue, paid.Amount)
	s.Equal(2, data.TotalUsers)
	s.Require().Len(data.ActiveShows, 1)
	s.Equal("Inception", data.ActiveShows[0].Movie.Title)
}

func (s *IntegrationSuite) TestGetByUserReturnsDetails() {
	show := s.seedShow()
	ctx := context.Background()

	booking := domain.NewBooking("user-1", show, []string{"F5"})
	s.Require().NoError(s.bookingRepo.Create(ctx, booking))

	other := domain.NewBooking("user-2", show, []string{"F6"})
	s.Require().NoError(s.bookingRepo.Create(ctx, other))

	details, err := s.bookingRepo.GetByUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(details, 1)

	detail := details[0]
	s.Equal(booking.ID, detail.ID)
	s.Equal("Inception", detail.MovieTitle)
	s.Equal([]string{"F5"}, detail.Seats)
	s.WithinDuration(show.StartTime, detail.ShowStartTime, time.Second)

	all, err := s.bookingRepo.GetAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}
