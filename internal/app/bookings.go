package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/shopspring/decimal"
)

type OccupiedSeatsResponse struct {
	ShowId        uuid.UUID `json:"showId"`
	OccupiedSeats []string  `json:"occupiedSeats"`
}

type CreateBookingRequest struct {
	ShowId        uuid.UUID `json:"showId" validate:"required"`
	SelectedSeats []string  `json:"selectedSeats" validate:"required,min=1"`
}

type CreateBookingResponse struct {
	BookingId   uuid.UUID `json:"bookingId"`
	RedirectUrl string    `json:"redirectUrl"`
}

type BookingResponse struct {
	Id            uuid.UUID       `json:"id"`
	ShowId        uuid.UUID       `json:"showId"`
	MovieTitle    string          `json:"movieTitle"`
	PosterPath    string          `json:"posterPath,omitempty"`
	ShowStartTime time.Time       `json:"showStartTime"`
	Seats         []string        `json:"seats"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// GetOccupiedSeats returns the seat IDs currently held for a show, so clients
// can render the seat map.
func (app *Application) GetOccupiedSeats(w http.ResponseWriter, r *http.Request) {
	showID, err := uuid.Parse(chi.URLParam(r, "showId"))
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	occupied, err := app.engine.GetAvailability(r.Context(), showID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := OccupiedSeatsResponse{
		ShowId:        showID,
		OccupiedSeats: occupied,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// CreateBooking reserves the selected seats and returns the payment redirect
// URL. The seats stay held while the booking is pending; if checkout cannot
// be started they are released immediately.
func (app *Application) CreateBooking(w http.ResponseWriter, r *http.Request) {
	identity, _ := app.contextGetIdentity(r)

	var req CreateBookingRequest

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

	booking, err := app.engine.Reserve(r.Context(), req.ShowId, req.SelectedSeats, identity.UserID)
	if err != nil {
		app.reservationErrorResponse(w, r, err)
		return
	}

	checkoutSession, err := app.paymentProvider.CreateCheckoutSession(r.Context(), booking, booking.Show)
	if err != nil {
		app.releaseBooking(booking.ID)
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.bookingRepo.SetCheckoutSession(r.Context(), booking.ID, checkoutSession.ID)
	if err != nil {
		app.releaseBooking(booking.ID)
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := CreateBookingResponse{
		BookingId:   booking.ID,
		RedirectUrl: checkoutSession.URL,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ListMyBookings returns the caller's bookings, newest first.
func (app *Application) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	identity, _ := app.contextGetIdentity(r)

	bookings, err := app.bookingRepo.GetByUser(r.Context(), identity.UserID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		resp = append(resp, toBookingResponse(booking))
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// reservationErrorResponse maps the engine's rejection reasons onto their
// response codes.
func (app *Application) reservationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var unavailable *domain.SeatsUnavailableError
	var invalid *domain.InvalidSeatsError

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrShowInPast):
		app.showInPastResponse(w, r)
	case errors.Is(err, domain.ErrNoSeatsSelected):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, domain.ErrTooManySeats):
		app.tooManySeatsResponse(w, r, err.Error())
	case errors.As(err, &unavailable):
		app.seatsUnavailableResponse(w, r, unavailable.Seats)
	case errors.As(err, &invalid):
		app.badRequestResponse(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// releaseBooking frees a booking's seats after checkout could not be started.
// Runs in the background so the error response is not delayed.
func (app *Application) releaseBooking(bookingID uuid.UUID) {
	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := app.engine.Release(ctx, bookingID)
		if err != nil {
			app.logger.Error("failed to release booking", "booking_id", bookingID, "error", err)
		}
	})
}

func toBookingResponse(detail *domain.BookingDetail) BookingResponse {
	return BookingResponse{
		Id:            detail.ID,
		ShowId:        detail.ShowID,
		MovieTitle:    detail.MovieTitle,
		PosterPath:    detail.PosterPath,
		ShowStartTime: detail.ShowStartTime,
		Seats:         detail.Seats,
		Amount:        detail.Amount,
		Status:        string(detail.Status),
		CreatedAt:     detail.CreatedAt,
	}
}
