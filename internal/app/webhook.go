package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeWebhookHandler processes payment lifecycle notifications. Checkouts
// confirm the booking once the session is paid; expired or failed ones
// release its seats. Handlers are idempotent, Stripe retries deliveries.
func (app *Application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 65536))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), app.config.Stripe.WebhookSecret, opts)
	if err != nil {
		app.logger.Error("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var session stripe.CheckoutSession
		err = json.Unmarshal(event.Data.Raw, &session)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		err = app.handleCheckoutCompleted(r.Context(), &session)

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		var session stripe.CheckoutSession
		err = json.Unmarshal(event.Data.Raw, &session)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		err = app.handleCheckoutAbandoned(r.Context(), &session)

	default:
		app.logger.Info("ignoring webhook event", "type", event.Type)
	}

	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (app *Application) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	bookingID, err := bookingIDFromSession(session)
	if err != nil {
		return err
	}

	// Delayed payment methods complete the session before funds clear.
	// Leave the booking pending; a later async_payment_succeeded or
	// async_payment_failed delivery settles it.
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		app.logger.Info(
			"checkout completed, awaiting payment",
			"booking_id", bookingID,
			"payment_status", session.PaymentStatus,
		)
		return nil
	}

	err = app.engine.Confirm(ctx, bookingID)
	if err != nil {
		// Retried deliveries find the booking already paid.
		if errors.Is(err, domain.ErrBookingNotPending) {
			app.logger.Info("booking already settled", "booking_id", bookingID)
			return nil
		}
		return err
	}

	app.logger.Info("booking confirmed", "booking_id", bookingID)

	detail, err := app.bookingDetail(ctx, bookingID)
	if err != nil {
		app.logger.Error("failed to load confirmed booking", "booking_id", bookingID, "error", err)
		return nil
	}

	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		app.sendConfirmationMail(session.CustomerDetails.Email, detail)
	}

	app.publishEvent(domain.Event{
		Name: domain.EventBookingConfirmed,
		Data: map[string]any{
			"bookingId":  bookingID.String(),
			"userId":     detail.UserID,
			"movieTitle": detail.MovieTitle,
			"seats":      detail.Seats,
			"amount":     detail.Amount.String(),
		},
	})

	return nil
}

func (app *Application) handleCheckoutAbandoned(ctx context.Context, session *stripe.CheckoutSession) error {
	bookingID, err := bookingIDFromSession(session)
	if err != nil {
		return err
	}

	err = app.engine.Release(ctx, bookingID)
	if err != nil {
		return err
	}

	app.logger.Info("booking released after abandoned checkout", "booking_id", bookingID)

	return nil
}

func (app *Application) bookingDetail(ctx context.Context, bookingID uuid.UUID) (*domain.BookingDetail, error) {
	booking, err := app.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	show, err := app.showRepo.GetByID(ctx, booking.ShowID)
	if err != nil {
		return nil, err
	}

	detail := &domain.BookingDetail{
		Booking:       *booking,
		ShowStartTime: show.StartTime,
	}

	if show.Movie == nil {
		movie, err := app.movieRepo.GetByID(ctx, show.MovieID)
		if err != nil {
			return nil, err
		}
		show.Movie = movie
	}

	detail.MovieTitle = show.Movie.Title
	detail.PosterPath = show.Movie.PosterPath

	return detail, nil
}

func (app *Application) sendConfirmationMail(recipient string, detail *domain.BookingDetail) {
	app.background(func() {
		data := map[string]any{
			"MovieTitle": detail.MovieTitle,
			"ShowTime":   detail.ShowStartTime.Format("Monday, Jan 2 2006 at 15:04"),
			"Seats":      strings.Join(detail.Seats, ", "),
			"BookingID":  detail.ID.String(),
			"Amount":     detail.Amount.StringFixed(2),
		}

		err := app.mailer.Send(recipient, "booking_confirmation.tmpl", data)
		if err != nil {
			app.logger.Error("failed to send confirmation mail", "booking_id", detail.ID, "error", err)
		}
	})
}

func bookingIDFromSession(session *stripe.CheckoutSession) (uuid.UUID, error) {
	ref := session.ClientReferenceID
	if ref == "" {
		ref = session.Metadata["booking_id"]
	}

	bookingID, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, errors.New("checkout session carries no booking reference")
	}

	return bookingID, nil
}
