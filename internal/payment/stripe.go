package payment

import (
	"context"
	"fmt"

	"github.com/quickshow/quickshow/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type StripePaymentProvider struct {
	successURL string
	cancelURL  string
}

func NewStripePaymentProvider(successURL, cancelURL string) *StripePaymentProvider {
	return &StripePaymentProvider{
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	booking *domain.Booking,
	show *domain.Show) (*stripe.CheckoutSession, error) {

	priceCents := show.Price.Mul(decimal.NewFromInt(100)).IntPart()

	movieTitle := show.MovieID
	if show.Movie != nil {
		movieTitle = show.Movie.Title
	}

	var lineItems []*stripe.CheckoutSessionLineItemParams

	for _, seat := range booking.Seats {
		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(priceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("🎬 %s - Seat %s", movieTitle, seat)),
					Description: stripe.String(fmt.Sprintf(
						"Showtime: %s",
						show.StartTime.Format("Jan 2, 2006 15:04"),
					)),
				},
			},
			Quantity: stripe.Int64(1),
		}

		lineItems = append(lineItems, lineItem)
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context: ctx,
		},
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Metadata: map[string]string{
			"booking_id": booking.ID.String(),
			"user_id":    booking.UserID,
		},
		ClientReferenceID: stripe.String(booking.ID.String()),
	}

	return session.New(params)
}
