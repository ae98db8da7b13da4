package domain

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// PaymentProvider creates a hosted checkout session for a pending booking.
// Confirmation arrives asynchronously through the provider's webhook.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, booking *Booking, show *Show) (*stripe.CheckoutSession, error)
}
