package mocks

import (
	"context"

	"github.com/quickshow/quickshow/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
)

type MockPaymentProvider struct {
	mock.Mock
	domain.PaymentProvider
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	booking *domain.Booking,
	show *domain.Show) (*stripe.CheckoutSession, error) {

	args := m.Called(ctx, booking, show)
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}
