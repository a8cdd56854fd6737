// Package payment adapts the Stripe API to the engine's opaque
// PaymentGateway capability. The engine only ever sees the payment
// intent id and never parses provider responses itself.
package payment

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/refund"
)

// StripeGateway implements engine.PaymentGateway against the Stripe
// PaymentIntents API. The zero value is unusable; construct with
// NewStripeGateway.
type StripeGateway struct {
	currency string
}

// NewStripeGateway configures the Stripe SDK with the given secret key
// and returns a gateway charging in the given ISO currency code
// (defaults to usd).
func NewStripeGateway(apiKey, currency string) *StripeGateway {
	stripe.Key = apiKey
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{currency: currency}
}

// Authorize creates a payment intent for the booking's amount and
// returns its id as the opaque payment reference. The booking id is
// attached as metadata so provider-side records correlate back to the
// platform. Requests carry a fresh idempotency key; retried engine
// calls create new intents rather than replaying stale ones.
func (g *StripeGateway) Authorize(ctx context.Context, bookingID uint64, amountCents int64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", strconv.FormatUint(bookingID, 10))
	params.SetIdempotencyKey(uuid.NewString())
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// Refund returns amountCents against the payment intent identified by
// paymentRef.
func (g *StripeGateway) Refund(ctx context.Context, paymentRef string, amountCents int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	_, err := refund.New(params)
	return err
}
