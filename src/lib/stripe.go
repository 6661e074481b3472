package lib

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PaymentProvider is the slice of the Stripe API the checkout flows use.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

type StripeProvider struct {
	sc *stripe.Client
}

func NewStripeProvider(apiKey string) *StripeProvider {
	return &StripeProvider{sc: stripe.NewClient(apiKey)}
}

// NewStripeProviderWithClient wraps an already configured client, e.g. one
// pointed at stripe-mock.
func NewStripeProviderWithClient(c *stripe.Client) *StripeProvider {
	return &StripeProvider{sc: c}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	return p.sc.V1CheckoutSessions.Create(ctx, params)
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	return p.sc.V1CheckoutSessions.Retrieve(ctx, id, &stripe.CheckoutSessionRetrieveParams{})
}

// IsStripeNotFound reports whether err is Stripe saying the object does not exist.
func IsStripeNotFound(err error) bool {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code == stripe.ErrorCodeResourceMissing || serr.HTTPStatusCode == http.StatusNotFound
}

// VerifyStripeEvent checks the Stripe-Signature header against the endpoint
// secret. Events from a newer API version are still accepted.
func VerifyStripeEvent(payload []byte, signature string, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
