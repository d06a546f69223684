// Package payment abstracts the hosted-checkout provider so the checkout and
// webhook services can be exercised against a fake in tests.
package payment

import "context"

// Event types the webhook flow reacts to; everything else is acknowledged
// and ignored so the provider does not retry.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentSucceeded  = "payment_intent.succeeded"
	EventPaymentFailed     = "payment_intent.payment_failed"
	EventChargeRefunded    = "charge.refunded"
)

// LineItem is a single product+quantity entry in a checkout session request.
// UnitAmount is in minor currency units (cents).
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
	ImageURL    string
}

type CheckoutSessionInput struct {
	OrderID       string
	OrderNumber   string
	CustomerEmail string
	LineItems     []LineItem
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a provider callback reduced to the fields the order workflow
// needs. OrderID is only set for checkout-completed events (from session
// metadata); PaymentIntentID is set whenever the provider supplied one.
type Event struct {
	ID              string
	Type            string
	OrderID         string
	PaymentIntentID string
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	// ParseEvent verifies the webhook signature before any parsing and
	// returns an error on a missing or invalid signature.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
