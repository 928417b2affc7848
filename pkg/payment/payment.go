package payment

import (
	"context"
	"errors"
	"time"
)

// EventCheckoutCompleted is the only notification type that creates reservations.
const EventCheckoutCompleted = "checkout.session.completed"

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CheckoutRequest struct {
	Currency           string
	UnitAmount         int64 // smallest currency unit, tax included
	Quantity           int64
	ProductName        string
	ProductDescription string
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
	// Metadata is echoed back unmodified in the completion webhook.
	Metadata map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Notification is a verified webhook delivery. Checkout fields are only filled
// for checkout session notifications.
type Notification struct {
	Provider        string
	EventID         string
	Type            string
	SessionID       string
	PaymentIntentID string
	PaymentStatus   string
	AmountTotal     int64 // smallest currency unit, as settled by the provider
	Currency        string
	Metadata        map[string]string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ReceivedAt      time.Time
}

// PaymentID is the provider payment identifier used as the idempotency key.
// Sessions without a payment intent fall back to the session id, which is
// equally stable across redeliveries.
func (n *Notification) PaymentID() string {
	if n.PaymentIntentID != "" {
		return n.PaymentIntentID
	}
	return n.SessionID
}

// Gateway is the payment provider: one synchronous session creation call and
// one asynchronous completion webhook.
type Gateway interface {
	Name() string
	SignatureHeader() string
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies the signature before decoding anything. It returns
	// ErrInvalidSignature (wrapped) when verification fails.
	ParseWebhook(payload []byte, signature string) (*Notification, error)
}
