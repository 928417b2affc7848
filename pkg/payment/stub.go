package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// StubGateway is a provider for local development: sessions point at the
// site's own success page and webhooks are JSON bodies signed with a hex
// HMAC-SHA256 of the body.
type StubGateway struct {
	secret  string
	baseURL string
}

func NewStubGateway(secret, baseURL string) *StubGateway {
	return &StubGateway{secret: secret, baseURL: baseURL}
}

func (g *StubGateway) Name() string { return "stub" }

func (g *StubGateway) SignatureHeader() string { return "X-Webhook-Signature" }

func (g *StubGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := "stub_cs_" + uuid.NewString()
	return &CheckoutSession{
		ID:  id,
		URL: fmt.Sprintf("%s/checkout/success?session_id=%s", g.baseURL, url.QueryEscape(id)),
	}, nil
}

// StubEvent is the webhook body understood by StubGateway.
type StubEvent struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	SessionID     string            `json:"session_id"`
	PaymentIntent string            `json:"payment_intent"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
	Customer      struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customer_details"`
}

// Sign returns the signature header value for payload.
func (g *StubGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *StubGateway) ParseWebhook(payload []byte, signature string) (*Notification, error) {
	if signature == "" || !hmac.Equal([]byte(signature), []byte(g.Sign(payload))) {
		return nil, ErrInvalidSignature
	}
	var ev StubEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrInvalidSignature, err)
	}
	return &Notification{
		Provider:        g.Name(),
		EventID:         ev.ID,
		Type:            ev.Type,
		SessionID:       ev.SessionID,
		PaymentIntentID: ev.PaymentIntent,
		PaymentStatus:   ev.PaymentStatus,
		AmountTotal:     ev.AmountTotal,
		Currency:        ev.Currency,
		Metadata:        ev.Metadata,
		CustomerName:    ev.Customer.Name,
		CustomerEmail:   ev.Customer.Email,
		CustomerPhone:   ev.Customer.Phone,
		ReceivedAt:      time.Now(),
	}, nil
}
