package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/internal/repository"
	"github.com/Eursukkul/event-checkout/pkg/payment"
	"gorm.io/gorm"
)

var (
	ErrEventNotAvailable  = errors.New("event not available")
	ErrTicketNotAvailable = errors.New("ticket not available")
	ErrSalesClosed        = errors.New("ticket sales are closed")
	ErrQuantityOutOfRange = errors.New("quantity outside the allowed range for this ticket")
	ErrNotEnoughTickets   = errors.New("not enough tickets available")
	ErrGatewayUnavailable = errors.New("payment provider unavailable")
)

type CheckoutInput struct {
	EventID  uint
	TicketID uint
	Quantity int
	Name     string
	Email    string
	Phone    string
	Notes    string
}

type CheckoutResult struct {
	URL       string
	SessionID string
}

type CheckoutOptions struct {
	Currency      string
	PublicBaseURL string
	Timeout       time.Duration
}

type CheckoutService interface {
	CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
}

type checkoutService struct {
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	gateway    payment.Gateway
	opts       CheckoutOptions
	now        func() time.Time
}

func NewCheckoutService(eventRepo repository.EventRepository, ticketRepo repository.TicketRepository, gateway payment.Gateway, opts CheckoutOptions) CheckoutService {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &checkoutService{
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		gateway:    gateway,
		opts:       opts,
		now:        time.Now,
	}
}

// CreateCheckout validates the intent against the catalog and opens a hosted
// payment session. Nothing is written locally: the intent travels in the
// session metadata and is only persisted when the completion webhook arrives.
func (s *checkoutService) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	event, err := s.eventRepo.FindByID(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotAvailable
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !event.Purchasable() {
		return nil, ErrEventNotAvailable
	}

	ticket, err := s.ticketRepo.FindByID(ctx, in.TicketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotAvailable
		}
		return nil, fmt.Errorf("load ticket: %w", err)
	}
	if !ticket.IsActive || ticket.EventID != event.ID {
		return nil, ErrTicketNotAvailable
	}

	if err := s.checkOrderRules(ticket, in.Quantity); err != nil {
		return nil, err
	}
	if !HasCapacityFor(ticket, in.Quantity) {
		return nil, ErrNotEnoughTickets
	}

	quote, err := ComputePrice(ticket.Price, in.Quantity)
	if err != nil {
		return nil, err
	}

	req := payment.CheckoutRequest{
		Currency:           s.opts.Currency,
		UnitAmount:         quote.UnitAmountMinor,
		Quantity:           int64(in.Quantity),
		ProductName:        fmt.Sprintf("%s – %s", event.Title, ticket.Name),
		ProductDescription: productDescription(event, quote),
		CustomerEmail:      in.Email,
		SuccessURL:         s.opts.PublicBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          s.opts.PublicBaseURL + "/checkout/cancel",
		Metadata: map[string]string{
			"eventId":  strconv.FormatUint(uint64(event.ID), 10),
			"ticketId": strconv.FormatUint(uint64(ticket.ID), 10),
			"qty":      strconv.Itoa(in.Quantity),
			"subtotal": quote.Subtotal.StringFixed(2),
			"tax":      quote.Tax.StringFixed(2),
			"total":    quote.Total.StringFixed(2),
			"name":     in.Name,
			"email":    in.Email,
			"phone":    in.Phone,
			"notes":    in.Notes,
		},
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	session, err := s.gateway.CreateCheckoutSession(gwCtx, req)
	if err != nil {
		log.Printf("[Checkout] create session for event %d ticket %d failed: %v", event.ID, ticket.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	log.Printf("[Checkout] session %s: event %d ticket %d qty %d total %s", session.ID, event.ID, ticket.ID, in.Quantity, quote.Total.StringFixed(2))
	return &CheckoutResult{URL: session.URL, SessionID: session.ID}, nil
}

func (s *checkoutService) checkOrderRules(t *models.Ticket, qty int) error {
	now := s.now()
	if t.SalesStart != nil && now.Before(*t.SalesStart) {
		return ErrSalesClosed
	}
	if t.SalesEnd != nil && now.After(*t.SalesEnd) {
		return ErrSalesClosed
	}
	if t.MinPerOrder != nil && qty < *t.MinPerOrder {
		return ErrQuantityOutOfRange
	}
	if t.MaxPerOrder != nil && qty > *t.MaxPerOrder {
		return ErrQuantityOutOfRange
	}
	return nil
}

func productDescription(event *models.Event, q Quote) string {
	rate := TaxRate.Mul(hundred).String()
	if event.Subtitle != nil && *event.Subtitle != "" {
		return fmt.Sprintf("%s (incl. %s%% tax)", *event.Subtitle, rate)
	}
	return fmt.Sprintf("Includes %s%% tax (%s total)", rate, q.Tax.StringFixed(2))
}
