package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/internal/repository"
	"github.com/Eursukkul/event-checkout/pkg/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	fallbackName  = "Unknown user"
	fallbackEmail = "unknown@example.com"
	fallbackNotes = "Created via online payment"
)

var errCapacityExceeded = errors.New("capacity exceeded")

// Result is what happened to one verified webhook delivery. Every outcome is
// acknowledged to the provider.
type Result struct {
	Outcome       models.WebhookOutcome
	ReservationID *uint
	TicketID      uint
	Quantity      int
	Detail        string
}

// Publisher is the outbound side of the outcome audit trail.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type ReconcileService interface {
	Reconcile(ctx context.Context, n *payment.Notification) Result
}

type reconcileService struct {
	reservationRepo repository.ReservationRepository
	paymentRepo     repository.PaymentRepository
	ticketRepo      repository.TicketRepository
	publisher       Publisher
}

// NewReconcileService wires the reconciler. publisher may be nil, in which
// case outcomes are only logged.
func NewReconcileService(
	reservationRepo repository.ReservationRepository,
	paymentRepo repository.PaymentRepository,
	ticketRepo repository.TicketRepository,
	publisher Publisher,
) ReconcileService {
	return &reconcileService{
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
		ticketRepo:      ticketRepo,
		publisher:       publisher,
	}
}

func (s *reconcileService) Reconcile(ctx context.Context, n *payment.Notification) Result {
	res := s.reconcile(ctx, n)
	s.publish(ctx, n, res)
	return res
}

type checkoutMetadata struct {
	EventID  uint
	TicketID uint
	Quantity int
}

func parseCheckoutMetadata(md map[string]string) (checkoutMetadata, error) {
	var m checkoutMetadata
	eventID, err := positiveInt(md["eventId"])
	if err != nil {
		return m, fmt.Errorf("eventId: %w", err)
	}
	ticketID, err := positiveInt(md["ticketId"])
	if err != nil {
		return m, fmt.Errorf("ticketId: %w", err)
	}
	qty, err := positiveInt(md["qty"])
	if err != nil {
		return m, fmt.Errorf("qty: %w", err)
	}
	m.EventID = uint(eventID)
	m.TicketID = uint(ticketID)
	m.Quantity = qty
	return m, nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("not positive: %d", n)
	}
	return n, nil
}

func (s *reconcileService) reconcile(ctx context.Context, n *payment.Notification) Result {
	if n.Type != payment.EventCheckoutCompleted {
		log.Printf("[Reconciler] ignoring %s event %s", n.Type, n.EventID)
		return Result{Outcome: models.OutcomeIgnored, Detail: "event type " + n.Type}
	}
	if n.PaymentStatus == "unpaid" {
		log.Printf("[Reconciler] ignoring unpaid session %s", n.SessionID)
		return Result{Outcome: models.OutcomeIgnored, Detail: "session not paid"}
	}

	meta, err := parseCheckoutMetadata(n.Metadata)
	if err != nil {
		log.Printf("[Reconciler] session %s: malformed metadata: %v", n.SessionID, err)
		return Result{Outcome: models.OutcomeMalformed, Detail: err.Error()}
	}
	res := Result{TicketID: meta.TicketID, Quantity: meta.Quantity}

	paymentID := n.PaymentID()
	if paymentID == "" {
		log.Printf("[Reconciler] event %s: no payment identifier", n.EventID)
		res.Outcome, res.Detail = models.OutcomeMalformed, "missing payment identifier"
		return res
	}

	if existing, err := s.paymentRepo.FindByProviderPaymentID(ctx, paymentID); err == nil {
		log.Printf("[Reconciler] payment %s already processed", paymentID)
		res.Outcome, res.ReservationID, res.Detail = models.OutcomeDuplicate, existing.ReservationID, "already processed"
		return res
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[Reconciler] payment %s: lookup failed: %v", paymentID, err)
		res.Outcome, res.Detail = models.OutcomeFailed, err.Error()
		return res
	}

	ticket, err := s.ticketRepo.FindByID(ctx, meta.TicketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Reconciler] payment %s: ticket %d not found", paymentID, meta.TicketID)
			res.Outcome, res.Detail = models.OutcomeTicketMissing, fmt.Sprintf("ticket %d not found", meta.TicketID)
			return res
		}
		log.Printf("[Reconciler] payment %s: load ticket %d: %v", paymentID, meta.TicketID, err)
		res.Outcome, res.Detail = models.OutcomeFailed, err.Error()
		return res
	}

	if !HasCapacityFor(ticket, meta.Quantity) {
		remaining, _ := Remaining(ticket)
		res.Outcome = models.OutcomeOverCapacity
		res.Detail = fmt.Sprintf("qty %d exceeds remaining %d", meta.Quantity, remaining)
		log.Printf("[Reconciler] OVER CAPACITY payment %s ticket %d: %s; manual refund or capacity adjustment required", paymentID, ticket.ID, res.Detail)
		return res
	}

	reservationID, err := s.record(ctx, n, meta, ticket, paymentID)
	switch {
	case err == nil:
		log.Printf("[Reconciler] payment %s: reservation %d confirmed, ticket %d +%d", paymentID, reservationID, ticket.ID, meta.Quantity)
		res.Outcome, res.ReservationID = models.OutcomeProcessed, &reservationID
	case errors.Is(err, repository.ErrDuplicatePayment):
		log.Printf("[Reconciler] payment %s already processed by a concurrent delivery", paymentID)
		res.Outcome, res.Detail = models.OutcomeDuplicate, "already processed"
	case errors.Is(err, errCapacityExceeded):
		if _, ferr := s.paymentRepo.FindByProviderPaymentID(ctx, paymentID); ferr == nil {
			res.Outcome, res.Detail = models.OutcomeDuplicate, "already processed"
			return res
		}
		res.Outcome = models.OutcomeOverCapacity
		res.Detail = fmt.Sprintf("qty %d no longer fits ticket %d", meta.Quantity, ticket.ID)
		log.Printf("[Reconciler] OVER CAPACITY payment %s: %s; manual refund or capacity adjustment required", paymentID, res.Detail)
	default:
		log.Printf("[Reconciler] payment %s: write failed: %v", paymentID, err)
		res.Outcome, res.Detail = models.OutcomeFailed, err.Error()
	}
	return res
}

// record writes reservation, payment, sold increment and ticket line as one
// transaction. The payment insert comes before the increment so that a
// concurrent redelivery blocks on the unique index instead of consuming
// capacity.
func (s *reconcileService) record(ctx context.Context, n *payment.Notification, meta checkoutMetadata, ticket *models.Ticket, paymentID string) (uint, error) {
	md := n.Metadata
	total := FromMinorUnits(n.AmountTotal)
	unitPrice := ticket.Price
	if subtotal, err := ParsePrice(md["subtotal"]); err == nil {
		unitPrice = subtotal.Div(decimal.NewFromInt(int64(meta.Quantity))).Round(2)
	}
	currency := strings.ToUpper(n.Currency)
	if currency == "" {
		currency = "USD"
	}
	notes := firstNonEmpty(md["notes"], fallbackNotes)
	description := fmt.Sprintf("%s Checkout – %s", providerTitle(n.Provider), ticket.Name)

	var reservationID uint
	err := s.reservationRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation := &models.Reservation{
			EventID:   &meta.EventID,
			Name:      firstNonEmpty(md["name"], n.CustomerName, fallbackName),
			Email:     firstNonEmpty(md["email"], n.CustomerEmail, fallbackEmail),
			Phone:     firstNonEmpty(md["phone"], n.CustomerPhone),
			PartySize: meta.Quantity,
			Notes:     &notes,
			Status:    models.ReservationConfirmed,
		}
		if err := s.reservationRepo.Create(ctx, tx, reservation); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		p := &models.Payment{
			ReservationID:     &reservation.ID,
			EventID:           &meta.EventID,
			Amount:            total,
			Currency:          currency,
			Status:            models.PaymentSucceeded,
			Provider:          n.Provider,
			ProviderPaymentID: &paymentID,
			Source:            "online",
			Description:       &description,
		}
		if err := s.paymentRepo.Create(ctx, tx, p); err != nil {
			return err
		}

		ok, err := s.ticketRepo.IncrementSold(ctx, tx, ticket.ID, meta.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return errCapacityExceeded
		}

		line := &models.ReservationTicket{
			ReservationID: reservation.ID,
			TicketID:      ticket.ID,
			Quantity:      meta.Quantity,
			UnitPrice:     unitPrice,
			TotalPrice:    total,
		}
		if err := s.reservationRepo.CreateTicketLine(ctx, tx, line); err != nil {
			return fmt.Errorf("create ticket line: %w", err)
		}

		reservationID = reservation.ID
		return nil
	})
	return reservationID, err
}

func (s *reconcileService) publish(ctx context.Context, n *payment.Notification, res Result) {
	if s.publisher == nil {
		return
	}
	receivedAt := n.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	event := models.WebhookEvent{
		MessageID:         uuid.NewString(),
		Provider:          n.Provider,
		ProviderEventID:   n.EventID,
		EventType:         n.Type,
		SessionID:         n.SessionID,
		ProviderPaymentID: n.PaymentID(),
		TicketID:          res.TicketID,
		Quantity:          res.Quantity,
		Outcome:           res.Outcome,
		Detail:            res.Detail,
		ReservationID:     res.ReservationID,
		ReceivedAt:        receivedAt,
	}
	if err := s.publisher.Publish(ctx, "checkout."+string(res.Outcome), event); err != nil {
		log.Printf("[Reconciler] failed to publish outcome for event %s: %v", n.EventID, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func providerTitle(name string) string {
	if name == "" {
		return "Online"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
