package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/internal/repository"
	"github.com/Eursukkul/event-checkout/internal/testdb"
	"github.com/Eursukkul/event-checkout/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Recording publisher ---

type published struct {
	routingKey string
	event      models.WebhookEvent
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{routingKey: routingKey, event: payload.(models.WebhookEvent)})
	return p.err
}

// --- Fixture ---

type reconcileFixture struct {
	db     *gorm.DB
	svc    ReconcileService
	pub    *recordingPublisher
	event  *models.Event
	ticket *models.Ticket
}

func newReconcileFixture(t *testing.T, capacity *int, sold int) *reconcileFixture {
	t.Helper()
	db := testdb.New(t)
	ctx := context.Background()

	event := &models.Event{
		Title: "Wine Pairing Dinner", Location: "Main dining room",
		StartsAt: time.Now().Add(48 * time.Hour), EndsAt: time.Now().Add(52 * time.Hour),
		IsPaidEvent: true, IsPublished: true,
	}
	require.NoError(t, repository.NewEventRepository(db).Create(ctx, event))

	ticket := &models.Ticket{
		EventID: event.ID, Name: "General Admission",
		Price: decimal.RequireFromString("20.00"), Capacity: capacity, Sold: sold, IsActive: true,
	}
	require.NoError(t, repository.NewTicketRepository(db).Create(ctx, ticket))

	pub := &recordingPublisher{}
	svc := NewReconcileService(
		repository.NewReservationRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewTicketRepository(db),
		pub,
	)
	return &reconcileFixture{db: db, svc: svc, pub: pub, event: event, ticket: ticket}
}

func (f *reconcileFixture) completed(paymentIntent string, qty int) *payment.Notification {
	subtotal := decimal.RequireFromString("20.00").Mul(decimal.NewFromInt(int64(qty)))
	total := subtotal.Mul(decimal.RequireFromString("1.05"))
	return &payment.Notification{
		Provider:        "stripe",
		EventID:         "evt_" + paymentIntent,
		Type:            payment.EventCheckoutCompleted,
		SessionID:       "cs_" + paymentIntent,
		PaymentIntentID: paymentIntent,
		PaymentStatus:   "paid",
		AmountTotal:     total.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:        "usd",
		Metadata: map[string]string{
			"eventId":  fmt.Sprint(f.event.ID),
			"ticketId": fmt.Sprint(f.ticket.ID),
			"qty":      fmt.Sprint(qty),
			"subtotal": subtotal.StringFixed(2),
			"name":     "Ana",
			"email":    "ana@example.com",
			"phone":    "555-0100",
			"notes":    "",
		},
		ReceivedAt: time.Now(),
	}
}

func (f *reconcileFixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *reconcileFixture) sold(t *testing.T) int {
	t.Helper()
	var ticket models.Ticket
	require.NoError(t, f.db.First(&ticket, f.ticket.ID).Error)
	return ticket.Sold
}

func (f *reconcileFixture) assertNoWrites(t *testing.T, sold int) {
	t.Helper()
	assert.Zero(t, f.count(t, &models.Reservation{}))
	assert.Zero(t, f.count(t, &models.ReservationTicket{}))
	assert.Zero(t, f.count(t, &models.Payment{}))
	assert.Equal(t, sold, f.sold(t))
}

// --- Tests ---

func TestReconcile_Processed(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 0)

	res := f.svc.Reconcile(context.Background(), f.completed("pi_1", 2))

	require.Equal(t, models.OutcomeProcessed, res.Outcome, res.Detail)
	require.NotNil(t, res.ReservationID)
	assert.Equal(t, 2, f.sold(t))

	var reservation models.Reservation
	require.NoError(t, f.db.Preload("Tickets").First(&reservation, *res.ReservationID).Error)
	assert.Equal(t, models.ReservationConfirmed, reservation.Status)
	assert.Equal(t, 2, reservation.PartySize)
	assert.Equal(t, "Ana", reservation.Name)
	assert.Equal(t, "ana@example.com", reservation.Email)
	assert.Equal(t, "555-0100", reservation.Phone)
	require.NotNil(t, reservation.Notes)
	assert.Equal(t, "Created via online payment", *reservation.Notes)
	require.NotNil(t, reservation.EventID)
	assert.Equal(t, f.event.ID, *reservation.EventID)

	require.Len(t, reservation.Tickets, 1)
	line := reservation.Tickets[0]
	assert.Equal(t, f.ticket.ID, line.TicketID)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "20.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "42.00", line.TotalPrice.StringFixed(2))

	var p models.Payment
	require.NoError(t, f.db.Where("reservation_id = ?", reservation.ID).First(&p).Error)
	assert.Equal(t, "42.00", p.Amount.StringFixed(2))
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, models.PaymentSucceeded, p.Status)
	assert.Equal(t, "stripe", p.Provider)
	assert.Equal(t, "online", p.Source)
	require.NotNil(t, p.ProviderPaymentID)
	assert.Equal(t, "pi_1", *p.ProviderPaymentID)
	require.NotNil(t, p.Description)
	assert.Equal(t, "Stripe Checkout – General Admission", *p.Description)

	require.Len(t, f.pub.msgs, 1)
	assert.Equal(t, "checkout.processed", f.pub.msgs[0].routingKey)
	assert.Equal(t, "pi_1", f.pub.msgs[0].event.ProviderPaymentID)
	assert.NotEmpty(t, f.pub.msgs[0].event.MessageID)
	assert.Equal(t, res.ReservationID, f.pub.msgs[0].event.ReservationID)
}

func TestReconcile_RedeliveryIsIdempotent(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 0)
	n := f.completed("pi_1", 2)

	first := f.svc.Reconcile(context.Background(), n)
	second := f.svc.Reconcile(context.Background(), n)
	third := f.svc.Reconcile(context.Background(), n)

	assert.Equal(t, models.OutcomeProcessed, first.Outcome)
	assert.Equal(t, models.OutcomeDuplicate, second.Outcome)
	assert.Equal(t, models.OutcomeDuplicate, third.Outcome)
	assert.Equal(t, first.ReservationID, second.ReservationID)
	assert.Equal(t, int64(1), f.count(t, &models.Reservation{}))
	assert.Equal(t, int64(1), f.count(t, &models.ReservationTicket{}))
	assert.Equal(t, int64(1), f.count(t, &models.Payment{}))
	assert.Equal(t, 2, f.sold(t))
}

func TestReconcile_ConcurrentRedeliveries(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 0)
	n := f.completed("pi_race", 2)

	const deliveries = 8
	outcomes := make(chan models.WebhookOutcome, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- f.svc.Reconcile(context.Background(), n).Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	counts := map[models.WebhookOutcome]int{}
	for o := range outcomes {
		counts[o]++
	}
	assert.Equal(t, 1, counts[models.OutcomeProcessed])
	assert.Equal(t, deliveries-1, counts[models.OutcomeDuplicate])
	assert.Equal(t, int64(1), f.count(t, &models.Reservation{}))
	assert.Equal(t, 2, f.sold(t))
}

func TestReconcile_ConcurrentBuyersNeverOversell(t *testing.T) {
	f := newReconcileFixture(t, intPtr(5), 0)

	const buyers = 12
	outcomes := make(chan models.WebhookOutcome, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes <- f.svc.Reconcile(context.Background(), f.completed(fmt.Sprintf("pi_%d", i), 1)).Outcome
		}(i)
	}
	wg.Wait()
	close(outcomes)

	counts := map[models.WebhookOutcome]int{}
	for o := range outcomes {
		counts[o]++
	}
	assert.Equal(t, 5, counts[models.OutcomeProcessed])
	assert.Equal(t, buyers-5, counts[models.OutcomeOverCapacity])
	assert.Equal(t, 5, f.sold(t))
	assert.Equal(t, int64(5), f.count(t, &models.Payment{}))
}

func TestReconcile_OverCapacity(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 9)

	res := f.svc.Reconcile(context.Background(), f.completed("pi_1", 2))

	assert.Equal(t, models.OutcomeOverCapacity, res.Outcome)
	assert.True(t, res.Outcome.NeedsAttention())
	f.assertNoWrites(t, 9)
	require.Len(t, f.pub.msgs, 1)
	assert.Equal(t, "checkout.over_capacity", f.pub.msgs[0].routingKey)
}

// losingTicketRepo simulates losing the race between the advisory check and
// the conditional increment.
type losingTicketRepo struct {
	repository.TicketRepository
}

func (r losingTicketRepo) IncrementSold(ctx context.Context, tx *gorm.DB, ticketID uint, qty int) (bool, error) {
	return false, nil
}

func TestReconcile_IncrementRaceRollsBack(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 0)
	svc := NewReconcileService(
		repository.NewReservationRepository(f.db),
		repository.NewPaymentRepository(f.db),
		losingTicketRepo{repository.NewTicketRepository(f.db)},
		nil,
	)

	res := svc.Reconcile(context.Background(), f.completed("pi_1", 2))

	assert.Equal(t, models.OutcomeOverCapacity, res.Outcome)
	f.assertNoWrites(t, 0)
}

type failingTicketRepo struct {
	repository.TicketRepository
}

func (r failingTicketRepo) IncrementSold(ctx context.Context, tx *gorm.DB, ticketID uint, qty int) (bool, error) {
	return false, errors.New("disk full")
}

func TestReconcile_PersistenceFailureIsAcknowledged(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 0)
	svc := NewReconcileService(
		repository.NewReservationRepository(f.db),
		repository.NewPaymentRepository(f.db),
		failingTicketRepo{repository.NewTicketRepository(f.db)},
		nil,
	)

	res := svc.Reconcile(context.Background(), f.completed("pi_1", 2))

	assert.Equal(t, models.OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Detail, "disk full")
	f.assertNoWrites(t, 0)
}

func TestReconcile_Ignored(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 0)

	other := f.completed("pi_1", 2)
	other.Type = "payment_intent.succeeded"
	unpaid := f.completed("pi_2", 2)
	unpaid.PaymentStatus = "unpaid"

	assert.Equal(t, models.OutcomeIgnored, f.svc.Reconcile(context.Background(), other).Outcome)
	assert.Equal(t, models.OutcomeIgnored, f.svc.Reconcile(context.Background(), unpaid).Outcome)
	f.assertNoWrites(t, 0)
}

func TestReconcile_MalformedMetadata(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"missing event", "eventId", ""},
		{"missing ticket", "ticketId", ""},
		{"missing qty", "qty", ""},
		{"zero qty", "qty", "0"},
		{"negative qty", "qty", "-2"},
		{"non numeric ticket", "ticketId", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReconcileFixture(t, intPtr(10), 0)
			n := f.completed("pi_1", 2)
			n.Metadata[tt.key] = tt.value

			res := f.svc.Reconcile(context.Background(), n)

			assert.Equal(t, models.OutcomeMalformed, res.Outcome)
			f.assertNoWrites(t, 0)
		})
	}
}

func TestReconcile_TicketMissing(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 0)
	n := f.completed("pi_1", 2)
	n.Metadata["ticketId"] = "999"

	res := f.svc.Reconcile(context.Background(), n)

	assert.Equal(t, models.OutcomeTicketMissing, res.Outcome)
	f.assertNoWrites(t, 0)
}

func TestReconcile_SessionIDFallbackAndContactFallbacks(t *testing.T) {
	f := newReconcileFixture(t, nil, 0)
	n := f.completed("", 1)
	n.SessionID = "cs_only"
	n.Metadata["name"] = ""
	n.Metadata["email"] = "  "
	n.Metadata["phone"] = ""
	n.Metadata["notes"] = "Vegetarian"
	n.CustomerName = "Stripe Name"
	n.Currency = ""

	res := f.svc.Reconcile(context.Background(), n)
	require.Equal(t, models.OutcomeProcessed, res.Outcome, res.Detail)

	var reservation models.Reservation
	require.NoError(t, f.db.First(&reservation, *res.ReservationID).Error)
	assert.Equal(t, "Stripe Name", reservation.Name)
	assert.Equal(t, "unknown@example.com", reservation.Email)
	assert.Equal(t, "", reservation.Phone)
	assert.Equal(t, "Vegetarian", *reservation.Notes)

	var p models.Payment
	require.NoError(t, f.db.First(&p).Error)
	assert.Equal(t, "cs_only", *p.ProviderPaymentID)
	assert.Equal(t, "USD", p.Currency)

	again := f.svc.Reconcile(context.Background(), n)
	assert.Equal(t, models.OutcomeDuplicate, again.Outcome)
}

func TestReconcile_UnitPriceFallsBackToTicketPrice(t *testing.T) {
	f := newReconcileFixture(t, nil, 0)
	n := f.completed("pi_1", 3)
	delete(n.Metadata, "subtotal")

	res := f.svc.Reconcile(context.Background(), n)
	require.Equal(t, models.OutcomeProcessed, res.Outcome)

	var line models.ReservationTicket
	require.NoError(t, f.db.First(&line).Error)
	assert.Equal(t, "20.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "63.00", line.TotalPrice.StringFixed(2))
}

func TestReconcile_PublishErrorDoesNotChangeOutcome(t *testing.T) {
	f := newReconcileFixture(t, intPtr(10), 0)
	f.pub.err = errors.New("channel closed")

	res := f.svc.Reconcile(context.Background(), f.completed("pi_1", 1))

	assert.Equal(t, models.OutcomeProcessed, res.Outcome)
	assert.Len(t, f.pub.msgs, 1)
}
