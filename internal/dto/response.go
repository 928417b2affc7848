package dto

import (
	"time"

	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/internal/service"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type WebhookResponse struct {
	Received bool                  `json:"received"`
	Outcome  models.WebhookOutcome `json:"outcome"`
}

type EventSummaryResponse struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Subtitle *string   `json:"subtitle,omitempty"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type TicketResponse struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Price       string     `json:"price"`
	Remaining   *int       `json:"remaining"`
	SoldOut     bool       `json:"sold_out"`
	MinPerOrder *int       `json:"min_per_order,omitempty"`
	MaxPerOrder *int       `json:"max_per_order,omitempty"`
	SalesStart  *time.Time `json:"sales_start,omitempty"`
	SalesEnd    *time.Time `json:"sales_end,omitempty"`
}

type EventDetailResponse struct {
	EventSummaryResponse
	Description *string          `json:"description,omitempty"`
	Tickets     []TicketResponse `json:"tickets"`
}

type ReservationLineResponse struct {
	TicketID   uint   `json:"ticket_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type ReservationResponse struct {
	ID        uint                      `json:"id"`
	EventID   *uint                     `json:"event_id"`
	Name      string                    `json:"name"`
	Email     string                    `json:"email"`
	Phone     string                    `json:"phone"`
	PartySize int                       `json:"party_size"`
	Notes     *string                   `json:"notes,omitempty"`
	Status    models.ReservationStatus  `json:"status"`
	CreatedAt time.Time                 `json:"created_at"`
	Tickets   []ReservationLineResponse `json:"tickets"`
}

type PaymentResponse struct {
	ID                uint                 `json:"id"`
	ReservationID     *uint                `json:"reservation_id"`
	Amount            string               `json:"amount"`
	Currency          string               `json:"currency"`
	Status            models.PaymentStatus `json:"status"`
	Provider          string               `json:"provider"`
	ProviderPaymentID *string              `json:"provider_payment_id"`
	Source            string               `json:"source"`
	Description       *string              `json:"description,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

func ToEventSummaryResponse(e *models.Event) EventSummaryResponse {
	return EventSummaryResponse{
		ID:       e.ID,
		Title:    e.Title,
		Subtitle: e.Subtitle,
		Location: e.Location,
		StartsAt: e.StartsAt,
		EndsAt:   e.EndsAt,
	}
}

func ToEventDetailResponse(d *service.EventDetail) EventDetailResponse {
	resp := EventDetailResponse{
		EventSummaryResponse: ToEventSummaryResponse(d.Event),
		Description:          d.Event.Description,
		Tickets:              make([]TicketResponse, len(d.Tickets)),
	}
	for i, ta := range d.Tickets {
		t := ta.Ticket
		resp.Tickets[i] = TicketResponse{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Price:       t.Price.StringFixed(2),
			Remaining:   ta.Remaining,
			SoldOut:     ta.SoldOut,
			MinPerOrder: t.MinPerOrder,
			MaxPerOrder: t.MaxPerOrder,
			SalesStart:  t.SalesStart,
			SalesEnd:    t.SalesEnd,
		}
	}
	return resp
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:        r.ID,
		EventID:   r.EventID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		PartySize: r.PartySize,
		Notes:     r.Notes,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		Tickets:   make([]ReservationLineResponse, len(r.Tickets)),
	}
	for i, l := range r.Tickets {
		resp.Tickets[i] = ReservationLineResponse{
			TicketID:   l.TicketID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			TotalPrice: l.TotalPrice.StringFixed(2),
		}
	}
	return resp
}

func ToPaymentResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		ReservationID:     p.ReservationID,
		Amount:            p.Amount.StringFixed(2),
		Currency:          p.Currency,
		Status:            p.Status,
		Provider:          p.Provider,
		ProviderPaymentID: p.ProviderPaymentID,
		Source:            p.Source,
		Description:       p.Description,
		CreatedAt:         p.CreatedAt,
	}
}
