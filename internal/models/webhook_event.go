package models

import "time"

// WebhookOutcome is what the reconciler decided for one verified webhook delivery.
type WebhookOutcome string

const (
	OutcomeProcessed     WebhookOutcome = "processed"
	OutcomeDuplicate     WebhookOutcome = "duplicate"
	OutcomeIgnored       WebhookOutcome = "ignored"
	OutcomeMalformed     WebhookOutcome = "malformed"
	OutcomeTicketMissing WebhookOutcome = "ticket_missing"
	OutcomeOverCapacity  WebhookOutcome = "over_capacity"
	OutcomeFailed        WebhookOutcome = "failed"
)

// NeedsAttention reports whether staff have to follow up by hand (refund or
// capacity adjustment). The system never refunds on its own.
func (o WebhookOutcome) NeedsAttention() bool {
	return o == OutcomeOverCapacity || o == OutcomeFailed
}

// WebhookEvent is the audit trail of webhook deliveries. Rows are written by the
// outcome consumer; MessageID makes redelivered broker messages a no-op.
type WebhookEvent struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	MessageID         string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"message_id"`
	Provider          string         `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderEventID   string         `gorm:"type:varchar(191);index" json:"provider_event_id"`
	EventType         string         `gorm:"type:varchar(100);not null" json:"event_type"`
	SessionID         string         `gorm:"type:varchar(191)" json:"session_id"`
	ProviderPaymentID string         `gorm:"type:varchar(191);index" json:"provider_payment_id"`
	TicketID          uint           `json:"ticket_id"`
	Quantity          int            `json:"quantity"`
	Outcome           WebhookOutcome `gorm:"type:varchar(20);not null;index" json:"outcome"`
	Detail            string         `gorm:"type:text" json:"detail"`
	ReservationID     *uint          `json:"reservation_id,omitempty"`
	ReceivedAt        time.Time      `gorm:"not null" json:"received_at"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (e WebhookEvent) GetMessageID() string {
	return e.MessageID
}
