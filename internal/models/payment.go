package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "PENDING"
	PaymentRequiresAction PaymentStatus = "REQUIRES_ACTION"
	PaymentSucceeded      PaymentStatus = "SUCCEEDED"
	PaymentFailed         PaymentStatus = "FAILED"
	PaymentRefunded       PaymentStatus = "REFUNDED"
)

// Payment is one completed provider payment. ProviderPaymentID carries a unique
// index and is the idempotency key of webhook reconciliation.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ReservationID     *uint           `gorm:"index" json:"reservation_id"`
	EventID           *uint           `gorm:"index" json:"event_id"`
	Amount            decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Provider          string          `gorm:"not null;default:'stripe'" json:"provider"`
	ProviderPaymentID *string         `gorm:"uniqueIndex:payments_provider_payment_id_unique" json:"provider_payment_id"`
	Source            string          `gorm:"not null;default:'online'" json:"source"`
	Description       *string         `json:"description,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
