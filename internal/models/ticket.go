package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is a ticket type of a paid event. Capacity nil means unbounded.
// Sold is only ever incremented, and only by the webhook reconciler.
type Ticket struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	EventID       uint            `gorm:"not null;index" json:"event_id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Capacity      *int            `json:"capacity"`
	Sold          int             `gorm:"not null;default:0" json:"sold"`
	IsActive      bool            `gorm:"not null" json:"is_active"`
	SortOrder     int             `gorm:"not null;default:0" json:"sort_order"`
	Category      *string         `json:"category,omitempty"`
	SalesStart    *time.Time      `json:"sales_start,omitempty"`
	SalesEnd      *time.Time      `json:"sales_end,omitempty"`
	MinPerOrder   *int            `json:"min_per_order,omitempty"`
	MaxPerOrder   *int            `json:"max_per_order,omitempty"`
	InternalNotes *string         `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}
