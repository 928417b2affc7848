package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

type Reservation struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	EventID   *uint             `gorm:"index" json:"event_id"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"not null" json:"email"`
	Phone     string            `gorm:"not null" json:"phone"`
	PartySize int               `gorm:"not null" json:"party_size"`
	Notes     *string           `json:"notes,omitempty"`
	Status    ReservationStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt time.Time         `json:"created_at"`

	Tickets []ReservationTicket `gorm:"foreignKey:ReservationID" json:"tickets,omitempty"`
}

// ReservationTicket is the ticket line of a reservation. TotalPrice is what the
// provider actually charged for the line, tax included.
type ReservationTicket struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ReservationID uint            `gorm:"not null;index" json:"reservation_id"`
	TicketID      uint            `gorm:"not null;index" json:"ticket_id"`
	Quantity      int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	TotalPrice    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_price"`
	CreatedAt     time.Time       `json:"created_at"`
}
