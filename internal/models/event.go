package models

import "time"

type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Subtitle    *string   `json:"subtitle,omitempty"`
	Description *string   `json:"description,omitempty"`
	Location    string    `gorm:"not null" json:"location"`
	StartsAt    time.Time `gorm:"not null" json:"starts_at"`
	EndsAt      time.Time `gorm:"not null" json:"ends_at"`
	IsArchived  bool      `gorm:"not null" json:"is_archived"`
	IsPaidEvent bool      `gorm:"not null" json:"is_paid_event"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`

	Tickets []Ticket `gorm:"foreignKey:EventID" json:"tickets,omitempty"`
}

// Purchasable reports whether tickets for the event can be sold online.
func (e *Event) Purchasable() bool {
	return e.IsPublished && e.IsPaidEvent
}
