package dto

// CheckoutRequest is the browser's checkout intent. Field names match what
// the storefront already sends.
type CheckoutRequest struct {
	EventID  uint   `json:"eventId" validate:"required,gt=0"`
	TicketID uint   `json:"ticketId" validate:"required,gt=0"`
	Qty      int    `json:"qty" validate:"required,gt=0,lte=100"`
	Name     string `json:"name" validate:"max=200"`
	Email    string `json:"email" validate:"omitempty,email,max=320"`
	Phone    string `json:"phone" validate:"max=50"`
	Notes    string `json:"notes" validate:"max=1000"`
}
