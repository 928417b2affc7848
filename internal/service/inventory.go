package service

import "github.com/Eursukkul/event-checkout/internal/models"

// Remaining returns how many tickets can still be sold. bounded is false when
// the ticket has no capacity, in which case remaining is meaningless.
func Remaining(t *models.Ticket) (remaining int, bounded bool) {
	if t.Capacity == nil {
		return 0, false
	}
	remaining = *t.Capacity - t.Sold
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// HasCapacityFor is the advisory check used before payment and again before
// recording one. The authoritative check is the conditional increment.
func HasCapacityFor(t *models.Ticket, qty int) bool {
	remaining, bounded := Remaining(t)
	if !bounded {
		return true
	}
	return remaining > 0 && qty <= remaining
}
