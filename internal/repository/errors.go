package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicatePayment is returned when a payment with the same provider
// payment id already exists. The unique index is the authoritative
// idempotency guard of webhook reconciliation.
var ErrDuplicatePayment = errors.New("payment already recorded for provider payment id")

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Drivers without error translation.
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "UNIQUE constraint failed")
}
