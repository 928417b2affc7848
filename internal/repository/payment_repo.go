package repository

import (
	"context"
	"fmt"

	"github.com/Eursukkul/event-checkout/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Payment, error)
	FindByReservationID(ctx context.Context, reservationID uint) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts the payment. A unique violation on provider_payment_id is
// reported as ErrDuplicatePayment.
func (r *paymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	if err := tx.WithContext(ctx).Create(payment).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("provider_payment_id = ?", providerPaymentID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByReservationID(ctx context.Context, reservationID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
