package repository

import (
	"context"

	"github.com/Eursukkul/event-checkout/internal/models"
	"gorm.io/gorm"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	CreateTicketLine(ctx context.Context, tx *gorm.DB, line *models.ReservationTicket) error
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	FindByEventID(ctx context.Context, eventID uint) ([]models.Reservation, error)
	GetDB() *gorm.DB
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) CreateTicketLine(ctx context.Context, tx *gorm.DB, line *models.ReservationTicket) error {
	return tx.WithContext(ctx).Create(line).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).Preload("Tickets").First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByEventID(ctx context.Context, eventID uint) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Tickets").
		Where("event_id = ?", eventID).
		Order("created_at DESC, id DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}
