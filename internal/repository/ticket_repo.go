package repository

import (
	"context"
	"fmt"

	"github.com/Eursukkul/event-checkout/internal/models"
	"gorm.io/gorm"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id uint) (*models.Ticket, error)
	FindActiveByEventID(ctx context.Context, eventID uint) ([]models.Ticket, error)
	IncrementSold(ctx context.Context, tx *gorm.DB, ticketID uint, qty int) (bool, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepository) FindByID(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindActiveByEventID(ctx context.Context, eventID uint) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND is_active = ?", eventID, true).
		Order("sort_order ASC, id ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// IncrementSold adds qty to the sold counter only if the result stays within
// capacity. It is a single conditional UPDATE, so concurrent callers on the
// same ticket serialize on the row and the check is re-evaluated against the
// committed value. Returns false when the ticket is missing or would overflow.
func (r *ticketRepository) IncrementSold(ctx context.Context, tx *gorm.DB, ticketID uint, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("increment sold: non-positive quantity %d", qty)
	}
	res := tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND (capacity IS NULL OR sold + ? <= capacity)", ticketID, qty).
		Update("sold", gorm.Expr("sold + ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("increment sold: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
