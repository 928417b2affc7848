package repository

import (
	"context"

	"github.com/Eursukkul/event-checkout/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	Record(ctx context.Context, event *models.WebhookEvent) (bool, error)
	List(ctx context.Context, outcome *models.WebhookOutcome, limit int) ([]models.WebhookEvent, error)
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// Record inserts the event unless one with the same message id exists.
// It reports whether a row was written.
func (r *webhookEventRepository) Record(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *webhookEventRepository) List(ctx context.Context, outcome *models.WebhookOutcome, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	q := r.db.WithContext(ctx)
	if outcome != nil {
		q = q.Where("outcome = ?", *outcome)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("received_at DESC, id DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
