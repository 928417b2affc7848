package service

import (
	"context"
	"errors"

	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/internal/repository"
	"gorm.io/gorm"
)

var ErrReservationNotFound = errors.New("reservation not found")

const defaultWebhookEventLimit = 100

// ReportService backs the staff views over what reconciliation produced.
type ReportService interface {
	ListReservations(ctx context.Context, eventID uint) ([]models.Reservation, error)
	ListPayments(ctx context.Context, reservationID uint) ([]models.Payment, error)
	ListWebhookEvents(ctx context.Context, outcome *models.WebhookOutcome, limit int) ([]models.WebhookEvent, error)
}

type reportService struct {
	reservationRepo  repository.ReservationRepository
	paymentRepo      repository.PaymentRepository
	webhookEventRepo repository.WebhookEventRepository
}

func NewReportService(
	reservationRepo repository.ReservationRepository,
	paymentRepo repository.PaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
) ReportService {
	return &reportService{
		reservationRepo:  reservationRepo,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
	}
}

func (s *reportService) ListReservations(ctx context.Context, eventID uint) ([]models.Reservation, error) {
	return s.reservationRepo.FindByEventID(ctx, eventID)
}

func (s *reportService) ListPayments(ctx context.Context, reservationID uint) ([]models.Payment, error) {
	if _, err := s.reservationRepo.FindByID(ctx, reservationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return s.paymentRepo.FindByReservationID(ctx, reservationID)
}

func (s *reportService) ListWebhookEvents(ctx context.Context, outcome *models.WebhookOutcome, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 || limit > defaultWebhookEventLimit {
		limit = defaultWebhookEventLimit
	}
	return s.webhookEventRepo.List(ctx, outcome, limit)
}
