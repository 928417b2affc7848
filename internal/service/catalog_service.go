package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/internal/repository"
	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type TicketAvailability struct {
	Ticket    models.Ticket
	Remaining *int // nil when unbounded
	SoldOut   bool
}

type EventDetail struct {
	Event   *models.Event
	Tickets []TicketAvailability
}

type CatalogService interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id uint) (*EventDetail, error)
}

type catalogService struct {
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
}

func NewCatalogService(eventRepo repository.EventRepository, ticketRepo repository.TicketRepository) CatalogService {
	return &catalogService{eventRepo: eventRepo, ticketRepo: ticketRepo}
}

func (s *catalogService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.eventRepo.FindPurchasable(ctx)
}

func (s *catalogService) GetEvent(ctx context.Context, id uint) (*EventDetail, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !event.IsPublished {
		return nil, ErrEventNotFound
	}

	tickets, err := s.ticketRepo.FindActiveByEventID(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}

	detail := &EventDetail{Event: event, Tickets: make([]TicketAvailability, len(tickets))}
	for i := range tickets {
		ta := TicketAvailability{Ticket: tickets[i]}
		if remaining, bounded := Remaining(&tickets[i]); bounded {
			ta.Remaining = &remaining
			ta.SoldOut = remaining == 0
		}
		detail.Tickets[i] = ta
	}
	return detail, nil
}
