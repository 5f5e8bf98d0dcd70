package service

import (
	"context"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/eventmate/eventmate-server/internal/repo/postgres"
)

type EventService interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ListTiers(ctx context.Context, eventID int64) ([]domain.TicketTier, error)
}

type eventService struct {
	eventRepo postgres.EventRepo
}

func NewEventService(eventRepo postgres.EventRepo) EventService {
	return &eventService{eventRepo: eventRepo}
}

func (s *eventService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *eventService) ListTiers(ctx context.Context, eventID int64) ([]domain.TicketTier, error) {
	return s.eventRepo.ListTiers(ctx, eventID)
}
