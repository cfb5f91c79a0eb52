package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/event"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
)

type EventService struct {
	eventRepo event.Repository
	logger    *logging.Logger
}

func NewEventService(eventRepo event.Repository, logger *logging.Logger) *EventService {
	if logger == nil {
		logger = logging.Default()
	}
	return &EventService{eventRepo: eventRepo, logger: logger}
}

// Verify finds the event a password opens. The returned event carries no
// secrets.
func (s *EventService) Verify(ctx context.Context, password string) (event.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.Verify")
	defer span.End()

	password = strings.TrimSpace(password)
	if password == "" {
		return event.Event{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	item, exists, err := s.eventRepo.FindByPassword(ctx, password)
	if err != nil {
		return event.Event{}, fmt.Errorf("find event by password: %w", err)
	}
	if !exists {
		s.logger.WarnContext(ctx, "event password rejected")
		return event.Event{}, fmt.Errorf("%w: invalid event password", ErrUnauthenticated)
	}

	return item.Public(), nil
}

func (s *EventService) Current(ctx context.Context, eventID string) (event.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventService.Current")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return event.Event{}, fmt.Errorf("%w: event session is required", ErrUnauthenticated)
	}

	item, exists, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return event.Event{}, fmt.Errorf("get event: %w", err)
	}
	if !exists {
		return event.Event{}, fmt.Errorf("%w: event=%s", ErrNotFound, eventID)
	}
	return item.Public(), nil
}
