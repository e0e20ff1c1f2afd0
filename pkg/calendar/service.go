package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/weekcal/internal/clock"
	"github.com/klokku/weekcal/internal/event_bus"
	"github.com/klokku/weekcal/pkg/user"
	log "github.com/sirupsen/logrus"
)

// upcomingHorizon bounds how far ahead GetUpcomingEvents looks.
const upcomingHorizon = 30

type Service struct {
	repo           Repository
	eventBus       *event_bus.EventBus
	clock          clock.Clock
	maxOccurrences int
}

func NewService(repo Repository, eventBus *event_bus.EventBus, clk clock.Clock) *Service {
	return &Service{
		repo:           repo,
		eventBus:       eventBus,
		clock:          clk,
		maxOccurrences: defaultMaxOccurrences,
	}
}

func (s *Service) AddEvent(ctx context.Context, event Event) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	event, err = event.normalize()
	if err != nil {
		return Event{}, err
	}

	uid, err := s.repo.StoreEvent(ctx, userId, event)
	if err != nil {
		return Event{}, fmt.Errorf("failed to store event: %w", err)
	}
	event.UID = uuid.NullUUID{UUID: uid, Valid: true}

	s.publish(ctx, event_bus.CalendarEventCreated, userId, event, false, event.Date)
	return event, nil
}

func (s *Service) GetEvent(ctx context.Context, uid uuid.UUID) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetEvent(ctx, userId, uid)
}

// GetEvents returns the occurrences on the calendar days from..to, inclusive.
func (s *Service) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Occurrence, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if civilDate(to).Before(civilDate(from)) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", ErrInvalidEvent,
			to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	events, err := s.repo.GetEvents(ctx, userId, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return expand(events, from, to, s.maxOccurrences), nil
}

// GetUpcomingEvents returns up to limit occurrences from today on, today being
// evaluated in the user's timezone.
func (s *Service) GetUpcomingEvents(ctx context.Context, limit int) ([]Occurrence, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	today := clock.NowIn(s.clock, currentUser.Settings.Timezone)
	occurrences, err := s.GetEvents(ctx, today, today.AddDate(0, 0, upcomingHorizon))
	if err != nil {
		return nil, err
	}
	if len(occurrences) > limit {
		occurrences = occurrences[:limit]
	}
	return occurrences, nil
}

func (s *Service) ModifyEvent(ctx context.Context, event Event) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if !event.UID.Valid {
		return Event{}, fmt.Errorf("%w: uid is required", ErrInvalidEvent)
	}
	event, err = event.normalize()
	if err != nil {
		return Event{}, err
	}

	var previous Event
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		var getErr error
		if previous, getErr = repo.GetEvent(ctx, userId, event.UID.UUID); getErr != nil {
			return getErr
		}
		return repo.UpdateEvent(ctx, userId, event)
	})
	if err != nil {
		return Event{}, fmt.Errorf("failed to update event: %w", err)
	}

	s.publish(ctx, event_bus.CalendarEventUpdated, userId, event, previous.IsRecurring(), previous.Date, event.Date)
	return event, nil
}

func (s *Service) DeleteEvent(ctx context.Context, uid uuid.UUID) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	var deleted Event
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		var getErr error
		if deleted, getErr = repo.GetEvent(ctx, userId, uid); getErr != nil {
			return getErr
		}
		return repo.DeleteEvent(ctx, userId, uid)
	})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.publish(ctx, event_bus.CalendarEventDeleted, userId, deleted, false, deleted.Date)
	return nil
}

func (s *Service) publish(ctx context.Context, kind event_bus.CalendarEventChangeKind, userId int, event Event, wasRecurring bool, dates ...time.Time) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.CalendarEventChangedType, event_bus.CalendarEventChanged{
		Kind:      kind,
		UserId:    userId,
		UID:       event.UID.UUID.String(),
		Dates:     dates,
		Recurring: wasRecurring || event.IsRecurring(),
	}))
	if err != nil {
		log.Warnf("failed to publish calendar event %s change: %v", kind, err)
	}
}
