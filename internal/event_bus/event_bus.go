package event_bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	CalendarEventChangedType EventType = "calendar.event.changed"
	NowTickType              EventType = "calendar.now.tick"
)

// Event is the envelope passed to subscribers. Data holds the payload, one of
// the types declared in events.go.
type Event struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      any
}

func NewEvent(ctx context.Context, eventType EventType, data any) Event {
	return Event{ctx: ctx, Type: eventType, Timestamp: time.Now(), Data: data}
}

// Context returns the publisher's context, or Background when none was given.
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// EventT is the envelope seen by typed subscribers.
type EventT[T any] struct {
	Event
	Data T
}

type subscriber struct {
	id uint64
	fn func(Event) error
}

// EventBus dispatches events synchronously, in subscription order.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscriber
	nextID      uint64
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[EventType][]subscriber)}
}

// Subscribe registers fn for eventType and returns a function that removes it.
func (eb *EventBus) Subscribe(eventType EventType, fn func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	eb.nextID++
	id := eb.nextID
	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber{id: id, fn: fn})
	eb.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			eb.mu.Lock()
			defer eb.mu.Unlock()
			subs := eb.subscribers[eventType]
			for i, s := range subs {
				if s.id == id {
					eb.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(eb.subscribers[eventType]) == 0 {
				delete(eb.subscribers, eventType)
			}
		})
	}
}

// SubscribeTyped registers a handler that only sees payloads of type T. Events
// carrying another payload type are skipped.
func SubscribeTyped[T any](eb *EventBus, eventType EventType, fn func(EventT[T]) error) (unsubscribe func()) {
	return eb.Subscribe(eventType, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("event bus: skipping %s with payload %T, want %T", eventType, e.Data, *new(T))
			return nil
		}
		return fn(EventT[T]{Event: e, Data: payload})
	})
}

// Publish runs every subscriber of e.Type. Failing or panicking subscribers do
// not stop the others; their errors are joined. Cancelling the event context
// stops dispatch.
func (eb *EventBus) Publish(e Event) error {
	ctx := e.Context()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("event %s: context cancelled before publish: %w", e.Type, err)
	}

	eb.mu.RLock()
	subs := append([]subscriber(nil), eb.subscribers[e.Type]...)
	eb.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("context cancelled during event processing: %w", err))
			break
		}
		if err := invoke(s, e); err != nil {
			log.Errorf("event bus: subscriber %d failed for %s: %v", s.id, e.Type, err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d subscriber(s) failed: %w", e.Type, len(errs), errors.Join(errs...))
	}
	return nil
}

func invoke(s subscriber, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %d panicked on %s: %v", s.id, e.Type, r)
		}
	}()
	return s.fn(e)
}

// SubscriberCount reports how many handlers are registered for eventType.
func (eb *EventBus) SubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers[eventType])
}
