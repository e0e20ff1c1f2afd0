package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type RepositoryStub struct {
	mu      sync.RWMutex
	items   map[uuid.UUID]Event
	userIds map[uuid.UUID]int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items:   make(map[uuid.UUID]Event),
		userIds: make(map[uuid.UUID]int),
	}
}

// WithTransaction restores the previous state when fn fails.
func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	items := make(map[uuid.UUID]Event, len(r.items))
	for k, v := range r.items {
		items[k] = v
	}
	userIds := make(map[uuid.UUID]int, len(r.userIds))
	for k, v := range r.userIds {
		userIds[k] = v
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.items, r.userIds = items, userIds
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) StoreEvent(ctx context.Context, userId int, event Event) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uid := uuid.New()
	event.UID = uuid.NullUUID{UUID: uid, Valid: true}
	r.items[uid] = event
	r.userIds[uid] = userId
	return uid, nil
}

func (r *RepositoryStub) GetEvent(ctx context.Context, userId int, uid uuid.UUID) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[uid]
	if !ok || r.userIds[uid] != userId {
		return Event{}, ErrEventNotFound
	}
	return e, nil
}

func (r *RepositoryStub) GetEvents(ctx context.Context, userId int, from, to time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	from, to = civilDate(from), civilDate(to)
	var result []Event
	for uid, e := range r.items {
		if r.userIds[uid] != userId || e.Date.After(to) {
			continue
		}
		if e.IsRecurring() || !e.Date.Before(from) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (r *RepositoryStub) UpdateEvent(ctx context.Context, userId int, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uid := event.UID.UUID
	if _, ok := r.items[uid]; !ok || r.userIds[uid] != userId {
		return ErrEventNotFound
	}
	r.items[uid] = event
	return nil
}

func (r *RepositoryStub) DeleteEvent(ctx context.Context, userId int, uid uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[uid]; !ok || r.userIds[uid] != userId {
		return ErrEventNotFound
	}
	delete(r.items, uid)
	delete(r.userIds, uid)
	return nil
}

// Count is a test helper returning the number of stored events.
func (r *RepositoryStub) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
