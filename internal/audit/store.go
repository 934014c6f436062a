package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/uptrace/bun"
)

// BunEventStore implements EventStore using a bun database
type BunEventStore struct {
	db *bun.DB
}

// NewBunEventStore creates a new bun-backed event store
func NewBunEventStore(db *bun.DB) *BunEventStore {
	return &BunEventStore{db: db}
}

// CreateEvent persists a new event
func (s *BunEventStore) CreateEvent(ctx context.Context, event *Event) error {
	_, err := s.db.NewInsert().Model(event).Exec(ctx)
	return err
}

// ListEventsByUser returns events for a user, newest first
func (s *BunEventStore) ListEventsByUser(ctx context.Context, userID string, limit int) ([]*Event, error) {
	var events []*Event
	err := s.db.NewSelect().
		Model(&events).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return events, err
}

// ListEvents returns events for all users, newest first
func (s *BunEventStore) ListEvents(ctx context.Context, limit int) ([]*Event, error) {
	var events []*Event
	err := s.db.NewSelect().
		Model(&events).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return events, err
}

// InMemoryEventStore implements EventStore with in-process storage
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryEventStore creates a new in-memory event store
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

// CreateEvent persists a copy of the event
func (s *InMemoryEventStore) CreateEvent(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, *event)
	return nil
}

// ListEventsByUser returns events for a user, newest first
func (s *InMemoryEventStore) ListEventsByUser(ctx context.Context, userID string, limit int) ([]*Event, error) {
	return s.list(limit, func(e *Event) bool { return e.UserID == userID }), nil
}

// ListEvents returns events for all users, newest first
func (s *InMemoryEventStore) ListEvents(ctx context.Context, limit int) ([]*Event, error) {
	return s.list(limit, func(*Event) bool { return true }), nil
}

func (s *InMemoryEventStore) list(limit int, match func(*Event) bool) []*Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*Event, 0)
	for i := range s.events {
		if match(&s.events[i]) {
			e := s.events[i]
			events = append(events, &e)
		}
	}

	// newest insert first when timestamps tie
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}
