package audit

import (
	"context"
)

// Logger records user lifecycle events
type Logger interface {
	// Record persists an event and mirrors it to the process log
	Record(ctx context.Context, userID string, action Action, severity Severity, message string) error

	// UserEvents returns the newest events for a user
	UserEvents(ctx context.Context, userID string, limit int) ([]*Event, error)

	// RecentEvents returns the newest events across all users
	RecentEvents(ctx context.Context, limit int) ([]*Event, error)
}

// EventStore defines the interface for audit event persistence
type EventStore interface {
	// CreateEvent persists a new event
	CreateEvent(ctx context.Context, event *Event) error

	// ListEventsByUser returns events for a user, newest first
	ListEventsByUser(ctx context.Context, userID string, limit int) ([]*Event, error)

	// ListEvents returns events for all users, newest first
	ListEvents(ctx context.Context, limit int) ([]*Event, error)
}
