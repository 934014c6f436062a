package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultListLimit = 100

// recorder implements the Logger interface
type recorder struct {
	store  EventStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a new audit recorder. A nil logger disables the log mirror.
func NewRecorder(store EventStore, logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recorder{
		store:  store,
		logger: logger.Named("audit"),
		now:    time.Now,
	}
}

// Record persists an event and mirrors it to the process log
func (r *recorder) Record(ctx context.Context, userID string, action Action, severity Severity, message string) error {
	event := &Event{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		Severity:  severity,
		Message:   message,
		Timestamp: r.now().UTC(),
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid audit event: %w", err)
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID.String()),
		zap.String("user_id", userID),
		zap.String("action", string(action)),
	}
	switch severity {
	case SeverityWarn:
		r.logger.Warn(message, fields...)
	case SeverityError:
		r.logger.Error(message, fields...)
	default:
		r.logger.Info(message, fields...)
	}

	if err := r.store.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}
	return nil
}

// UserEvents returns the newest events for a user
func (r *recorder) UserEvents(ctx context.Context, userID string, limit int) ([]*Event, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	if limit <= 0 {
		limit = defaultListLimit
	}

	events, err := r.store.ListEventsByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get user events: %w", err)
	}
	return events, nil
}

// RecentEvents returns the newest events across all users
func (r *recorder) RecentEvents(ctx context.Context, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	events, err := r.store.ListEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	return events, nil
}
