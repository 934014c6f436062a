package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Action identifies a user lifecycle transition
type Action string

const (
	ActionUserRegistered  Action = "user.registered"
	ActionUserRenamed     Action = "user.renamed"
	ActionUserDeactivated Action = "user.deactivated"
	ActionUserRejected    Action = "user.rejected"
)

// Severity mirrors the levels the event is logged at
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	return s == SeverityInfo || s == SeverityWarn || s == SeverityError
}

// Event represents an audit entry for a user lifecycle action
type Event struct {
	bun.BaseModel `bun:"table:user_events,alias:ue"`

	ID        uuid.UUID `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	Action    Action    `bun:"action,notnull" json:"action"`
	Severity  Severity  `bun:"severity,notnull" json:"severity"`
	Message   string    `bun:"message,notnull" json:"message"`
	Timestamp time.Time `bun:"created_at,notnull" json:"timestamp"`
}

// Validate validates the audit event
func (e *Event) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("event ID cannot be empty")
	}
	if e.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	if !e.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", e.Severity)
	}
	if e.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
