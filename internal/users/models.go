package users

import (
	"time"
)

// User represents a registered individual
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy of the user that shares no state with u
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// CreateUserRequest carries the caller-supplied fields of a new user
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserUpdate is a partial user. Nil fields are left untouched.
// ID and CreatedAt may be set by callers but stores always keep the existing values.
type UserUpdate struct {
	ID        *string    `json:"id,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Name      *string    `json:"name,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ApplyTo merges the update onto a copy of existing and re-asserts the write-once fields
func (p *UserUpdate) ApplyTo(existing *User) *User {
	merged := existing.Clone()
	if p == nil {
		return merged
	}

	if p.ID != nil {
		merged.ID = *p.ID
	}
	if p.Email != nil {
		merged.Email = *p.Email
	}
	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.CreatedAt != nil {
		merged.CreatedAt = *p.CreatedAt
	}

	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	return merged
}
