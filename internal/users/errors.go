package users

import (
	"fmt"
)

// UserError represents errors related to user operations
type UserError struct {
	Type    string
	UserID  string
	Email   string
	Message string
	Cause   error
}

func (e *UserError) Error() string {
	subject := e.UserID
	if subject == "" {
		subject = e.Email
	}

	if e.Cause != nil {
		return fmt.Sprintf("user error [%s] for %s: %s (caused by: %v)", e.Type, subject, e.Message, e.Cause)
	}
	return fmt.Sprintf("user error [%s] for %s: %s", e.Type, subject, e.Message)
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// Is matches any UserError of the same type, so errors.Is(err, ErrUserNotFound) works
// regardless of which user the error was raised for.
func (e *UserError) Is(target error) bool {
	t, ok := target.(*UserError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// User error types
const (
	UserErrorTypeDuplicateEmail = "duplicate_email"
	UserErrorTypeNotFound       = "not_found"
	UserErrorTypeStoreFailure   = "store_failure"
)

// Sentinels for errors.Is
var (
	ErrDuplicateEmail = &UserError{Type: UserErrorTypeDuplicateEmail}
	ErrUserNotFound   = &UserError{Type: UserErrorTypeNotFound}
	ErrStoreFailure   = &UserError{Type: UserErrorTypeStoreFailure}
)

// NewDuplicateEmailError creates an error for when a live user already holds the email
func NewDuplicateEmailError(email string) *UserError {
	return &UserError{
		Type:    UserErrorTypeDuplicateEmail,
		Email:   email,
		Message: "user with this email already exists",
	}
}

// NewUserNotFoundError creates an error for when no user has the given id
func NewUserNotFoundError(userID string) *UserError {
	return &UserError{
		Type:    UserErrorTypeNotFound,
		UserID:  userID,
		Message: "user not found",
	}
}

// NewStoreError wraps a backend failure raised while running operation for userID
func NewStoreError(operation, userID string, cause error) *UserError {
	return &UserError{
		Type:    UserErrorTypeStoreFailure,
		UserID:  userID,
		Message: fmt.Sprintf("store %s failed", operation),
		Cause:   cause,
	}
}
