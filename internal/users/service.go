package users

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eion/eion-users/internal/audit"
)

// Service implements the UserService interface
type Service struct {
	store  UserStore
	audit  audit.Logger
	logger *zap.Logger
}

// NewUserService creates a new user service instance
func NewUserService(store UserStore, logger *zap.Logger) *Service {
	return NewUserServiceWithAudit(store, nil, logger)
}

// NewUserServiceWithAudit creates a user service that records lifecycle events to auditLog
func NewUserServiceWithAudit(store UserStore, auditLog audit.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		audit:  auditLog,
		logger: logger.Named("users"),
	}
}

// RegisterUser creates a user unless a live user already holds email
func (s *Service) RegisterUser(ctx context.Context, email, name string) (*User, error) {
	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, NewStoreError("find_by_email", "", err)
	}
	if existing != nil {
		s.record(ctx, existing.ID, audit.ActionUserRejected, audit.SeverityWarn,
			fmt.Sprintf("Registration for %s rejected: email already in use.", email))
		return nil, NewDuplicateEmailError(email)
	}

	user, err := s.store.Create(ctx, &CreateUserRequest{Email: email, Name: name})
	if err != nil {
		return nil, NewStoreError("create", "", err)
	}

	s.record(ctx, user.ID, audit.ActionUserRegistered, audit.SeverityInfo,
		fmt.Sprintf("User %s added.", user.Name))
	return user, nil
}

// UpdateUserName replaces the name of an existing user
func (s *Service) UpdateUserName(ctx context.Context, id, newName string) (*User, error) {
	user, err := s.store.Update(ctx, id, &UserUpdate{Name: &newName})
	if err != nil {
		return nil, NewStoreError("update", id, err)
	}
	if user == nil {
		return nil, NewUserNotFoundError(id)
	}

	s.record(ctx, id, audit.ActionUserRenamed, audit.SeverityInfo,
		fmt.Sprintf("User %s renamed to %s.", id, newName))
	return user, nil
}

// DeactivateUser deletes an existing user.
// The existence check makes a stale id fail with ErrUserNotFound instead of returning false.
func (s *Service) DeactivateUser(ctx context.Context, id string) (bool, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return false, NewStoreError("find_by_id", id, err)
	}
	if existing == nil {
		return false, NewUserNotFoundError(id)
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, NewStoreError("delete", id, err)
	}

	if deleted {
		s.record(ctx, id, audit.ActionUserDeactivated, audit.SeverityInfo,
			fmt.Sprintf("User %s deactivated.", existing.Name))
	}
	return deleted, nil
}

// GetUser retrieves a user by id
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, NewStoreError("find_by_id", id, err)
	}
	if user == nil {
		return nil, NewUserNotFoundError(id)
	}
	return user, nil
}

// ListUsers returns all live users
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, NewStoreError("find_all", "", err)
	}
	return users, nil
}

// record never fails the calling use case; audit write errors are only logged.
// Without an audit log the event goes to the service logger at debug level.
func (s *Service) record(ctx context.Context, userID string, action audit.Action, severity audit.Severity, message string) {
	if s.audit == nil {
		s.logger.Debug(message,
			zap.String("user_id", userID),
			zap.String("action", string(action)),
			zap.String("severity", string(severity)))
		return
	}
	if err := s.audit.Record(ctx, userID, action, severity, message); err != nil {
		s.logger.Warn("Failed to record audit event",
			zap.String("user_id", userID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
