package users

import (
	"context"
)

// UserStore defines the interface for user storage operations.
// Lookups report a missing user as (nil, nil); errors are reserved for backend failures.
type UserStore interface {
	Create(ctx context.Context, req *CreateUserRequest) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, update *UserUpdate) (*User, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindAll(ctx context.Context) ([]*User, error)
}

// Resetter empties a store and restarts id allocation. Test support only.
type Resetter interface {
	Reset(ctx context.Context) error
}

// UserService defines the interface for user service operations
type UserService interface {
	RegisterUser(ctx context.Context, email, name string) (*User, error)
	UpdateUserName(ctx context.Context, id, newName string) (*User, error)
	DeactivateUser(ctx context.Context, id string) (bool, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
}
