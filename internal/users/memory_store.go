package users

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

// InMemoryStore implements UserStore with volatile in-process storage
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[string]*User
	nextID int64
	now    func() time.Time
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[string]*User),
		nextID: 1,
		now:    time.Now,
	}
}

// Create stores a new user under the next id
func (s *InMemoryStore) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &User{
		ID:        strconv.FormatInt(s.nextID, 10),
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: s.now(),
	}
	s.nextID++

	s.users[user.ID] = user.Clone()
	return user, nil
}

// FindByID retrieves a user by id
func (s *InMemoryStore) FindByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.users[id].Clone(), nil
}

// FindByEmail returns the lowest-id user holding email
func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.sorted() {
		if user.Email == email {
			return user.Clone(), nil
		}
	}
	return nil, nil
}

// Update merges update onto the stored user
func (s *InMemoryStore) Update(ctx context.Context, id string, update *UserUpdate) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[id]
	if !exists {
		return nil, nil
	}

	updated := update.ApplyTo(existing)
	s.users[id] = updated
	return updated.Clone(), nil
}

// Delete removes a user and reports whether one was removed
func (s *InMemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return false, nil
	}

	delete(s.users, id)
	return true, nil
}

// FindAll returns every stored user in id order
func (s *InMemoryStore) FindAll(ctx context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.sorted()
	users := make([]*User, 0, len(stored))
	for _, user := range stored {
		users = append(users, user.Clone())
	}
	return users, nil
}

// Reset empties the store and restarts ids at 1
func (s *InMemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*User)
	s.nextID = 1
	return nil
}

// sorted must be called with mu held
func (s *InMemoryStore) sorted() []*User {
	users := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return idLess(users[i].ID, users[j].ID)
	})
	return users
}

// idLess orders numeric ids numerically, falling back to string order
func idLess(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr != nil || berr != nil {
		return a < b
	}
	return ai < bi
}
