package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// UserSchema represents the users table schema
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Email     string    `bun:"email,notnull" json:"email"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// BunStore implements the UserStore interface on top of a bun database.
// It works with both the PostgreSQL and SQLite dialects.
type BunStore struct {
	db  *bun.DB
	now func() time.Time
}

// NewBunStore creates a new bun-backed user store. The users table must already exist.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{
		db:  db,
		now: time.Now,
	}
}

// Create inserts a new user and lets the database allocate its id
func (s *BunStore) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	schema := &UserSchema{
		Email: req.Email,
		Name:  req.Name,
		// postgres keeps microseconds, so round here to return what a re-read returns
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.db.NewInsert().
		Model(schema).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return UserSchemaToUser(schema), nil
}

// FindByID retrieves a user by id
func (s *BunStore) FindByID(ctx context.Context, id string) (*User, error) {
	pk, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	return s.selectOne(ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", pk)
	})
}

// FindByEmail retrieves the lowest-id user holding email
func (s *BunStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.selectOne(ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email).Order("id ASC").Limit(1)
	})
}

// Update merges update onto the stored user inside a transaction
func (s *BunStore) Update(ctx context.Context, id string, update *UserUpdate) (*User, error) {
	pk, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var updated *User
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.selectOne(ctx, tx, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("id = ?", pk)
		})
		if err != nil || existing == nil {
			return err
		}

		merged := update.ApplyTo(existing)
		schema := UserToUserSchema(merged)

		_, err = tx.NewUpdate().
			Model(&schema).
			Column("email", "name").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		updated = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a user and reports whether a row was removed
func (s *BunStore) Delete(ctx context.Context, id string) (bool, error) {
	pk, ok := parseID(id)
	if !ok {
		return false, nil
	}

	result, err := s.db.NewDelete().
		Model((*UserSchema)(nil)).
		Where("id = ?", pk).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// FindAll returns every stored user in id order
func (s *BunStore) FindAll(ctx context.Context) ([]*User, error) {
	var schemas []UserSchema
	err := s.db.NewSelect().
		Model(&schemas).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(schemas))
	for i := range schemas {
		users = append(users, UserSchemaToUser(&schemas[i]))
	}
	return users, nil
}

// Reset deletes every user and restarts the id sequence
func (s *BunStore) Reset(ctx context.Context) error {
	switch s.db.Dialect().Name() {
	case dialect.PG:
		if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE users RESTART IDENTITY"); err != nil {
			return fmt.Errorf("failed to reset users: %w", err)
		}
	case dialect.SQLite:
		if _, err := s.db.ExecContext(ctx, "DELETE FROM users"); err != nil {
			return fmt.Errorf("failed to reset users: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = 'users'"); err != nil {
			return fmt.Errorf("failed to reset user id sequence: %w", err)
		}
	default:
		return fmt.Errorf("reset not supported for dialect %d", s.db.Dialect().Name())
	}
	return nil
}

func (s *BunStore) selectOne(ctx context.Context, db bun.IDB, where func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	schema := new(UserSchema)
	err := where(db.NewSelect().Model(schema)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return UserSchemaToUser(schema), nil
}

// parseID reports false for ids the database could never have allocated
func parseID(id string) (int64, bool) {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil || pk <= 0 {
		return 0, false
	}
	return pk, true
}

// Helper conversion functions
func UserSchemaToUser(schema *UserSchema) *User {
	return &User{
		ID:        strconv.FormatInt(schema.ID, 10),
		Email:     schema.Email,
		Name:      schema.Name,
		CreatedAt: schema.CreatedAt.UTC(),
	}
}

func UserToUserSchema(user *User) UserSchema {
	pk, _ := parseID(user.ID)
	return UserSchema{
		ID:        pk,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}
