package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces every key written by RedisStore
const DefaultRedisKeyPrefix = "eion:users"

// RedisStore implements UserStore on Redis.
// Each user is a hash; a sorted set scored by numeric id indexes live users.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a new redis-backed user store
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) seqKey() string           { return s.prefix + ":seq" }
func (s *RedisStore) idsKey() string           { return s.prefix + ":ids" }
func (s *RedisStore) userKey(id string) string { return s.prefix + ":user:" + id }

// Create allocates an id with INCR and writes the user hash
func (s *RedisStore) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate user id: %w", err)
	}

	user := &User{
		ID:        strconv.FormatInt(seq, 10),
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: s.now().UTC(),
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.userKey(user.ID), userToHash(user))
		pipe.ZAdd(ctx, s.idsKey(), redis.Z{Score: float64(seq), Member: user.ID})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByID retrieves a user by id
func (s *RedisStore) FindByID(ctx context.Context, id string) (*User, error) {
	fields, err := s.client.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return hashToUser(id, fields)
}

// FindByEmail scans live users in id order
func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	users, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

// Update merges update onto the stored user under WATCH.
// A concurrent write to the same user fails the call with redis.TxFailedErr.
func (s *RedisStore) Update(ctx context.Context, id string, update *UserUpdate) (*User, error) {
	key := s.userKey(id)

	var updated *User
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		existing, err := hashToUser(id, fields)
		if err != nil || existing == nil {
			return err
		}

		merged := update.ApplyTo(existing)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, userToHash(merged))
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		updated = merged
		return nil
	}, key)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a user and reports whether one was removed
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.userKey(id))
		pipe.ZRem(ctx, s.idsKey(), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return deleted.Val() > 0, nil
}

// FindAll returns every live user in id order
func (s *RedisStore) FindAll(ctx context.Context) ([]*User, error) {
	ids, err := s.client.ZRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	if len(ids) == 0 {
		return []*User{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.userKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(ids))
	for i, id := range ids {
		user, err := hashToUser(id, cmds[i].Val())
		if err != nil {
			return nil, err
		}
		if user != nil {
			users = append(users, user)
		}
	}
	return users, nil
}

// Reset deletes every user key and the id sequence
func (s *RedisStore) Reset(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list user ids: %w", err)
	}

	keys := []string{s.seqKey(), s.idsKey()}
	for _, id := range ids {
		keys = append(keys, s.userKey(id))
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset users: %w", err)
	}
	return nil
}

func userToHash(user *User) map[string]interface{} {
	return map[string]interface{}{
		"email":      user.Email,
		"name":       user.Name,
		"created_at": user.CreatedAt.Format(time.RFC3339Nano),
	}
}

func hashToUser(id string, fields map[string]string) (*User, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at for user %s: %w", id, err)
	}

	return &User{
		ID:        id,
		Email:     fields["email"],
		Name:      fields["name"],
		CreatedAt: createdAt,
	}, nil
}
