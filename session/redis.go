package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the session snapshot in Redis so a restarted or
// horizontally scaled gateway resumes the user without a fresh login. One
// RedisStore maps to one browser context; gateways allocate a distinct key
// per end-user context.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a store writing under prefix:key. A zero ttl keeps
// snapshots until explicitly cleared.
func NewRedisStore(rdb *redis.Client, prefix, key string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "sa"
	}
	if key == "" {
		key = "default"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, key: key, ttl: ttl}
}

func (s *RedisStore) redisKey() string {
	return s.prefix + ":session:" + s.key
}

// Current loads and decodes the stored snapshot. A missing key means
// anonymous, not an error.
func (s *RedisStore) Current(ctx context.Context) (*User, error) {
	data, err := s.rdb.Get(ctx, s.redisKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return decodeUser(data)
}

// Set stores the snapshot, refreshing the TTL. A nil user clears instead.
func (s *RedisStore) Set(ctx context.Context, u *User) error {
	if u == nil {
		return s.Clear(ctx)
	}
	encoded, err := encodeUser(u)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.redisKey(), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Clear deletes the snapshot. Deleting an absent key is not an error.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.redisKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
