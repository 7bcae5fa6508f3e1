// Package persist keeps durable snapshots of session collections in Redis.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stable snapshot names.
const (
	CartKey     = "cart-storage"
	WishlistKey = "wishlist-storage"
)

// SchemaVersion is written into every snapshot envelope.
const SchemaVersion = 1

// ErrUnsupportedVersion is returned by Load for snapshots written by a newer
// schema than this build understands.
var ErrUnsupportedVersion = errors.New("persist: unsupported snapshot version")

// Store loads and saves named snapshots for a session.
type Store interface {
	Load(ctx context.Context, session, name string, dst any) (bool, error)
	Save(ctx context.Context, session, name string, v any) error
	Delete(ctx context.Context, session, name string) error
}

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// RedisStore writes snapshots as JSON envelopes under
// storefront:{session}:{name}.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a store whose keys expire after ttl of inactivity;
// ttl 0 keeps them forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Key is the Redis key holding snapshot name for session.
func Key(session, name string) string {
	return fmt.Sprintf("storefront:%s:%s", session, name)
}

// Load decodes the snapshot into dst. It reports false when no snapshot exists.
func (s *RedisStore) Load(ctx context.Context, session, name string, dst any) (bool, error) {
	// redis/go-redis/v9: redis.Nil signals a missing key, not a failure.
	val, err := s.rdb.Get(ctx, Key(session, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", name, err)
	}
	var env envelope
	if err := json.Unmarshal(val, &env); err != nil {
		return false, fmt.Errorf("decode %s envelope: %w", name, err)
	}
	if env.Version > SchemaVersion {
		return false, fmt.Errorf("%s version %d: %w", name, env.Version, ErrUnsupportedVersion)
	}
	if len(env.State) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(env.State, dst); err != nil {
		return false, fmt.Errorf("decode %s state: %w", name, err)
	}
	return true, nil
}

// Save overwrites the snapshot and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, session, name string, v any) error {
	state, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	data, err := json.Marshal(envelope{Version: SchemaVersion, State: state})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", name, err)
	}
	if err := s.rdb.Set(ctx, Key(session, name), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Delete removes the snapshot; a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, session, name string) error {
	return s.rdb.Del(ctx, Key(session, name)).Err()
}
