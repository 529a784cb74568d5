package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "prepflow:session"

// RedisStore is a durable backend shared across hosts, for deployments where
// the session core runs behind a fleet of workers rather than a single CLI.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// RedisStoreOptions configure a RedisStore.
type RedisStoreOptions struct {
	Client redis.UniversalClient
	// Key overrides the default record key (e.g. to scope per principal).
	Key string
	// TTL bounds how long an untouched record survives. Zero means no expiry.
	TTL time.Duration
}

// NewRedisStore creates a redis-backed durable store.
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	key := opts.Key
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: opts.Client, key: key, ttl: opts.TTL}, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("redis get: %w", err)
	}

	var rec Record
	if unmarshalErr := json.Unmarshal([]byte(data), &rec); unmarshalErr != nil {
		return Record{}, fmt.Errorf("unmarshal session record: %w", unmarshalErr)
	}
	return rec, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
