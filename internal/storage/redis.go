package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps each set as a native Redis SET, so several devices can
// share one favorites list.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{rdb: rdb, prefix: opts.Prefix}, nil
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

// LoadSet returns the members of the set. A missing key is an empty set.
func (s *RedisStore) LoadSet(ctx context.Context, key string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, s.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return normalize(members), nil
}

// SaveSet replaces the set atomically.
func (s *RedisStore) SaveSet(ctx context.Context, key string, ids []string) error {
	ids = normalize(ids)
	k := s.key(key)

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(ids) > 0 {
			members := make([]interface{}, len(ids))
			for i, id := range ids {
				members[i] = id
			}
			pipe.SAdd(ctx, k, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// AddMember adds one id with SADD.
func (s *RedisStore) AddMember(ctx context.Context, key, id string) error {
	if err := s.rdb.SAdd(ctx, s.key(key), id).Err(); err != nil {
		return fmt.Errorf("failed to add to %s: %w", key, err)
	}
	return nil
}

// RemoveMember removes one id with SREM.
func (s *RedisStore) RemoveMember(ctx context.Context, key, id string) error {
	if err := s.rdb.SRem(ctx, s.key(key), id).Err(); err != nil {
		return fmt.Errorf("failed to remove from %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
