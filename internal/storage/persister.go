package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"coinranking_go/internal/infra"
)

// FavoritesKey is the logical key the favorite id set is stored under.
const FavoritesKey = "FavoriteCoinUUIDs"

var ErrClosed = errors.New("storage: closed")

// Persister stores named sets of identifiers. Order is not preserved.
//
// AddMember and RemoveMember touch a single id and commute, so several
// processes sharing one backend never erase each other's changes. SaveSet
// overwrites the whole set and is meant for restores.
type Persister interface {
	LoadSet(ctx context.Context, key string) ([]string, error)
	SaveSet(ctx context.Context, key string, ids []string) error
	AddMember(ctx context.Context, key, id string) error
	RemoveMember(ctx context.Context, key, id string) error
	Close() error
}

// Open builds the backend selected in config.
func Open(ctx context.Context, cfg *infra.Config, workDir string) (Persister, error) {
	switch cfg.Storage.Driver {
	case infra.StorageSQLite, "":
		return NewSQLiteStore(infra.SQLitePath(workDir, cfg.Storage.SQLitePath))
	case infra.StorageRedis:
		r := cfg.Storage.Redis
		return NewRedisStore(ctx, RedisOptions{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		})
	case infra.StorageMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// normalize drops empties and duplicates and sorts for stable output.
func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
