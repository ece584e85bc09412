// Package favorites holds the user's favorite asset ids. It is the single
// source of truth shared by every screen and broadcasts each change.
package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"coinranking_go/internal/event"
	"coinranking_go/internal/storage"
)

// Store is a write-through favorites set. Reads are served from memory;
// every mutation is persisted before subscribers are told about it.
// Add, Remove and Toggle persist only the affected id.
type Store struct {
	persister storage.Persister
	key       string

	writeMu sync.Mutex // serializes mutate+persist+notify
	mu      sync.RWMutex
	ids     map[string]struct{}

	bus           *event.Bus[event.FavoritesChanged]
	seq           uint64
	suppressNoops bool
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the persistence key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithNoopSuppression skips the change notification when a mutation does
// not alter the set. By default every successful Add/Remove notifies.
func WithNoopSuppression() Option {
	return func(s *Store) { s.suppressNoops = true }
}

// NewStore loads the persisted set once. A failed read is returned as is.
func NewStore(ctx context.Context, p storage.Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		key:       storage.FavoritesKey,
		ids:       make(map[string]struct{}),
		bus:       event.NewBus[event.FavoritesChanged]("favorites"),
	}
	for _, opt := range opts {
		opt(s)
	}

	ids, err := p.LoadSet(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}

	slog.Debug("Favorites loaded", slog.Int("count", len(s.ids)))
	return s, nil
}

// IsFavorite reports membership.
func (s *Store) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// AllIDs returns a sorted copy of the set.
func (s *Store) AllIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the set size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Add inserts id.
func (s *Store) Add(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, func(bool) bool { return true })
	return err
}

// Remove deletes id.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, func(bool) bool { return false })
	return err
}

// Toggle flips membership and returns the new state.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	return s.mutate(ctx, id, func(was bool) bool { return !was })
}

// Replace swaps the whole set, as when restoring an export.
func (s *Store) Replace(ctx context.Context, ids []string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			next[id] = struct{}{}
		}
	}

	s.mu.Lock()
	prev := s.ids
	s.ids = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persister.SaveSet(ctx, s.key, snap); err != nil {
		s.mu.Lock()
		s.ids = prev
		s.mu.Unlock()
		return fmt.Errorf("persist favorites: %w", err)
	}

	s.notify()
	return nil
}

// Sync reloads the persisted set and, when it differs from memory, adopts
// it and notifies subscribers. It picks up changes made by other processes
// sharing the same backend. Nothing is written.
func (s *Store) Sync(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ids, err := s.persister.LoadSet(ctx, s.key)
	if err != nil {
		return false, fmt.Errorf("load favorites: %w", err)
	}

	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			next[id] = struct{}{}
		}
	}

	s.mu.Lock()
	changed := !maps.Equal(s.ids, next)
	if changed {
		s.ids = next
	}
	s.mu.Unlock()

	if changed {
		slog.Debug("Favorites changed externally", slog.Int("count", len(next)))
		s.notify()
	}
	return changed, nil
}

// Watch calls Sync every interval until ctx is done. Load errors are logged
// and the next tick tries again.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("Favorites sync failed", slog.Any("error", err))
			}
		}
	}
}

// Subscribe registers for change notifications. Release with Close.
func (s *Store) Subscribe() *event.Subscription[event.FavoritesChanged] {
	return s.bus.Subscribe()
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	return s.bus.Subscribers()
}

// Close releases every subscription.
func (s *Store) Close() {
	s.bus.Close()
}

func (s *Store) mutate(ctx context.Context, id string, want func(was bool) bool) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("favorites: empty id")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	_, was := s.ids[id]
	now := want(was)
	if was == now {
		s.mu.Unlock()
		if !s.suppressNoops {
			s.notify()
		}
		return now, nil
	}
	s.set(id, now)
	s.mu.Unlock()

	persist := s.persister.RemoveMember
	if now {
		persist = s.persister.AddMember
	}
	if err := persist(ctx, s.key, id); err != nil {
		s.mu.Lock()
		s.set(id, was)
		s.mu.Unlock()
		slog.Warn("Favorites persist failed, change rolled back",
			slog.String("id", id),
			slog.Any("error", err))
		return was, fmt.Errorf("persist favorites: %w", err)
	}

	s.notify()
	return now, nil
}

// set must be called with mu held.
func (s *Store) set(id string, on bool) {
	if on {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
}

func (s *Store) snapshotLocked() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// notify must be called with writeMu held so seq and publish order agree.
func (s *Store) notify() {
	s.bus.Publish(event.FavoritesChanged{BaseEvent: event.NewBase(&s.seq)})
}
