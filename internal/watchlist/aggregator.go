// Package watchlist derives the favorites screen from one bulk catalog
// window filtered by the favorite set.
package watchlist

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"coinranking_go/internal/domain"
	"coinranking_go/internal/engine"
	"coinranking_go/internal/event"
)

// DefaultWindow is how many top-ranked coins a refresh looks at. Favorites
// ranked below the window are not shown.
const DefaultWindow = 100

const source = "watchlist"

type Fetcher interface {
	Coins(ctx context.Context, offset, limit int) ([]domain.Asset, error)
}

// FavoritesSource is the part of the favorites store the aggregator reads.
type FavoritesSource interface {
	AllIDs() []string
	Subscribe() *event.Subscription[event.FavoritesChanged]
}

// Aggregator keeps the watchlist in step with the favorites store. It
// refreshes on every store notification for as long as it lives.
type Aggregator struct {
	fetcher   Fetcher
	favorites FavoritesSource
	window    int
	loop      *engine.Sequencer
	sub       *event.Subscription[event.FavoritesChanged]
	flight    singleflight.Group

	// owned by loop
	coins []domain.Asset
	gen   uint64
	evSeq uint64

	view    atomic.Pointer[[]domain.Asset]
	updates *event.Bus[event.WatchlistUpdated]
	errors  *event.Bus[event.Failure]

	listenDone chan struct{}
	closeOnce  sync.Once
	refreshes  atomic.Int64
}

type Option func(*Aggregator)

// WithWindow sets the bulk window size.
func WithWindow(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.window = n
		}
	}
}

// NewAggregator subscribes to the store immediately. Call Close to release it.
func NewAggregator(fetcher Fetcher, favorites FavoritesSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:    fetcher,
		favorites:  favorites,
		window:     DefaultWindow,
		coins:      []domain.Asset{},
		updates:    event.NewBus[event.WatchlistUpdated]("watchlist.updates"),
		errors:     event.NewBus[event.Failure]("watchlist.errors"),
		listenDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	empty := []domain.Asset{}
	a.view.Store(&empty)
	a.loop = engine.NewSequencer(source, 16)
	a.sub = favorites.Subscribe()

	go a.listen()
	return a
}

func (a *Aggregator) listen() {
	defer close(a.listenDone)
	for range a.sub.C {
		// Each notification gets its own refresh; concurrent ones share a
		// single request and only the newest result is applied.
		go func() {
			if err := a.Refresh(context.Background()); err != nil {
				slog.Debug("Watchlist refresh after change failed", slog.Any("error", err))
			}
		}()
	}
}

// Refresh re-derives the watchlist. With no favorites it publishes an empty
// list without touching the network.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.refreshes.Add(1)

	var (
		ids []string
		gen uint64
	)
	if err := a.loop.Do(ctx, func() {
		a.gen++
		gen = a.gen
		ids = a.favorites.AllIDs()
	}); err != nil {
		return err
	}

	if len(ids) == 0 {
		return a.apply(ctx, gen, []domain.Asset{}, nil)
	}

	res, err, shared := a.flight.Do("window", func() (interface{}, error) {
		return a.fetcher.Coins(context.WithoutCancel(ctx), 0, a.window)
	})
	if shared {
		slog.Debug("Watchlist refresh shared an in-flight request")
	}

	var filtered []domain.Asset
	if err == nil {
		filtered = filter(res.([]domain.Asset), ids)
	}
	return a.apply(ctx, gen, filtered, err)
}

func (a *Aggregator) apply(ctx context.Context, gen uint64, coins []domain.Asset, fetchErr error) error {
	err := a.loop.Do(context.WithoutCancel(ctx), func() {
		if gen != a.gen {
			slog.Debug("Stale watchlist result discarded", slog.Uint64("gen", gen))
			return
		}
		if fetchErr != nil {
			slog.Warn("Watchlist fetch failed", slog.Any("error", fetchErr))
			a.errors.Publish(event.Failure{
				BaseEvent: event.NewBase(&a.evSeq),
				Source:    source,
				Error:     domain.NewAppError(domain.DefaultErrorTitle, fetchErr),
			})
			return
		}
		a.coins = coins
		a.view.Store(&coins)
		a.updates.Publish(event.WatchlistUpdated{
			BaseEvent: event.NewBase(&a.evSeq),
			Coins:     slices.Clone(coins),
		})
	})
	if err != nil {
		return err
	}
	return fetchErr
}

// filter keeps window order.
func filter(window []domain.Asset, ids []string) []domain.Asset {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]domain.Asset, 0, len(ids))
	for _, c := range window {
		if _, ok := want[c.UUID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Coins returns the last published watchlist.
func (a *Aggregator) Coins() []domain.Asset {
	return slices.Clone(*a.view.Load())
}

// Refreshes counts Refresh calls, including those triggered by notifications.
func (a *Aggregator) Refreshes() int64 {
	return a.refreshes.Load()
}

func (a *Aggregator) Updates() *event.Bus[event.WatchlistUpdated] { return a.updates }

func (a *Aggregator) Errors() *event.Bus[event.Failure] { return a.errors }

// Close releases the store subscription and stops the owner loop.
func (a *Aggregator) Close() {
	a.closeOnce.Do(func() {
		a.sub.Close()
		<-a.listenDone
		a.loop.Stop()
		a.updates.Close()
		a.errors.Close()
	})
}
