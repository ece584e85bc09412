// Package catalog drives the paginated, sortable asset list.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"

	"coinranking_go/internal/domain"
	"coinranking_go/internal/engine"
	"coinranking_go/internal/event"
)

// Fetcher loads one page of the ranked list.
type Fetcher interface {
	Coins(ctx context.Context, offset, limit int) ([]domain.Asset, error)
}

// FavoritesService is the part of the favorites store the catalog uses.
type FavoritesService interface {
	IsFavorite(id string) bool
	Toggle(ctx context.Context, id string) (bool, error)
}

const source = "catalog"

// Controller owns the accumulated raw list, the pagination state and the
// active sort. All state changes run on its sequencer; network calls do not.
type Controller struct {
	fetcher   Fetcher
	favorites FavoritesService
	loop      *engine.Sequencer

	// owned by loop
	raw       []domain.Asset
	page      domain.PaginationState
	criterion domain.SortCriterion
	evSeq     uint64

	view    atomic.Pointer[event.CatalogUpdated]
	updates *event.Bus[event.CatalogUpdated]
	errors  *event.Bus[event.Failure]
}

// Option configures a Controller.
type Option func(*Controller)

func WithPageSize(n int) Option {
	return func(c *Controller) { c.page = domain.NewPaginationState(n, c.page.Cap) }
}

func WithMaxItems(n int) Option {
	return func(c *Controller) { c.page = domain.NewPaginationState(c.page.Limit, n) }
}

func WithCriterion(sc domain.SortCriterion) Option {
	return func(c *Controller) { c.criterion = sc }
}

func NewController(fetcher Fetcher, favorites FavoritesService, opts ...Option) *Controller {
	c := &Controller{
		fetcher:   fetcher,
		favorites: favorites,
		page:      domain.NewPaginationState(domain.DefaultPageSize, domain.DefaultMaxItems),
		criterion: domain.ByRank(),
		updates:   event.NewBus[event.CatalogUpdated]("catalog.updates"),
		errors:    event.NewBus[event.Failure]("catalog.errors"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.loop = engine.NewSequencer(source, 64)
	c.view.Store(&event.CatalogUpdated{
		Assets:     []domain.Asset{},
		Criterion:  c.criterion,
		Pagination: c.page,
	})
	return c
}

// FetchNextPage loads the next page. It returns nil without doing anything
// when a fetch is already running or the cap is reached. Otherwise exactly
// one notification follows: an update on success, a failure on error.
func (c *Controller) FetchNextPage(ctx context.Context) error {
	var (
		started       bool
		offset, limit int
	)
	err := c.loop.Do(ctx, func() {
		if !c.page.CanFetch() {
			return
		}
		c.page.InFlight = true
		offset, limit = c.page.Offset, c.page.NextLimit()
		started = true
	})
	if err != nil || !started {
		return err
	}

	assets, fetchErr := c.fetcher.Coins(ctx, offset, limit)

	// Completion runs even if ctx was cancelled so the in-flight flag clears.
	err = c.loop.Do(context.WithoutCancel(ctx), func() {
		c.page.InFlight = false
		if fetchErr != nil {
			c.fail(fetchErr, slog.Int("offset", offset))
			return
		}
		c.raw = append(c.raw, assets...)
		c.page.Advance()
		c.publish()
		slog.Debug("Catalog page applied",
			slog.Int("offset", offset),
			slog.Int("received", len(assets)),
			slog.Int("total", len(c.raw)))
	})
	if err != nil {
		slog.Debug("Catalog page discarded", slog.Int("offset", offset), slog.Any("error", err))
		return err
	}
	return fetchErr
}

// Refresh reloads the first page and replaces the accumulated list.
// It is a no-op while a fetch is running.
func (c *Controller) Refresh(ctx context.Context) error {
	var (
		started bool
		limit   int
	)
	err := c.loop.Do(ctx, func() {
		if c.page.InFlight {
			return
		}
		c.page.InFlight = true
		limit = min(c.page.Limit, c.page.Cap)
		started = true
	})
	if err != nil || !started {
		return err
	}

	assets, fetchErr := c.fetcher.Coins(ctx, 0, limit)

	err = c.loop.Do(context.WithoutCancel(ctx), func() {
		c.page.InFlight = false
		if fetchErr != nil {
			c.fail(fetchErr, slog.Bool("refresh", true))
			return
		}
		c.raw = slices.Clone(assets)
		c.page.Offset = 0
		c.page.Advance()
		c.publish()
	})
	if err != nil {
		return err
	}
	return fetchErr
}

// ApplyFilter re-sorts the accumulated list. No network call is made.
func (c *Controller) ApplyFilter(criterion domain.SortCriterion) error {
	return c.loop.Do(context.Background(), func() {
		c.criterion = criterion
		c.publish()
	})
}

// IsFavorite delegates to the favorites store.
func (c *Controller) IsFavorite(asset domain.Asset) bool {
	return c.favorites.IsFavorite(asset.UUID)
}

// ToggleFavorite delegates to the favorites store and returns the new state.
func (c *Controller) ToggleFavorite(ctx context.Context, asset domain.Asset) (bool, error) {
	return c.favorites.Toggle(ctx, asset.UUID)
}

// Assets returns the current sorted view.
func (c *Controller) Assets() []domain.Asset {
	return slices.Clone(c.view.Load().Assets)
}

func (c *Controller) Criterion() domain.SortCriterion {
	return c.view.Load().Criterion
}

func (c *Controller) Pagination() domain.PaginationState {
	return c.view.Load().Pagination
}

// Updates streams every re-derived view.
func (c *Controller) Updates() *event.Bus[event.CatalogUpdated] { return c.updates }

// Errors streams user-facing failures.
func (c *Controller) Errors() *event.Bus[event.Failure] { return c.errors }

// Close stops the owner loop. Results of fetches still running are dropped.
func (c *Controller) Close() {
	c.loop.Stop()
	c.updates.Close()
	c.errors.Close()
}

// publish must run on loop.
func (c *Controller) publish() {
	ev := event.CatalogUpdated{
		BaseEvent:  event.NewBase(&c.evSeq),
		Assets:     c.criterion.Sort(c.raw),
		Criterion:  c.criterion,
		Pagination: c.page,
	}
	c.view.Store(&ev)
	c.updates.Publish(ev)
}

// fail must run on loop.
func (c *Controller) fail(err error, attrs ...any) {
	slog.Warn("Catalog fetch failed", append(attrs, slog.Any("error", err))...)

	// Keep the pagination snapshot current (in-flight cleared).
	cur := *c.view.Load()
	cur.Pagination = c.page
	c.view.Store(&cur)

	c.errors.Publish(event.Failure{
		BaseEvent: event.NewBase(&c.evSeq),
		Source:    source,
		Error:     domain.NewAppError(domain.DefaultErrorTitle, err),
	})
}
