// Package detail loads one asset's detail record and its price history.
package detail

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"coinranking_go/internal/domain"
	"coinranking_go/internal/engine"
	"coinranking_go/internal/event"
	"coinranking_go/internal/infra/coinranking"
)

// Fetcher is the part of the API client the detail screen needs.
type Fetcher interface {
	Coin(ctx context.Context, id string) (domain.AssetDetail, error)
	History(ctx context.Context, id string, period domain.TimePeriod) ([]domain.HistoryPoint, error)
}

// FavoritesService is the part of the favorites store the detail screen uses.
type FavoritesService interface {
	IsFavorite(id string) bool
	Toggle(ctx context.Context, id string) (bool, error)
}

type snapshot struct {
	detail  *domain.AssetDetail
	history []domain.HistoryPoint
	period  domain.TimePeriod
}

// Controller is bound to one coin for its whole life.
type Controller struct {
	coinUUID  string
	fetcher   Fetcher
	favorites FavoritesService
	loop      *engine.Sequencer

	// owned by loop
	detail  *domain.AssetDetail
	history []domain.HistoryPoint
	period  domain.TimePeriod
	gen     uint64
	evSeq   uint64

	state     atomic.Pointer[snapshot]
	details   *event.Bus[event.DetailLoaded]
	histories *event.Bus[event.HistoryLoaded]
}

type Option func(*Controller)

// WithDefaultPeriod sets the period FetchAll loads.
func WithDefaultPeriod(p domain.TimePeriod) Option {
	return func(c *Controller) {
		if p.Valid() {
			c.period = p
		}
	}
}

func NewController(coinUUID string, fetcher Fetcher, favorites FavoritesService, opts ...Option) *Controller {
	c := &Controller{
		coinUUID:  coinUUID,
		fetcher:   fetcher,
		favorites: favorites,
		period:    domain.DefaultPeriod,
		history:   []domain.HistoryPoint{},
		details:   event.NewBus[event.DetailLoaded]("detail.details"),
		histories: event.NewBus[event.HistoryLoaded]("detail.history"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.loop = engine.NewSequencer("detail:"+coinUUID, 16)
	c.syncState()
	return c
}

// CoinUUID returns the held identifier.
func (c *Controller) CoinUUID() string { return c.coinUUID }

// FetchAll loads the detail record and the history for the current period
// in parallel. Each result is published as soon as it lands. A detail
// failure is only logged; a history failure clears the chart.
func (c *Controller) FetchAll(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error { return c.loadDetail(ctx) })
	g.Go(func() error {
		var (
			gen    uint64
			period domain.TimePeriod
		)
		if err := c.loop.Do(ctx, func() {
			c.gen++
			gen, period = c.gen, c.period
		}); err != nil {
			return err
		}
		return c.loadHistory(ctx, gen, period)
	})

	return g.Wait()
}

// FetchHistory switches the chart to period. Nothing happens when period is
// already shown and has data. The period becomes current before the request
// starts; a response for a period that has since been replaced is dropped.
// An unknown period is rejected before any state changes.
func (c *Controller) FetchHistory(ctx context.Context, period domain.TimePeriod) error {
	if !period.Valid() {
		return &coinranking.RequestError{
			Endpoint: "coin/" + c.coinUUID + "/history",
			Reason:   fmt.Sprintf("unknown time period %q", period),
		}
	}

	var (
		gen  uint64
		skip bool
	)
	err := c.loop.Do(ctx, func() {
		if period == c.period && len(c.history) > 0 {
			skip = true
			return
		}
		c.period = period
		c.gen++
		gen = c.gen
		c.syncState()
	})
	if err != nil || skip {
		return err
	}
	return c.loadHistory(ctx, gen, period)
}

func (c *Controller) loadDetail(ctx context.Context) error {
	d, fetchErr := c.fetcher.Coin(ctx, c.coinUUID)

	err := c.loop.Do(context.WithoutCancel(ctx), func() {
		if fetchErr != nil {
			slog.Warn("Asset detail fetch failed",
				slog.String("coin", c.coinUUID),
				slog.Any("error", fetchErr))
			return
		}
		c.detail = &d
		c.syncState()
		c.details.Publish(event.DetailLoaded{BaseEvent: event.NewBase(&c.evSeq), Detail: d})
	})
	if err != nil {
		return err
	}
	return fetchErr
}

func (c *Controller) loadHistory(ctx context.Context, gen uint64, period domain.TimePeriod) error {
	points, fetchErr := c.fetcher.History(ctx, c.coinUUID, period)

	err := c.loop.Do(context.WithoutCancel(ctx), func() {
		if gen != c.gen {
			slog.Debug("Stale history discarded",
				slog.String("coin", c.coinUUID),
				slog.String("period", string(period)))
			return
		}
		if fetchErr != nil {
			slog.Warn("History fetch failed, clearing chart",
				slog.String("coin", c.coinUUID),
				slog.String("period", string(period)),
				slog.Any("error", fetchErr))
			c.history = []domain.HistoryPoint{}
		} else {
			c.history = slices.Clone(points)
			if c.history == nil {
				c.history = []domain.HistoryPoint{}
			}
		}
		c.syncState()
		c.histories.Publish(event.HistoryLoaded{
			BaseEvent: event.NewBase(&c.evSeq),
			CoinUUID:  c.coinUUID,
			Period:    period,
			Points:    slices.Clone(c.history),
		})
	})
	if err != nil {
		return err
	}
	return fetchErr
}

// IsFavorite reports whether the held coin is a favorite.
func (c *Controller) IsFavorite() bool {
	return c.favorites.IsFavorite(c.coinUUID)
}

// ToggleFavorite flips the held coin's favorite state.
func (c *Controller) ToggleFavorite(ctx context.Context) (bool, error) {
	return c.favorites.Toggle(ctx, c.coinUUID)
}

// Detail returns the loaded record, if any.
func (c *Controller) Detail() (domain.AssetDetail, bool) {
	s := c.state.Load()
	if s.detail == nil {
		return domain.AssetDetail{}, false
	}
	return *s.detail, true
}

func (c *Controller) HistoryPoints() []domain.HistoryPoint {
	return slices.Clone(c.state.Load().history)
}

func (c *Controller) Period() domain.TimePeriod {
	return c.state.Load().period
}

func (c *Controller) Details() *event.Bus[event.DetailLoaded] { return c.details }

func (c *Controller) History() *event.Bus[event.HistoryLoaded] { return c.histories }

// Close stops the owner loop; late responses are dropped.
func (c *Controller) Close() {
	c.loop.Stop()
	c.details.Close()
	c.histories.Close()
}

// syncState must run on loop (or before the loop starts).
func (c *Controller) syncState() {
	c.state.Store(&snapshot{
		detail:  c.detail,
		history: c.history,
		period:  c.period,
	})
}
