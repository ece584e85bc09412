package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"coinranking_go/internal/domain"
	"coinranking_go/internal/engine"
	"coinranking_go/internal/favorites"
	"coinranking_go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct{ offset, limit int }

// fakeFetcher serves a synthetic ranked universe of total coins.
type fakeFetcher struct {
	mu    sync.Mutex
	total int
	calls []call
	err   error
	empty bool
	gate  chan struct{} // when set, each call blocks until it receives
}

func (f *fakeFetcher) Coins(ctx context.Context, offset, limit int) ([]domain.Asset, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{offset, limit})
	gate, err, empty, total := f.gate, f.err, f.empty, f.total
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if empty {
		return []domain.Asset{}, nil
	}
	var out []domain.Asset
	for i := offset; i < min(offset+limit, total); i++ {
		out = append(out, asset(fmt.Sprintf("id-%03d", i), i+1, "", ""))
	}
	return out, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func strp(s string) *string { return &s }

func asset(id string, rank int, price, change string) domain.Asset {
	a := domain.Asset{UUID: id, Rank: rank, Name: id, Symbol: id, Sparkline: []*string{}}
	if price != "" {
		a.Price = strp(price)
	}
	if change != "" {
		a.Change = strp(change)
	}
	return a
}

func newFavorites(t *testing.T) *favorites.Store {
	t.Helper()
	s, err := favorites.NewStore(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func newController(t *testing.T, f Fetcher, opts ...Option) *Controller {
	t.Helper()
	c := NewController(f, newFavorites(t), opts...)
	t.Cleanup(c.Close)
	return c
}

func symbols(assets []domain.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Symbol
	}
	return out
}

func TestFetchNextPage_StopsAtCap(t *testing.T) {
	f := &fakeFetcher{total: 1000}
	c := newController(t, f)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, c.FetchNextPage(ctx))
	}

	assert.Equal(t, 5, f.callCount())
	assert.Len(t, c.Assets(), 100)
	for i, cl := range f.calls {
		assert.Equal(t, call{offset: i * 20, limit: 20}, cl)
	}
	p := c.Pagination()
	assert.Equal(t, 100, p.Offset)
	assert.True(t, p.Exhausted())
	assert.False(t, p.InFlight)
}

func TestFetchNextPage_LastPageClampedToCap(t *testing.T) {
	f := &fakeFetcher{total: 1000}
	c := newController(t, f, WithPageSize(30), WithMaxItems(100))
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, c.FetchNextPage(ctx))
	}
	require.Equal(t, 4, f.callCount())
	assert.Equal(t, call{offset: 90, limit: 10}, f.calls[3])
	assert.Len(t, c.Assets(), 100)
	assert.Equal(t, 100, c.Pagination().Offset)
}

func TestFetchNextPage_RawLengthIsSumOfReturned(t *testing.T) {
	f := &fakeFetcher{total: 45} // short upstream: 20 + 20 + 5 + 0 + 0
	c := newController(t, f)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.FetchNextPage(ctx))
	}
	assert.Len(t, c.Assets(), 45)
	assert.Equal(t, 100, c.Pagination().Offset)
}

func TestFetchNextPage_RejectsWhileInFlight(t *testing.T) {
	f := &fakeFetcher{total: 100, gate: make(chan struct{})}
	c := newController(t, f)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.FetchNextPage(ctx) }()

	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, time.Millisecond)

	// Second call returns immediately without a new request.
	require.NoError(t, c.FetchNextPage(ctx))
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, 1, f.callCount())

	close(f.gate)
	require.NoError(t, <-done)
	assert.Len(t, c.Assets(), 20)
}

func TestFetchNextPage_NotifiesOncePerCall(t *testing.T) {
	f := &fakeFetcher{total: 100}
	c := newController(t, f)
	updates := c.Updates().Subscribe()
	defer updates.Close()
	failures := c.Errors().Subscribe()
	defer failures.Close()
	ctx := context.Background()

	require.NoError(t, c.FetchNextPage(ctx))

	f.mu.Lock()
	f.err = errors.New("boom")
	f.mu.Unlock()
	require.Error(t, c.FetchNextPage(ctx))

	select {
	case ev := <-updates.C:
		assert.Len(t, ev.Assets, 20)
		assert.Equal(t, 20, ev.Pagination.Offset)
	case <-time.After(time.Second):
		t.Fatal("missing update")
	}
	select {
	case ev := <-failures.C:
		assert.Equal(t, "catalog", ev.Source)
		assert.Equal(t, domain.DefaultErrorTitle, ev.Error.Title)
	case <-time.After(time.Second):
		t.Fatal("missing failure")
	}

	select {
	case <-updates.C:
		t.Fatal("failure must not publish an update")
	case <-failures.C:
		t.Fatal("only one failure expected")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFetchNextPage_FailureLeavesStateAndAllowsRetry(t *testing.T) {
	f := &fakeFetcher{total: 100}
	c := newController(t, f)
	ctx := context.Background()
	require.NoError(t, c.FetchNextPage(ctx))

	f.mu.Lock()
	f.err = errors.New("offline")
	f.mu.Unlock()

	err := c.FetchNextPage(ctx)
	require.Error(t, err)
	assert.Len(t, c.Assets(), 20)
	p := c.Pagination()
	assert.Equal(t, 20, p.Offset)
	assert.False(t, p.InFlight)

	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()

	require.NoError(t, c.FetchNextPage(ctx))
	assert.Len(t, c.Assets(), 40)
	assert.Equal(t, call{offset: 20, limit: 20}, f.calls[2])
}

func TestFetchNextPage_EmptyPageAtStart(t *testing.T) {
	f := &fakeFetcher{empty: true}
	c := newController(t, f)
	ctx := context.Background()

	require.NoError(t, c.FetchNextPage(ctx))
	assert.Empty(t, c.Assets())
	p := c.Pagination()
	assert.Equal(t, 20, p.Offset)
	assert.True(t, p.CanFetch())

	require.NoError(t, c.FetchNextPage(ctx))
	assert.Equal(t, 2, f.callCount())
}

func TestFetchNextPage_CancelledContextClearsInFlight(t *testing.T) {
	f := &fakeFetcher{err: context.Canceled, gate: make(chan struct{})}
	c := newController(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.FetchNextPage(ctx) }()
	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, time.Millisecond)

	cancel()
	close(f.gate)

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, c.Pagination().InFlight)
}

func TestApplyFilter_SpecScenario(t *testing.T) {
	f := &staticFetcher{assets: []domain.Asset{
		asset("ADA", 3, "5000", "10.0"),
		asset("BTC", 1, "10000", "1.0"),
		asset("ETH", 2, "3000", "-5.0"),
	}}
	c := newController(t, f)
	require.NoError(t, c.FetchNextPage(context.Background()))

	assert.Equal(t, []string{"BTC", "ETH", "ADA"}, symbols(c.Assets()))

	require.NoError(t, c.ApplyFilter(domain.ByPrice(domain.Descending)))
	assert.Equal(t, []string{"BTC", "ADA", "ETH"}, symbols(c.Assets()))

	require.NoError(t, c.ApplyFilter(domain.ByChange24h(domain.Descending)))
	assert.Equal(t, []string{"ADA", "BTC", "ETH"}, symbols(c.Assets()))

	require.NoError(t, c.ApplyFilter(domain.SortCriterion{Key: domain.SortByRank, Direction: domain.Ascending}))
	assert.Equal(t, []string{"BTC", "ETH", "ADA"}, symbols(c.Assets()))

	require.NoError(t, c.ApplyFilter(domain.ByPrice(domain.Ascending)))
	assert.Equal(t, []string{"ETH", "ADA", "BTC"}, symbols(c.Assets()))

	assert.Equal(t, 1, f.calls, "filtering must not hit the network")
}

func TestApplyFilter_Idempotent(t *testing.T) {
	f := &staticFetcher{assets: []domain.Asset{
		asset("a", 1, "5", ""),
		asset("b", 2, "", "1"),
		asset("c", 3, "5", "2"),
		asset("d", 4, "junk", "0"),
	}}
	c := newController(t, f)
	require.NoError(t, c.FetchNextPage(context.Background()))

	for _, sc := range domain.MenuCriteria() {
		require.NoError(t, c.ApplyFilter(sc))
		first := c.Assets()
		require.NoError(t, c.ApplyFilter(sc))
		assert.Equal(t, first, c.Assets(), sc.String())
		assert.Equal(t, sc, c.Criterion())
	}
}

func TestRefresh_ReplacesList(t *testing.T) {
	f := &fakeFetcher{total: 100}
	c := newController(t, f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.FetchNextPage(ctx))
	}
	require.Len(t, c.Assets(), 60)

	require.NoError(t, c.Refresh(ctx))
	assert.Len(t, c.Assets(), 20)
	assert.Equal(t, 20, c.Pagination().Offset)
	assert.Equal(t, call{offset: 0, limit: 20}, f.calls[3])

	// Refresh after the cap re-opens pagination.
	for i := 0; i < 10; i++ {
		require.NoError(t, c.FetchNextPage(ctx))
	}
	require.NoError(t, c.Refresh(ctx))
	assert.True(t, c.Pagination().CanFetch())
}

func TestClose_DiscardsInFlightResult(t *testing.T) {
	f := &fakeFetcher{total: 100, gate: make(chan struct{})}
	c := NewController(f, newFavorites(t))
	updates := c.Updates().Subscribe()

	done := make(chan error, 1)
	go func() { done <- c.FetchNextPage(context.Background()) }()
	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, time.Millisecond)

	c.Close()
	close(f.gate)

	assert.ErrorIs(t, <-done, engine.ErrStopped)
	assert.Empty(t, c.Assets())

	_, open := <-updates.C
	assert.False(t, open, "no update after teardown")

	assert.ErrorIs(t, c.FetchNextPage(context.Background()), engine.ErrStopped)
}

func TestFavoritesDelegation(t *testing.T) {
	store := newFavorites(t)
	c := NewController(&fakeFetcher{}, store)
	defer c.Close()
	sub := store.Subscribe()
	defer sub.Close()

	btc := asset("Qwsogvtv82FCd", 1, "", "")
	on, err := c.ToggleFavorite(context.Background(), btc)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, c.IsFavorite(btc))
	assert.True(t, store.IsFavorite(btc.UUID))

	select {
	case <-sub.C:
	case <-time.After(time.Second):
		t.Fatal("store did not notify")
	}
}

// staticFetcher returns the same assets for the first page and nothing after.
type staticFetcher struct {
	assets []domain.Asset
	calls  int
}

func (s *staticFetcher) Coins(_ context.Context, offset, _ int) ([]domain.Asset, error) {
	s.calls++
	if offset > 0 {
		return nil, nil
	}
	return s.assets, nil
}
