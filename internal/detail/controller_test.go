package detail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coinranking_go/internal/domain"
	"coinranking_go/internal/engine"
	"coinranking_go/internal/favorites"
	"coinranking_go/internal/infra/coinranking"
	"coinranking_go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const btcID = "Qwsogvtv82FCd"

type fakeFetcher struct {
	mu          sync.Mutex
	detailErr   error
	historyErr  map[domain.TimePeriod]error
	gates       map[domain.TimePeriod]chan struct{}
	detailGate  chan struct{}
	periods     []domain.TimePeriod
	detailCalls int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		historyErr: map[domain.TimePeriod]error{},
		gates:      map[domain.TimePeriod]chan struct{}{},
	}
}

func (f *fakeFetcher) Coin(_ context.Context, id string) (domain.AssetDetail, error) {
	f.mu.Lock()
	f.detailCalls++
	gate, err := f.detailGate, f.detailErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return domain.AssetDetail{}, err
	}
	return domain.AssetDetail{UUID: id, Name: "Bitcoin", Symbol: "BTC"}, nil
}

func (f *fakeFetcher) History(_ context.Context, _ string, p domain.TimePeriod) ([]domain.HistoryPoint, error) {
	f.mu.Lock()
	f.periods = append(f.periods, p)
	gate, err := f.gates[p], f.historyErr[p]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	price := "100-" + string(p)
	return []domain.HistoryPoint{{Price: &price, Timestamp: 1}, {Price: nil, Timestamp: 2}}, nil
}

func (f *fakeFetcher) historyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.periods)
}

func newController(t *testing.T, f Fetcher, opts ...Option) *Controller {
	t.Helper()
	store, err := favorites.NewStore(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	c := NewController(btcID, f, store, opts...)
	t.Cleanup(c.Close)
	return c
}

func TestFetchAll_PublishesBothStreams(t *testing.T) {
	f := newFakeFetcher()
	c := newController(t, f)
	details := c.Details().Subscribe()
	defer details.Close()
	history := c.History().Subscribe()
	defer history.Close()

	require.NoError(t, c.FetchAll(context.Background()))

	select {
	case ev := <-details.C:
		assert.Equal(t, btcID, ev.Detail.UUID)
	case <-time.After(time.Second):
		t.Fatal("missing detail event")
	}
	select {
	case ev := <-history.C:
		assert.Equal(t, domain.Period7d, ev.Period)
		assert.Len(t, ev.Points, 2)
	case <-time.After(time.Second):
		t.Fatal("missing history event")
	}

	d, ok := c.Detail()
	require.True(t, ok)
	assert.Equal(t, "Bitcoin", d.Name)
	assert.Equal(t, domain.Period7d, c.Period())
	assert.Len(t, c.HistoryPoints(), 2)
}

func TestFetchAll_HeaderRendersBeforeChart(t *testing.T) {
	f := newFakeFetcher()
	f.gates[domain.Period7d] = make(chan struct{})
	c := newController(t, f)
	details := c.Details().Subscribe()
	defer details.Close()

	done := make(chan error, 1)
	go func() { done <- c.FetchAll(context.Background()) }()

	select {
	case <-details.C:
	case <-time.After(time.Second):
		t.Fatal("detail should land while history is still pending")
	}
	assert.Empty(t, c.HistoryPoints())

	close(f.gates[domain.Period7d])
	require.NoError(t, <-done)
	assert.Len(t, c.HistoryPoints(), 2)
}

func TestFetchAll_DetailFailureOnlyLogged(t *testing.T) {
	f := newFakeFetcher()
	f.detailErr = errors.New("detail down")
	c := newController(t, f)
	details := c.Details().Subscribe()
	defer details.Close()

	err := c.FetchAll(context.Background())
	require.Error(t, err)

	_, ok := c.Detail()
	assert.False(t, ok)
	assert.Len(t, c.HistoryPoints(), 2, "history is independent of the detail failure")

	select {
	case <-details.C:
		t.Fatal("a failed detail must not publish")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFetchAll_UsesConfiguredDefaultPeriod(t *testing.T) {
	f := newFakeFetcher()
	c := newController(t, f, WithDefaultPeriod(domain.Period30d))

	require.NoError(t, c.FetchAll(context.Background()))
	assert.Equal(t, []domain.TimePeriod{domain.Period30d}, f.periods)
}

func TestFetchHistory_NoopForLoadedPeriod(t *testing.T) {
	f := newFakeFetcher()
	c := newController(t, f)
	require.NoError(t, c.FetchAll(context.Background()))

	require.NoError(t, c.FetchHistory(context.Background(), domain.Period7d))
	assert.Equal(t, 1, f.historyCalls())

	require.NoError(t, c.FetchHistory(context.Background(), domain.Period1y))
	assert.Equal(t, 2, f.historyCalls())
	assert.Equal(t, domain.Period1y, c.Period())
	pts := c.HistoryPoints()
	require.NotEmpty(t, pts)
	assert.Equal(t, "100-1y", *pts[0].Price)
}

func TestFetchHistory_UnknownPeriodLeavesStateAlone(t *testing.T) {
	f := newFakeFetcher()
	c := newController(t, f)
	require.NoError(t, c.FetchAll(context.Background()))
	before := c.HistoryPoints()

	err := c.FetchHistory(context.Background(), domain.TimePeriod("2h"))
	require.Error(t, err)
	assert.ErrorIs(t, err, coinranking.ErrInvalidRequest)

	assert.Equal(t, domain.Period7d, c.Period())
	assert.Equal(t, before, c.HistoryPoints())
	assert.Equal(t, 1, f.historyCalls(), "no request for an unknown period")
}

func TestFetchHistory_RefetchWhenEmpty(t *testing.T) {
	f := newFakeFetcher()
	f.historyErr[domain.Period7d] = errors.New("flaky")
	c := newController(t, f)

	require.Error(t, c.FetchHistory(context.Background(), domain.Period7d))
	assert.Empty(t, c.HistoryPoints())

	f.mu.Lock()
	delete(f.historyErr, domain.Period7d)
	f.mu.Unlock()

	require.NoError(t, c.FetchHistory(context.Background(), domain.Period7d))
	assert.Equal(t, 2, f.historyCalls())
	assert.Len(t, c.HistoryPoints(), 2)
}

func TestFetchHistory_FailureClearsAndPublishesEmpty(t *testing.T) {
	f := newFakeFetcher()
	f.historyErr[domain.Period5y] = errors.New("nope")
	c := newController(t, f)
	require.NoError(t, c.FetchAll(context.Background()))

	history := c.History().Subscribe()
	defer history.Close()

	require.Error(t, c.FetchHistory(context.Background(), domain.Period5y))
	assert.Empty(t, c.HistoryPoints())
	assert.Equal(t, domain.Period5y, c.Period())

	select {
	case ev := <-history.C:
		assert.Equal(t, domain.Period5y, ev.Period)
		assert.Empty(t, ev.Points)
	case <-time.After(time.Second):
		t.Fatal("cleared history must be published")
	}
}

func TestFetchHistory_PeriodSetBeforeRequestResolves(t *testing.T) {
	f := newFakeFetcher()
	f.gates[domain.Period30d] = make(chan struct{})
	c := newController(t, f)

	done := make(chan error, 1)
	go func() { done <- c.FetchHistory(context.Background(), domain.Period30d) }()

	require.Eventually(t, func() bool { return c.Period() == domain.Period30d }, time.Second, time.Millisecond)

	close(f.gates[domain.Period30d])
	require.NoError(t, <-done)
}

func TestFetchHistory_SupersededResultDiscarded(t *testing.T) {
	f := newFakeFetcher()
	f.gates[domain.Period1y] = make(chan struct{})
	c := newController(t, f)
	history := c.History().Subscribe()
	defer history.Close()

	slow := make(chan error, 1)
	go func() { slow <- c.FetchHistory(context.Background(), domain.Period1y) }()
	require.Eventually(t, func() bool { return f.historyCalls() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.FetchHistory(context.Background(), domain.Period3y))

	close(f.gates[domain.Period1y])
	require.NoError(t, <-slow)

	assert.Equal(t, domain.Period3y, c.Period())
	pts := c.HistoryPoints()
	require.NotEmpty(t, pts)
	assert.Equal(t, "100-3y", *pts[0].Price)

	select {
	case ev := <-history.C:
		assert.Equal(t, domain.Period3y, ev.Period)
	case <-time.After(time.Second):
		t.Fatal("missing history event")
	}
	select {
	case ev := <-history.C:
		t.Fatalf("stale %s result must be dropped", ev.Period)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClose_DropsLateResponses(t *testing.T) {
	f := newFakeFetcher()
	f.detailGate = make(chan struct{})
	store, err := favorites.NewStore(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)
	defer store.Close()
	c := NewController(btcID, f, store)

	done := make(chan error, 1)
	go func() { done <- c.FetchAll(context.Background()) }()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.detailCalls == 1
	}, time.Second, time.Millisecond)

	c.Close()
	close(f.detailGate)

	assert.ErrorIs(t, <-done, engine.ErrStopped)
	_, ok := c.Detail()
	assert.False(t, ok)
}

func TestFavoriteToggleUsesHeldID(t *testing.T) {
	c := newController(t, newFakeFetcher())

	on, err := c.ToggleFavorite(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, c.IsFavorite())

	on, err = c.ToggleFavorite(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, c.IsFavorite())
}
