package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinranking_go/internal/catalog"
	"coinranking_go/internal/detail"
	"coinranking_go/internal/domain"
	"coinranking_go/internal/favorites"
	"coinranking_go/internal/infra/coinranking"
	"coinranking_go/internal/storage"
	"coinranking_go/internal/watchlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "test-token"

func newClient(t *testing.T, srv *Server) *coinranking.Client {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := coinranking.NewClient(coinranking.Config{
		BaseURL:               ts.URL + "/v2",
		APIKey:                token,
		ReferenceCurrencyUUID: "yhjMzLPhuIDl",
	})
	require.NoError(t, err)
	return c
}

func TestServer_RequiresToken(t *testing.T) {
	ts := httptest.NewServer(New(WithToken(token)).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v2/coins")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c, err := coinranking.NewClient(coinranking.Config{BaseURL: ts.URL + "/v2", APIKey: "wrong"})
	require.NoError(t, err)
	_, err = c.Coins(context.Background(), 0, 10)
	assert.ErrorIs(t, err, coinranking.ErrInvalidResponse)
}

func TestServer_PagesAndDetail(t *testing.T) {
	srv := New(WithToken(token), WithGenerated(20))
	c := newClient(t, srv)
	ctx := context.Background()

	page, err := c.Coins(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "BTC", page[0].Symbol)
	assert.Equal(t, 3, page[2].Rank)

	tail, err := c.Coins(ctx, 24, 10)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	past, err := c.Coins(ctx, 500, 10)
	require.NoError(t, err)
	assert.Empty(t, past)

	d, err := c.Coin(ctx, "Qwsogvtv82FCd")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", d.Name)
	require.NotNil(t, d.Rank)
	assert.Equal(t, 1, *d.Rank)

	_, err = c.Coin(ctx, "nope")
	assert.ErrorIs(t, err, coinranking.ErrInvalidResponse)

	for _, p := range domain.AllTimePeriods() {
		h, err := c.History(ctx, "razxDUgYGNAdQ", p)
		require.NoError(t, err, p)
		assert.Len(t, h, historyPoints)
	}
}

func TestServer_CoinsWithoutPrice(t *testing.T) {
	coins := Universe(10)
	var bare domain.Asset
	for _, c := range coins {
		if c.Price == nil {
			bare = c
			break
		}
	}
	require.NotEmpty(t, bare.UUID)
	assert.Empty(t, History(bare, domain.Period7d, time.Now()))
}

func TestServer_InjectedFailure(t *testing.T) {
	srv := New(WithToken(token))
	c := newClient(t, srv)

	srv.FailNext(http.StatusTooManyRequests)
	_, err := c.Coins(context.Background(), 0, 10)

	var re *coinranking.ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusTooManyRequests, re.StatusCode)

	_, err = c.Coins(context.Background(), 0, 10)
	assert.NoError(t, err)
}

// End to end: paginate, sort, favorite from the catalog, see it in the
// watchlist, open its detail.
func TestEndToEnd(t *testing.T) {
	srv := New(WithToken(token), WithGenerated(195))
	client := newClient(t, srv)
	ctx := context.Background()

	store, err := favorites.NewStore(ctx, storage.NewMemoryStore())
	require.NoError(t, err)
	defer store.Close()

	list := catalog.NewController(client, store)
	defer list.Close()
	wl := watchlist.NewAggregator(client, store)
	defer wl.Close()

	for i := 0; i < 8; i++ {
		require.NoError(t, list.FetchNextPage(ctx))
	}
	assets := list.Assets()
	require.Len(t, assets, 100)

	require.NoError(t, list.ApplyFilter(domain.ByPrice(domain.Descending)))
	sorted := list.Assets()
	assert.Equal(t, "BTC", sorted[0].Symbol)
	assert.Nil(t, sorted[len(sorted)-1].Price, "coins without a price sort last when descending")

	eth := assets[1]
	_, err = list.ToggleFavorite(ctx, eth)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		coins := wl.Coins()
		return len(coins) == 1 && coins[0].UUID == eth.UUID
	}, 2*time.Second, 10*time.Millisecond)

	d := detail.NewController(eth.UUID, client, store)
	defer d.Close()
	require.NoError(t, d.FetchAll(ctx))
	assert.True(t, d.IsFavorite())
	got, ok := d.Detail()
	require.True(t, ok)
	assert.Equal(t, "Ethereum", got.Name)
	assert.Len(t, d.HistoryPoints(), historyPoints)
}
