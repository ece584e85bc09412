package coinranking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"coinranking_go/internal/domain"
	"coinranking_go/internal/infra"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.coinranking.com/v2"

// Config carries the values the client needs. It is filled from infra.Config.
type Config struct {
	BaseURL               string
	APIKey                string
	ReferenceCurrencyUUID string
	UserAgent             string
}

// Client talks to the market-data API. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	apiKey     string
	currency   string
	userAgent  string
	httpClient *http.Client
	limiter    *infra.RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimiter gates every request on rl.
func WithRateLimiter(rl *infra.RateLimiter) Option {
	return func(c *Client) { c.limiter = rl }
}

// NewClient validates cfg and builds a client. The default http.Client has
// no timeout of its own; callers bound requests with ctx.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, &RequestError{Endpoint: raw, Reason: "base URL must be absolute http(s)"}
	}

	c := &Client{
		base:       base,
		apiKey:     cfg.APIKey,
		currency:   cfg.ReferenceCurrencyUUID,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClientFromConfig wires the client from application config, including
// the optional rate limit.
func NewClientFromConfig(cfg *infra.Config, opts ...Option) (*Client, error) {
	api := cfg.API.Coinranking
	if api.RequestsPerSecond > 0 {
		burst := api.Burst
		if burst == 0 {
			burst = 1
		}
		opts = append([]Option{WithRateLimiter(infra.NewRateLimiter(burst, api.RequestsPerSecond))}, opts...)
	}
	return NewClient(Config{
		BaseURL:               api.BaseURL,
		APIKey:                api.APIKey,
		ReferenceCurrencyUUID: api.ReferenceCurrencyUUID,
		UserAgent:             infra.DefaultUserAgent(cfg.App.Version),
	}, opts...)
}

// Fetch performs GET {base}/{endpoint}?{query}, checks the status, decodes
// the body as T. It never retries.
func Fetch[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (T, error) {
	var zero T

	u, err := c.resolve(endpoint, query)
	if err != nil {
		return zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return zero, &RequestError{Endpoint: endpoint, Reason: err.Error()}
	}
	req.Header.Set("x-access-token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, &ResponseError{Err: err}
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, &ResponseError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return zero, &ResponseError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &ResponseError{StatusCode: resp.StatusCode, Err: err}
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		slog.Debug("Decode failed",
			slog.String("endpoint", endpoint),
			slog.Any("error", err))
		return zero, &DecodingError{Endpoint: endpoint, cause: err}
	}
	return out, nil
}

func (c *Client) resolve(endpoint string, query url.Values) (*url.URL, error) {
	endpoint = strings.TrimPrefix(endpoint, "/")
	if endpoint == "" {
		return nil, &RequestError{Endpoint: endpoint, Reason: "empty endpoint"}
	}
	for _, seg := range strings.Split(endpoint, "/") {
		if seg == "" {
			return nil, &RequestError{Endpoint: endpoint, Reason: "empty path segment"}
		}
	}
	rel, err := url.Parse(endpoint)
	if err != nil || rel.IsAbs() || rel.RawQuery != "" {
		return nil, &RequestError{Endpoint: endpoint, Reason: "unparsable endpoint"}
	}

	u := *c.base
	u.Path = c.base.Path + "/" + rel.Path
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u, nil
}

func (c *Client) currencyQuery() url.Values {
	q := url.Values{}
	if c.currency != "" {
		q.Set("referenceCurrencyUuid", c.currency)
	}
	return q
}

// Coins fetches one page of the ranked list. A missing coin list is an empty page.
func (c *Client) Coins(ctx context.Context, offset, limit int) ([]domain.Asset, error) {
	if offset < 0 || limit <= 0 {
		return nil, &RequestError{Endpoint: "coins", Reason: fmt.Sprintf("bad page offset=%d limit=%d", offset, limit)}
	}
	q := c.currencyQuery()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	resp, err := Fetch[Response[coinsData]](ctx, c, "coins", q)
	if err != nil {
		return nil, err
	}
	data, err := resp.Result()
	if err != nil {
		return nil, err
	}
	if data.Coins == nil {
		return []domain.Asset{}, nil
	}
	return data.Coins, nil
}

// Coin fetches the detail record for one asset.
func (c *Client) Coin(ctx context.Context, id string) (domain.AssetDetail, error) {
	endpoint, err := coinPath(id)
	if err != nil {
		return domain.AssetDetail{}, err
	}
	resp, err := Fetch[Response[coinData]](ctx, c, endpoint, c.currencyQuery())
	if err != nil {
		return domain.AssetDetail{}, err
	}
	data, err := resp.Result()
	if err != nil {
		return domain.AssetDetail{}, err
	}
	if data.Coin.UUID == "" {
		return domain.AssetDetail{}, &DecodingError{Endpoint: endpoint, cause: fmt.Errorf("missing data.coin")}
	}
	return data.Coin, nil
}

// History fetches the price series of one asset for a period.
func (c *Client) History(ctx context.Context, id string, period domain.TimePeriod) ([]domain.HistoryPoint, error) {
	endpoint, err := coinPath(id)
	if err != nil {
		return nil, err
	}
	if !period.Valid() {
		return nil, &RequestError{Endpoint: endpoint, Reason: fmt.Sprintf("unknown time period %q", period)}
	}
	endpoint += "/history"

	q := c.currencyQuery()
	q.Set("timePeriod", string(period))

	resp, err := Fetch[Response[historyData]](ctx, c, endpoint, q)
	if err != nil {
		return nil, err
	}
	data, err := resp.Result()
	if err != nil {
		return nil, err
	}
	if data.History == nil {
		return []domain.HistoryPoint{}, nil
	}
	return data.History, nil
}

func coinPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return "", &RequestError{Endpoint: "coin/" + id, Reason: "invalid coin id"}
	}
	return "coin/" + url.PathEscape(id), nil
}
