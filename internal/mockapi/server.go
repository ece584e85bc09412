// Package mockapi is a fake of the upstream market-data API. It backs the
// client tests and the mock-server command.
package mockapi

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"coinranking_go/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Server holds a deterministic coin universe.
type Server struct {
	token string
	coins []domain.Asset
	index map[string]int

	mu       sync.Mutex
	failNext []int

	requests atomic.Int64
}

type Option func(*Server)

// WithToken sets the required x-access-token. Empty disables the check.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithUniverse replaces the generated coin list.
func WithUniverse(coins []domain.Asset) Option {
	return func(s *Server) { s.coins = coins }
}

// WithGenerated sets how many coins are generated after the fixed majors.
func WithGenerated(n int) Option {
	return func(s *Server) { s.coins = Universe(n) }
}

func New(opts ...Option) *Server {
	s := &Server{coins: Universe(200)}
	for _, opt := range opts {
		opt(s)
	}
	s.index = make(map[string]int, len(s.coins))
	for i, c := range s.coins {
		s.index[c.UUID] = i
	}
	return s
}

// Handler returns the router. Routes live under /v2.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.count)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/v2", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.injectFailure)

		r.Get("/coins", s.listCoins)
		r.Get("/coin/{uuid}", s.getCoin)
		r.Get("/coin/{uuid}/history", s.getHistory)
	})
	return r
}

// FailNext makes the next API request answer with status.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	s.failNext = append(s.failNext, status)
	s.mu.Unlock()
}

// Requests returns how many requests have been served.
func (s *Server) Requests() int64 { return s.requests.Load() }

// Coins returns the universe in rank order.
func (s *Server) Coins() []domain.Asset { return s.coins }

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("x-access-token") != s.token {
			writeFail(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var status int
		if len(s.failNext) > 0 {
			status = s.failNext[0]
			s.failNext = s.failNext[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			writeFail(w, status, "INJECTED", http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GET /v2/coins?limit&offset
func (s *Server) listCoins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), defaultLimit)
	if err != nil || limit < 0 || limit > maxLimit {
		writeFail(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be between 0 and 100")
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeFail(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be positive")
		return
	}

	page := []domain.Asset{}
	if offset < len(s.coins) {
		page = s.coins[offset:min(offset+limit, len(s.coins))]
	}
	writeOK(w, map[string]any{
		"stats": map[string]any{"total": len(s.coins)},
		"coins": page,
	})
}

// GET /v2/coin/{uuid}
func (s *Server) getCoin(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}

	rank := c.Rank
	desc := fmt.Sprintf("<p>%s is a test asset.</p>", c.Name)
	site := fmt.Sprintf("https://%s.example", c.Symbol)
	vol := scaled(c.UUID, "vol", 1_000_000).StringFixed(0)

	writeOK(w, map[string]any{"coin": domain.AssetDetail{
		UUID:        c.UUID,
		Name:        c.Name,
		Symbol:      c.Symbol,
		Description: &desc,
		IconURL:     c.IconURL,
		WebsiteURL:  &site,
		Price:       c.Price,
		Rank:        &rank,
		MarketCap:   c.MarketCap,
		Volume24h:   &vol,
		Change:      c.Change,
		Color:       c.Color,
		Links:       []domain.Link{{Name: c.Name, Type: "website", URL: site}},
	}})
}

// GET /v2/coin/{uuid}/history?timePeriod
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}

	period := domain.TimePeriod(r.URL.Query().Get("timePeriod"))
	if period == "" {
		period = domain.Period24h
	}
	if !period.Valid() {
		writeFail(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid timePeriod")
		return
	}

	writeOK(w, map[string]any{
		"change":  c.Change,
		"history": History(c, period, time.Now()),
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.Asset, bool) {
	id := chi.URLParam(r, "uuid")
	i, ok := s.index[id]
	if !ok {
		slog.Debug("Mock API: unknown coin", slog.String("uuid", id))
		writeFail(w, http.StatusNotFound, "COIN_NOT_FOUND", "Coin not found")
		return domain.Asset{}, false
	}
	return s.coins[i], true
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
}

func writeFail(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "fail", "type": kind, "message": msg})
}

// scaled derives a stable pseudo-random decimal in [0, limit) from a seed.
func scaled(seed, salt string, limit int64) decimal.Decimal {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed + "/" + salt))
	frac := decimal.NewFromInt(int64(h.Sum64() % 1_000_000)).Div(decimal.NewFromInt(1_000_000))
	return frac.Mul(decimal.NewFromInt(limit))
}
