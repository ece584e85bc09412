package mockapi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coinranking_go/internal/domain"
)

type major struct {
	uuid, name, symbol, price, change, color string
}

var majors = []major{
	{"Qwsogvtv82FCd", "Bitcoin", "BTC", "67012.4481", "1.02", "#f7931A"},
	{"razxDUgYGNAdQ", "Ethereum", "ETH", "3105.2210", "-0.87", "#3C3C3D"},
	{"HIVsRcGKkPFtW", "Tether USD", "USDT", "1.0002", "0.01", "#22a079"},
	{"WcwrkfNI4FUAe", "BNB", "BNB", "584.1200", "2.40", "#e8b342"},
	{"zNZHO_Sjf", "Solana", "SOL", "145.9900", "-3.15", "#9945FF"},
}

func ptr(s string) *string { return &s }

// Universe returns the fixed majors followed by n generated coins, ranked
// in order.
func Universe(n int) []domain.Asset {
	out := make([]domain.Asset, 0, len(majors)+n)
	for i, m := range majors {
		out = append(out, asset(m.uuid, i+1, m.name, m.symbol, m.price, m.change, m.color))
	}
	for i := 0; i < n; i++ {
		rank := len(majors) + i + 1
		id := fmt.Sprintf("mock%07d", rank)
		price := scaled(id, "price", 100).Add(decimal.New(1, -4)).StringFixed(4)
		change := scaled(id, "change", 20).Sub(decimal.NewFromInt(10)).StringFixed(2)

		a := asset(id, rank, fmt.Sprintf("Mock Coin %d", rank), fmt.Sprintf("MCK%d", rank), price, change, "")
		// Every seventh coin has no market data, like delisted pairs upstream.
		if rank%7 == 0 {
			a.Price, a.Change, a.MarketCap = nil, nil, nil
		}
		out = append(out, a)
	}
	return out
}

func asset(id string, rank int, name, symbol, price, change, color string) domain.Asset {
	p := decimal.RequireFromString(price)
	mcap := p.Mul(decimal.NewFromInt(int64(1_000_000_000 / rank))).StringFixed(0)

	a := domain.Asset{
		UUID:      id,
		Rank:      rank,
		Name:      name,
		Symbol:    symbol,
		IconURL:   ptr(fmt.Sprintf("https://cdn.example/coins/%s.svg", id)),
		Price:     ptr(price),
		Change:    ptr(change),
		MarketCap: ptr(mcap),
		Sparkline: sparkline(id, p),
	}
	if color != "" {
		a.Color = ptr(color)
	}
	return a
}

func sparkline(id string, price decimal.Decimal) []*string {
	out := make([]*string, 0, 24)
	for i := 0; i < 24; i++ {
		wiggle := scaled(id, fmt.Sprintf("spark%d", i), 4).Sub(decimal.NewFromInt(2)).Div(decimal.NewFromInt(100))
		out = append(out, ptr(price.Mul(decimal.NewFromInt(1).Add(wiggle)).StringFixed(4)))
	}
	return out
}

var periodSpan = map[domain.TimePeriod]time.Duration{
	domain.Period24h: 24 * time.Hour,
	domain.Period7d:  7 * 24 * time.Hour,
	domain.Period30d: 30 * 24 * time.Hour,
	domain.Period1y:  365 * 24 * time.Hour,
	domain.Period3y:  3 * 365 * 24 * time.Hour,
	domain.Period5y:  5 * 365 * 24 * time.Hour,
}

const historyPoints = 48

// History returns newest-first samples spanning the period, ending at now.
// Coins without a price get an empty series.
func History(c domain.Asset, period domain.TimePeriod, now time.Time) []domain.HistoryPoint {
	if c.Price == nil {
		return []domain.HistoryPoint{}
	}
	base := decimal.RequireFromString(*c.Price)
	step := periodSpan[period] / historyPoints

	out := make([]domain.HistoryPoint, 0, historyPoints)
	for i := 0; i < historyPoints; i++ {
		wiggle := scaled(c.UUID, fmt.Sprintf("%s/%d", period, i), 10).Sub(decimal.NewFromInt(5)).Div(decimal.NewFromInt(100))
		price := base.Mul(decimal.NewFromInt(1).Add(wiggle)).StringFixed(4)
		out = append(out, domain.HistoryPoint{
			Price:     &price,
			Timestamp: now.Add(-time.Duration(i) * step).Unix(),
		})
	}
	return out
}
