package domain

import (
	"fmt"
	"slices"
	"strings"

	"coinranking_go/pkg/quant"
)

// SortKey selects the field a catalog view is ordered by.
type SortKey int

const (
	SortByRank SortKey = iota // API rank order (market cap)
	SortByPrice
	SortByChange24h
)

func (k SortKey) String() string {
	switch k {
	case SortByRank:
		return "rank"
	case SortByPrice:
		return "price"
	case SortByChange24h:
		return "change"
	default:
		return "unknown"
	}
}

// Direction is ignored for SortByRank.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// SortCriterion is the active ordering of the catalog view.
// The zero value is ByRank().
type SortCriterion struct {
	Key       SortKey
	Direction Direction
}

func ByRank() SortCriterion                 { return SortCriterion{Key: SortByRank} }
func ByPrice(d Direction) SortCriterion     { return SortCriterion{Key: SortByPrice, Direction: d} }
func ByChange24h(d Direction) SortCriterion { return SortCriterion{Key: SortByChange24h, Direction: d} }

func (c SortCriterion) String() string {
	if c.Key == SortByRank {
		return c.Key.String()
	}
	return c.Key.String() + ":" + c.Direction.String()
}

// Title is the label shown in the sort menu.
func (c SortCriterion) Title() string {
	switch {
	case c.Key == SortByRank && c.Direction == Descending:
		return "Rank (Highest Cap)"
	case c.Key == SortByPrice && c.Direction == Descending:
		return "Highest Price"
	case c.Key == SortByChange24h && c.Direction == Descending:
		return "Best 24h Performance"
	default:
		return "Custom Sort"
	}
}

// MenuCriteria lists the primary options of the sort menu.
func MenuCriteria() []SortCriterion {
	return []SortCriterion{ByRank(), ByPrice(Descending), ByChange24h(Descending)}
}

// ParseSortCriterion accepts "rank", "marketcap", "price[:asc|desc]" and
// "change[:asc|desc]". The direction defaults to descending.
func ParseSortCriterion(s string) (SortCriterion, error) {
	key, dir, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")

	var d Direction
	switch dir {
	case "", "desc", "descending":
		d = Descending
	case "asc", "ascending":
		d = Ascending
	default:
		return SortCriterion{}, fmt.Errorf("invalid sort direction %q", dir)
	}

	switch key {
	case "rank", "marketcap", "market_cap":
		return ByRank(), nil
	case "price":
		return ByPrice(d), nil
	case "change", "change24h", "24h":
		return ByChange24h(d), nil
	default:
		return SortCriterion{}, fmt.Errorf("invalid sort key %q", key)
	}
}

// Sort returns a new slice ordered by the criterion. The input is not
// modified. Equal keys keep their input order, so the result depends only on
// the input and the criterion.
func (c SortCriterion) Sort(assets []Asset) []Asset {
	out := slices.Clone(assets)
	if out == nil {
		out = []Asset{}
	}

	var cmp func(a, b Asset) int
	switch c.Key {
	case SortByPrice:
		cmp = func(a, b Asset) int { return quant.CompareOptional(a.Price, b.Price) }
	case SortByChange24h:
		cmp = func(a, b Asset) int { return quant.CompareOptional(a.Change, b.Change) }
	default:
		slices.SortStableFunc(out, func(a, b Asset) int { return a.Rank - b.Rank })
		return out
	}

	if c.Direction == Descending {
		slices.SortStableFunc(out, func(a, b Asset) int { return cmp(b, a) })
	} else {
		slices.SortStableFunc(out, cmp)
	}
	return out
}
