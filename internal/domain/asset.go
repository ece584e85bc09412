package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Asset is one coin as listed by the /coins endpoint.
// Identifier and rank are always present; every market field is optional and
// renders as "unknown" when missing.
type Asset struct {
	UUID      string    `json:"uuid"`
	Rank      int       `json:"rank"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	IconURL   *string   `json:"iconUrl,omitempty"`
	Price     *string   `json:"price,omitempty"`
	Change    *string   `json:"change,omitempty"`
	MarketCap *string   `json:"marketCap,omitempty"`
	Color     *string   `json:"color,omitempty"`
	Sparkline []*string `json:"sparkline"`
}

var (
	ErrMissingUUID = errors.New("asset: missing uuid")
	ErrMissingRank = errors.New("asset: missing rank")
)

// UnmarshalJSON decodes an Asset and enforces the required fields.
func (a *Asset) UnmarshalJSON(data []byte) error {
	type plain Asset
	var raw struct {
		plain
		UUID *string `json:"uuid"`
		Rank *int    `json:"rank"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.UUID == nil || *raw.UUID == "" {
		return ErrMissingUUID
	}
	if raw.Rank == nil {
		return fmt.Errorf("%w (uuid=%s)", ErrMissingRank, *raw.UUID)
	}
	*a = Asset(raw.plain)
	a.UUID = *raw.UUID
	a.Rank = *raw.Rank
	if a.Sparkline == nil {
		a.Sparkline = []*string{}
	}
	return nil
}

// Link is an external resource attached to an AssetDetail.
type Link struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// AssetDetail is the payload of /coin/{uuid}. It lives for one detail-screen
// visit and is never cached.
type AssetDetail struct {
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Description *string `json:"description,omitempty"` // may contain HTML
	IconURL     *string `json:"iconUrl,omitempty"`
	WebsiteURL  *string `json:"websiteUrl,omitempty"`
	Price       *string `json:"price,omitempty"`
	Rank        *int    `json:"rank,omitempty"`
	MarketCap   *string `json:"marketCap,omitempty"`
	Volume24h   *string `json:"24hVolume,omitempty"`
	Change      *string `json:"change,omitempty"`
	Color       *string `json:"color,omitempty"`
	Links       []Link  `json:"links"`
}

// HistoryPoint is one price sample. Timestamp is Unix seconds as reported.
type HistoryPoint struct {
	Price     *string `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// Unknown is the display value for any absent market field.
const Unknown = "N/A"

// OrUnknown dereferences an optional field for display.
func OrUnknown(s *string) string {
	if s == nil || *s == "" {
		return Unknown
	}
	return *s
}
