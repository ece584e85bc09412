package event

import (
	"coinranking_go/internal/domain"
	"coinranking_go/pkg/quant"
)

// Type defines the type of event.
type Type uint16

const (
	EvFavoritesChanged Type = iota + 1
	EvCatalogUpdated
	EvDetailLoaded
	EvHistoryLoaded
	EvWatchlistUpdated
	EvFailure
)

func (t Type) String() string {
	switch t {
	case EvFavoritesChanged:
		return "favorites_changed"
	case EvCatalogUpdated:
		return "catalog_updated"
	case EvDetailLoaded:
		return "detail_loaded"
	case EvHistoryLoaded:
		return "history_loaded"
	case EvWatchlistUpdated:
		return "watchlist_updated"
	case EvFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Event is the interface for all published events.
type Event interface {
	GetSeq() uint64
	GetTs() quant.TimeStamp
	GetType() Type
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64          `json:"seq"`
	Ts  quant.TimeStamp `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64         { return e.Seq }
func (e BaseEvent) GetTs() quant.TimeStamp { return e.Ts }

// NewBase stamps an event with the next value of seq and the current time.
func NewBase(seq *uint64) BaseEvent {
	return BaseEvent{Seq: quant.NextSeq(seq), Ts: quant.Now()}
}

// FavoritesChanged carries no payload: subscribers re-read the store.
type FavoritesChanged struct {
	BaseEvent
}

func (e FavoritesChanged) GetType() Type { return EvFavoritesChanged }

// CatalogUpdated is the re-derived catalog view.
type CatalogUpdated struct {
	BaseEvent
	Assets     []domain.Asset         `json:"assets"`
	Criterion  domain.SortCriterion   `json:"criterion"`
	Pagination domain.PaginationState `json:"pagination"`
}

func (e CatalogUpdated) GetType() Type { return EvCatalogUpdated }

// DetailLoaded is published when an AssetDetail fetch lands.
type DetailLoaded struct {
	BaseEvent
	Detail domain.AssetDetail `json:"detail"`
}

func (e DetailLoaded) GetType() Type { return EvDetailLoaded }

// HistoryLoaded carries the full history for Period. An empty Points slice
// after a failure means the chart must be cleared.
type HistoryLoaded struct {
	BaseEvent
	CoinUUID string                `json:"coin_uuid"`
	Period   domain.TimePeriod     `json:"period"`
	Points   []domain.HistoryPoint `json:"points"`
}

func (e HistoryLoaded) GetType() Type { return EvHistoryLoaded }

// WatchlistUpdated is the favorites screen's filtered coin list.
type WatchlistUpdated struct {
	BaseEvent
	Coins []domain.Asset `json:"coins"`
}

func (e WatchlistUpdated) GetType() Type { return EvWatchlistUpdated }

// Failure is a user-facing error raised by a controller.
type Failure struct {
	BaseEvent
	Source string          `json:"source"`
	Error  domain.AppError `json:"error"`
}

func (e Failure) GetType() Type { return EvFailure }
