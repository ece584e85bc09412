package coinranking

import "coinranking_go/internal/domain"

const statusSuccess = "success"

// Response is the envelope every endpoint returns.
type Response[D any] struct {
	Status  string  `json:"status"`
	Message *string `json:"message,omitempty"`
	Data    *D      `json:"data,omitempty"`
}

// Result unwraps the envelope. A non-success status becomes an *APIError.
func (r Response[D]) Result() (D, error) {
	var zero D
	if r.Status != statusSuccess {
		msg := "unknown error"
		if r.Message != nil && *r.Message != "" {
			msg = *r.Message
		}
		return zero, &APIError{Status: r.Status, Message: msg}
	}
	if r.Data == nil {
		return zero, nil
	}
	return *r.Data, nil
}

type coinsData struct {
	Coins []domain.Asset `json:"coins"`
}

type coinData struct {
	Coin domain.AssetDetail `json:"coin"`
}

type historyData struct {
	Change  *string               `json:"change,omitempty"`
	History []domain.HistoryPoint `json:"history"`
}
