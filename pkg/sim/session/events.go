package session

import "github.com/hyuksong/marketsim/pkg/sim/candle"

// PriceUpdate is emitted on every price change, tick-driven or trade-driven.
// Timestamp is simulated time in epoch seconds.
type PriceUpdate struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// CandleUpdate is emitted when a timeframe window closes.
type CandleUpdate struct {
	Symbol    string        `json:"symbol"`
	Timeframe string        `json:"timeframe"`
	Candle    candle.Candle `json:"candle"`
}

// EventHandler is the capability external consumers implement to receive
// simulation events. Handlers are called once per event from the session's
// dispatch goroutine; a panicking handler is isolated and reported without
// affecting other handlers or the simulation.
type EventHandler interface {
	OnPriceUpdate(PriceUpdate)
	OnCandleUpdate(CandleUpdate)
}
