package api

import "github.com/hyuksong/marketsim/pkg/sim/candle"

// REST response types

// InstrumentInfo is the summary state of one simulated instrument.
type InstrumentInfo struct {
	Symbol  string  `json:"symbol"`
	Price   float64 `json:"price"`
	BestBid float64 `json:"bestBid"`
	BestAsk float64 `json:"bestAsk"`
	Depth   int     `json:"depth"`
}

// PriceLevel is one aggregated [price, size] book level.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  int64   `json:"size"`
}

// OrderbookSnapshot is the current book state for one instrument.
type OrderbookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`      // sorted high to low
	Asks      []PriceLevel `json:"asks"`      // sorted low to high
	Timestamp int64        `json:"timestamp"` // simulated, epoch seconds
}

// CandleHistory is the retained completed candles for one timeframe.
type CandleHistory struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Candles   []candle.Candle `json:"candles"`
}

// SubmitOrderRequest is the order-entry payload.
type SubmitOrderRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"` // "buy" or "sell"
	Type     string  `json:"type"` // "market", "limit", "stop", "stop_limit"
	Price    float64 `json:"price"`
	Qty      int64   `json:"qty"`
	ClientID string  `json:"clientId"`
}

// TradeInfo reports one execution produced by a submission.
type TradeInfo struct {
	BidID string  `json:"bidId"`
	AskID string  `json:"askId"`
	Price float64 `json:"price"`
	Qty   int64   `json:"qty"`
}

// SubmitOrderResponse acknowledges an accepted order.
type SubmitOrderResponse struct {
	OrderID string      `json:"orderId"`
	Trades  []TradeInfo `json:"trades"`
}

// CancelOrderRequest removes a resting order.
type CancelOrderRequest struct {
	Symbol  string `json:"symbol"`
	OrderID string `json:"orderId"`
}

// CancelOrderResponse reports whether the order was found and removed.
type CancelOrderResponse struct {
	Cancelled bool `json:"cancelled"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WebSocket message types

// WSMessage wraps every pushed event.
type WSMessage struct {
	Type string      `json:"type"` // "price" or "candle"
	Data interface{} `json:"data"`
}

// WSSubscribeRequest is sent by clients to manage channel subscriptions.
// Channels: "prices", "candles", or symbol-qualified like "prices:AAPL".
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}
