package orderbook

import (
	"time"

	"github.com/google/uuid"
)

// Side is the book side an order rests on.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// OrderType mirrors the submission types accepted by the gateway.
// Only Limit and StopLimit carry a meaningful price.
type OrderType int8

const (
	Market OrderType = iota
	Limit
	Stop
	StopLimit
)

func (t OrderType) String() string {
	switch t {
	case Market:
		return "Market"
	case Limit:
		return "Limit"
	case Stop:
		return "Stop"
	case StopLimit:
		return "StopLimit"
	default:
		return "Unknown"
	}
}

// Order is a resting or incoming order for one instrument.
// Qty is mutated by matching and is monotonically non-increasing while the
// order rests; everything else is fixed at submission.
type Order struct {
	ID     string
	Symbol string
	Side   Side
	Type   OrderType

	// Price is the level the order rests at. Market and Stop orders are
	// accepted without one and rest at 0; a zero-price ask crosses any bid
	// and executes at 0.
	Price float64

	Qty       int64
	Timestamp time.Time // submission time, tie-break only
	ClientID  string
}

// NewOrder builds an order with a fresh ID and submission timestamp.
func NewOrder(symbol string, side Side, typ OrderType, price float64, qty int64, clientID string, now time.Time) *Order {
	return &Order{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Type:      typ,
		Price:     price,
		Qty:       qty,
		Timestamp: now,
		ClientID:  clientID,
	}
}

// PriceRequired reports whether validation must enforce a positive price.
func (t OrderType) PriceRequired() bool {
	return t == Limit || t == StopLimit
}
