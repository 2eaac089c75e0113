package market

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hyuksong/marketsim/pkg/sim/orderbook"
	"github.com/hyuksong/marketsim/pkg/sim/price"
)

// Instrument is one tradable symbol: its current price, its order book, the
// gateway that feeds the book, and the simulator that drives the tick path.
//
// The current price is written from two independent triggers, clock ticks
// and trade executions, so it sits behind the instrument's own mutex. Locks
// are never shared across instruments.
type Instrument struct {
	symbol string

	mu    sync.Mutex
	price float64

	Book      *orderbook.OrderBook
	Manager   *OrderManager
	Simulator price.Simulator
}

// NewInstrument creates an instrument with an empty book and a validation
// gateway wired to it. The price must be positive; the simulator keeps it so.
func NewInstrument(symbol string, initialPrice float64, sim price.Simulator, logger *zap.SugaredLogger) *Instrument {
	book := orderbook.NewOrderBook(symbol)
	return &Instrument{
		symbol:    symbol,
		price:     initialPrice,
		Book:      book,
		Manager:   NewOrderManager(book, logger),
		Simulator: sim,
	}
}

// Symbol returns the instrument's symbol.
func (in *Instrument) Symbol() string { return in.symbol }

// Price returns the last written price.
func (in *Instrument) Price() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.price
}

// SetPrice records a new current price.
func (in *Instrument) SetPrice(p float64) {
	in.mu.Lock()
	in.price = p
	in.mu.Unlock()
}

// Update applies fn to the current price and returns the result. The lock is
// held across the read and the write, so a price written by a concurrent
// trigger cannot slip in between and be overwritten.
func (in *Instrument) Update(fn func(current float64) float64) float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.price = fn(in.price)
	return in.price
}
