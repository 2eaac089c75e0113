package market

import (
	"errors"

	"go.uber.org/zap"

	"github.com/hyuksong/marketsim/pkg/sim/orderbook"
)

var (
	ErrInvalidQuantity = errors.New("order quantity must be positive")
	ErrInvalidPrice    = errors.New("order price must be positive")
)

// OrderManager is the submission gateway for one instrument's book. It
// validates incoming orders, hands the valid ones to the book, and logs
// every execution the book reports. Rejections are returned as errors and
// never touch the book.
type OrderManager struct {
	book *orderbook.OrderBook
	log  *zap.SugaredLogger
}

// NewOrderManager wires a gateway to book and subscribes to its trades for
// execution logging. Price updates derived from trades are the session's
// job, not the manager's.
func NewOrderManager(book *orderbook.OrderBook, logger *zap.SugaredLogger) *OrderManager {
	m := &OrderManager{book: book, log: logger}
	book.OnTrade(m.logExecution)
	return m
}

// SubmitOrder validates the order and, if valid, adds it to the book. The
// matching loop runs inside AddOrder; resulting trades are returned in match
// order.
func (m *OrderManager) SubmitOrder(o *orderbook.Order) ([]orderbook.Trade, error) {
	if err := validate(o); err != nil {
		m.log.Infow("order_rejected",
			"order_id", o.ID,
			"symbol", o.Symbol,
			"side", o.Side.String(),
			"qty", o.Qty,
			"price", o.Price,
			"reason", err.Error(),
		)
		return nil, err
	}

	trades := m.book.AddOrder(o)
	m.log.Infow("order_accepted",
		"order_id", o.ID,
		"symbol", o.Symbol,
		"side", o.Side.String(),
		"type", o.Type.String(),
		"qty", o.Qty,
		"price", o.Price,
	)
	return trades, nil
}

// CancelOrder removes a resting order and reports whether it was found.
func (m *OrderManager) CancelOrder(id string) bool {
	ok := m.book.RemoveOrder(id)
	if ok {
		m.log.Infow("order_cancelled", "order_id", id, "symbol", m.book.Symbol())
	}
	return ok
}

func validate(o *orderbook.Order) error {
	if o.Qty <= 0 {
		return ErrInvalidQuantity
	}
	if o.Type.PriceRequired() && o.Price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

func (m *OrderManager) logExecution(t orderbook.Trade) {
	m.log.Infow("order_executed",
		"symbol", m.book.Symbol(),
		"bid_id", t.Bid.ID,
		"ask_id", t.Ask.ID,
		"price", t.Price,
		"qty", t.Qty,
	)
}
