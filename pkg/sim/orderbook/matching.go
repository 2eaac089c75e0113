package orderbook

// Trade records one crossing of the best bid against the best ask. Bid and
// Ask are snapshots taken before quantities were decremented; Qty is the
// matched amount and Price the execution price.
//
// Execution always happens at the resting ask's price, regardless of which
// side arrived first. A conventional venue would execute at the earlier
// resting order's price, which can be the bid; the ask-price rule is kept
// deliberately to preserve the behavior this engine was modeled on.
type Trade struct {
	Bid   Order
	Ask   Order
	Price float64
	Qty   int64
}

// MatchOrders runs the matching loop on the book and returns the trades in
// the order they were produced. The loop terminates because every iteration
// fully consumes at least one order: total resting quantity strictly
// decreases. Afterwards either one side is empty or bestBid < bestAsk.
//
// The function keeps no state of its own; it only mutates the book it is
// given, so it can be exercised against a hand-built book in isolation.
func MatchOrders(b *OrderBook) []Trade {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.matchLocked()
}

func (b *OrderBook) matchLocked() []Trade {
	var trades []Trade

	for {
		bid, ok := b.bestBid()
		if !ok {
			break
		}
		ask, ok := b.bestAsk()
		if !ok {
			break
		}
		if bid.Price < ask.Price {
			break
		}

		qty := bid.Qty
		if ask.Qty < qty {
			qty = ask.Qty
		}

		// Snapshot before decrement so the record carries the
		// quantities as they stood when the match was found.
		trades = append(trades, Trade{Bid: *bid, Ask: *ask, Price: ask.Price, Qty: qty})

		bid.Qty -= qty
		ask.Qty -= qty

		if bid.Qty == 0 {
			b.dropFilled(bid)
		}
		if ask.Qty == 0 {
			b.dropFilled(ask)
		}
	}

	return trades
}
