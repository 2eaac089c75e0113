package orderbook

import (
	"container/heap"
	"sort"
	"sync"
)

// Level is the aggregate resting quantity at one price.
type Level struct {
	Price float64
	Qty   int64
}

// OrderBook holds the resting orders for one instrument, both sides kept in
// price-time priority: bids by price descending, asks by price ascending,
// FIFO by submission timestamp within a price level.
//
// Best-price lookup goes through a heap of level prices; each level is a
// timestamp-ordered queue. An order index gives O(1) cancellation lookup.
type OrderBook struct {
	mu sync.RWMutex

	symbol string

	bidHeap *bidPriceHeap
	askHeap *askPriceHeap

	bids map[float64][]*Order // price -> queue, oldest first
	asks map[float64][]*Order

	orderIndex map[string]float64 // order ID -> level price

	tradeHandlers []func(Trade)
}

// NewOrderBook creates an empty book for symbol.
func NewOrderBook(symbol string) *OrderBook {
	bidHeap := &bidPriceHeap{}
	askHeap := &askPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &OrderBook{
		symbol:     symbol,
		bidHeap:    bidHeap,
		askHeap:    askHeap,
		bids:       make(map[float64][]*Order),
		asks:       make(map[float64][]*Order),
		orderIndex: make(map[string]float64),
	}
}

// Symbol returns the instrument this book belongs to.
func (b *OrderBook) Symbol() string { return b.symbol }

// OnTrade registers a handler invoked once per trade, in match order, from
// within AddOrder. Registration is not synchronized with matching; wire all
// handlers before the book starts taking orders.
func (b *OrderBook) OnTrade(h func(Trade)) {
	b.tradeHandlers = append(b.tradeHandlers, h)
}

// AddOrder inserts the order on its side and immediately runs the matching
// loop. Trades are returned in the order they were produced and delivered to
// every registered trade handler.
func (b *OrderBook) AddOrder(o *Order) []Trade {
	b.mu.Lock()
	if o.Side == Buy {
		b.insert(o, b.bids, func(p float64) { heap.Push(b.bidHeap, p) })
	} else {
		b.insert(o, b.asks, func(p float64) { heap.Push(b.askHeap, p) })
	}
	trades := b.matchLocked()
	b.mu.Unlock()

	for _, t := range trades {
		for _, h := range b.tradeHandlers {
			h(t)
		}
	}
	return trades
}

// insert queues the order at its price level keeping the level ordered by
// submission timestamp, oldest first.
func (b *OrderBook) insert(o *Order, side map[float64][]*Order, pushPrice func(float64)) {
	level := side[o.Price]
	if len(level) == 0 {
		pushPrice(o.Price)
	}
	i := sort.Search(len(level), func(i int) bool {
		return level[i].Timestamp.After(o.Timestamp)
	})
	level = append(level, nil)
	copy(level[i+1:], level[i:])
	level[i] = o
	side[o.Price] = level
	b.orderIndex[o.ID] = o.Price
}

// RemoveOrder cancels a resting order by ID. It has no matching side effects
// and reports whether the order was found.
func (b *OrderBook) RemoveOrder(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	price, ok := b.orderIndex[id]
	if !ok {
		return false
	}

	if level, exists := b.bids[price]; exists {
		for i, o := range level {
			if o.ID == id {
				b.bids[price] = append(level[:i], level[i+1:]...)
				if len(b.bids[price]) == 0 {
					delete(b.bids, price)
					removeBidPrice(b.bidHeap, price)
				}
				delete(b.orderIndex, id)
				return true
			}
		}
	}

	if level, exists := b.asks[price]; exists {
		for i, o := range level {
			if o.ID == id {
				b.asks[price] = append(level[:i], level[i+1:]...)
				if len(b.asks[price]) == 0 {
					delete(b.asks, price)
					removeAskPrice(b.askHeap, price)
				}
				delete(b.orderIndex, id)
				return true
			}
		}
	}

	return false
}

func removeBidPrice(h *bidPriceHeap, price float64) {
	for i := 0; i < h.Len(); i++ {
		if (*h)[i] == price {
			heap.Remove(h, i)
			return
		}
	}
}

func removeAskPrice(h *askPriceHeap, price float64) {
	for i := 0; i < h.Len(); i++ {
		if (*h)[i] == price {
			heap.Remove(h, i)
			return
		}
	}
}

// bestBid returns the highest-priority bid without removing it.
func (b *OrderBook) bestBid() (*Order, bool) {
	for b.bidHeap.Len() > 0 {
		p := b.bidHeap.Peek()
		if level := b.bids[p]; len(level) > 0 {
			return level[0], true
		}
		heap.Pop(b.bidHeap)
		delete(b.bids, p)
	}
	return nil, false
}

// bestAsk returns the highest-priority ask without removing it.
func (b *OrderBook) bestAsk() (*Order, bool) {
	for b.askHeap.Len() > 0 {
		p := b.askHeap.Peek()
		if level := b.asks[p]; len(level) > 0 {
			return level[0], true
		}
		heap.Pop(b.askHeap)
		delete(b.asks, p)
	}
	return nil, false
}

// dropFilled removes a fully filled order from the front of its level.
func (b *OrderBook) dropFilled(o *Order) {
	if o.Side == Buy {
		level := b.bids[o.Price]
		b.bids[o.Price] = level[1:]
		if len(b.bids[o.Price]) == 0 {
			delete(b.bids, o.Price)
			removeBidPrice(b.bidHeap, o.Price)
		}
	} else {
		level := b.asks[o.Price]
		b.asks[o.Price] = level[1:]
		if len(b.asks[o.Price]) == 0 {
			delete(b.asks, o.Price)
			removeAskPrice(b.askHeap, o.Price)
		}
	}
	delete(b.orderIndex, o.ID)
}

// BestBid returns the highest bid price, or 0 if the bid side is empty.
func (b *OrderBook) BestBid() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	best := 0.0
	for price, level := range b.bids {
		if len(level) > 0 && price > best {
			best = price
		}
	}
	return best
}

// BestAsk returns the lowest ask price, or 0 if the ask side is empty.
func (b *OrderBook) BestAsk() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	best := 0.0
	for price, level := range b.asks {
		if len(level) > 0 && (best == 0 || price < best) {
			best = price
		}
	}
	return best
}

// BidLevels returns aggregate bid levels sorted best (highest) first.
func (b *OrderBook) BidLevels() []Level {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := aggregateLevels(b.bids)
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price > levels[j].Price
	})
	return levels
}

// AskLevels returns aggregate ask levels sorted best (lowest) first.
func (b *OrderBook) AskLevels() []Level {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := aggregateLevels(b.asks)
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price < levels[j].Price
	})
	return levels
}

func aggregateLevels(side map[float64][]*Order) []Level {
	var levels []Level
	for price, orders := range side {
		if len(orders) == 0 {
			continue
		}
		var qty int64
		for _, o := range orders {
			qty += o.Qty
		}
		levels = append(levels, Level{Price: price, Qty: qty})
	}
	return levels
}

// Orders returns copies of the resting orders on one side in priority order.
func (b *OrderBook) Orders(side Side) []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m := b.bids
	if side == Sell {
		m = b.asks
	}
	var prices []float64
	for p, level := range m {
		if len(level) > 0 {
			prices = append(prices, p)
		}
	}
	if side == Buy {
		sort.Sort(sort.Reverse(sort.Float64Slice(prices)))
	} else {
		sort.Float64s(prices)
	}
	var out []Order
	for _, p := range prices {
		for _, o := range m[p] {
			out = append(out, *o)
		}
	}
	return out
}

// Depth returns the number of resting orders across both sides.
func (b *OrderBook) Depth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orderIndex)
}
