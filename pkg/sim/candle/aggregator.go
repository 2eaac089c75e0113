package candle

import (
	"sync"
	"time"
)

// Aggregator folds a price stream into one in-progress candle for a single
// timeframe. The candle is emitted exactly once, when the first price outside
// its window arrives; a new candle opens immediately for the new window.
//
// Aggregators fed from the same stream do not interact: each computes its own
// window boundaries from the shared alignment rule, so replaying an identical
// price sequence yields identical candles.
//
// AddPrice may be called from the tick path and the trade path concurrently;
// the aggregator carries its own mutex.
type Aggregator struct {
	mu sync.Mutex

	tf          Timeframe
	current     *Candle
	windowStart int64

	handlers []func(Candle)
}

// NewAggregator creates an aggregator for the given timeframe.
func NewAggregator(tf Timeframe) *Aggregator {
	return &Aggregator{tf: tf}
}

// Timeframe returns the timeframe this aggregator folds into.
func (a *Aggregator) Timeframe() Timeframe { return a.tf }

// OnCandle registers a handler invoked with every completed candle. Register
// before feeding prices; registration is not synchronized with AddPrice.
// Handlers run under the aggregator's lock and must not call back into it.
func (a *Aggregator) OnCandle(h func(Candle)) {
	a.handlers = append(a.handlers, h)
}

// AddPrice folds one price observation into the current window. Completed
// candles are delivered before AddPrice returns, still under the lock, so
// completions arrive in window order even when the tick and trade paths feed
// concurrently.
func (a *Aggregator) AddPrice(ts time.Time, price float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.tf.Duration <= 0:
		// Tick timeframe: every observation is its own candle.
		a.emit(newCandle(a.tf.AlignToWindow(ts), price))

	case a.current == nil:
		a.open(ts, price)

	case ts.Unix() < a.windowStart+int64(a.tf.Duration/time.Second):
		a.current.fold(price)

	default:
		a.emit(*a.current)
		a.open(ts, price)
	}
}

func (a *Aggregator) emit(c Candle) {
	for _, h := range a.handlers {
		h(c)
	}
}

// Current returns a copy of the in-progress candle, if any.
func (a *Aggregator) Current() (Candle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return Candle{}, false
	}
	return *a.current, true
}

func (a *Aggregator) open(ts time.Time, price float64) {
	a.windowStart = a.tf.AlignToWindow(ts)
	c := newCandle(a.windowStart, price)
	a.current = &c
}
