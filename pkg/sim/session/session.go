package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyuksong/marketsim/pkg/sim/candle"
	"github.com/hyuksong/marketsim/pkg/sim/clock"
	"github.com/hyuksong/marketsim/pkg/sim/market"
	"github.com/hyuksong/marketsim/pkg/sim/orderbook"
)

// historyCap bounds the completed-candle ring kept per (instrument,
// timeframe) for the REST surface.
const historyCap = 500

type aggEntry struct {
	tf  candle.Timeframe
	agg *candle.Aggregator
}

// Manager orchestrates one market session: it owns the simulated clock, the
// instruments, and one candle aggregator per (instrument, timeframe). Clock
// ticks drive the price simulators; order submissions drive matching; both
// paths update instrument prices, feed the same aggregators, and emit
// notifications through the bounded dispatcher.
//
// The instrument set and the timeframe set are fixed at construction.
type Manager struct {
	log         *zap.SugaredLogger
	clock       *clock.TimeProvider
	instruments *market.Registry
	timeframes  []candle.Timeframe

	// aggs[symbol] holds the aggregators in timeframe configuration order.
	aggs map[string][]aggEntry

	dispatch *dispatcher

	histMu  sync.RWMutex
	history map[string][]candle.Candle // "symbol/timeframe" -> completed ring
}

// New builds a session from a pre-populated registry. Timeframe keys come
// from the closed set the candle package defines; an unknown key fails
// construction, the process must not come up with a malformed timeframe
// configuration.
func New(tp *clock.TimeProvider, instruments *market.Registry, timeframeKeys []string, handlers []EventHandler, logger *zap.SugaredLogger) (*Manager, error) {
	if len(timeframeKeys) == 0 {
		return nil, fmt.Errorf("at least one timeframe is required")
	}

	tfs := make([]candle.Timeframe, 0, len(timeframeKeys))
	for _, key := range timeframeKeys {
		tf, err := candle.ParseTimeframe(key)
		if err != nil {
			return nil, err
		}
		tfs = append(tfs, tf)
	}

	m := &Manager{
		log:         logger,
		clock:       tp,
		instruments: instruments,
		timeframes:  tfs,
		aggs:        make(map[string][]aggEntry),
		dispatch:    newDispatcher(handlers, defaultQueueSize, logger),
		history:     make(map[string][]candle.Candle),
	}

	for _, in := range instruments.List() {
		in := in
		entries := make([]aggEntry, 0, len(tfs))
		for _, tf := range tfs {
			tf := tf
			agg := candle.NewAggregator(tf)
			agg.OnCandle(func(c candle.Candle) {
				m.handleCandle(in.Symbol(), tf.Key, c)
			})
			entries = append(entries, aggEntry{tf: tf, agg: agg})
		}
		m.aggs[in.Symbol()] = entries

		in.Book.OnTrade(func(t orderbook.Trade) {
			m.handleTrade(in, t)
		})
	}

	tp.OnTick(m.handleTick)
	return m, nil
}

// Start arms the simulated clock. Idempotent; the books survive restarts.
func (m *Manager) Start() {
	m.log.Infow("session_started", "instruments", m.instruments.Count(), "timeframes", len(m.timeframes))
	m.clock.Start()
}

// Stop disarms the clock. In-flight ticks and trades run to completion; a
// single trailing tick may still be processed.
func (m *Manager) Stop() {
	m.clock.Stop()
	m.log.Infow("session_stopped")
}

// Close stops the clock and shuts down the dispatcher after draining it.
func (m *Manager) Close() {
	m.Stop()
	m.dispatch.close()
}

// Instruments exposes the registry for the API surface.
func (m *Manager) Instruments() *market.Registry { return m.instruments }

// Timeframes returns the configured timeframe keys in order.
func (m *Manager) Timeframes() []string {
	keys := make([]string, len(m.timeframes))
	for i, tf := range m.timeframes {
		keys[i] = tf.Key
	}
	return keys
}

// Now returns the current simulated time.
func (m *Manager) Now() time.Time { return m.clock.Now() }

// SubmitOrder validates and submits an order for symbol through the
// instrument's gateway. The submission timestamp is simulated time.
func (m *Manager) SubmitOrder(symbol string, side orderbook.Side, typ orderbook.OrderType, price float64, qty int64, clientID string) (*orderbook.Order, []orderbook.Trade, error) {
	in, err := m.instruments.Get(symbol)
	if err != nil {
		return nil, nil, err
	}
	o := orderbook.NewOrder(symbol, side, typ, price, qty, clientID, m.clock.Now())
	trades, err := in.Manager.SubmitOrder(o)
	if err != nil {
		return nil, nil, err
	}
	return o, trades, nil
}

// CancelOrder removes a resting order from symbol's book.
func (m *Manager) CancelOrder(symbol, orderID string) (bool, error) {
	in, err := m.instruments.Get(symbol)
	if err != nil {
		return false, err
	}
	return in.Manager.CancelOrder(orderID), nil
}

// History returns the completed candles retained for (symbol, timeframe),
// oldest first.
func (m *Manager) History(symbol, timeframeKey string) ([]candle.Candle, error) {
	if _, err := m.instruments.Get(symbol); err != nil {
		return nil, err
	}
	if _, err := candle.ParseTimeframe(timeframeKey); err != nil {
		return nil, err
	}

	m.histMu.RLock()
	defer m.histMu.RUnlock()
	ring := m.history[historyKey(symbol, timeframeKey)]
	out := make([]candle.Candle, len(ring))
	copy(out, ring)
	return out, nil
}

// handleTick advances every instrument one simulation step: new simulated
// price, aggregator feeds in timeframe order, price notification.
// Instruments are processed in configuration order.
func (m *Manager) handleTick(now time.Time) {
	dt := m.clock.Delta().Seconds()
	for _, in := range m.instruments.List() {
		// Read, simulate, and write under the instrument's lock; a trade
		// executing mid-step must not have its price overwritten.
		next := in.Update(func(current float64) float64 {
			return in.Simulator.SimulateNextPrice(current, dt)
		})

		for _, e := range m.aggs[in.Symbol()] {
			e.agg.AddPrice(now, next)
		}

		m.dispatch.publishPrice(PriceUpdate{
			Symbol:    in.Symbol(),
			Price:     next,
			Timestamp: now.Unix(),
		})
	}
}

// handleTrade applies one execution to the instrument: the trade price
// becomes the current price, feeds the aggregators at simulated time, and
// raises a price notification.
func (m *Manager) handleTrade(in *market.Instrument, t orderbook.Trade) {
	now := m.clock.Now()
	in.SetPrice(t.Price)

	for _, e := range m.aggs[in.Symbol()] {
		e.agg.AddPrice(now, t.Price)
	}

	m.dispatch.publishPrice(PriceUpdate{
		Symbol:    in.Symbol(),
		Price:     t.Price,
		Timestamp: now.Unix(),
	})
}

func (m *Manager) handleCandle(symbol, timeframeKey string, c candle.Candle) {
	m.log.Debugw("candle_completed",
		"symbol", symbol,
		"timeframe", timeframeKey,
		"open", c.Open, "high", c.High, "low", c.Low, "close", c.Close,
		"window_start", c.Time,
	)

	key := historyKey(symbol, timeframeKey)
	m.histMu.Lock()
	ring := append(m.history[key], c)
	if len(ring) > historyCap {
		ring = ring[len(ring)-historyCap:]
	}
	m.history[key] = ring
	m.histMu.Unlock()

	m.dispatch.publishCandle(CandleUpdate{
		Symbol:    symbol,
		Timeframe: timeframeKey,
		Candle:    c,
	})
}

func historyKey(symbol, timeframeKey string) string {
	return symbol + "/" + timeframeKey
}
