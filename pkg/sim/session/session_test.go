package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyuksong/marketsim/pkg/sim/candle"
	"github.com/hyuksong/marketsim/pkg/sim/clock"
	"github.com/hyuksong/marketsim/pkg/sim/market"
	"github.com/hyuksong/marketsim/pkg/sim/orderbook"
)

var sessionStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// fakeClock lets tests fire wall-clock ticks by sending on a channel.
type fakeClock struct {
	ch chan time.Time
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time { return f.ch }
func (f *fakeClock) Now() time.Time                         { return time.Time{} }
func (f *fakeClock) tick()                                  { f.ch <- time.Time{} }

// stepSim advances the price by a fixed amount per tick; deterministic
// stand-in for the stochastic simulators.
type stepSim struct {
	step float64
}

func (s stepSim) SimulateNextPrice(current, deltaTime float64) float64 {
	return current + s.step
}

type recorder struct {
	mu      sync.Mutex
	prices  []PriceUpdate
	candles []CandleUpdate
}

func (r *recorder) OnPriceUpdate(u PriceUpdate) {
	r.mu.Lock()
	r.prices = append(r.prices, u)
	r.mu.Unlock()
}

func (r *recorder) OnCandleUpdate(u CandleUpdate) {
	r.mu.Lock()
	r.candles = append(r.candles, u)
	r.mu.Unlock()
}

func (r *recorder) priceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prices)
}

func (r *recorder) candleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.candles)
}

func (r *recorder) priceAt(i int) PriceUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prices[i]
}

func (r *recorder) candleAt(i int) CandleUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candles[i]
}

type fixture struct {
	m   *Manager
	fc  *fakeClock
	rec *recorder
}

func newFixture(t *testing.T, symbols []string, timeframes []string, extra ...EventHandler) *fixture {
	t.Helper()

	logger := zap.NewNop().Sugar()
	registry := market.NewRegistry()
	for _, sym := range symbols {
		in := market.NewInstrument(sym, 100.0, stepSim{step: 1}, logger)
		require.NoError(t, registry.Register(in))
	}

	fc := &fakeClock{ch: make(chan time.Time)}
	tp := clock.NewTimeProvider(sessionStart, time.Second, time.Minute, fc)

	rec := &recorder{}
	handlers := append(append([]EventHandler{}, extra...), rec)

	m, err := New(tp, registry, timeframes, handlers, logger)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	return &fixture{m: m, fc: fc, rec: rec}
}

func TestUnknownTimeframeFailsConstruction(t *testing.T) {
	logger := zap.NewNop().Sugar()
	registry := market.NewRegistry()
	require.NoError(t, registry.Register(market.NewInstrument("AAPL", 100.0, stepSim{}, logger)))
	tp := clock.NewTimeProvider(sessionStart, time.Second, time.Minute, &fakeClock{ch: make(chan time.Time)})

	_, err := New(tp, registry, []string{"1m", "7m"}, nil, logger)
	require.ErrorIs(t, err, candle.ErrUnknownTimeframe)

	_, err = New(tp, registry, nil, nil, logger)
	require.Error(t, err)
}

func TestTickDrivesPricesInConfigOrder(t *testing.T) {
	f := newFixture(t, []string{"MSFT", "AAPL"}, []string{"1m"})
	f.m.Start()

	f.fc.tick()

	require.Eventually(t, func() bool { return f.rec.priceCount() == 2 }, time.Second, time.Millisecond)

	first, second := f.rec.priceAt(0), f.rec.priceAt(1)
	assert.Equal(t, "MSFT", first.Symbol)
	assert.Equal(t, "AAPL", second.Symbol)
	assert.Equal(t, 101.0, first.Price)
	assert.Equal(t, sessionStart.Add(time.Minute).Unix(), first.Timestamp)

	msft, err := f.m.Instruments().Get("MSFT")
	require.NoError(t, err)
	assert.Equal(t, 101.0, msft.Price())
}

func TestTickCompletesCandles(t *testing.T) {
	f := newFixture(t, []string{"AAPL"}, []string{"1m"})
	f.m.Start()

	// Delta is one minute per tick on a 1m timeframe: the second tick
	// lands outside the first candle's window and completes it.
	f.fc.tick()
	f.fc.tick()

	require.Eventually(t, func() bool { return f.rec.candleCount() == 1 }, time.Second, time.Millisecond)

	cu := f.rec.candleAt(0)
	assert.Equal(t, "AAPL", cu.Symbol)
	assert.Equal(t, "1m", cu.Timeframe)
	assert.Equal(t, 101.0, cu.Candle.Open)
	assert.Equal(t, 101.0, cu.Candle.Close)
	assert.Equal(t, sessionStart.Add(time.Minute).Unix(), cu.Candle.Time)

	hist, err := f.m.History("AAPL", "1m")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, cu.Candle, hist[0])
}

func TestTradeDrivesPriceUpdate(t *testing.T) {
	f := newFixture(t, []string{"AAPL"}, []string{"1m"})

	_, _, err := f.m.SubmitOrder("AAPL", orderbook.Buy, orderbook.Limit, 150.0, 100, "c1")
	require.NoError(t, err)
	_, trades, err := f.m.SubmitOrder("AAPL", orderbook.Sell, orderbook.Limit, 149.5, 100, "c2")
	require.NoError(t, err)
	require.Len(t, trades, 1)

	in, err := f.m.Instruments().Get("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 149.5, in.Price(), "execution price becomes the current price")

	require.Eventually(t, func() bool { return f.rec.priceCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 149.5, f.rec.priceAt(0).Price)
}

// gateSim parks inside the simulation step until released, holding the tick
// path open so a trade can race it.
type gateSim struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateSim) SimulateNextPrice(current, deltaTime float64) float64 {
	g.entered <- struct{}{}
	<-g.release
	return current + 1
}

func TestTradeDuringTickStepIsNotLost(t *testing.T) {
	logger := zap.NewNop().Sugar()
	gate := &gateSim{entered: make(chan struct{}), release: make(chan struct{})}

	registry := market.NewRegistry()
	require.NoError(t, registry.Register(market.NewInstrument("AAPL", 100.0, gate, logger)))
	fc := &fakeClock{ch: make(chan time.Time)}
	tp := clock.NewTimeProvider(sessionStart, time.Second, time.Minute, fc)

	m, err := New(tp, registry, []string{"1m"}, nil, logger)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	_, _, err = m.SubmitOrder("AAPL", orderbook.Sell, orderbook.Limit, 149.5, 100, "c1")
	require.NoError(t, err)

	m.Start()
	fc.tick()
	<-gate.entered // the tick path is inside the simulation step

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, trades, err := m.SubmitOrder("AAPL", orderbook.Buy, orderbook.Limit, 150.0, 100, "c2")
		assert.NoError(t, err)
		assert.Len(t, trades, 1)
	}()

	// Give the trade time to reach the price write, then let the tick finish.
	time.Sleep(20 * time.Millisecond)
	close(gate.release)
	<-done

	// Either serial order ends at the execution price: trade-then-tick gives
	// 150.5, tick-then-trade gives 149.5. A stale tick write would leave
	// 101.0 and lose the trade.
	in, err := m.Instruments().Get("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 149.5, in.Price())
}

func TestRejectedOrderEmitsNothing(t *testing.T) {
	f := newFixture(t, []string{"AAPL"}, []string{"1m"})

	_, _, err := f.m.SubmitOrder("AAPL", orderbook.Buy, orderbook.Limit, 150.0, 0, "c1")
	require.ErrorIs(t, err, market.ErrInvalidQuantity)

	_, _, err = f.m.SubmitOrder("TSLA", orderbook.Buy, orderbook.Limit, 150.0, 10, "c1")
	require.Error(t, err, "unknown instrument")

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, f.rec.priceCount())

	in, err := f.m.Instruments().Get("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 0, in.Book.Depth())
}

type panickyHandler struct{}

func (panickyHandler) OnPriceUpdate(PriceUpdate)   { panic("transport down") }
func (panickyHandler) OnCandleUpdate(CandleUpdate) { panic("transport down") }

func TestHandlerPanicIsIsolated(t *testing.T) {
	// The panicking handler is registered before the recorder; delivery
	// must still reach the recorder and the session must keep running.
	f := newFixture(t, []string{"AAPL"}, []string{"1m"}, panickyHandler{})
	f.m.Start()

	f.fc.tick()
	f.fc.tick()

	require.Eventually(t, func() bool { return f.rec.priceCount() == 2 }, time.Second, time.Millisecond)
}

func TestCancelThroughSession(t *testing.T) {
	f := newFixture(t, []string{"AAPL"}, []string{"1m"})

	o, _, err := f.m.SubmitOrder("AAPL", orderbook.Buy, orderbook.Limit, 150.0, 100, "c1")
	require.NoError(t, err)

	ok, err := f.m.CancelOrder("AAPL", o.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.m.CancelOrder("AAPL", o.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.m.CancelOrder("TSLA", o.ID)
	assert.Error(t, err)
}

func TestStartStopIdempotent(t *testing.T) {
	f := newFixture(t, []string{"AAPL"}, []string{"1m"})

	f.m.Start()
	f.m.Start()
	f.fc.tick()
	require.Eventually(t, func() bool { return f.rec.priceCount() == 1 }, time.Second, time.Millisecond)

	f.m.Stop()
	f.m.Stop()

	assert.Equal(t, []string{"1m"}, f.m.Timeframes())
}
