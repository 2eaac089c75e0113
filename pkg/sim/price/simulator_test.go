package price

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyuksong/marketsim/pkg/sim/orderbook"
)

func TestGeometricStaysPositive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sim := NewGeometric(0.0001, 0.01, rng)

	price := 150.0
	for i := 0; i < 10000; i++ {
		price = sim.SimulateNextPrice(price, 60)
		require.Greater(t, price, 0.0)
		require.False(t, math.IsNaN(price) || math.IsInf(price, 0))
	}
}

func TestGeometricZeroDeltaTime(t *testing.T) {
	sim := NewGeometric(0.0001, 0.01, rand.New(rand.NewSource(1)))
	// With Δt = 0 both the drift and diffusion terms vanish.
	assert.Equal(t, 150.0, sim.SimulateNextPrice(150.0, 0))
}

func TestGeometricDeterministicWithSeed(t *testing.T) {
	a := NewGeometric(0.0001, 0.01, rand.New(rand.NewSource(42)))
	b := NewGeometric(0.0001, 0.01, rand.New(rand.NewSource(42)))

	pa, pb := 100.0, 100.0
	for i := 0; i < 100; i++ {
		pa = a.SimulateNextPrice(pa, 1)
		pb = b.SimulateNextPrice(pb, 1)
	}
	assert.Equal(t, pa, pb)
}

func TestGeometricZeroVolatilityIsPureDrift(t *testing.T) {
	sim := NewGeometric(0.001, 0, rand.New(rand.NewSource(1)))
	next := sim.SimulateNextPrice(100.0, 10)
	assert.InDelta(t, 100.0*math.Exp(0.001*10), next, 1e-9)
}

type stubDepth struct {
	bids []int64
	asks []int64
}

func (s stubDepth) BidLevels() []orderbook.Level { return levels(s.bids) }
func (s stubDepth) AskLevels() []orderbook.Level { return levels(s.asks) }

func levels(qtys []int64) []orderbook.Level {
	out := make([]orderbook.Level, len(qtys))
	for i, q := range qtys {
		out[i] = orderbook.Level{Price: 100 - float64(i), Qty: q}
	}
	return out
}

func TestPressureShiftsDrift(t *testing.T) {
	// Zero volatility isolates the drift term; heavy bids must push the
	// price above the pure-drift path, heavy asks below.
	base := NewGeometric(0.0001, 0, nil).SimulateNextPrice(100.0, 1)

	buyHeavy := NewOrderBookPressure(0.0001, 0, DefaultSensitivity,
		stubDepth{bids: []int64{50, 40, 30, 20, 10}}, nil)
	sellHeavy := NewOrderBookPressure(0.0001, 0, DefaultSensitivity,
		stubDepth{asks: []int64{50, 40, 30, 20, 10}}, nil)

	assert.Greater(t, buyHeavy.SimulateNextPrice(100.0, 1), base)
	assert.Less(t, sellHeavy.SimulateNextPrice(100.0, 1), base)
}

func TestPressureUsesTopFiveLevelsOnly(t *testing.T) {
	shallow := stubDepth{bids: []int64{10, 10, 10, 10, 10}}
	deep := stubDepth{bids: []int64{10, 10, 10, 10, 10, 9999}}

	a := NewOrderBookPressure(0.0001, 0, DefaultSensitivity, shallow, nil)
	b := NewOrderBookPressure(0.0001, 0, DefaultSensitivity, deep, nil)

	assert.Equal(t, a.SimulateNextPrice(100.0, 1), b.SimulateNextPrice(100.0, 1),
		"levels beyond the fifth do not contribute")
}
