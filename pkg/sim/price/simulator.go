package price

import (
	"math"
	"math/rand"
	"time"
)

// Simulator produces the next simulated price from the current price and the
// elapsed simulation time. Implementations are called once per clock tick per
// instrument; trade-driven price changes never go through a simulator.
type Simulator interface {
	SimulateNextPrice(currentPrice, deltaTime float64) float64
}

// Geometric evolves the price as geometric Brownian motion:
//
//	next = current * exp((drift - volatility²/2)·Δt + volatility·√Δt·ε)
//
// with ε a standard normal sample. The multiplicative form keeps the price
// strictly positive for any finite inputs.
type Geometric struct {
	drift      float64
	volatility float64
	rng        *rand.Rand
}

// NewGeometric creates a GBM simulator. A nil rng gets a time-seeded source;
// tests inject a fixed seed for reproducible paths.
func NewGeometric(drift, volatility float64, rng *rand.Rand) *Geometric {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Geometric{drift: drift, volatility: volatility, rng: rng}
}

func (g *Geometric) SimulateNextPrice(currentPrice, deltaTime float64) float64 {
	return step(currentPrice, deltaTime, g.drift, g.volatility, g.rng)
}

func step(current, dt, drift, volatility float64, rng *rand.Rand) float64 {
	eps := normalSample(rng)
	return current * math.Exp((drift-0.5*volatility*volatility)*dt+volatility*math.Sqrt(dt)*eps)
}

// normalSample draws a standard normal via the Box-Muller transform. The
// 1-u flip keeps the log argument away from zero.
func normalSample(rng *rand.Rand) float64 {
	u1 := 1.0 - rng.Float64()
	u2 := 1.0 - rng.Float64()
	return math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
}
