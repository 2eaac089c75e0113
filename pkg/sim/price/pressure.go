package price

import (
	"math/rand"
	"time"

	"github.com/hyuksong/marketsim/pkg/sim/orderbook"
)

// pressureDepth is how many price levels per side feed the pressure signal.
const pressureDepth = 5

// DefaultSensitivity scales net book pressure into a drift adjustment.
const DefaultSensitivity = 0.01

// BookDepth is the read-only view of an order book the pressure simulator
// needs. *orderbook.OrderBook satisfies it.
type BookDepth interface {
	BidLevels() []orderbook.Level
	AskLevels() []orderbook.Level
}

// OrderBookPressure is the GBM variant whose drift leans with the book: net
// resting quantity over the top levels shifts the drift by
// netPressure × sensitivity before the geometric step.
type OrderBookPressure struct {
	drift       float64
	volatility  float64
	sensitivity float64
	book        BookDepth
	rng         *rand.Rand
}

// NewOrderBookPressure creates a pressure-adjusted simulator reading depth
// from book. A nil rng gets a time-seeded source.
func NewOrderBookPressure(drift, volatility, sensitivity float64, book BookDepth, rng *rand.Rand) *OrderBookPressure {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &OrderBookPressure{
		drift:       drift,
		volatility:  volatility,
		sensitivity: sensitivity,
		book:        book,
		rng:         rng,
	}
}

func (s *OrderBookPressure) SimulateNextPrice(currentPrice, deltaTime float64) float64 {
	net := sumTop(s.book.BidLevels()) - sumTop(s.book.AskLevels())
	adjusted := s.drift + net*s.sensitivity
	return step(currentPrice, deltaTime, adjusted, s.volatility, s.rng)
}

func sumTop(levels []orderbook.Level) float64 {
	var total int64
	for i, l := range levels {
		if i == pressureDepth {
			break
		}
		total += l.Qty
	}
	return float64(total)
}
