package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/hyuksong/marketsim/params"
	"github.com/hyuksong/marketsim/pkg/sim/clock"
	"github.com/hyuksong/marketsim/pkg/sim/market"
	"github.com/hyuksong/marketsim/pkg/sim/price"
	"github.com/hyuksong/marketsim/pkg/sim/session"
	"github.com/hyuksong/marketsim/pkg/util"
)

// BuildSession assembles a session from a validated configuration: one
// instrument per config entry with its simulator, the simulated clock
// starting at start, and the given event handlers.
func BuildSession(cfg params.Config, start time.Time, handlers []session.EventHandler, wall util.Clock, logger *zap.SugaredLogger) (*session.Manager, error) {
	registry := market.NewRegistry()

	for _, ic := range cfg.Instruments {
		in := market.NewInstrument(ic.Symbol, ic.InitialPrice, nil, logger)
		if cfg.Simulation.UseBookPressure {
			in.Simulator = price.NewOrderBookPressure(
				cfg.Simulation.Drift,
				cfg.Simulation.Volatility,
				cfg.Simulation.Sensitivity,
				in.Book,
				nil,
			)
		} else {
			in.Simulator = price.NewGeometric(cfg.Simulation.Drift, cfg.Simulation.Volatility, nil)
		}
		if err := registry.Register(in); err != nil {
			return nil, err
		}
	}

	tp := clock.NewTimeProvider(start, cfg.Clock.TickInterval.Duration, cfg.Clock.DeltaTime.Duration, wall)
	return session.New(tp, registry, cfg.Timeframes, handlers, logger)
}
