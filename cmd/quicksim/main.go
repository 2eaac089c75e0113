package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyuksong/marketsim/params"
	"github.com/hyuksong/marketsim/pkg/sim"
	"github.com/hyuksong/marketsim/pkg/sim/orderbook"
	"github.com/hyuksong/marketsim/pkg/sim/session"
	"github.com/hyuksong/marketsim/pkg/util"
)

// consoleHandler logs every simulation event; the quicksim stand-in for a
// real push transport.
type consoleHandler struct {
	log *zap.SugaredLogger
}

func (h *consoleHandler) OnPriceUpdate(u session.PriceUpdate) {
	h.log.Infow("price", "symbol", u.Symbol, "price", u.Price, "ts", u.Timestamp)
}

func (h *consoleHandler) OnCandleUpdate(u session.CandleUpdate) {
	h.log.Infow("candle",
		"symbol", u.Symbol,
		"timeframe", u.Timeframe,
		"open", u.Candle.Open,
		"high", u.Candle.High,
		"low", u.Candle.Low,
		"close", u.Candle.Close,
		"window_start", u.Candle.Time,
	)
}

func main() {
	duration := flag.Duration("duration", 0, "stop after this long (0 = run until interrupted)")
	flag.Parse()

	cfg := params.Default()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	handlers := []session.EventHandler{&consoleHandler{log: sugar}}
	sess, err := sim.BuildSession(cfg, time.Now().UTC(), handlers, util.RealClock{}, sugar)
	if err != nil {
		sugar.Fatalw("session_build_failed", "err", err)
	}

	sess.Start()
	defer sess.Close()

	// Seed the AAPL book with a resting pair that does not cross.
	if _, _, err := sess.SubmitOrder("AAPL", orderbook.Buy, orderbook.Limit, 149.5, 100, "quicksim"); err != nil {
		sugar.Errorw("seed_order_failed", "err", err)
	}
	if _, _, err := sess.SubmitOrder("AAPL", orderbook.Sell, orderbook.Limit, 150.5, 100, "quicksim"); err != nil {
		sugar.Errorw("seed_order_failed", "err", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	if *duration > 0 {
		select {
		case <-interrupt:
		case <-time.After(*duration):
		}
	} else {
		<-interrupt
	}

	sess.Stop()
}
