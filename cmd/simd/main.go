package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hyuksong/marketsim/params"
	"github.com/hyuksong/marketsim/pkg/api"
	"github.com/hyuksong/marketsim/pkg/sim"
	"github.com/hyuksong/marketsim/pkg/sim/session"
	"github.com/hyuksong/marketsim/pkg/util"
)

func main() {
	configPath := flag.String("config", "", "path to TOML configuration file (optional)")
	flag.Parse()

	cfg, err := params.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLoggerWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	hub := api.NewHub(sugar)
	handlers := []session.EventHandler{api.NewGateway(hub)}

	sess, err := sim.BuildSession(cfg, time.Now().UTC(), handlers, util.RealClock{}, sugar)
	if err != nil {
		sugar.Fatalw("session_build_failed", "err", err)
	}

	server := api.NewServer(sess, hub, cfg.API.AllowedOrigins, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess.Start()
	defer sess.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, cfg.API.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		sugar.Infow("shutdown_requested")
		sess.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Errorw("simd_exit", "err", err)
	}
}
