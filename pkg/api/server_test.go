package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyuksong/marketsim/pkg/sim/clock"
	"github.com/hyuksong/marketsim/pkg/sim/market"
	"github.com/hyuksong/marketsim/pkg/sim/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := zap.NewNop().Sugar()
	registry := market.NewRegistry()
	require.NoError(t, registry.Register(market.NewInstrument("AAPL", 100.0, nil, logger)))

	tp := clock.NewTimeProvider(time.Unix(0, 0), time.Second, time.Minute, nil)
	sess, err := session.New(tp, registry, []string{"1m"}, nil, logger)
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	return NewServer(sess, NewHub(logger), []string{"*"}, logger)
}

func TestStartReturnsOnContextCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "graceful shutdown returns nil")
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestListInstruments(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/instruments", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var infos []InstrumentInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "AAPL", infos[0].Symbol)
	assert.Equal(t, 100.0, infos[0].Price)
}
