package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/hyuksong/marketsim/pkg/sim/market"
	"github.com/hyuksong/marketsim/pkg/sim/orderbook"
	"github.com/hyuksong/marketsim/pkg/sim/session"
)

// Server exposes the simulation over REST and WebSocket. It is an external
// collaborator of the session: everything it pushes arrives through the
// event-handler capability, everything it reads goes through the session's
// query methods.
type Server struct {
	sess   *session.Manager
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger

	allowedOrigins []string
}

// NewServer wires the REST routes onto an existing hub. The hub is created
// first so its Gateway can be registered on the session before the session
// is constructed.
func NewServer(sess *session.Manager, hub *Hub, allowedOrigins []string, log *zap.SugaredLogger) *Server {
	s := &Server{
		sess:           sess,
		router:         mux.NewRouter(),
		hub:            hub,
		log:            log,
		allowedOrigins: allowedOrigins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/instruments", s.handleListInstruments).Methods("GET")
	api.HandleFunc("/instruments/{symbol}", s.handleGetInstrument).Methods("GET")
	api.HandleFunc("/instruments/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/instruments/{symbol}/candles", s.handleGetCandles).Methods("GET")

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and serves HTTP on addr. It blocks until the listener
// fails or ctx is cancelled; on cancellation the server drains in-flight
// requests and returns nil.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{Addr: addr, Handler: c.Handler(s.router)}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Infow("api_server_started", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.log.Infow("api_server_stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments := s.sess.Instruments().List()
	response := make([]InstrumentInfo, len(instruments))
	for i, in := range instruments {
		response[i] = instrumentInfo(in)
	}
	respondJSON(w, response)
}

func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	in, err := s.sess.Instruments().Get(symbol)
	if err != nil {
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return
	}
	respondJSON(w, instrumentInfo(in))
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	in, err := s.sess.Instruments().Get(symbol)
	if err != nil {
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return
	}

	bidLevels := in.Book.BidLevels()
	askLevels := in.Book.AskLevels()

	bids := make([]PriceLevel, len(bidLevels))
	for i, l := range bidLevels {
		bids[i] = PriceLevel{Price: l.Price, Size: l.Qty}
	}
	asks := make([]PriceLevel, len(askLevels))
	for i, l := range askLevels {
		asks[i] = PriceLevel{Price: l.Price, Size: l.Qty}
	}

	respondJSON(w, OrderbookSnapshot{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: s.sess.Now().Unix(),
	})
}

func (s *Server) handleGetCandles(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "1m"
	}

	candles, err := s.sess.History(symbol, timeframe)
	if err != nil {
		respondError(w, http.StatusNotFound, "candle history not available", err.Error())
		return
	}

	respondJSON(w, CandleHistory{Symbol: symbol, Timeframe: timeframe, Candles: candles})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}
	typ, err := parseOrderType(req.Type)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order type", err.Error())
		return
	}

	order, trades, err := s.sess.SubmitOrder(req.Symbol, side, typ, req.Price, req.Qty, req.ClientID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, market.ErrInvalidQuantity) || errors.Is(err, market.ErrInvalidPrice) {
			status = http.StatusUnprocessableEntity
		}
		respondError(w, status, "order rejected", err.Error())
		return
	}

	response := SubmitOrderResponse{OrderID: order.ID, Trades: make([]TradeInfo, len(trades))}
	for i, t := range trades {
		response.Trades[i] = TradeInfo{BidID: t.Bid.ID, AskID: t.Ask.ID, Price: t.Price, Qty: t.Qty}
	}
	respondJSON(w, response)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	cancelled, err := s.sess.CancelOrder(req.Symbol, req.OrderID)
	if err != nil {
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return
	}
	respondJSON(w, CancelOrderResponse{Cancelled: cancelled})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{
		"status":      "ok",
		"simTime":     s.sess.Now().Unix(),
		"instruments": s.sess.Instruments().Count(),
	})
}

func instrumentInfo(in *market.Instrument) InstrumentInfo {
	return InstrumentInfo{
		Symbol:  in.Symbol(),
		Price:   in.Price(),
		BestBid: in.Book.BestBid(),
		BestAsk: in.Book.BestAsk(),
		Depth:   in.Book.Depth(),
	}
}

func parseSide(s string) (orderbook.Side, error) {
	switch s {
	case "buy":
		return orderbook.Buy, nil
	case "sell":
		return orderbook.Sell, nil
	default:
		return 0, fmt.Errorf("side must be \"buy\" or \"sell\", got %q", s)
	}
}

func parseOrderType(s string) (orderbook.OrderType, error) {
	switch s {
	case "market":
		return orderbook.Market, nil
	case "limit", "":
		return orderbook.Limit, nil
	case "stop":
		return orderbook.Stop, nil
	case "stop_limit":
		return orderbook.StopLimit, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", s)
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Details: details})
}
