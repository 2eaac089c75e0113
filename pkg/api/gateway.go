package api

import (
	"github.com/hyuksong/marketsim/pkg/sim/session"
)

// Gateway bridges session events onto the WebSocket hub. It is the push
// transport the simulation core knows only as an event handler.
type Gateway struct {
	hub *Hub
}

// NewGateway wraps a hub as a session event handler.
func NewGateway(hub *Hub) *Gateway {
	return &Gateway{hub: hub}
}

func (g *Gateway) OnPriceUpdate(u session.PriceUpdate) {
	msg := WSMessage{Type: "price", Data: u}
	g.hub.BroadcastToChannel("prices", msg)
	g.hub.BroadcastToChannel("prices:"+u.Symbol, msg)
}

func (g *Gateway) OnCandleUpdate(u session.CandleUpdate) {
	msg := WSMessage{Type: "candle", Data: u}
	g.hub.BroadcastToChannel("candles", msg)
	g.hub.BroadcastToChannel("candles:"+u.Symbol, msg)
}
