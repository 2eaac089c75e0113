package session

import (
	"go.uber.org/zap"
)

// defaultQueueSize bounds the notification queue between the tick/trade
// paths and the dispatch goroutine.
const defaultQueueSize = 1024

type event struct {
	price  *PriceUpdate
	candle *CandleUpdate
}

// dispatcher decouples notification fan-out from the tick and trade paths: a
// slow or failing handler can never stall the simulation. Events go through
// a bounded queue drained by a single goroutine; when the queue is full the
// event is dropped and counted, never blocked on.
type dispatcher struct {
	log      *zap.SugaredLogger
	handlers []EventHandler
	queue    chan event
	done     chan struct{}
	stopped  chan struct{}
}

func newDispatcher(handlers []EventHandler, size int, log *zap.SugaredLogger) *dispatcher {
	if size <= 0 {
		size = defaultQueueSize
	}
	d := &dispatcher{
		log:      log,
		handlers: handlers,
		queue:    make(chan event, size),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) publishPrice(u PriceUpdate) {
	d.publish(event{price: &u})
}

func (d *dispatcher) publishCandle(u CandleUpdate) {
	d.publish(event{candle: &u})
}

func (d *dispatcher) publish(ev event) {
	select {
	case d.queue <- ev:
	default:
		d.log.Warnw("event_dropped", "queue_size", cap(d.queue))
	}
}

// close stops the dispatch goroutine after it drains the queue. Events
// published after close may be silently discarded.
func (d *dispatcher) close() {
	select {
	case <-d.done:
		return
	default:
	}
	close(d.done)
	<-d.stopped
}

func (d *dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case ev := <-d.queue:
			d.fanout(ev)
		case <-d.done:
			// Drain whatever is already queued.
			for {
				select {
				case ev := <-d.queue:
					d.fanout(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *dispatcher) fanout(ev event) {
	for _, h := range d.handlers {
		d.deliver(h, ev)
	}
}

// deliver invokes one handler, containing any panic so the remaining
// handlers still receive the event.
func (d *dispatcher) deliver(h EventHandler, ev event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("event_handler_panic", "err", r)
		}
	}()

	switch {
	case ev.price != nil:
		h.OnPriceUpdate(*ev.price)
	case ev.candle != nil:
		h.OnCandleUpdate(*ev.candle)
	}
}
