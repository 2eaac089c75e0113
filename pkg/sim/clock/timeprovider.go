package clock

import (
	"sync"
	"time"

	"github.com/hyuksong/marketsim/pkg/util"
)

// TimeProvider is the simulated market clock. Every tickInterval of wall
// time it advances its simulated timestamp by delta and emits a tick to all
// subscribers from its own goroutine.
//
// Start and Stop are idempotent. After Stop returns, at most one tick
// already in flight may still be delivered; subscribers must tolerate it.
type TimeProvider struct {
	mu      sync.Mutex
	current time.Time
	running bool
	stop    chan struct{}

	clock        util.Clock
	tickInterval time.Duration
	delta        time.Duration

	handlers []func(time.Time)
}

// NewTimeProvider creates a stopped clock at start. tickInterval is wall
// time between ticks; delta is the simulated time added per tick.
func NewTimeProvider(start time.Time, tickInterval, delta time.Duration, wall util.Clock) *TimeProvider {
	if wall == nil {
		wall = util.RealClock{}
	}
	return &TimeProvider{
		current:      start,
		clock:        wall,
		tickInterval: tickInterval,
		delta:        delta,
	}
}

// OnTick subscribes to tick events. Subscribe before Start; registration is
// not synchronized with a running clock.
func (tp *TimeProvider) OnTick(h func(time.Time)) {
	tp.handlers = append(tp.handlers, h)
}

// Now returns the current simulated time.
func (tp *TimeProvider) Now() time.Time {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.current
}

// Delta returns the simulated time added per tick.
func (tp *TimeProvider) Delta() time.Duration { return tp.delta }

// Start arms the repeating timer. Calling Start on a running clock is a
// no-op.
func (tp *TimeProvider) Start() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.running {
		return
	}
	tp.running = true
	tp.stop = make(chan struct{})
	go tp.run(tp.stop)
}

// Stop disarms the timer. Calling Stop on a stopped clock is a no-op.
func (tp *TimeProvider) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if !tp.running {
		return
	}
	tp.running = false
	close(tp.stop)
}

func (tp *TimeProvider) run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-tp.clock.After(tp.tickInterval):
			select {
			case <-stop:
				return
			default:
			}
			now := tp.advance()
			for _, h := range tp.handlers {
				h(now)
			}
		}
	}
}

func (tp *TimeProvider) advance() time.Time {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.current = tp.current.Add(tp.delta)
	return tp.current
}
