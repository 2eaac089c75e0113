package candle

import (
	"fmt"
	"time"
)

// ErrUnknownTimeframe marks a timeframe key outside the supported set. It is
// a configuration error: sessions refuse to start with one.
var ErrUnknownTimeframe = fmt.Errorf("unknown timeframe")

// Timeframe is one fixed aggregation window size, identified by its key.
// The zero duration is the special "tick" timeframe: every price point
// completes its own candle.
type Timeframe struct {
	Key      string
	Duration time.Duration
}

var timeframes = map[string]time.Duration{
	"tick": 0,
	"1m":   time.Minute,
	"5m":   5 * time.Minute,
	"15m":  15 * time.Minute,
	"30m":  30 * time.Minute,
	"60m":  60 * time.Minute,
}

// ParseTimeframe resolves a key from the closed timeframe set.
func ParseTimeframe(key string) (Timeframe, error) {
	d, ok := timeframes[key]
	if !ok {
		return Timeframe{}, fmt.Errorf("%w: %q", ErrUnknownTimeframe, key)
	}
	return Timeframe{Key: key, Duration: d}, nil
}

// AlignToWindow truncates t down to the start of its window:
// t - (t mod duration), in epoch seconds. Idempotent. For the tick
// timeframe the timestamp is already the window.
func (tf Timeframe) AlignToWindow(t time.Time) int64 {
	sec := t.Unix()
	if tf.Duration <= 0 {
		return sec
	}
	step := int64(tf.Duration / time.Second)
	return sec - sec%step
}
