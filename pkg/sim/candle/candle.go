package candle

// Candle is the OHLC summary of every price observed in one aggregation
// window. Time is the window start as a unix timestamp in seconds, aligned
// to the timeframe duration.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

func newCandle(windowStart int64, price float64) Candle {
	return Candle{Time: windowStart, Open: price, High: price, Low: price, Close: price}
}

// fold updates the in-progress candle with one more in-window price.
func (c *Candle) fold(price float64) {
	c.Close = price
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
}
