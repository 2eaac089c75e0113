package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/hyuksong/marketsim/pkg/sim/candle"
)

// Duration wraps time.Duration so TOML can carry values like "250ms" or "1m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Instrument configures one simulated symbol.
type Instrument struct {
	Symbol       string  `toml:"symbol"`
	InitialPrice float64 `toml:"initial_price"`
}

// Simulation holds the price-process parameters shared by all instruments.
type Simulation struct {
	Drift      float64 `toml:"drift"`
	Volatility float64 `toml:"volatility"`

	// UseBookPressure switches instruments to the order-book-pressure
	// simulator; Sensitivity scales net resting quantity into drift.
	UseBookPressure bool    `toml:"use_book_pressure"`
	Sensitivity     float64 `toml:"sensitivity"`
}

// Clock configures the simulated clock: wall time between ticks and the
// simulated time each tick adds.
type Clock struct {
	TickInterval Duration `toml:"tick_interval"`
	DeltaTime    Duration `toml:"delta_time"`
}

// API configures the gateway surface.
type API struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type Config struct {
	Instruments []Instrument `toml:"instruments"`
	Simulation  Simulation   `toml:"simulation"`
	Clock       Clock        `toml:"clock"`
	Timeframes  []string     `toml:"timeframes"`
	API         API          `toml:"api"`
	LogFile     string       `toml:"log_file"`
}

// Default returns the devnet configuration: three symbols, one wall-clock
// second per tick worth one simulated minute.
func Default() Config {
	return Config{
		Instruments: []Instrument{
			{Symbol: "AAPL", InitialPrice: 150.0},
			{Symbol: "GOOGL", InitialPrice: 2800.0},
			{Symbol: "MSFT", InitialPrice: 300.0},
		},
		Simulation: Simulation{
			Drift:       0.0001,
			Volatility:  0.01,
			Sensitivity: 0.01,
		},
		Clock: Clock{
			TickInterval: Duration{time.Second},
			DeltaTime:    Duration{time.Minute},
		},
		Timeframes: []string{"1m", "5m", "15m", "30m", "60m"},
		API: API{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:4200"},
		},
		LogFile: "data/simd.log",
	}
}

// Load merges a TOML file (optional) on top of the defaults, then applies
// environment overrides. Priority: ENV > .env file > TOML > defaults. The
// result has not been validated; call Validate before use.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.API.Addr, "MARKETSIM_API_ADDR")
	setStr(&cfg.LogFile, "MARKETSIM_LOG_FILE")
	setFloat(&cfg.Simulation.Drift, "MARKETSIM_DRIFT")
	setFloat(&cfg.Simulation.Volatility, "MARKETSIM_VOLATILITY")
	setDuration(&cfg.Clock.TickInterval, "MARKETSIM_TICK_INTERVAL")
	setDuration(&cfg.Clock.DeltaTime, "MARKETSIM_DELTA_TIME")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

// Validate rejects configurations the session must not start with.
func (c Config) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	seen := make(map[string]struct{}, len(c.Instruments))
	for _, in := range c.Instruments {
		if in.Symbol == "" {
			return fmt.Errorf("instrument symbol must not be empty")
		}
		if _, dup := seen[in.Symbol]; dup {
			return fmt.Errorf("duplicate instrument %s", in.Symbol)
		}
		seen[in.Symbol] = struct{}{}
		if in.InitialPrice <= 0 {
			return fmt.Errorf("instrument %s: initial price must be positive", in.Symbol)
		}
	}

	if c.Simulation.Volatility < 0 {
		return fmt.Errorf("volatility must not be negative")
	}
	if c.Clock.TickInterval.Duration <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.Clock.DeltaTime.Duration <= 0 {
		return fmt.Errorf("delta time must be positive")
	}

	if len(c.Timeframes) == 0 {
		return fmt.Errorf("at least one timeframe is required")
	}
	for _, key := range c.Timeframes {
		if _, err := candle.ParseTimeframe(key); err != nil {
			return err
		}
	}
	return nil
}
