// Package backtest implements a daily short-volatility strategy study:
// sell an at-the-money swaption straddle every business day, delta-hedge
// it with a matched-tenor swap re-struck daily, and decompose the
// resulting P&L panel into premium, payoff and mark-to-market.
package backtest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantdesk/volcarry/calendar"
)

// Config describes one backtest run. Validate is called before any
// pricing request is dispatched.
type Config struct {
	Start          time.Time
	End            time.Time
	Calendar       calendar.CalendarID
	ExpiryMonths   int
	SwapTenorYears int
	Notional       float64
	MaxParallel    int
}

// Validate fails fast on malformed configuration.
func (c Config) Validate() error {
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("backtest.Config: start and end dates are required")
	}
	if c.End.Before(c.Start) {
		return fmt.Errorf("backtest.Config: end %s before start %s",
			c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	}
	if c.ExpiryMonths <= 0 {
		return fmt.Errorf("backtest.Config: expiry months must be positive, got %d", c.ExpiryMonths)
	}
	if c.SwapTenorYears <= 0 {
		return fmt.Errorf("backtest.Config: swap tenor years must be positive, got %d", c.SwapTenorYears)
	}
	if c.Notional <= 0 {
		return fmt.Errorf("backtest.Config: notional must be positive, got %f", c.Notional)
	}
	return nil
}

type fileConfig struct {
	Start          string  `yaml:"start"`
	End            string  `yaml:"end"`
	Calendar       string  `yaml:"calendar"`
	ExpiryMonths   int     `yaml:"expiry_months"`
	SwapTenorYears int     `yaml:"swap_tenor_years"`
	Notional       float64 `yaml:"notional"`
	MaxParallel    int     `yaml:"max_parallel"`
}

// LoadConfig reads a YAML run configuration. Dates use YYYY-MM-DD; the
// calendar defaults to USD.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("LoadConfig: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("LoadConfig: %w", err)
	}

	const layout = "2006-01-02"
	start, err := time.Parse(layout, fc.Start)
	if err != nil {
		return Config{}, fmt.Errorf("LoadConfig: bad start date %q: %w", fc.Start, err)
	}
	end, err := time.Parse(layout, fc.End)
	if err != nil {
		return Config{}, fmt.Errorf("LoadConfig: bad end date %q: %w", fc.End, err)
	}

	cal := calendar.CalendarID(fc.Calendar)
	if cal == "" {
		cal = calendar.USD
	}

	cfg := Config{
		Start:          start,
		End:            end,
		Calendar:       cal,
		ExpiryMonths:   fc.ExpiryMonths,
		SwapTenorYears: fc.SwapTenorYears,
		Notional:       fc.Notional,
		MaxParallel:    fc.MaxParallel,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
