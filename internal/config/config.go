// Package config loads evolution-cycle settings from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"strategy-lab/internal/backtest"
	"strategy-lab/internal/domain"
)

// Config drives one tournament cycle: which ticker and periods to
// evaluate over, how many survivors to keep, and the backtest knobs.
type Config struct {
	Ticker         string                `yaml:"ticker"`
	BatchSize      int                   `yaml:"batch_size"`
	SurvivorCount  int                   `yaml:"survivor_count"`
	MinSharpeFloor float64               `yaml:"min_sharpe_floor"`
	Periods        []domain.PeriodConfig `yaml:"periods"`
	Backtest       backtest.Config       `yaml:"backtest"`
}

// Default returns a runnable configuration with standard backtest knobs.
// Ticker and periods still have to come from the file or flags.
func Default() Config {
	return Config{
		BatchSize:      20,
		SurvivorCount:  5,
		MinSharpeFloor: 0.5,
		Backtest:       backtest.DefaultConfig(),
	}
}

// Load reads and validates a YAML config file. Missing keys keep their
// Default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the loaded values for internal consistency.
func (c Config) Validate() error {
	if c.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if c.SurvivorCount < 0 {
		return fmt.Errorf("survivor_count must be >= 0, got %d", c.SurvivorCount)
	}
	if len(c.Periods) == 0 {
		return fmt.Errorf("at least one evaluation period is required")
	}
	for i, p := range c.Periods {
		if p.Name == "" {
			return fmt.Errorf("period %d: name is required", i)
		}
		if !p.End.After(p.Start) {
			return fmt.Errorf("period %q: end must be after start", p.Name)
		}
		if p.Weight <= 0 {
			return fmt.Errorf("period %q: weight must be positive, got %f", p.Name, p.Weight)
		}
	}
	bt := c.Backtest
	if bt.TrainWindowDays <= 0 || bt.TestWindowDays <= 0 || bt.StepDays <= 0 {
		return fmt.Errorf("backtest windows must be positive: train=%d test=%d step=%d",
			bt.TrainWindowDays, bt.TestWindowDays, bt.StepDays)
	}
	if bt.SlippagePct < 0 || bt.CommissionPerTrade < 0 {
		return fmt.Errorf("execution costs must be non-negative")
	}
	if bt.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %f", bt.InitialCapital)
	}
	return nil
}
