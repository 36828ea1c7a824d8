// Package config loads scenario configuration from JSON files and
// viper-bound CLI flags, modeled on the teacher's
// chain/config/genesis.go load-then-validate pattern.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"valuemesh/benchmark"
)

// ScenarioConfig is the JSON-serializable description of one benchmark
// run (spec.md §4.K, §9).
type ScenarioConfig struct {
	Name      string `json:"name"`
	NodeCount int    `json:"nodeCount"`
	Ticks     int64  `json:"ticks"`

	BaseGoldPrice float64 `json:"baseGoldPrice"`
	BaseDemand    float64 `json:"baseDemand"`
	BasePanic     float64 `json:"basePanic"`

	GoldPriceCurve map[int64]float64 `json:"goldPriceCurve,omitempty"`
	DemandCurve    map[int64]float64 `json:"demandCurve,omitempty"`
	PanicCurve     map[int64]float64 `json:"panicCurve,omitempty"`

	BaseSeed uint64 `json:"baseSeed"`
	RunCount int    `json:"runCount"`
}

// LoadScenarioConfig loads a scenario configuration from a JSON file.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario config: %w", err)
	}

	var cfg ScenarioConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scenario config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the scenario configuration for required fields and
// sane bounds (spec.md §4.K constraints: NodeCount >= 1, Ticks >= 1).
func (c *ScenarioConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("missing scenario name")
	}
	if c.NodeCount < 1 {
		return fmt.Errorf("invalid node count: must be at least 1, got %d", c.NodeCount)
	}
	if c.Ticks < 1 {
		return fmt.Errorf("invalid tick count: must be at least 1, got %d", c.Ticks)
	}
	if c.RunCount < 1 {
		return fmt.Errorf("invalid run count: must be at least 1, got %d", c.RunCount)
	}
	return nil
}

// ToScenario converts the loaded configuration into a benchmark.Scenario
// with no Setup, MidEvents, or PassCriteria — callers wire those in
// directly since they carry closures that JSON cannot express.
func (c *ScenarioConfig) ToScenario() benchmark.Scenario {
	return benchmark.Scenario{
		Name:           c.Name,
		NodeCount:      c.NodeCount,
		Ticks:          c.Ticks,
		BaseGoldPrice:  c.BaseGoldPrice,
		BaseDemand:     c.BaseDemand,
		BasePanic:      c.BasePanic,
		GoldPriceCurve: benchmark.Curve(c.GoldPriceCurve),
		DemandCurve:    benchmark.Curve(c.DemandCurve),
		PanicCurve:     benchmark.Curve(c.PanicCurve),
	}
}

// DefaultScenarioConfig returns the CLI's default sweep, named
// "liquidity-success": 24 nodes, 500 ticks, gold price 2600, demand 1.0,
// no panic, 20 runs from seed 1. It sets no egress liquidity and spawns
// no packet itself; packets come from the traffic generator.
func DefaultScenarioConfig() *ScenarioConfig {
	return &ScenarioConfig{
		Name:          "liquidity-success",
		NodeCount:     24,
		Ticks:         500,
		BaseGoldPrice: 2600,
		BaseDemand:    1.0,
		BasePanic:     0.0,
		BaseSeed:      1,
		RunCount:      20,
	}
}
