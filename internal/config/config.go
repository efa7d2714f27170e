// Package config handles YAML configuration parsing for the harness.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure. Every knob the engine uses is
// supplied here; nothing operational is hardcoded in the phases themselves.
type Config struct {
	// BaseURL is the target service address, e.g. http://localhost:8080.
	BaseURL string `yaml:"baseURL"`
	// Actors is the number of synthetic users to provision.
	Actors int `yaml:"actors"`
	// Timeout is the per-call ceiling enforced by the HTTP transport.
	Timeout time.Duration `yaml:"timeout"`
	// LatencyWarn flags any single call slower than this as a warning.
	LatencyWarn time.Duration `yaml:"latencyWarn"`

	Pools      Pools      `yaml:"pools"`
	Iterations Iterations `yaml:"iterations"`
	Race       Race       `yaml:"race"`
	Validation Validation `yaml:"validation"`

	// StressRPS caps the request rate during the concurrent-load phase.
	// Zero disables the cap.
	StressRPS int `yaml:"stressRPS"`
	// PassRate is the overall success-rate bar for the final verdict,
	// expressed as a fraction (0.9 = 90%).
	PassRate float64 `yaml:"passRate"`
	// StrictBusiness fails the verdict on any business finding.
	StrictBusiness bool `yaml:"strictBusiness"`
}

// Pools sets the worker-pool size used by each phase.
type Pools struct {
	Provision  int `yaml:"provision"`
	Subscribe  int `yaml:"subscribe"`
	PlanChange int `yaml:"planChange"`
	Load       int `yaml:"load"`
	Pressure   int `yaml:"pressure"`
}

// Iterations sets per-phase repetition counts.
type Iterations struct {
	// PlanChangesPerActor is how many plan mutations each actor performs
	// during the plan-change stress phase.
	PlanChangesPerActor int `yaml:"planChangesPerActor"`
	// LoadPerWorker is how many call sequences each load worker replays.
	LoadPerWorker int `yaml:"loadPerWorker"`
	// Pressure is the number of oversized-payload operations in the
	// resource-pressure phase.
	Pressure int `yaml:"pressure"`
}

// Race configures the race condition probe.
type Race struct {
	// Concurrency is the number of workers firing at the shared entity.
	Concurrency int `yaml:"concurrency"`
}

// Validation holds the pro-rated billing calibration knobs. These mirror an
// assumed pricing model, not the service's real algorithm; treat WARN
// findings as signals to investigate, not proof of a defect.
type Validation struct {
	// RemainingTimeFactor scales the price delta on upgrades (fraction of
	// the billing period assumed remaining).
	RemainingTimeFactor float64 `yaml:"remainingTimeFactor"`
	// CreditFactor scales the (negative) price delta on downgrades.
	CreditFactor float64 `yaml:"creditFactor"`
	// Tolerance is the absolute currency-unit bound on the difference
	// between observed and expected adjustments.
	Tolerance float64 `yaml:"tolerance"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		BaseURL:     "http://localhost:8080",
		Actors:      25,
		Timeout:     30 * time.Second,
		LatencyWarn: 500 * time.Millisecond,
		Pools: Pools{
			Provision:  5,
			Subscribe:  5,
			PlanChange: 8,
			Load:       25,
			Pressure:   8,
		},
		Iterations: Iterations{
			PlanChangesPerActor: 5,
			LoadPerWorker:       3,
			Pressure:            50,
		},
		Race:       Race{Concurrency: 10},
		Validation: Validation{RemainingTimeFactor: 0.7, CreditFactor: 0.5, Tolerance: 1.0},
		PassRate:   0.9,
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations no phase could run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("baseURL must be set")
	}
	if c.Actors < 1 {
		return fmt.Errorf("actors must be >= 1, got %d", c.Actors)
	}
	if c.PassRate < 0 || c.PassRate > 1 {
		return fmt.Errorf("passRate must be within [0,1], got %g", c.PassRate)
	}
	if c.Validation.Tolerance < 0 {
		return fmt.Errorf("validation tolerance must be >= 0, got %g", c.Validation.Tolerance)
	}
	for name, n := range map[string]int{
		"pools.provision":  c.Pools.Provision,
		"pools.subscribe":  c.Pools.Subscribe,
		"pools.planChange": c.Pools.PlanChange,
		"pools.load":       c.Pools.Load,
		"pools.pressure":   c.Pools.Pressure,
	} {
		if n < 1 {
			return fmt.Errorf("%s must be >= 1, got %d", name, n)
		}
	}
	return nil
}
