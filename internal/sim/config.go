package sim

import (
	"fmt"

	"github.com/essencefield/fieldsim/internal/essence"
	"github.com/essencefield/fieldsim/internal/field"
	"github.com/essencefield/fieldsim/internal/memory"
)

// #region config-types

// DynamicsConfig holds the integration parameters.
type DynamicsConfig struct {
	Dt         float32 `json:"dt"`
	MinSpeed   float32 `json:"min_speed"` // perpetual-velocity floor
	Damping    float32 `json:"damping"`
	PromptGain float32 `json:"prompt_gain"` // attention prompt → acceleration
}

// StateConfig holds the entity state-vector parameters.
type StateConfig struct {
	MemoryDim     int     `json:"memory_dim"`
	ContextDim    int     `json:"context_dim"`
	Alpha         float32 `json:"alpha"`          // state retention per tick
	BetaAttention float32 `json:"beta_attention"` // attention-prompt gain
	GammaMemory   float32 `json:"gamma_memory"`   // memory-input gain
}

// Config is the full simulation configuration, supplied by the external
// config-loading collaborator. Validate runs once at init; the core never
// re-checks these mid-run.
type Config struct {
	Name      string    `json:"name"`
	Entities  int       `json:"entities"`
	Dimension int       `json:"dimension"` // 2 or 3
	Bounds    []float32 `json:"bounds"`
	Periodic  bool      `json:"periodic"`
	Seed      int64     `json:"seed"`
	Ticks     int       `json:"ticks"`
	Workers   int       `json:"workers"` // 0 = GOMAXPROCS

	Field    field.Config   `json:"field"`
	Memory   memory.Config  `json:"memory"`
	Essence  essence.Config `json:"essence"`
	Dynamics DynamicsConfig `json:"dynamics"`
	State    StateConfig    `json:"state"`

	// TieEpsilon is the response policy's base ambiguity band.
	TieEpsilon float32 `json:"tie_epsilon"`
}

// #endregion config-types

// #region defaults

// DefaultConfig returns a runnable 2D configuration mirroring the standard
// ten-entity world.
func DefaultConfig() Config {
	return Config{
		Name:      "default-2d",
		Entities:  10,
		Dimension: 2,
		Bounds:    []float32{10, 10},
		Periodic:  true,
		Seed:      42,
		Ticks:     1000,
		Field: field.Config{
			Kernel: field.KernelGaussian,
			Sigma:  1,
			Lambda: 0.5,
		},
		Memory: memory.Config{
			EventDim:          8,
			Tau:               0.7,
			Alpha:             0.995,
			ReactivationBoost: 0,
			SoftBudget:        0,
		},
		Essence: essence.DefaultConfig(),
		Dynamics: DynamicsConfig{
			Dt:         0.01,
			MinSpeed:   0.05,
			Damping:    0.99,
			PromptGain: 0.1,
		},
		State: StateConfig{
			MemoryDim:     128,
			ContextDim:    64,
			Alpha:         0.95,
			BetaAttention: 0.5,
			GammaMemory:   0.3,
		},
		TieEpsilon: 0.05,
	}
}

// #endregion defaults

// #region validation

// ConfigError is a fatal initialization error. It is never produced
// mid-run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Validate checks every parameter the core depends on. It returns the
// first violation as a *ConfigError.
func (c Config) Validate() error {
	switch {
	case c.Entities < 1:
		return &ConfigError{"entities", "must be at least 1"}
	case c.Dimension != 2 && c.Dimension != 3:
		return &ConfigError{"dimension", "must be 2 or 3"}
	case len(c.Bounds) != c.Dimension:
		return &ConfigError{"bounds", fmt.Sprintf("need %d values, got %d", c.Dimension, len(c.Bounds))}
	}
	for d, b := range c.Bounds {
		if b <= 0 {
			return &ConfigError{"bounds", fmt.Sprintf("dimension %d bound must be positive", d)}
		}
	}

	switch {
	case !c.Field.Kernel.Valid():
		return &ConfigError{"field.kernel", fmt.Sprintf("unknown kernel %q", c.Field.Kernel)}
	case c.Field.Sigma <= 0:
		return &ConfigError{"field.sigma", "must be positive"}
	case c.Field.Lambda < 0:
		return &ConfigError{"field.lambda", "must be non-negative"}
	}

	switch {
	case c.Memory.EventDim < 1:
		return &ConfigError{"memory.event_dim", "must be at least 1"}
	case c.Memory.Tau < 0 || c.Memory.Tau > 1:
		return &ConfigError{"memory.tau", "must be in [0, 1]"}
	case c.Memory.Alpha <= 0 || c.Memory.Alpha > 1:
		return &ConfigError{"memory.decay_alpha", "must be in (0, 1]"}
	case c.Memory.SoftBudget < 0:
		return &ConfigError{"memory.soft_budget", "must be non-negative"}
	}

	switch {
	case c.Dynamics.Dt <= 0:
		return &ConfigError{"dynamics.dt", "must be positive"}
	case c.Dynamics.MinSpeed <= 0:
		return &ConfigError{"dynamics.min_speed", "must be positive"}
	case c.Dynamics.Damping <= 0 || c.Dynamics.Damping > 1:
		return &ConfigError{"dynamics.damping", "must be in (0, 1]"}
	}

	switch {
	case c.State.MemoryDim < 1:
		return &ConfigError{"state.memory_dim", "must be at least 1"}
	case c.State.ContextDim < 1:
		return &ConfigError{"state.context_dim", "must be at least 1"}
	}

	switch {
	case c.Essence.Baseline < 0 || c.Essence.Baseline > 10:
		return &ConfigError{"essence.baseline", "must be in [0, 10]"}
	case c.Essence.Decay < 0 || c.Essence.Decay > 1:
		return &ConfigError{"essence.decay", "must be in [0, 1]"}
	}

	if c.TieEpsilon < 0 {
		return &ConfigError{"tie_epsilon", "must be non-negative"}
	}
	return nil
}

// #endregion validation
