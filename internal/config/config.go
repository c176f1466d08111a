// Package config loads experiment parameters from YAML files and
// validates them against an embedded CUE schema before anything
// downstream sees them.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Experiment fixes every tunable of an optimization run. JSON tags exist
// so the struct round-trips through the CUE encoder during validation.
type Experiment struct {
	// TimeStep is the simulation step in seconds.
	TimeStep float64 `yaml:"time_step" json:"time_step"`

	// Interval is how many simulation steps each planning step holds an
	// input for.
	Interval int `yaml:"interval" json:"interval"`

	// Horizon is the planning window in planning steps.
	Horizon int `yaml:"horizon" json:"horizon"`

	// Discount is the per-planning-step reward discount.
	Discount float64 `yaml:"discount" json:"discount"`

	// Kappa is the softmax temperature of the importance weighting.
	Kappa float64 `yaml:"kappa" json:"kappa"`

	// SampleCount is the number of perturbed rollouts per update.
	SampleCount int `yaml:"sample_count" json:"sample_count"`

	// NoiseStdDev is the standard deviation of input perturbations.
	NoiseStdDev float64 `yaml:"noise_std_dev" json:"noise_std_dev"`

	// EpisodeLength is the number of planning steps per episode.
	EpisodeLength int `yaml:"episode_length" json:"episode_length"`

	// WarmupUpdates is how many optimizer updates run before an
	// episode's first step.
	WarmupUpdates int `yaml:"warmup_updates" json:"warmup_updates"`
}

// Default returns the stock experiment parameters.
func Default() Experiment {
	return Experiment{
		TimeStep:      1.0 / 240,
		Interval:      4,
		Horizon:       64,
		Discount:      0.99,
		Kappa:         100,
		SampleCount:   128,
		NoiseStdDev:   0.25,
		EpisodeLength: 250,
		WarmupUpdates: 10,
	}
}

// Load reads a YAML experiment file and validates it. Fields absent from
// the file keep their Default values.
func Load(path string) (Experiment, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Experiment{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Experiment{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Experiment{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parameters against the embedded schema.
func (e Experiment) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Experiment"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("schema missing #Experiment: %w", err)
	}
	unified := def.Unify(ctx.Encode(e))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
