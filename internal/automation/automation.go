package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run in a scenario. Scene and preset pick the
// base config; non-zero fields override it.
type ScenarioStep struct {
	Scene    string             `yaml:"scene"`
	Preset   string             `yaml:"preset"`
	Duration float64            `yaml:"duration"`
	Dt       float64            `yaml:"dt"`
	Seed     int64              `yaml:"seed"`
	Params   map[string]float64 `yaml:"params"`
	Save     bool               `yaml:"save"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrInvalidConfig, scenario.Name)
	}
	return &scenario, nil
}

func (s ScenarioStep) config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Scene != "" {
		cfg.Scene = s.Scene
	}
	if cfg.Scene == "cloth" {
		cfg.Dt = config.DefaultClothDt
	}
	if s.Preset != "" {
		if cfg = config.GetPreset(cfg.Scene, s.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrInvalidConfig, s.Preset)
		}
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	return cfg, nil
}

func applyParams(scene dynamo.Scene, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	c, ok := scene.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("scene %s is not tunable", scene.Name())
	}
	for k, v := range params {
		if err := c.SetParam(k, v); err != nil {
			return err
		}
	}
	return nil
}

// RunScenario executes all steps in a scenario. Steps marked save are
// written to store when it is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store, logger *slog.Logger) ([]*sim.Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]*sim.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "scene", cfg.Scene, "preset", step.Preset)

		exp := experiment.New(cfg, registry, logger)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		if err := applyParams(exp.Scene(), step.Params); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, result)

		if step.Save && store != nil {
			id, err := store.Save(cfg, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			logger.Info("saved run", "id", id)
		}
	}

	return results, nil
}

// ParameterSweep runs one config across a linear range of one parameter.
type ParameterSweep struct {
	Config    *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	MaxEnergy  float64
	MinEnergy  float64
	Particles  int
	HaltedAt   float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step", dynamo.ErrInvalidConfig)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		exp := experiment.New(sweep.Config.Clone(), registry, logger)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		if err := applyParams(exp.Scene(), map[string]float64{sweep.ParamName: paramVal}); err != nil {
			return nil, err
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		minE, maxE := math.Inf(1), math.Inf(-1)
		for _, f := range result.Frames {
			if f.Halted {
				continue
			}
			minE = math.Min(minE, f.Energy)
			maxE = math.Max(maxE, f.Energy)
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			MaxEnergy:  maxE,
			MinEnergy:  minE,
			Particles:  len(result.Final().Positions),
			HaltedAt:   result.HaltedAt,
		})

		logger.Info("sweep", "step", i+1, "of", sweep.NumSteps, "param", sweep.ParamName, "value", paramVal)
	}

	return results, nil
}
