package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/sim"
)

// Experiment is one configured run: a scene, its runner and its metrics.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	scene    dynamo.Scene
	runner   *sim.Runner
	logger   *slog.Logger
}

func New(cfg *config.Config, registry *Registry, logger *slog.Logger) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{cfg: cfg, registry: registry, logger: logger}
}

// Setup builds the scene and attaches the default metrics plus any extra
// observers.
func (e *Experiment) Setup(observers ...dynamo.Observer) error {
	scene, err := e.registry.Build(e.cfg, e.logger)
	if err != nil {
		return err
	}
	e.scene = scene
	e.runner = sim.New(e.logger)
	for _, m := range e.registry.DefaultMetrics(e.cfg.Scene) {
		e.runner.AddMetric(m)
	}
	for _, o := range observers {
		e.runner.AddObserver(o)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	res, err := e.runner.Run(ctx, e.scene, e.SimConfig())
	if res != nil {
		res.Seed = e.cfg.Seed
	}
	return res, err
}

// Ensemble runs n copies of the configured scene with seeds Seed..Seed+n-1.
func (e *Experiment) Ensemble(ctx context.Context, n, parallel int) ([]*sim.Result, error) {
	build := func(seed int64) (dynamo.Scene, error) {
		cfg := e.cfg.Clone()
		cfg.Seed = seed
		return e.registry.Build(cfg, e.logger)
	}
	metrics := func() []dynamo.Metric { return e.registry.DefaultMetrics(e.cfg.Scene) }

	ens := sim.NewEnsemble(build, metrics, n, e.cfg.Seed)
	ens.SetLimit(parallel)
	ens.SetLogger(e.logger)
	return ens.Run(ctx, e.SimConfig())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:          e.cfg.Dt,
		Duration:    e.cfg.Duration,
		Speed:       e.cfg.Speed,
		RecordEvery: e.cfg.RecordEvery,
	}
}

// Scene returns the scene built by Setup.
func (e *Experiment) Scene() dynamo.Scene { return e.scene }

func (e *Experiment) Config() *config.Config { return e.cfg }
