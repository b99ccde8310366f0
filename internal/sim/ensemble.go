package sim

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/partsim/internal/dynamo"
)

// SceneFactory builds an independent scene for one ensemble member.
type SceneFactory func(seed int64) (dynamo.Scene, error)

// MetricFactory returns fresh metric instances for one ensemble member.
type MetricFactory func() []dynamo.Metric

// Ensemble runs one scene per seed concurrently. Each scene is stepped by
// a single goroutine.
type Ensemble struct {
	build     SceneFactory
	metrics   MetricFactory
	numRuns   int
	seedStart int64
	limit     int
	logger    *slog.Logger
}

func NewEnsemble(build SceneFactory, metrics MetricFactory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		build:     build,
		metrics:   metrics,
		numRuns:   numRuns,
		seedStart: seedStart,
		logger:    slog.Default(),
	}
}

// SetLimit caps the number of concurrently running members. Zero means no
// limit.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

func (e *Ensemble) SetLogger(l *slog.Logger) { e.logger = l }

// Run returns one result per seed, in seed order. The first failing member
// cancels the others.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i := 0; i < e.numRuns; i++ {
		i := i
		seed := e.seedStart + int64(i)
		g.Go(func() error {
			scene, err := e.build(seed)
			if err != nil {
				return err
			}
			runner := New(e.logger.With("seed", seed))
			if e.metrics != nil {
				for _, m := range e.metrics() {
					runner.AddMetric(m)
				}
			}
			res, err := runner.Run(ctx, scene, cfg)
			if err != nil {
				return err
			}
			res.Seed = seed
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
