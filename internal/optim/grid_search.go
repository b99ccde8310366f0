package optim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/experiment"
)

// Objective scores one parameter assignment; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates every combination of the given parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns the best assignment and its value together with every
// trial in evaluation order. Failed trials are recorded and skipped. It
// stops early when ctx is cancelled.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("%w: %d parameters but %d ranges", dynamo.ErrInvalidConfig, len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, &trials)
	for _, t := range trials {
		if t.Err == nil && t.Value < best {
			best = t.Value
			bestParams = t.Params
		}
	}
	if err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, best, trials, fmt.Errorf("no successful trial")
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		val, err := objective(ctx, current)
		*trials = append(*trials, Trial{Params: current, Value: val, Err: err})
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, objective, trials); err != nil {
			return err
		}
	}
	return nil
}

// ExperimentObjective runs cfg with the trial parameters applied to the
// scene and scores the named metric. A run that halts scores +Inf.
func ExperimentObjective(cfg *config.Config, registry *experiment.Registry, logger *slog.Logger, metric string) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		exp := experiment.New(cfg.Clone(), registry, logger)
		if err := exp.Setup(); err != nil {
			return 0, err
		}
		c, ok := exp.Scene().(dynamo.Configurable)
		if !ok && len(params) > 0 {
			return 0, fmt.Errorf("scene %s has no tunable parameters", cfg.Scene)
		}
		for k, v := range params {
			if err := c.SetParam(k, v); err != nil {
				return 0, err
			}
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return 0, err
		}
		if result.Halted() {
			return math.Inf(1), nil
		}
		val, ok := result.Metrics[metric]
		if !ok {
			return 0, fmt.Errorf("metric %q not recorded", metric)
		}
		return val, nil
	}
}
