package sim

import (
	"context"
	"log/slog"
	"math"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Runner is the frame driver for batch runs. It calls Step synchronously
// and never re-enters a scene.
type Runner struct {
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    *slog.Logger
}

func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		logger:    logger,
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

// Run steps the scene for cfg.Duration. Cancelling ctx stops the loop
// between frames; the partial result is returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, s dynamo.Scene, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 1e-9)
	every := max(cfg.RecordEvery, 1)
	dt := cfg.frameDt()
	result := &Result{
		Scene:    s.Name(),
		Frames:   make([]Frame, 0, steps/every+1),
		Times:    make([]float64, 0, steps/every+1),
		Metrics:  make(map[string]float64),
		HaltedAt: -1,
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	t := 0.0
	result.record(s, t)
	initialEnergy := s.Energy()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.finish(result, s, initialEnergy)
			return result, ctx.Err()
		default:
		}

		s.Step(dt)
		t += dt
		result.StepsTaken++

		for _, m := range r.metrics {
			m.Observe(s, t)
		}
		for _, obs := range r.observers {
			obs.OnFrame(s, t)
		}

		halted := s.Halted()
		if halted && result.HaltedAt < 0 {
			result.HaltedAt = t
			r.logger.Warn("scene halted", "scene", s.Name(), "time", t, "step", i+1)
		}
		if (i+1)%every == 0 {
			result.record(s, t)
		}
		if halted && cfg.StopOnHalt {
			break
		}
	}

	r.finish(result, s, initialEnergy)
	return result, nil
}

func (res *Result) record(s dynamo.Scene, t float64) {
	res.Frames = append(res.Frames, capture(s, t))
	res.Times = append(res.Times, t)
}

func (r *Runner) finish(result *Result, s dynamo.Scene, initialEnergy float64) {
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.Energy()-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
