package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Config drives a run. Every frame calls Step(Dt*Speed).
type Config struct {
	Dt       float64
	Duration float64
	Speed    float64
	// RecordEvery keeps one frame out of RecordEvery. Zero records every
	// frame.
	RecordEvery int
	// StopOnHalt ends the run on the first halted frame instead of feeding
	// the frozen scene until Duration.
	StopOnHalt bool
}

func (c Config) frameDt() float64 {
	if c.Speed == 0 {
		return c.Dt
	}
	return c.Dt * c.Speed
}

func (c Config) validate() error {
	if err := dynamo.Positive("dt", c.Dt); err != nil {
		return err
	}
	if err := dynamo.Positive("duration", c.Duration); err != nil {
		return err
	}
	if err := dynamo.NonNegative("speed", c.Speed); err != nil {
		return err
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every must not be negative", dynamo.ErrInvalidConfig)
	}
	return nil
}

// Frame is a copy of the scene state at one instant.
type Frame struct {
	Time      float64
	Positions []r3.Vec
	Radii     []float64
	Energy    float64
	Halted    bool
}

func capture(s dynamo.Scene, t float64) Frame {
	f := Frame{
		Time:      t,
		Positions: make([]r3.Vec, s.Len()),
		Radii:     make([]float64, s.Len()),
		Energy:    s.Energy(),
		Halted:    s.Halted(),
	}
	copy(f.Positions, s.Positions())
	copy(f.Radii, s.Radii())
	return f
}

type Result struct {
	Scene      string
	Seed       int64
	Frames     []Frame
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	// HaltedAt is the frame time of the first halted frame, or -1.
	HaltedAt    float64
	EnergyDrift float64
}

func (r *Result) Halted() bool { return r.HaltedAt >= 0 }

// Final returns the last recorded frame.
func (r *Result) Final() Frame {
	if len(r.Frames) == 0 {
		return Frame{}
	}
	return r.Frames[len(r.Frames)-1]
}

// SimError locates a failure inside a run.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
