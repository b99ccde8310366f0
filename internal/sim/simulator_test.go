package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/dynamo"
)

// testScene moves one particle along x at unit speed and halts after
// haltAfter steps when haltAfter > 0.
type testScene struct {
	pos       []r3.Vec
	radius    []float64
	dts       []float64
	haltAfter int
	steps     int
	time      float64
	halted    bool
	override  bool
}

func newTestScene() *testScene {
	return &testScene{pos: []r3.Vec{{}}, radius: []float64{0.1}}
}

func (s *testScene) Name() string { return "test" }

func (s *testScene) Step(dt float64) {
	s.dts = append(s.dts, dt)
	if s.Halted() {
		return
	}
	s.pos[0].X += dt
	s.time += dt
	s.steps++
	if s.haltAfter > 0 && s.steps >= s.haltAfter {
		s.halted = true
	}
}

func (s *testScene) Len() int                   { return len(s.pos) }
func (s *testScene) Positions() []r3.Vec        { return s.pos }
func (s *testScene) Radii() []float64           { return s.radius }
func (s *testScene) Time() float64              { return s.time }
func (s *testScene) Steps() int                 { return s.steps }
func (s *testScene) Energy() float64            { return 1 + s.pos[0].X }
func (s *testScene) Diverged() bool             { return s.halted }
func (s *testScene) Halted() bool               { return s.halted && !s.override }
func (s *testScene) SetForceSimulation(on bool) { s.override = on }
func (s *testScene) Reset()                     { *s = *newTestScene() }

type countMetric struct{ n int }

func (m *countMetric) Name() string                      { return "count" }
func (m *countMetric) Observe(_ dynamo.Scene, _ float64) { m.n++ }
func (m *countMetric) Value() float64                    { return float64(m.n) }
func (m *countMetric) Reset()                            { m.n = 0 }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_Run(t *testing.T) {
	scene := newTestScene()
	r := New(quietLogger())
	m := &countMetric{}
	r.AddMetric(m)

	result, err := r.Run(context.Background(), scene, Config{Dt: 0.1, Duration: 1.0, Speed: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Frames) != 11 {
		t.Errorf("expected 11 frames, got %d", len(result.Frames))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if got := result.Final().Positions[0].X; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("final x = %v, want 1", got)
	}
	if result.Metrics["count"] != 10 {
		t.Errorf("metric observed %v frames", result.Metrics["count"])
	}
	if result.Halted() {
		t.Error("result reports a halt")
	}
	if math.Abs(result.EnergyDrift-1.0) > 1e-9 {
		t.Errorf("energy drift = %v, want 1", result.EnergyDrift)
	}
}

func TestRunner_FramesAreCopies(t *testing.T) {
	scene := newTestScene()
	result, err := New(quietLogger()).Run(context.Background(), scene, Config{Dt: 0.5, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if result.Frames[0].Positions[0].X != 0 {
		t.Errorf("initial frame aliased the scene buffer: %v", result.Frames[0].Positions[0])
	}
}

func TestRunner_SpeedAndRecordEvery(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantDt      float64
		wantFrames  int
		wantFinalTs float64
	}{
		{"plain", Config{Dt: 0.01, Duration: 0.1}, 0.01, 11, 0.1},
		{"double speed", Config{Dt: 0.01, Duration: 0.1, Speed: 2}, 0.02, 11, 0.2},
		{"every fifth", Config{Dt: 0.01, Duration: 0.1, RecordEvery: 5}, 0.01, 3, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := newTestScene()
			result, err := New(quietLogger()).Run(context.Background(), scene, tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			for _, dt := range scene.dts {
				if dt != tt.wantDt {
					t.Fatalf("Step(%v), want Step(%v)", dt, tt.wantDt)
				}
			}
			if len(result.Frames) != tt.wantFrames {
				t.Errorf("frames = %d, want %d", len(result.Frames), tt.wantFrames)
			}
			if got := result.Final().Time; math.Abs(got-tt.wantFinalTs) > 1e-9 {
				t.Errorf("final time = %v, want %v", got, tt.wantFinalTs)
			}
		})
	}
}

func TestRunner_Halt(t *testing.T) {
	tests := []struct {
		name      string
		stop      bool
		wantSteps int
	}{
		{"keeps feeding frozen scene", false, 10},
		{"stops on halt", true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := newTestScene()
			scene.haltAfter = 3
			result, err := New(quietLogger()).Run(context.Background(), scene,
				Config{Dt: 0.1, Duration: 1, StopOnHalt: tt.stop})
			if err != nil {
				t.Fatal(err)
			}
			if result.StepsTaken != tt.wantSteps {
				t.Errorf("steps = %d, want %d", result.StepsTaken, tt.wantSteps)
			}
			if math.Abs(result.HaltedAt-0.3) > 1e-9 {
				t.Errorf("halted at %v, want 0.3", result.HaltedAt)
			}
			if !result.Final().Halted {
				t.Error("final frame not marked halted")
			}
			if got := result.Final().Positions[0].X; math.Abs(got-0.3) > 1e-9 {
				t.Errorf("frozen x = %v, want 0.3", got)
			}
		})
	}
}

func TestRunner_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scene := newTestScene()
	result, err := New(quietLogger()).Run(ctx, scene, Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result.StepsTaken != 0 || len(scene.dts) != 0 {
		t.Errorf("cancelled run stepped %d times", len(scene.dts))
	}
}

func TestRunner_InvalidConfig(t *testing.T) {
	tests := []Config{
		{Dt: 0, Duration: 1},
		{Dt: 0.1, Duration: 0},
		{Dt: 0.1, Duration: 1, Speed: -1},
		{Dt: 0.1, Duration: 1, RecordEvery: -2},
	}
	for _, cfg := range tests {
		if _, err := New(nil).Run(context.Background(), newTestScene(), cfg); !errors.Is(err, dynamo.ErrInvalidConfig) {
			t.Errorf("%+v: err = %v", cfg, err)
		}
	}
}

func TestEnsemble_Run(t *testing.T) {
	var built atomic.Int32
	build := func(seed int64) (dynamo.Scene, error) {
		built.Add(1)
		s := newTestScene()
		s.pos[0].Y = float64(seed)
		return s, nil
	}
	metrics := func() []dynamo.Metric { return []dynamo.Metric{&countMetric{}} }

	e := NewEnsemble(build, metrics, 5, 10)
	e.SetLimit(2)
	e.SetLogger(quietLogger())
	results, err := e.Run(context.Background(), Config{Dt: 0.1, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}

	if built.Load() != 5 || len(results) != 5 {
		t.Fatalf("built %d scenes, %d results", built.Load(), len(results))
	}
	for i, r := range results {
		if r.Seed != int64(10+i) {
			t.Errorf("result %d has seed %d", i, r.Seed)
		}
		if r.Final().Positions[0].Y != float64(10+i) {
			t.Errorf("result %d came from another scene", i)
		}
		if r.Metrics["count"] != 10 {
			t.Errorf("result %d: metric %v", i, r.Metrics["count"])
		}
	}
}

func TestEnsemble_Error(t *testing.T) {
	build := func(seed int64) (dynamo.Scene, error) {
		if seed == 2 {
			return nil, fmt.Errorf("seed %d: %w", seed, dynamo.ErrInvalidConfig)
		}
		return newTestScene(), nil
	}
	e := NewEnsemble(build, nil, 4, 0)
	e.SetLogger(quietLogger())
	if _, err := e.Run(context.Background(), Config{Dt: 0.1, Duration: 1}); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("err = %v", err)
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Time: 1.5, Step: 150, Message: "boom"}
	if got, want := err.Error(), "step 150 (t=1.5000): boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
