package dynamo

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/vecmath"
)

// GuardState is the divergence state of a scene.
type GuardState int

const (
	Running GuardState = iota
	Halted
)

func (s GuardState) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// DefaultBound is the largest position or velocity component accepted
// before a state counts as diverged.
const DefaultBound = 1e3

// GuardConfig bounds the accepted simulation state.
type GuardConfig struct {
	// Bound limits every position and velocity component.
	Bound float64 `yaml:"bound"`
	// ForceBound limits the accumulated force norm; 0 disables the check.
	ForceBound float64 `yaml:"force_bound"`
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{Bound: DefaultBound}
}

func (c GuardConfig) Validate() error {
	if err := Positive("guard.bound", c.Bound); err != nil {
		return err
	}
	return NonNegative("guard.force_bound", c.ForceBound)
}

// Guard detects numerical blow-up and gates further integration. Once
// diverged it stays diverged until Reset; the operator override lets steps
// run anyway.
type Guard struct {
	cfg      GuardConfig
	diverged bool
	override bool
	reason   *DivergenceError
	logger   *slog.Logger
}

func NewGuard(cfg GuardConfig, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{cfg: cfg, logger: logger}
}

func (g *Guard) Config() GuardConfig { return g.cfg }

func (g *Guard) State() GuardState {
	if g.Halted() {
		return Halted
	}
	return Running
}

func (g *Guard) Diverged() bool { return g.diverged }

// Halted reports whether steps must be skipped.
func (g *Guard) Halted() bool { return g.diverged && !g.override }

func (g *Guard) Override() bool { return g.override }

// SetOverride sets the operator "force simulation" flag.
func (g *Guard) SetOverride(on bool) {
	if on != g.override {
		g.logger.Info("force simulation", "enabled", on, "diverged", g.diverged)
	}
	g.override = on
}

// Reason returns the divergence that halted the scene, or nil.
func (g *Guard) Reason() *DivergenceError { return g.reason }

// Reset clears the divergence flag. The override flag is kept.
func (g *Guard) Reset() {
	g.diverged = false
	g.reason = nil
}

// Check inspects b after a step. It returns true when this call moved the
// guard into the diverged state.
func (g *Guard) Check(b *Bodies, step int, t float64) bool {
	if g.diverged {
		return false
	}
	err := g.inspect(b)
	if err == nil {
		return false
	}
	err.Step, err.Time = step, t
	g.diverged = true
	g.reason = err
	g.logger.Warn("simulation diverged",
		"step", step,
		"time", t,
		"entity", err.Index,
		"quantity", err.Quantity,
		"value", err.Value,
		"override", g.override)
	return true
}

func (g *Guard) inspect(b *Bodies) *DivergenceError {
	for i := 0; i < b.Len(); i++ {
		if e := g.bounded("position", i, b.Pos[i]); e != nil {
			return e
		}
		if e := g.bounded("velocity", i, b.Vel[i]); e != nil {
			return e
		}
		if g.cfg.ForceBound > 0 && i < len(b.Force) {
			f := b.Force[i]
			if !vecmath.Finite(f) {
				return &DivergenceError{Index: i, Quantity: "force", Value: math.NaN()}
			}
			if n := r3.Norm(f); n > g.cfg.ForceBound {
				return &DivergenceError{Index: i, Quantity: "force", Value: n}
			}
		}
	}
	return nil
}

func (g *Guard) bounded(quantity string, i int, v r3.Vec) *DivergenceError {
	if m := vecmath.MaxAbs(v); !vecmath.Finite(v) || m > g.cfg.Bound {
		return &DivergenceError{Index: i, Quantity: quantity, Value: m}
	}
	return nil
}
