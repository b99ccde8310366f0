package dynamo

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGuard_Check(t *testing.T) {
	tests := []struct {
		name     string
		pos      r3.Vec
		vel      r3.Vec
		force    r3.Vec
		cfg      GuardConfig
		diverged bool
		quantity string
	}{
		{"finite", r3.Vec{X: 1}, r3.Vec{Y: -5}, r3.Vec{}, DefaultGuardConfig(), false, ""},
		{"nan position", r3.Vec{X: math.NaN()}, r3.Vec{}, r3.Vec{}, DefaultGuardConfig(), true, "position"},
		{"inf velocity", r3.Vec{}, r3.Vec{Z: math.Inf(1)}, r3.Vec{}, DefaultGuardConfig(), true, "velocity"},
		{"over bound", r3.Vec{Y: -2e3}, r3.Vec{}, r3.Vec{}, DefaultGuardConfig(), true, "position"},
		{"force ignored", r3.Vec{}, r3.Vec{}, r3.Vec{X: 1e6}, DefaultGuardConfig(), false, ""},
		{"force bound", r3.Vec{}, r3.Vec{}, r3.Vec{X: 1e6}, GuardConfig{Bound: 1e3, ForceBound: 1e3}, true, "force"},
		{"at bound", r3.Vec{X: 1e3, Y: -1e3, Z: 1e3}, r3.Vec{}, r3.Vec{}, DefaultGuardConfig(), false, ""},
		{"force norm over bound", r3.Vec{}, r3.Vec{}, r3.Vec{X: 800, Y: 800}, GuardConfig{Bound: 1e3, ForceBound: 1e3}, true, "force"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(tt.cfg, quietLogger())
			b := NewBodies(2, 1, 1)
			b.Pos[1], b.Vel[1], b.Force[1] = tt.pos, tt.vel, tt.force

			got := g.Check(b, 7, 0.14)
			if got != tt.diverged {
				t.Fatalf("Check() = %v, want %v", got, tt.diverged)
			}
			if g.Diverged() != tt.diverged {
				t.Errorf("Diverged() = %v", g.Diverged())
			}
			if !tt.diverged {
				if g.Reason() != nil {
					t.Errorf("unexpected reason %v", g.Reason())
				}
				return
			}
			r := g.Reason()
			if r == nil {
				t.Fatal("missing divergence reason")
			}
			if r.Index != 1 || r.Quantity != tt.quantity || r.Step != 7 {
				t.Errorf("reason = %+v", r)
			}
			if !errors.Is(r, ErrDiverged) {
				t.Error("reason does not wrap ErrDiverged")
			}
		})
	}
}

func TestGuard_StateMachine(t *testing.T) {
	g := NewGuard(DefaultGuardConfig(), quietLogger())
	if g.State() != Running {
		t.Fatalf("initial state %v", g.State())
	}

	b := NewBodies(1, 1, 1)
	b.Vel[0] = r3.Vec{X: math.NaN()}
	g.Check(b, 1, 0)

	if g.State() != Halted || !g.Halted() {
		t.Fatalf("state after divergence = %v", g.State())
	}

	// no self-healing
	b.Vel[0] = r3.Vec{}
	if g.Check(b, 2, 0) {
		t.Error("Check reported a second transition")
	}
	if g.State() != Halted {
		t.Error("guard healed itself")
	}

	g.SetOverride(true)
	if g.State() != Running {
		t.Error("override did not resume")
	}
	if !g.Diverged() {
		t.Error("override must not clear the diverged flag")
	}

	g.SetOverride(false)
	if g.State() != Halted {
		t.Error("clearing override did not halt again")
	}

	g.Reset()
	if g.State() != Running || g.Diverged() || g.Reason() != nil {
		t.Error("Reset did not clear divergence")
	}
}

func TestGuardConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  GuardConfig
		ok   bool
	}{
		{"default", DefaultGuardConfig(), true},
		{"zero bound", GuardConfig{}, false},
		{"negative force bound", GuardConfig{Bound: 1, ForceBound: -1}, false},
		{"nan bound", GuardConfig{Bound: math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v", err)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestGuardState_String(t *testing.T) {
	if Running.String() != "running" || Halted.String() != "halted" {
		t.Error("unexpected state names")
	}
}

func TestParamError(t *testing.T) {
	err := Positive("mass", -1)
	expected := "dynamo: invalid mass=-1: must be positive"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if Positive("mass", 2) != nil {
		t.Error("positive value rejected")
	}
	if NonNegative("mu", 0) != nil {
		t.Error("zero rejected by NonNegative")
	}
}

func TestDivergenceError(t *testing.T) {
	err := &DivergenceError{Step: 150, Time: 1.5, Index: 3, Quantity: "velocity", Value: math.Inf(1)}
	expected := "step 150 (t=1.5000): velocity of entity 3 diverged (+Inf)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestDegenerateError(t *testing.T) {
	if err := Degenerate("springs", 0); err != nil {
		t.Errorf("zero count returned %v", err)
	}
	err := Degenerate("springs", 3)
	if !errors.Is(err, ErrDegenerate) {
		t.Fatalf("err = %v, want ErrDegenerate", err)
	}
	var de *DegenerateError
	if !errors.As(err, &de) || de.Count != 3 {
		t.Errorf("count = %+v", de)
	}
	if err.Error() != "dynamo: skipped 3 degenerate springs" {
		t.Errorf("Error() = %q", err.Error())
	}
}
