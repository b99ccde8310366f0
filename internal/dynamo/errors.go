package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrDiverged indicates non-finite or unbounded simulation state. It is
	// surfaced through the Halted state, never returned from Step.
	ErrDiverged = errors.New("dynamo: simulation diverged (NaN, Inf or out of bounds)")

	// ErrDegenerate indicates a zero-length spring or collision normal. The
	// affected term is skipped.
	ErrDegenerate = errors.New("dynamo: degenerate geometry (zero-length vector)")

	// ErrInvalidConfig indicates a parameter outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")
)

// ParamError reports a rejected parameter value.
type ParamError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("dynamo: invalid %s=%g: %s", e.Name, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidConfig
}

// DivergenceError describes the first entity found in a diverged state.
type DivergenceError struct {
	Step     int
	Time     float64
	Index    int
	Quantity string
	Value    float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s of entity %d diverged (%g)",
		e.Step, e.Time, e.Quantity, e.Index, e.Value)
}

func (e *DivergenceError) Unwrap() error {
	return ErrDiverged
}

// DegenerateError counts terms skipped because their direction vector had
// zero length.
type DegenerateError struct {
	What  string
	Count int
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("dynamo: skipped %d degenerate %s", e.Count, e.What)
}

func (e *DegenerateError) Unwrap() error {
	return ErrDegenerate
}

// Degenerate returns a DegenerateError for a positive count and nil
// otherwise.
func Degenerate(what string, count int) error {
	if count <= 0 {
		return nil
	}
	return &DegenerateError{What: what, Count: count}
}

// Positive returns a ParamError unless v > 0.
func Positive(name string, v float64) error {
	if !(v > 0) {
		return &ParamError{Name: name, Value: v, Reason: "must be positive"}
	}
	return nil
}

// NonNegative returns a ParamError unless v >= 0.
func NonNegative(name string, v float64) error {
	if !(v >= 0) {
		return &ParamError{Name: name, Value: v, Reason: "must not be negative"}
	}
	return nil
}

// ErrUnknownParam is returned by SetParam for names a scene does not expose.
var ErrUnknownParam = errors.New("dynamo: unknown parameter")
