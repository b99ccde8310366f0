package integrators

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/dynamo"
)

// DefaultFriction is the velocity decay rate of the free-particle scene.
const DefaultFriction = 0.91

// SemiImplicitEuler integrates unit-mass particles with a friction term
// folded into the velocity update:
//
//	v <- (1 - c*dt)*v + dt*f
//	p <- p + dt*v
//
// The position uses the freshly updated velocity.
type SemiImplicitEuler struct {
	Friction float64
}

func NewSemiImplicitEuler(friction float64) *SemiImplicitEuler {
	return &SemiImplicitEuler{Friction: friction}
}

func (e *SemiImplicitEuler) Name() string { return "semi_implicit_euler" }

func (e *SemiImplicitEuler) Integrate(b *dynamo.Bodies, dt float64) {
	decay := 1 - e.Friction*dt
	for i := range b.Pos {
		b.Vel[i] = r3.Add(r3.Scale(decay, b.Vel[i]), r3.Scale(dt, b.Force[i]))
		b.Pos[i] = r3.Add(b.Pos[i], r3.Scale(dt, b.Vel[i]))
	}
}
