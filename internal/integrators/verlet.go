package integrators

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Verlet is the explicit-velocity update used by the mass-spring scene:
//
//	p <- p + dt*v
//	v <- v + dt*f/m
//
// Pinned nodes are skipped; their positions are imposed by the scene.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Integrate(b *dynamo.Bodies, dt float64) {
	for i := range b.Pos {
		if b.Pinned[i] {
			continue
		}
		b.Pos[i] = r3.Add(b.Pos[i], r3.Scale(dt, b.Vel[i]))
		b.Vel[i] = r3.Add(b.Vel[i], r3.Scale(dt/b.Mass[i], b.Force[i]))
	}
}
