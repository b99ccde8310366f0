package dynamo

import "gonum.org/v1/gonum/spatial/r3"

// Bodies stores the simulated point masses as parallel slices.
type Bodies struct {
	Pos    []r3.Vec
	Vel    []r3.Vec
	Force  []r3.Vec
	Mass   []float64
	Radius []float64
	Pinned []bool
}

// NewBodies allocates n zeroed bodies with the given mass and radius.
func NewBodies(n int, mass, radius float64) *Bodies {
	b := &Bodies{
		Pos:    make([]r3.Vec, n),
		Vel:    make([]r3.Vec, n),
		Force:  make([]r3.Vec, n),
		Mass:   make([]float64, n),
		Radius: make([]float64, n),
		Pinned: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		b.Mass[i] = mass
		b.Radius[i] = radius
	}
	return b
}

func (b *Bodies) Len() int { return len(b.Pos) }

// Append adds one body and returns its index.
func (b *Bodies) Append(p, v r3.Vec, mass, radius float64) int {
	b.Pos = append(b.Pos, p)
	b.Vel = append(b.Vel, v)
	b.Force = append(b.Force, r3.Vec{})
	b.Mass = append(b.Mass, mass)
	b.Radius = append(b.Radius, radius)
	b.Pinned = append(b.Pinned, false)
	return len(b.Pos) - 1
}

// Snapshot captures positions and velocities so a diverged step can be
// rolled back to the last valid state.
type Snapshot struct {
	Pos []r3.Vec
	Vel []r3.Vec
}

// Save copies the current kinematic state into s, reusing its storage.
func (b *Bodies) Save(s *Snapshot) {
	n := b.Len()
	if cap(s.Pos) < n {
		s.Pos = make([]r3.Vec, n)
		s.Vel = make([]r3.Vec, n)
	}
	s.Pos = s.Pos[:n]
	s.Vel = s.Vel[:n]
	copy(s.Pos, b.Pos)
	copy(s.Vel, b.Vel)
}

// Restore writes a snapshot taken with Save back into the buffers.
func (b *Bodies) Restore(s *Snapshot) {
	copy(b.Pos, s.Pos)
	copy(b.Vel, s.Vel)
}

// Integrator advances kinematics by one step from the accumulated forces.
type Integrator interface {
	Name() string
	Integrate(b *Bodies, dt float64)
}

// Scene is the simulation kernel seen by frame drivers and runners.
type Scene interface {
	Name() string
	Step(dt float64)
	Len() int
	Positions() []r3.Vec
	Radii() []float64
	Time() float64
	Steps() int
	Energy() float64
	Diverged() bool
	Halted() bool
	SetForceSimulation(on bool)
	Reset()
}

// Observer is notified after every frame.
type Observer interface {
	OnFrame(s Scene, t float64)
}

type Metric interface {
	Name() string
	Observe(s Scene, t float64)
	Value() float64
	Reset()
}

// Configurable scenes expose their scalar parameters by name for runtime
// adjustment. SetParam rejects unknown names and invalid values.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// VelocityReader is implemented by scenes that expose their velocities.
type VelocityReader interface {
	Velocities() []r3.Vec
}
