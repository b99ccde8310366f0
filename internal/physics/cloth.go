package physics

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/collide"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/forces"
	"github.com/san-kum/partsim/internal/integrators"
	"github.com/san-kum/partsim/internal/vecmath"
)

// Default cloth parameters.
const (
	DefaultClothSize   = 10
	DefaultClothMass   = 1.0
	DefaultStiffness   = 100.0
	DefaultDamping     = 0.1
	DefaultWind        = 10.0
	DefaultContactSkin = 0.005
	DefaultClothBound  = 1e3
)

// Pin fixes the node at (Row, Col). A nil Target pins it at its initial
// position.
type Pin struct {
	Row    int     `yaml:"row"`
	Col    int     `yaml:"col"`
	Target *r3.Vec `yaml:"target,omitempty"`
}

// Obstacle is the optional sphere the cloth drapes over.
type Obstacle struct {
	Enabled        bool `yaml:"enabled"`
	collide.Sphere `yaml:",inline"`
}

// Gust modulates the wind per node with coherent noise: node i feels
// Wind*(1 + Amplitude*noise(t*Frequency, row, col)), never below zero.
type Gust struct {
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Seed      int64   `yaml:"seed"`
}

func (g Gust) Validate() error {
	if g.Amplitude < 0 || g.Amplitude > 1 {
		return fmt.Errorf("%w: cloth.gust.amplitude must be in [0,1], got %g", dynamo.ErrInvalidConfig, g.Amplitude)
	}
	return dynamo.NonNegative("cloth.gust.frequency", g.Frequency)
}

// ClothParams configures the mass-spring scene. Mass and Stiffness are
// totals: each node weighs Mass/N and each spring has stiffness
// Stiffness/N, N being the node count.
type ClothParams struct {
	Rows    int     `yaml:"rows"`
	Cols    int     `yaml:"cols"`
	Spacing float64 `yaml:"spacing"`
	// RestLength overrides Spacing as the structural rest length when
	// positive.
	RestLength float64 `yaml:"rest_length"`
	Origin     r3.Vec  `yaml:"origin"`
	// AxisU runs along a row (increasing column), AxisV across rows.
	AxisU       r3.Vec              `yaml:"axis_u"`
	AxisV       r3.Vec              `yaml:"axis_v"`
	Mass        float64             `yaml:"mass"`
	Stiffness   float64             `yaml:"stiffness"`
	Damping     float64             `yaml:"damping"`
	Gravity     r3.Vec              `yaml:"gravity"`
	Wind        float64             `yaml:"wind"`
	WindDir     r3.Vec              `yaml:"wind_dir"`
	Gust        Gust                `yaml:"gust"`
	Obstacle    Obstacle            `yaml:"obstacle"`
	Ground      Ground              `yaml:"ground"`
	Offset      float64             `yaml:"offset"`
	Restitution collide.Restitution `yaml:"restitution"`
	Pins        []Pin               `yaml:"pins"`
	Guard       dynamo.GuardConfig  `yaml:"guard"`
}

// DefaultClothParams is a horizontal sheet at y=1 held by the two corners
// of its first row, falling onto a sphere.
func DefaultClothParams() ClothParams {
	n := DefaultClothSize
	return ClothParams{
		Rows:        n,
		Cols:        n,
		Spacing:     1.0 / float64(n-1),
		Origin:      r3.Vec{X: -0.5, Y: 1},
		AxisU:       r3.Vec{X: 1},
		AxisV:       r3.Vec{Z: 1},
		Mass:        DefaultClothMass,
		Stiffness:   DefaultStiffness,
		Damping:     DefaultDamping,
		Gravity:     forces.StandardGravity,
		Wind:        DefaultWind,
		WindDir:     r3.Vec{Z: 1},
		Gust:        Gust{Frequency: 1},
		Obstacle:    Obstacle{Enabled: true, Sphere: collide.Sphere{Center: r3.Vec{Y: 0.1, Z: 0.5}, Radius: 0.2}},
		Ground:      Ground{Enabled: true, Height: -0.2},
		Offset:      DefaultContactSkin,
		Restitution: collide.Restitution{Tangential: 1, Normal: 0},
		Pins:        []Pin{{Row: 0, Col: 0}, {Row: 0, Col: n - 1}},
		Guard:       dynamo.GuardConfig{Bound: DefaultClothBound, ForceBound: 1e3},
	}
}

func (p ClothParams) nodes() int { return p.Rows * p.Cols }

func (p ClothParams) restLength() float64 {
	if p.RestLength > 0 {
		return p.RestLength
	}
	return p.Spacing
}

// nodeRadius is the drawn and contact radius of a node. A zero offset falls
// back to the default skin so nodes never render as points.
func (p ClothParams) nodeRadius() float64 {
	if p.Offset > 0 {
		return p.Offset
	}
	return DefaultContactSkin
}

func (p ClothParams) Validate() error {
	if p.Rows < 1 || p.Cols < 1 || p.nodes() < 2 {
		return fmt.Errorf("%w: cloth grid %dx%d needs at least two nodes", dynamo.ErrInvalidConfig, p.Rows, p.Cols)
	}
	checks := []func() error{
		func() error { return dynamo.Positive("cloth.spacing", p.Spacing) },
		func() error { return dynamo.NonNegative("cloth.rest_length", p.RestLength) },
		func() error { return dynamo.Positive("cloth.mass", p.Mass) },
		func() error { return dynamo.Positive("cloth.stiffness", p.Stiffness) },
		func() error { return dynamo.NonNegative("cloth.damping", p.Damping) },
		func() error { return dynamo.NonNegative("cloth.wind", p.Wind) },
		func() error { return dynamo.NonNegative("cloth.offset", p.Offset) },
		func() error { return p.Gust.Validate() },
		func() error { return p.Restitution.Validate("cloth.restitution") },
		func() error { return p.Guard.Validate() },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	if p.Obstacle.Enabled {
		if err := p.Obstacle.Validate("cloth.obstacle"); err != nil {
			return err
		}
	}
	for _, pin := range p.Pins {
		if pin.Row < 0 || pin.Row >= p.Rows || pin.Col < 0 || pin.Col >= p.Cols {
			return fmt.Errorf("%w: pin (%d,%d) outside %dx%d grid", dynamo.ErrInvalidConfig, pin.Row, pin.Col, p.Rows, p.Cols)
		}
	}
	return nil
}

// Cloth is the mass-spring scene. Nodes are indexed row*Cols+col.
type Cloth struct {
	params     ClothParams
	bodies     *dynamo.Bodies
	links      []forces.Link
	normals    []r3.Vec
	pins       map[int]r3.Vec
	integrator *integrators.Verlet
	noise      opensimplex.Noise
	guard      *dynamo.Guard
	snap       dynamo.Snapshot
	degenerate int
	time       float64
	steps      int
	logger     *slog.Logger
}

// NewCloth validates p and lays the grid out in its initial flat pose. A
// nil logger uses slog.Default().
func NewCloth(p ClothParams, logger *slog.Logger) (*Cloth, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cloth{
		params:     p,
		integrator: integrators.NewVerlet(),
		noise:      opensimplex.New(p.Gust.Seed),
		guard:      dynamo.NewGuard(p.Guard, logger),
		logger:     logger.With("scene", "cloth"),
	}
	c.layout()
	return c, nil
}

func (c *Cloth) layout() {
	p := c.params
	n := p.nodes()
	c.bodies = dynamo.NewBodies(n, p.Mass/float64(n), p.nodeRadius())
	for r := 0; r < p.Rows; r++ {
		for col := 0; col < p.Cols; col++ {
			c.bodies.Pos[r*p.Cols+col] = r3.Add(p.Origin, r3.Add(
				r3.Scale(float64(col)*p.Spacing, p.AxisU),
				r3.Scale(float64(r)*p.Spacing, p.AxisV)))
		}
	}
	c.links = forces.GridSprings(p.Rows, p.Cols, p.restLength())
	c.normals = make([]r3.Vec, n)
	forces.GridNormals(c.bodies.Pos, p.Rows, p.Cols, c.normals)
	c.pins = make(map[int]r3.Vec, len(p.Pins))
	for _, pin := range p.Pins {
		i := pin.Row*p.Cols + pin.Col
		target := c.bodies.Pos[i]
		if pin.Target != nil {
			target = *pin.Target
		}
		c.SetConstraint(i, target)
	}
}

func (c *Cloth) Name() string { return "cloth" }

// Step advances the cloth by dt: forces, Verlet update of free nodes,
// positional constraints, obstacle and ground contacts. A halted scene is
// left untouched.
func (c *Cloth) Step(dt float64) {
	if c.guard.Halted() {
		return
	}
	c.bodies.Save(&c.snap)

	c.computeForces()
	c.integrator.Integrate(c.bodies, dt)
	c.applyConstraints()
	c.resolveContacts()

	c.time += dt
	c.steps++
	if c.guard.Check(c.bodies, c.steps, c.time) && !c.guard.Override() {
		c.bodies.Restore(&c.snap)
	}
}

func (c *Cloth) computeForces() {
	b := c.bodies
	p := c.params
	n := float64(b.Len())

	for i := range b.Force {
		b.Force[i] = r3.Add(forces.Gravity(b.Mass[i], p.Gravity), forces.Damping(p.Damping, b.Vel[i]))
	}

	k := p.Stiffness / n
	c.degenerate = 0
	for _, l := range c.links {
		f, ok := forces.Spring(b.Pos[l.I], b.Pos[l.J], l.Rest, k, vecmath.Eps)
		if !ok {
			c.degenerate++
			continue
		}
		b.Force[l.I] = r3.Add(b.Force[l.I], f)
		b.Force[l.J] = r3.Sub(b.Force[l.J], f)
	}
	if err := c.Degenerate(); err != nil {
		c.logger.Debug("spring pass", "err", err, "step", c.steps)
	}

	if p.Wind > 0 {
		dir, ok := vecmath.Normalize(p.WindDir, vecmath.Eps)
		if ok {
			forces.GridNormals(b.Pos, p.Rows, p.Cols, c.normals)
			w := p.Wind / n
			for i := range b.Force {
				b.Force[i] = r3.Add(b.Force[i], forces.Wind(w*c.gust(i), dir, c.normals[i]))
			}
		}
	}
}

// gust returns the wind factor of node i at the current time.
func (c *Cloth) gust(i int) float64 {
	g := c.params.Gust
	if g.Amplitude == 0 {
		return 1
	}
	row, col := i/c.params.Cols, i%c.params.Cols
	v := c.noise.Eval3(c.time*g.Frequency, 0.3*float64(row), 0.3*float64(col))
	return max(0, 1+g.Amplitude*v)
}

func (c *Cloth) applyConstraints() {
	b := c.bodies
	for i, target := range c.pins {
		b.Pos[i] = target
		b.Vel[i] = r3.Vec{}
	}
}

func (c *Cloth) resolveContacts() {
	b := c.bodies
	p := c.params
	for i := range b.Pos {
		if b.Pinned[i] {
			continue
		}
		if p.Obstacle.Enabled {
			collide.ResolveOutsideSphere(&b.Pos[i], &b.Vel[i], p.Offset, p.Obstacle.Sphere, p.Restitution)
		}
		if p.Ground.Enabled {
			collide.ResolveGround(&b.Pos[i], &b.Vel[i], p.Ground.Height, p.Offset, p.Restitution)
		}
	}
}

// SetConstraint pins node i at target. It panics when i is not a node of
// the grid.
func (c *Cloth) SetConstraint(i int, target r3.Vec) {
	c.mustIndex(i)
	c.pins[i] = target
	c.bodies.Pinned[i] = true
	c.bodies.Pos[i] = target
	c.bodies.Vel[i] = r3.Vec{}
}

// RemoveConstraint frees node i. It panics when i is not a node of the grid.
func (c *Cloth) RemoveConstraint(i int) {
	c.mustIndex(i)
	delete(c.pins, i)
	c.bodies.Pinned[i] = false
}

// Constraints returns a copy of the pinned nodes and their targets.
func (c *Cloth) Constraints() map[int]r3.Vec {
	out := make(map[int]r3.Vec, len(c.pins))
	for i, t := range c.pins {
		out[i] = t
	}
	return out
}

// ConstrainedNodes lists the pinned node indices in ascending order.
func (c *Cloth) ConstrainedNodes() []int {
	out := make([]int, 0, len(c.pins))
	for i := range c.pins {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (c *Cloth) mustIndex(i int) {
	if i < 0 || i >= c.bodies.Len() {
		panic(fmt.Sprintf("physics: cloth node %d out of range [0,%d)", i, c.bodies.Len()))
	}
}

// Index returns the node index of (row, col). It panics outside the grid.
func (c *Cloth) Index(row, col int) int {
	if row < 0 || row >= c.params.Rows || col < 0 || col >= c.params.Cols {
		panic(fmt.Sprintf("physics: cloth cell (%d,%d) outside %dx%d grid", row, col, c.params.Rows, c.params.Cols))
	}
	return row*c.params.Cols + col
}

func (c *Cloth) Len() int             { return c.bodies.Len() }
func (c *Cloth) Rows() int            { return c.params.Rows }
func (c *Cloth) Cols() int            { return c.params.Cols }
func (c *Cloth) Positions() []r3.Vec  { return c.bodies.Pos }
func (c *Cloth) Velocities() []r3.Vec { return c.bodies.Vel }
func (c *Cloth) Normals() []r3.Vec    { return c.normals }
func (c *Cloth) Links() []forces.Link { return c.links }
func (c *Cloth) Time() float64        { return c.time }
func (c *Cloth) Steps() int           { return c.steps }
func (c *Cloth) Diverged() bool       { return c.guard.Diverged() }
func (c *Cloth) Halted() bool         { return c.guard.Halted() }
func (c *Cloth) Guard() *dynamo.Guard { return c.guard }
func (c *Cloth) Params() ClothParams  { return c.params }

// Degenerate reports how many springs were skipped on the latest step.
// Degenerate reports the springs skipped on the latest step for coincident
// endpoints. The error wraps dynamo.ErrDegenerate.
func (c *Cloth) Degenerate() error { return dynamo.Degenerate("springs", c.degenerate) }

// Radii returns the contact radius of every node, the collision offset.
func (c *Cloth) Radii() []float64 { return c.bodies.Radius }

func (c *Cloth) SetForceSimulation(on bool) { c.guard.SetOverride(on) }

// SetMass sets the total cloth mass.
func (c *Cloth) SetMass(m float64) error {
	if err := dynamo.Positive("cloth.mass", m); err != nil {
		return err
	}
	c.params.Mass = m
	node := m / float64(c.bodies.Len())
	for i := range c.bodies.Mass {
		c.bodies.Mass[i] = node
	}
	return nil
}

// SetStiffness sets the total spring stiffness.
func (c *Cloth) SetStiffness(k float64) error {
	if err := dynamo.Positive("cloth.stiffness", k); err != nil {
		return err
	}
	c.params.Stiffness = k
	return nil
}

func (c *Cloth) SetDamping(mu float64) error {
	if err := dynamo.NonNegative("cloth.damping", mu); err != nil {
		return err
	}
	c.params.Damping = mu
	return nil
}

func (c *Cloth) SetWind(w float64) error {
	if err := dynamo.NonNegative("cloth.wind", w); err != nil {
		return err
	}
	c.params.Wind = w
	return nil
}

func (c *Cloth) SetWindDirection(dir r3.Vec) { c.params.WindDir = dir }

func (c *Cloth) SetObstacle(o Obstacle) error {
	if o.Enabled {
		if err := o.Validate("cloth.obstacle"); err != nil {
			return err
		}
	}
	c.params.Obstacle = o
	return nil
}

func (c *Cloth) SetGround(g Ground) { c.params.Ground = g }

func (c *Cloth) SetRestitution(r collide.Restitution) error {
	if err := r.Validate("cloth.restitution"); err != nil {
		return err
	}
	c.params.Restitution = r
	return nil
}

// Energy returns kinetic, gravitational and elastic energy of the grid.
// Pinned nodes carry no kinetic energy.
func (c *Cloth) Energy() float64 {
	b := c.bodies
	p := c.params
	var e float64
	for i := range b.Pos {
		if !b.Pinned[i] {
			e += 0.5 * b.Mass[i] * r3.Norm2(b.Vel[i])
		}
		e -= b.Mass[i] * r3.Dot(p.Gravity, b.Pos[i])
	}
	k := p.Stiffness / float64(b.Len())
	for _, l := range c.links {
		e += forces.SpringEnergy(r3.Norm(r3.Sub(b.Pos[l.J], b.Pos[l.I])), l.Rest, k)
	}
	return e
}

// Reset lays the grid out again and clears the guard. Runtime changes to
// mass, stiffness, damping and wind are kept; constraints return to the
// configured pins.
func (c *Cloth) Reset() {
	c.layout()
	c.guard.Reset()
	c.degenerate = 0
	c.time, c.steps = 0, 0
}

func (c *Cloth) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":      c.params.Mass,
		"stiffness": c.params.Stiffness,
		"damping":   c.params.Damping,
		"wind":      c.params.Wind,
		"gust":      c.params.Gust.Amplitude,
		"ground":    c.params.Ground.Height,
		"offset":    c.params.Offset,
	}
}

func (c *Cloth) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		return c.SetMass(value)
	case "stiffness":
		return c.SetStiffness(value)
	case "damping":
		return c.SetDamping(value)
	case "wind":
		return c.SetWind(value)
	case "gust":
		g := c.params.Gust
		g.Amplitude = value
		if err := g.Validate(); err != nil {
			return err
		}
		c.params.Gust = g
	case "ground":
		c.params.Ground.Height = value
	case "offset":
		if err := dynamo.NonNegative("cloth.offset", value); err != nil {
			return err
		}
		c.params.Offset = value
		for i := range c.bodies.Radius {
			c.bodies.Radius[i] = c.params.nodeRadius()
		}
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
