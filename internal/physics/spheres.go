package physics

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/collide"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/emit"
	"github.com/san-kum/partsim/internal/forces"
	"github.com/san-kum/partsim/internal/integrators"
	"github.com/san-kum/partsim/internal/vecmath"
)

const (
	DefaultGravityScale = 2.0
	gravityMagnitude    = 9.81
)

// Ground is an optional horizontal plane y = Height.
type Ground struct {
	Enabled bool    `yaml:"enabled"`
	Height  float64 `yaml:"height"`
}

// SpheresParams configures the free-particle scene.
type SpheresParams struct {
	Emit         emit.Params `yaml:"emit"`
	Friction     float64     `yaml:"friction"`
	GravityScale float64     `yaml:"gravity_scale"`
	// Down is the direction of gravity. It is normalised on construction.
	Down        r3.Vec              `yaml:"down"`
	Shape       Shape               `yaml:"shape"`
	Cube        collide.Cube        `yaml:"cube"`
	Container   collide.Sphere      `yaml:"container"`
	Ground      Ground              `yaml:"ground"`
	Restitution collide.Restitution `yaml:"restitution"`
	Pairs       collide.PairParams  `yaml:"pairs"`
	BroadPhase  string              `yaml:"broad_phase"`
	Guard       dynamo.GuardConfig  `yaml:"guard"`
}

func DefaultSpheresParams() SpheresParams {
	return SpheresParams{
		Emit:         emit.DefaultParams(),
		Friction:     integrators.DefaultFriction,
		GravityScale: DefaultGravityScale,
		Down:         vecmath.Down,
		Shape:        ShapeCube,
		Cube:         collide.Cube{HalfSize: 1},
		Container:    collide.Sphere{Radius: 1},
		Ground:       Ground{Height: -1},
		Restitution:  collide.Restitution{Tangential: 0.7, Normal: 0.7},
		Pairs:        collide.DefaultPairParams(),
		BroadPhase:   "all_pairs",
		Guard:        dynamo.DefaultGuardConfig(),
	}
}

func (p SpheresParams) Validate() error {
	if err := p.Emit.Validate(); err != nil {
		return err
	}
	if err := dynamo.NonNegative("spheres.friction", p.Friction); err != nil {
		return err
	}
	if err := dynamo.NonNegative("spheres.gravity_scale", p.GravityScale); err != nil {
		return err
	}
	if _, ok := vecmath.Normalize(p.Down, vecmath.Eps); !ok && p.GravityScale > 0 {
		return &dynamo.ParamError{Name: "spheres.down", Value: r3.Norm(p.Down), Reason: "must not be zero"}
	}
	if p.Shape != ShapeCube && p.Shape != ShapeSphere {
		return fmt.Errorf("%w: unknown shape %d", dynamo.ErrInvalidConfig, p.Shape)
	}
	if err := p.Cube.Validate(); err != nil {
		return err
	}
	if err := p.Container.Validate("spheres.container"); err != nil {
		return err
	}
	if err := p.Restitution.Validate("spheres.restitution"); err != nil {
		return err
	}
	if err := p.Pairs.Validate(); err != nil {
		return err
	}
	if _, err := collide.NewBroadPhase(p.BroadPhase); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	return p.Guard.Validate()
}

// Spheres is the free-particle scene: a fountain of unit-mass balls falling
// into a cube or a spherical bowl.
type Spheres struct {
	params     SpheresParams
	seed       int64
	bodies     *dynamo.Bodies
	colors     []emit.Color
	emitter    *emit.Emitter
	integrator *integrators.SemiImplicitEuler
	broad      collide.BroadPhase
	guard      *dynamo.Guard
	gravity    r3.Vec
	snap       dynamo.Snapshot
	last       collide.PairStats
	time       float64
	steps      int
	logger     *slog.Logger
}

// NewSpheres validates p and builds an empty scene. A nil logger uses
// slog.Default().
func NewSpheres(p SpheresParams, seed int64, logger *slog.Logger) (*Spheres, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	broad, _ := collide.NewBroadPhase(p.BroadPhase)
	s := &Spheres{
		params:     p,
		seed:       seed,
		bodies:     dynamo.NewBodies(0, 1, 0),
		emitter:    emit.New(p.Emit, seed),
		integrator: integrators.NewSemiImplicitEuler(p.Friction),
		broad:      broad,
		guard:      dynamo.NewGuard(p.Guard, logger),
		logger:     logger.With("scene", "spheres"),
	}
	s.updateGravity()
	return s, nil
}

func (s *Spheres) updateGravity() {
	down, _ := vecmath.Normalize(s.params.Down, vecmath.Eps)
	s.gravity = r3.Scale(gravityMagnitude*s.params.GravityScale, down)
}

func (s *Spheres) Name() string { return "spheres" }

// Step advances the scene by dt: emission, gravity, semi-implicit Euler,
// particle pairs, then the active container. A halted scene is left
// untouched.
func (s *Spheres) Step(dt float64) {
	if s.guard.Halted() {
		return
	}

	for _, p := range s.emitter.Emit(dt) {
		s.add(p.Pos, p.Vel, p.Radius, p.Color)
		s.logger.Debug("emitted", "total", s.bodies.Len())
	}
	s.bodies.Save(&s.snap)

	b := s.bodies
	for i := range b.Force {
		b.Force[i] = forces.Gravity(b.Mass[i], s.gravity)
	}
	s.integrator.Integrate(b, dt)

	s.last = collide.ResolvePairs(b, s.broad, s.params.Pairs)
	if err := s.last.Err(); err != nil {
		s.logger.Debug("pair pass", "err", err, "step", s.steps)
	}
	s.resolveBoundary()

	s.time += dt
	s.steps++
	if s.guard.Check(b, s.steps, s.time) && !s.guard.Override() {
		b.Restore(&s.snap)
	}
}

func (s *Spheres) resolveBoundary() {
	b := s.bodies
	rest := s.params.Restitution
	var planes []collide.Plane
	if s.params.Shape == ShapeCube {
		planes = s.params.Cube.Planes()
	}
	for i := range b.Pos {
		switch s.params.Shape {
		case ShapeCube:
			for _, pl := range planes {
				collide.ResolvePlane(&b.Pos[i], &b.Vel[i], b.Radius[i], pl, rest)
			}
		case ShapeSphere:
			collide.ResolveInsideSphere(&b.Pos[i], &b.Vel[i], b.Radius[i], s.params.Container, rest)
		}
		if s.params.Ground.Enabled {
			floor := collide.Plane{Point: r3.Vec{Y: s.params.Ground.Height}, Normal: vecmath.Up}
			collide.ResolvePlane(&b.Pos[i], &b.Vel[i], b.Radius[i], floor, rest)
		}
	}
}

func (s *Spheres) add(p, v r3.Vec, r float64, c emit.Color) int {
	s.colors = append(s.colors, c)
	return s.bodies.Append(p, v, 1, r)
}

// AddParticle appends a particle and returns its index. A non-positive
// radius is rejected with ErrInvalidConfig.
func (s *Spheres) AddParticle(p, v r3.Vec, radius float64) (int, error) {
	if err := dynamo.Positive("radius", radius); err != nil {
		return -1, err
	}
	return s.add(p, v, radius, emit.Palette[0]), nil
}

func (s *Spheres) Len() int              { return s.bodies.Len() }
func (s *Spheres) Positions() []r3.Vec   { return s.bodies.Pos }
func (s *Spheres) Velocities() []r3.Vec  { return s.bodies.Vel }
func (s *Spheres) Radii() []float64      { return s.bodies.Radius }
func (s *Spheres) Colors() []emit.Color  { return s.colors }
func (s *Spheres) Time() float64         { return s.time }
func (s *Spheres) Steps() int            { return s.steps }
func (s *Spheres) Diverged() bool        { return s.guard.Diverged() }
func (s *Spheres) Halted() bool          { return s.guard.Halted() }
func (s *Spheres) Guard() *dynamo.Guard  { return s.guard }
func (s *Spheres) Params() SpheresParams { return s.params }

// LastPairs reports what the particle pair pass did on the latest step.
func (s *Spheres) LastPairs() collide.PairStats { return s.last }

func (s *Spheres) SetForceSimulation(on bool) { s.guard.SetOverride(on) }

func (s *Spheres) Emission() bool           { return s.emitter.Enabled() }
func (s *Spheres) SetEmission(enabled bool) { s.emitter.SetEnabled(enabled) }

func (s *Spheres) SetEmissionInterval(t float64) error {
	if err := s.emitter.SetInterval(t); err != nil {
		return err
	}
	s.params.Emit.Interval = t
	return nil
}

func (s *Spheres) Shape() Shape { return s.params.Shape }

func (s *Spheres) SetShape(shape Shape) error {
	if shape != ShapeCube && shape != ShapeSphere {
		return fmt.Errorf("%w: unknown shape %d", dynamo.ErrInvalidConfig, shape)
	}
	s.params.Shape = shape
	return nil
}

func (s *Spheres) SetCube(c collide.Cube) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.params.Cube = c
	return nil
}

func (s *Spheres) SetContainer(c collide.Sphere) error {
	if err := c.Validate("spheres.container"); err != nil {
		return err
	}
	s.params.Container = c
	return nil
}

func (s *Spheres) SetGround(g Ground) { s.params.Ground = g }

func (s *Spheres) SetRestitution(r collide.Restitution) error {
	if err := r.Validate("spheres.restitution"); err != nil {
		return err
	}
	s.params.Restitution = r
	return nil
}

// SetSymmetric switches the pair correction between moving only the first
// particle of a pair and splitting it between both.
func (s *Spheres) SetSymmetric(on bool) { s.params.Pairs.Symmetric = on }

func (s *Spheres) SetBroadPhase(name string) error {
	bp, err := collide.NewBroadPhase(name)
	if err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	s.broad = bp
	s.params.BroadPhase = bp.Name()
	return nil
}

// Energy returns kinetic plus gravitational potential energy.
func (s *Spheres) Energy() float64 {
	b := s.bodies
	var e float64
	for i := range b.Pos {
		e += 0.5*b.Mass[i]*r3.Norm2(b.Vel[i]) - b.Mass[i]*r3.Dot(s.gravity, b.Pos[i])
	}
	return e
}

// Reset removes every particle and restarts the clock, the emitter and the
// guard. The emitter's random source is reseeded.
func (s *Spheres) Reset() {
	s.bodies = dynamo.NewBodies(0, 1, 0)
	s.colors = nil
	enabled := s.emitter.Enabled()
	s.emitter = emit.New(s.params.Emit, s.seed)
	s.emitter.SetEnabled(enabled)
	s.guard.Reset()
	s.last = collide.PairStats{}
	s.time, s.steps = 0, 0
}

func (s *Spheres) GetParams() map[string]float64 {
	return map[string]float64{
		"emit_interval":  s.params.Emit.Interval,
		"friction":       s.params.Friction,
		"gravity_scale":  s.params.GravityScale,
		"restitution_t":  s.params.Restitution.Tangential,
		"restitution_n":  s.params.Restitution.Normal,
		"cube_half_size": s.params.Cube.HalfSize,
		"sphere_radius":  s.params.Container.Radius,
	}
}

func (s *Spheres) SetParam(name string, value float64) error {
	switch name {
	case "emit_interval":
		return s.SetEmissionInterval(value)
	case "friction":
		if err := dynamo.NonNegative("spheres.friction", value); err != nil {
			return err
		}
		s.params.Friction = value
		s.integrator.Friction = value
	case "gravity_scale":
		if err := dynamo.NonNegative("spheres.gravity_scale", value); err != nil {
			return err
		}
		s.params.GravityScale = value
		s.updateGravity()
	case "restitution_t":
		r := s.params.Restitution
		r.Tangential = value
		return s.SetRestitution(r)
	case "restitution_n":
		r := s.params.Restitution
		r.Normal = value
		return s.SetRestitution(r)
	case "cube_half_size":
		c := s.params.Cube
		c.HalfSize = value
		return s.SetCube(c)
	case "sphere_radius":
		c := s.params.Container
		c.Radius = value
		return s.SetContainer(c)
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
