// Package emit implements the timer-driven particle fountain of the sphere
// scene.
package emit

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/dynamo"
)

const (
	DefaultInterval = 0.5
	DefaultRadius   = 0.08
	DefaultSpread   = 2.0
	DefaultLift     = 5.0

	// slack absorbs rounding when elapsed time is accumulated frame by frame.
	slack = 1e-9
)

// Color is a display-only RGB triple.
type Color [3]float64

// Palette holds the colours picked from for new particles.
var Palette = []Color{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 1, 0},
	{1, 0, 1},
	{0, 1, 1},
}

// Particle is a freshly emitted particle.
type Particle struct {
	Pos    r3.Vec
	Vel    r3.Vec
	Radius float64
	Color  Color
}

// Params configures the emitter.
type Params struct {
	Enabled  bool    `yaml:"enabled"`
	Interval float64 `yaml:"interval"`
	Radius   float64 `yaml:"radius"`
	// Spread is the horizontal speed of the launch cone, Lift the vertical one.
	Spread float64 `yaml:"spread"`
	Lift   float64 `yaml:"lift"`
	Origin r3.Vec  `yaml:"origin"`
}

func DefaultParams() Params {
	return Params{
		Enabled:  true,
		Interval: DefaultInterval,
		Radius:   DefaultRadius,
		Spread:   DefaultSpread,
		Lift:     DefaultLift,
	}
}

func (p Params) Validate() error {
	if err := dynamo.Positive("emit.interval", p.Interval); err != nil {
		return err
	}
	return dynamo.Positive("emit.radius", p.Radius)
}

// Emitter accumulates elapsed time and fires one event per Interval.
type Emitter struct {
	params  Params
	elapsed float64
	rng     *rand.Rand
}

func New(params Params, seed int64) *Emitter {
	return &Emitter{params: params, rng: rand.New(rand.NewSource(seed))}
}

func (e *Emitter) Params() Params     { return e.params }
func (e *Emitter) Enabled() bool      { return e.params.Enabled }
func (e *Emitter) SetEnabled(on bool) { e.params.Enabled = on }

// SetInterval changes the emission period. The accumulated time is kept.
func (e *Emitter) SetInterval(t float64) error {
	if err := dynamo.Positive("emit.interval", t); err != nil {
		return err
	}
	e.params.Interval = t
	return nil
}

// Advance adds dt to the timer and reports whether an event fired. At most
// one event fires per call; time beyond one Interval is carried modulo the
// Interval. A non-finite total fires nothing and clears the timer. Events
// fire whether or not emission is enabled.
func (e *Emitter) Advance(dt float64) bool {
	e.elapsed += dt
	if math.IsNaN(e.elapsed) || math.IsInf(e.elapsed, 0) {
		e.elapsed = 0
		return false
	}
	if e.elapsed+slack < e.params.Interval {
		if e.elapsed < 0 {
			e.elapsed = 0
		}
		return false
	}
	e.elapsed -= e.params.Interval
	if e.elapsed >= e.params.Interval {
		e.elapsed = math.Mod(e.elapsed, e.params.Interval)
	}
	if e.elapsed < 0 {
		e.elapsed = 0
	}
	return true
}

// Emit advances the timer and returns the particles to append, at most one.
func (e *Emitter) Emit(dt float64) []Particle {
	if !e.Advance(dt) || !e.params.Enabled {
		return nil
	}
	return []Particle{e.Spawn()}
}

// Spawn builds one particle launched on the horizontal cone
// (spread*cos t, lift, spread*sin t) with t uniform in [0, 2pi).
func (e *Emitter) Spawn() Particle {
	theta := e.rng.Float64() * 2 * math.Pi
	sin, cos := math.Sincos(theta)
	return Particle{
		Pos:    e.params.Origin,
		Vel:    r3.Vec{X: e.params.Spread * cos, Y: e.params.Lift, Z: e.params.Spread * sin},
		Radius: e.params.Radius,
		Color:  Palette[e.rng.Intn(len(Palette))],
	}
}
