// Package collide resolves contacts between particles and the static
// obstacles of a scene. Every resolver is single pass: it reflects the
// velocity with restitution coefficients and pushes the particle back to the
// legal side of the surface.
package collide

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/vecmath"
)

// Restitution holds the velocity retention factors applied on contact.
type Restitution struct {
	// Tangential (alpha) scales the velocity component along the surface.
	Tangential float64 `yaml:"tangential"`
	// Normal (beta) scales the reflected component along the normal.
	Normal float64 `yaml:"normal"`
}

func (r Restitution) Validate(prefix string) error {
	if err := dynamo.NonNegative(prefix+".tangential", r.Tangential); err != nil {
		return err
	}
	return dynamo.NonNegative(prefix+".normal", r.Normal)
}

// Respond returns alpha*v_t - beta*v_n for the unit normal n.
func Respond(v, n r3.Vec, rest Restitution) r3.Vec {
	vn, vt := vecmath.Decompose(v, n)
	return r3.Sub(r3.Scale(rest.Tangential, vt), r3.Scale(rest.Normal, vn))
}

// Plane is an infinite plane through Point whose unit Normal points to the
// legal side.
type Plane struct {
	Point  r3.Vec `yaml:"point"`
	Normal r3.Vec `yaml:"normal"`
}

// ResolvePlane handles a particle of radius r against pl. A contact is
// detected when dot(p-a, n) <= r.
func ResolvePlane(p, v *r3.Vec, r float64, pl Plane, rest Restitution) bool {
	dist := r3.Dot(r3.Sub(*p, pl.Point), pl.Normal)
	if dist > r {
		return false
	}
	*v = Respond(*v, pl.Normal, rest)
	*p = r3.Add(*p, r3.Scale(r-dist, pl.Normal))
	return true
}

// Cube is an axis-aligned box seen from the inside.
type Cube struct {
	Center   r3.Vec  `yaml:"center"`
	HalfSize float64 `yaml:"half_size"`
}

func (c Cube) Validate() error {
	return dynamo.Positive("cube.half_size", c.HalfSize)
}

// Planes returns the six inward-facing walls: floor, +x, -x, -z, +z, ceiling.
func (c Cube) Planes() []Plane {
	h := c.HalfSize
	wall := func(offset, normal r3.Vec) Plane {
		return Plane{Point: r3.Add(c.Center, r3.Scale(h, offset)), Normal: normal}
	}
	return []Plane{
		wall(r3.Vec{Y: -1}, r3.Vec{Y: 1}),
		wall(r3.Vec{X: 1}, r3.Vec{X: -1}),
		wall(r3.Vec{X: -1}, r3.Vec{X: 1}),
		wall(r3.Vec{Z: -1}, r3.Vec{Z: 1}),
		wall(r3.Vec{Z: 1}, r3.Vec{Z: -1}),
		wall(r3.Vec{Y: 1}, r3.Vec{Y: -1}),
	}
}

// Sphere is a ball used either as a container or as an obstacle.
type Sphere struct {
	Center r3.Vec  `yaml:"center"`
	Radius float64 `yaml:"radius"`
}

func (s Sphere) Validate(prefix string) error {
	return dynamo.Positive(prefix+".radius", s.Radius)
}

// ResolveInsideSphere keeps a particle of radius r inside s. A contact is
// detected when |p-c| >= R-r. A particle sitting exactly on the centre has no
// defined normal and is left untouched.
func ResolveInsideSphere(p, v *r3.Vec, r float64, s Sphere, rest Restitution) bool {
	if r3.Norm(r3.Sub(*p, s.Center)) < s.Radius-r {
		return false
	}
	n, ok := vecmath.Normalize(r3.Sub(s.Center, *p), vecmath.Eps)
	if !ok {
		return false
	}
	a := r3.Sub(s.Center, r3.Scale(s.Radius, n))
	*v = Respond(*v, n, rest)
	d := r - r3.Dot(r3.Sub(*p, a), n)
	*p = r3.Add(*p, r3.Scale(d, n))
	return true
}

// ResolveOutsideSphere keeps a point out of s, offset by a small skin
// distance. Velocity is only reflected while moving into the sphere.
func ResolveOutsideSphere(p, v *r3.Vec, offset float64, s Sphere, rest Restitution) bool {
	delta := r3.Sub(*p, s.Center)
	if r3.Norm(delta) >= s.Radius+offset {
		return false
	}
	n, ok := vecmath.Normalize(delta, vecmath.Eps)
	if !ok {
		return false
	}
	*p = r3.Add(s.Center, r3.Scale(s.Radius+offset, n))
	if r3.Dot(*v, n) < 0 {
		*v = Respond(*v, n, rest)
	}
	return true
}

// ResolveGround keeps a point above the horizontal plane y = height+offset.
func ResolveGround(p, v *r3.Vec, height, offset float64, rest Restitution) bool {
	floor := height + offset
	if p.Y >= floor {
		return false
	}
	p.Y = floor
	if v.Y < 0 {
		*v = Respond(*v, vecmath.Up, rest)
	}
	return true
}
