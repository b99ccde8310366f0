// Package vecmath holds the small set of 3D helpers the simulation needs on
// top of gonum's r3 package.
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Eps is the length below which a vector is treated as degenerate.
const Eps = 1e-9

var (
	Up   = r3.Vec{Y: 1}
	Down = r3.Vec{Y: -1}
)

// Normalize returns the unit vector colinear to v. ok is false when |v| <= eps,
// in which case the zero vector is returned.
func Normalize(v r3.Vec, eps float64) (u r3.Vec, ok bool) {
	n := r3.Norm(v)
	if n <= eps || math.IsNaN(n) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

// Decompose splits v into its component along the unit normal n and the
// remaining tangential part.
func Decompose(v, n r3.Vec) (normal, tangent r3.Vec) {
	normal = r3.Scale(r3.Dot(v, n), n)
	tangent = r3.Sub(v, normal)
	return normal, tangent
}

// Finite reports whether every component of v is a finite number.
func Finite(v r3.Vec) bool {
	return !(math.IsNaN(v.X) || math.IsInf(v.X, 0) ||
		math.IsNaN(v.Y) || math.IsInf(v.Y, 0) ||
		math.IsNaN(v.Z) || math.IsInf(v.Z, 0))
}

// MaxAbs returns the largest absolute component of v.
func MaxAbs(v r3.Vec) float64 {
	return math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
}
