// Package forces computes the per-entity force terms of the particle scenes.
// Every function is pure; callers accumulate the results into their own
// force buffers.
package forces

import "gonum.org/v1/gonum/spatial/r3"

// StandardGravity is the cloth scene's gravitational acceleration.
var StandardGravity = r3.Vec{Y: -9.81}

// Gravity returns the weight m*g.
func Gravity(m float64, g r3.Vec) r3.Vec {
	return r3.Scale(m, g)
}

// Spring returns the elastic force applied on the node at pi by a spring
// attached to pj. ok is false when the two ends coincide (|pj-pi| <= eps); the
// force is then zero.
func Spring(pi, pj r3.Vec, L0, K, eps float64) (f r3.Vec, ok bool) {
	d := r3.Sub(pj, pi)
	L := r3.Norm(d)
	if L <= eps {
		return r3.Vec{}, false
	}
	return r3.Scale(K*(L-L0)/L, d), true
}

// SpringEnergy is the elastic potential of a spring stretched to length L.
func SpringEnergy(L, L0, K float64) float64 {
	s := L - L0
	return 0.5 * K * s * s
}

// Damping returns the viscous term -mu*v.
func Damping(mu float64, v r3.Vec) r3.Vec {
	return r3.Scale(-mu, v)
}

// Wind returns the one-sided drag w*dot(n,dir)*n. Surfaces whose normal n
// does not face along the wind direction receive no force.
func Wind(w float64, dir, n r3.Vec) r3.Vec {
	c := r3.Dot(n, dir)
	if c <= 0 {
		return r3.Vec{}
	}
	return r3.Scale(w*c, n)
}
