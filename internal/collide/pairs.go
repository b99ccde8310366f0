package collide

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/vecmath"
)

// PairParams configures particle-particle contact response.
type PairParams struct {
	// Alpha scales the incoming velocity, Beta the exchanged impulse.
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	// Stick damps velocities cross-assigned when the pair barely moves
	// relative to each other.
	Stick float64 `yaml:"stick"`
	// SpeedEps separates the impulse and sticking regimes.
	SpeedEps float64 `yaml:"speed_eps"`
	// Symmetric pushes both particles apart by half the penetration. When
	// false only the first particle of the pair is moved.
	Symmetric bool `yaml:"symmetric"`
}

func DefaultPairParams() PairParams {
	return PairParams{Alpha: 0.5, Beta: 0.5, Stick: 0.5, SpeedEps: 1e-4}
}

func (p PairParams) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"pairs.alpha", p.Alpha},
		{"pairs.beta", p.Beta},
		{"pairs.stick", p.Stick},
		{"pairs.speed_eps", p.SpeedEps},
	} {
		if err := dynamo.NonNegative(c.name, c.v); err != nil {
			return err
		}
	}
	return nil
}

// PairStats counts what a resolution pass did.
type PairStats struct {
	Contacts   int
	Degenerate int
}

// Err reports skipped coincident pairs as an error wrapping
// dynamo.ErrDegenerate, or nil.
func (st PairStats) Err() error {
	return dynamo.Degenerate("contact normals", st.Degenerate)
}

// ResolvePairs visits candidate pairs from bp in ascending (i, j) order and
// resolves every pair whose distance is at most the sum of radii.
func ResolvePairs(b *dynamo.Bodies, bp BroadPhase, prm PairParams) PairStats {
	var st PairStats
	bp.Pairs(b.Pos, b.Radius, func(i, j int) {
		hit, degenerate := resolvePair(b, i, j, prm)
		if hit {
			st.Contacts++
		}
		if degenerate {
			st.Degenerate++
		}
	})
	return st
}

func resolvePair(b *dynamo.Bodies, i, j int, prm PairParams) (hit, degenerate bool) {
	delta := r3.Sub(b.Pos[i], b.Pos[j])
	dist := r3.Norm(delta)
	rsum := b.Radius[i] + b.Radius[j]
	if dist > rsum {
		return false, false
	}
	u, ok := vecmath.Normalize(delta, vecmath.Eps)
	if !ok {
		return true, true
	}

	v1, v2 := b.Vel[i], b.Vel[j]
	if r3.Norm(r3.Sub(v1, v2)) > prm.SpeedEps {
		const m1, m2 = 1.0, 1.0
		impulse := 2 * (m1 * m2) / (m1 + m2) * r3.Dot(r3.Sub(v2, v1), u)
		b.Vel[i] = r3.Add(r3.Scale(prm.Alpha, v1), r3.Scale(prm.Beta*impulse/m1, u))
		b.Vel[j] = r3.Sub(r3.Scale(prm.Alpha, v2), r3.Scale(prm.Beta*impulse/m2, u))
	} else {
		b.Vel[i] = r3.Scale(prm.Stick, v2)
		b.Vel[j] = r3.Scale(prm.Stick, v1)
	}

	push := r3.Scale((rsum-dist)/2, u)
	b.Pos[i] = r3.Add(b.Pos[i], push)
	if prm.Symmetric {
		b.Pos[j] = r3.Sub(b.Pos[j], push)
	}
	return true, false
}
