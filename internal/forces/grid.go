package forces

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/vecmath"
)

// SpringKind classifies grid springs.
type SpringKind int

const (
	Structural SpringKind = iota
	Shear
	Bending
)

func (k SpringKind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Shear:
		return "shear"
	case Bending:
		return "bending"
	default:
		return "unknown"
	}
}

// Link is a spring between nodes I and J of a grid (I < J).
type Link struct {
	I, J int
	Rest float64
	Kind SpringKind
}

// GridSprings lists every spring of a rows x cols grid with node index
// r*cols+c. Structural springs join direct neighbours (rest L0), shear
// springs join diagonals (rest L0*sqrt2) and bending springs skip one node
// (rest 2*L0). Each spring appears once.
func GridSprings(rows, cols int, L0 float64) []Link {
	type offset struct {
		dr, dc int
		rest   float64
		kind   SpringKind
	}
	offsets := []offset{
		{0, 1, L0, Structural},
		{1, 0, L0, Structural},
		{1, 1, L0 * math.Sqrt2, Shear},
		{1, -1, L0 * math.Sqrt2, Shear},
		{0, 2, 2 * L0, Bending},
		{2, 0, 2 * L0, Bending},
	}

	var links []Link
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			for _, o := range offsets {
				rr, cc := r+o.dr, c+o.dc
				if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
					continue
				}
				a, b := i, rr*cols+cc
				if b < a {
					a, b = b, a
				}
				links = append(links, Link{I: a, J: b, Rest: o.rest, Kind: o.kind})
			}
		}
	}
	return links
}

// GridNormals writes per-node normals of a rows x cols grid into out. Each
// cell is split into two triangles; node normals average the normals of
// their incident triangles. Nodes whose triangles are all degenerate keep a
// zero normal.
func GridNormals(pos []r3.Vec, rows, cols int, out []r3.Vec) {
	for i := range out {
		out[i] = r3.Vec{}
	}
	add := func(a, b, c int) {
		n, ok := vecmath.Normalize(r3.Cross(r3.Sub(pos[b], pos[a]), r3.Sub(pos[c], pos[a])), vecmath.Eps)
		if !ok {
			return
		}
		out[a] = r3.Add(out[a], n)
		out[b] = r3.Add(out[b], n)
		out[c] = r3.Add(out[c], n)
	}
	for r := 0; r+1 < rows; r++ {
		for c := 0; c+1 < cols; c++ {
			k00 := r*cols + c
			k01 := k00 + 1
			k10 := k00 + cols
			k11 := k10 + 1
			add(k00, k10, k11)
			add(k00, k11, k01)
		}
	}
	for i := range out {
		out[i], _ = vecmath.Normalize(out[i], vecmath.Eps)
	}
}
