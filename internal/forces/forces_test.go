package forces

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-12

func near(a, b r3.Vec) bool { return r3.Norm(r3.Sub(a, b)) < tol }

func TestGravity(t *testing.T) {
	got := Gravity(2, StandardGravity)
	if !near(got, r3.Vec{Y: -19.62}) {
		t.Errorf("Gravity = %v", got)
	}
}

func TestSpring(t *testing.T) {
	tests := []struct {
		name   string
		pi, pj r3.Vec
		L0, K  float64
		want   r3.Vec
		ok     bool
	}{
		{"stretched pulls toward pj", r3.Vec{}, r3.Vec{X: 1.5}, 1, 2, r3.Vec{X: 1}, true},
		{"compressed pushes away", r3.Vec{}, r3.Vec{Y: 0.5}, 1, 2, r3.Vec{Y: -1}, true},
		{"at rest", r3.Vec{}, r3.Vec{Z: 1}, 1, 5, r3.Vec{}, true},
		{"coincident", r3.Vec{X: 1}, r3.Vec{X: 1}, 1, 5, r3.Vec{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Spring(tt.pi, tt.pj, tt.L0, tt.K, 1e-9)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !near(got, tt.want) {
				t.Errorf("Spring = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpring_ActionReaction(t *testing.T) {
	a, b := r3.Vec{X: 0.3, Y: -0.2}, r3.Vec{X: 1.1, Z: 0.4}
	fa, _ := Spring(a, b, 0.5, 7, 1e-9)
	fb, _ := Spring(b, a, 0.5, 7, 1e-9)
	if !near(r3.Add(fa, fb), r3.Vec{}) {
		t.Errorf("forces do not cancel: %v + %v", fa, fb)
	}
}

func TestSpringEnergy(t *testing.T) {
	if got := SpringEnergy(1.5, 1, 2); math.Abs(got-0.25) > tol {
		t.Errorf("SpringEnergy = %v, want 0.25", got)
	}
}

func TestDamping(t *testing.T) {
	if got := Damping(0.5, r3.Vec{X: 2, Y: -4}); !near(got, r3.Vec{X: -1, Y: 2}) {
		t.Errorf("Damping = %v", got)
	}
}

func TestWind(t *testing.T) {
	dir := r3.Vec{Z: 1}
	tests := []struct {
		name string
		n    r3.Vec
		want r3.Vec
	}{
		{"facing", r3.Vec{Z: 1}, r3.Vec{Z: 10}},
		{"oblique", r3.Vec{Y: math.Sqrt2 / 2, Z: math.Sqrt2 / 2}, r3.Vec{Y: 5, Z: 5}},
		{"backside", r3.Vec{Z: -1}, r3.Vec{}},
		{"edge on", r3.Vec{X: 1}, r3.Vec{}},
		{"no normal", r3.Vec{}, r3.Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wind(10, dir, tt.n)
			if r3.Norm(r3.Sub(got, tt.want)) > 1e-9 {
				t.Errorf("Wind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGridSprings(t *testing.T) {
	tests := []struct {
		rows, cols                 int
		structural, shear, bending int
	}{
		{1, 1, 0, 0, 0},
		{1, 2, 1, 0, 0},
		{1, 3, 2, 0, 1},
		{3, 3, 12, 8, 6},
		{4, 5, 31, 24, 22},
	}
	for _, tt := range tests {
		links := GridSprings(tt.rows, tt.cols, 0.1)
		counts := map[SpringKind]int{}
		seen := map[[2]int]bool{}
		for _, l := range links {
			counts[l.Kind]++
			if l.I >= l.J {
				t.Errorf("%dx%d: link %v not ordered", tt.rows, tt.cols, l)
			}
			key := [2]int{l.I, l.J}
			if seen[key] {
				t.Errorf("%dx%d: duplicate link %v", tt.rows, tt.cols, l)
			}
			seen[key] = true
		}
		if counts[Structural] != tt.structural || counts[Shear] != tt.shear || counts[Bending] != tt.bending {
			t.Errorf("%dx%d: got %v", tt.rows, tt.cols, counts)
		}
	}
}

func TestGridSprings_RestLengths(t *testing.T) {
	for _, l := range GridSprings(3, 3, 0.1) {
		var want float64
		switch l.Kind {
		case Structural:
			want = 0.1
		case Shear:
			want = 0.1 * math.Sqrt2
		case Bending:
			want = 0.2
		}
		if math.Abs(l.Rest-want) > tol {
			t.Errorf("%v spring %d-%d rest %v, want %v", l.Kind, l.I, l.J, l.Rest, want)
		}
	}
}

func TestGridNormals_Flat(t *testing.T) {
	rows, cols := 3, 4
	pos := make([]r3.Vec, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pos[r*cols+c] = r3.Vec{X: float64(c), Y: 1, Z: float64(r)}
		}
	}
	out := make([]r3.Vec, len(pos))
	GridNormals(pos, rows, cols, out)
	for i, n := range out {
		if !near(n, r3.Vec{Y: 1}) {
			t.Errorf("normal %d = %v, want +Y", i, n)
		}
	}
}

func TestGridNormals_Degenerate(t *testing.T) {
	pos := make([]r3.Vec, 4)
	out := []r3.Vec{{X: 1}, {X: 1}, {X: 1}, {X: 1}}
	GridNormals(pos, 2, 2, out)
	for i, n := range out {
		if n != (r3.Vec{}) {
			t.Errorf("normal %d = %v, want zero", i, n)
		}
	}
}
