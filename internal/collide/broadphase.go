package collide

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// BroadPhase enumerates candidate contact pairs.
type BroadPhase interface {
	Name() string
	// Pairs calls fn for candidate pairs with i < j, ordered by i then j.
	Pairs(pos []r3.Vec, radius []float64, fn func(i, j int))
}

// NewBroadPhase returns the broad phase registered under name.
func NewBroadPhase(name string) (BroadPhase, error) {
	switch name {
	case "", "all_pairs":
		return AllPairs{}, nil
	case "grid":
		return NewGrid(), nil
	default:
		return nil, fmt.Errorf("unknown broad phase: %s", name)
	}
}

// AllPairs tests every unordered pair. It is O(N^2) per pass.
type AllPairs struct{}

func (AllPairs) Name() string { return "all_pairs" }

func (AllPairs) Pairs(pos []r3.Vec, _ []float64, fn func(i, j int)) {
	n := len(pos)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			fn(i, j)
		}
	}
}

type cellKey struct{ x, y, z int }

// Grid hashes particles into cubic cells as wide as the largest contact
// distance and only proposes pairs from adjacent cells. Cells are built from
// the positions at the start of the pass, so a pair pushed into contact by an
// earlier correction in the same pass can be missed.
type Grid struct {
	cells   map[cellKey][]int
	scratch []int
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[cellKey][]int)}
}

func (g *Grid) Name() string { return "grid" }

func (g *Grid) Pairs(pos []r3.Vec, radius []float64, fn func(i, j int)) {
	if len(pos) < 2 {
		return
	}
	maxR := 0.0
	for _, r := range radius {
		maxR = math.Max(maxR, r)
	}
	size := 2 * maxR
	if size <= 0 {
		AllPairs{}.Pairs(pos, radius, fn)
		return
	}

	for k := range g.cells {
		delete(g.cells, k)
	}
	key := func(p r3.Vec) cellKey {
		return cellKey{
			int(math.Floor(p.X / size)),
			int(math.Floor(p.Y / size)),
			int(math.Floor(p.Z / size)),
		}
	}
	keys := make([]cellKey, len(pos))
	for i, p := range pos {
		keys[i] = key(p)
		g.cells[keys[i]] = append(g.cells[keys[i]], i)
	}

	for i := range pos {
		g.scratch = g.scratch[:0]
		k := keys[i]
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					for _, j := range g.cells[cellKey{k.x + dx, k.y + dy, k.z + dz}] {
						if j > i {
							g.scratch = append(g.scratch, j)
						}
					}
				}
			}
		}
		sort.Ints(g.scratch)
		for _, j := range g.scratch {
			fn(i, j)
		}
	}
}
