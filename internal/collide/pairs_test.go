package collide_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/collide"
	"github.com/san-kum/partsim/internal/dynamo"
)

func twoBodies(p1, p2, v1, v2 r3.Vec, r float64) *dynamo.Bodies {
	b := dynamo.NewBodies(0, 1, r)
	b.Append(p1, v1, 1, r)
	b.Append(p2, v2, 1, r)
	return b
}

var _ = Describe("ResolvePairs", func() {
	var prm collide.PairParams

	BeforeEach(func() {
		prm = collide.DefaultPairParams()
	})

	It("reports no error without coincident pairs", func() {
		b := twoBodies(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{}, r3.Vec{}, 0.08)
		Expect(collide.ResolvePairs(b, collide.AllPairs{}, prm).Err()).To(Succeed())
	})

	It("ignores separated particles", func() {
		b := twoBodies(r3.Vec{}, r3.Vec{X: 0.2}, r3.Vec{X: 1}, r3.Vec{}, 0.08)
		st := collide.ResolvePairs(b, collide.AllPairs{}, prm)
		Expect(st.Contacts).To(BeZero())
		Expect(b.Vel[0]).To(Equal(r3.Vec{X: 1}))
	})

	It("exchanges momentum along the contact normal", func() {
		b := twoBodies(r3.Vec{}, r3.Vec{X: 0.15}, r3.Vec{X: 1}, r3.Vec{X: -1}, 0.08)
		st := collide.ResolvePairs(b, collide.AllPairs{}, prm)
		Expect(st.Contacts).To(Equal(1))
		// u = (-1,0,0); impulse = dot(v2-v1,u) = 2
		Expect(b.Vel[0].X).To(BeNumerically("~", 0.5*1-0.5*2, 1e-12))
		Expect(b.Vel[1].X).To(BeNumerically("~", 0.5*-1+0.5*2, 1e-12))
	})

	It("cross-assigns damped velocities when at rest relative to each other", func() {
		b := twoBodies(r3.Vec{}, r3.Vec{Y: 0.1}, r3.Vec{Y: -2}, r3.Vec{Y: -2}, 0.08)
		collide.ResolvePairs(b, collide.AllPairs{}, prm)
		Expect(b.Vel[0]).To(Equal(r3.Vec{Y: -1}))
		Expect(b.Vel[1]).To(Equal(r3.Vec{Y: -1}))
	})

	It("uses the pre-contact velocities for both sides of the swap", func() {
		b := twoBodies(r3.Vec{}, r3.Vec{Y: 0.1}, r3.Vec{X: 2e-5}, r3.Vec{}, 0.08)
		collide.ResolvePairs(b, collide.AllPairs{}, prm)
		Expect(b.Vel[0]).To(Equal(r3.Vec{}))
		Expect(b.Vel[1]).To(Equal(r3.Vec{X: 1e-5}))
	})

	It("moves only the first particle in reference mode", func() {
		b := twoBodies(r3.Vec{}, r3.Vec{X: 0.1}, r3.Vec{}, r3.Vec{}, 0.08)
		collide.ResolvePairs(b, collide.AllPairs{}, prm)
		// penetration 0.06, first particle pushed by half along -x
		Expect(b.Pos[0].X).To(BeNumerically("~", -0.03, 1e-12))
		Expect(b.Pos[1]).To(Equal(r3.Vec{X: 0.1}))
	})

	It("separates both particles in symmetric mode", func() {
		prm.Symmetric = true
		b := twoBodies(r3.Vec{}, r3.Vec{X: 0.1}, r3.Vec{}, r3.Vec{}, 0.08)
		collide.ResolvePairs(b, collide.AllPairs{}, prm)
		Expect(r3.Norm(r3.Sub(b.Pos[0], b.Pos[1]))).To(BeNumerically("~", 0.16, 1e-12))
	})

	It("skips coincident centres", func() {
		b := twoBodies(r3.Vec{X: 0.3}, r3.Vec{X: 0.3}, r3.Vec{X: 1}, r3.Vec{}, 0.08)
		st := collide.ResolvePairs(b, collide.AllPairs{}, prm)
		Expect(st.Degenerate).To(Equal(1))
		Expect(st.Err()).To(MatchError(dynamo.ErrDegenerate))
		Expect(b.Vel[0]).To(Equal(r3.Vec{X: 1}))
		Expect(b.Pos[0]).To(Equal(r3.Vec{X: 0.3}))
	})
})

var _ = Describe("BroadPhase", func() {
	collect := func(bp collide.BroadPhase, b *dynamo.Bodies) [][2]int {
		var pairs [][2]int
		bp.Pairs(b.Pos, b.Radius, func(i, j int) {
			pairs = append(pairs, [2]int{i, j})
		})
		return pairs
	}

	It("enumerates every unordered pair once", func() {
		b := dynamo.NewBodies(4, 1, 0.1)
		Expect(collect(collide.AllPairs{}, b)).To(Equal([][2]int{
			{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3},
		}))
	})

	It("grid proposes every touching pair in baseline order", func() {
		rng := rand.New(rand.NewSource(7))
		b := dynamo.NewBodies(0, 1, 0.05)
		for i := 0; i < 200; i++ {
			p := r3.Vec{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1, Z: rng.Float64()*2 - 1}
			b.Append(p, r3.Vec{}, 1, 0.05)
		}

		touching := func(pairs [][2]int) [][2]int {
			var out [][2]int
			for _, pr := range pairs {
				if r3.Norm(r3.Sub(b.Pos[pr[0]], b.Pos[pr[1]])) <= 0.1 {
					out = append(out, pr)
				}
			}
			return out
		}

		want := touching(collect(collide.AllPairs{}, b))
		got := touching(collect(collide.NewGrid(), b))
		Expect(want).NotTo(BeEmpty())
		Expect(got).To(Equal(want))
	})

	It("resolves by name", func() {
		bp, err := collide.NewBroadPhase("grid")
		Expect(err).NotTo(HaveOccurred())
		Expect(bp.Name()).To(Equal("grid"))

		_, err = collide.NewBroadPhase("octree")
		Expect(err).To(HaveOccurred())
	})
})
