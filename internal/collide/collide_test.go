package collide_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/collide"
)

var _ = Describe("Respond", func() {
	It("reflects the normal component and scales the tangential one", func() {
		v := collide.Respond(r3.Vec{X: 2, Y: -4}, r3.Vec{Y: 1}, collide.Restitution{Tangential: 0.5, Normal: 0.25})
		Expect(v.X).To(BeNumerically("~", 1, 1e-12))
		Expect(v.Y).To(BeNumerically("~", 1, 1e-12))
		Expect(v.Z).To(BeZero())
	})
})

var _ = Describe("ResolvePlane", func() {
	floor := collide.Plane{Point: r3.Vec{Y: -1}, Normal: r3.Vec{Y: 1}}
	rest := collide.Restitution{Tangential: 0.7, Normal: 0.7}

	It("ignores particles farther than their radius", func() {
		p, v := r3.Vec{Y: -0.5}, r3.Vec{Y: -5}
		Expect(collide.ResolvePlane(&p, &v, 0.08, floor, rest)).To(BeFalse())
		Expect(p).To(Equal(r3.Vec{Y: -0.5}))
		Expect(v).To(Equal(r3.Vec{Y: -5}))
	})

	It("bounces and pushes a penetrating particle out", func() {
		p, v := r3.Vec{X: 0.2, Y: -0.97}, r3.Vec{X: 1, Y: -5}
		Expect(collide.ResolvePlane(&p, &v, 0.08, floor, rest)).To(BeTrue())
		Expect(p.Y).To(BeNumerically("~", -0.92, 1e-12))
		Expect(p.X).To(Equal(0.2))
		Expect(v.Y).To(BeNumerically("~", 3.5, 1e-12))
		Expect(v.X).To(BeNumerically("~", 0.7, 1e-12))
	})

	It("treats touching as contact", func() {
		p, v := r3.Vec{Y: -0.92}, r3.Vec{Y: -1}
		Expect(collide.ResolvePlane(&p, &v, 0.08, floor, rest)).To(BeTrue())
		Expect(v.Y).To(BeNumerically(">", 0))
	})
})

var _ = Describe("Cube", func() {
	It("builds six inward walls", func() {
		planes := collide.Cube{HalfSize: 1}.Planes()
		Expect(planes).To(HaveLen(6))
		for _, pl := range planes {
			// the centre is on the legal side of every wall
			Expect(r3.Dot(r3.Sub(r3.Vec{}, pl.Point), pl.Normal)).To(BeNumerically("~", 1, 1e-12))
			Expect(r3.Norm(pl.Normal)).To(BeNumerically("~", 1, 1e-12))
		}
		Expect(planes[0]).To(Equal(collide.Plane{Point: r3.Vec{Y: -1}, Normal: r3.Vec{Y: 1}}))
	})

	It("follows its centre and size", func() {
		planes := collide.Cube{Center: r3.Vec{X: 2}, HalfSize: 0.5}.Planes()
		Expect(planes[1].Point).To(Equal(r3.Vec{X: 2.5}))
	})

	It("rejects a non-positive size", func() {
		Expect(collide.Cube{}.Validate()).To(HaveOccurred())
	})
})

var _ = Describe("ResolveInsideSphere", func() {
	bowl := collide.Sphere{Radius: 1}
	rest := collide.Restitution{Tangential: 0.7, Normal: 0.7}

	It("leaves interior particles alone", func() {
		p, v := r3.Vec{Y: -0.5}, r3.Vec{Y: -1}
		Expect(collide.ResolveInsideSphere(&p, &v, 0.08, bowl, rest)).To(BeFalse())
	})

	It("projects escaping particles back onto the inner shell", func() {
		p, v := r3.Vec{Y: -0.98}, r3.Vec{X: 1, Y: -2}
		Expect(collide.ResolveInsideSphere(&p, &v, 0.08, bowl, rest)).To(BeTrue())
		Expect(p.Y).To(BeNumerically("~", -0.92, 1e-12))
		Expect(v.Y).To(BeNumerically("~", 1.4, 1e-12))
		Expect(v.X).To(BeNumerically("~", 0.7, 1e-12))
	})

	It("skips a particle at the exact centre of a tiny container", func() {
		p, v := r3.Vec{}, r3.Vec{X: 1}
		Expect(collide.ResolveInsideSphere(&p, &v, 0.2, collide.Sphere{Radius: 0.1}, rest)).To(BeFalse())
		Expect(v).To(Equal(r3.Vec{X: 1}))
	})
})

var _ = Describe("cloth obstacles", func() {
	rest := collide.Restitution{Tangential: 1, Normal: 0}

	It("pushes a node out of the sphere and kills the inward velocity", func() {
		ball := collide.Sphere{Center: r3.Vec{Y: 0.1}, Radius: 0.2}
		p, v := r3.Vec{Y: 0.25}, r3.Vec{X: 0.3, Y: -1}
		Expect(collide.ResolveOutsideSphere(&p, &v, 0.01, ball, rest)).To(BeTrue())
		Expect(p.Y).To(BeNumerically("~", 0.31, 1e-12))
		Expect(v.Y).To(BeNumerically("~", 0, 1e-12))
		Expect(v.X).To(BeNumerically("~", 0.3, 1e-12))
	})

	It("keeps outward velocity unchanged", func() {
		ball := collide.Sphere{Radius: 0.2}
		p, v := r3.Vec{X: 0.15}, r3.Vec{X: 2}
		Expect(collide.ResolveOutsideSphere(&p, &v, 0, ball, rest)).To(BeTrue())
		Expect(v).To(Equal(r3.Vec{X: 2}))
	})

	It("skips a node at the sphere centre", func() {
		p, v := r3.Vec{}, r3.Vec{}
		Expect(collide.ResolveOutsideSphere(&p, &v, 0, collide.Sphere{Radius: 1}, rest)).To(BeFalse())
	})

	It("clamps nodes to the ground", func() {
		p, v := r3.Vec{Y: -0.3}, r3.Vec{Z: 1, Y: -2}
		Expect(collide.ResolveGround(&p, &v, -0.2, 0.005, rest)).To(BeTrue())
		Expect(p.Y).To(BeNumerically("~", -0.195, 1e-12))
		Expect(v.Y).To(BeNumerically("~", 0, 1e-12))
		Expect(v.Z).To(Equal(1.0))
	})
})
