// Package physics provides the two particle scenes of the engine.
//
// Each scene implements [dynamo.Scene] and owns its entity buffers:
//
//   - [Spheres]: free particles emitted from a fountain, colliding with each
//     other and with a cube or sphere container
//   - [Cloth]: a mass-spring grid with pinned nodes, wind, and an obstacle
//     sphere above a ground plane
//
// A step runs to completion before returning. Numerical blow-up is never
// returned as an error: the scene's [dynamo.Guard] halts it and later steps
// are no-ops until the operator forces the simulation or resets the scene.
//
//	s, _ := physics.NewSpheres(physics.DefaultSpheresParams(), 1, nil)
//	for i := 0; i < 100; i++ {
//	    s.Step(0.02)
//	}
//	if s.Halted() {
//	    fmt.Println(s.Guard().Reason())
//	}
package physics
