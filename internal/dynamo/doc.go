// Package dynamo provides the core simulation primitives shared by every
// particle scene.
//
// The package defines the fundamental buffers, interfaces and policies:
//
//   - [Bodies]: struct-of-slices particle/node buffers (position, velocity,
//     accumulated force, mass, radius, pin flags)
//   - [Integrator]: a pluggable per-step update rule
//   - [Scene]: what a frame driver needs from a simulation (step, read
//     accessors, divergence state)
//   - [Guard]: the Running/Halted divergence state machine
//
// # Example
//
//	scene, _ := physics.NewSpheres(physics.DefaultSpheresParams(), nil)
//	for frame := 0; frame < 500; frame++ {
//	    scene.Step(0.02)
//	}
//	positions := scene.Positions()
//
// # Thread Safety
//
// Scenes are NOT thread-safe. A scene is stepped synchronously by a single
// caller; independent scenes may run in parallel (see sim.Ensemble).
package dynamo
