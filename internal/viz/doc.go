// Package viz provides terminal-based visualization for particle scenes.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [App]: scene and preset picker that launches a live view
//   - [Model]: real-time driver that steps a scene and draws it
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [Camera]: orthographic projection with rotation and zoom
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	F     - Force simulation past a divergence halt
//	E     - Toggle emission (spheres)
//	C     - Toggle cube/sphere container (spheres)
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
