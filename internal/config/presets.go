package config

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/physics"
)

func preset(scene string, dt, duration float64, tweak func(c *Config)) *Config {
	c := DefaultConfig()
	c.Scene = scene
	c.Dt = dt
	c.Duration = duration
	tweak(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"cloth": {
		"drape": preset("cloth", DefaultClothDt, 5, func(c *Config) {}),
		"curtain": preset("cloth", DefaultClothDt, 10, func(c *Config) {
			c.Cloth.AxisV = r3.Vec{Y: -1}
			c.Cloth.Obstacle.Enabled = false
			c.Cloth.Wind = 20
		}),
		"spring_pair": preset("cloth", 0.002, 10, func(c *Config) {
			p := &c.Cloth
			p.Rows, p.Cols = 1, 2
			p.Spacing = 0.5
			p.RestLength = 0.4
			p.Origin = r3.Vec{}
			p.Mass = 0.02
			p.Stiffness = 10
			p.Damping = 0.05
			p.Wind = 0
			p.Obstacle.Enabled = false
			p.Ground.Enabled = false
			p.Pins = []physics.Pin{{Row: 0, Col: 0}}
		}),
	},
	"spheres": {
		"fountain": preset("spheres", DefaultDt, 20, func(c *Config) {}),
		"bowl": preset("spheres", DefaultDt, 20, func(c *Config) {
			c.Spheres.Shape = physics.ShapeSphere
		}),
		"dense": preset("spheres", DefaultDt, 30, func(c *Config) {
			c.Spheres.Emit.Interval = 0.05
			c.Spheres.BroadPhase = "grid"
			c.Spheres.Pairs.Symmetric = true
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names of a scene in sorted order.
func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
