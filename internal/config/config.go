package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
)

const (
	DefaultScene       = "spheres"
	DefaultDt          = 0.02
	DefaultClothDt     = 0.005
	DefaultDuration    = 10.0
	DefaultSpeed       = 1.0
	DefaultSeed        = 1
	DefaultRecordEvery = 1
)

// Scenes lists the scene names a config may select.
var Scenes = []string{"cloth", "spheres"}

// Config is a complete run description: which scene, how to drive it and
// the parameters of every scene.
type Config struct {
	Scene    string  `yaml:"scene"`
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	// Speed multiplies Dt before every step.
	Speed       float64               `yaml:"speed"`
	Seed        int64                 `yaml:"seed"`
	RecordEvery int                   `yaml:"record_every"`
	Cloth       physics.ClothParams   `yaml:"cloth"`
	Spheres     physics.SpheresParams `yaml:"spheres"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:       DefaultScene,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Speed:       DefaultSpeed,
		Seed:        DefaultSeed,
		RecordEvery: DefaultRecordEvery,
		Cloth:       physics.DefaultClothParams(),
		Spheres:     physics.DefaultSpheresParams(),
	}
}

// Load reads a YAML file on top of DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the run settings and the parameters of the selected
// scene. Errors wrap dynamo.ErrInvalidConfig.
func (c *Config) Validate() error {
	if !slices.Contains(Scenes, c.Scene) {
		return fmt.Errorf("%w: unknown scene %q", dynamo.ErrInvalidConfig, c.Scene)
	}
	if err := dynamo.Positive("dt", c.Dt); err != nil {
		return err
	}
	if err := dynamo.Positive("duration", c.Duration); err != nil {
		return err
	}
	if err := dynamo.Positive("speed", c.Speed); err != nil {
		return err
	}
	if c.RecordEvery < 1 {
		return fmt.Errorf("%w: record_every must be at least 1, got %d", dynamo.ErrInvalidConfig, c.RecordEvery)
	}
	switch c.Scene {
	case "cloth":
		return c.Cloth.Validate()
	default:
		return c.Spheres.Validate()
	}
}

// Clone returns a copy that shares no slices or pin targets with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Cloth.Pins = slices.Clone(c.Cloth.Pins)
	for i, pin := range out.Cloth.Pins {
		if pin.Target != nil {
			t := *pin.Target
			out.Cloth.Pins[i].Target = &t
		}
	}
	return &out
}
