package experiment

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/physics"
)

// Builder constructs a scene from a validated config.
type Builder func(cfg *config.Config, logger *slog.Logger) (dynamo.Scene, error)

type Registry struct {
	scenes map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{scenes: make(map[string]Builder)}

	r.scenes["cloth"] = func(cfg *config.Config, logger *slog.Logger) (dynamo.Scene, error) {
		return physics.NewCloth(cfg.Cloth, logger)
	}
	r.scenes["spheres"] = func(cfg *config.Config, logger *slog.Logger) (dynamo.Scene, error) {
		return physics.NewSpheres(cfg.Spheres, cfg.Seed, logger)
	}

	return r
}

// Register adds or replaces a scene builder.
func (r *Registry) Register(name string, b Builder) {
	r.scenes[name] = b
}

// Build validates cfg and constructs the scene it selects.
func (r *Registry) Build(cfg *config.Config, logger *slog.Logger) (dynamo.Scene, error) {
	fn, ok := r.scenes[cfg.Scene]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %s", cfg.Scene)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return fn(cfg, logger)
}

// ListScenes returns the registered scene names in sorted order.
func (r *Registry) ListScenes() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) DefaultMetrics(scene string) []dynamo.Metric {
	return metrics.Default()
}
