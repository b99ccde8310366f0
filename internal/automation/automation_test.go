package automation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const scenarioYAML = `
name: smoke
description: short runs of both scenes
steps:
  - scene: spheres
    preset: fountain
    duration: 0.5
    save: true
  - scene: cloth
    duration: 0.05
    params:
      damping: 0.2
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "smoke" || len(sc.Steps) != 2 {
		t.Fatalf("loaded %+v", sc)
	}

	store := storage.New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Scene != "spheres" || results[1].Scene != "cloth" {
		t.Errorf("scenes = %s, %s", results[0].Scene, results[1].Scene)
	}
	if results[1].StepsTaken != 10 {
		t.Errorf("cloth steps = %d, want 10", results[1].StepsTaken)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Scene != "spheres" {
		t.Errorf("stored runs = %+v", runs)
	}
}

func TestScenarioErrors(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("empty scenario: %v", err)
	}
	if _, err := LoadScenario(writeScenario(t, "steps: [")); err == nil {
		t.Error("bad yaml accepted")
	}

	sc := &Scenario{Steps: []ScenarioStep{{Scene: "cloth", Preset: "missing"}}}
	if _, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, quiet); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("unknown preset: %v", err)
	}

	sc = &Scenario{Steps: []ScenarioStep{{Scene: "cloth", Duration: 0.01, Params: map[string]float64{"bogus": 1}}}}
	if _, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, quiet); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("unknown param: %v", err)
	}
}

func TestRunSweep(t *testing.T) {
	cfg := config.GetPreset("cloth", "spring_pair")
	cfg.Duration = 0.1
	sweep := &ParameterSweep{Config: cfg, ParamName: "stiffness", ParamMin: 5, ParamMax: 15, NumSteps: 3}

	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	want := []float64{5, 10, 15}
	for i, r := range results {
		if r.ParamValue != want[i] {
			t.Errorf("value[%d] = %g, want %g", i, r.ParamValue, want[i])
		}
		if r.MinEnergy > r.MaxEnergy {
			t.Errorf("energy range inverted: %+v", r)
		}
		if r.HaltedAt >= 0 {
			t.Errorf("run %d halted", i)
		}
		if r.Particles != 2 {
			t.Errorf("particles = %d", r.Particles)
		}
	}
	if cfg.Cloth.Stiffness != 10 {
		t.Error("sweep mutated the base config")
	}

	sweep.NumSteps = 0
	if _, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), quiet); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("zero steps: %v", err)
	}
}
