package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	framesFile   = "frames.csv"
	seriesFile   = "series.csv"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Speed     float64            `json:"speed"`
	Steps     int                `json:"steps"`
	Frames    int                `json:"frames"`
	Halted    bool               `json:"halted"`
	HaltedAt  float64            `json:"halted_at"`
	Metrics   map[string]float64 `json:"metrics"`
}

// FrameRecord is one entity at one recorded frame.
type FrameRecord struct {
	Time   float64 `csv:"time"`
	Index  int     `csv:"index"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	Z      float64 `csv:"z"`
	Radius float64 `csv:"radius"`
}

// SeriesRecord summarises one recorded frame.
type SeriesRecord struct {
	Time   float64 `csv:"time"`
	Energy float64 `csv:"energy"`
	Count  int     `csv:"count"`
	Halted bool    `csv:"halted"`
}

// Save writes the metadata, the config and the recorded frames of a run
// and returns its ID.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Scene, now.UnixNano())
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	meta := RunMetadata{
		ID:        runID,
		Scene:     cfg.Scene,
		Timestamp: now,
		Seed:      cfg.Seed,
		Dt:        cfg.Dt,
		Duration:  cfg.Duration,
		Speed:     cfg.Speed,
		Steps:     result.StepsTaken,
		Frames:    len(result.Frames),
		Halted:    result.Halted(),
		HaltedAt:  result.HaltedAt,
		Metrics:   result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	frames, series := Records(result)
	if err := writeCSV(filepath.Join(runDir, framesFile), frames); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, seriesFile), series); err != nil {
		return "", err
	}
	return runID, nil
}

// Records flattens the frames of a result into CSV rows.
func Records(result *sim.Result) ([]FrameRecord, []SeriesRecord) {
	var frames []FrameRecord
	series := make([]SeriesRecord, 0, len(result.Frames))
	for _, f := range result.Frames {
		for i, p := range f.Positions {
			frames = append(frames, FrameRecord{Time: f.Time, Index: i, X: p.X, Y: p.Y, Z: p.Z, Radius: f.Radii[i]})
		}
		series = append(series, SeriesRecord{Time: f.Time, Energy: f.Energy, Count: len(f.Positions), Halted: f.Halted})
	}
	return frames, series
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig reads the config a run was started with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.Dir(runID), configFile))
}

func (s *Store) LoadFrames(runID string) ([]FrameRecord, error) {
	var records []FrameRecord
	if err := loadCSV(filepath.Join(s.Dir(runID), framesFile), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) LoadSeries(runID string) ([]SeriesRecord, error) {
	var records []SeriesRecord
	if err := loadCSV(filepath.Join(s.Dir(runID), seriesFile), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func loadCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}
