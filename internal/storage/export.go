package storage

import (
	"encoding/json"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/sim"
)

type ExportFrame struct {
	Time      float64      `json:"time"`
	Positions [][3]float64 `json:"positions"`
	Radii     []float64    `json:"radii"`
	Energy    float64      `json:"energy"`
	Halted    bool         `json:"halted"`
}

type ExportData struct {
	Scene    string             `json:"scene"`
	Seed     int64              `json:"seed"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	HaltedAt float64            `json:"halted_at"`
	Frames   []ExportFrame      `json:"frames"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewExportData(dt, duration float64, result *sim.Result) ExportData {
	data := ExportData{
		Scene:    result.Scene,
		Seed:     result.Seed,
		Dt:       dt,
		Duration: duration,
		Steps:    result.StepsTaken,
		HaltedAt: result.HaltedAt,
		Frames:   make([]ExportFrame, len(result.Frames)),
		Metrics:  result.Metrics,
	}
	for i, f := range result.Frames {
		data.Frames[i] = ExportFrame{
			Time:      f.Time,
			Positions: triples(f.Positions),
			Radii:     f.Radii,
			Energy:    f.Energy,
			Halted:    f.Halted,
		}
	}
	return data
}

func triples(ps []r3.Vec) [][3]float64 {
	out := make([][3]float64, len(ps))
	for i, p := range ps {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

// ExportJSON writes a result as indented JSON.
func ExportJSON(w io.Writer, dt, duration float64, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(dt, duration, result))
}
