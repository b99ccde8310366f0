package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Recorder streams a series.csv row per observed frame. It is used by the
// live driver, where no Result is collected.
type Recorder struct {
	dir           string
	file          *os.File
	every         int
	frames        int
	headerWritten bool
	err           error
}

// NewRecorder creates dir and opens its series.csv. A row is written every
// `every` frames.
func NewRecorder(dir string, every int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, seriesFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", seriesFile, err)
	}
	return &Recorder{dir: dir, file: f, every: max(every, 1)}, nil
}

// OnFrame implements dynamo.Observer. The first write error is kept and
// later frames are dropped.
func (r *Recorder) OnFrame(s dynamo.Scene, t float64) {
	r.frames++
	if r.err != nil || r.frames%r.every != 0 {
		return
	}
	r.err = r.Write(SeriesRecord{Time: t, Energy: s.Energy(), Count: s.Len(), Halted: s.Halted()})
}

func (r *Recorder) Write(rec SeriesRecord) error {
	records := []SeriesRecord{rec}

	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing series: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
		return fmt.Errorf("writing series: %w", err)
	}
	return nil
}

// Err returns the first error met by OnFrame.
func (r *Recorder) Err() error { return r.err }

func (r *Recorder) Close() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	return r.err
}
