package analysis

import (
	"math"
	"testing"
)

func sine(n int, dt, freq float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		n    int
		dt   float64
		freq float64
	}{
		{"one hertz", 256, 1.0 / 32, 1},
		{"five hertz", 1000, 0.002, 5},
		{"odd length", 999, 0.01, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, p, err := DominantFrequency(sine(tt.n, tt.dt, tt.freq), tt.dt)
			if err != nil {
				t.Fatal(err)
			}
			resolution := 1 / (float64(tt.n) * tt.dt)
			if math.Abs(f-tt.freq) > resolution {
				t.Errorf("freq = %g, want %g +- %g", f, tt.freq, resolution)
			}
			if p <= 0 {
				t.Errorf("power = %g", p)
			}
		})
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	ps := PowerSpectrum([]float64{5, 5, 5, 5, 5, 5, 5, 5})
	for i, v := range ps {
		if v > 1e-20 {
			t.Errorf("bin %d = %g, want 0 for a constant series", i, v)
		}
	}
	if PowerSpectrum(nil) != nil {
		t.Error("empty series should give nil")
	}
}

func TestDominantFrequencyErrors(t *testing.T) {
	if _, _, err := DominantFrequency([]float64{1, 2}, 0.1); err == nil {
		t.Error("short series accepted")
	}
	if _, _, err := DominantFrequency(sine(16, 0.1, 1), 0); err == nil {
		t.Error("zero dt accepted")
	}
}
