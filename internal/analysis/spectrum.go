package analysis

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X_k|^2 for k = 0..n/2 of the mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	coeffs := fourier.NewFFT(len(centered)).Coefficients(nil, centered)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		a := cmplx.Abs(c)
		ps[i] = a * a
	}
	return ps
}

// DominantFrequency returns the frequency in Hz with the most power in a
// series sampled every dt, ignoring the DC bin.
func DominantFrequency(data []float64, dt float64) (freq, power float64, err error) {
	if len(data) < 4 {
		return 0, 0, fmt.Errorf("need at least 4 samples, have %d", len(data))
	}
	if dt <= 0 {
		return 0, 0, fmt.Errorf("sample interval must be positive, got %g", dt)
	}
	ps := PowerSpectrum(data)
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	fft := fourier.NewFFT(len(data))
	return fft.Freq(best) / dt, ps[best], nil
}
