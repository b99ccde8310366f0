// Package analysis provides spectral tools for recorded simulation series.
//
// Energy and position series of oscillating scenes, such as a pinned spring
// pair, carry the oscillation frequency:
//
//	f, _ := analysis.DominantFrequency(energy, sampleDt)
//
// Energy oscillates at twice the mechanical frequency.
package analysis
