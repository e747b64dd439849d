package iec

import "math"

// Levels returns the RMS and peak levels of samples in dBFS.
// Empty or silent input yields -Inf for both.
func Levels(samples []float64) (rmsDB, peakDB float64) {
	if len(samples) == 0 {
		return math.Inf(-1), math.Inf(-1)
	}

	var sumSquares, maxAbs float64
	for _, x := range samples {
		sumSquares += x * x
		if a := math.Abs(x); a > maxAbs {
			maxAbs = a
		}
	}

	meanSquare := sumSquares / float64(len(samples))
	return 10 * math.Log10(meanSquare), 20 * math.Log10(maxAbs)
}
