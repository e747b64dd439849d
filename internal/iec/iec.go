// Package iec maps decibel levels onto the IEC 268-10 style meter scale
// used by Friture's level meters.
package iec

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLevel is returned by Checked for levels that are not a number.
var ErrInvalidLevel = errors.New("level is not a number")

// Floor is the lowest level shown on the meter. Anything below maps to 0.
const Floor = -70.0

// Segment is one affine piece of the scale, applied to levels in [Lower, next Lower).
type Segment struct {
	Lower     float64
	Slope     float64
	Intercept float64
}

// Segments lists the scale pieces in increasing order of Lower.
// The last segment has no upper bound.
var Segments = []Segment{
	{Lower: -70.0, Slope: 0.0025, Intercept: 0},
	{Lower: -60.0, Slope: 0.005, Intercept: 0.025},
	{Lower: -50.0, Slope: 0.0075, Intercept: 0.075},
	{Lower: -40.0, Slope: 0.015, Intercept: 0.15},
	{Lower: -30.0, Slope: 0.02, Intercept: 0.3},
	{Lower: -20.0, Slope: 0.025, Intercept: 0.5},
}

// FromDB returns the meter position for a level in dB.
//
// Levels below Floor map to 0. There is no upper clamp: levels above 0 dB
// continue along the last segment and exceed 1.0. NaN falls through to the
// last segment and yields NaN.
func FromDB(dB float64) float64 {
	if dB < Floor {
		return 0.0
	}
	for i := 0; i < len(Segments)-1; i++ {
		if dB < Segments[i+1].Lower {
			return Segments[i].apply(dB)
		}
	}
	return Segments[len(Segments)-1].apply(dB)
}

func (s Segment) apply(dB float64) float64 {
	return (dB-s.Lower)*s.Slope + s.Intercept
}

// Checked is FromDB with the input validated first.
func Checked(dB float64) (float64, error) {
	if math.IsNaN(dB) {
		return 0, ErrInvalidLevel
	}
	return FromDB(dB), nil
}

// FormatLevel renders a level the way the meter labels do: sign, one
// decimal, and "-Inf" once the level drops to -150 dB or below.
func FormatLevel(dB float64) string {
	if math.IsNaN(dB) || dB <= -150 {
		return "-Inf"
	}
	return fmt.Sprintf("%+05.1f", dB)
}
