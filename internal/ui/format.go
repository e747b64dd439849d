package ui

import (
	"errors"
	"math"
	"math/big"
	"strings"
)

// ErrInvalidByteCount is returned by ScaleBytes for NaN, infinite or negative input.
var ErrInvalidByteCount = errors.New("invalid byte count")

// ByteUnits are the labels used by FormatBytes, one per power of 1024.
var ByteUnits = []string{"bytes", "kB", "MB", "GB", "TB", "PB"}

// DefaultPrecision is the number of decimals FormatSize uses.
const DefaultPrecision = 1

// ScaleBytes expresses bytes in the largest unit of ByteUnits that keeps the
// value at or above 1. Zero and fractional counts stay in bytes; counts past
// the last unit are expressed in PB.
func ScaleBytes(bytes float64) (float64, string, error) {
	if math.IsNaN(bytes) || math.IsInf(bytes, 0) || bytes < 0 {
		return 0, "", ErrInvalidByteCount
	}
	// floor(log1024(bytes)) by repeated division; dividing by 1024 is exact,
	// so powers of 1024 land on the right unit.
	v, idx := bytes, 0
	for v >= 1024 && idx < len(ByteUnits)-1 {
		v /= 1024
		idx++
	}
	return v, ByteUnits[idx], nil
}

// FormatBytes renders a byte count such as "1.0 kB" with the given number of
// decimals. Invalid counts render as "-".
func FormatBytes(bytes float64, precision int) string {
	v, unit, err := ScaleBytes(bytes)
	if err != nil {
		return "-"
	}
	if precision < 0 {
		precision = 0
	}
	return toFixed(v, precision) + " " + unit
}

// toFixed renders a non-negative v with precision decimals. The exact binary
// value is rounded, and exact ties round up: 1.25 gives "1.3", while 1.005
// (stored as 1.00499...) gives "1.00".
func toFixed(v float64, precision int) string {
	// Wide enough to hold v*10^precision + 0.5 exactly
	prec := uint(64 + 4*precision)
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil)

	x := new(big.Float).SetPrec(prec).SetFloat64(v)
	x.Mul(x, new(big.Float).SetPrec(prec).SetInt(pow))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	digits := n.String()
	if precision == 0 {
		return digits
	}
	if len(digits) <= precision {
		digits = strings.Repeat("0", precision-len(digits)+1) + digits
	}
	cut := len(digits) - precision
	return digits[:cut] + "." + digits[cut:]
}

// FormatSize returns a human-readable size string
func FormatSize(bytes int64) string {
	return FormatBytes(float64(bytes), DefaultPrecision)
}

// RenderLink formats a URL with the link style
func RenderLink(url string) string {
	return LinkStyle.Render(url)
}
