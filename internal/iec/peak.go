package iec

const (
	// PeakDecayRate is the initial per-update decay factor once the hold expires.
	PeakDecayRate = 1.0 - 3e-6/500.0
	// PeakFalloff is the number of updates a peak is held before it decays.
	PeakFalloff = 32
)

// BallisticPeak follows the maximum of a stream of meter positions, holds it
// for PeakFalloff updates and then lets it decay with an accelerating factor.
// The zero value is not ready for use; call NewBallisticPeak.
type BallisticPeak struct {
	peak        float64
	holdCounter int
	decayFactor float64
}

func NewBallisticPeak() *BallisticPeak {
	return &BallisticPeak{decayFactor: PeakDecayRate}
}

// Peak returns the current held or decaying peak.
func (b *BallisticPeak) Peak() float64 {
	return b.peak
}

// Update feeds a new meter position and returns the resulting peak and
// whether it changed.
func (b *BallisticPeak) Update(v float64) (float64, bool) {
	var next float64

	switch {
	case v > b.peak:
		next = v
		b.reset()
	case b.holdCounter+1 <= PeakFalloff:
		next = b.peak
		b.holdCounter++
	default:
		next = b.decayFactor * b.peak
		if next < v {
			next = v
			b.reset()
		} else {
			b.decayFactor *= b.decayFactor
		}
	}

	if next == b.peak {
		return b.peak, false
	}
	b.peak = next
	return next, true
}

func (b *BallisticPeak) reset() {
	b.holdCounter = 0
	b.decayFactor = PeakDecayRate
}
