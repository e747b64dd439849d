package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/friture/friture-cli/internal/iec"
)

// MeterTicks are the dB marks drawn under meter bars.
var MeterTicks = []float64{-60, -50, -40, -30, -20, -10, -6, -3, 0}

// DefaultMeterWidth is the bar width used when the caller passes 0.
const DefaultMeterWidth = 40

// Meter draws horizontal level bars for IEC scale positions.
type Meter struct {
	bar   progress.Model
	width int
}

func NewMeter(width int) *Meter {
	if width <= 0 {
		width = DefaultMeterWidth
	}
	green, _, red := MeterColors()
	bar := progress.New(
		progress.WithGradient(string(green), string(red)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return &Meter{bar: bar, width: width}
}

// Bar renders the bar filled to fraction. Values above 1 fill the bar and get
// an overload marker; NaN renders empty.
func (m *Meter) Bar(fraction float64) string {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	s := m.bar.ViewAs(math.Min(math.Max(fraction, 0), 1))
	if fraction > 1 {
		s += ErrorStyle.Render("+")
	} else {
		s += " "
	}
	return s
}

// Line renders one labelled meter row for a level in dB.
func (m *Meter) Line(dB float64) string {
	frac := iec.FromDB(dB)
	return fmt.Sprintf("%s dB %s %s",
		LevelStyle.Render(fmt.Sprintf("%6s", iec.FormatLevel(dB))),
		m.Bar(frac),
		MutedStyle.Render(fmt.Sprintf("%.4f", frac)))
}

// Scale renders a ruler with MeterTicks placed where FromDB puts them,
// aligned with the bar drawn by Line.
func (m *Meter) Scale() string {
	ruler := []rune(strings.Repeat(" ", m.width+6))
	free := 0
	for _, tick := range MeterTicks {
		label := fmt.Sprintf("%.0f", tick)
		pos := int(math.Round(iec.FromDB(tick)*float64(m.width))) - len(label)/2
		if pos < free {
			// Crowded at the low end of the scale; skip rather than overlap
			continue
		}
		free = pos + len(label) + 1
		for i, r := range label {
			if pos+i < len(ruler) {
				ruler[pos+i] = r
			}
		}
	}
	// Offset matches the "%6s dB " readout in Line
	return strings.Repeat(" ", 10) + MutedStyle.Render(strings.TrimRight(string(ruler), " "))
}
