package ui

import "github.com/charmbracelet/lipgloss"

// ThemePalette is the subset of a Catppuccin flavor the styles draw from.
type ThemePalette struct {
	Red, Green, Yellow, Blue, Pink, Teal, Peach, Mauve lipgloss.Color
	Text, Subtext, Overlay, Surface, Base             lipgloss.Color
}

// Catppuccin Mocha
var mochaPalette = ThemePalette{
	Red: "#f38ba8", Green: "#a6e3a1", Yellow: "#f9e2af", Blue: "#89b4fa",
	Pink: "#f5c2e7", Teal: "#94e2d5", Peach: "#fab387", Mauve: "#cba6f7",
	Text: "#cdd6f4", Subtext: "#bac2de", Overlay: "#7f849c", Surface: "#45475a", Base: "#1e1e2e",
}

// Catppuccin Latte
var lattePalette = ThemePalette{
	Red: "#d20f39", Green: "#40a02b", Yellow: "#df8e1d", Blue: "#1e66f5",
	Pink: "#ea76cb", Teal: "#179299", Peach: "#fe640b", Mauve: "#8839ef",
	Text: "#4c4f69", Subtext: "#5c5f77", Overlay: "#8c8fa1", Surface: "#bcc0cc", Base: "#eff1f5",
}

var currentTheme ThemePalette

func init() {
	SetTheme(DetectTheme())
}

// Semantic styles
var (
	TagStyle      lipgloss.Style // release tag
	PlatformStyle lipgloss.Style
	AssetStyle    lipgloss.Style // asset file names
	SizeStyle     lipgloss.Style
	DateStyle     lipgloss.Style
	MutedStyle    lipgloss.Style
	ErrorStyle    lipgloss.Style
	WarningStyle  lipgloss.Style
	SuccessStyle  lipgloss.Style
	CommandStyle  lipgloss.Style
	HeaderStyle   lipgloss.Style
	LinkStyle     lipgloss.Style
	LevelStyle    lipgloss.Style // dB readouts
)

func applyPalette(p ThemePalette) {
	currentTheme = p

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	TagStyle = fg(p.Mauve).Bold(true)
	PlatformStyle = fg(p.Blue).Bold(true)
	AssetStyle = fg(p.Text)
	SizeStyle = fg(p.Green)
	DateStyle = fg(p.Subtext)
	MutedStyle = fg(p.Overlay)
	ErrorStyle = fg(p.Red).Bold(true)
	WarningStyle = fg(p.Peach)
	SuccessStyle = fg(p.Green)
	CommandStyle = fg(p.Green).Bold(true)
	HeaderStyle = fg(p.Pink).Bold(true)
	LinkStyle = fg(p.Blue).Underline(true)
	LevelStyle = fg(p.Yellow)
}

// SetTheme switches the palette. ThemeAuto falls back to terminal detection.
func SetTheme(t Theme) {
	if t != ThemeDark && t != ThemeLight {
		t = DetectTheme()
	}
	if t == ThemeLight {
		applyPalette(lattePalette)
		return
	}
	applyPalette(mochaPalette)
}

// MeterColors returns the green, yellow and red zone colors of the meter bar.
func MeterColors() (lipgloss.Color, lipgloss.Color, lipgloss.Color) {
	return currentTheme.Green, currentTheme.Yellow, currentTheme.Red
}
