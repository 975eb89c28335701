package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// spinnerColors cycle while a spinner runs.
var spinnerColors = []lipgloss.Color{ColorSecondary, ColorInfo, ColorSuccess, ColorInfo}

// PowerColor is the color used for a power state in CLI output.
func PowerColor(p vmrest.PowerState) lipgloss.Color {
	switch p {
	case vmrest.PowerOn:
		return ColorSuccess
	case vmrest.PowerSuspended:
		return ColorWarning
	case vmrest.PowerOff:
		return ColorError
	default:
		return ColorMuted
	}
}
