package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/vmm/internal/theme"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// Styles is the set of lipgloss styles for one theme. It is rebuilt whenever
// the active theme changes.
type Styles struct {
	Theme theme.Theme

	App       lipgloss.Style
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Title     lipgloss.Style
	Text      lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Panel     lipgloss.Style
	PanelHead lipgloss.Style
	Error     lipgloss.Style

	PoweredOn  lipgloss.Style
	PoweredOff lipgloss.Style
	Suspended  lipgloss.Style
	Unknown    lipgloss.Style
}

func color(c theme.Color) lipgloss.Color {
	return lipgloss.Color(c.ANSI())
}

// NewStyles derives styles from t.
func NewStyles(t theme.Theme) Styles {
	bg := color(t.Background)
	fg := color(t.Text)

	base := lipgloss.NewStyle().Foreground(fg).Background(bg)
	if t.Bold {
		base = base.Bold(true)
	}

	return Styles{
		Theme: t,
		App:   base,
		Header: base.
			Bold(true).
			Padding(0, 1),
		Footer: base.
			Faint(true).
			Padding(0, 1),
		Title: base.
			Bold(true).
			Underline(true),
		Text:  base,
		Muted: base.Faint(true),
		Selected: lipgloss.NewStyle().
			Foreground(color(t.Selected)).
			Background(color(t.SelectedBg)).
			Bold(true),
		Panel: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(fg).
			BorderBackground(bg).
			Padding(0, 1),
		PanelHead:  base.Bold(true),
		Error:      base.Foreground(color(t.PoweredOff)),
		PoweredOn:  base.Foreground(color(t.PoweredOn)),
		PoweredOff: base.Foreground(color(t.PoweredOff)),
		Suspended:  base.Foreground(color(t.Suspended)),
		Unknown:    base.Faint(true),
	}
}

// Power returns the badge style for a power state.
func (s Styles) Power(p vmrest.PowerState) lipgloss.Style {
	switch p {
	case vmrest.PowerOn:
		return s.PoweredOn
	case vmrest.PowerOff:
		return s.PoweredOff
	case vmrest.PowerSuspended:
		return s.Suspended
	default:
		return s.Unknown
	}
}
