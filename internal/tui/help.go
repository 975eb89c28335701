package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

// helpBindings defines all keyboard shortcuts shown in the help overlay.
var helpBindings = []HelpBinding{
	{Key: "q / Ctrl+C", Desc: "Quit (q goes back in submenus)"},
	{Key: "r", Desc: "Refresh VM list now"},
	{Key: "c", Desc: "Open configuration menu"},
	{Key: "up / k", Desc: "Move up"},
	{Key: "down / j", Desc: "Move down"},
	{Key: "Home / End", Desc: "First / last row"},
	{Key: "Enter", Desc: "Open VM menu / select"},
	{Key: "Esc", Desc: "Back / close"},
	{Key: "?", Desc: "Toggle this help"},
}

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
func (m Model) renderHelpOverlay() string {
	s := m.styles
	keyStyle := s.Text.Bold(true).Width(14)

	var lines []string
	lines = append(lines, s.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")
	for _, binding := range helpBindings {
		lines = append(lines, keyStyle.Render(binding.Key)+s.Text.Render(binding.Desc))
	}
	lines = append(lines, "")
	lines = append(lines, s.Muted.Render("Press ? to close"))

	box := s.Panel.Padding(1, 2).Render(strings.Join(lines, "\n"))

	return lipgloss.Place(
		m.renderWidth(),
		max(m.height, lipgloss.Height(box)),
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(s.App.GetBackground()),
	)
}
