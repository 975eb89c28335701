package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// VMRow is one line of the VM table printed by `vmm list`.
type VMRow struct {
	Name   string
	ID     string
	Power  vmrest.PowerState
	Hidden bool
}

const (
	powerColumnWidth = 12
	minNameWidth     = 8
	minIDWidth       = 8
)

// RenderVMTable renders rows as a table no wider than width. Names and IDs
// are truncated to fit; a width of zero means unlimited.
func RenderVMTable(rows []VMRow, width int) string {
	if len(rows) == 0 {
		return lipgloss.NewStyle().Foreground(ColorMuted).Render("No VMs found") + "\n"
	}

	nameWidth, idWidth := len("NAME"), len("ID")
	for _, r := range rows {
		nameWidth = max(nameWidth, runewidth.StringWidth(r.Name))
		idWidth = max(idWidth, runewidth.StringWidth(r.ID))
	}
	if width > 0 {
		// 2 leading spaces and 2 column gaps of 2.
		avail := width - 2 - powerColumnWidth - 4
		if nameWidth+idWidth > avail {
			idWidth = max(min(idWidth, avail/3), minIDWidth)
			nameWidth = max(avail-idWidth, minNameWidth)
		}
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var b strings.Builder
	b.WriteString(headerStyle.Render("  " +
		runewidth.FillRight("NAME", nameWidth) + "  " +
		runewidth.FillRight("POWER", powerColumnWidth) + "  ID"))
	b.WriteString("\n")

	for _, r := range rows {
		symbol := SymbolComplete
		if r.Hidden {
			symbol = SymbolHidden
		}
		power := lipgloss.NewStyle().Foreground(PowerColor(r.Power)).
			Render(runewidth.FillRight(symbol+" "+r.Power.String(), powerColumnWidth))

		name := runewidth.FillRight(runewidth.Truncate(r.Name, nameWidth, "…"), nameWidth)
		if r.Hidden {
			name = mutedStyle.Render(name)
		}
		id := mutedStyle.Render(runewidth.Truncate(r.ID, idWidth, "…"))

		b.WriteString("  " + name + "  " + power + "  " + id + "\n")
	}
	return b.String()
}
