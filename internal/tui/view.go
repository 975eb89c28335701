package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"
	"github.com/mattn/go-runewidth"
	"github.com/rileyhilliard/vmm/internal/logger"
)

const appTitle = "VMware Manager"

// renderMain renders the VM list with its log panels.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderVMTable())
	b.WriteString("\n\n")
	b.WriteString(m.renderFeedPanel(" API Calls ", logger.SourceAPI))
	b.WriteString("\n")
	b.WriteString(m.renderFeedPanel(" Log Messages ", logger.SourceLog))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader shows the VM count and the age of the cached inventory.
func (m Model) renderHeader() string {
	age := m.SecondsSinceRefresh()

	var updateText string
	switch {
	case age < 0:
		updateText = "never"
	case age == 0:
		updateText = "just now"
	default:
		updateText = fmt.Sprintf("%ds ago", age)
	}

	stats := fmt.Sprintf(" | %d VMs | last refresh %s", len(m.vms), updateText)
	if m.refreshing {
		stats += " " + m.spinner.View()
	}

	return m.styles.Header.Render(m.styles.Title.Render(appTitle) + m.styles.Text.Render(stats))
}

// SecondsSinceRefresh returns the inventory age in whole seconds, or -1 if
// nothing has been fetched yet.
func (m Model) SecondsSinceRefresh() int {
	at := m.cache.Captured()
	if at.IsZero() {
		return -1
	}
	age := m.clock.Now().Sub(at)
	if age < 0 {
		return 0
	}
	return int(age.Seconds())
}

func (m Model) renderVMTable() string {
	if len(m.vms) == 0 {
		msg := "No VMs found"
		if m.lastError != "" {
			msg = m.lastError
		}
		return m.styles.Muted.Render("  " + msg)
	}

	nameWidth := len("NAME")
	for _, vm := range m.vms {
		nameWidth = max(nameWidth, runewidth.StringWidth(vm.Name))
	}
	nameWidth = min(nameWidth, max(m.renderWidth()-16, 10))

	lines := []string{
		m.styles.PanelHead.Render("  " + runewidth.FillRight("NAME", nameWidth) + "  POWER"),
	}
	for i, vm := range m.vms {
		name := runewidth.FillRight(runewidth.Truncate(vm.Name, nameWidth, "…"), nameWidth)
		badge := m.styles.Power(vm.Power).Render(vm.Power.Label())
		if i == m.selected {
			lines = append(lines, m.styles.Selected.Render("▶ "+name)+m.styles.Text.Render("  ")+badge)
			continue
		}
		lines = append(lines, m.styles.Text.Render("  "+name+"  ")+badge)
	}
	if m.lastError != "" {
		lines = append(lines, "", m.styles.Error.Render("  "+m.lastError))
	}
	return strings.Join(lines, "\n")
}

// renderFeedPanel renders the newest entries of one feed source in a box.
func (m Model) renderFeedPanel(title string, src logger.Source) string {
	inner := m.panelWidth()
	entries := m.feed.Recent(src, panelLines)

	lines := make([]string, 0, panelLines)
	for _, e := range entries {
		line := e.Time.Format("15:04:05") + " " + e.Message
		style := m.styles.Text
		if e.Level == "ERROR" || e.Level == "WARN" {
			style = m.styles.Error
		}
		lines = append(lines, style.Render(runewidth.Truncate(line, inner, "…")))
	}
	return m.renderPanel(title, lines)
}

// renderPanel draws a bordered box of fixed height with title as its first
// line.
func (m Model) renderPanel(title string, lines []string) string {
	for len(lines) < panelLines {
		lines = append(lines, "")
	}
	content := m.styles.PanelHead.Render(title) + "\n" + strings.Join(lines, "\n")
	return m.styles.Panel.Width(m.panelWidth()).Render(content)
}

func (m Model) panelWidth() int {
	return max(m.renderWidth()-4, 20)
}

func (m Model) renderFooter() string {
	m.keys.screen = m.screen()
	return m.styles.Footer.Render(m.help.View(m.keys))
}

// renderMenu renders a vertical list of options with the cursor row
// highlighted.
func (m Model) renderMenu(items []string, cursor int) string {
	lines := make([]string, len(items))
	for i, item := range items {
		if item == "" {
			continue
		}
		if i == cursor {
			lines[i] = m.styles.Selected.Render(" " + item + " ")
		} else {
			lines[i] = m.styles.Text.Render(" " + item + " ")
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderSubmenu lays out a submenu screen: title, navigation hint, body,
// message pane and log panel.
func (m Model) renderSubmenu(title, hint, body, msgTitle string, messages []string) string {
	var b strings.Builder

	b.WriteString(m.place(m.styles.Title.Render(title)))
	b.WriteString("\n")
	b.WriteString(m.place(m.styles.Muted.Render(hint)))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(strings.Repeat("─", m.renderWidth())))
	b.WriteString("\n\n")
	b.WriteString(m.place(body))
	b.WriteString("\n\n")

	inner := m.panelWidth()
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, m.styles.Text.Render(runewidth.Truncate(msg, inner, "…")))
	}
	b.WriteString(m.renderPanel(msgTitle, lines))
	b.WriteString("\n")
	b.WriteString(m.renderFeedPanel(" Log Messages ", logger.SourceLog))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderVMMenu renders the per-VM submenu.
func (m Model) renderVMMenu() string {
	items := make([]string, len(vmMenuItems))
	for i, item := range vmMenuItems {
		items[i] = item.Label
	}
	body := m.renderMenu(items, m.vm.cursor)
	if m.vm.pending {
		body += "\n\n" + m.styles.Text.Render(m.spinner.View()+" working...")
	}

	messages := append([]string{m.vmSummary()}, m.vm.messages...)
	return m.renderSubmenu(
		"VM: "+m.vm.vm.Name,
		"↑/↓: Navigate | Enter: Select | q: Back",
		body,
		" VM Messages ",
		messages,
	)
}

// vmSummary is the power, CPU and memory line of the VM message pane.
func (m Model) vmSummary() string {
	power := m.styles.Power(m.vm.power).Render(m.vm.power.String())
	line := m.styles.Text.Render("Power: ") + power
	if d := m.vm.details; d != nil {
		mem := units.BytesSize(float64(int64(d.Memory) * units.MiB))
		line += m.styles.Text.Render(fmt.Sprintf(" | CPU: %d cores | Memory: %s", d.CPU.Processors, mem))
	} else if !m.vm.loaded {
		line += m.styles.Muted.Render(" | loading...")
	}
	return line
}

// renderConfigMenu renders the configuration submenu or its active picker.
func (m Model) renderConfigMenu() string {
	c := m.config
	title := "Configuration Menu"
	hint := "↑/↓: Navigate | Enter: Select | q: Exit"

	var body string
	switch c.mode {
	case configThemes:
		title = "Select Theme"
		hint = "↑/↓: Navigate | Enter: Select | q: Cancel"
		current := m.themes.CurrentName()
		items := make([]string, 0, len(c.themes)+2)
		for _, name := range c.themes {
			items = append(items, themeLabel(name, current))
		}
		items = append(items, optBackToConfig)
		body = m.renderMenu(items, c.listCursor)

	case configDelete:
		title = "Delete Custom Theme"
		hint = "↑/↓: Navigate | Enter: Delete | q: Cancel"
		items := append(append([]string(nil), c.themes...), optBackToConfig)
		body = m.renderMenu(items, c.listCursor)

	case configHide:
		title = "Hide/Show VMs"
		hint = "↑/↓: Navigate | Enter: Toggle Visibility | q: Done"
		if c.loadingVMs {
			body = m.styles.Text.Render(m.spinner.View() + " loading VMs...")
			break
		}
		items := make([]string, 0, len(c.vms)+1)
		for _, vm := range c.vms {
			items = append(items, hiddenPrefix(vm.Hidden)+" "+vm.Name+" "+vm.Power.Label())
		}
		items = append(items, optBackToConfig)
		body = m.renderMenu(items, c.listCursor)

	case configSaveName:
		title = "Save Current Theme"
		hint = "Enter: Save | Esc: Cancel"
		body = c.input.View()

	default:
		body = m.renderMenu(configOptionsList, c.cursor)
	}

	return m.renderSubmenu(title, hint, body, " Config Messages ", c.messages)
}
