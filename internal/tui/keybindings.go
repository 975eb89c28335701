package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/vmm/internal/nav"
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyBack        = "esc"
	KeyRefresh     = "r"
	KeyConfig      = "c"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyEnter       = "enter"
	KeyToggleHelp  = "?"
)

// keyMap feeds the bubbles help footer.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Config  key.Binding
	Refresh key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding

	screen nav.Screen
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys(KeySelectPrev, KeySelectPrevK),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys(KeySelectNext, KeySelectNextJ),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys(KeyEnter),
			key.WithHelp("enter", "select"),
		),
		Config: key.NewBinding(
			key.WithKeys(KeyConfig),
			key.WithHelp("c", "config"),
		),
		Refresh: key.NewBinding(
			key.WithKeys(KeyRefresh),
			key.WithHelp("r", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys(KeyBack, KeyQuit),
			key.WithHelp("esc/q", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys(KeyToggleHelp),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys(KeyQuit, KeyQuitAlt),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	if k.screen == nav.MainMenu {
		return []key.Binding{k.Up, k.Down, k.Enter, k.Config, k.Refresh, k.Help, k.Quit}
	}
	return []key.Binding{k.Up, k.Down, k.Enter, k.Back, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// HandleKeyMsg processes keyboard input. Returns true if the key was handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	k := msg.String()

	if k == KeyQuitAlt {
		m.quitting = true
		return true, tea.Quit
	}

	// The name prompt swallows every other key, including '?' and 'q'.
	if m.config.mode == configSaveName && m.screen() == nav.ConfigMenu {
		return true, m.updateSavePrompt(msg)
	}

	if k == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && k == KeyBack {
		m.showHelp = false
		return true, nil
	}

	switch m.screen() {
	case nav.VMMenu:
		return true, m.handleVMMenuKey(k)
	case nav.ConfigMenu:
		return true, m.handleConfigKey(k)
	default:
		return m.handleMainKey(k)
	}
}

func (m *Model) handleMainKey(k string) (bool, tea.Cmd) {
	switch k {
	case KeyQuit:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		return true, m.startRefresh()

	case KeyConfig:
		return true, m.openConfig()

	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < len(m.vms)-1 {
			m.selected++
		}
		return true, nil

	case KeySelectFirst:
		m.selected = 0
		return true, nil

	case KeySelectLast:
		if len(m.vms) > 0 {
			m.selected = len(m.vms) - 1
		}
		return true, nil

	case KeyEnter:
		return true, m.openVM()
	}
	return false, nil
}

// moveCursor steps a menu cursor within [0, n).
func moveCursor(cur, n int, k string) int {
	switch k {
	case KeySelectPrev, KeySelectPrevK:
		if cur > 0 {
			cur--
		}
	case KeySelectNext, KeySelectNextJ:
		if cur < n-1 {
			cur++
		}
	case KeySelectFirst:
		cur = 0
	case KeySelectLast:
		if n > 0 {
			cur = n - 1
		}
	}
	return cur
}
