package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/vmcache"
)

type configMode int

const (
	configOptions configMode = iota
	configThemes
	configDelete
	configHide
	configSaveName
)

// Config menu entries, in display order.
const (
	optChangeTheme  = "Change Theme"
	optRandomTheme  = "Generate Random Theme"
	optSaveTheme    = "Save Current Theme"
	optDeleteTheme  = "Delete Custom Theme"
	optInvertBg     = "Invert Background"
	optInvertText   = "Invert Text"
	optHideVMs      = "Hide/Show VMs"
	optBackToMain   = "Back to Main Menu"
	optBackToConfig = "Back to Config Menu"
)

const themeNamePlaceholder = "letters, digits, - and _"

var configOptionsList = []string{
	optChangeTheme,
	optRandomTheme,
	optSaveTheme,
	optDeleteTheme,
	optInvertBg,
	optInvertText,
	optHideVMs,
	optBackToMain,
}

// configMenu is the state of the configuration submenu and its pickers.
type configMenu struct {
	mode       configMode
	cursor     int
	listCursor int
	themes     []string
	vms        []vmcache.VM
	loadingVMs bool
	input      textinput.Model
	messages   []string
}

type hideListMsg struct {
	vms []vmcache.VM
	err error
}

func newConfigMenu() configMenu {
	ti := textinput.New()
	ti.Placeholder = themeNamePlaceholder
	ti.CharLimit = 32
	ti.Prompt = "Theme name: "
	return configMenu{input: ti}
}

func (c *configMenu) reset() {
	c.mode = configOptions
	c.cursor = 0
	c.listCursor = 0
	c.vms = nil
	c.loadingVMs = false
	c.input.Reset()
	c.input.Blur()
}

func (c *configMenu) addMessage(msg string) {
	c.messages = append(c.messages, msg)
	if len(c.messages) > maxMenuMessages {
		c.messages = c.messages[len(c.messages)-maxMenuMessages:]
	}
}

// listLen is the number of rows in the active picker, including its
// trailing back entry.
func (c *configMenu) listLen() int {
	switch c.mode {
	case configThemes, configDelete:
		return len(c.themes) + 1
	case configHide:
		return len(c.vms) + 1
	default:
		return len(configOptionsList)
	}
}

func (m *Model) handleConfigKey(k string) tea.Cmd {
	c := &m.config

	if c.mode == configOptions {
		switch k {
		case KeyBack, KeyQuit:
			return m.back()
		case KeyEnter:
			return m.runConfigOption(configOptionsList[c.cursor])
		default:
			c.cursor = moveCursor(c.cursor, len(configOptionsList), k)
		}
		return nil
	}

	switch k {
	case KeyBack, KeyQuit:
		m.closePicker()
	case KeyEnter:
		m.pick()
	default:
		c.listCursor = moveCursor(c.listCursor, c.listLen(), k)
	}
	return nil
}

func (m *Model) closePicker() {
	switch m.config.mode {
	case configThemes:
		m.config.addMessage("Theme selection cancelled")
	case configDelete:
		m.config.addMessage("Theme deletion cancelled")
	case configHide:
		m.config.addMessage("VM visibility settings saved")
		m.syncFromCache()
	}
	m.config.mode = configOptions
}

func (m *Model) runConfigOption(opt string) tea.Cmd {
	c := &m.config
	switch opt {
	case optBackToMain:
		return m.back()

	case optChangeTheme:
		c.themes = m.themes.Names()
		c.listCursor = indexOf(c.themes, m.themes.CurrentName())
		c.mode = configThemes
		c.addMessage("Select a theme using arrow keys")

	case optRandomTheme:
		m.themes.GenerateRandom()
		m.applyTheme()
		c.addMessage("Generated random theme. Use 'Save Current Theme' to keep it.")
		m.log.Info("Generated random theme")

	case optSaveTheme:
		c.mode = configSaveName
		c.input.Reset()
		return c.input.Focus()

	case optDeleteTheme:
		custom := m.themes.CustomNames()
		if len(custom) == 0 {
			c.addMessage("No custom themes to delete")
			return nil
		}
		c.themes = custom
		c.listCursor = 0
		c.mode = configDelete
		c.addMessage("Select a custom theme to delete")

	case optInvertBg:
		on := m.themes.ToggleInvertBackground()
		m.applyTheme()
		c.addMessage("Background inversion " + enabled(on))

	case optInvertText:
		on := m.themes.ToggleInvertText()
		m.applyTheme()
		c.addMessage("Text inversion " + enabled(on))

	case optHideVMs:
		c.mode = configHide
		c.listCursor = 0
		c.loadingVMs = true
		m.log.Info("Fetching VM list for visibility settings...")
		return tea.Batch(m.hideListCmd(), m.spinner.Tick)
	}
	return nil
}

// pick applies the highlighted row of the active picker.
func (m *Model) pick() {
	c := &m.config
	switch c.mode {
	case configThemes:
		if c.listCursor >= len(c.themes) {
			m.closePicker()
			return
		}
		name := c.themes[c.listCursor]
		if err := m.themes.Select(m.ctx, name); err != nil {
			c.addMessage("Failed to change theme: " + errors.Short(err))
			m.log.Error("Error applying theme change: %v", err)
			return
		}
		m.applyTheme()
		c.mode = configOptions
		c.addMessage("Theme changed to: " + name)
		m.log.Info("Theme changed to %s", name)

	case configDelete:
		if c.listCursor >= len(c.themes) {
			m.closePicker()
			return
		}
		name := c.themes[c.listCursor]
		if err := m.themes.Delete(m.ctx, name); err != nil {
			c.addMessage("Failed to delete theme: " + errors.Short(err))
			m.log.Error("Error deleting theme %s: %v", name, err)
			return
		}
		m.applyTheme()
		c.addMessage("Deleted theme: " + name)
		m.log.Info("Deleted theme %s", name)
		c.themes = m.themes.CustomNames()
		if len(c.themes) == 0 {
			c.mode = configOptions
			return
		}
		c.listCursor = min(c.listCursor, len(c.themes)-1)

	case configHide:
		if c.loadingVMs {
			return
		}
		if c.listCursor >= len(c.vms) {
			m.closePicker()
			return
		}
		vm := c.vms[c.listCursor]
		hidden := m.cache.ToggleHidden(vm.ID)
		c.vms[c.listCursor].Hidden = hidden
		if hidden {
			c.addMessage("Hiding VM: " + vm.Name)
		} else {
			c.addMessage("Showing VM: " + vm.Name)
		}
	}
}

// updateSavePrompt routes keys to the theme name input.
func (m *Model) updateSavePrompt(msg tea.KeyMsg) tea.Cmd {
	c := &m.config
	switch msg.String() {
	case KeyBack:
		c.mode = configOptions
		c.input.Blur()
		c.addMessage("Theme save cancelled")
		return nil

	case KeyEnter:
		name := strings.TrimSpace(c.input.Value())
		if err := m.themes.SaveCurrent(m.ctx, name); err != nil {
			c.addMessage("Failed to save theme: " + errors.Short(err))
			m.log.Warn("Saving theme %q failed: %v", name, err)
			return nil
		}
		c.mode = configOptions
		c.input.Blur()
		m.applyTheme()
		c.addMessage("Theme saved as: " + name)
		m.log.Info("Saved theme %s", name)
		return nil
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

// hideListCmd fetches the full inventory, hidden VMs included, under the
// gate.
func (m Model) hideListCmd() tea.Cmd {
	ctx, c, g, wait := m.ctx, m.cache, m.gate, m.wait
	return func() tea.Msg {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()

		var vms []vmcache.VM
		err := g.With(waitCtx, func() error {
			vms = c.Inventory(ctx, false)
			return nil
		})
		if err != nil {
			vms = c.Snapshot()
		}
		return hideListMsg{vms: vms, err: err}
	}
}

func (m *Model) onHideList(msg hideListMsg) {
	c := &m.config
	c.loadingVMs = false
	if c.mode != configHide {
		return
	}
	if msg.err != nil {
		m.log.Warn("Using cached VM list: %v", msg.err)
	}
	c.vms = msg.vms
	if len(c.vms) == 0 {
		c.addMessage("No VMs found")
		return
	}
	c.addMessage("Select VMs to hide/show using Enter")
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return 0
}

func hiddenPrefix(hidden bool) string {
	if hidden {
		return "[H]"
	}
	return "[ ]"
}

func themeLabel(name, current string) string {
	if name == current {
		return fmt.Sprintf("%s (current)", name)
	}
	return name
}
