package tui

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/vmm/internal/clock"
	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/gate"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/nav"
	"github.com/rileyhilliard/vmm/internal/theme"
	"github.com/rileyhilliard/vmm/internal/vmcache"
	"github.com/rileyhilliard/vmm/internal/vmrest"
	vmtest "github.com/rileyhilliard/vmm/internal/vmrest/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Plain output so views can be matched as text.
	lipgloss.SetColorProfile(termenv.Ascii)
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	fake   *vmtest.FakeClient
	cache  *vmcache.Cache
	clock  *clock.Manual
	gate   *gate.Gate
	nav    *nav.Machine
	themes *theme.Manager
	feed   *logger.Feed
	log    *logger.BufferLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fake: vmtest.NewFakeClient(
			vmrest.VMSummary{ID: "a", Path: "/vms/alpha.vmx"},
			vmrest.VMSummary{ID: "b", Path: "/vms/beta.vmx"},
			vmrest.VMSummary{ID: "c", Path: "/vms/gamma.vmx"},
		),
		clock: clock.NewManual(t0),
		gate:  gate.New(),
		nav:   nav.New(),
		feed:  logger.NewFeed(0),
		log:   logger.NewBufferLogger(),
	}
	f.fake.SetPowerState("b", vmrest.PowerOn)
	f.fake.DetailsByID["a"] = &vmrest.Details{ID: "a", Memory: 2048}
	f.fake.DetailsByID["a"].CPU.Processors = 2

	f.cache = vmcache.New(f.fake, vmcache.Options{Clock: f.clock, Logger: f.log})
	f.cache.Inventory(context.Background(), true)

	store := theme.NewStore(filepath.Join(t.TempDir(), "themes.yaml"))
	f.themes = theme.NewManager(context.Background(), store, f.log)
	f.themes.SetRand(rand.New(rand.NewSource(1)))
	return f
}

func (f *fixture) model() Model {
	m := NewModel(Options{
		Cache:       f.cache,
		Client:      f.fake,
		Gate:        f.gate,
		Nav:         f.nav,
		Themes:      f.themes,
		Feed:        f.feed,
		Logger:      f.log,
		Clock:       f.clock,
		DetailsTick: time.Millisecond,
		WaitTimeout: 50 * time.Millisecond,
	})
	m.width, m.height = 100, 40
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

// collect runs cmd and any batched children, returning every message.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// deliver runs cmd and feeds the resulting messages back into the model,
// skipping ticks that would start new loops.
func deliver(m Model, cmd tea.Cmd) Model {
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case vmInfoTickMsg, uiTickMsg:
			continue
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func names(vms []vmcache.VM) []string {
	out := make([]string, len(vms))
	for i, vm := range vms {
		out[i] = vm.Name
	}
	return out
}

func TestNewModel(t *testing.T) {
	f := newFixture(t)
	f.cache.SetHidden("c", true)

	m := f.model()

	assert.Equal(t, []string{"alpha", "beta"}, names(m.VMs()), "hidden VMs are not listed")
	vm, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", vm.ID)
	ubuntu, _ := theme.Builtin(theme.DefaultName)
	assert.Equal(t, ubuntu, m.styles.Theme, "styles come from the active theme")
}

func TestMainNavigation(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "down", "j", "j")
	assert.Equal(t, 2, m.selected, "cursor stops at the last row")

	m, _ = press(t, m, "up", "k", "k")
	assert.Equal(t, 0, m.selected, "cursor stops at the first row")
}

func TestQuit(t *testing.T) {
	f := newFixture(t)

	for _, k := range []string{"q", "ctrl+c"} {
		m, cmd := press(t, f.model(), k)
		assert.True(t, m.quitting, k)
		require.NotNil(t, cmd, k)
		assert.Equal(t, tea.Quit(), cmd(), k)
		assert.Empty(t, m.View())
	}
}

func TestOpenAndLeaveVMMenu(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, cmd := press(t, m, "down", "enter")
	assert.Equal(t, nav.State{Screen: nav.VMMenu, VMID: "b"}, f.nav.Current())
	assert.True(t, f.nav.Suspended(), "the poller must stand down in a submenu")
	assert.Equal(t, "beta", m.vm.vm.Name)
	require.NotNil(t, cmd)

	m, cmd = press(t, m, "esc")
	assert.Equal(t, nav.MainMenu, f.nav.Current().Screen)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.ClearScreen(), cmd(), "returning to main clears the screen")
	assert.False(t, f.nav.Suspended())
}

func TestVMMenu_InfoRefresh(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, cmd := press(t, m, "enter")
	m = deliver(m, cmd)

	assert.True(t, m.vm.loaded)
	assert.Equal(t, vmrest.PowerOff, m.vm.power)
	require.NotNil(t, m.vm.details)
	assert.Equal(t, 2, m.vm.details.CPU.Processors)
	assert.False(t, f.gate.Held(), "the gate is released after the fetch")

	view := m.View()
	assert.Contains(t, view, "VM: alpha")
	assert.Contains(t, view, "CPU: 2 cores | Memory: 2GiB")
}

func TestVMMenu_InfoTickStopsAfterLeaving(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "enter")
	gen := m.vmGen
	m, _ = press(t, m, "esc")

	assert.Nil(t, m.onVMInfoTick(vmInfoTickMsg{gen: gen}))
}

func TestVMMenu_PowerAction(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "enter")
	m, cmd := press(t, m, "enter") // Start VM
	assert.True(t, m.vm.pending)
	assert.Contains(t, m.vm.messages, "Attempting to start VM...")

	m = deliver(m, cmd)

	assert.False(t, m.vm.pending)
	require.Len(t, f.fake.SetPowerCalls, 1)
	assert.Equal(t, vmtest.SetPowerCall{ID: "a", Action: vmrest.ActionOn}, f.fake.SetPowerCalls[0])
	assert.Equal(t, vmrest.PowerOn, m.vm.power)
	assert.Contains(t, m.vm.messages, "Successfully initiated start")

	vm, ok := f.cache.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, vmrest.PowerOn, vm.Power, "success refreshes the cached power state")
}

func TestVMMenu_ActionMapping(t *testing.T) {
	tests := []struct {
		row  int
		want vmrest.Action
	}{
		{0, vmrest.ActionOn},
		{1, vmrest.ActionShutdown},
		{2, vmrest.ActionOff},
		{3, vmrest.ActionSuspend},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			f := newFixture(t)
			m, _ := press(t, f.model(), "enter")
			for i := 0; i < tt.row; i++ {
				m, _ = press(t, m, "down")
			}
			m, cmd := press(t, m, "enter")
			deliver(m, cmd)

			require.Len(t, f.fake.SetPowerCalls, 1)
			assert.Equal(t, tt.want, f.fake.SetPowerCalls[0].Action)
		})
	}
}

func TestVMMenu_PowerActionFailure(t *testing.T) {
	f := newFixture(t)
	f.fake.SetPowerErr = errors.New(errors.ErrTimeout, "timed out", "")
	m := f.model()

	m, _ = press(t, m, "enter", "down", "down")
	m, cmd := press(t, m, "enter") // Stop VM
	m = deliver(m, cmd)

	assert.False(t, m.vm.pending)
	assert.Contains(t, m.vm.messages, "Timed out trying to stop VM")
	assert.True(t, f.log.HasLevel("error"))
}

func TestVMMenu_BackEntry(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "enter", "end")
	m, cmd := press(t, m, "enter")

	assert.Equal(t, nav.MainMenu, f.nav.Current().Screen)
	require.NotNil(t, cmd)
	assert.Empty(t, f.fake.SetPowerCalls)
}

func TestDescribeActionError(t *testing.T) {
	rejected := errors.WrapWithCode(&vmrest.APIError{Code: 409, Message: "busy"}, errors.ErrRejected, "refused", "")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", errors.New(errors.ErrTimeout, "slow", ""), "Timed out trying to start VM"},
		{"auth", errors.New(errors.ErrAuth, "nope", ""), "Not authorised to start VM, check credentials"},
		{"network", errors.New(errors.ErrNetwork, "down", ""), "Could not reach vmrest to start VM"},
		{"rejected", rejected, "Hypervisor refused start (HTTP 409)"},
		{"other", errors.New(errors.ErrInvalidResponse, "garbled", ""), "Failed to start VM: garbled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeActionError("start", tt.err))
		})
	}
}

func TestRefresh_GoesThroughGate(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	calls := f.fake.ListCalls

	require.True(t, f.gate.TryAcquire(0))
	msg := m.refreshCmd()().(inventoryMsg)
	assert.Error(t, msg.err, "a held gate blocks the refresh")
	assert.Equal(t, calls, f.fake.ListCalls)
	f.gate.Release()

	m, cmd := press(t, m, "r")
	assert.True(t, m.refreshing)
	m = deliver(m, cmd)

	assert.False(t, m.refreshing)
	assert.Equal(t, calls+1, f.fake.ListCalls)
	assert.Empty(t, m.lastError)
}

func TestRefreshedMsg_ReloadsRows(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	f.fake.SetVMs(vmrest.VMSummary{ID: "d", Path: "/vms/delta.vmx"})
	f.cache.Inventory(context.Background(), true)

	next, _ := m.Update(RefreshedMsg{})
	m = next.(Model)
	assert.Equal(t, []string{"delta"}, names(m.VMs()))
}

func TestConfigMenu_Toggles(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "c")
	assert.Equal(t, nav.ConfigMenu, f.nav.Current().Screen)

	m, _ = press(t, m, "down", "down", "down", "down", "enter") // Invert Background
	assert.Contains(t, m.config.messages, "Background inversion enabled")

	m, _ = press(t, m, "down", "enter") // Invert Text
	assert.Contains(t, m.config.messages, "Text inversion enabled")

	ubuntu, _ := theme.Builtin("ubuntu")
	assert.Equal(t, ubuntu.Inverted(true, true), m.styles.Theme)
}

func TestConfigMenu_ChangeTheme(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "c", "enter")
	require.Equal(t, configThemes, m.config.mode)

	m, _ = press(t, m, "down", "enter") // matrix
	assert.Equal(t, "matrix", f.themes.CurrentName())
	assert.Equal(t, configOptions, m.config.mode)
	assert.Contains(t, m.config.messages, "Theme changed to: matrix")
}

func TestConfigMenu_RandomSaveDelete(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "c", "down", "enter") // Generate Random Theme
	assert.Equal(t, theme.RandomName, f.themes.CurrentName())

	m, _ = press(t, m, "down", "enter") // Save Current Theme
	require.Equal(t, configSaveName, m.config.mode)

	m, _ = press(t, m, "q", "u", "i", "e", "t") // keys go to the prompt, q included
	assert.Equal(t, nav.ConfigMenu, f.nav.Current().Screen)
	m, _ = press(t, m, "enter")
	assert.Equal(t, configOptions, m.config.mode)
	assert.Equal(t, []string{"quiet"}, f.themes.CustomNames())
	assert.Contains(t, m.config.messages, "Theme saved as: quiet")

	m, _ = press(t, m, "down", "enter") // Delete Custom Theme
	require.Equal(t, configDelete, m.config.mode)
	m, _ = press(t, m, "enter")
	assert.Empty(t, f.themes.CustomNames())
	assert.Equal(t, configOptions, m.config.mode)
	assert.Equal(t, theme.DefaultName, f.themes.CurrentName())
}

func TestConfigMenu_SaveRejectsBadName(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "c", "down", "down", "enter")
	m, _ = press(t, m, "u", "b", "u", "n", "t", "u", "enter")

	assert.Equal(t, configSaveName, m.config.mode, "the prompt stays open")
	require.NotEmpty(t, m.config.messages)
	assert.True(t, strings.HasPrefix(m.config.messages[len(m.config.messages)-1], "Failed to save theme"))

	m, _ = press(t, m, "esc")
	assert.Equal(t, configOptions, m.config.mode)
}

func TestConfigMenu_DeleteWithNoCustomThemes(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "c", "down", "down", "down", "enter")
	assert.Equal(t, configOptions, m.config.mode)
	assert.Contains(t, m.config.messages, "No custom themes to delete")
}

func TestConfigMenu_HideVMs(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "c", "end", "up")
	m, cmd := press(t, m, "enter") // Hide/Show VMs
	require.Equal(t, configHide, m.config.mode)
	assert.True(t, m.config.loadingVMs)

	m = deliver(m, cmd)
	require.Len(t, m.config.vms, 3)

	m, _ = press(t, m, "down", "enter")
	assert.True(t, f.cache.IsHidden("b"))
	assert.Contains(t, m.config.messages, "Hiding VM: beta")
	assert.Contains(t, m.View(), "[H] beta")

	m, _ = press(t, m, "esc")
	assert.Contains(t, m.config.messages, "VM visibility settings saved")

	m, _ = press(t, m, "esc")
	assert.Equal(t, nav.MainMenu, f.nav.Current().Screen)
	assert.Equal(t, []string{"alpha", "gamma"}, names(m.VMs()))
}

func TestHelpToggle(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m, _ = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = press(t, m, "esc")
	assert.False(t, m.showHelp)
}

func TestThemeChangedMsg(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	require.NoError(t, f.themes.Select(context.Background(), "nord"))
	next, _ := m.Update(ThemeChangedMsg{})
	m = next.(Model)

	nord, _ := theme.Builtin("nord")
	assert.Equal(t, nord, m.styles.Theme)
}
