package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/vmm/internal/clock"
	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/gate"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/nav"
	"github.com/rileyhilliard/vmm/internal/poller"
	"github.com/rileyhilliard/vmm/internal/theme"
	"github.com/rileyhilliard/vmm/internal/vmcache"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

const (
	// uiTickInterval is how often the log panels are repainted.
	uiTickInterval = 250 * time.Millisecond
	// DefaultDetailsTick is how often the VM menu refreshes its summary.
	DefaultDetailsTick = 5 * time.Second
	// DefaultWaitTimeout bounds how long an interactive refresh waits for
	// the gate before giving up.
	DefaultWaitTimeout = 15 * time.Second

	panelLines = 5
)

// SpinnerFrames is the animation shown while a request is in flight.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    time.Second / 10,
}

// Options wires the model to the rest of the program.
type Options struct {
	Context context.Context
	Cache   *vmcache.Cache
	Client  vmrest.Directory
	Gate    *gate.Gate
	Nav     *nav.Machine
	Themes  *theme.Manager
	Feed    *logger.Feed
	Logger  logger.Logger
	Clock   clock.Clock

	// DetailsTick is the VM menu's own refresh period.
	DetailsTick time.Duration
	// WaitTimeout bounds interactive waits for the gate.
	WaitTimeout time.Duration
}

// Model is the Bubble Tea model for the VM manager.
type Model struct {
	ctx     context.Context
	cache   *vmcache.Cache
	client  vmrest.Directory
	gate    *gate.Gate
	nav     *nav.Machine
	themes  *theme.Manager
	feed    *logger.Feed
	log     logger.Logger
	clock   clock.Clock
	details time.Duration
	wait    time.Duration

	styles  Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	vms        []vmcache.VM
	selected   int
	refreshing bool
	lastError  string

	vm     vmMenu
	vmGen  int
	config configMenu

	width    int
	height   int
	showHelp bool
	quitting bool
}

// uiTickMsg repaints the log feed.
type uiTickMsg time.Time

// RefreshedMsg is sent by the poller bridge after a refresh that wrote to
// the cache.
type RefreshedMsg struct {
	Outcome poller.Outcome
}

// ThemeChangedMsg asks the model to rebuild its styles from the active
// theme.
type ThemeChangedMsg struct{}

// inventoryMsg carries the result of an on-demand refresh.
type inventoryMsg struct {
	vms []vmcache.VM
	err error
}

// NewModel creates the model. The cache should already hold an inventory.
func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Feed == nil {
		opts.Feed = logger.NewFeed(0)
	}
	if opts.DetailsTick <= 0 {
		opts.DetailsTick = DefaultDetailsTick
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}

	sp := spinner.New()
	sp.Spinner = SpinnerFrames

	m := Model{
		ctx:     opts.Context,
		cache:   opts.Cache,
		client:  opts.Client,
		gate:    opts.Gate,
		nav:     opts.Nav,
		themes:  opts.Themes,
		feed:    opts.Feed,
		log:     opts.Logger,
		clock:   opts.Clock,
		details: opts.DetailsTick,
		wait:    opts.WaitTimeout,
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: sp,
		config:  newConfigMenu(),
	}
	m.applyTheme()
	m.syncFromCache()
	return m
}

// Init starts the UI tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.uiTickCmd(),
		tea.SetWindowTitle("VMware Manager"),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.config.input.Width = min(32, max(msg.Width-20, 8))

	case uiTickMsg:
		return m, m.uiTickCmd()

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RefreshedMsg:
		if m.screen() == nav.MainMenu {
			m.syncFromCache()
		}

	case ThemeChangedMsg:
		m.applyTheme()
		if m.screen() == nav.ConfigMenu {
			m.config.addMessage("Theme file changed, reloaded")
		}

	case inventoryMsg:
		m.refreshing = false
		if msg.err != nil {
			m.lastError = "Refresh skipped: " + errors.Short(msg.err)
			m.log.Warn("On-demand refresh failed: %v", msg.err)
		} else {
			m.lastError = ""
			m.log.Info("Refreshed %d VMs", len(msg.vms))
		}
		m.syncFromCache()

	case vmInfoTickMsg:
		return m, m.onVMInfoTick(msg)

	case vmInfoMsg:
		m.onVMInfo(msg)

	case powerResultMsg:
		m.onPowerResult(msg)

	case hideListMsg:
		m.onHideList(msg)
	}

	if m.config.mode == configSaveName {
		var cmd tea.Cmd
		m.config.input, cmd = m.config.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.screen() {
	case nav.VMMenu:
		body = m.renderVMMenu()
	case nav.ConfigMenu:
		body = m.renderConfigMenu()
	default:
		body = m.renderMain()
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.width > 0 && m.height > 0 {
		return m.styles.App.
			Width(m.width).
			Height(m.height).
			MaxHeight(m.height).
			Render(body)
	}
	return body
}

// Selected returns the highlighted VM on the main screen.
func (m Model) Selected() (vmcache.VM, bool) {
	if m.selected < 0 || m.selected >= len(m.vms) {
		return vmcache.VM{}, false
	}
	return m.vms[m.selected], true
}

// VMs returns the rows shown on the main screen.
func (m Model) VMs() []vmcache.VM {
	return m.vms
}

func (m Model) screen() nav.Screen {
	return m.nav.Current().Screen
}

func (m Model) busy() bool {
	return m.refreshing || m.vm.pending || m.config.loadingVMs
}

func (m Model) uiTickCmd() tea.Cmd {
	return tea.Tick(uiTickInterval, func(t time.Time) tea.Msg {
		return uiTickMsg(t)
	})
}

// applyTheme rebuilds styles from the active theme.
func (m *Model) applyTheme() {
	t := theme.Theme{}
	if m.themes != nil {
		t = m.themes.Active()
	} else {
		t, _ = theme.Builtin(theme.DefaultName)
	}
	m.styles = NewStyles(t)
	m.spinner.Style = m.styles.Text
	m.help.Styles.ShortKey = m.styles.Text.Bold(true)
	m.help.Styles.ShortDesc = m.styles.Muted
	m.help.Styles.ShortSeparator = m.styles.Muted
	m.config.input.PromptStyle = m.styles.Text
	m.config.input.TextStyle = m.styles.Text
}

// syncFromCache reloads the visible VM rows and keeps the cursor on the
// same VM where possible.
func (m *Model) syncFromCache() {
	var prevID string
	if vm, ok := m.Selected(); ok {
		prevID = vm.ID
	}

	m.vms = vmcache.Visible(m.cache.Snapshot())

	m.selected = 0
	for i, vm := range m.vms {
		if vm.ID == prevID {
			m.selected = i
			break
		}
	}
}

// startRefresh forces a full inventory refresh through the gate.
func (m *Model) startRefresh() tea.Cmd {
	if m.refreshing {
		return nil
	}
	m.refreshing = true
	m.log.Info("Refreshing VM list...")
	return tea.Batch(m.refreshCmd(), m.spinner.Tick)
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, c, g, wait := m.ctx, m.cache, m.gate, m.wait
	return func() tea.Msg {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()

		var vms []vmcache.VM
		err := g.With(waitCtx, func() error {
			vms = c.Inventory(ctx, true)
			return nil
		})
		return inventoryMsg{vms: vms, err: err}
	}
}

func (m *Model) openConfig() tea.Cmd {
	if _, err := m.nav.OpenConfig(); err != nil {
		m.log.Debug("open config: %v", err)
		return nil
	}
	m.config.reset()
	m.log.Info("Opened configuration menu")
	return nil
}

// back returns to the main menu, answering the transition's redraw request
// with a full screen clear.
func (m *Model) back() tea.Cmd {
	tr, err := m.nav.Back()
	if err != nil {
		m.log.Debug("back: %v", err)
		return nil
	}
	m.showHelp = false
	m.syncFromCache()
	if tr.Redraw {
		return tea.ClearScreen
	}
	return nil
}

// renderWidth is the usable width, with a default before the first
// WindowSizeMsg arrives.
func (m Model) renderWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m Model) place(s string) string {
	return lipgloss.PlaceHorizontal(m.renderWidth(), lipgloss.Center, s,
		lipgloss.WithWhitespaceBackground(m.styles.App.GetBackground()))
}
