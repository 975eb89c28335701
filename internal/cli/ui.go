package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/vmm/internal/clock"
	"github.com/rileyhilliard/vmm/internal/config"
	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/gate"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/nav"
	"github.com/rileyhilliard/vmm/internal/poller"
	"github.com/rileyhilliard/vmm/internal/theme"
	"github.com/rileyhilliard/vmm/internal/tui"
	"github.com/rileyhilliard/vmm/internal/vmcache"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// uiCommand runs the interactive VM manager until the user quits.
func uiCommand(ctx context.Context) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New(errors.ErrConfig,
			"The interactive UI needs a terminal",
			"Use 'vmm list' or 'vmm power' from scripts")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	session, err := logger.NewSession(logger.SessionOptions{
		Dir:      cfg.Log.Dir,
		Debug:    cfg.Log.Debug,
		FeedSize: cfg.Log.FeedSize,
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot open log files in "+cfg.Log.Dir,
			"Set log.dir in the config to a writable directory")
	}
	defer session.Close() //nolint:errcheck
	log := session.Logger()
	log.Info("Starting vmm %s against %s (session %s)", formatVersion(version), cfg.API.URL, session.ID())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	bridge := tui.NewBridge()
	if w := app.watchThemes(log, bridge.ThemeChanged); w != nil {
		go w.Run(ctx)
	}

	model := tui.NewModel(tui.Options{
		Context:     ctx,
		Cache:       app.cache,
		Client:      app.client,
		Gate:        app.gate,
		Nav:         app.nav,
		Themes:      app.themes,
		Feed:        session.Feed(),
		Logger:      log,
		DetailsTick: cfg.Refresh.DetailsTick,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	pl := poller.New(app.cache, app.nav, app.gate, poller.Options{
		Base:        cfg.Refresh.Base,
		PowerTick:   cfg.Refresh.PowerTick,
		FullTick:    cfg.Refresh.FullTick,
		GateTimeout: cfg.Refresh.GateTimeout,
		Backoff:     cfg.Refresh.Backoff,
		Logger:      log,
		Notifier:    bridge,
	})
	pl.MarkFull(app.loadedAt)
	stop := pl.Start(ctx)

	_, err = p.Run()
	stop()
	log.Info("vmm exiting")

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// app holds the long-lived pieces shared by the UI and the poller.
type app struct {
	client   vmrest.Directory
	cache    *vmcache.Cache
	gate     *gate.Gate
	nav      *nav.Machine
	store    *theme.Store
	themes   *theme.Manager
	loadedAt time.Time
}

// newApp builds the client, cache and theme manager and fetches the
// inventory once, holding the gate, before the UI is shown.
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	client, err := newDirectory(cfg, log)
	if err != nil {
		return nil, err
	}

	clk := clock.Real{}
	a := &app{
		client: client,
		cache: vmcache.New(client, vmcache.Options{
			TTL:         cfg.Refresh.CacheTTL,
			Concurrency: cfg.Refresh.Concurrency,
			Clock:       clk,
			Logger:      log,
		}),
		gate:   gate.New(),
		nav:    nav.New(),
		store:  theme.NewStore(cfg.Theme.File),
	}
	a.themes = theme.NewManager(ctx, a.store, log)

	log.Info("Loading VMs...")
	if err := a.gate.With(ctx, func() error {
		vms := a.cache.Inventory(ctx, true)
		log.Info("Found %d VMs", len(vms))
		return nil
	}); err != nil {
		return nil, err
	}
	a.loadedAt = clk.Now()
	return a, nil
}

// watchThemes starts watching the theme file's directory, creating it if
// needed. A watcher that can't start only costs live reloads.
func (a *app) watchThemes(log logger.Logger, onChange func()) *theme.Watcher {
	dir := filepath.Dir(a.store.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("Theme file changes won't be picked up: %v", err)
		return nil
	}
	w, err := theme.NewWatcher(a.themes, log, onChange)
	if err != nil {
		log.Warn("Theme file changes won't be picked up: %v", err)
		return nil
	}
	return w
}
