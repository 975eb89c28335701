// Package poller keeps the VM cache warm in the background.
//
// Every base period the poller wakes up and, if the main menu is showing
// and the refresh gate can be taken within the gate timeout, runs a full
// inventory refresh (every full tick) or a power-state-only refresh (every
// power tick). The two timers are independent: a full refresh does not
// restart the power timer. While any submenu is open it performs no cache
// writes at all.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/vmm/internal/clock"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/vmcache"
)

const (
	DefaultBase        = 5 * time.Second
	DefaultPowerTick   = 10 * time.Second
	DefaultFullTick    = 30 * time.Second
	DefaultGateTimeout = time.Second
	DefaultBackoff     = time.Second
)

// Outcome is what one tick did.
type Outcome int

const (
	// Suspended: a submenu is open, nothing was touched.
	Suspended Outcome = iota
	// Busy: the gate was held by someone else past the gate timeout.
	Busy
	// Full: the inventory was re-listed.
	Full
	// Power: only power states were refreshed.
	Power
	// Idle: nothing was due.
	Idle
	// Failed: a full refresh was due but the list call failed, so the cache
	// kept its previous inventory.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Suspended:
		return "suspended"
	case Busy:
		return "busy"
	case Full:
		return "full"
	case Power:
		return "power"
	case Idle:
		return "idle"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Wrote reports whether the outcome published cache data.
func (o Outcome) Wrote() bool {
	return o == Full || o == Power
}

// Cache is the part of the VM cache the poller writes.
type Cache interface {
	Inventory(ctx context.Context, force bool) []vmcache.VM
	RefreshPowerStates(ctx context.Context) int
	Captured() time.Time
}

// Navigator tells the poller whether it must keep off the cache.
type Navigator interface {
	Suspended() bool
}

// Gate is the refresh coordinator.
type Gate interface {
	TryAcquire(timeout time.Duration) bool
	Release()
}

// Notifier is told about every tick that wrote to the cache.
type Notifier interface {
	Refreshed(o Outcome)
}

// Options configures a Poller. Zero durations take the defaults.
type Options struct {
	Base        time.Duration
	PowerTick   time.Duration
	FullTick    time.Duration
	GateTimeout time.Duration
	Backoff     time.Duration

	Clock    clock.Clock
	Logger   logger.Logger
	Notifier Notifier
}

// Poller is the background refresh loop.
type Poller struct {
	cache Cache
	nav   Navigator
	gate  Gate
	opts  Options
	log   logger.Logger

	// Only touched by the goroutine running Tick.
	lastFull  time.Time
	lastPower time.Time
}

// New creates a poller. The first eligible tick always does a full refresh.
func New(cache Cache, nav Navigator, gate Gate, opts Options) *Poller {
	if opts.Base <= 0 {
		opts.Base = DefaultBase
	}
	if opts.PowerTick <= 0 {
		opts.PowerTick = DefaultPowerTick
	}
	if opts.FullTick <= 0 {
		opts.FullTick = DefaultFullTick
	}
	if opts.GateTimeout <= 0 {
		opts.GateTimeout = DefaultGateTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	return &Poller{
		cache: cache,
		nav:   nav,
		gate:  gate,
		opts:  opts,
		log:   opts.Logger,
	}
}

// MarkFull records that a full refresh just happened outside the poller,
// e.g. the initial fetch before the UI starts.
func (p *Poller) MarkFull(at time.Time) {
	p.lastFull = at
}

// Tick runs one iteration of the loop body.
func (p *Poller) Tick(ctx context.Context) Outcome {
	if p.nav.Suspended() {
		return Suspended
	}

	quiet := p.log.Quiet()
	if !p.gate.TryAcquire(p.opts.GateTimeout) {
		quiet.Debug("Refresh skipped: gate busy")
		return Busy
	}
	defer p.gate.Release()

	// The user may have opened a submenu while we waited for the gate.
	if p.nav.Suspended() {
		return Suspended
	}

	ctx = logger.Into(ctx, quiet)
	now := p.opts.Clock.Now()

	switch {
	case p.lastFull.IsZero() || now.Sub(p.lastFull) >= p.opts.FullTick:
		before := p.cache.Captured()
		vms := p.cache.Inventory(ctx, true)
		p.lastFull = now
		if after := p.cache.Captured(); after.IsZero() || after.Equal(before) {
			quiet.Info("Full refresh failed, keeping %d cached VMs", len(vms))
			return Failed
		}
		quiet.Info("Full refresh: %d VMs", len(vms))
		return Full

	case now.Sub(p.lastPower) >= p.opts.PowerTick:
		n := p.cache.RefreshPowerStates(ctx)
		p.lastPower = now
		quiet.Info("Power refresh: %d VMs", n)
		return Power

	default:
		return Idle
	}
}

// Run loops until ctx is cancelled. A panicking tick is logged and followed
// by the backoff delay instead of the base period.
func (p *Poller) Run(ctx context.Context) {
	p.log.Debug("Background refresh started (base %s, power %s, full %s)",
		p.opts.Base, p.opts.PowerTick, p.opts.FullTick)
	defer p.log.Debug("Background refresh stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if ctx.Err() != nil {
			return
		}

		wait := p.opts.Base
		outcome, err := p.safeTick(ctx)
		if err != nil {
			p.log.Error("Background refresh failed: %v", err)
			wait = p.opts.Backoff
		} else if outcome.Wrote() && p.opts.Notifier != nil {
			p.opts.Notifier.Refreshed(outcome)
		}

		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// Start runs the loop in a new goroutine. The returned function cancels it
// and waits for it to exit.
func (p *Poller) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (p *Poller) safeTick(ctx context.Context) (o Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Tick(ctx), nil
}
