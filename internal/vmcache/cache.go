// Package vmcache holds the shared, time-stamped view of the VM inventory
// and per-VM power states.
//
// Readers never lock: every published value is immutable and reached
// through an atomic pointer. Writers replace values wholesale
// (copy-on-write). Callers that write, the interactive loop and the
// background poller, are expected to serialise through a gate.Gate; a small
// internal mutex additionally keeps concurrent per-VM power updates from
// losing each other.
package vmcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/vmm/internal/clock"
	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/vmrest"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long inventory and power entries stay fresh.
	DefaultTTL = 5 * time.Second
	// DefaultConcurrency bounds parallel power fetches.
	DefaultConcurrency = 4
)

// VM is one row of the inventory.
type VM struct {
	ID     string
	Name   string
	Path   string
	Power  vmrest.PowerState
	Hidden bool
}

// Entry is a cached value with the time it was fetched.
type Entry[T any] struct {
	Value    T
	Captured time.Time
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Captured) < ttl
}

type powerMap = map[string]Entry[vmrest.PowerState]

// Options configures a Cache.
type Options struct {
	TTL         time.Duration
	Concurrency int
	Clock       clock.Clock
	Logger      logger.Logger
}

// Stats counts cache writes.
type Stats struct {
	// InventorySwaps counts published inventories, from full and power-only
	// refreshes alike.
	InventorySwaps int64
	// PowerWrites counts individual power entries stored.
	PowerWrites int64
}

// Cache is the shared VM cache.
type Cache struct {
	client      vmrest.Directory
	clock       clock.Clock
	ttl         time.Duration
	concurrency int
	log         logger.Logger

	inventory atomic.Pointer[Entry[[]VM]]
	power     atomic.Pointer[powerMap]
	hidden    atomic.Pointer[map[string]struct{}]

	names sync.Map // id -> display name
	sf    singleflight.Group
	mu    sync.Mutex

	inventorySwaps atomic.Int64
	powerWrites    atomic.Int64
}

// New creates an empty cache backed by client.
func New(client vmrest.Directory, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	c := &Cache{
		client:      client,
		clock:       opts.Clock,
		ttl:         opts.TTL,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
	}
	empty := powerMap{}
	c.power.Store(&empty)
	noHidden := map[string]struct{}{}
	c.hidden.Store(&noHidden)
	return c
}

// Inventory returns the VM list, fetching it when the cached copy is stale
// or force is set. A fetch also refreshes every VM's power state. When the
// list call fails the previous inventory (or an empty one) is returned and
// nothing is written.
func (c *Cache) Inventory(ctx context.Context, force bool) []VM {
	cur := c.inventory.Load()
	if cur != nil && !force && cur.Fresh(c.clock.Now(), c.ttl) {
		return c.annotate(cur.Value)
	}

	log := logger.From(ctx, c.log)
	summaries, err := c.client.ListVMs(ctx)
	if err != nil {
		log.Error("Failed to list VMs: %s", errors.Short(err))
		if cur != nil {
			return c.annotate(cur.Value)
		}
		return []VM{}
	}

	vms := make([]VM, len(summaries))
	for i, s := range summaries {
		vms[i] = VM{ID: s.ID, Name: c.name(s.ID, s.Path), Path: s.Path}
	}
	c.fetchAll(ctx, vms)

	c.publish(&Entry[[]VM]{Value: vms, Captured: c.clock.Now()})
	log.Debug("Inventory refreshed: %d VMs", len(vms))
	return c.annotate(vms)
}

// PowerState returns id's power state, fetching it when the cached entry is
// missing or stale. Concurrent misses for the same id share one request.
// On failure the last known value is returned, or PowerUnknown.
func (c *Cache) PowerState(ctx context.Context, id string) vmrest.PowerState {
	if e, ok := (*c.power.Load())[id]; ok && e.Fresh(c.clock.Now(), c.ttl) {
		return e.Value
	}

	v, _, _ := c.sf.Do(id, func() (interface{}, error) {
		return c.fetchPower(ctx, id), nil
	})
	return v.(vmrest.PowerState)
}

// RefreshPower fetches id's power state regardless of freshness. Used right
// after a power action.
func (c *Cache) RefreshPower(ctx context.Context, id string) vmrest.PowerState {
	return c.fetchPower(ctx, id)
}

// RefreshPowerStates re-fetches the power state of every VM in the current
// inventory and publishes a copy of the inventory carrying the new states.
// The inventory's capture time is left alone so a full refresh still
// happens on schedule. Returns the number of VMs refreshed.
func (c *Cache) RefreshPowerStates(ctx context.Context) int {
	cur := c.inventory.Load()
	if cur == nil || len(cur.Value) == 0 {
		return 0
	}

	vms := make([]VM, len(cur.Value))
	copy(vms, cur.Value)
	c.fetchAll(ctx, vms)

	next := &Entry[[]VM]{Value: vms, Captured: cur.Captured}
	// A full refresh that landed meanwhile carries newer data; keep it.
	if c.inventory.CompareAndSwap(cur, next) {
		c.inventorySwaps.Add(1)
	}
	return len(vms)
}

// Details fetches CPU and memory settings for id. Nothing is cached.
func (c *Cache) Details(ctx context.Context, id string) (*vmrest.Details, bool) {
	d, err := c.client.Details(ctx, id)
	if err != nil {
		logger.From(ctx, c.log).Warn("Failed to get details for %s: %s", c.displayName(id), errors.Short(err))
		return nil, false
	}
	return d, true
}

// Snapshot returns the cached inventory without fetching. Safe to call from
// any goroutine.
func (c *Cache) Snapshot() []VM {
	cur := c.inventory.Load()
	if cur == nil {
		return nil
	}
	return c.annotate(cur.Value)
}

// Lookup finds a VM in the cached inventory by ID.
func (c *Cache) Lookup(id string) (VM, bool) {
	for _, vm := range c.Snapshot() {
		if vm.ID == id {
			return vm, true
		}
	}
	return VM{}, false
}

// Captured returns when the cached inventory was fetched, or the zero time.
func (c *Cache) Captured() time.Time {
	if cur := c.inventory.Load(); cur != nil {
		return cur.Captured
	}
	return time.Time{}
}

// Stats returns write counters.
func (c *Cache) Stats() Stats {
	return Stats{
		InventorySwaps: c.inventorySwaps.Load(),
		PowerWrites:    c.powerWrites.Load(),
	}
}

// fetchAll fills in Power for every VM with bounded parallelism.
func (c *Cache) fetchAll(ctx context.Context, vms []VM) {
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i := range vms {
		g.Go(func() error {
			vms[i].Power = c.fetchPower(ctx, vms[i].ID)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Cache) fetchPower(ctx context.Context, id string) vmrest.PowerState {
	p, err := c.client.PowerState(ctx, id)
	if err != nil {
		logger.From(ctx, c.log).Warn("Failed to get power state for %s: %s", c.displayName(id), errors.Short(err))
		if e, ok := (*c.power.Load())[id]; ok {
			return e.Value
		}
		return vmrest.PowerUnknown
	}
	c.storePower(ctx, id, p)
	return p
}

func (c *Cache) storePower(ctx context.Context, id string, p vmrest.PowerState) {
	c.mu.Lock()
	old := *c.power.Load()
	prev, had := old[id]
	next := make(powerMap, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[id] = Entry[vmrest.PowerState]{Value: p, Captured: c.clock.Now()}
	c.power.Store(&next)
	c.mu.Unlock()

	c.powerWrites.Add(1)
	if had && prev.Value != p {
		logger.From(ctx, c.log).Info("%s power state changed: %s -> %s", c.displayName(id), prev.Value.Label(), p.Label())
	}
}

func (c *Cache) publish(e *Entry[[]VM]) {
	c.inventory.Store(e)
	c.inventorySwaps.Add(1)
}

// annotate copies vms, overlaying the newest power states and the hidden set.
func (c *Cache) annotate(vms []VM) []VM {
	power := *c.power.Load()
	hidden := *c.hidden.Load()

	out := make([]VM, len(vms))
	for i, vm := range vms {
		if e, ok := power[vm.ID]; ok {
			vm.Power = e.Value
		}
		_, vm.Hidden = hidden[vm.ID]
		out[i] = vm
	}
	return out
}

func (c *Cache) name(id, path string) string {
	if n, ok := c.names.Load(id); ok {
		return n.(string)
	}
	n, _ := c.names.LoadOrStore(id, vmrest.CleanName(path))
	return n.(string)
}

func (c *Cache) displayName(id string) string {
	if n, ok := c.names.Load(id); ok {
		return n.(string)
	}
	return id
}
