package vmcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/vmm/internal/clock"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/vmrest"
	vmtest "github.com/rileyhilliard/vmm/internal/vmrest/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func threeVMs() []vmrest.VMSummary {
	return []vmrest.VMSummary{
		{ID: "a", Path: `C:\Users\me\Virtual Machines\alpha\alpha.vmx`},
		{ID: "b", Path: "/vms/beta.vmx"},
		{ID: "c", Path: "/vms/gamma.vmx"},
	}
}

func newTestCache(t *testing.T, fake *vmtest.FakeClient) (*Cache, *clock.Manual, *logger.BufferLogger) {
	t.Helper()
	clk := clock.NewManual(t0)
	log := logger.NewBufferLogger()
	return New(fake, Options{Clock: clk, Logger: log}), clk, log
}

func TestInventory_TTL(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, clk, _ := newTestCache(t, fake)
	ctx := context.Background()

	vms := c.Inventory(ctx, false)
	require.Len(t, vms, 3)
	assert.Equal(t, 1, fake.ListCalls)

	clk.Advance(2 * time.Second)
	c.Inventory(ctx, false)
	assert.Equal(t, 1, fake.ListCalls, "fresh inventory must not hit the API")

	clk.Advance(4 * time.Second)
	c.Inventory(ctx, false)
	assert.Equal(t, 2, fake.ListCalls, "stale inventory triggers exactly one list call")
}

func TestInventory_StaleAtExactlyTTL(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, clk, _ := newTestCache(t, fake)

	c.Inventory(context.Background(), false)
	clk.Advance(DefaultTTL)
	c.Inventory(context.Background(), false)
	assert.Equal(t, 2, fake.ListCalls)
}

func TestInventory_ForceReplaces(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, _, _ := newTestCache(t, fake)
	ctx := context.Background()

	c.Inventory(ctx, false)

	fake.SetVMs(vmrest.VMSummary{ID: "z", Path: "/vms/zeta.vmx"})
	fake.SetPowerState("z", vmrest.PowerOn)

	vms := c.Inventory(ctx, true)
	require.Len(t, vms, 1)
	assert.Equal(t, VM{ID: "z", Name: "zeta", Path: "/vms/zeta.vmx", Power: vmrest.PowerOn}, vms[0])
	assert.Equal(t, vms, c.Snapshot())
}

func TestInventory_NamesAndOrder(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	fake.SetPowerState("b", vmrest.PowerSuspended)
	c, _, _ := newTestCache(t, fake)

	vms := c.Inventory(context.Background(), false)
	require.Len(t, vms, 3)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, []string{vms[0].Name, vms[1].Name, vms[2].Name})
	assert.Equal(t, vmrest.PowerOff, vms[0].Power)
	assert.Equal(t, vmrest.PowerSuspended, vms[1].Power)
}

func TestInventory_FailureKeepsLastGood(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, clk, log := newTestCache(t, fake)
	ctx := context.Background()

	first := c.Inventory(ctx, false)
	captured := c.Captured()
	swaps := c.Stats().InventorySwaps

	fake.SetListErr(errors.New("connection refused"))
	clk.Advance(10 * time.Second)

	got := c.Inventory(ctx, true)
	assert.Equal(t, first, got)
	assert.Equal(t, captured, c.Captured(), "timestamps unchanged on failure")
	assert.Equal(t, swaps, c.Stats().InventorySwaps)
	assert.True(t, log.HasLevel("error"))
}

func TestInventory_FailureWithNothingCached(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	fake.SetListErr(errors.New("timeout"))
	c, _, _ := newTestCache(t, fake)

	vms := c.Inventory(context.Background(), false)
	assert.NotNil(t, vms)
	assert.Empty(t, vms)
	assert.Nil(t, c.Snapshot())
	assert.True(t, c.Captured().IsZero())
}

func TestPowerState_TTLPerVM(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, clk, _ := newTestCache(t, fake)
	ctx := context.Background()

	c.PowerState(ctx, "a")
	clk.Advance(3 * time.Second)
	c.PowerState(ctx, "b")

	clk.Advance(3 * time.Second) // a is 6s old, b is 3s old
	c.PowerState(ctx, "a")
	c.PowerState(ctx, "b")

	_, aCalls := fake.Calls("a")
	_, bCalls := fake.Calls("b")
	assert.Equal(t, 2, aCalls)
	assert.Equal(t, 1, bCalls)
}

func TestPowerState_FailureReturnsLastGood(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	fake.SetPowerState("a", vmrest.PowerOn)
	c, clk, _ := newTestCache(t, fake)
	ctx := context.Background()

	require.Equal(t, vmrest.PowerOn, c.PowerState(ctx, "a"))
	writes := c.Stats().PowerWrites

	fake.FailPowerState(errors.New("boom"))
	clk.Advance(time.Minute)

	assert.Equal(t, vmrest.PowerOn, c.PowerState(ctx, "a"))
	assert.Equal(t, vmrest.PowerUnknown, c.PowerState(ctx, "b"))
	assert.Equal(t, writes, c.Stats().PowerWrites)
}

func TestPowerState_CoalescesConcurrentMisses(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	fake.SimulatedDelay = 50 * time.Millisecond
	c, _, _ := newTestCache(t, fake)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.PowerState(context.Background(), "a")
		}()
	}
	wg.Wait()

	_, calls := fake.Calls("a")
	assert.Less(t, calls, 8)
}

func TestRefreshPower_LogsChange(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, _, log := newTestCache(t, fake)
	ctx := context.Background()

	c.Inventory(ctx, false)
	require.NoError(t, fake.SetPower(ctx, "b", vmrest.ActionOn))

	assert.Equal(t, vmrest.PowerOn, c.RefreshPower(ctx, "b"))
	vm, ok := c.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, vmrest.PowerOn, vm.Power)

	var found bool
	for _, m := range log.Messages() {
		if m.Level == "info" && m.Message == "beta power state changed: Off -> On" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRefreshPower_ChangeFollowsContextLogger(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, _, log := newTestCache(t, fake)

	c.Inventory(context.Background(), false)
	require.NoError(t, fake.SetPower(context.Background(), "b", vmrest.ActionOn))

	ctx := logger.Into(context.Background(), log.Quiet())
	c.RefreshPower(ctx, "b")

	var change *logger.LogMessage
	for _, m := range log.Messages() {
		if m.Message == "beta power state changed: Off -> On" {
			change = &m
		}
	}
	require.NotNil(t, change)
	assert.True(t, change.Quiet)
}

func TestRefreshPowerStates(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, clk, _ := newTestCache(t, fake)
	ctx := context.Background()

	assert.Equal(t, 0, c.RefreshPowerStates(ctx), "nothing to refresh before the first inventory")

	c.Inventory(ctx, false)
	captured := c.Captured()
	swaps := c.Stats().InventorySwaps

	fake.SetPowerState("c", vmrest.PowerOn)
	clk.Advance(2 * time.Second)

	assert.Equal(t, 3, c.RefreshPowerStates(ctx))
	assert.Equal(t, swaps+1, c.Stats().InventorySwaps)
	assert.Equal(t, captured, c.Captured(), "power tick keeps the inventory timestamp")
	assert.Equal(t, 1, fake.ListCalls)

	vm, _ := c.Lookup("c")
	assert.Equal(t, vmrest.PowerOn, vm.Power)
}

func TestSnapshotIsACopy(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, _, _ := newTestCache(t, fake)
	c.Inventory(context.Background(), false)

	snap := c.Snapshot()
	snap[0].Name = "mutated"

	assert.Equal(t, "alpha", c.Snapshot()[0].Name)
}

func TestHidden(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, _, _ := newTestCache(t, fake)
	ctx := context.Background()

	c.Inventory(ctx, false)
	c.SetHidden("b", true)
	assert.True(t, c.IsHidden("b"))

	visible := Visible(c.Snapshot())
	require.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].ID)
	assert.Equal(t, "c", visible[1].ID)

	// Survives a full refresh.
	vms := c.Inventory(ctx, true)
	assert.True(t, vms[1].Hidden)

	assert.False(t, c.ToggleHidden("b"))
	assert.False(t, c.IsHidden("b"))
	assert.True(t, c.ToggleHidden("a"))
}

func TestDetails(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	fake.DetailsByID["a"] = &vmrest.Details{ID: "a", Memory: 4096}
	c, _, log := newTestCache(t, fake)
	ctx := context.Background()

	d, ok := c.Details(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 4096, d.Memory)

	c.Details(ctx, "a")
	assert.Equal(t, 2, fake.DetailsCalls, "details are never cached")

	fake.DetailsErr = errors.New("nope")
	d, ok = c.Details(ctx, "a")
	assert.False(t, ok)
	assert.Nil(t, d)
	assert.True(t, log.HasLevel("warn"))
}

func TestConcurrentReadersDuringWrites(t *testing.T) {
	fake := vmtest.NewFakeClient(threeVMs()...)
	c, _, _ := newTestCache(t, fake)
	ctx := context.Background()
	c.Inventory(ctx, false)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					assert.Len(t, c.Snapshot(), 3)
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		c.Inventory(ctx, true)
		c.RefreshPowerStates(ctx)
	}
	close(stop)
	wg.Wait()
}
