// Package testing provides test doubles for the vmrest package.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// SetPowerCall records a call to SetPower.
type SetPowerCall struct {
	ID     string
	Action vmrest.Action
}

// FakeClient is an in-memory vmrest.Directory with call tracking and
// failure injection. The zero value is not usable; call NewFakeClient.
type FakeClient struct {
	mu sync.Mutex

	// Configuration
	VMs         []vmrest.VMSummary
	Power       map[string]vmrest.PowerState
	DetailsByID map[string]*vmrest.Details

	ListErr     error
	PowerErr    error
	PowerErrFor map[string]error
	DetailsErr  error
	SetPowerErr error

	// SimulatedDelay is applied to every call, honouring ctx.
	SimulatedDelay time.Duration
	// OnList runs inside ListVMs before it returns.
	OnList func()

	// Call tracking
	ListCalls     int
	PowerCalls    map[string]int
	DetailsCalls  int
	SetPowerCalls []SetPowerCall
}

var _ vmrest.Directory = (*FakeClient)(nil)

// NewFakeClient creates a fake serving vms, all powered off.
func NewFakeClient(vms ...vmrest.VMSummary) *FakeClient {
	f := &FakeClient{
		Power:       make(map[string]vmrest.PowerState),
		DetailsByID: make(map[string]*vmrest.Details),
		PowerErrFor: make(map[string]error),
		PowerCalls:  make(map[string]int),
	}
	f.SetVMs(vms...)
	return f
}

// SetVMs replaces the served inventory. VMs without a power state are off.
func (f *FakeClient) SetVMs(vms ...vmrest.VMSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VMs = append([]vmrest.VMSummary(nil), vms...)
	for _, vm := range vms {
		if _, ok := f.Power[vm.ID]; !ok {
			f.Power[vm.ID] = vmrest.PowerOff
		}
	}
}

// SetPowerState sets what PowerState returns for id.
func (f *FakeClient) SetPowerState(id string, p vmrest.PowerState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Power[id] = p
}

// SetListErr sets or clears the ListVMs failure.
func (f *FakeClient) SetListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListErr = err
}

// FailPowerState sets or clears the PowerState failure for every VM.
func (f *FakeClient) FailPowerState(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PowerErr = err
}

func (f *FakeClient) wait(ctx context.Context) error {
	if f.SimulatedDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.SimulatedDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListVMs returns the configured inventory.
func (f *FakeClient) ListVMs(ctx context.Context) ([]vmrest.VMSummary, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.ListCalls++
	hook := f.OnList
	err := f.ListErr
	vms := append([]vmrest.VMSummary(nil), f.VMs...)
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return vms, nil
}

// PowerState returns the configured state for id.
func (f *FakeClient) PowerState(ctx context.Context, id string) (vmrest.PowerState, error) {
	if err := f.wait(ctx); err != nil {
		return vmrest.PowerUnknown, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.PowerCalls[id]++
	if err := f.PowerErrFor[id]; err != nil {
		return vmrest.PowerUnknown, err
	}
	if f.PowerErr != nil {
		return vmrest.PowerUnknown, f.PowerErr
	}
	return f.Power[id], nil
}

// Details returns the configured details, or a minimal record.
func (f *FakeClient) Details(ctx context.Context, id string) (*vmrest.Details, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.DetailsCalls++
	if f.DetailsErr != nil {
		return nil, f.DetailsErr
	}
	if d, ok := f.DetailsByID[id]; ok {
		cp := *d
		return &cp, nil
	}
	return &vmrest.Details{ID: id}, nil
}

// SetPower records the call and applies the resulting state.
func (f *FakeClient) SetPower(ctx context.Context, id string, action vmrest.Action) error {
	if err := f.wait(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetPowerCalls = append(f.SetPowerCalls, SetPowerCall{ID: id, Action: action})
	if f.SetPowerErr != nil {
		return f.SetPowerErr
	}

	switch action {
	case vmrest.ActionOn:
		f.Power[id] = vmrest.PowerOn
	case vmrest.ActionOff, vmrest.ActionShutdown:
		f.Power[id] = vmrest.PowerOff
	case vmrest.ActionSuspend:
		f.Power[id] = vmrest.PowerSuspended
	}
	return nil
}

// Calls returns the ListVMs count and the PowerState count for id.
func (f *FakeClient) Calls(id string) (list, power int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls, f.PowerCalls[id]
}

// TotalPowerCalls sums PowerState calls across all VMs.
func (f *FakeClient) TotalPowerCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.PowerCalls {
		n += c
	}
	return n
}
