package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/vmcache"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

const maxMenuMessages = 4

type vmMenuItem struct {
	Label  string
	Verb   string
	Action vmrest.Action
}

// vmMenuItems maps each entry to the API action it sends. An empty action
// is the way back out.
var vmMenuItems = []vmMenuItem{
	{Label: "Start VM", Verb: "start", Action: vmrest.ActionOn},
	{Label: "Shutdown VM", Verb: "shutdown", Action: vmrest.ActionShutdown},
	{Label: "Stop VM", Verb: "stop", Action: vmrest.ActionOff},
	{Label: "Suspend VM", Verb: "suspend", Action: vmrest.ActionSuspend},
	{Label: "Back to Main Menu"},
}

// vmMenu is the state of the per-VM submenu.
type vmMenu struct {
	vm       vmcache.VM
	cursor   int
	power    vmrest.PowerState
	details  *vmrest.Details
	loaded   bool
	pending  bool
	messages []string
}

func (v *vmMenu) addMessage(msg string) {
	v.messages = append(v.messages, msg)
	if len(v.messages) > maxMenuMessages {
		v.messages = v.messages[len(v.messages)-maxMenuMessages:]
	}
}

type vmInfoTickMsg struct{ gen int }

type vmInfoMsg struct {
	gen     int
	power   vmrest.PowerState
	details *vmrest.Details
	err     error
}

type powerResultMsg struct {
	gen   int
	item  vmMenuItem
	power vmrest.PowerState
	err   error
}

// openVM enters the submenu for the highlighted VM.
func (m *Model) openVM() tea.Cmd {
	vm, ok := m.Selected()
	if !ok {
		return nil
	}
	if _, err := m.nav.SelectVM(vm.ID); err != nil {
		m.log.Debug("select vm: %v", err)
		return nil
	}

	m.vmGen++
	m.vm = vmMenu{vm: vm, power: vm.Power}
	m.log.Info("Opened VM menu for %s", vm.Name)
	return m.vmInfoCmd()
}

func (m *Model) handleVMMenuKey(k string) tea.Cmd {
	switch k {
	case KeyBack, KeyQuit:
		return m.back()
	case KeyEnter:
		item := vmMenuItems[m.vm.cursor]
		if item.Action == "" {
			return m.back()
		}
		return m.runAction(item)
	default:
		m.vm.cursor = moveCursor(m.vm.cursor, len(vmMenuItems), k)
		return nil
	}
}

// vmInfoCmd fetches power state and details for the open VM, then schedules
// the next fetch. The writes go through the gate like any other.
func (m Model) vmInfoCmd() tea.Cmd {
	ctx, c, g, wait := m.ctx, m.cache, m.gate, m.wait
	id, gen := m.vm.vm.ID, m.vmGen

	fetch := func() tea.Msg {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()

		msg := vmInfoMsg{gen: gen}
		msg.err = g.With(waitCtx, func() error {
			msg.power = c.RefreshPower(ctx, id)
			if d, ok := c.Details(ctx, id); ok {
				msg.details = d
			}
			return nil
		})
		return msg
	}
	return tea.Batch(fetch, tea.Tick(m.details, func(time.Time) tea.Msg {
		return vmInfoTickMsg{gen: gen}
	}))
}

func (m *Model) onVMInfoTick(msg vmInfoTickMsg) tea.Cmd {
	if msg.gen != m.vmGen || m.nav.Current().VMID != m.vm.vm.ID {
		return nil
	}
	return m.vmInfoCmd()
}

func (m *Model) onVMInfo(msg vmInfoMsg) {
	if msg.gen != m.vmGen {
		return
	}
	if msg.err != nil {
		m.log.Debug("VM info refresh skipped: %v", msg.err)
		return
	}
	m.vm.power = msg.power
	if msg.details != nil {
		m.vm.details = msg.details
	}
	m.vm.loaded = true
}

// runAction sends a power action in the background.
func (m *Model) runAction(item vmMenuItem) tea.Cmd {
	if m.vm.pending {
		m.vm.addMessage("Another action is still running")
		return nil
	}
	m.vm.pending = true
	m.vm.addMessage(fmt.Sprintf("Attempting to %s VM...", item.Verb))
	m.log.Info("Attempting to %s VM: %s", item.Verb, m.vm.vm.Name)

	ctx, client, c, g, wait, log := m.ctx, m.client, m.cache, m.gate, m.wait, m.log
	id, gen := m.vm.vm.ID, m.vmGen

	send := func() tea.Msg {
		msg := powerResultMsg{gen: gen, item: item}
		if msg.err = client.SetPower(ctx, id, item.Action); msg.err != nil {
			return msg
		}

		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if err := g.With(waitCtx, func() error {
			msg.power = c.RefreshPower(ctx, id)
			return nil
		}); err != nil {
			log.Debug("power refresh after %s skipped: %v", item.Action, err)
		}
		return msg
	}
	return tea.Batch(send, m.spinner.Tick)
}

func (m *Model) onPowerResult(msg powerResultMsg) {
	if msg.gen != m.vmGen {
		// The user left the menu; the cache already has the outcome.
		if msg.err != nil {
			m.log.Error("Failed to %s VM: %s", msg.item.Verb, errors.Short(msg.err))
		}
		return
	}
	m.vm.pending = false

	if msg.err != nil {
		m.vm.addMessage(describeActionError(msg.item.Verb, msg.err))
		m.log.Error("Failed to %s VM %s: %s", msg.item.Verb, m.vm.vm.Name, errors.Short(msg.err))
		return
	}

	m.vm.addMessage(fmt.Sprintf("Successfully initiated %s", msg.item.Verb))
	m.log.Info("Successfully initiated %s for VM: %s", msg.item.Verb, m.vm.vm.Name)
	if msg.power != vmrest.PowerUnknown {
		m.vm.power = msg.power
	}
}

// describeActionError turns a failed power action into a one-line message
// that says which kind of failure it was.
func describeActionError(verb string, err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrTimeout:
		return fmt.Sprintf("Timed out trying to %s VM", verb)
	case errors.ErrAuth:
		return fmt.Sprintf("Not authorised to %s VM, check credentials", verb)
	case errors.ErrNetwork:
		return fmt.Sprintf("Could not reach vmrest to %s VM", verb)
	case errors.ErrRejected:
		if code := vmrest.StatusCode(err); code != 0 {
			return fmt.Sprintf("Hypervisor refused %s (HTTP %d)", verb, code)
		}
		return fmt.Sprintf("Hypervisor refused %s", verb)
	default:
		return fmt.Sprintf("Failed to %s VM: %s", verb, errors.Short(err))
	}
}
