// Package nav tracks which menu the user is in. The background poller reads
// it on every tick and only touches the cache while the main menu is showing.
package nav

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Screen identifies a menu.
type Screen int

const (
	MainMenu Screen = iota
	ConfigMenu
	VMMenu
)

func (s Screen) String() string {
	switch s {
	case MainMenu:
		return "main"
	case ConfigMenu:
		return "config"
	case VMMenu:
		return "vm"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// State is the current menu and, for VMMenu, the VM it is about.
type State struct {
	Screen Screen
	VMID   string
}

func (s State) String() string {
	if s.Screen == VMMenu {
		return "vm(" + s.VMID + ")"
	}
	return s.Screen.String()
}

// Transition describes a completed state change.
type Transition struct {
	From State
	To   State
	// Redraw asks the UI for a full clear and repaint. Set when returning to
	// the main menu so no submenu residue is left on screen.
	Redraw bool
}

// ErrInvalidTransition is returned for edges the menu graph does not have.
var ErrInvalidTransition = errors.New("invalid menu transition")

// Machine holds the navigation state. Transitions come from the interactive
// loop only; Current and Suspended may be called from any goroutine.
type Machine struct {
	mu  sync.Mutex
	cur atomic.Pointer[State]
}

// New returns a machine on the main menu.
func New() *Machine {
	m := &Machine{}
	m.cur.Store(&State{Screen: MainMenu})
	return m
}

// Current returns the current state.
func (m *Machine) Current() State {
	return *m.cur.Load()
}

// Suspended reports whether background refreshes must stay away from the
// cache, which is whenever a submenu is open.
func (m *Machine) Suspended() bool {
	return m.cur.Load().Screen != MainMenu
}

// OpenConfig moves from the main menu to the config menu.
func (m *Machine) OpenConfig() (Transition, error) {
	return m.move(State{Screen: ConfigMenu}, func(from State) bool {
		return from.Screen == MainMenu
	})
}

// SelectVM moves from the main menu to id's VM menu.
func (m *Machine) SelectVM(id string) (Transition, error) {
	if id == "" {
		return Transition{}, fmt.Errorf("%w: empty VM id", ErrInvalidTransition)
	}
	return m.move(State{Screen: VMMenu, VMID: id}, func(from State) bool {
		return from.Screen == MainMenu
	})
}

// Back returns from a submenu to the main menu.
func (m *Machine) Back() (Transition, error) {
	return m.move(State{Screen: MainMenu}, func(from State) bool {
		return from.Screen != MainMenu
	})
}

func (m *Machine) move(to State, allowed func(from State) bool) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := *m.cur.Load()
	if !allowed(from) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	next := to
	m.cur.Store(&next)
	return Transition{From: from, To: to, Redraw: to.Screen == MainMenu}, nil
}
