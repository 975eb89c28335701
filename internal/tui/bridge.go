package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/vmm/internal/poller"
)

// Sender is the part of *tea.Program the bridge needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge carries events from background goroutines into the running
// program. Messages sent before Attach are dropped.
type Bridge struct {
	program atomic.Pointer[senderBox]
}

type senderBox struct{ s Sender }

// NewBridge creates an unattached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach points the bridge at a running program.
func (b *Bridge) Attach(s Sender) {
	b.program.Store(&senderBox{s: s})
}

func (b *Bridge) send(msg tea.Msg) {
	if box := b.program.Load(); box != nil {
		box.s.Send(msg)
	}
}

// Refreshed implements poller.Notifier.
func (b *Bridge) Refreshed(o poller.Outcome) {
	b.send(RefreshedMsg{Outcome: o})
}

// ThemeChanged tells the program to rebuild its styles.
func (b *Bridge) ThemeChanged() {
	b.send(ThemeChangedMsg{})
}

var _ poller.Notifier = (*Bridge)(nil)
