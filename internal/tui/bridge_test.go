package tui

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/vmm/internal/poller"
	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func TestBridge(t *testing.T) {
	b := NewBridge()
	b.Refreshed(poller.Full) // dropped, nothing attached yet

	s := &recordingSender{}
	b.Attach(s)
	b.Refreshed(poller.Power)
	b.ThemeChanged()

	assert.Equal(t, []tea.Msg{RefreshedMsg{Outcome: poller.Power}, ThemeChangedMsg{}}, s.msgs)
}
