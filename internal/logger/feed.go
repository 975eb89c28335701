package logger

import (
	"sync"
	"time"
)

// Source says which on-screen panel a feed entry belongs to.
type Source int

const (
	SourceLog Source = iota
	SourceAPI
)

// Entry is one line shown in a TUI log panel.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Source  Source
}

// DefaultFeedSize is the number of entries kept when NewFeed is given zero.
const DefaultFeedSize = 100

// Feed is a bounded queue of recent log entries for the TUI. When full, the
// oldest entry is dropped so a stalled UI never blocks a logging goroutine.
type Feed struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	count   int
	version uint64
}

// NewFeed creates a feed holding at most size entries.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{entries: make([]Entry, size)}
}

// Push appends e, evicting the oldest entry if the feed is full.
func (f *Feed) Push(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := (f.start + f.count) % len(f.entries)
	f.entries[idx] = e
	if f.count < len(f.entries) {
		f.count++
	} else {
		f.start = (f.start + 1) % len(f.entries)
	}
	f.version++
}

// Recent returns up to n of the newest entries from src, oldest first.
// n <= 0 returns all of them.
func (f *Feed) Recent(src Source, n int) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Entry
	for i := f.count - 1; i >= 0; i-- {
		e := f.entries[(f.start+i)%len(f.entries)]
		if e.Source != src {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len returns the number of buffered entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Version increases on every Push. The TUI compares it between repaints.
func (f *Feed) Version() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}
