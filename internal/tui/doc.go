// Package tui implements the interactive terminal UI for managing VMware
// Workstation VMs.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: screen state, cursors, message panes and the current styles
//   - Update: keystrokes, UI ticks, poller notifications, request results
//   - View: renders the screen the navigation machine says is active
//
// The VM data itself is not owned by the model. It lives in a shared
// vmcache.Cache that the background poller also writes to. The model reads
// snapshots from the cache and never holds on to cache internals.
//
// # Screens
//
//	Main menu    - VM table, API call panel, log panel
//	VM menu      - Start / Shutdown / Stop / Suspend for one VM
//	Config menu  - themes, inversion toggles, hidden VMs
//
// Which screen is active is decided by nav.Machine. The poller consults the
// same machine and skips its work whenever a submenu is open.
//
// # Message Flow
//
//  1. uiTickMsg fires every 250ms so the log panels stay current
//  2. The poller refreshes the cache and sends RefreshedMsg through a Bridge
//  3. The model re-reads the cache snapshot and re-renders
//
// Everything that writes to the cache from the UI (the 'r' refresh, the VM
// menu's 5 second summary refresh, the refresh after a power action, and
// the hidden-VM picker) runs as a tea.Cmd that holds the gate.Gate for the
// duration of the write.
//
// # Keyboard Shortcuts
//
//	q / Ctrl+C    Quit (q goes back from a submenu)
//	r             Refresh the VM list now
//	c             Configuration menu
//	up/k down/j   Move
//	Enter         Open VM menu / select
//	Esc           Back
//	?             Help
package tui
