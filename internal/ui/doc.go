// Package ui renders the output of vmm's one-shot commands (list, power).
// The interactive screens live in package tui.
//
// # Color Scheme
//
// Colors are ANSI codes so they follow the terminal palette:
//
//	ColorSuccess (green)  - powered on, accepted actions
//	ColorError   (red)    - powered off, failures
//	ColorWarning (yellow) - suspended, skipped
//	ColorMuted   (gray)   - IDs, hidden VMs, timing
//
// # Spinner Usage
//
//	s := ui.NewSpinner("Powering on ubuntu-dev", os.Stdout, isTTY)
//	s.Start()
//	// ... wait for vmrest ...
//	s.Success() // or s.Fail() or s.Skip()
//
// When the writer is not a terminal the spinner skips the animation and
// prints only the final line.
package ui
