package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Action accepted
	SymbolFail     = "✗" // Action failed
	SymbolPending  = "○" // Not started
	SymbolComplete = "●" // Power state badge
	SymbolSkipped  = "⊘" // Skipped
	SymbolHidden   = "◌" // Hidden in the UI
)
