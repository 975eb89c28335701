package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/vmm/internal/config"
	"github.com/rileyhilliard/vmm/internal/doctor"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/ui"
	"github.com/rileyhilliard/vmm/internal/util"
)

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

var doctorCategoryOrder = []string{doctor.CategoryConfig, doctor.CategoryFiles, doctor.CategoryAPI}

// doctorCommand implements the doctor command logic.
func doctorCommand(ctx context.Context, out io.Writer, jsonOut, fix bool) error {
	checks := collectChecks()

	results := doctor.RunAll(ctx, checks)
	if fix {
		results = doctor.FixAll(ctx, checks, results)
	}

	if jsonOut {
		return outputDoctorJSON(out, checks, results)
	}
	outputDoctorText(out, checks, results, fix)
	return nil
}

// collectChecks gathers the checks the current config allows. File checks
// fall back to default paths when the config does not load, and the API
// check only runs with a valid config.
func collectChecks() []doctor.Check {
	checks := doctor.NewConfigChecks(cfgFile)

	cfg, err := loadConfig()
	paths := cfg
	if err != nil {
		paths = config.DefaultConfig()
	}
	checks = append(checks, doctor.NewFileChecks(paths.Log.Dir, paths.Theme.File)...)

	if err == nil {
		client, cerr := newDirectory(cfg, logger.NewEnvLogger("vmm"))
		if cerr == nil {
			checks = append(checks, doctor.NewAPIChecks(cfg.API.URL, client)...)
		}
	}
	return checks
}

// groupByCategory returns result indices per category in report order.
func groupByCategory(checks []doctor.Check) map[string][]int {
	grouped := make(map[string][]int)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], i)
	}
	return grouped
}

func outputDoctorJSON(out io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	grouped := groupByCategory(checks)

	output := DoctorOutput{
		Categories: make([]CategoryOutput, 0, len(grouped)),
	}
	for _, cat := range doctorCategoryOrder {
		indices, ok := grouped[cat]
		if !ok {
			continue
		}
		co := CategoryOutput{Name: cat}
		for _, idx := range indices {
			co.Results = append(co.Results, results[idx])
		}
		output.Categories = append(output.Categories, co)
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Fixable:  doctor.FixableCount(results),
		AllClear: !doctor.HasIssues(results),
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputDoctorText(out io.Writer, checks []doctor.Check, results []doctor.CheckResult, fixed bool) {
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("vmm Diagnostic Report"))
	fmt.Fprintln(out)

	grouped := groupByCategory(checks)
	for _, category := range doctorCategoryOrder {
		indices, ok := grouped[category]
		if !ok {
			continue
		}
		fmt.Fprintln(out, headerStyle.Render(category))
		for _, idx := range indices {
			renderCheckResult(out, results[idx])
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, strings.Repeat("━", 60))
	fmt.Fprintln(out)

	if !doctor.HasIssues(results) {
		fmt.Fprintf(out, "%s %s\n", successStyle.Render(ui.SymbolSuccess), doctor.Summary(results))
	} else {
		fmt.Fprintf(out, "%s %s\n", errorStyle.Render(ui.SymbolFail), doctor.Summary(results))
		if n := doctor.FixableCount(results); n > 0 && !fixed {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Run with %s to fix %s automatically.\n",
				mutedStyle.Render("--fix"), util.Count(n, "issue"))
		}
	}
	fmt.Fprintln(out)
}

// renderCheckResult renders a single check result.
func renderCheckResult(out io.Writer, result doctor.CheckResult) {
	var symbol string
	var color lipgloss.Color
	switch result.Status {
	case doctor.StatusPass:
		symbol, color = ui.SymbolComplete, ui.ColorSuccess
	case doctor.StatusWarn:
		symbol, color = ui.SymbolComplete, ui.ColorWarning
	default:
		symbol, color = ui.SymbolFail, ui.ColorError
	}

	fmt.Fprintf(out, "  %s %s\n", lipgloss.NewStyle().Foreground(color).Render(symbol), result.Message)
	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(out, "    %s\n", muted.Render(line))
		}
	}
}
