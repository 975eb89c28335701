package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/theme"
)

// LogDirCheck verifies the session log directory exists and is writable.
type LogDirCheck struct {
	Dir string
}

func (c *LogDirCheck) Name() string     { return "log_dir" }
func (c *LogDirCheck) Category() string { return CategoryFiles }

func (c *LogDirCheck) Run(_ context.Context) CheckResult {
	info, err := os.Stat(c.Dir)
	if os.IsNotExist(err) {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "Log directory does not exist: " + c.Dir,
			Suggestion: "It is created on first start, or run 'vmm doctor --fix'",
			Fixable:    true,
		}
	}
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusFail,
			Message: fmt.Sprintf("Cannot access %s: %v", c.Dir, err),
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    c.Dir + " is not a directory",
			Suggestion: "Remove the file or point log.dir somewhere else",
		}
	}

	probe, err := os.CreateTemp(c.Dir, ".vmm-doctor-*")
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Log directory is not writable: " + c.Dir,
			Suggestion: "Fix the directory permissions or set VMM_LOG_DIR",
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Logs written to " + c.Dir,
	}
}

func (c *LogDirCheck) Fix() error {
	return os.MkdirAll(c.Dir, 0o755)
}

// ThemeFileCheck parses the theme file and validates every custom theme.
type ThemeFileCheck struct {
	Path string
}

func (c *ThemeFileCheck) Name() string     { return "theme_file" }
func (c *ThemeFileCheck) Category() string { return CategoryFiles }

func (c *ThemeFileCheck) Run(ctx context.Context) CheckResult {
	if _, err := os.Stat(c.Path); os.IsNotExist(err) {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "No theme file yet, using built-in themes",
		}
	}

	f, err := theme.NewStore(c.Path).Load(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Theme file is unreadable: " + errors.Short(err),
			Suggestion: fmt.Sprintf("Fix or remove %s; vmm falls back to the default theme", c.Path),
		}
	}

	for name, t := range f.CustomThemes {
		t := t
		if err := t.Validate(); err != nil {
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusWarn,
				Message:    fmt.Sprintf("Custom theme %q is invalid: %s", name, errors.Short(err)),
				Suggestion: "Delete it from the config menu or edit " + c.Path,
			}
		}
	}

	if cur := f.CurrentTheme; cur != "" && !theme.IsBuiltin(cur) {
		if _, ok := f.CustomThemes[cur]; !ok {
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusWarn,
				Message:    fmt.Sprintf("Current theme %q does not exist", cur),
				Suggestion: "Pick another theme in the config menu",
			}
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%d custom)", filepath.Base(c.Path), len(f.CustomThemes)),
	}
}

func (c *ThemeFileCheck) Fix() error {
	return nil // Removing a user's themes is their call
}

// NewFileChecks creates the file checks for the given config.
func NewFileChecks(logDir, themeFile string) []Check {
	return []Check{
		&LogDirCheck{Dir: logDir},
		&ThemeFileCheck{Path: themeFile},
	}
}
