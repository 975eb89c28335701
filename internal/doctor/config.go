package doctor

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/vmm/internal/config"
	"github.com/rileyhilliard/vmm/internal/errors"
)

// ConfigFileCheck reports which config file is in use. Running on the
// environment alone is allowed, so a missing file is only a warning.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(_ context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Error finding config: " + errors.Short(err),
			Suggestion: "Check the --config path and its permissions",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using the environment only",
			Suggestion: "Run 'vmm init' to create ~/.config/vmm/config.yaml",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Config file: " + path,
	}
}

func (c *ConfigFileCheck) Fix() error {
	return nil // init is interactive
}

// ConfigValidCheck loads the merged config and validates it.
type ConfigValidCheck struct {
	ConfigPath string
}

func (c *ConfigValidCheck) Name() string     { return "config_valid" }
func (c *ConfigValidCheck) Category() string { return CategoryConfig }

func (c *ConfigValidCheck) Run(_ context.Context) CheckResult {
	cfg, _, err := config.LoadOrDefault(c.ConfigPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		res := CheckResult{
			Name:    c.Name(),
			Status:  StatusFail,
			Message: errors.Short(err),
		}
		var vmErr *errors.Error
		if stderrors.As(err, &vmErr) {
			res.Suggestion = vmErr.Suggestion
		}
		return res
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Settings valid (API %s as %s)", cfg.API.URL, cfg.API.Username),
	}
}

func (c *ConfigValidCheck) Fix() error {
	return nil // Config problems need the user
}

// NewConfigChecks creates the config checks.
func NewConfigChecks(configPath string) []Check {
	return []Check{
		&ConfigFileCheck{ConfigPath: configPath},
		&ConfigValidCheck{ConfigPath: configPath},
	}
}
