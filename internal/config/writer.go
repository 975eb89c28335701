package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileHeader = `# vmm configuration
# Environment variables (VMWARE_API_URL, VMWARE_USERNAME, VMWARE_PASSWORD,
# VMM_*) and a .env file in the working directory override these values.

`

// Write saves cfg as YAML at path, creating parent directories. The file is
// written 0600 because it may hold the vmrest password.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(toFile(cfg))
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// toFile renders durations as strings ("10s") instead of nanosecond counts.
func toFile(cfg *Config) map[string]interface{} {
	api := map[string]interface{}{
		"url":                 cfg.API.URL,
		"username":            cfg.API.Username,
		"timeout":             cfg.API.Timeout.String(),
		"requests_per_second": cfg.API.RequestsPerSecond,
		"burst":               cfg.API.Burst,
		"insecure":            cfg.API.Insecure,
	}
	if cfg.API.Password != "" {
		api["password"] = cfg.API.Password
	}

	return map[string]interface{}{
		"api": api,
		"refresh": map[string]interface{}{
			"cache_ttl":    cfg.Refresh.CacheTTL.String(),
			"base":         cfg.Refresh.Base.String(),
			"power_tick":   cfg.Refresh.PowerTick.String(),
			"full_tick":    cfg.Refresh.FullTick.String(),
			"gate_timeout": cfg.Refresh.GateTimeout.String(),
			"backoff":      cfg.Refresh.Backoff.String(),
			"details_tick": cfg.Refresh.DetailsTick.String(),
			"concurrency":  cfg.Refresh.Concurrency,
		},
		"log": map[string]interface{}{
			"dir":       cfg.Log.Dir,
			"debug":     cfg.Log.Debug,
			"feed_size": cfg.Log.FeedSize,
		},
		"theme": map[string]interface{}{
			"file": cfg.Theme.File,
		},
	}
}
