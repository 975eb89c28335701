package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the per-directory config file name.
	ConfigFileName = ".vmm.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/vmm"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// DotEnvFile is read from the working directory when present.
	DotEnvFile = ".env"

	// EnvPrefix prefixes every other environment override, e.g.
	// VMM_REFRESH_POWER_TICK=15s.
	EnvPrefix = "VMM"
)

// envBindings are the variable names the hypervisor tooling already uses.
var envBindings = map[string]string{
	"api.url":      "VMWARE_API_URL",
	"api.username": "VMWARE_USERNAME",
	"api.password": "VMWARE_PASSWORD",
	"log.debug":    "VMM_DEBUG",
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .vmm.yaml in current directory
// 3. ~/.config/vmm/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if global := GlobalConfigPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalConfigPath returns ~/.config/vmm/config.yaml, or "" without a home dir.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// Load merges defaults, the config file at path (if any), a .env file in
// dotEnvDir (if any) and the environment. Environment beats .env, which
// beats the config file.
func Load(path, dotEnvDir string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'vmm init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	if dotEnvDir != "" {
		if err := mergeDotEnv(v, filepath.Join(dotEnvDir, DotEnvFile)); err != nil {
			return nil, err
		}
	}

	return parseConfig(v, path)
}

// LoadOrDefault finds the config file and loads it with the working
// directory's .env applied.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	cwd, _ := os.Getwd()
	cfg, err := Load(path, cwd)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

// setDefaults registers every key so AutomaticEnv and Unmarshal see it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.url", d.API.URL)
	v.SetDefault("api.username", d.API.Username)
	v.SetDefault("api.password", d.API.Password)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.requests_per_second", d.API.RequestsPerSecond)
	v.SetDefault("api.burst", d.API.Burst)
	v.SetDefault("api.insecure", d.API.Insecure)

	v.SetDefault("refresh.cache_ttl", d.Refresh.CacheTTL)
	v.SetDefault("refresh.base", d.Refresh.Base)
	v.SetDefault("refresh.power_tick", d.Refresh.PowerTick)
	v.SetDefault("refresh.full_tick", d.Refresh.FullTick)
	v.SetDefault("refresh.gate_timeout", d.Refresh.GateTimeout)
	v.SetDefault("refresh.backoff", d.Refresh.Backoff)
	v.SetDefault("refresh.details_tick", d.Refresh.DetailsTick)
	v.SetDefault("refresh.concurrency", d.Refresh.Concurrency)

	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.feed_size", d.Log.FeedSize)

	v.SetDefault("theme.file", d.Theme.File)
}

// mergeDotEnv applies KEY=value pairs from a .env file for variables the
// real environment does not already set.
func mergeDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	dv := viper.New()
	dv.SetConfigFile(path)
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read "+path,
			"Use KEY=value lines, one per variable")
	}

	for key, env := range envBindings {
		if os.Getenv(env) != "" || !dv.IsSet(env) {
			continue
		}
		v.Set(key, dv.GetString(env))
	}
	return nil
}

// parseConfig converts viper config to our Config struct.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "the environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+where)
	}

	cfg.Log.Dir = ExpandTilde(cfg.Log.Dir)
	cfg.Theme.File = ExpandTilde(cfg.Theme.File)
	return cfg, nil
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
