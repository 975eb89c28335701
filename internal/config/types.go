package config

import "time"

// Config is the complete vmm configuration after defaults, config file,
// .env file and environment have been merged.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Theme   ThemeConfig   `yaml:"theme" mapstructure:"theme"`
}

// APIConfig describes how to reach the vmrest service.
type APIConfig struct {
	// URL is the VM collection endpoint, e.g. http://localhost:8697/api/vms.
	URL      string `yaml:"url" mapstructure:"url"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`

	// Timeout bounds every HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// RequestsPerSecond caps calls to vmrest. Zero disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	// Insecure skips TLS verification for self-signed vmrest certificates.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
}

// RefreshConfig holds cache lifetimes and background poller timings.
type RefreshConfig struct {
	CacheTTL    time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	Base        time.Duration `yaml:"base" mapstructure:"base"`
	PowerTick   time.Duration `yaml:"power_tick" mapstructure:"power_tick"`
	FullTick    time.Duration `yaml:"full_tick" mapstructure:"full_tick"`
	GateTimeout time.Duration `yaml:"gate_timeout" mapstructure:"gate_timeout"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`
	DetailsTick time.Duration `yaml:"details_tick" mapstructure:"details_tick"`

	// Concurrency bounds parallel power-state fetches during a full refresh.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig controls where session logs go.
type LogConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Debug    bool   `yaml:"debug" mapstructure:"debug"`
	FeedSize int    `yaml:"feed_size" mapstructure:"feed_size"`
}

// ThemeConfig points at the persisted theme file.
type ThemeConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultAPIURL is where a local `vmrest` listens out of the box.
const DefaultAPIURL = "http://localhost:8697/api/vms"

// DefaultConfig returns a config with all defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:               DefaultAPIURL,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 20,
			Burst:             10,
		},
		Refresh: RefreshConfig{
			CacheTTL:    5 * time.Second,
			Base:        5 * time.Second,
			PowerTick:   10 * time.Second,
			FullTick:    30 * time.Second,
			GateTimeout: time.Second,
			Backoff:     time.Second,
			DetailsTick: 5 * time.Second,
			Concurrency: 4,
		},
		Log: LogConfig{
			Dir:      "~/.local/state/vmm",
			FeedSize: 100,
		},
		Theme: ThemeConfig{
			File: "~/.config/vmm/themes.yaml",
		},
	}
}
