package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rileyhilliard/vmm/internal/errors"
)

// Validate checks a loaded config and returns a CONFIG error describing the
// first problem found.
func Validate(cfg *Config) error {
	if err := validateAPI(cfg.API); err != nil {
		return err
	}
	return validateRefresh(cfg.Refresh)
}

func validateAPI(api APIConfig) error {
	u, err := url.Parse(api.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("API URL %q isn't a valid http(s) URL", api.URL),
			"Set VMWARE_API_URL, e.g. "+DefaultAPIURL)
	}

	if api.Username == "" {
		return errors.New(errors.ErrConfig,
			"No vmrest username configured",
			"Run 'vmm init' or set VMWARE_USERNAME (in the environment or a .env file)")
	}
	if api.Password == "" {
		return errors.New(errors.ErrConfig,
			"No vmrest password configured",
			"Set VMWARE_PASSWORD in the environment or a .env file")
	}

	if api.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("api.timeout must be positive, got %s", api.Timeout),
			"Try something like: timeout: 10s")
	}
	if api.RequestsPerSecond < 0 {
		return errors.New(errors.ErrConfig,
			"api.requests_per_second can't be negative",
			"Use 0 to disable rate limiting")
	}
	return nil
}

func validateRefresh(r RefreshConfig) error {
	durations := []struct {
		key string
		val time.Duration
	}{
		{"refresh.cache_ttl", r.CacheTTL},
		{"refresh.base", r.Base},
		{"refresh.power_tick", r.PowerTick},
		{"refresh.full_tick", r.FullTick},
		{"refresh.gate_timeout", r.GateTimeout},
		{"refresh.backoff", r.Backoff},
		{"refresh.details_tick", r.DetailsTick},
	}
	for _, d := range durations {
		if d.val <= 0 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("%s must be positive, got %s", d.key, d.val),
				"Use a Go duration like 5s or 1m")
		}
	}

	if r.FullTick < r.PowerTick {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh.full_tick (%s) is shorter than refresh.power_tick (%s)", r.FullTick, r.PowerTick),
			"A full refresh already updates power states, so full_tick should be the longer interval")
	}

	if r.Concurrency < 1 {
		return errors.New(errors.ErrConfig,
			"refresh.concurrency must be at least 1",
			"Try concurrency: 4")
	}
	return nil
}
