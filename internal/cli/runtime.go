package cli

import (
	"context"
	"os"
	"strings"

	"github.com/rileyhilliard/vmm/internal/config"
	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/vmcache"
	"github.com/rileyhilliard/vmm/internal/vmrest"
	"github.com/sahilm/fuzzy"
	"golang.org/x/term"
)

// newDirectory builds the vmrest client. Tests replace it with a fake.
var newDirectory = func(cfg *config.Config, log logger.Logger) (vmrest.Directory, error) {
	return vmrest.NewClient(vmrest.Options{
		BaseURL:           cfg.API.URL,
		Username:          cfg.API.Username,
		Password:          cfg.API.Password,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		Insecure:          cfg.API.Insecure,
		Logger:            log,
	})
}

// loadConfig loads and validates the config, applying --debug.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if debugFlag {
		cfg.Log.Debug = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// oneShot is what the non-interactive commands share: a config, a client
// and a cache in front of it.
type oneShot struct {
	cfg    *config.Config
	client vmrest.Directory
	cache  *vmcache.Cache
	log    logger.Logger
}

func newOneShot() (*oneShot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Log.Debug {
		os.Setenv(logger.DebugEnv, "1") //nolint:errcheck,gosec
	}

	log := logger.NewEnvLogger("vmm")
	client, err := newDirectory(cfg, log)
	if err != nil {
		return nil, err
	}

	return &oneShot{
		cfg:    cfg,
		client: client,
		cache: vmcache.New(client, vmcache.Options{
			TTL:         cfg.Refresh.CacheTTL,
			Concurrency: cfg.Refresh.Concurrency,
			Logger:      log,
		}),
		log: log,
	}, nil
}

// inventory fetches the VM list with power states. The cache only logs a
// failed list call, so an empty capture time is how the failure shows up.
func (s *oneShot) inventory(ctx context.Context) ([]vmcache.VM, error) {
	vms := s.cache.Inventory(ctx, true)
	if s.cache.Captured().IsZero() {
		return nil, errors.New(errors.ErrNetwork,
			"Could not list VMs from "+s.cfg.API.URL,
			"Check that vmrest is running and the credentials are right (run with --debug for details)")
	}
	return vms, nil
}

// findVM resolves ref against vms by ID, then by display name ignoring
// case. A name shared by several VMs is an error.
func findVM(vms []vmcache.VM, ref string) (vmcache.VM, error) {
	for _, vm := range vms {
		if vm.ID == ref {
			return vm, nil
		}
	}

	var matches []vmcache.VM
	for _, vm := range vms {
		if strings.EqualFold(vm.Name, ref) {
			matches = append(matches, vm)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		suggestion := "Run 'vmm list' to see the available VMs"
		if near := closestNames(vms, ref, 3); len(near) > 0 {
			suggestion = "Did you mean: " + strings.Join(near, ", ") + "?"
		}
		return vmcache.VM{}, errors.New(errors.ErrNotFound,
			"No VM named or with ID "+ref,
			suggestion)
	default:
		return vmcache.VM{}, errors.New(errors.ErrNotFound,
			"More than one VM is named "+ref,
			"Use the VM ID instead (see 'vmm list')")
	}
}

// closestNames returns up to limit VM names that fuzzy-match ref, best
// first.
func closestNames(vms []vmcache.VM, ref string, limit int) []string {
	names := make([]string, len(vms))
	for i, vm := range vms {
		names[i] = vm.Name
	}

	matches := fuzzy.Find(strings.ToLower(ref), lowerAll(names))
	out := make([]string, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, names[m.Index])
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// terminalWidth is the width of stdout, or 0 when it isn't a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
