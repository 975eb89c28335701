package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/vmm/internal/config"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/vmrest"
	vmresttest "github.com/rileyhilliard/vmm/internal/vmrest/testing"
	"github.com/stretchr/testify/require"
)

const (
	ubuntuPath = `C:\Users\me\Documents\Virtual Machines\ubuntu-dev\ubuntu-dev.vmx`
	winPath    = `C:\Users\me\Documents\Virtual Machines\win11\win11.vmx`
)

// useFakeAPI points the commands at a temp config and an in-memory vmrest.
func useFakeAPI(t *testing.T, vms ...vmrest.VMSummary) (*vmresttest.FakeClient, *config.Config) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.API.Username = "user"
	cfg.API.Password = "secret"
	cfg.Log.Dir = filepath.Join(dir, "logs")
	cfg.Theme.File = filepath.Join(dir, "themes", "themes.yaml")

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Write(path, cfg))

	// Keep the developer's own environment out of the way.
	t.Setenv("VMWARE_API_URL", "")
	t.Setenv("VMWARE_USERNAME", "")
	t.Setenv("VMWARE_PASSWORD", "")
	t.Setenv(logger.DebugEnv, "")

	fake := vmresttest.NewFakeClient(vms...)

	origCfgFile, origDebug, origNew := cfgFile, debugFlag, newDirectory
	t.Cleanup(func() {
		cfgFile, debugFlag, newDirectory = origCfgFile, origDebug, origNew
	})
	cfgFile = path
	debugFlag = false
	newDirectory = func(*config.Config, logger.Logger) (vmrest.Directory, error) {
		return fake, nil
	}
	return fake, cfg
}

func twoVMs() []vmrest.VMSummary {
	return []vmrest.VMSummary{
		{ID: "VM1", Path: ubuntuPath},
		{ID: "VM2", Path: winPath},
	}
}

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func failingDirectory(err error) func(*config.Config, logger.Logger) (vmrest.Directory, error) {
	return func(*config.Config, logger.Logger) (vmrest.Directory, error) {
		return nil, err
	}
}
