package cli

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withVersion sets the build info for one test.
func withVersion(t *testing.T, v, c, d string) {
	t.Helper()
	origVersion, origCommit, origDate := version, commit, date
	t.Cleanup(func() {
		version, commit, date = origVersion, origCommit, origDate
	})
	SetVersionInfo(v, c, d)
}

func TestVersionOutput(t *testing.T) {
	withVersion(t, "1.2.3", "abc1234", "2026-01-08T12:00:00Z")

	var buf bytes.Buffer
	printVersion(&buf, false)
	output := buf.String()

	assert.Contains(t, output, "vmm v1.2.3", "should show version with v prefix")
	assert.Contains(t, output, "commit: abc1234")
	assert.Contains(t, output, "built: 2026-01-08T12:00:00Z")
	assert.Contains(t, output, "go: "+runtime.Version())
	assert.Contains(t, output, "os/arch: "+runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionOutputShort(t *testing.T) {
	withVersion(t, "1.2.3", "abc1234", "unknown")

	var buf bytes.Buffer
	printVersion(&buf, true)
	assert.Equal(t, "1.2.3", strings.TrimSpace(buf.String()))
}

func TestVersionOutputDev(t *testing.T) {
	withVersion(t, "dev", "none", "unknown")

	var buf bytes.Buffer
	printVersion(&buf, false)
	assert.Contains(t, buf.String(), "vmm dev", "dev version should not have v prefix")
}

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty string", input: "", want: ""},
		{name: "dev version", input: "dev", want: "dev"},
		{name: "version without prefix", input: "1.2.3", want: "v1.2.3"},
		{name: "version with prefix", input: "v1.2.3", want: "v1.2.3"},
		{name: "version with prerelease", input: "1.2.3-beta.1", want: "v1.2.3-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatVersion(tt.input))
		})
	}
}

func TestVersionCommandHasShortFlag(t *testing.T) {
	flag := versionCmd.Flags().Lookup("short")
	require.NotNil(t, flag, "version command should have --short flag")
	assert.Equal(t, "bool", flag.Value.Type())
	assert.Equal(t, "false", flag.DefValue)
}

func TestGetVersion(t *testing.T) {
	withVersion(t, "3.0.0", "none", "unknown")
	assert.Equal(t, "3.0.0", GetVersion())
}
