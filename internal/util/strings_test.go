package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	assert.Equal(t, "0 VMs", Count(0, "VM"))
	assert.Equal(t, "1 VM", Count(1, "VM"))
	assert.Equal(t, "2 issues", Count(2, "issue"))
}

func TestOrList(t *testing.T) {
	tests := []struct {
		name    string
		choices []string
		want    string
	}{
		{name: "nil", choices: nil, want: "(none)"},
		{name: "one", choices: []string{"on"}, want: "on"},
		{name: "two", choices: []string{"on", "off"}, want: "on or off"},
		{name: "four", choices: []string{"on", "shutdown", "off", "suspend"}, want: "on, shutdown, off or suspend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrList(tt.choices))
		})
	}
}
