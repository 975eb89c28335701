package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/vmrest"
	vmresttest "github.com/rileyhilliard/vmm/internal/vmrest/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerCommandByName(t *testing.T) {
	fake, _ := useFakeAPI(t, twoVMs()...)

	var out bytes.Buffer
	err := powerCommand(context.Background(), &out, PowerOptions{VM: "Ubuntu-Dev", Action: "on", Wait: true})
	require.NoError(t, err)

	assert.Equal(t, []vmresttest.SetPowerCall{{ID: "VM1", Action: vmrest.ActionOn}}, fake.SetPowerCalls)
	assert.Contains(t, out.String(), "Powering on ubuntu-dev")
	assert.Contains(t, out.String(), "ubuntu-dev is now poweredOn")
}

func TestPowerCommandByID(t *testing.T) {
	fake, _ := useFakeAPI(t, twoVMs()...)
	fake.SetPowerState("VM2", vmrest.PowerOn)

	var out bytes.Buffer
	err := powerCommand(context.Background(), &out, PowerOptions{VM: "VM2", Action: "suspend", Wait: true})
	require.NoError(t, err)

	assert.Equal(t, []vmresttest.SetPowerCall{{ID: "VM2", Action: vmrest.ActionSuspend}}, fake.SetPowerCalls)
	assert.Contains(t, out.String(), "win11 is now suspended")
}

func TestPowerCommandNoWait(t *testing.T) {
	fake, _ := useFakeAPI(t, twoVMs()...)

	var out bytes.Buffer
	err := powerCommand(context.Background(), &out, PowerOptions{VM: "win11", Action: "shutdown"})
	require.NoError(t, err)

	require.Len(t, fake.SetPowerCalls, 1)
	assert.Equal(t, vmrest.ActionShutdown, fake.SetPowerCalls[0].Action)
	assert.NotContains(t, out.String(), "is now")
}

func TestPowerCommandUnknownAction(t *testing.T) {
	fake, _ := useFakeAPI(t, twoVMs()...)

	err := powerCommand(context.Background(), &bytes.Buffer{}, PowerOptions{VM: "win11", Action: "reboot"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "Valid actions: on, shutdown, off or suspend")
	assert.Empty(t, fake.SetPowerCalls)
}

func TestPowerCommandUnknownVM(t *testing.T) {
	fake, _ := useFakeAPI(t, twoVMs()...)

	err := powerCommand(context.Background(), &bytes.Buffer{}, PowerOptions{VM: "fedora", Action: "on"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
	assert.Empty(t, fake.SetPowerCalls)
}

func TestPowerCommandRejected(t *testing.T) {
	fake, _ := useFakeAPI(t, twoVMs()...)
	fake.SetPowerErr = errors.WrapWithCode(&vmrest.APIError{Code: 409, Message: "busy"},
		errors.ErrRejected, "vmrest refused PUT", "")

	var out bytes.Buffer
	err := powerCommand(context.Background(), &out, PowerOptions{VM: "win11", Action: "on", JSON: true})
	require.Error(t, err)

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(out.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeAPIRejected, env.Error.Code)
	assert.Equal(t, map[string]interface{}{"status": float64(409)}, env.Error.Details)
}

func TestPowerCommandJSON(t *testing.T) {
	useFakeAPI(t, twoVMs()...)

	var out bytes.Buffer
	err := powerCommand(context.Background(), &out, PowerOptions{VM: "VM1", Action: "off", Wait: true, JSON: true})
	require.NoError(t, err)

	var env struct {
		Success bool        `json:"success"`
		Data    PowerOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, PowerOutput{ID: "VM1", Name: "ubuntu-dev", Action: "off", Power: "poweredOff"}, env.Data)
}

func TestActionNames(t *testing.T) {
	assert.Equal(t, []string{"on", "shutdown", "off", "suspend"}, actionNames())
	for _, a := range vmrest.Actions {
		assert.NotEmpty(t, actionVerbs[a], "verb for %s", a)
	}
}
