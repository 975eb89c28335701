package vmrest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// PowerState is a VM's power state as reported by vmrest.
type PowerState int

const (
	PowerUnknown PowerState = iota
	PowerOn
	PowerOff
	PowerSuspended
)

// ParsePowerState maps the API's power_state string. Anything unrecognised
// is PowerUnknown.
func ParsePowerState(s string) PowerState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poweredon":
		return PowerOn
	case "poweredoff":
		return PowerOff
	case "suspended":
		return PowerSuspended
	default:
		return PowerUnknown
	}
}

// String returns the API spelling of the state.
func (p PowerState) String() string {
	switch p {
	case PowerOn:
		return "poweredOn"
	case PowerOff:
		return "poweredOff"
	case PowerSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Label is the short form used in the VM table.
func (p PowerState) Label() string {
	switch p {
	case PowerOn:
		return "On"
	case PowerOff:
		return "Off"
	case PowerSuspended:
		return "Sus"
	default:
		return "???"
	}
}

// Action is a power operation accepted by PUT /vms/{id}/power.
type Action string

const (
	ActionOn       Action = "on"
	ActionOff      Action = "off"
	ActionShutdown Action = "shutdown"
	ActionSuspend  Action = "suspend"
)

// Actions lists every supported action.
var Actions = []Action{ActionOn, ActionShutdown, ActionOff, ActionSuspend}

// ParseAction validates a user-supplied action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown power action %q (want on, off, shutdown or suspend)", s)
}

// VMSummary is one element of GET /vms.
type VMSummary struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Details is the body of GET /vms/{id}.
type Details struct {
	ID  string `json:"id"`
	CPU struct {
		Processors int `json:"processors"`
	} `json:"cpu"`
	// Memory is in MB.
	Memory int `json:"memory"`
}

type powerResponse struct {
	PowerState string `json:"power_state"`
}

var vmxDirPattern = regexp.MustCompile(`Virtual Machines[/\\]([^/\\]+)[/\\][^/\\]+\.vmx$`)

// CleanName derives a display name from a .vmx path. VMs stored under a
// "Virtual Machines" folder are named after their directory; anything else
// uses the file name without extension.
func CleanName(path string) string {
	if m := vmxDirPattern.FindStringSubmatch(path); m != nil {
		return m[1]
	}

	// filepath.Base only understands the host separator; vmrest on Windows
	// reports backslash paths.
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
