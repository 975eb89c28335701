package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/ui"
	"github.com/rileyhilliard/vmm/internal/util"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// PowerOptions holds options for the power command.
type PowerOptions struct {
	VM     string // ID or display name
	Action string // on, off, shutdown or suspend
	Wait   bool   // Read the power state back afterwards
	JSON   bool
}

// PowerOutput is the --json result of the power command.
type PowerOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Action string `json:"action"`
	Power  string `json:"power_state,omitempty"`
}

var actionVerbs = map[vmrest.Action]string{
	vmrest.ActionOn:       "Powering on",
	vmrest.ActionShutdown: "Shutting down",
	vmrest.ActionOff:      "Powering off",
	vmrest.ActionSuspend:  "Suspending",
}

func actionNames() []string {
	names := make([]string, len(vmrest.Actions))
	for i, a := range vmrest.Actions {
		names[i] = string(a)
	}
	return names
}

// powerCommand sends one power action to one VM.
func powerCommand(ctx context.Context, out io.Writer, opts PowerOptions) error {
	fail := func(err error) error {
		if opts.JSON {
			return writeJSONErr(out, err)
		}
		return err
	}

	action, err := vmrest.ParseAction(opts.Action)
	if err != nil {
		return fail(errors.WrapWithCode(err, errors.ErrConfig,
			"Unknown power action: "+opts.Action,
			"Valid actions: "+util.OrList(actionNames())))
	}

	s, err := newOneShot()
	if err != nil {
		return fail(err)
	}
	vms, err := s.inventory(ctx)
	if err != nil {
		return fail(err)
	}
	vm, err := findVM(vms, opts.VM)
	if err != nil {
		return fail(err)
	}

	spinOut, animated := out, false
	if f, ok := out.(*os.File); ok {
		animated = isTerminal(f)
	}
	if opts.JSON {
		spinOut, animated = io.Discard, false
	}
	spin := ui.NewSpinner(fmt.Sprintf("%s %s", actionVerbs[action], vm.Name), spinOut, animated)
	spin.Start()

	s.log.Debug("PUT power %s for %s", action, vm.ID)
	if err := s.client.SetPower(ctx, vm.ID, action); err != nil {
		spin.Fail()
		return fail(err)
	}
	spin.Success()

	result := PowerOutput{ID: vm.ID, Name: vm.Name, Action: string(action)}
	if opts.Wait {
		p := s.cache.RefreshPower(ctx, vm.ID)
		if p != vmrest.PowerUnknown {
			result.Power = p.String()
		}
	}

	if opts.JSON {
		return WriteJSONSuccess(out, result)
	}
	if result.Power != "" {
		fmt.Fprintf(out, "%s is now %s\n", vm.Name, result.Power)
	}
	return nil
}
