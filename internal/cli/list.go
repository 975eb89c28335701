package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/vmm/internal/ui"
	"github.com/rileyhilliard/vmm/internal/util"
	"github.com/rileyhilliard/vmm/internal/vmrest"
)

// VMOutput is one VM in `vmm list --json`.
type VMOutput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	Power string `json:"power_state"`
}

// listCommand prints every VM with its power state.
func listCommand(ctx context.Context, out io.Writer, jsonOut bool) error {
	s, err := newOneShot()
	if err != nil {
		if jsonOut {
			return writeJSONErr(out, err)
		}
		return err
	}

	vms, err := s.inventory(ctx)
	if err != nil {
		if jsonOut {
			return writeJSONErr(out, err)
		}
		return err
	}

	if jsonOut {
		data := make([]VMOutput, len(vms))
		for i, vm := range vms {
			data[i] = VMOutput{ID: vm.ID, Name: vm.Name, Path: vm.Path, Power: vm.Power.String()}
		}
		return WriteJSONSuccess(out, data)
	}

	rows := make([]ui.VMRow, len(vms))
	on := 0
	for i, vm := range vms {
		rows[i] = ui.VMRow{Name: vm.Name, ID: vm.ID, Power: vm.Power}
		if vm.Power == vmrest.PowerOn {
			on++
		}
	}

	fmt.Fprint(out, ui.RenderVMTable(rows, terminalWidth()))
	if len(vms) > 0 {
		fmt.Fprintf(out, "\n%s, %d powered on\n", util.Count(len(vms), "VM"), on)
	}
	return nil
}

// writeJSONErr reports err in the JSON envelope and still fails the command.
func writeJSONErr(out io.Writer, err error) error {
	if werr := WriteJSONFromError(out, err); werr != nil {
		return werr
	}
	return errSilent{err}
}

// errSilent marks an error that has already been reported on stdout.
type errSilent struct{ err error }

func (e errSilent) Error() string { return e.err.Error() }
func (e errSilent) Unwrap() error { return e.err }
