// Package cli implements the vmm command-line interface.
//
// Each cobra.Command delegates to a plain function (uiCommand, listCommand,
// powerCommand, initCommand) that takes its inputs as arguments, so the
// commands can be exercised without going through flag parsing.
//
// # Command Structure
//
//	vmm                          - Interactive UI (same as 'vmm ui')
//	vmm list [--json]            - Print VMs and power states
//	vmm power <vm> <action>      - on, shutdown, off or suspend one VM
//	vmm init [--force]           - Create ~/.config/vmm/config.yaml
//	vmm doctor [--fix] [--json]  - Check config, files and the vmrest connection
//	vmm version                  - Build information
//	vmm completion <shell>       - Shell completion script
//
// # Configuration
//
// Settings are read from ./.vmm.yaml or ~/.config/vmm/config.yaml (or the
// file given with --config), then a .env file in the working directory,
// then the environment. VMWARE_API_URL, VMWARE_USERNAME and
// VMWARE_PASSWORD are honoured as-is; every other key can be set with a
// VMM_ prefix, e.g. VMM_REFRESH_POWER_TICK=15s.
//
// # Interactive Mode
//
// uiCommand wires the long-lived pieces together:
//
//  1. Load and validate config, open the session log files
//  2. Build the vmrest client and the VM cache, fetch the inventory once
//  3. Start the theme file watcher and the Bubble Tea program
//  4. Start the background poller, which reports to the program through
//     a tui.Bridge
//
// The poller and the UI share one gate.Gate so only one of them writes to
// the cache at a time.
//
// # Machine-Readable Output
//
// list and power accept --json and wrap their output in a JSONEnvelope.
// Failures are reported in the same envelope with a stable error code.
// doctor --json prints its own report grouped by check category.
package cli
