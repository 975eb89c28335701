package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile   string
	debugFlag bool
)

// rootCmd starts the interactive UI when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "vmm",
	Short: "Manage VMware Workstation VMs from the terminal",
	Long: `vmm talks to the VMware Workstation REST API (vmrest) and shows your
VMs in an interactive terminal UI. Power VMs on and off, hide the ones you
don't care about, and pick a colour theme.

Configuration comes from ./.vmm.yaml or ~/.config/vmm/config.yaml, a .env
file in the working directory, and the VMWARE_API_URL, VMWARE_USERNAME and
VMWARE_PASSWORD environment variables.

Run 'vmm init' to create a config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return uiCommand(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./.vmm.yaml, then ~/.config/vmm/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log debug lines")
}

// Execute runs the root command. It is the entry point from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var silent errSilent
		if !stderrors.As(err, &silent) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
