package cli

import (
	"os"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	listJSONFlag  bool
	powerJSONFlag bool
	powerNoWait   bool
	initForce     bool
	doctorJSON    bool
	doctorFix     bool
)

// uiCmd is the explicit form of running vmm with no arguments.
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Start the interactive VM manager",
	Long: `Start the interactive terminal UI.

Keyboard shortcuts:
  q / Ctrl+C  Quit (q goes back from a submenu)
  r           Refresh the VM list now
  c           Configuration menu (themes, hidden VMs)
  up/k        Move up
  down/j      Move down
  Enter       Open the VM menu
  Esc         Back
  ?           Show help`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return uiCommand(cmd.Context())
	},
}

// listCmd prints the inventory once
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List VMs and their power state",
	Long: `Fetch the VM list and every VM's power state once and print them.

Examples:
  vmm list
  vmm list --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCommand(cmd.Context(), cmd.OutOrStdout(), listJSONFlag)
	},
}

// powerCmd changes one VM's power state
var powerCmd = &cobra.Command{
	Use:   "power <vm> <on|off|shutdown|suspend>",
	Short: "Change a VM's power state",
	Long: `Send a power action to a VM, addressed by ID or display name.

Actions:
  on        Power on
  shutdown  Ask the guest OS to shut down
  off       Hard power off
  suspend   Suspend

Examples:
  vmm power ubuntu-dev on
  vmm power 4JH8KQ0P... shutdown`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return actionNames(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return powerCommand(cmd.Context(), cmd.OutOrStdout(), PowerOptions{
			VM:     args[0],
			Action: args[1],
			Wait:   !powerNoWait,
			JSON:   powerJSONFlag,
		})
	},
}

// initCmd writes a config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.config/vmm/config.yaml",
	Long: `Ask for the vmrest URL and credentials and write them to
~/.config/vmm/config.yaml (or the path given with --config).

Examples:
  vmm init
  vmm init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd.Context(), InitOptions{Path: cfgFile, Overwrite: initForce})
	},
}

// doctorCmd checks the local setup and the vmrest connection
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and connectivity problems",
	Long: `Check the config file, log directory, theme file and the vmrest
connection, and suggest how to fix anything that is wrong.

Examples:
  vmm doctor
  vmm doctor --fix
  vmm doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout(), doctorJSON, doctorFix)
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for vmm.

Examples:
  # Bash
  vmm completion bash > /etc/bash_completion.d/vmm

  # Zsh
  vmm completion zsh > "${fpath[1]}/_vmm"

  # Fish
  vmm completion fish > ~/.config/fish/completions/vmm.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// list command flags
	listCmd.Flags().BoolVar(&listJSONFlag, "json", false, "print JSON")

	// power command flags
	powerCmd.Flags().BoolVar(&powerNoWait, "no-wait", false, "don't read back the power state afterwards")
	powerCmd.Flags().BoolVar(&powerJSONFlag, "json", false, "print JSON")

	// init command flags
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")

	// doctor command flags
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print JSON")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt automatic fixes where possible")

	// Register all commands
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(completionCmd)
}
