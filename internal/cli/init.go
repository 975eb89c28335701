package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/vmm/internal/config"
	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/logger"
	"github.com/rileyhilliard/vmm/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path      string // Config file to write; defaults to the global config
	Overwrite bool   // Overwrite existing config without asking
}

// initAnswers are the values collected by the init form.
type initAnswers struct {
	URL      string
	Username string
	Password string
}

// askInit and confirm are swapped out in tests.
var (
	askInit = runInitForm
	confirm = runConfirm
)

// initCommand writes a new config file.
func initCommand(ctx context.Context, opts InitOptions) error {
	path := opts.Path
	if path == "" {
		path = config.GlobalConfigPath()
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Cannot determine the home directory",
			"Pass the file to write with --config")
	}

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		overwrite, err := confirm(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path))
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	answers := initDefaults()
	if err := askInit(&answers); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility, or write the file by hand (see 'vmm init --help')")
	}

	cfg := config.DefaultConfig()
	cfg.API.URL = strings.TrimSpace(answers.URL)
	cfg.API.Username = strings.TrimSpace(answers.Username)
	cfg.API.Password = answers.Password

	if cfg.API.Password != "" {
		if err := testConnection(ctx, cfg); err != nil {
			fmt.Printf("\n%s %s\n\n", ui.SymbolFail, errors.Short(err))
			save, cerr := confirm("Save config anyway? (You can fix the connection later)")
			if cerr != nil || !save {
				return err
			}
		}
	}

	if err := config.Write(path, cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file",
			"Check write permissions for "+path)
	}

	fmt.Printf("%s Created %s\n", ui.SymbolSuccess, path)
	if cfg.API.Password == "" {
		fmt.Println("  Set VMWARE_PASSWORD in the environment or a .env file before running vmm.")
	}
	fmt.Println("  Run 'vmm' to start the interactive UI.")
	return nil
}

// initDefaults pre-fills the form from the environment.
func initDefaults() initAnswers {
	a := initAnswers{
		URL:      os.Getenv("VMWARE_API_URL"),
		Username: os.Getenv("VMWARE_USERNAME"),
	}
	if a.URL == "" {
		a.URL = config.DefaultAPIURL
	}
	return a
}

// testConnection lists VMs once with cfg's credentials.
func testConnection(ctx context.Context, cfg *config.Config) error {
	spinner := ui.NewSpinner("Testing connection to "+cfg.API.URL, os.Stdout, isTerminal(os.Stdout))
	spinner.Start()

	client, err := newDirectory(cfg, logger.Noop())
	if err == nil {
		_, err = client.ListVMs(ctx)
	}
	if err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()
	return nil
}

func validateAPIURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http(s) URL, e.g. %s", config.DefaultAPIURL)
	}
	return nil
}

func runInitForm(a *initAnswers) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("vmrest API URL").
				Description("The VM collection endpoint served by 'vmrest'").
				Placeholder(config.DefaultAPIURL).
				Value(&a.URL).
				Validate(validateAPIURL),
			huh.NewInput().
				Title("Username").
				Description("The user set with 'vmrest --config'").
				Value(&a.Username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("username is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password (optional)").
				Description("Leave empty to keep it in VMWARE_PASSWORD instead of the config file").
				EchoMode(huh.EchoModePassword).
				Value(&a.Password),
		),
	)
	return form.Run()
}

func runConfirm(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}
