package cli

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boardmates/boardmates/internal/config"
	"github.com/boardmates/boardmates/internal/errors"
)

// Exit codes returned by Execute.
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAuth       = 2
	ExitConnection = 3
	ExitInternal   = 4
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	// Global flags
	configPath string
	endpoint   string
	token      string
	jsonOutput bool
	quiet      bool
	debug      bool
}

// New creates a new CLI instance.
func New() *CLI {
	cli := &CLI{}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

// Execute runs the CLI and maps the failure to an exit code.
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		c.errorf("Error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

func exitCodeFor(err error) int {
	var unavailable *errors.ErrServerUnavailable
	if stderrors.As(err, &unavailable) {
		return ExitConnection
	}

	var apiErr *apiError
	if stderrors.As(err, &apiErr) {
		switch apiErr.code {
		case errors.CodeValidation:
			return ExitValidation
		case errors.CodeAuth:
			return ExitAuth
		case errors.CodeStorage:
			return ExitConnection
		}
		return ExitInternal
	}

	if code := errors.CodeOf(err); code != errors.CodeInternal {
		switch code {
		case errors.CodeValidation:
			return ExitValidation
		case errors.CodeAuth:
			return ExitAuth
		case errors.CodeStorage:
			return ExitConnection
		}
	}
	return ExitInternal
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boardmates",
		Short: "BoardMates - Board management control CLI",
		Long: `BoardMates manages users, organizations, and board memberships.

It provides:
  • User registration and lifecycle management
  • Organization and membership administration
  • Role-based access control with a full audit trail
  • Declarative workspace bootstrapping

This CLI is a client of the boardmates server; every command talks to a
running instance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.boardmates/config.yaml)")
	cmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "server endpoint")
	cmd.PersistentFlags().StringVar(&c.token, "token", "", "auth token (overrides config)")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose debug logs")

	// Add command groups
	cmd.AddCommand(c.newAuthCmd())
	cmd.AddCommand(c.newUserCmd())
	cmd.AddCommand(c.newOrgCmd())
	cmd.AddCommand(c.newBootstrapCmd())
	cmd.AddCommand(c.newStatusCmd())
	cmd.AddCommand(c.newAuditCmd())
	cmd.AddCommand(c.newDoctorCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	// Override with flags
	if c.endpoint != "" {
		c.cfg.Endpoint = c.endpoint
	}
	if c.token != "" {
		c.cfg.Auth.Token = c.token
	}

	return nil
}

// Helper functions for output

func (c *CLI) printf(format string, args ...interface{}) {
	if !c.quiet {
		fmt.Printf(format, args...)
	}
}

func (c *CLI) println(args ...interface{}) {
	if !c.quiet {
		fmt.Println(args...)
	}
}

func (c *CLI) errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

func (c *CLI) debugf(format string, args ...interface{}) {
	if c.debug {
		fmt.Printf("[DEBUG] "+format, args...)
	}
}

// newClient creates a server client with current config.
func (c *CLI) newClient() *Client {
	return NewClient(c.cfg.Endpoint, c.getToken())
}
