package cli

import (
	"context"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "dev"
	BuildDate = "unknown"
)

// SetVersionInfo overrides the build metadata (called from main).
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

// newVersionCmd creates the version command.
func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  `Display CLI build information and, when an endpoint is configured, the server version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVersion()
		},
	}
}

func (c *CLI) runVersion() error {
	serverVersion := ""
	serverStatus := "not configured"
	if c.cfg != nil && c.cfg.Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if health, err := c.newClient().GetHealthInfo(ctx); err == nil {
			serverVersion = health.Version
			serverStatus = health.Status
		} else {
			serverStatus = "unavailable"
		}
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
			"server": map[string]string{
				"version": serverVersion,
				"status":  serverStatus,
			},
		})
	}

	c.println("BoardMates CLI")
	c.printf("  Version:    %s\n", Version)
	c.printf("  Git Commit: %s\n", GitCommit)
	c.printf("  Build Date: %s\n", BuildDate)
	c.printf("  Go Version: %s\n", runtime.Version())
	c.printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	c.println("")
	if serverVersion != "" {
		c.printf("Server: %s (%s)\n", serverVersion, serverStatus)
	} else {
		c.printf("Server: %s\n", serverStatus)
	}

	return nil
}
