package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the status command.
func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long: `Display server status:
  - Server reachability and version
  - Database readiness`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus()
		},
	}
}

func (c *CLI) runStatus() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := c.newClient()

	health, err := client.GetHealthInfo(ctx)
	if err != nil {
		c.errorf("✗ Server: unreachable (%s)\n", c.cfg.Endpoint)
		c.errorf("  Error: %v\n", err)
		return err
	}

	ready, err := client.CheckReady(ctx)
	if err != nil {
		c.errorf("✗ Server: readiness check failed\n")
		c.errorf("  Error: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"endpoint": c.cfg.Endpoint,
			"version":  health.Version,
			"status":   ready.Status,
			"database": ready.Database,
		})
	}

	c.printf("✓ Server: healthy (%s)\n", c.cfg.Endpoint)
	c.printf("  Version: %s\n", health.Version)
	if ready.Database == "up" {
		c.printf("✓ Database: up\n")
	} else {
		c.errorf("✗ Database: %s\n", ready.Database)
	}

	return nil
}
