package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// newAuditCmd creates the audit command.
func (c *CLI) newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit and reporting commands",
		Long:  `Commands for audit trails and operational reports.`,
	}

	cmd.AddCommand(c.newAuditSummaryCmd())

	return cmd
}

func (c *CLI) newAuditSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show audit summary",
		Long: `Display aggregated audit statistics:
  - Accepted vs rejected request counts
  - Top rejection reasons
  - Top audited actions

No raw audit events are exposed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuditSummary()
		},
	}
}

func (c *CLI) runAuditSummary() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := c.newClient().GetAuditSummary(ctx)
	if err != nil {
		c.errorf("Error: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(summary)
	}

	c.println("Request Summary:")
	c.printf("  Accepted: %d\n", summary.Accepted)
	c.printf("  Rejected: %d\n", summary.Rejected)

	if len(summary.TopRejectionReasons) > 0 {
		c.println("\nTop Rejection Reasons:")
		for _, r := range summary.TopRejectionReasons {
			c.printf("  - %s: %d\n", r.Reason, r.Count)
		}
	}

	if len(summary.TopActions) > 0 {
		c.println("\nTop Actions:")
		for _, a := range summary.TopActions {
			c.printf("  - %s: %d\n", a.Action, a.Count)
		}
	}

	return nil
}
