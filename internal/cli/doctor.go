package cli

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boardmates/boardmates/pkg/models"
)

func (c *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Long: `Run comprehensive system diagnostics.

Checks:
  - configuration and endpoint
  - stored authentication token
  - server connectivity and health
  - database readiness
  - session validity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor()
		},
	}
}

func (c *CLI) runDoctor() error {
	c.println("BoardMates System Diagnostics")
	c.println("=============================")
	c.println("")

	checks := []DiagnosticCheck{}
	allPassed := true

	for _, run := range []func() DiagnosticCheck{
		c.checkConfig,
		c.checkAuth,
		c.checkConnectivity,
		c.checkServerHealth,
		c.checkDatabase,
		c.checkSession,
	} {
		check := run()
		checks = append(checks, check)
		if !check.Passed {
			allPassed = false
		}
		c.printCheck(check)
	}

	c.println("")

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"checks":     checks,
			"all_passed": allPassed,
		})
	}

	if allPassed {
		c.println("✓ All checks passed")
	} else {
		c.println("✗ Some checks failed - see above for details")
	}

	return nil
}

// DiagnosticCheck represents a single diagnostic check result.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	status := "✗"
	if check.Passed {
		status = "✓"
	}
	c.printf("%s %s: %s\n", status, check.Name, check.Message)
	if check.Details != "" && !check.Passed {
		c.printf("  → %s\n", check.Details)
	}
}

func (c *CLI) checkConfig() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Configuration"}

	if c.cfg == nil {
		check.Passed = false
		check.Message = "No configuration loaded"
		check.Details = "Create ~/.boardmates/config.yaml or use --config flag"
		return check
	}

	if c.cfg.Endpoint == "" {
		check.Passed = false
		check.Message = "No endpoint configured"
		check.Details = "Set endpoint in config or use --endpoint flag"
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Endpoint: %s", c.cfg.Endpoint)
	return check
}

func (c *CLI) checkAuth() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Authentication"}

	token := c.getToken()
	if token == "" {
		check.Passed = false
		check.Message = "Not authenticated"
		check.Details = "Run 'boardmates auth login' to authenticate"
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Token present (source: %s)", c.getTokenSource())
	return check
}

func (c *CLI) checkConnectivity() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Server Connectivity"}

	if c.cfg == nil || c.cfg.Endpoint == "" {
		check.Passed = false
		check.Message = "No endpoint configured"
		return check
	}

	// Parse host:port from endpoint
	endpoint := strings.TrimPrefix(c.cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	conn, err := net.DialTimeout("tcp", endpoint, 2*time.Second)
	if err != nil {
		check.Passed = false
		check.Message = "Cannot connect to server"
		check.Details = fmt.Sprintf("Error: %v", err)
		return check
	}
	conn.Close()

	check.Passed = true
	check.Message = fmt.Sprintf("Connected to %s", c.cfg.Endpoint)
	return check
}

func (c *CLI) checkServerHealth() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Server Health"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := c.newClient()

	var health *models.HealthStatus
	result := ExecuteWithRetry(ctx, DefaultRetryConfig(), func() error {
		h, err := client.GetHealthInfo(ctx)
		if err != nil {
			return err
		}
		health = h
		return nil
	})

	if !result.Success {
		check.Passed = false
		check.Message = "Health check failed"
		check.Details = fmt.Sprintf("Error after %d attempt(s): %v", result.Attempts, result.LastError)
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Healthy (version %s)", health.Version)
	return check
}

func (c *CLI) checkDatabase() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Database Readiness"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ready, err := c.newClient().CheckReady(ctx)
	if err != nil {
		check.Passed = false
		check.Message = "Readiness check failed"
		check.Details = fmt.Sprintf("Error: %v", err)
		return check
	}

	if ready.Database != "up" {
		check.Passed = false
		check.Message = "Database unavailable"
		check.Details = "The server is running but cannot reach PostgreSQL"
		return check
	}

	check.Passed = true
	check.Message = "Database up"
	return check
}

func (c *CLI) checkSession() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Session"}

	if c.getToken() == "" {
		check.Passed = false
		check.Message = "No session"
		check.Details = "Run 'boardmates auth login' to authenticate"
		return check
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := c.newClient().Me(ctx)
	if err != nil {
		check.Passed = false
		check.Message = "Token rejected by server"
		check.Details = fmt.Sprintf("Error: %v", err)
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Signed in as %s (%s)", status.Email, status.Role)
	return check
}
