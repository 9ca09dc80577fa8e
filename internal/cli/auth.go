package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage authentication with the boardmates server.`,
	}

	cmd.AddCommand(c.newAuthLoginCmd())
	cmd.AddCommand(c.newAuthStatusCmd())
	cmd.AddCommand(c.newAuthLogoutCmd())

	return cmd
}

func (c *CLI) newAuthLoginCmd() *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the server",
		Long: `Exchange email and password for a signed session token and store it locally.

The token is written to ~/.boardmates/token and sent with every
subsequent command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuthLogin(email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")

	return cmd
}

func (c *CLI) runAuthLogin(email, password string) error {
	reader := bufio.NewReader(os.Stdin)

	if email == "" {
		c.printf("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if password == "" {
		c.printf("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if email == "" || password == "" {
		c.errorf("Error: email and password required\n")
		c.errorf("Suggestion: pass --email and --password, or enter them when prompted\n")
		return fmt.Errorf("email and password required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Login itself must not send a stale token.
	client := NewClient(c.cfg.Endpoint, "")
	resp, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	configDir, err := c.getConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tokenFile := filepath.Join(configDir, "token")
	if err := os.WriteFile(tokenFile, []byte(resp.Token), 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	if c.jsonOutput {
		return c.outputJSON(resp)
	}

	c.println("✓ Authentication successful")
	c.printf("  Signed in as: %s (%s)\n", resp.User.Name, resp.User.Email)
	c.printf("  Role: %s\n", resp.User.Role)
	c.printf("  Expires: %s\n", resp.ExpiresAt.Format(time.RFC3339))
	c.printf("  Token saved to: %s\n", tokenFile)

	return nil
}

func (c *CLI) newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display authentication status",
		Long:  `Ask the server who the stored token belongs to and when it expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuthStatus()
		},
	}
}

func (c *CLI) runAuthStatus() error {
	token := c.getToken()

	if token == "" {
		if c.jsonOutput {
			output := map[string]interface{}{
				"authenticated": false,
				"error":         "no token found",
			}
			return c.outputJSON(output)
		}
		c.errorf("Not authenticated\n")
		c.errorf("Suggestion: run 'boardmates auth login' to authenticate\n")
		return fmt.Errorf("not authenticated")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := c.newClient().Me(ctx)
	if err != nil {
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(status)
	}

	c.println("Authentication Status:")
	c.println("  Authenticated: ✓")
	c.printf("  Identity: %s (%s)\n", status.Name, status.Email)
	c.printf("  Role: %s\n", status.Role)
	if !status.ExpiresAt.IsZero() {
		c.printf("  Expires: %s\n", status.ExpiresAt.Format(time.RFC3339))
	}
	c.printf("  Token source: %s\n", c.getTokenSource())

	return nil
}

func (c *CLI) newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored authentication",
		Long:  `Remove the stored authentication token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuthLogout()
		},
	}
}

func (c *CLI) runAuthLogout() error {
	configDir, err := c.getConfigDir()
	if err != nil {
		return err
	}

	tokenFile := filepath.Join(configDir, "token")
	if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	c.println("✓ Logged out successfully")
	return nil
}

// Helper functions

func (c *CLI) getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".boardmates"), nil
}

func (c *CLI) getToken() string {
	// Priority: flag > config > file
	if c.token != "" {
		return c.token
	}
	if c.cfg != nil && c.cfg.Auth.Token != "" {
		return c.cfg.Auth.Token
	}

	// Try to read from token file
	configDir, err := c.getConfigDir()
	if err != nil {
		return ""
	}
	tokenFile := filepath.Join(configDir, "token")
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (c *CLI) getTokenSource() string {
	if c.token != "" {
		return "command-line flag"
	}
	if c.cfg != nil && c.cfg.Auth.Token != "" {
		return "config file"
	}
	return "token file (~/.boardmates/token)"
}

func (c *CLI) outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
