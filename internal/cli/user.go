package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/boardmates/boardmates/pkg/models"
)

func (c *CLI) newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management",
		Long:  `Manage user accounts and their organization memberships.`,
	}

	cmd.AddCommand(c.newUserCreateCmd())
	cmd.AddCommand(c.newUserListCmd())
	cmd.AddCommand(c.newUserDescribeCmd())
	cmd.AddCommand(c.newUserUpdateCmd())
	cmd.AddCommand(c.newUserDeleteCmd())
	cmd.AddCommand(c.newUserMembershipsCmd())

	return cmd
}

func (c *CLI) newUserCreateCmd() *cobra.Command {
	var req models.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Register a new user",
		Long: `Register a new user account.

New accounts default to the member role with pending status. An
administrator approves the account before it can sign in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Email = args[0]
			return c.runUserCreate(req)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Role, "role", "", "account role (member, director, admin)")
	cmd.Flags().StringVar(&req.Status, "status", "", "account status (pending, approved, suspended)")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")

	return cmd
}

func (c *CLI) runUserCreate(req models.CreateUserRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := c.newClient().CreateUser(ctx, req)
	if err != nil {
		c.errorf("Failed to create user: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(user)
	}

	c.printf("✓ User '%s' created\n", user.Email)
	c.printf("  ID: %s\n", user.ID)
	c.printf("  Role: %s\n", user.Role)
	c.printf("  Status: %s\n", user.Status)
	return nil
}

func (c *CLI) newUserListCmd() *cobra.Command {
	var (
		filterRole   string
		filterStatus string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Long:  `List all user accounts with optional filtering.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUserList(filterRole, filterStatus)
		},
	}

	cmd.Flags().StringVar(&filterRole, "role", "", "filter by role")
	cmd.Flags().StringVar(&filterStatus, "status", "", "filter by status")

	return cmd
}

func (c *CLI) runUserList(role, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, err := c.newClient().ListUsers(ctx)
	if err != nil {
		c.errorf("Failed to list users: %v\n", err)
		return err
	}

	// Client-side filtering (the server may support this in the future)
	var filtered []models.UserInfo
	for _, u := range users {
		if role != "" && !strings.EqualFold(u.Role, role) {
			continue
		}
		if status != "" && !strings.EqualFold(u.Status, status) {
			continue
		}
		filtered = append(filtered, u)
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"users": filtered,
		})
	}

	if len(filtered) == 0 {
		c.println("No users registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tSTATUS\tID")
	for _, u := range filtered {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Email, u.Name, u.Role, u.Status, u.ID)
	}
	w.Flush()

	return nil
}

func (c *CLI) newUserDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id|email>",
		Short: "Describe a user account",
		Long: `Display detailed information about a user account.

Accepts either the account id or the email address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUserDescribe(args[0])
		},
	}
}

func (c *CLI) runUserDescribe(ref string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := c.resolveUser(ctx, c.newClient(), ref)
	if err != nil {
		c.errorf("Failed to describe user: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(user)
	}

	c.println("User:", user.Email)
	c.printf("  ID: %s\n", user.ID)
	c.printf("  Name: %s\n", user.Name)
	c.printf("  Role: %s\n", user.Role)
	c.printf("  Status: %s\n", user.Status)
	c.printf("  Created: %s\n", user.CreatedAt.Format(time.RFC3339))

	return nil
}

func (c *CLI) newUserUpdateCmd() *cobra.Command {
	var (
		email    string
		name     string
		role     string
		status   string
		password string
	)

	cmd := &cobra.Command{
		Use:   "update <id|email>",
		Short: "Update a user account",
		Long: `Apply a partial update to a user account.

Only the provided flags change; everything else keeps its value.
Approving a pending account is 'user update <email> --status approved'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.UpdateUserRequest{}
			if cmd.Flags().Changed("email") {
				req.Email = &email
			}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("role") {
				req.Role = &role
			}
			if cmd.Flags().Changed("status") {
				req.Status = &status
			}
			if cmd.Flags().Changed("password") {
				req.Password = &password
			}
			return c.runUserUpdate(args[0], req)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&role, "role", "", "new role (member, director, admin)")
	cmd.Flags().StringVar(&status, "status", "", "new status (pending, approved, suspended)")
	cmd.Flags().StringVar(&password, "password", "", "new password")

	return cmd
}

func (c *CLI) runUserUpdate(ref string, req models.UpdateUserRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := c.newClient()
	user, err := c.resolveUser(ctx, client, ref)
	if err != nil {
		c.errorf("Failed to update user: %v\n", err)
		return err
	}

	updated, err := client.UpdateUser(ctx, user.ID, req)
	if err != nil {
		c.errorf("Failed to update user: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(updated)
	}

	c.printf("✓ User '%s' updated\n", updated.Email)
	c.printf("  Role: %s\n", updated.Role)
	c.printf("  Status: %s\n", updated.Status)
	return nil
}

func (c *CLI) newUserDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id|email>",
		Short: "Delete a user account",
		Long: `Delete a user account and its organization memberships.

Requires confirmation unless --force is provided.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUserDelete(args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation")

	return cmd
}

func (c *CLI) runUserDelete(ref string, force bool) error {
	if !force {
		c.printf("Delete user '%s'? [y/N]: ", ref)
		var confirm string
		fmt.Scanln(&confirm)
		if strings.ToLower(confirm) != "y" {
			c.println("Cancelled")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := c.newClient()
	user, err := c.resolveUser(ctx, client, ref)
	if err != nil {
		c.errorf("Failed to delete user: %v\n", err)
		return err
	}

	if err := client.DeleteUser(ctx, user.ID); err != nil {
		c.errorf("Failed to delete user: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status": "deleted",
			"user":   user.Email,
		})
	}

	c.printf("✓ User '%s' deleted\n", user.Email)
	return nil
}

func (c *CLI) newUserMembershipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "memberships <id|email>",
		Short: "List a user's organizations",
		Long:  `List the organizations a user belongs to, with their role in each.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUserMemberships(args[0])
		},
	}
}

func (c *CLI) runUserMemberships(ref string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := c.newClient()
	user, err := c.resolveUser(ctx, client, ref)
	if err != nil {
		c.errorf("Failed to list memberships: %v\n", err)
		return err
	}

	memberships, err := client.ListUserMemberships(ctx, user.ID)
	if err != nil {
		c.errorf("Failed to list memberships: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"user":        user.Email,
			"memberships": memberships,
		})
	}

	if len(memberships) == 0 {
		c.printf("User '%s' belongs to no organizations\n", user.Email)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORGANIZATION\tSLUG\tROLE\tJOINED")
	for _, m := range memberships {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			m.Organization.Name,
			m.Organization.Slug,
			m.Role,
			m.JoinedAt.Format("2006-01-02"))
	}
	w.Flush()

	return nil
}

// resolveUser looks a user up by id, or by email when the reference
// contains an '@'.
func (c *CLI) resolveUser(ctx context.Context, client *Client, ref string) (*models.UserInfo, error) {
	if strings.Contains(ref, "@") {
		return client.GetUserByEmail(ctx, ref)
	}
	return client.GetUser(ctx, ref)
}
