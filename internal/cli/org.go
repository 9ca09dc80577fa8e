package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/boardmates/boardmates/pkg/models"
)

func (c *CLI) newOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Organization management",
		Long:  `Manage organizations and their board memberships.`,
	}

	cmd.AddCommand(c.newOrgCreateCmd())
	cmd.AddCommand(c.newOrgListCmd())
	cmd.AddCommand(c.newOrgDescribeCmd())
	cmd.AddCommand(c.newOrgDeleteCmd())
	cmd.AddCommand(c.newOrgMembersCmd())
	cmd.AddCommand(c.newOrgMemberCmd())

	return cmd
}

func (c *CLI) newOrgCreateCmd() *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an organization",
		Long: `Create a new organization.

The slug is the organization's URL-safe identifier: lowercase letters,
digits, and hyphens. It must be unique across all organizations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrgCreate(args[0], slug)
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "URL-safe identifier (required)")
	cmd.MarkFlagRequired("slug")

	return cmd
}

func (c *CLI) runOrgCreate(name, slug string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	org, err := c.newClient().CreateOrganization(ctx, models.CreateOrganizationRequest{
		Name: name,
		Slug: slug,
	})
	if err != nil {
		c.errorf("Failed to create organization: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(org)
	}

	c.printf("✓ Organization '%s' created\n", org.Name)
	c.printf("  ID: %s\n", org.ID)
	c.printf("  Slug: %s\n", org.Slug)
	return nil
}

func (c *CLI) newOrgListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Long:  `List all registered organizations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrgList()
		},
	}
}

func (c *CLI) runOrgList() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	orgs, err := c.newClient().ListOrganizations(ctx)
	if err != nil {
		c.errorf("Failed to list organizations: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"organizations": orgs,
		})
	}

	if len(orgs) == 0 {
		c.println("No organizations registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSLUG\tCREATED\tID")
	for _, o := range orgs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			o.Name, o.Slug, o.CreatedAt.Format("2006-01-02"), o.ID)
	}
	w.Flush()

	return nil
}

func (c *CLI) newOrgDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id|slug>",
		Short: "Describe an organization",
		Long: `Display detailed information about an organization, including its
members and their roles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrgDescribe(args[0])
		},
	}
}

func (c *CLI) runOrgDescribe(ref string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := c.newClient()
	org, err := c.resolveOrganization(ctx, client, ref)
	if err != nil {
		c.errorf("Failed to describe organization: %v\n", err)
		return err
	}

	members, err := client.ListMembers(ctx, org.ID)
	if err != nil {
		c.errorf("Failed to describe organization: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"organization": org,
			"members":      members,
		})
	}

	c.println("Organization:", org.Name)
	c.printf("  ID: %s\n", org.ID)
	c.printf("  Slug: %s\n", org.Slug)
	c.printf("  Created: %s\n", org.CreatedAt.Format(time.RFC3339))
	c.printf("  Members: %d\n", len(members))
	for _, m := range members {
		c.printf("    - %s (%s)\n", m.User.Email, m.Role)
	}

	return nil
}

func (c *CLI) newOrgDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id|slug>",
		Short: "Delete an organization",
		Long: `Delete an organization and all its memberships.

Requires confirmation unless --force is provided.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrgDelete(args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation")

	return cmd
}

func (c *CLI) runOrgDelete(ref string, force bool) error {
	if !force {
		c.printf("Delete organization '%s'? [y/N]: ", ref)
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
	org, err := c.resolveOrganization(ctx, client, ref)
	if err != nil {
		c.errorf("Failed to delete organization: %v\n", err)
		return err
	}

	if err := client.DeleteOrganization(ctx, org.ID); err != nil {
		c.errorf("Failed to delete organization: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status":       "deleted",
			"organization": org.Slug,
		})
	}

	c.printf("✓ Organization '%s' deleted\n", org.Name)
	return nil
}

func (c *CLI) newOrgMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <id|slug>",
		Short: "List organization members",
		Long:  `List the users in an organization with their membership roles.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrgMembers(args[0])
		},
	}
}

func (c *CLI) runOrgMembers(ref string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := c.newClient()
	org, err := c.resolveOrganization(ctx, client, ref)
	if err != nil {
		c.errorf("Failed to list members: %v\n", err)
		return err
	}

	members, err := client.ListMembers(ctx, org.ID)
	if err != nil {
		c.errorf("Failed to list members: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"organization": org.Slug,
			"members":      members,
		})
	}

	if len(members) == 0 {
		c.printf("Organization '%s' has no members\n", org.Name)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tJOINED")
	for _, m := range members {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			m.User.Email, m.User.Name, m.Role, m.JoinedAt.Format("2006-01-02"))
	}
	w.Flush()

	return nil
}

func (c *CLI) newOrgMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Membership management",
		Long:  `Add, update, and remove organization members.`,
	}

	cmd.AddCommand(c.newOrgMemberAddCmd())
	cmd.AddCommand(c.newOrgMemberUpdateCmd())
	cmd.AddCommand(c.newOrgMemberRemoveCmd())

	return cmd
}

func (c *CLI) newOrgMemberAddCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "add <org> <user>",
		Short: "Add a member to an organization",
		Long: `Link a user to an organization with a membership role.

The organization accepts an id or slug; the user accepts an id or
email. The role defaults to member.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrgMemberAdd(args[0], args[1], role)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "membership role (member, admin, owner)")

	return cmd
}

func (c *CLI) runOrgMemberAdd(orgRef, userRef, role string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := c.newClient()
	org, err := c.resolveOrganization(ctx, client, orgRef)
	if err != nil {
		c.errorf("Failed to add member: %v\n", err)
		return err
	}
	user, err := c.resolveUser(ctx, client, userRef)
	if err != nil {
		c.errorf("Failed to add member: %v\n", err)
		return err
	}

	err = client.AddMember(ctx, org.ID, models.AddMemberRequest{
		UserID: user.ID,
		Role:   role,
	})
	if err != nil {
		c.errorf("Failed to add member: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status":       "added",
			"organization": org.Slug,
			"user":         user.Email,
		})
	}

	c.printf("✓ Added '%s' to '%s'\n", user.Email, org.Name)
	return nil
}

func (c *CLI) newOrgMemberUpdateCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "update <org> <user>",
		Short: "Change a member's role",
		Long:  `Change the role of an existing organization member.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrgMemberUpdate(args[0], args[1], role)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "new membership role (required)")
	cmd.MarkFlagRequired("role")

	return cmd
}

func (c *CLI) runOrgMemberUpdate(orgRef, userRef, role string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := c.newClient()
	org, err := c.resolveOrganization(ctx, client, orgRef)
	if err != nil {
		c.errorf("Failed to update member: %v\n", err)
		return err
	}
	user, err := c.resolveUser(ctx, client, userRef)
	if err != nil {
		c.errorf("Failed to update member: %v\n", err)
		return err
	}

	if err := client.UpdateMemberRole(ctx, org.ID, user.ID, role); err != nil {
		c.errorf("Failed to update member: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status":       "updated",
			"organization": org.Slug,
			"user":         user.Email,
			"role":         role,
		})
	}

	c.printf("✓ '%s' is now %s of '%s'\n", user.Email, role, org.Name)
	return nil
}

func (c *CLI) newOrgMemberRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <org> <user>",
		Short: "Remove a member from an organization",
		Long: `Unlink a user from an organization.

Requires confirmation unless --force is provided.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrgMemberRemove(args[0], args[1], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation")

	return cmd
}

func (c *CLI) runOrgMemberRemove(orgRef, userRef string, force bool) error {
	if !force {
		c.printf("Remove '%s' from '%s'? [y/N]: ", userRef, orgRef)
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
	org, err := c.resolveOrganization(ctx, client, orgRef)
	if err != nil {
		c.errorf("Failed to remove member: %v\n", err)
		return err
	}
	user, err := c.resolveUser(ctx, client, userRef)
	if err != nil {
		c.errorf("Failed to remove member: %v\n", err)
		return err
	}

	if err := client.RemoveMember(ctx, org.ID, user.ID); err != nil {
		c.errorf("Failed to remove member: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status":       "removed",
			"organization": org.Slug,
			"user":         user.Email,
		})
	}

	c.printf("✓ Removed '%s' from '%s'\n", user.Email, org.Name)
	return nil
}

// resolveOrganization looks an organization up by id when the
// reference parses as a UUID, otherwise by slug.
func (c *CLI) resolveOrganization(ctx context.Context, client *Client, ref string) (*models.OrganizationInfo, error) {
	if _, err := uuid.Parse(ref); err == nil {
		return client.GetOrganization(ctx, ref)
	}
	return client.GetOrganizationBySlug(ctx, ref)
}
