package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/boardmates/boardmates/internal/bootstrap"
	"github.com/boardmates/boardmates/pkg/models"
)

func (c *CLI) newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Workspace bootstrapping",
		Long: `Manage declarative workspace files.

A workspace file describes organizations, users, and memberships in
YAML. Applying it is additive and idempotent: existing resources are
left untouched.

Commands:
  init     - Generate an example workspace file
  validate - Validate a workspace file without applying it
  apply    - Apply a workspace file to the server`,
	}

	cmd.AddCommand(c.newBootstrapInitCmd())
	cmd.AddCommand(c.newBootstrapValidateCmd())
	cmd.AddCommand(c.newBootstrapApplyCmd())

	return cmd
}

func (c *CLI) newBootstrapInitCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate an example workspace file",
		Long: `Generate an example workspace file.

This command does not modify server state. It only creates a template
to edit and apply later.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBootstrapInit(outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory for the workspace file")

	return cmd
}

func (c *CLI) runBootstrapInit(outputDir string) error {
	workspacePath, err := bootstrap.Init(outputDir)
	if err != nil {
		c.errorf("Error: %v\n", err)
		return err
	}

	absPath, _ := filepath.Abs(workspacePath)

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status": "created",
			"path":   absPath,
		})
	}

	c.printf("✓ Workspace file created: %s\n", absPath)
	c.println("\nNext steps:")
	c.println("  1. Edit the workspace file to match your environment")
	c.println("  2. Run 'boardmates bootstrap validate' to check it")
	c.println("  3. Run 'boardmates bootstrap apply' to apply it")

	return nil
}

func (c *CLI) newBootstrapValidateCmd() *cobra.Command {
	var workspacePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a workspace file",
		Long: `Validate a workspace file without applying it.

This command:
  - Rejects unknown keys (typo protection)
  - Validates every organization, user, and membership entry
  - Checks that memberships reference declared organizations and users
  - Fails on duplicates

No server state is modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBootstrapValidate(workspacePath)
		},
	}

	cmd.Flags().StringVarP(&workspacePath, "file", "f", "boardmates.yaml", "workspace file path")

	return cmd
}

func (c *CLI) runBootstrapValidate(workspacePath string) error {
	c.debugf("Validating workspace: %s\n", workspacePath)

	if _, err := os.Stat(workspacePath); os.IsNotExist(err) {
		c.errorf("Error: workspace file not found: %s\n", workspacePath)
		c.errorf("Suggestion: run 'boardmates bootstrap init' to create one\n")
		return err
	}

	ws, err := bootstrap.LoadWorkspace(workspacePath)
	if err != nil {
		c.errorf("Error: %v\n", err)
		return err
	}

	c.debugf("Workspace loaded successfully\n")

	if err := ws.Validate(); err != nil {
		c.errorf("Validation failed: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"status":             "valid",
			"path":               workspacePath,
			"organization_count": len(ws.Organizations),
			"user_count":         len(ws.Users),
			"membership_count":   len(ws.Memberships),
		})
	}

	c.printf("✓ Workspace is valid: %s\n", workspacePath)
	c.println("\nWorkspace summary:")
	c.printf("  Organizations: %d\n", len(ws.Organizations))
	c.printf("  Users:         %d\n", len(ws.Users))
	c.printf("  Memberships:   %d\n", len(ws.Memberships))

	return nil
}

func (c *CLI) newBootstrapApplyCmd() *cobra.Command {
	var (
		workspacePath string
		dryRun        bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a workspace file to the server",
		Long: `Apply a workspace file to the server.

Apply is additive and idempotent:
  - Organizations and users that already exist are left untouched
  - Memberships that already exist are left untouched
  - Nothing is ever deleted

The workspace is validated before anything is sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBootstrapApply(workspacePath, dryRun)
		},
	}

	cmd.Flags().StringVarP(&workspacePath, "file", "f", "boardmates.yaml", "workspace file path")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be created without applying")

	return cmd
}

func (c *CLI) runBootstrapApply(workspacePath string, dryRun bool) error {
	c.debugf("Applying workspace: %s\n", workspacePath)

	if _, err := os.Stat(workspacePath); os.IsNotExist(err) {
		c.errorf("Error: workspace file not found: %s\n", workspacePath)
		return err
	}

	ws, err := bootstrap.LoadWorkspace(workspacePath)
	if err != nil {
		c.errorf("Error loading workspace: %v\n", err)
		return err
	}

	if err := ws.Validate(); err != nil {
		c.errorf("Validation failed: %v\n", err)
		c.errorf("Run 'boardmates bootstrap validate' for details\n")
		return err
	}

	c.printf("✓ Workspace validated\n")

	if dryRun {
		c.println("\nDry-run mode: showing what would be applied")
		c.println("\nOrganizations:")
		for _, org := range ws.Organizations {
			c.printf("  - %s (%s)\n", org.Name, org.Slug)
		}
		c.println("\nUsers:")
		for _, u := range ws.Users {
			c.printf("  - %s\n", u.Email)
		}
		c.println("\nMemberships:")
		for _, m := range ws.Memberships {
			c.printf("  - %s → %s\n", m.User, m.Organization)
		}
		c.println("\nNo changes were made.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := c.applyWorkspace(ctx, ws)
	if err != nil {
		c.errorf("Apply failed: %v\n", err)
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(result)
	}

	c.printf("✓ Workspace applied\n")
	c.printf("  Organizations: %d created, %d existing\n", result.OrganizationsCreated, result.OrganizationsExisting)
	c.printf("  Users:         %d created, %d existing\n", result.UsersCreated, result.UsersExisting)
	c.printf("  Memberships:   %d created, %d existing\n", result.MembershipsCreated, result.MembershipsExisting)

	return nil
}

// workspaceApplyResult summarizes one apply run for display.
type workspaceApplyResult struct {
	OrganizationsCreated  int `json:"organizations_created"`
	OrganizationsExisting int `json:"organizations_existing"`
	UsersCreated          int `json:"users_created"`
	UsersExisting         int `json:"users_existing"`
	MembershipsCreated    int `json:"memberships_created"`
	MembershipsExisting   int `json:"memberships_existing"`
}

// applyWorkspace pushes a validated workspace to the server, skipping
// anything that already exists.
func (c *CLI) applyWorkspace(ctx context.Context, ws *bootstrap.Workspace) (*workspaceApplyResult, error) {
	client := c.newClient()
	result := &workspaceApplyResult{}

	orgIDs := make(map[string]string)
	userIDs := make(map[string]string)

	for _, seed := range ws.Organizations {
		existing, err := client.GetOrganizationBySlug(ctx, seed.Slug)
		switch {
		case err == nil:
			c.debugf("organization %s already exists\n", seed.Slug)
			orgIDs[seed.Slug] = existing.ID
			result.OrganizationsExisting++
		case IsNotFound(err):
			created, err := client.CreateOrganization(ctx, models.CreateOrganizationRequest{
				Name: seed.Name,
				Slug: seed.Slug,
			})
			if err != nil {
				return nil, fmt.Errorf("organization %s: %w", seed.Slug, err)
			}
			orgIDs[seed.Slug] = created.ID
			result.OrganizationsCreated++
		default:
			return nil, fmt.Errorf("organization %s: %w", seed.Slug, err)
		}
	}

	for _, seed := range ws.Users {
		existing, err := client.GetUserByEmail(ctx, seed.Email)
		switch {
		case err == nil:
			c.debugf("user %s already exists\n", seed.Email)
			userIDs[seed.Email] = existing.ID
			result.UsersExisting++
		case IsNotFound(err):
			created, err := client.CreateUser(ctx, models.CreateUserRequest{
				Email:    seed.Email,
				Name:     seed.Name,
				Role:     seed.Role,
				Status:   seed.Status,
				Password: seed.Password,
			})
			if err != nil {
				return nil, fmt.Errorf("user %s: %w", seed.Email, err)
			}
			userIDs[seed.Email] = created.ID
			result.UsersCreated++
		default:
			return nil, fmt.Errorf("user %s: %w", seed.Email, err)
		}
	}

	for _, seed := range ws.Memberships {
		orgID, ok := orgIDs[seed.Organization]
		if !ok {
			return nil, fmt.Errorf("membership references unknown organization %q", seed.Organization)
		}
		userID, ok := userIDs[seed.User]
		if !ok {
			return nil, fmt.Errorf("membership references unknown user %q", seed.User)
		}

		err := client.AddMember(ctx, orgID, models.AddMemberRequest{
			UserID: userID,
			Role:   seed.Role,
		})
		switch {
		case err == nil:
			result.MembershipsCreated++
		case IsConflict(err):
			c.debugf("membership %s in %s already exists\n", seed.User, seed.Organization)
			result.MembershipsExisting++
		default:
			return nil, fmt.Errorf("membership %s in %s: %w", seed.User, seed.Organization, err)
		}
	}

	return result, nil
}
