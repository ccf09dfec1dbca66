package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/identity-tenancy-api/internal/app"
	"github.com/identity-tenancy-api/internal/database"
	"github.com/identity-tenancy-api/internal/utils"
)

func (c *cli) createTenantCmd() *cobra.Command {
	var tenantID, password string
	cmd := &cobra.Command{
		Use:   "create-tenant",
		Short: "Create a tenant with an admin account and builtin management data source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Tenants.CreateTenantByCommand(cmd.Context(), tenantID, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "create tenant %s successfully\n", res.Tenant.ID)
				fmt.Fprintf(c.out, "admin tenant user: %s\n", res.AdminUser.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "tenant id")
	cmd.Flags().StringVar(&password, "password", "", "initial password of the admin account")
	_ = cmd.MarkFlagRequired("tenant-id")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) deleteTenantCmd() *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "delete-tenant",
		Short: "Delete a tenant and all of its data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Tenants.DeleteTenant(cmd.Context(), tenantID); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "delete tenant %s successfully\n", tenantID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "tenant id")
	_ = cmd.MarkFlagRequired("tenant-id")
	return cmd
}

func (c *cli) loginURLCmd() *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "get-builtin-management-login-url",
		Short: "Print the login URL of a tenant's builtin management account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				url, err := a.Tenants.GetBuiltinManagementLoginURL(cmd.Context(), tenantID)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, url)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "tenant id, defaults to the bootstrap tenant")
	return cmd
}

func (c *cli) initDefaultTenantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-default-tenant",
		Short: "Create the bootstrap tenant from initial_admin settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				t, created, err := a.Tenants.InitDefaultTenant(cmd.Context())
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintf(c.out, "default tenant %s already exists\n", t.ID)
					return nil
				}
				fmt.Fprintf(c.out, "default tenant %s initialized\n", t.ID)
				return nil
			})
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				if a.DB == nil {
					fmt.Fprintf(c.out, "store driver %q has no schema to migrate\n", c.cfg.Store.Driver)
					return nil
				}
				if err := database.Migrate(cmd.Context(), a.DB.Pool(), c.log); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "schema migrated")
				return nil
			})
		},
	}
}

func (c *cli) issueTokenCmd() *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Issue a bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if operator == "" {
				return errors.New("operator must not be empty")
			}
			token, err := utils.GenerateJWT(operator, &c.cfg.AdminAPI)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "operator name recorded in the token")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}
