package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var roleCmd = &cobra.Command{
	Use:     "role",
	GroupID: "people",
	Short:   "Manage roles and permissions",
	Long: `Manage roles and their permission grants. Level 1 is the owner; higher
numbers rank lower. You can only create or edit roles below your own
level.`,
}

var roleCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a role",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetInt("level")

		c := requireCaller(rootCtx)
		r, err := app.Orgs.CreateRole(rootCtx, c.Org.ID, org.RoleInput{
			Name:  args[0],
			Level: level,
		}, c.Role.Level)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(r)
			return
		}
		fmt.Printf("%s Created role %s (level %d)\n", ui.RenderPassIcon(), r.Name, r.Level)
	},
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		roles, err := app.Orgs.ListRoles(rootCtx, o.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(roles)
			return
		}
		for _, r := range roles {
			fmt.Printf("%s  L%d  %s\n", shortID(r.ID), r.Level, r.Name)
		}
	},
}

var roleUpdateCmd = &cobra.Command{
	Use:   "update <role>",
	Short: "Rename a role or change its level",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		r := resolveRole(rootCtx, c.Org.ID, args[0])

		in := org.RoleUpdateInput{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			in.Name = &name
		}
		if cmd.Flags().Changed("level") {
			level, _ := cmd.Flags().GetInt("level")
			in.Level = &level
		}
		if in.Name == nil && in.Level == nil {
			FatalError("nothing to update (pass --name or --level)")
		}

		updated, err := app.Orgs.UpdateRole(rootCtx, c.Org.ID, r.ID, in, c.Role.Level)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated role %s (level %d)\n", ui.RenderPassIcon(), updated.Name, updated.Level)
	},
}

var roleDeleteCmd = &cobra.Command{
	Use:   "delete <role>",
	Short: "Delete an unused role",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		r := resolveRole(rootCtx, c.Org.ID, args[0])

		if err := app.Orgs.DeleteRole(rootCtx, c.Org.ID, r.ID, c.Role.Level); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": r.Name})
			return
		}
		fmt.Printf("%s Deleted role %s\n", ui.RenderPassIcon(), r.Name)
	},
}

var rolePermsCmd = &cobra.Command{
	Use:   "permissions <role>",
	Short: "Show or set a role's permissions",
	Long: `Show a role's permission grants, or replace them with --set.

Use 'sc role permissions catalog' to see every grantable code.

Examples:
  sc role permissions Supervisor
  sc role permissions Supervisor --set schedule:approve,announcement:create`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		r := resolveRole(rootCtx, c.Org.ID, args[0])

		var perms []*types.Permission
		var err error
		if cmd.Flags().Changed("set") {
			raw, _ := cmd.Flags().GetString("set")
			var codes []string
			for _, code := range strings.Split(raw, ",") {
				if code = strings.TrimSpace(code); code != "" {
					codes = append(codes, code)
				}
			}
			perms, err = app.Orgs.SetRolePermissions(rootCtx, c.Org.ID, r.ID, codes, c.Role.Level)
		} else {
			perms, err = app.Orgs.GetRolePermissions(rootCtx, c.Org.ID, r.ID)
		}
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{"role": r.Name, "permissions": perms})
			return
		}

		fmt.Printf("\n%s\n", ui.RenderHeader(fmt.Sprintf("%s permissions", r.Name)))
		if len(perms) == 0 {
			fmt.Println("  (none granted; rank-based defaults apply)")
			return
		}
		for _, p := range perms {
			fmt.Printf("  %-32s %s\n", p.Code, p.Description)
		}
	},
}

var rolePermsCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List every grantable permission code",
	Run: func(cmd *cobra.Command, args []string) {
		catalog, err := app.Orgs.ListPermissionCatalog(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(catalog)
			return
		}
		for _, p := range catalog {
			desc := p.Description
			if desc == "" {
				desc = fmt.Sprintf("%s %s", p.Action, p.Resource)
			}
			fmt.Printf("  %-32s %s\n", p.Code, desc)
		}
	},
}

func init() {
	roleCreateCmd.Flags().Int("level", 4, "Rank level (2-9; 1 is reserved for the owner)")

	roleUpdateCmd.Flags().String("name", "", "New role name")
	roleUpdateCmd.Flags().Int("level", 0, "New rank level")

	rolePermsCmd.Flags().String("set", "", "Comma-separated permission codes to grant (replaces existing)")

	rolePermsCmd.AddCommand(rolePermsCatalogCmd)
	roleCmd.AddCommand(roleCreateCmd)
	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleUpdateCmd)
	roleCmd.AddCommand(roleDeleteCmd)
	roleCmd.AddCommand(rolePermsCmd)
	rootCmd.AddCommand(roleCmd)
}
