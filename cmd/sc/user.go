package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var userCmd = &cobra.Command{
	Use:     "user",
	GroupID: "people",
	Short:   "Manage crew accounts",
	Long: `Manage crew accounts. Rank rules apply: you can only create or edit
users whose role sits below your own, and role changes are capped the
same way.`,
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		roleRef, _ := cmd.Flags().GetString("role")
		fullName, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		if roleRef == "" {
			FatalError("--role is required")
		}

		c := requireCaller(rootCtx)
		role := resolveRole(rootCtx, c.Org.ID, roleRef)
		password := passwordFromEnvOrPrompt("SHIFTCREW_USER_PASSWORD")

		u, err := app.Orgs.CreateUser(rootCtx, c.Org.ID, org.UserInput{
			RoleID:   role.ID,
			Username: args[0],
			Password: password,
			FullName: fullName,
			Email:    email,
		}, c.Role.Level)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(u)
			return
		}
		fmt.Printf("%s Created user %s (%s)\n", ui.RenderPassIcon(), u.Username, role.Name)
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		o := requireOrg(rootCtx)
		users, total, err := app.Orgs.ListUsers(rootCtx, o.ID, pageFromFlags(page, perPage))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(users, total)
			return
		}

		roles, err := store.ListRoles(rootCtx, o.ID)
		if err != nil {
			FatalError("%v", err)
		}
		roleNames := map[string]string{}
		for _, r := range roles {
			roleNames[r.ID.String()] = r.Name
		}

		for _, u := range users {
			status := "active"
			if !u.IsActive {
				status = "inactive"
			}
			fmt.Printf("%-16s %-24s %-16s %s\n", u.Username, u.FullName, roleNames[u.RoleID.String()], ui.RenderStatus(status))
		}
		showMore(len(users), total)
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <user>",
	Short: "Show a user with their store access",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		u := resolveUser(rootCtx, o.ID, args[0])

		role, err := store.GetRole(rootCtx, u.RoleID)
		if err != nil {
			FatalError("%v", err)
		}
		stores, err := app.Orgs.ListUserStores(rootCtx, o.ID, u.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"user":   u,
				"role":   role,
				"stores": stores,
			})
			return
		}

		fmt.Printf("\n%s\n", ui.RenderHeader(u.Username))
		if u.FullName != "" && u.FullName != u.Username {
			fmt.Printf("  Name:    %s\n", u.FullName)
		}
		fmt.Printf("  ID:      %s\n", u.ID)
		fmt.Printf("  Role:    %s (level %d)\n", role.Name, role.Level)
		if u.Email != "" {
			fmt.Printf("  Email:   %s\n", u.Email)
		}
		status := "active"
		if !u.IsActive {
			status = "inactive"
		}
		fmt.Printf("  Status:  %s\n", ui.RenderStatus(status))
		fmt.Printf("  Joined:  %s\n", fmtDate(u.CreatedAt))

		fmt.Printf("\nStore access:\n")
		if len(stores) == 0 {
			fmt.Println("  (all stores via rank, or none assigned)")
		}
		for _, st := range stores {
			fmt.Printf("  %s  %s\n", shortID(st.ID), st.Name)
		}
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update <user>",
	Short: "Edit a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		u := resolveUser(rootCtx, c.Org.ID, args[0])

		in := org.UserUpdateInput{}
		if cmd.Flags().Changed("role") {
			roleRef, _ := cmd.Flags().GetString("role")
			role := resolveRole(rootCtx, c.Org.ID, roleRef)
			in.RoleID = &role.ID
		}
		if cmd.Flags().Changed("username") {
			username, _ := cmd.Flags().GetString("username")
			in.Username = &username
		}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			in.FullName = &name
		}
		if cmd.Flags().Changed("email") {
			email, _ := cmd.Flags().GetString("email")
			in.Email = &email
		}
		if cmd.Flags().Changed("active") {
			active, _ := cmd.Flags().GetBool("active")
			in.IsActive = &active
		}
		if in.RoleID == nil && in.Username == nil && in.FullName == nil && in.Email == nil && in.IsActive == nil {
			FatalError("nothing to update (pass --role, --username, --name, --email, or --active)")
		}

		updated, err := app.Orgs.UpdateUser(rootCtx, c.Org.ID, u.ID, in, c.Role.Level)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated user %s\n", ui.RenderPassIcon(), updated.Username)
	},
}

var userAssignStoreCmd = &cobra.Command{
	Use:   "assign-store <user> <store>",
	Short: "Grant a user access to a store",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		u := resolveUser(rootCtx, o.ID, args[0])
		st := resolveStore(rootCtx, o.ID, args[1])

		if err := app.Orgs.AssignStore(rootCtx, o.ID, u.ID, st.ID); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"user": u.Username, "store": st.Name})
			return
		}
		fmt.Printf("%s %s can now work at %s\n", ui.RenderPassIcon(), u.Username, st.Name)
	},
}

var userRemoveStoreCmd = &cobra.Command{
	Use:   "remove-store <user> <store>",
	Short: "Revoke a user's access to a store",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		u := resolveUser(rootCtx, o.ID, args[0])
		st := resolveStore(rootCtx, o.ID, args[1])

		if err := app.Orgs.RemoveStore(rootCtx, o.ID, u.ID, st.ID); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"user": u.Username, "store": st.Name})
			return
		}
		fmt.Printf("%s %s removed from %s\n", ui.RenderPassIcon(), u.Username, st.Name)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <user>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		u := resolveUser(rootCtx, o.ID, args[0])

		if err := app.Orgs.DeleteUser(rootCtx, o.ID, u.ID); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": u.Username})
			return
		}
		fmt.Printf("%s Deleted user %s\n", ui.RenderPassIcon(), u.Username)
	},
}

func init() {
	userCreateCmd.Flags().String("role", "", "Role name or ID (required)")
	userCreateCmd.Flags().String("name", "", "Full name (default: username)")
	userCreateCmd.Flags().String("email", "", "Email address")

	userListCmd.Flags().Int("page", 1, "Page number")
	userListCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	userUpdateCmd.Flags().String("role", "", "New role name or ID")
	userUpdateCmd.Flags().String("username", "", "New username")
	userUpdateCmd.Flags().String("name", "", "New full name")
	userUpdateCmd.Flags().String("email", "", "New email address")
	userUpdateCmd.Flags().Bool("active", true, "Activate or deactivate")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userUpdateCmd)
	userCmd.AddCommand(userAssignStoreCmd)
	userCmd.AddCommand(userRemoveStoreCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}
