package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var orgCmd = &cobra.Command{
	Use:     "org",
	GroupID: "people",
	Short:   "Manage organizations",
}

var orgCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Bootstrap a new organization in the same database",
	Long: `Bootstrap another organization: default roles, an owner account, and
optionally a first store. The owner password comes from
SHIFTCREW_OWNER_PASSWORD or a terminal prompt.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		owner, _ := cmd.Flags().GetString("owner")
		storeName, _ := cmd.Flags().GetString("store")
		fullName, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		if owner == "" {
			FatalError("--owner is required")
		}

		in := org.BootstrapInput{
			OrgName:       args[0],
			StoreName:     storeName,
			OwnerUsername: owner,
			OwnerFullName: fullName,
			OwnerEmail:    email,
			OwnerPassword: os.Getenv("SHIFTCREW_OWNER_PASSWORD"),
		}
		if in.OwnerPassword == "" {
			in.OwnerPassword = passwordFromEnvOrPrompt("SHIFTCREW_OWNER_PASSWORD")
		}

		res, err := app.Orgs.Bootstrap(rootCtx, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("%s Created organization %s (owner %s)\n", ui.RenderPassIcon(), res.Org.Name, res.Owner.Username)
	},
}

var orgListCmd = &cobra.Command{
	Use:   "list",
	Short: "List organizations in the database",
	Run: func(cmd *cobra.Command, args []string) {
		orgs, err := store.ListOrganizations(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(orgs)
			return
		}

		for _, o := range orgs {
			status := "active"
			if !o.IsActive {
				status = "inactive"
			}
			fmt.Printf("%s  %-30s %s\n", shortID(o.ID), o.Name, ui.RenderStatus(status))
		}
	},
}

var orgShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the working organization",
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)

		detail, err := app.Orgs.GetOrganization(rootCtx, o.ID)
		if err != nil {
			FatalError("%v", err)
		}
		roles, err := store.ListRoles(rootCtx, o.ID)
		if err != nil {
			FatalError("%v", err)
		}
		stores, err := store.ListStores(rootCtx, o.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"organization": detail,
				"roles":        roles,
				"stores":       stores,
			})
			return
		}

		fmt.Printf("\n%s\n", ui.RenderHeader(detail.Name))
		fmt.Printf("  ID:      %s\n", detail.ID)
		status := "active"
		if !detail.IsActive {
			status = "inactive"
		}
		fmt.Printf("  Status:  %s\n", ui.RenderStatus(status))
		fmt.Printf("  Created: %s\n", fmtDate(detail.CreatedAt))

		fmt.Printf("\nRoles:\n")
		for _, r := range roles {
			fmt.Printf("  L%d  %s\n", r.Level, r.Name)
		}

		fmt.Printf("\nStores (%d):\n", len(stores))
		for _, st := range stores {
			fmt.Printf("  %s  %s\n", shortID(st.ID), st.Name)
		}
	},
}

var orgUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rename or toggle the working organization",
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)

		in := org.OrgUpdateInput{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			in.Name = &name
		}
		if cmd.Flags().Changed("active") {
			active, _ := cmd.Flags().GetBool("active")
			in.IsActive = &active
		}
		if in.Name == nil && in.IsActive == nil {
			FatalError("nothing to update (pass --name or --active)")
		}

		updated, err := app.Orgs.UpdateOrganization(rootCtx, o.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated organization %s\n", ui.RenderPassIcon(), updated.Name)
	},
}

func init() {
	orgCreateCmd.Flags().String("owner", "", "Owner username (required)")
	orgCreateCmd.Flags().String("store", "", "First store name (optional)")
	orgCreateCmd.Flags().String("name", "", "Owner full name")
	orgCreateCmd.Flags().String("email", "", "Owner email")

	orgUpdateCmd.Flags().String("name", "", "New organization name")
	orgUpdateCmd.Flags().Bool("active", true, "Activate or deactivate")

	orgCmd.AddCommand(orgCreateCmd)
	orgCmd.AddCommand(orgListCmd)
	orgCmd.AddCommand(orgShowCmd)
	orgCmd.AddCommand(orgUpdateCmd)
	rootCmd.AddCommand(orgCmd)
}
