package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var storeCmd = &cobra.Command{
	Use:     "store",
	GroupID: "people",
	Short:   "Manage stores",
	Long: `Manage physical locations. Shifts, positions, checklists, schedules,
and attendance all hang off a store.`,
}

var storeCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		address, _ := cmd.Flags().GetString("address")

		c := requireCaller(rootCtx)
		st, err := app.Orgs.CreateStore(rootCtx, c.Org.ID, org.StoreInput{
			Name:    args[0],
			Address: address,
		})
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(st)
			return
		}
		fmt.Printf("%s Created store %s (%s)\n", ui.RenderPassIcon(), st.Name, shortID(st.ID))
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stores",
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		stores, err := app.Orgs.ListStores(rootCtx, o.ID, nil)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(stores)
			return
		}

		for _, st := range stores {
			status := "active"
			if !st.IsActive {
				status = "inactive"
			}
			addr := st.Address
			if addr == "" {
				addr = "-"
			}
			fmt.Printf("%s  %-24s %-32s %s\n", shortID(st.ID), st.Name, addr, ui.RenderStatus(status))
		}
	},
}

var storeShowCmd = &cobra.Command{
	Use:   "show <store>",
	Short: "Show a store with its shifts and positions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, args[0])

		detail, err := app.Orgs.GetStore(rootCtx, o.ID, st.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(detail)
			return
		}

		fmt.Printf("\n%s\n", ui.RenderHeader(detail.Store.Name))
		fmt.Printf("  ID:      %s\n", detail.Store.ID)
		if detail.Store.Address != "" {
			fmt.Printf("  Address: %s\n", detail.Store.Address)
		}
		status := "active"
		if !detail.Store.IsActive {
			status = "inactive"
		}
		fmt.Printf("  Status:  %s\n", ui.RenderStatus(status))

		fmt.Printf("\nShifts:\n")
		if len(detail.Shifts) == 0 {
			fmt.Println("  (none)")
		}
		for _, sh := range detail.Shifts {
			fmt.Printf("  %s  %s\n", shortID(sh.ID), sh.Name)
		}

		fmt.Printf("\nPositions:\n")
		if len(detail.Positions) == 0 {
			fmt.Println("  (none)")
		}
		for _, p := range detail.Positions {
			fmt.Printf("  %s  %s\n", shortID(p.ID), p.Name)
		}
	},
}

var storeUpdateCmd = &cobra.Command{
	Use:   "update <store>",
	Short: "Edit a store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, args[0])

		in := org.StoreUpdateInput{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			in.Name = &name
		}
		if cmd.Flags().Changed("address") {
			address, _ := cmd.Flags().GetString("address")
			in.Address = &address
		}
		if cmd.Flags().Changed("active") {
			active, _ := cmd.Flags().GetBool("active")
			in.IsActive = &active
		}
		if in.Name == nil && in.Address == nil && in.IsActive == nil {
			FatalError("nothing to update (pass --name, --address, or --active)")
		}

		updated, err := app.Orgs.UpdateStore(rootCtx, o.ID, st.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated store %s\n", ui.RenderPassIcon(), updated.Name)
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <store>",
	Short: "Delete a store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, args[0])

		if err := app.Orgs.DeleteStore(rootCtx, o.ID, st.ID); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": st.ID.String()})
			return
		}
		fmt.Printf("%s Deleted store %s\n", ui.RenderPassIcon(), st.Name)
	},
}

func init() {
	storeCreateCmd.Flags().String("address", "", "Street address")

	storeUpdateCmd.Flags().String("name", "", "New store name")
	storeUpdateCmd.Flags().String("address", "", "New street address")
	storeUpdateCmd.Flags().Bool("active", true, "Activate or deactivate")

	storeCmd.AddCommand(storeCreateCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeShowCmd)
	storeCmd.AddCommand(storeUpdateCmd)
	storeCmd.AddCommand(storeDeleteCmd)
	rootCmd.AddCommand(storeCmd)
}
