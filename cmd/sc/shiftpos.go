package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

// Shifts and positions are both store-scoped label lists with a sort
// order, so the two command trees mirror each other.

var shiftCmd = &cobra.Command{
	Use:     "shift",
	GroupID: "people",
	Short:   "Manage a store's shift slots",
	Long: `Manage the shift slots of a store (morning, evening, close). Shifts
anchor checklists and schedules; deleting one that is referenced fails.`,
}

var shiftCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Add a shift to a store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		sortOrder, _ := cmd.Flags().GetInt("sort")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		sh, err := app.Orgs.CreateShift(rootCtx, o.ID, st.ID, org.ShiftInput{
			Name:      args[0],
			SortOrder: sortOrder,
		})
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(sh)
			return
		}
		fmt.Printf("%s Created shift %s at %s\n", ui.RenderPassIcon(), sh.Name, st.Name)
	},
}

var shiftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a store's shifts",
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		shifts, err := app.Orgs.ListShifts(rootCtx, o.ID, st.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(shifts)
			return
		}
		for _, sh := range shifts {
			fmt.Printf("%s  %2d  %s\n", shortID(sh.ID), sh.SortOrder, sh.Name)
		}
	},
}

var shiftUpdateCmd = &cobra.Command{
	Use:   "update <shift>",
	Short: "Rename or reorder a shift",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)
		sh := resolveShift(rootCtx, st.ID, args[0])

		in := org.ShiftUpdateInput{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			in.Name = &name
		}
		if cmd.Flags().Changed("sort") {
			sort, _ := cmd.Flags().GetInt("sort")
			in.SortOrder = &sort
		}
		if in.Name == nil && in.SortOrder == nil {
			FatalError("nothing to update (pass --name or --sort)")
		}

		updated, err := app.Orgs.UpdateShift(rootCtx, o.ID, st.ID, sh.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated shift %s\n", ui.RenderPassIcon(), updated.Name)
	},
}

var shiftDeleteCmd = &cobra.Command{
	Use:   "delete <shift>",
	Short: "Delete a shift",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)
		sh := resolveShift(rootCtx, st.ID, args[0])

		if err := app.Orgs.DeleteShift(rootCtx, o.ID, st.ID, sh.ID); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": sh.Name})
			return
		}
		fmt.Printf("%s Deleted shift %s\n", ui.RenderPassIcon(), sh.Name)
	},
}

var positionCmd = &cobra.Command{
	Use:     "position",
	GroupID: "people",
	Short:   "Manage a store's positions",
	Long: `Manage the working positions of a store (kitchen, counter, floor).
Positions anchor checklists and schedules the same way shifts do.`,
}

var positionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Add a position to a store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		sortOrder, _ := cmd.Flags().GetInt("sort")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		p, err := app.Orgs.CreatePosition(rootCtx, o.ID, st.ID, org.ShiftInput{
			Name:      args[0],
			SortOrder: sortOrder,
		})
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(p)
			return
		}
		fmt.Printf("%s Created position %s at %s\n", ui.RenderPassIcon(), p.Name, st.Name)
	},
}

var positionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a store's positions",
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		positions, err := app.Orgs.ListPositions(rootCtx, o.ID, st.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(positions)
			return
		}
		for _, p := range positions {
			fmt.Printf("%s  %2d  %s\n", shortID(p.ID), p.SortOrder, p.Name)
		}
	},
}

var positionUpdateCmd = &cobra.Command{
	Use:   "update <position>",
	Short: "Rename or reorder a position",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)
		p := resolvePosition(rootCtx, st.ID, args[0])

		in := org.ShiftUpdateInput{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			in.Name = &name
		}
		if cmd.Flags().Changed("sort") {
			sort, _ := cmd.Flags().GetInt("sort")
			in.SortOrder = &sort
		}
		if in.Name == nil && in.SortOrder == nil {
			FatalError("nothing to update (pass --name or --sort)")
		}

		updated, err := app.Orgs.UpdatePosition(rootCtx, o.ID, st.ID, p.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated position %s\n", ui.RenderPassIcon(), updated.Name)
	},
}

var positionDeleteCmd = &cobra.Command{
	Use:   "delete <position>",
	Short: "Delete a position",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)
		p := resolvePosition(rootCtx, st.ID, args[0])

		if err := app.Orgs.DeletePosition(rootCtx, o.ID, st.ID, p.ID); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": p.Name})
			return
		}
		fmt.Printf("%s Deleted position %s\n", ui.RenderPassIcon(), p.Name)
	},
}

func init() {
	for _, c := range []*cobra.Command{shiftCreateCmd, shiftListCmd, shiftUpdateCmd, shiftDeleteCmd} {
		c.Flags().String("store", "", "Store name or ID (required)")
	}
	shiftCreateCmd.Flags().Int("sort", 0, "Sort order")
	shiftUpdateCmd.Flags().String("name", "", "New name")
	shiftUpdateCmd.Flags().Int("sort", 0, "New sort order")

	shiftCmd.AddCommand(shiftCreateCmd)
	shiftCmd.AddCommand(shiftListCmd)
	shiftCmd.AddCommand(shiftUpdateCmd)
	shiftCmd.AddCommand(shiftDeleteCmd)
	rootCmd.AddCommand(shiftCmd)

	for _, c := range []*cobra.Command{positionCreateCmd, positionListCmd, positionUpdateCmd, positionDeleteCmd} {
		c.Flags().String("store", "", "Store name or ID (required)")
	}
	positionCreateCmd.Flags().Int("sort", 0, "Sort order")
	positionUpdateCmd.Flags().String("name", "", "New name")
	positionUpdateCmd.Flags().Int("sort", 0, "New sort order")

	positionCmd.AddCommand(positionCreateCmd)
	positionCmd.AddCommand(positionListCmd)
	positionCmd.AddCommand(positionUpdateCmd)
	positionCmd.AddCommand(positionDeleteCmd)
	rootCmd.AddCommand(positionCmd)
}
