package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	GroupID: "work",
	Short:   "Manage checklist templates",
	Long: `Manage checklist templates. Each template belongs to one
(store, shift, position) triple and holds the ordered items a worker
checks off during that shift. Assignments freeze a snapshot of the
template at hand-out time, so edits here never touch running checklists.

Template IDs come from 'sc template list --json'.`,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a template for a store/shift/position",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		shiftRef, _ := cmd.Flags().GetString("shift")
		positionRef, _ := cmd.Flags().GetString("position")
		if storeRef == "" || shiftRef == "" || positionRef == "" {
			FatalError("--store, --shift, and --position are required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)
		sh := resolveShift(rootCtx, st.ID, shiftRef)
		pos := resolvePosition(rootCtx, st.ID, positionRef)

		tpl, err := app.Templates.Create(rootCtx, o.ID, st.ID, checklist.TemplateInput{
			ShiftID:    sh.ID,
			PositionID: pos.ID,
			Title:      args[0],
		})
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(tpl)
			return
		}
		fmt.Printf("%s Created template %q for %s / %s / %s\n",
			ui.RenderPassIcon(), tpl.Title, st.Name, sh.Name, pos.Name)
		fmt.Printf("  ID: %s\n", tpl.ID)
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a store's templates",
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		tpls, err := app.Templates.ListForStore(rootCtx, o.ID, st.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(tpls)
			return
		}

		idx := buildNameIndex(rootCtx, o.ID)
		for _, tpl := range tpls {
			fmt.Printf("%s  %-12s %-12s %s (%d items)\n",
				shortID(tpl.ID), idx.shift(tpl.ShiftID), idx.position(tpl.PositionID),
				tpl.Title, len(tpl.Items))
		}
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Show a template with its items",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		tpl, err := app.Templates.Get(rootCtx, o.ID, mustID("template", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(tpl)
			return
		}

		idx := buildNameIndex(rootCtx, o.ID)
		fmt.Printf("\n%s\n", ui.RenderHeader(tpl.Title))
		fmt.Printf("  ID:       %s\n", tpl.ID)
		fmt.Printf("  Store:    %s\n", idx.store(tpl.StoreID))
		fmt.Printf("  Shift:    %s\n", idx.shift(tpl.ShiftID))
		fmt.Printf("  Position: %s\n", idx.position(tpl.PositionID))

		fmt.Printf("\nItems (%d):\n", len(tpl.Items))
		for i, item := range tpl.Items {
			fmt.Printf("  %2d. %s\n", i+1, item.Title)
			if item.Description != "" {
				fmt.Printf("      %s\n", item.Description)
			}
			extra := describeItemRules(item)
			if extra != "" {
				fmt.Printf("      %s\n", ui.RenderMuted(extra))
			}
		}
	},
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update <template-id>",
	Short: "Retitle a template or move it to another shift/position",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		tpl, err := app.Templates.Get(rootCtx, o.ID, mustID("template", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		in := checklist.TemplateInput{
			ShiftID:    tpl.ShiftID,
			PositionID: tpl.PositionID,
			Title:      tpl.Title,
		}
		changed := false
		if cmd.Flags().Changed("title") {
			in.Title, _ = cmd.Flags().GetString("title")
			changed = true
		}
		if cmd.Flags().Changed("shift") {
			shiftRef, _ := cmd.Flags().GetString("shift")
			in.ShiftID = resolveShift(rootCtx, tpl.StoreID, shiftRef).ID
			changed = true
		}
		if cmd.Flags().Changed("position") {
			positionRef, _ := cmd.Flags().GetString("position")
			in.PositionID = resolvePosition(rootCtx, tpl.StoreID, positionRef).ID
			changed = true
		}
		if !changed {
			FatalError("nothing to update (pass --title, --shift, or --position)")
		}

		updated, err := app.Templates.Update(rootCtx, o.ID, tpl.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated template %q\n", ui.RenderPassIcon(), updated.Title)
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <template-id>",
	Short: "Delete a template and its items",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		id := mustID("template", args[0])

		if err := app.Templates.Delete(rootCtx, o.ID, id); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": id.String()})
			return
		}
		fmt.Printf("%s Deleted template %s\n", ui.RenderPassIcon(), shortID(id))
	},
}

var templateAddItemCmd = &cobra.Command{
	Use:   "add-item <template-id> <title>",
	Short: "Append an item to a template",
	Long: `Append an item to a template.

--verify sets the evidence required on completion: none, photo, text,
video, or a comma combination like photo,text. --recur weekly limits the
item to the weekdays in --days (0=Mon..6=Sun).

Examples:
  sc template add-item 4f2a... "Count the register" --verify photo
  sc template add-item 4f2a... "Deep-clean fryer" --recur weekly --days 0,3`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		desc, _ := cmd.Flags().GetString("desc")
		verify, _ := cmd.Flags().GetString("verify")
		recur, _ := cmd.Flags().GetString("recur")
		daysRaw, _ := cmd.Flags().GetString("days")

		o := requireOrg(rootCtx)
		item, err := app.Templates.AddItem(rootCtx, o.ID, mustID("template", args[0]), checklist.ItemInput{
			Title:            args[1],
			Description:      desc,
			VerificationType: types.VerificationType(verify),
			RecurrenceType:   types.RecurrenceType(recur),
			RecurrenceDays:   mustDays(daysRaw),
		})
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(item)
			return
		}
		fmt.Printf("%s Added item %q\n", ui.RenderPassIcon(), item.Title)
		fmt.Printf("  ID: %s\n", item.ID)
	},
}

var templateUpdateItemCmd = &cobra.Command{
	Use:   "update-item <template-id> <item-id>",
	Short: "Edit a template item",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		tpl, err := app.Templates.Get(rootCtx, o.ID, mustID("template", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		itemID := mustID("item", args[1])
		var existing *types.ChecklistTemplateItem
		for _, it := range tpl.Items {
			if it.ID == itemID {
				existing = it
				break
			}
		}
		if existing == nil {
			FatalError("item %s not found in template", args[1])
		}

		in := checklist.ItemInput{
			Title:            existing.Title,
			Description:      existing.Description,
			VerificationType: existing.VerificationType,
			RecurrenceType:   existing.RecurrenceType,
			RecurrenceDays:   existing.RecurrenceDays,
		}
		changed := false
		if cmd.Flags().Changed("title") {
			in.Title, _ = cmd.Flags().GetString("title")
			changed = true
		}
		if cmd.Flags().Changed("desc") {
			in.Description, _ = cmd.Flags().GetString("desc")
			changed = true
		}
		if cmd.Flags().Changed("verify") {
			verify, _ := cmd.Flags().GetString("verify")
			in.VerificationType = types.VerificationType(verify)
			changed = true
		}
		if cmd.Flags().Changed("recur") {
			recur, _ := cmd.Flags().GetString("recur")
			in.RecurrenceType = types.RecurrenceType(recur)
			changed = true
		}
		if cmd.Flags().Changed("days") {
			daysRaw, _ := cmd.Flags().GetString("days")
			in.RecurrenceDays = mustDays(daysRaw)
			changed = true
		}
		if !changed {
			FatalError("nothing to update (pass --title, --desc, --verify, --recur, or --days)")
		}

		item, err := app.Templates.UpdateItem(rootCtx, o.ID, tpl.ID, itemID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(item)
			return
		}
		fmt.Printf("%s Updated item %q\n", ui.RenderPassIcon(), item.Title)
	},
}

var templateRemoveItemCmd = &cobra.Command{
	Use:   "remove-item <template-id> <item-id>",
	Short: "Remove an item from a template",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		if err := app.Templates.DeleteItem(rootCtx, o.ID, mustID("template", args[0]), mustID("item", args[1])); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"removed": args[1]})
			return
		}
		fmt.Printf("%s Removed item\n", ui.RenderPassIcon())
	},
}

var templateReorderCmd = &cobra.Command{
	Use:   "reorder <template-id> <item-id>...",
	Short: "Reorder a template's items",
	Long: `Reorder a template's items. Pass every item ID in the desired order;
a partial or duplicated list is rejected.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		tplID := mustID("template", args[0])

		var ordered []uuid.UUID
		for _, ref := range args[1:] {
			ordered = append(ordered, mustID("item", ref))
		}

		if err := app.Templates.ReorderItems(rootCtx, o.ID, tplID, ordered); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{"template": tplID, "order": ordered})
			return
		}
		fmt.Printf("%s Reordered %d items\n", ui.RenderPassIcon(), len(ordered))
	},
}

var templateExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a store's templates as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		outPath, _ := cmd.Flags().GetString("output")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		data, err := app.Templates.ExportYAML(rootCtx, o.ID, st.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if outPath == "" || outPath == "-" {
			os.Stdout.Write(data)
			return
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			FatalError("writing %s: %v", outPath, err)
		}
		fmt.Fprintf(os.Stderr, "%s Exported templates for %s to %s\n", ui.RenderPassIcon(), st.Name, outPath)
	},
}

var templateImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import templates from a YAML export",
	Long: `Import templates from a YAML export. Shift and position names in the
file must already exist in the target store. Templates whose
shift/position pair is already taken are skipped, so re-importing the
same file is harmless.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			FatalError("reading %s: %v", args[0], err)
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		res, err := app.Templates.ImportYAML(rootCtx, o.ID, st.ID, data)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("%s Imported %d templates into %s\n", ui.RenderPassIcon(), res.Created, st.Name)
		if res.Skipped > 0 {
			fmt.Printf("%s Skipped %d (shift/position already has a template): %s\n",
				ui.RenderWarnIcon(), res.Skipped, strings.Join(res.SkippedTitles, ", "))
		}
	},
}

// describeItemRules summarizes an item's verification and recurrence for
// table output. Daily items with no verification render as nothing.
func describeItemRules(item *types.ChecklistTemplateItem) string {
	var parts []string
	if item.VerificationType != types.VerifyNone {
		parts = append(parts, fmt.Sprintf("verify: %s", item.VerificationType))
	}
	if item.RecurrenceType == types.RecurWeekly {
		if len(item.RecurrenceDays) > 0 {
			names := make([]string, 0, len(item.RecurrenceDays))
			for _, d := range item.RecurrenceDays {
				names = append(names, weekdayName(d))
			}
			parts = append(parts, "weekly: "+strings.Join(names, ","))
		} else {
			parts = append(parts, "weekly")
		}
	}
	return strings.Join(parts, "  ")
}

func weekdayName(d int) string {
	names := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if d >= 0 && d < len(names) {
		return names[d]
	}
	return strconv.Itoa(d)
}

// mustDays parses a comma-separated weekday list like "0,3,5".
func mustDays(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(raw, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			FatalError("parsing --days: %q is not a number", part)
		}
		days = append(days, d)
	}
	return days
}

func init() {
	templateCreateCmd.Flags().String("store", "", "Store name or ID (required)")
	templateCreateCmd.Flags().String("shift", "", "Shift name or ID (required)")
	templateCreateCmd.Flags().String("position", "", "Position name or ID (required)")

	templateListCmd.Flags().String("store", "", "Store name or ID (required)")

	templateUpdateCmd.Flags().String("title", "", "New title")
	templateUpdateCmd.Flags().String("shift", "", "Move to this shift")
	templateUpdateCmd.Flags().String("position", "", "Move to this position")

	for _, c := range []*cobra.Command{templateAddItemCmd, templateUpdateItemCmd} {
		c.Flags().String("desc", "", "Item description")
		c.Flags().String("verify", "none", "Evidence required: none, photo, text, video (comma-combinable)")
		c.Flags().String("recur", "daily", "Recurrence: daily or weekly")
		c.Flags().String("days", "", "Weekdays for weekly items, e.g. 0,3 (0=Mon..6=Sun)")
	}
	templateUpdateItemCmd.Flags().String("title", "", "New item title")

	templateExportCmd.Flags().String("store", "", "Store name or ID (required)")
	templateExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	templateImportCmd.Flags().String("store", "", "Store name or ID (required)")

	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateUpdateCmd)
	templateCmd.AddCommand(templateDeleteCmd)
	templateCmd.AddCommand(templateAddItemCmd)
	templateCmd.AddCommand(templateUpdateItemCmd)
	templateCmd.AddCommand(templateRemoveItemCmd)
	templateCmd.AddCommand(templateReorderCmd)
	templateCmd.AddCommand(templateExportCmd)
	templateCmd.AddCommand(templateImportCmd)
	rootCmd.AddCommand(templateCmd)
}
