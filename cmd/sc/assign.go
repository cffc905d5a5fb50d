package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/assignment"
	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var assignCmd = &cobra.Command{
	Use:     "assign",
	GroupID: "work",
	Short:   "Hand out and track work assignments",
	Long: `Hand out work assignments. Creating one freezes the matching checklist
template into a snapshot; the worker checks items off against that
snapshot even if the template changes later.

A worker holds at most one assignment per store/shift/position/date.`,
}

var assignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Assign workers to a shift and position",
	Long: `Assign one or more workers to a store/shift/position on a date.
Passing --user more than once creates the whole batch in one
transaction; a duplicate anywhere rolls back the lot.

Examples:
  sc assign create --store Downtown --shift Morning --position Kitchen --user maria --date today
  sc assign create --store Downtown --shift Close --position Floor --user jo --user sam --date +1d`,
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		shiftRef, _ := cmd.Flags().GetString("shift")
		positionRef, _ := cmd.Flags().GetString("position")
		userRefs, _ := cmd.Flags().GetStringSlice("user")
		dateStr, _ := cmd.Flags().GetString("date")
		if storeRef == "" || shiftRef == "" || positionRef == "" || len(userRefs) == 0 {
			FatalError("--store, --shift, --position, and at least one --user are required")
		}
		if dateStr == "" {
			dateStr = "today"
		}

		c := requireCaller(rootCtx)
		st := resolveStore(rootCtx, c.Org.ID, storeRef)
		sh := resolveShift(rootCtx, st.ID, shiftRef)
		pos := resolvePosition(rootCtx, st.ID, positionRef)
		workDate := mustDate("date", dateStr)

		ins := make([]assignment.CreateInput, 0, len(userRefs))
		for _, ref := range userRefs {
			u := resolveUser(rootCtx, c.Org.ID, ref)
			ins = append(ins, assignment.CreateInput{
				StoreID:    st.ID,
				ShiftID:    sh.ID,
				PositionID: pos.ID,
				UserID:     u.ID,
				WorkDate:   workDate,
			})
		}

		var created []*types.WorkAssignment
		if len(ins) == 1 {
			asg, err := app.Assignments.Create(rootCtx, c.Org.ID, c.User.ID, ins[0])
			if err != nil {
				FatalError("%v", err)
			}
			created = append(created, asg)
		} else {
			var err error
			created, err = app.Assignments.BulkCreate(rootCtx, c.Org.ID, c.User.ID, ins)
			if err != nil {
				FatalError("%v", err)
			}
		}

		if jsonOutput {
			outputJSON(created)
			return
		}
		if len(created) == 1 {
			fmt.Printf("%s Assigned %s to %s / %s / %s on %s (%d checklist items)\n",
				ui.RenderPassIcon(), userRefs[0], st.Name, sh.Name, pos.Name,
				fmtDate(workDate), created[0].TotalItems)
			fmt.Printf("  ID: %s\n", created[0].ID)
			return
		}
		fmt.Printf("%s Assigned %d workers to %s / %s / %s on %s\n",
			ui.RenderPassIcon(), len(created), st.Name, sh.Name, pos.Name, fmtDate(workDate))
	},
}

var assignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assignments",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		o := requireOrg(rootCtx)
		f := storage.AssignmentFilter{Page: pageFromFlags(page, perPage)}

		if cmd.Flags().Changed("store") {
			storeRef, _ := cmd.Flags().GetString("store")
			id := resolveStore(rootCtx, o.ID, storeRef).ID
			f.StoreID = &id
		}
		if cmd.Flags().Changed("user") {
			userRef, _ := cmd.Flags().GetString("user")
			id := resolveUser(rootCtx, o.ID, userRef).ID
			f.UserID = &id
		}
		if cmd.Flags().Changed("date") {
			dateStr, _ := cmd.Flags().GetString("date")
			d := mustDate("date", dateStr)
			f.WorkDate = &d
		}
		if cmd.Flags().Changed("status") {
			status, _ := cmd.Flags().GetString("status")
			f.Status = mustAssignmentStatus(status)
		}

		items, total, err := app.Assignments.List(rootCtx, o.ID, f)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		renderAssignments(items)
		showMore(len(items), total)
	},
}

var assignMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the acting user's assignments",
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)

		var workDate *time.Time
		if cmd.Flags().Changed("date") {
			dateStr, _ := cmd.Flags().GetString("date")
			d := mustDate("date", dateStr)
			workDate = &d
		}
		var status types.AssignmentStatus
		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			status = mustAssignmentStatus(raw)
		}

		items, total, err := app.Assignments.ListMine(rootCtx, c.Org.ID, c.User.ID, workDate, status)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		renderAssignments(items)
	},
}

var assignShowCmd = &cobra.Command{
	Use:   "show <assignment-id>",
	Short: "Show an assignment with its checklist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		asg, err := app.Assignments.Get(rootCtx, o.ID, mustID("assignment", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(asg)
			return
		}

		idx := buildNameIndex(rootCtx, o.ID)
		fmt.Printf("\n%s\n", ui.RenderHeader(fmt.Sprintf("%s / %s / %s", idx.store(asg.StoreID), idx.shift(asg.ShiftID), idx.position(asg.PositionID))))
		fmt.Printf("  ID:       %s\n", asg.ID)
		fmt.Printf("  Worker:   %s\n", idx.user(asg.UserID))
		fmt.Printf("  Date:     %s\n", fmtDate(asg.WorkDate))
		fmt.Printf("  Status:   %s\n", ui.RenderStatus(string(asg.Status)))
		fmt.Printf("  Progress: %d/%d\n", asg.CompletedItems, asg.TotalItems)

		if asg.Snapshot == nil || len(asg.Snapshot.Items) == 0 {
			fmt.Println("\n  (no checklist for this shift/position)")
			return
		}
		fmt.Printf("\nChecklist (%s):\n", asg.Snapshot.TemplateName)
		for _, item := range asg.Snapshot.Items {
			box := "[ ]"
			when := ""
			if item.IsCompleted {
				box = ui.RenderPass("[x]")
				if item.CompletedAt != nil {
					when = "  " + ui.RenderMuted(*item.CompletedAt)
				}
			}
			fmt.Printf("  %s %2d  %s%s\n", box, item.ItemIndex, item.Title, when)
		}
		fmt.Printf("\nCheck items off with: sc assign check %s <item>\n", asg.ID)
	},
}

var assignCheckCmd = &cobra.Command{
	Use:   "check <assignment-id> <item>",
	Short: "Check a checklist item off (or back on with --undo)",
	Long: `Check an item off an assignment's checklist. Item numbers come from
'sc assign show'. Items demanding evidence reject a bare check: pass
--photo for photo/video verification and --note for text verification.

--undo removes a completion; undoing an item that was never checked
fails rather than passing silently.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		photo, _ := cmd.Flags().GetString("photo")
		note, _ := cmd.Flags().GetString("note")
		tz, _ := cmd.Flags().GetString("tz")
		undo, _ := cmd.Flags().GetBool("undo")

		c := requireCaller(rootCtx)
		asg, err := app.Assignments.CompleteItem(rootCtx, c.Org.ID,
			mustID("assignment", args[0]), mustInt("item", args[1]), !undo, c.User.ID,
			checklist.Evidence{PhotoURL: photo, Note: note, Timezone: tz})
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(asg)
			return
		}
		if undo {
			fmt.Printf("%s Unchecked item %s (%d/%d done)\n", ui.RenderWarnIcon(), args[1], asg.CompletedItems, asg.TotalItems)
			return
		}
		fmt.Printf("%s Checked item %s (%d/%d done)\n", ui.RenderPassIcon(), args[1], asg.CompletedItems, asg.TotalItems)
		if asg.Status == types.AssignmentCompleted {
			fmt.Printf("%s Checklist complete\n", ui.RenderPass("★"))
		}
	},
}

var assignDeleteCmd = &cobra.Command{
	Use:   "delete <assignment-id>",
	Short: "Delete an assignment",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		id := mustID("assignment", args[0])

		if err := app.Assignments.Delete(rootCtx, o.ID, id); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": id.String()})
			return
		}
		fmt.Printf("%s Deleted assignment %s\n", ui.RenderPassIcon(), shortID(id))
	},
}

var assignRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Suggest workers from recent assignments",
	Long: `List who recently worked each shift/position combo at a store, most
recent first. Useful when building a day's roster: the people who held
a slot last week are the likely candidates for it today.`,
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		days, _ := cmd.Flags().GetInt("days")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		var exclude *time.Time
		if cmd.Flags().Changed("exclude-date") {
			dateStr, _ := cmd.Flags().GetString("exclude-date")
			d := mustDate("exclude-date", dateStr)
			exclude = &d
		}

		recents, err := app.Assignments.RecentUsers(rootCtx, o.ID, st.ID, exclude, days)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(recents)
			return
		}

		idx := buildNameIndex(rootCtx, o.ID)
		for _, r := range recents {
			fmt.Printf("  %-12s %-12s %-16s last worked %s\n",
				idx.shift(r.ShiftID), idx.position(r.PositionID), idx.user(r.UserID), fmtDate(r.LastWorkDate))
		}
	},
}

// renderAssignments prints one line per assignment with names resolved.
func renderAssignments(items []*types.WorkAssignment) {
	if len(items) == 0 {
		fmt.Println("No assignments found")
		return
	}
	idx := buildNameIndex(rootCtx, items[0].OrganizationID)
	for _, asg := range items {
		fmt.Printf("%s  %s  %-12s %-10s %-10s %-14s %3d/%-3d %s\n",
			shortID(asg.ID), fmtDate(asg.WorkDate), idx.store(asg.StoreID),
			idx.shift(asg.ShiftID), idx.position(asg.PositionID), idx.user(asg.UserID),
			asg.CompletedItems, asg.TotalItems, ui.RenderStatus(string(asg.Status)))
	}
}

func mustAssignmentStatus(raw string) types.AssignmentStatus {
	s := types.AssignmentStatus(raw)
	if !s.IsValid() {
		FatalError("invalid status %q (want assigned, in_progress, or completed)", raw)
	}
	return s
}

func init() {
	assignCreateCmd.Flags().String("store", "", "Store name or ID (required)")
	assignCreateCmd.Flags().String("shift", "", "Shift name or ID (required)")
	assignCreateCmd.Flags().String("position", "", "Position name or ID (required)")
	assignCreateCmd.Flags().StringSlice("user", nil, "Worker username or ID (repeatable)")
	assignCreateCmd.Flags().String("date", "", "Work date (default today)")

	assignListCmd.Flags().String("store", "", "Filter by store")
	assignListCmd.Flags().String("user", "", "Filter by worker")
	assignListCmd.Flags().String("date", "", "Filter by work date")
	assignListCmd.Flags().String("status", "", "Filter by status: assigned, in_progress, completed")
	assignListCmd.Flags().Int("page", 1, "Page number")
	assignListCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	assignMineCmd.Flags().String("date", "", "Filter by work date")
	assignMineCmd.Flags().String("status", "", "Filter by status")

	assignCheckCmd.Flags().String("photo", "", "Photo or video URL as evidence")
	assignCheckCmd.Flags().String("note", "", "Text note as evidence")
	assignCheckCmd.Flags().String("tz", "", "IANA timezone for the completion stamp")
	assignCheckCmd.Flags().Bool("undo", false, "Uncheck instead of check")

	assignRecentCmd.Flags().String("store", "", "Store name or ID (required)")
	assignRecentCmd.Flags().Int("days", 30, "Lookback window in days")
	assignRecentCmd.Flags().String("exclude-date", "", "Skip workers already assigned on this date")

	assignCmd.AddCommand(assignCreateCmd)
	assignCmd.AddCommand(assignListCmd)
	assignCmd.AddCommand(assignMineCmd)
	assignCmd.AddCommand(assignShowCmd)
	assignCmd.AddCommand(assignCheckCmd)
	assignCmd.AddCommand(assignDeleteCmd)
	assignCmd.AddCommand(assignRecentCmd)
	rootCmd.AddCommand(assignCmd)
}
