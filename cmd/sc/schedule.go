package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/laborlaw"
	"github.com/shiftcrew/shiftcrew/internal/schedule"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	GroupID: "work",
	Short:   "Propose and approve work schedules",
	Long: `Propose and approve work schedules. A schedule moves through
draft -> pending -> approved, or gets cancelled along the way. Approval
creates the matching work assignment in the same transaction, so an
approved schedule always has its checklist ready.

Every transition lands in an audit trail; see 'sc schedule history'.`,
}

var scheduleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Draft a schedule for a worker",
	Long: `Draft a schedule. --preset fills shift and times from a stored preset;
explicit --shift/--start/--end flags win over preset values.

Examples:
  sc schedule create --store Downtown --user maria --date +1d --preset Opener
  sc schedule create --store Downtown --user jo --date "next friday" --shift Evening --start 16:00 --end 22:00`,
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		userRef, _ := cmd.Flags().GetString("user")
		dateStr, _ := cmd.Flags().GetString("date")
		if storeRef == "" || userRef == "" || dateStr == "" {
			FatalError("--store, --user, and --date are required")
		}

		c := requireCaller(rootCtx)
		st := resolveStore(rootCtx, c.Org.ID, storeRef)
		u := resolveUser(rootCtx, c.Org.ID, userRef)

		in := schedule.CreateInput{
			StoreID:  st.ID,
			UserID:   u.ID,
			WorkDate: mustDate("date", dateStr),
		}
		in.StartTime, _ = cmd.Flags().GetString("start")
		in.EndTime, _ = cmd.Flags().GetString("end")
		in.Note, _ = cmd.Flags().GetString("note")

		if cmd.Flags().Changed("shift") {
			shiftRef, _ := cmd.Flags().GetString("shift")
			id := resolveShift(rootCtx, st.ID, shiftRef).ID
			in.ShiftID = &id
		}
		if cmd.Flags().Changed("position") {
			positionRef, _ := cmd.Flags().GetString("position")
			id := resolvePosition(rootCtx, st.ID, positionRef).ID
			in.PositionID = &id
		}
		if cmd.Flags().Changed("preset") {
			presetRef, _ := cmd.Flags().GetString("preset")
			id := resolvePreset(rootCtx, st.ID, presetRef).ID
			in.PresetID = &id
		}

		sch, err := app.Schedules.Create(rootCtx, c.Org.ID, c.User.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(sch)
			return
		}
		fmt.Printf("%s Drafted schedule for %s at %s on %s (%s-%s)\n",
			ui.RenderPassIcon(), u.Username, st.Name, fmtDate(sch.WorkDate),
			orDash(sch.StartTime), orDash(sch.EndTime))
		fmt.Printf("  ID: %s\n", sch.ID)
		fmt.Printf("  Submit it for approval with: sc schedule submit %s\n", sch.ID)
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		o := requireOrg(rootCtx)
		f := storage.ScheduleFilter{Page: pageFromFlags(page, perPage)}

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
		if cmd.Flags().Changed("from") {
			fromStr, _ := cmd.Flags().GetString("from")
			d := mustDate("from", fromStr)
			f.DateFrom = &d
		}
		if cmd.Flags().Changed("to") {
			toStr, _ := cmd.Flags().GetString("to")
			d := mustDate("to", toStr)
			f.DateTo = &d
		}
		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			f.Status = mustScheduleStatus(raw)
		}

		items, total, err := app.Schedules.List(rootCtx, o.ID, f)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		if len(items) == 0 {
			fmt.Println("No schedules found")
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		for _, sch := range items {
			fmt.Printf("%s  %s  %-12s %-14s %-10s %5s-%-5s %s\n",
				shortID(sch.ID), fmtDate(sch.WorkDate), idx.store(sch.StoreID),
				idx.user(sch.UserID), idx.shiftPtr(sch.ShiftID),
				orDash(sch.StartTime), orDash(sch.EndTime),
				ui.RenderStatus(string(sch.Status)))
		}
		showMore(len(items), total)
	},
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show <schedule-id>",
	Short: "Show a schedule and its audit trail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		sch, err := app.Schedules.Get(rootCtx, o.ID, mustID("schedule", args[0]))
		if err != nil {
			FatalError("%v", err)
		}
		history, err := app.Schedules.History(rootCtx, o.ID, sch.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{"schedule": sch, "history": history})
			return
		}

		idx := buildNameIndex(rootCtx, o.ID)
		fmt.Printf("\n%s\n", ui.RenderHeader(fmt.Sprintf("%s on %s", idx.user(sch.UserID), fmtDate(sch.WorkDate))))
		fmt.Printf("  ID:       %s\n", sch.ID)
		fmt.Printf("  Store:    %s\n", idx.store(sch.StoreID))
		fmt.Printf("  Shift:    %s\n", idx.shiftPtr(sch.ShiftID))
		fmt.Printf("  Position: %s\n", idx.positionPtr(sch.PositionID))
		fmt.Printf("  Hours:    %s-%s\n", orDash(sch.StartTime), orDash(sch.EndTime))
		fmt.Printf("  Status:   %s\n", ui.RenderStatus(string(sch.Status)))
		if sch.Note != "" {
			fmt.Printf("  Note:     %s\n", sch.Note)
		}
		if sch.ApprovedBy != nil {
			fmt.Printf("  Approved: by %s at %s\n", idx.user(*sch.ApprovedBy), fmtDateTime(sch.ApprovedAt))
		}
		if sch.WorkAssignmentID != nil {
			fmt.Printf("  Assignment: %s\n", *sch.WorkAssignmentID)
		}

		if len(history) > 0 {
			fmt.Println("\nHistory:")
			for _, h := range history {
				line := fmt.Sprintf("  %s  %-10s %s", h.CreatedAt.Local().Format("01-02 15:04"), h.Action, idx.user(h.UserID))
				if h.Reason != "" {
					line += "  (" + h.Reason + ")"
				}
				fmt.Println(line)
			}
		}
	},
}

var scheduleUpdateCmd = &cobra.Command{
	Use:   "update <schedule-id>",
	Short: "Edit a draft or pending schedule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		sch, err := app.Schedules.Get(rootCtx, o.ID, mustID("schedule", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		in := schedule.UpdateInput{}
		changed := false
		if cmd.Flags().Changed("shift") {
			shiftRef, _ := cmd.Flags().GetString("shift")
			id := resolveShift(rootCtx, sch.StoreID, shiftRef).ID
			in.ShiftID = &id
			changed = true
		}
		if cmd.Flags().Changed("position") {
			positionRef, _ := cmd.Flags().GetString("position")
			id := resolvePosition(rootCtx, sch.StoreID, positionRef).ID
			in.PositionID = &id
			changed = true
		}
		if cmd.Flags().Changed("start") {
			start, _ := cmd.Flags().GetString("start")
			in.StartTime = &start
			changed = true
		}
		if cmd.Flags().Changed("end") {
			end, _ := cmd.Flags().GetString("end")
			in.EndTime = &end
			changed = true
		}
		if cmd.Flags().Changed("note") {
			note, _ := cmd.Flags().GetString("note")
			in.Note = &note
			changed = true
		}
		if !changed {
			FatalError("nothing to update (pass --shift, --position, --start, --end, or --note)")
		}

		updated, err := app.Schedules.Update(rootCtx, o.ID, sch.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated schedule %s\n", ui.RenderPassIcon(), shortID(updated.ID))
	},
}

var scheduleSubmitCmd = &cobra.Command{
	Use:   "submit <schedule-id>",
	Short: "Submit a draft for approval",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		sch, err := app.Schedules.Submit(rootCtx, c.Org.ID, mustID("schedule", args[0]), c.User.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(sch)
			return
		}
		fmt.Printf("%s Schedule %s is pending approval\n", ui.RenderPassIcon(), shortID(sch.ID))
	},
}

var scheduleApproveCmd = &cobra.Command{
	Use:   "approve <schedule-id>",
	Short: "Approve a pending schedule",
	Long: `Approve a pending schedule. Approval creates the work assignment (with
its checklist snapshot) in the same transaction and queues a
notification to the worker.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		sch, err := app.Schedules.Approve(rootCtx, c.Org.ID, mustID("schedule", args[0]), c.User.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(sch)
			return
		}
		fmt.Printf("%s Approved schedule %s\n", ui.RenderPassIcon(), shortID(sch.ID))
		if sch.WorkAssignmentID != nil {
			fmt.Printf("  Created assignment %s\n", *sch.WorkAssignmentID)
		}
	},
}

var scheduleCancelCmd = &cobra.Command{
	Use:   "cancel <schedule-id>",
	Short: "Cancel a schedule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		sch, err := app.Schedules.Cancel(rootCtx, c.Org.ID, mustID("schedule", args[0]), c.User.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(sch)
			return
		}
		fmt.Printf("%s Cancelled schedule %s\n", ui.RenderPassIcon(), shortID(sch.ID))
	},
}

var scheduleSubCmd = &cobra.Command{
	Use:   "sub <schedule-id> <new-user>",
	Short: "Substitute the scheduled worker",
	Long: `Swap the scheduled worker for another one. Works on approved schedules
too: the existing assignment moves to the new worker along with any
checklist progress made so far.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		newUser := resolveUser(rootCtx, c.Org.ID, args[1])

		sch, err := app.Schedules.Substitute(rootCtx, c.Org.ID, mustID("schedule", args[0]), newUser.ID, c.User.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(sch)
			return
		}
		fmt.Printf("%s %s now covers schedule %s on %s\n",
			ui.RenderPassIcon(), newUser.Username, shortID(sch.ID), fmtDate(sch.WorkDate))
	},
}

var scheduleHistoryCmd = &cobra.Command{
	Use:   "history <schedule-id>",
	Short: "Show a schedule's audit trail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		history, err := app.Schedules.History(rootCtx, o.ID, mustID("schedule", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(history)
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		for _, h := range history {
			line := fmt.Sprintf("%s  %-10s %s", h.CreatedAt.Local().Format("2006-01-02 15:04"), h.Action, idx.user(h.UserID))
			if h.Reason != "" {
				line += "  (" + h.Reason + ")"
			}
			fmt.Println(line)
		}
	},
}

var schedulePresetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage reusable shift time presets",
}

var schedulePresetCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a preset",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		sortOrder, _ := cmd.Flags().GetInt("sort")
		if storeRef == "" || start == "" || end == "" {
			FatalError("--store, --start, and --end are required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		in := schedule.PresetInput{
			Name:      args[0],
			StartTime: start,
			EndTime:   end,
			SortOrder: sortOrder,
		}
		if cmd.Flags().Changed("shift") {
			shiftRef, _ := cmd.Flags().GetString("shift")
			id := resolveShift(rootCtx, st.ID, shiftRef).ID
			in.ShiftID = &id
		}

		preset, err := app.Schedules.CreatePreset(rootCtx, o.ID, st.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(preset)
			return
		}
		fmt.Printf("%s Created preset %s (%s-%s) at %s\n",
			ui.RenderPassIcon(), preset.Name, preset.StartTime, preset.EndTime, st.Name)
	},
}

var schedulePresetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a store's presets",
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		presets, err := app.Schedules.ListPresets(rootCtx, o.ID, st.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(presets)
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		for _, p := range presets {
			fmt.Printf("%s  %-16s %5s-%-5s %s\n",
				shortID(p.ID), p.Name, p.StartTime, p.EndTime, idx.shiftPtr(p.ShiftID))
		}
	},
}

var schedulePresetDeleteCmd = &cobra.Command{
	Use:   "delete <preset-id>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		id := mustID("preset", args[0])

		if err := app.Schedules.DeletePreset(rootCtx, o.ID, id); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": id.String()})
			return
		}
		fmt.Printf("%s Deleted preset %s\n", ui.RenderPassIcon(), shortID(id))
	},
}

var schedulePolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show or set a store's weekly working-time cap",
	Long: fmt.Sprintf(`Show or set the labor policy a store's overtime checks run against.
With no set flags, shows the effective cap. --jurisdiction picks a
stock rule (%s); --cap overrides with explicit weekly minutes.

Examples:
  sc schedule policy --store Downtown
  sc schedule policy --store Downtown --jurisdiction KR
  sc schedule policy --store Downtown --cap 2700`, strings.Join(laborlaw.Jurisdictions(), ", ")),
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		var policy *schedule.LaborPolicy
		var err error
		if cmd.Flags().Changed("jurisdiction") || cmd.Flags().Changed("cap") {
			jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
			var capMinutes *int
			if cmd.Flags().Changed("cap") {
				v, _ := cmd.Flags().GetInt("cap")
				capMinutes = &v
			}
			policy, err = app.Schedules.SetLaborPolicy(rootCtx, o.ID, st.ID, jurisdiction, capMinutes)
		} else {
			policy, err = app.Schedules.LaborPolicy(rootCtx, o.ID, st.ID)
		}
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(policy)
			return
		}
		fmt.Printf("Weekly cap for %s: %d minutes (%.1f hours)\n",
			st.Name, policy.CapMinutes, float64(policy.CapMinutes)/60)
		if policy.Setting != nil && policy.Setting.Jurisdiction != "" {
			fmt.Printf("  Jurisdiction: %s\n", policy.Setting.Jurisdiction)
		}
		if policy.Setting != nil && policy.Setting.WeeklyCapMinutes != nil {
			fmt.Printf("  Explicit override: %d minutes\n", *policy.Setting.WeeklyCapMinutes)
		}
	},
}

var scheduleOvertimeCmd = &cobra.Command{
	Use:   "overtime",
	Short: "Check a worker's standing against the weekly cap",
	Long: `Project a worker's weekly minutes before drafting more hours. Advisory
only; creating a schedule over the cap still succeeds.`,
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		userRef, _ := cmd.Flags().GetString("user")
		dateStr, _ := cmd.Flags().GetString("date")
		minutes, _ := cmd.Flags().GetInt("minutes")
		if storeRef == "" || userRef == "" {
			FatalError("--store and --user are required")
		}
		if dateStr == "" {
			dateStr = "today"
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)
		u := resolveUser(rootCtx, o.ID, userRef)

		check, err := app.Schedules.ValidateOvertime(rootCtx, o.ID, st.ID, u.ID, mustDate("date", dateStr), minutes)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(check)
			return
		}
		fmt.Printf("Week %s to %s for %s:\n", fmtDate(check.WeekStart), fmtDate(check.WeekEnd), u.Username)
		fmt.Printf("  Recorded:  %4d min\n", check.CurrentMinutes)
		fmt.Printf("  Adding:    %4d min\n", check.AddingMinutes)
		fmt.Printf("  Projected: %4d min of %d cap\n", check.ProjectedMinutes, check.CapMinutes)
		if check.Overtime {
			fmt.Printf("%s Over the cap by %d minutes\n", ui.RenderWarnIcon(), check.OvertimeMinutes)
		} else {
			fmt.Printf("%s Within the cap\n", ui.RenderPassIcon())
		}
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func mustScheduleStatus(raw string) types.ScheduleStatus {
	s := types.ScheduleStatus(raw)
	if !s.IsValid() {
		FatalError("invalid status %q (want draft, pending, approved, or cancelled)", raw)
	}
	return s
}

func init() {
	scheduleCreateCmd.Flags().String("store", "", "Store name or ID (required)")
	scheduleCreateCmd.Flags().String("user", "", "Worker username or ID (required)")
	scheduleCreateCmd.Flags().String("date", "", "Work date (required)")
	scheduleCreateCmd.Flags().String("shift", "", "Shift name or ID")
	scheduleCreateCmd.Flags().String("position", "", "Position name or ID")
	scheduleCreateCmd.Flags().String("preset", "", "Preset name or ID to fill shift and times")
	scheduleCreateCmd.Flags().String("start", "", "Start time (HH:MM)")
	scheduleCreateCmd.Flags().String("end", "", "End time (HH:MM)")
	scheduleCreateCmd.Flags().String("note", "", "Free-form note")

	scheduleListCmd.Flags().String("store", "", "Filter by store")
	scheduleListCmd.Flags().String("user", "", "Filter by worker")
	scheduleListCmd.Flags().String("from", "", "Earliest work date")
	scheduleListCmd.Flags().String("to", "", "Latest work date")
	scheduleListCmd.Flags().String("status", "", "Filter by status: draft, pending, approved, cancelled")
	scheduleListCmd.Flags().Int("page", 1, "Page number")
	scheduleListCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	scheduleUpdateCmd.Flags().String("shift", "", "New shift")
	scheduleUpdateCmd.Flags().String("position", "", "New position")
	scheduleUpdateCmd.Flags().String("start", "", "New start time (HH:MM)")
	scheduleUpdateCmd.Flags().String("end", "", "New end time (HH:MM)")
	scheduleUpdateCmd.Flags().String("note", "", "New note")

	schedulePresetCreateCmd.Flags().String("store", "", "Store name or ID (required)")
	schedulePresetCreateCmd.Flags().String("shift", "", "Default shift for the preset")
	schedulePresetCreateCmd.Flags().String("start", "", "Start time (HH:MM, required)")
	schedulePresetCreateCmd.Flags().String("end", "", "End time (HH:MM, required)")
	schedulePresetCreateCmd.Flags().Int("sort", 0, "Sort order")

	schedulePresetListCmd.Flags().String("store", "", "Store name or ID (required)")

	schedulePolicyCmd.Flags().String("store", "", "Store name or ID (required)")
	schedulePolicyCmd.Flags().String("jurisdiction", "", "Jurisdiction code, e.g. US-CA or KR")
	schedulePolicyCmd.Flags().Int("cap", 0, "Explicit weekly cap in minutes")

	scheduleOvertimeCmd.Flags().String("store", "", "Store name or ID (required)")
	scheduleOvertimeCmd.Flags().String("user", "", "Worker username or ID (required)")
	scheduleOvertimeCmd.Flags().String("date", "", "Any date in the week to probe (default today)")
	scheduleOvertimeCmd.Flags().Int("minutes", 0, "Minutes you intend to add")

	schedulePresetCmd.AddCommand(schedulePresetCreateCmd)
	schedulePresetCmd.AddCommand(schedulePresetListCmd)
	schedulePresetCmd.AddCommand(schedulePresetDeleteCmd)

	scheduleCmd.AddCommand(scheduleCreateCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleUpdateCmd)
	scheduleCmd.AddCommand(scheduleSubmitCmd)
	scheduleCmd.AddCommand(scheduleApproveCmd)
	scheduleCmd.AddCommand(scheduleCancelCmd)
	scheduleCmd.AddCommand(scheduleSubCmd)
	scheduleCmd.AddCommand(scheduleHistoryCmd)
	scheduleCmd.AddCommand(schedulePresetCmd)
	scheduleCmd.AddCommand(schedulePolicyCmd)
	scheduleCmd.AddCommand(scheduleOvertimeCmd)
	rootCmd.AddCommand(scheduleCmd)
}
