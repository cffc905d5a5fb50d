package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var attendanceCmd = &cobra.Command{
	Use:     "attendance",
	GroupID: "work",
	Short:   "Clock in and out, track hours",
	Long: `Clock records driven by QR scans. A worker scans the store's code to
clock in, start and end a break, and clock out; one record per worker
per day. Managers correct mistakes with 'sc attendance correct', which
keeps an audit trail of every change.`,
}

var attendanceScanCmd = &cobra.Command{
	Use:   "scan <code> <action>",
	Short: "Record a QR scan for the acting user",
	Long: `Record a clock action against a store's QR code. Actions follow the
state machine: clock_in, break_start, break_end, clock_out. Out-of-order
actions (a second clock_in, a break before clocking in) are rejected.

Examples:
  sc attendance scan 9f27c1d44ab04e3e clock_in
  sc attendance scan 9f27c1d44ab04e3e clock_out --tz America/Chicago`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tz, _ := cmd.Flags().GetString("tz")

		action := types.ScanAction(args[1])
		switch action {
		case types.ScanClockIn, types.ScanBreakStart, types.ScanBreakEnd, types.ScanClockOut:
		default:
			FatalError("invalid action %q (want clock_in, break_start, break_end, or clock_out)", args[1])
		}

		c := requireCaller(rootCtx)
		rec, err := app.Attendance.Scan(rootCtx, c.Org.ID, c.User.ID, args[0], action, tz)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(rec)
			return
		}
		fmt.Printf("%s %s recorded at %s\n", ui.RenderPassIcon(), action, time.Now().Local().Format("15:04"))
		fmt.Printf("  Status: %s\n", ui.RenderStatus(string(rec.Status)))
		if rec.Status == types.AttendanceClockedOut {
			fmt.Printf("  Worked %s, breaks %s\n",
				fmtMinutes(rec.TotalWorkMinutes), fmtMinutes(rec.TotalBreakMinutes))
		}
	},
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clock records",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		o := requireOrg(rootCtx)
		f := storage.AttendanceFilter{Page: pageFromFlags(page, perPage)}

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
			raw, _ := cmd.Flags().GetString("status")
			status := types.AttendanceStatus(raw)
			if !status.IsValid() {
				FatalError("invalid status %q (want clocked_in, on_break, or clocked_out)", raw)
			}
			f.Status = status
		}

		items, total, err := app.Attendance.List(rootCtx, o.ID, f)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		if len(items) == 0 {
			fmt.Println("No clock records found")
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		for _, rec := range items {
			fmt.Printf("%s  %s  %-12s %-14s in %5s  out %5s  %s\n",
				shortID(rec.ID), fmtDate(rec.WorkDate), idx.store(rec.StoreID),
				idx.user(rec.UserID), fmtTime(rec.ClockIn), fmtTime(rec.ClockOut),
				ui.RenderStatus(string(rec.Status)))
		}
		showMore(len(items), total)
	},
}

var attendanceShowCmd = &cobra.Command{
	Use:   "show <attendance-id>",
	Short: "Show a clock record with its corrections",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		rec, err := app.Attendance.Get(rootCtx, o.ID, mustID("attendance", args[0]))
		if err != nil {
			FatalError("%v", err)
		}
		corrections, err := app.Attendance.Corrections(rootCtx, o.ID, rec.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{"attendance": rec, "corrections": corrections})
			return
		}

		idx := buildNameIndex(rootCtx, o.ID)
		fmt.Printf("\n%s\n", ui.RenderHeader(fmt.Sprintf("%s on %s", idx.user(rec.UserID), fmtDate(rec.WorkDate))))
		fmt.Printf("  ID:          %s\n", rec.ID)
		fmt.Printf("  Store:       %s\n", idx.store(rec.StoreID))
		fmt.Printf("  Status:      %s\n", ui.RenderStatus(string(rec.Status)))
		fmt.Printf("  Clock in:    %s\n", fmtDateTime(rec.ClockIn))
		if rec.BreakStart != nil {
			fmt.Printf("  Break:       %s to %s\n", fmtTime(rec.BreakStart), fmtTime(rec.BreakEnd))
		}
		fmt.Printf("  Clock out:   %s\n", fmtDateTime(rec.ClockOut))
		fmt.Printf("  Worked:      %s (breaks %s)\n",
			fmtMinutes(rec.TotalWorkMinutes), fmtMinutes(rec.TotalBreakMinutes))

		if len(corrections) > 0 {
			fmt.Printf("\nCorrections (%d):\n", len(corrections))
			for _, cor := range corrections {
				fmt.Printf("  %s  %s: %s -> %s by %s (%s)\n",
					cor.CreatedAt.Local().Format("01-02 15:04"), cor.FieldName,
					orDash(cor.OriginalValue), cor.CorrectedValue,
					idx.user(cor.CorrectedBy), cor.Reason)
			}
		}
	},
}

var attendanceCorrectCmd = &cobra.Command{
	Use:   "correct <attendance-id>",
	Short: "Overwrite a clock field, with an audit trail",
	Long: `Overwrite one clock field of a record. The prior value lands in an
append-only correction row and the minute totals are recomputed. A
reason is mandatory.

Example:
  sc attendance correct 4f2a... --field clock_out --value 2026-03-07T22:15:00Z --reason "forgot to scan out"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		field, _ := cmd.Flags().GetString("field")
		value, _ := cmd.Flags().GetString("value")
		reason, _ := cmd.Flags().GetString("reason")
		if field == "" || value == "" || reason == "" {
			FatalError("--field, --value, and --reason are required")
		}

		c := requireCaller(rootCtx)
		cor, err := app.Attendance.Correct(rootCtx, c.Org.ID,
			mustID("attendance", args[0]), field, value, reason, c.User.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(cor)
			return
		}
		fmt.Printf("%s Corrected %s to %s\n", ui.RenderPassIcon(), cor.FieldName, cor.CorrectedValue)
		if cor.OriginalValue != "" {
			fmt.Printf("  Was: %s\n", cor.OriginalValue)
		}
	},
}

var attendanceSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Weekly hours per worker",
	Run: func(cmd *cobra.Command, args []string) {
		weekStr, _ := cmd.Flags().GetString("week")
		if weekStr == "" {
			weekStr = "today"
		}

		o := requireOrg(rootCtx)
		var storeID, userID *uuid.UUID
		if cmd.Flags().Changed("store") {
			storeRef, _ := cmd.Flags().GetString("store")
			id := resolveStore(rootCtx, o.ID, storeRef).ID
			storeID = &id
		}
		if cmd.Flags().Changed("user") {
			userRef, _ := cmd.Flags().GetString("user")
			id := resolveUser(rootCtx, o.ID, userRef).ID
			userID = &id
		}

		summaries, err := app.Attendance.WeeklySummaries(rootCtx, o.ID, storeID, userID, mustDate("week", weekStr))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(summaries)
			return
		}
		if len(summaries) == 0 {
			fmt.Println("No hours recorded that week")
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		fmt.Printf("Week %s to %s:\n", fmtDate(summaries[0].WeekStart), fmtDate(summaries[0].WeekEnd))
		for _, sum := range summaries {
			fmt.Printf("  %-16s %d days, worked %s, breaks %s\n",
				idx.user(sum.UserID), sum.DaysWorked,
				fmtMinutes(sum.TotalWorkMinutes), fmtMinutes(sum.TotalBreakMinutes))
		}
	},
}

var attendanceAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Workers over the weekly working-time cap",
	Run: func(cmd *cobra.Command, args []string) {
		weekStr, _ := cmd.Flags().GetString("week")
		if weekStr == "" {
			weekStr = "today"
		}

		o := requireOrg(rootCtx)
		var storeID *uuid.UUID
		if cmd.Flags().Changed("store") {
			storeRef, _ := cmd.Flags().GetString("store")
			id := resolveStore(rootCtx, o.ID, storeRef).ID
			storeID = &id
		}

		alerts, err := app.Attendance.OvertimeAlerts(rootCtx, o.ID, storeID, mustDate("week", weekStr))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(alerts)
			return
		}
		if len(alerts) == 0 {
			fmt.Printf("%s Nobody over the cap\n", ui.RenderPassIcon())
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		for _, a := range alerts {
			fmt.Printf("%s %s worked %s this week\n",
				ui.RenderWarnIcon(), idx.user(a.UserID), fmtMinutes(a.TotalMinutes))
			fmt.Printf("   %s%s\n", ui.MutedStyle.Render(ui.TreeLast),
				ui.RenderMuted(fmt.Sprintf("%s over the %s cap", fmtMinutes(a.OvertimeMinutes), fmtMinutes(a.CapMinutes))))
		}
	},
}

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Manage store QR codes",
	Long: `Manage the QR codes workers scan to clock in. One active code per
store; issuing or regenerating a code deactivates the previous one so
a photographed code stops working.`,
}

var qrShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a store's active code",
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		qr, err := app.Attendance.ActiveQRCode(rootCtx, o.ID, st.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(qr)
			return
		}
		fmt.Printf("Active code for %s: %s\n", st.Name, ui.RenderAccent(qr.Code))
		if qr.ExpiresAt != nil {
			fmt.Printf("  Expires: %s\n", fmtDateTime(qr.ExpiresAt))
		}
	},
}

var qrNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Issue a fresh code for a store",
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		c := requireCaller(rootCtx)
		st := resolveStore(rootCtx, c.Org.ID, storeRef)

		var expiresAt *time.Time
		if cmd.Flags().Changed("ttl") {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			t := time.Now().UTC().Add(ttl)
			expiresAt = &t
		}

		qr, err := app.Attendance.CreateQRCode(rootCtx, c.Org.ID, st.ID, c.User.ID, expiresAt)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(qr)
			return
		}
		fmt.Printf("%s New code for %s: %s\n", ui.RenderPassIcon(), st.Name, ui.RenderAccent(qr.Code))
		if qr.ExpiresAt != nil {
			fmt.Printf("  Expires: %s\n", fmtDateTime(qr.ExpiresAt))
		}
	},
}

var qrRegenCmd = &cobra.Command{
	Use:   "regen <qr-id>",
	Short: "Replace a code, keeping its expiry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		qr, err := app.Attendance.RegenerateQRCode(rootCtx, c.Org.ID, mustID("qr code", args[0]), c.User.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(qr)
			return
		}
		fmt.Printf("%s Replacement code: %s\n", ui.RenderPassIcon(), ui.RenderAccent(qr.Code))
	},
}

var qrListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a store's codes, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		storeRef, _ := cmd.Flags().GetString("store")
		if storeRef == "" {
			FatalError("--store is required")
		}

		o := requireOrg(rootCtx)
		st := resolveStore(rootCtx, o.ID, storeRef)

		codes, err := app.Attendance.ListQRCodes(rootCtx, o.ID, st.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(codes)
			return
		}
		for _, qr := range codes {
			status := "inactive"
			if qr.IsActive {
				status = "active"
			}
			fmt.Printf("%s  %-20s %s  %s\n", shortID(qr.ID), qr.Code, fmtDate(qr.CreatedAt), ui.RenderStatus(status))
		}
	},
}

// fmtMinutes renders a minute count as hours and minutes.
func fmtMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

func init() {
	attendanceScanCmd.Flags().String("tz", "", "IANA timezone for the clock stamp")

	attendanceListCmd.Flags().String("store", "", "Filter by store")
	attendanceListCmd.Flags().String("user", "", "Filter by worker")
	attendanceListCmd.Flags().String("date", "", "Filter by work date")
	attendanceListCmd.Flags().String("status", "", "Filter by status: clocked_in, on_break, clocked_out")
	attendanceListCmd.Flags().Int("page", 1, "Page number")
	attendanceListCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	attendanceCorrectCmd.Flags().String("field", "", "Field to fix: clock_in, clock_out, break_start, break_end")
	attendanceCorrectCmd.Flags().String("value", "", "Corrected timestamp (RFC 3339)")
	attendanceCorrectCmd.Flags().String("reason", "", "Why the record is being changed")

	attendanceSummaryCmd.Flags().String("store", "", "Filter by store")
	attendanceSummaryCmd.Flags().String("user", "", "Filter by worker")
	attendanceSummaryCmd.Flags().String("week", "", "Any date in the week (default today)")

	attendanceAlertsCmd.Flags().String("store", "", "Filter by store")
	attendanceAlertsCmd.Flags().String("week", "", "Any date in the week (default today)")

	qrShowCmd.Flags().String("store", "", "Store name or ID (required)")
	qrNewCmd.Flags().String("store", "", "Store name or ID (required)")
	qrNewCmd.Flags().Duration("ttl", 0, "Code lifetime, e.g. 24h or 30m (default: no expiry)")
	qrListCmd.Flags().String("store", "", "Store name or ID (required)")

	qrCmd.AddCommand(qrShowCmd)
	qrCmd.AddCommand(qrNewCmd)
	qrCmd.AddCommand(qrRegenCmd)
	qrCmd.AddCommand(qrListCmd)
	attendanceCmd.AddCommand(qrCmd)

	attendanceCmd.AddCommand(attendanceScanCmd)
	attendanceCmd.AddCommand(attendanceListCmd)
	attendanceCmd.AddCommand(attendanceShowCmd)
	attendanceCmd.AddCommand(attendanceCorrectCmd)
	attendanceCmd.AddCommand(attendanceSummaryCmd)
	attendanceCmd.AddCommand(attendanceAlertsCmd)
	rootCmd.AddCommand(attendanceCmd)
}
