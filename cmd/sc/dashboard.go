package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "views",
	Short:   "Show the org-day summary counts",
	Long: `Show one day's aggregate: assignments and their progress, pending
schedules, who is clocked in or on break, open tasks, and unread notifications.

Dates accept 2006-01-02, compact offsets like -1d, and natural language
like "yesterday".`,
	Run: func(cmd *cobra.Command, args []string) {
		dateStr, _ := cmd.Flags().GetString("date")

		day := time.Now().UTC().Truncate(24 * time.Hour)
		if dateStr != "" {
			day = mustDate("date", dateStr)
		}

		org := requireOrg(rootCtx)
		counts, err := store.DashboardCounts(rootCtx, org.ID, day)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(counts)
			return
		}

		fmt.Printf("\n%s  %s\n", ui.RenderCategory(org.Name), fmtDate(day))
		fmt.Println(ui.RenderSeparator())
		fmt.Printf("  Assignments:  %d total, %d in progress, %d completed\n",
			counts.Assignments, counts.AssignmentsActive, counts.AssignmentsDone)
		fmt.Printf("  Checklists:   %d fully completed\n", counts.InstancesDone)
		fmt.Printf("  Schedules:    %d pending approval\n", counts.PendingSchedules)
		fmt.Printf("  On the clock: %d working, %d on break\n",
			counts.PresentWorkers, counts.OnBreakWorkers)
		fmt.Printf("  Open tasks:   %d\n", counts.OpenTasks)
		fmt.Printf("  Unread:       %d notification(s)\n", counts.UnreadNotices)
	},
}

func init() {
	dashboardCmd.Flags().String("date", "", "Day to summarize (default: today)")
	rootCmd.AddCommand(dashboardCmd)
}
