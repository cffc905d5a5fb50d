package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var checklistCmd = &cobra.Command{
	Use:     "checklist",
	GroupID: "work",
	Short:   "Inspect and review checklist runs",
	Long: `Inspect checklist runs (instances), review individual items as a
supervisor, and discuss them. An instance is created alongside each
assignment; its ID appears in 'sc checklist list --json'.`,
}

var checklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checklist instances",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		o := requireOrg(rootCtx)
		f := storage.InstanceFilter{OrgID: o.ID, Page: pageFromFlags(page, perPage)}

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
			status := types.InstanceStatus(raw)
			if !status.IsValid() {
				FatalError("invalid status %q (want pending, in_progress, or completed)", raw)
			}
			f.Status = status
		}

		items, total, err := app.Instances.List(rootCtx, f)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		if len(items) == 0 {
			fmt.Println("No checklist runs found")
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		for _, inst := range items {
			fmt.Printf("%s  %s  %-12s %-14s %3d/%-3d %s\n",
				shortID(inst.ID), fmtDate(inst.WorkDate), idx.store(inst.StoreID),
				idx.user(inst.UserID), inst.CompletedItems, inst.TotalItems,
				ui.RenderStatus(string(inst.Status)))
		}
		showMore(len(items), total)
	},
}

var checklistShowCmd = &cobra.Command{
	Use:   "show <instance-id>",
	Short: "Show a checklist run with completions and reviews",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		noPager, _ := cmd.Flags().GetBool("no-pager")

		o := requireOrg(rootCtx)
		detail, err := app.Instances.Detail(rootCtx, o.ID, mustID("instance", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(detail)
			return
		}

		inst := detail.Instance
		idx := buildNameIndex(rootCtx, o.ID)
		title := "Checklist"
		if inst.Snapshot != nil {
			title = inst.Snapshot.TemplateName
		}

		// Long runs scroll past a screen; build in a buffer for the pager.
		var buf strings.Builder
		fmt.Fprintf(&buf, "\n%s\n", ui.RenderHeader(title))
		fmt.Fprintf(&buf, "  ID:       %s\n", inst.ID)
		fmt.Fprintf(&buf, "  Store:    %s\n", idx.store(inst.StoreID))
		fmt.Fprintf(&buf, "  Worker:   %s\n", idx.user(inst.UserID))
		fmt.Fprintf(&buf, "  Date:     %s\n", fmtDate(inst.WorkDate))
		fmt.Fprintf(&buf, "  Status:   %s (%d/%d)\n", ui.RenderStatus(string(inst.Status)), inst.CompletedItems, inst.TotalItems)

		buf.WriteString("\n")
		for _, item := range detail.Items {
			box := "[ ]"
			if item.Completion != nil {
				box = ui.RenderPass("[x]")
			}
			fmt.Fprintf(&buf, "  %s %2d  %s\n", box, item.ItemIndex, item.Title)
			if item.Completion != nil {
				line := fmt.Sprintf("completed %s", item.Completion.CompletedAt.Local().Format("2006-01-02 15:04"))
				if item.Completion.Note != "" {
					line += "  note: " + item.Completion.Note
				}
				if item.Completion.PhotoURL != "" {
					line += "  photo: " + item.Completion.PhotoURL
				}
				fmt.Fprintf(&buf, "         %s\n", ui.RenderMuted(line))
			}
			if item.Review != nil {
				verdict := renderReview(item.Review.Result)
				if item.Review.Comment != "" {
					verdict += "  " + item.Review.Comment
				}
				fmt.Fprintf(&buf, "       %s review: %s\n", reviewIcon(item.Review.Result), verdict)
			}
		}

		if len(detail.Comments) > 0 {
			fmt.Fprintf(&buf, "\nComments (%d):\n", len(detail.Comments))
			for _, c := range detail.Comments {
				fmt.Fprintf(&buf, "  %s  %s: %s\n",
					c.CreatedAt.Local().Format("01-02 15:04"), idx.user(c.UserID), c.Body)
			}
		}

		if err := ui.ToPager(buf.String(), ui.PagerOptions{NoPager: noPager}); err != nil {
			fmt.Print(buf.String())
		}
	},
}

var checklistLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the org-wide feed of recent completions",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		o := requireOrg(rootCtx)
		entries, total, err := app.Instances.CompletionLog(rootCtx, o.ID, pageFromFlags(page, perPage))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(entries, total)
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		for _, e := range entries {
			fmt.Printf("%s  %-12s %-14s %s\n",
				e.Completion.CompletedAt.Local().Format("01-02 15:04"),
				idx.store(e.StoreID), e.UserName, e.ItemTitle)
		}
		showMore(len(entries), total)
	},
}

var checklistReviewCmd = &cobra.Command{
	Use:   "review <instance-id> <item>",
	Short: "Record a supervisor verdict on an item",
	Long: `Record a pass/fail/caution verdict on one checklist item. Re-reviewing
the same item replaces the earlier verdict. Items can be reviewed
whether or not the worker has checked them off; failing an unfinished
item is a legitimate verdict.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		result, _ := cmd.Flags().GetString("result")
		comment, _ := cmd.Flags().GetString("comment")
		photo, _ := cmd.Flags().GetString("photo")

		verdict := types.ReviewResult(result)
		if !verdict.IsValid() {
			FatalError("invalid --result %q (want pass, fail, or caution)", result)
		}

		c := requireCaller(rootCtx)
		review, err := app.Instances.ReviewItem(rootCtx, c.Org.ID,
			mustID("instance", args[0]), mustInt("item", args[1]),
			c.User.ID, verdict, comment, photo)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(review)
			return
		}
		fmt.Printf("%s Recorded %s on item %s\n", ui.RenderPassIcon(), renderReview(review.Result), args[1])
	},
}

var checklistUnreviewCmd = &cobra.Command{
	Use:   "unreview <instance-id> <item>",
	Short: "Remove a verdict from an item",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		if err := app.Instances.UnreviewItem(rootCtx, o.ID,
			mustID("instance", args[0]), mustInt("item", args[1])); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"unreviewed": args[1]})
			return
		}
		fmt.Printf("%s Removed review from item %s\n", ui.RenderPassIcon(), args[1])
	},
}

var checklistCommentCmd = &cobra.Command{
	Use:   "comment <instance-id> <text>",
	Short: "Comment on a checklist run",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		comment, err := app.Instances.AddComment(rootCtx, c.Org.ID,
			mustID("instance", args[0]), c.User.ID, args[1])
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(comment)
			return
		}
		fmt.Printf("%s Comment added\n", ui.RenderPassIcon())
	},
}

// renderReview colors a verdict: pass green, fail red, caution yellow.
func renderReview(r types.ReviewResult) string {
	switch r {
	case types.ReviewPass:
		return ui.RenderPass(string(r))
	case types.ReviewFail:
		return ui.RenderFail(string(r))
	case types.ReviewCaution:
		return ui.RenderWarn(string(r))
	}
	return string(r)
}

func reviewIcon(r types.ReviewResult) string {
	switch r {
	case types.ReviewPass:
		return ui.RenderPassIcon()
	case types.ReviewFail:
		return ui.RenderFailIcon()
	case types.ReviewCaution:
		return ui.RenderWarnIcon()
	}
	return ui.RenderSkipIcon()
}

func init() {
	checklistListCmd.Flags().String("store", "", "Filter by store")
	checklistListCmd.Flags().String("user", "", "Filter by worker")
	checklistListCmd.Flags().String("date", "", "Filter by work date")
	checklistListCmd.Flags().String("status", "", "Filter by status: pending, in_progress, completed")
	checklistListCmd.Flags().Int("page", 1, "Page number")
	checklistListCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	checklistShowCmd.Flags().Bool("no-pager", false, "Print directly instead of paging")

	checklistLogCmd.Flags().Int("page", 1, "Page number")
	checklistLogCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	checklistReviewCmd.Flags().String("result", "", "Verdict: pass, fail, or caution (required)")
	checklistReviewCmd.Flags().String("comment", "", "Review comment")
	checklistReviewCmd.Flags().String("photo", "", "Evidence photo URL")

	checklistCmd.AddCommand(checklistListCmd)
	checklistCmd.AddCommand(checklistShowCmd)
	checklistCmd.AddCommand(checklistLogCmd)
	checklistCmd.AddCommand(checklistReviewCmd)
	checklistCmd.AddCommand(checklistUnreviewCmd)
	checklistCmd.AddCommand(checklistCommentCmd)
	rootCmd.AddCommand(checklistCmd)
}
