package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/task"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "work",
	Short:   "One-off tasks outside the checklists",
	Long: `One-off tasks for work that falls outside the recurring checklists: a
delivery to receive, a repair to chase. Tasks carry a priority, an
optional due date, and any number of assignees. Workers see theirs
with 'sc task mine' and close them with 'sc task done'.`,
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Long: `Create a task and optionally hand it to workers right away.

Examples:
  sc task create "Receive produce delivery" --store downtown --assignee maria --due tomorrow
  sc task create "Fix freezer door" --priority urgent --assignee joe --assignee sam`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		desc, _ := cmd.Flags().GetString("desc")
		priorityRaw, _ := cmd.Flags().GetString("priority")
		assigneeRefs, _ := cmd.Flags().GetStringSlice("assignee")

		priority := types.TaskPriority(priorityRaw)
		if !priority.IsValid() {
			FatalError("invalid priority %q (want normal or urgent)", priorityRaw)
		}

		c := requireCaller(rootCtx)
		in := task.Input{Title: args[0], Description: desc, Priority: priority}
		if cmd.Flags().Changed("store") {
			storeRef, _ := cmd.Flags().GetString("store")
			id := resolveStore(rootCtx, c.Org.ID, storeRef).ID
			in.StoreID = &id
		}
		if cmd.Flags().Changed("due") {
			dueStr, _ := cmd.Flags().GetString("due")
			d := mustDate("due", dueStr)
			in.DueDate = &d
		}
		for _, ref := range assigneeRefs {
			in.Assignees = append(in.Assignees, resolveUser(rootCtx, c.Org.ID, ref).ID)
		}

		t, err := app.Tasks.Create(rootCtx, c.Org.ID, c.User.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(t)
			return
		}
		fmt.Printf("%s Created task %q\n", ui.RenderPassIcon(), t.Title)
		fmt.Printf("  ID: %s\n", t.ID)
		if len(t.Assignees) > 0 {
			fmt.Printf("  Assigned to %d worker(s)\n", len(t.Assignees))
		}
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		o := requireOrg(rootCtx)
		f := storage.TaskFilter{Page: pageFromFlags(page, perPage)}

		if cmd.Flags().Changed("assignee") {
			ref, _ := cmd.Flags().GetString("assignee")
			id := resolveUser(rootCtx, o.ID, ref).ID
			f.Assignee = &id
		}
		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			f.Status = mustTaskStatus(raw)
		}

		items, total, err := app.Tasks.List(rootCtx, o.ID, f)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		renderTasks(items)
		showMore(len(items), total)
	},
}

var taskMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List tasks assigned to the acting user",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		var status types.TaskStatus
		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			status = mustTaskStatus(raw)
		}

		c := requireCaller(rootCtx)
		items, total, err := app.Tasks.ListMine(rootCtx, c.Org.ID, c.User.ID, status, pageFromFlags(page, perPage))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		renderTasks(items)
		showMore(len(items), total)
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		full, _ := cmd.Flags().GetBool("full")

		o := requireOrg(rootCtx)
		t, err := app.Tasks.Get(rootCtx, o.ID, mustID("task", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(t)
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		fmt.Printf("\n%s\n", ui.RenderHeader(t.Title))
		fmt.Printf("  ID:        %s\n", t.ID)
		fmt.Printf("  Store:     %s\n", idx.storePtr(t.StoreID))
		fmt.Printf("  Priority:  %s\n", renderPriority(t.Priority))
		fmt.Printf("  Status:    %s\n", ui.RenderStatus(string(t.Status)))
		if t.DueDate != nil {
			fmt.Printf("  Due:       %s\n", fmtDate(*t.DueDate))
		}
		fmt.Printf("  Created:   %s by %s\n", fmtDate(t.CreatedAt), idx.user(t.CreatedBy))
		if t.Description != "" {
			desc := ui.WrapText(t.Description, 80)
			if !full {
				desc = ui.TruncateLines(desc, ui.DefaultMaxLines, ui.DefaultContextLines)
			}
			fmt.Printf("\n%s\n", desc)
		}
		if len(t.Assignees) > 0 {
			fmt.Println("\nAssignees:")
			for _, id := range t.Assignees {
				fmt.Printf("  %s\n", idx.user(id))
			}
		}
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Edit a task",
	Long: `Edit a task. --assignee replaces the whole assignee list; pass it once
per worker, or --clear-assignees to unassign everyone.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)

		var in task.UpdateInput
		changed := false
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			in.Title = &v
			changed = true
		}
		if cmd.Flags().Changed("desc") {
			v, _ := cmd.Flags().GetString("desc")
			in.Description = &v
			changed = true
		}
		if cmd.Flags().Changed("priority") {
			raw, _ := cmd.Flags().GetString("priority")
			p := types.TaskPriority(raw)
			if !p.IsValid() {
				FatalError("invalid priority %q (want normal or urgent)", raw)
			}
			in.Priority = &p
			changed = true
		}
		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			s := mustTaskStatus(raw)
			in.Status = &s
			changed = true
		}
		if cmd.Flags().Changed("due") {
			dueStr, _ := cmd.Flags().GetString("due")
			d := mustDate("due", dueStr)
			in.DueDate = &d
			changed = true
		}
		if cmd.Flags().Changed("assignee") {
			refs, _ := cmd.Flags().GetStringSlice("assignee")
			ids := make([]uuid.UUID, 0, len(refs))
			for _, ref := range refs {
				ids = append(ids, resolveUser(rootCtx, o.ID, ref).ID)
			}
			in.Assignees = &ids
			changed = true
		}
		if clear, _ := cmd.Flags().GetBool("clear-assignees"); clear {
			empty := []uuid.UUID{}
			in.Assignees = &empty
			changed = true
		}
		if !changed {
			FatalError("nothing to update (pass --title, --desc, --priority, --status, --due, or --assignee)")
		}

		t, err := app.Tasks.Update(rootCtx, o.ID, mustID("task", args[0]), in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(t)
			return
		}
		fmt.Printf("%s Updated task %q\n", ui.RenderPassIcon(), t.Title)
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Complete one of your tasks",
	Long: `Mark a task completed. Only works on tasks assigned to the acting
user; managers close anyone's task with 'sc task update --status completed'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireCaller(rootCtx)
		t, err := app.Tasks.CompleteMine(rootCtx, c.Org.ID, mustID("task", args[0]), c.User.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(t)
			return
		}
		fmt.Printf("%s Completed %q\n", ui.RenderPassIcon(), t.Title)
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		id := mustID("task", args[0])
		if err := app.Tasks.Delete(rootCtx, o.ID, id); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": id.String()})
			return
		}
		fmt.Printf("%s Deleted task %s\n", ui.RenderPassIcon(), shortID(id))
	},
}

func renderTasks(items []*types.AdditionalTask) {
	if len(items) == 0 {
		fmt.Println("No tasks found")
		return
	}
	for _, t := range items {
		due := "-"
		if t.DueDate != nil {
			due = fmtDate(*t.DueDate)
		}
		fmt.Printf("%s  %-8s %-12s due %-10s %s\n",
			shortID(t.ID), renderPriority(t.Priority),
			ui.RenderStatus(string(t.Status)), due, ui.TruncateSimple(t.Title, 52))
	}
}

func renderPriority(p types.TaskPriority) string {
	if p == types.PriorityUrgent {
		return ui.RenderFail(string(p))
	}
	return string(p)
}

func mustTaskStatus(raw string) types.TaskStatus {
	s := types.TaskStatus(raw)
	if !s.IsValid() {
		FatalError("invalid status %q (want pending, in_progress, or completed)", raw)
	}
	return s
}

func init() {
	taskCreateCmd.Flags().String("store", "", "Scope to a store")
	taskCreateCmd.Flags().String("desc", "", "What needs doing")
	taskCreateCmd.Flags().String("priority", "normal", "normal or urgent")
	taskCreateCmd.Flags().String("due", "", "Due date")
	taskCreateCmd.Flags().StringSlice("assignee", nil, "Worker to assign (repeatable)")

	taskListCmd.Flags().String("assignee", "", "Filter by assignee")
	taskListCmd.Flags().String("status", "", "Filter by status: pending, in_progress, completed")
	taskListCmd.Flags().Int("page", 1, "Page number")
	taskListCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	taskMineCmd.Flags().String("status", "", "Filter by status")
	taskMineCmd.Flags().Int("page", 1, "Page number")
	taskMineCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	taskShowCmd.Flags().Bool("full", false, "Show the complete description without truncation")

	taskUpdateCmd.Flags().String("title", "", "New title")
	taskUpdateCmd.Flags().String("desc", "", "New description")
	taskUpdateCmd.Flags().String("priority", "", "New priority")
	taskUpdateCmd.Flags().String("status", "", "New status")
	taskUpdateCmd.Flags().String("due", "", "New due date")
	taskUpdateCmd.Flags().StringSlice("assignee", nil, "Replacement assignee (repeatable)")
	taskUpdateCmd.Flags().Bool("clear-assignees", false, "Remove every assignee")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskMineCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}
