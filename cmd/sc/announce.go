package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shiftcrew/shiftcrew/internal/announce"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var announceCmd = &cobra.Command{
	Use:     "announce",
	GroupID: "views",
	Short:   "Post and read announcements",
	Long: `Announcements broadcast to the whole org or to a single store's staff.
Content is markdown and renders styled in 'sc announce show'.`,
}

var announceCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Post an announcement",
	Long: `Post an announcement. Without --store it goes to everyone in the org;
with --store only that store's staff see it. Body comes from --content,
--file, or stdin.

Examples:
  sc announce create "Holiday hours" --content "Closing at 6pm on Dec 24."
  sc announce create "New menu" --file menu.md --store downtown
  cat update.md | sc announce create "Weekly update"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, _ := cmd.Flags().GetString("content")
		file, _ := cmd.Flags().GetString("file")

		if content == "" && file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				FatalError("reading %s: %v", file, err)
			}
			content = string(data)
		}
		if content == "" && !term.IsTerminal(int(os.Stdin.Fd())) {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				FatalError("reading stdin: %v", err)
			}
			content = string(data)
		}
		if strings.TrimSpace(content) == "" {
			FatalError("announcement body is empty (pass --content, --file, or pipe to stdin)")
		}

		c := requireCaller(rootCtx)
		in := announce.Input{Title: args[0], Content: content}
		if cmd.Flags().Changed("store") {
			storeRef, _ := cmd.Flags().GetString("store")
			id := resolveStore(rootCtx, c.Org.ID, storeRef).ID
			in.StoreID = &id
		}

		ann, err := app.Announce.Create(rootCtx, c.Org.ID, c.User.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(ann)
			return
		}
		scope := "everyone"
		if ann.StoreID != nil {
			idx := buildNameIndex(rootCtx, c.Org.ID)
			scope = idx.store(*ann.StoreID)
		}
		fmt.Printf("%s Posted %q to %s\n", ui.RenderPassIcon(), ann.Title, scope)
		fmt.Printf("  ID: %s\n", ann.ID)
	},
}

var announceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List announcements, newest first",
	Long: `List announcements. By default shows what the acting user would see:
org-wide posts plus posts for their assigned stores. --store narrows to
one store's feed, --all shows every post in the org.`,
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")
		all, _ := cmd.Flags().GetBool("all")

		c := requireCaller(rootCtx)
		pg := pageFromFlags(page, perPage)

		var (
			items []*types.Announcement
			total int
			err   error
		)
		switch {
		case cmd.Flags().Changed("store"):
			storeRef, _ := cmd.Flags().GetString("store")
			id := resolveStore(rootCtx, c.Org.ID, storeRef).ID
			items, total, err = app.Announce.List(rootCtx, c.Org.ID, &id, pg)
		case all:
			items, total, err = app.Announce.List(rootCtx, c.Org.ID, nil, pg)
		default:
			items, total, err = app.Announce.ListForUser(rootCtx, c.Org.ID, c.User.ID, pg)
		}
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		if len(items) == 0 {
			fmt.Println("No announcements")
			return
		}
		idx := buildNameIndex(rootCtx, c.Org.ID)
		for _, ann := range items {
			fmt.Printf("%s  %s  %-12s %-16s %s\n",
				shortID(ann.ID), fmtDate(ann.CreatedAt), idx.storePtr(ann.StoreID),
				idx.user(ann.CreatedBy), ui.TruncateSimple(ann.Title, 48))
		}
		showMore(len(items), total)
	},
}

var announceShowCmd = &cobra.Command{
	Use:   "show <announcement-id>",
	Short: "Read an announcement",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		ann, err := app.Announce.Get(rootCtx, o.ID, mustID("announcement", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(ann)
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		fmt.Printf("\n%s\n", ui.RenderHeader(ann.Title))
		fmt.Printf("%s\n\n", ui.RenderMuted(fmt.Sprintf("%s by %s, for %s",
			fmtDate(ann.CreatedAt), idx.user(ann.CreatedBy), idx.storePtr(ann.StoreID))))
		fmt.Println(ui.RenderMarkdown(ann.Content))
	},
}

var announceUpdateCmd = &cobra.Command{
	Use:   "update <announcement-id>",
	Short: "Edit an announcement",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in announce.UpdateInput
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			in.Title = &v
		}
		if cmd.Flags().Changed("content") {
			v, _ := cmd.Flags().GetString("content")
			in.Content = &v
		}
		if in.Title == nil && in.Content == nil {
			FatalError("nothing to update (pass --title or --content)")
		}

		o := requireOrg(rootCtx)
		ann, err := app.Announce.Update(rootCtx, o.ID, mustID("announcement", args[0]), in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(ann)
			return
		}
		fmt.Printf("%s Updated %q\n", ui.RenderPassIcon(), ann.Title)
	},
}

var announceDeleteCmd = &cobra.Command{
	Use:   "delete <announcement-id>",
	Short: "Take down an announcement",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		id := mustID("announcement", args[0])
		if err := app.Announce.Delete(rootCtx, o.ID, id); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": id.String()})
			return
		}
		fmt.Printf("%s Deleted announcement %s\n", ui.RenderPassIcon(), shortID(id))
	},
}

func init() {
	announceCreateCmd.Flags().String("store", "", "Limit to one store's staff")
	announceCreateCmd.Flags().String("content", "", "Announcement body (markdown)")
	announceCreateCmd.Flags().String("file", "", "Read the body from a file")

	announceListCmd.Flags().String("store", "", "Show one store's feed")
	announceListCmd.Flags().Bool("all", false, "Show every post in the org")
	announceListCmd.Flags().Int("page", 1, "Page number")
	announceListCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	announceUpdateCmd.Flags().String("title", "", "New title")
	announceUpdateCmd.Flags().String("content", "", "New body (markdown)")

	announceCmd.AddCommand(announceCreateCmd)
	announceCmd.AddCommand(announceListCmd)
	announceCmd.AddCommand(announceShowCmd)
	announceCmd.AddCommand(announceUpdateCmd)
	announceCmd.AddCommand(announceDeleteCmd)
	rootCmd.AddCommand(announceCmd)
}
