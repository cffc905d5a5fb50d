package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/evaluation"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
	"github.com/shiftcrew/shiftcrew/internal/ui"
)

var evalCmd = &cobra.Command{
	Use:     "eval",
	GroupID: "views",
	Short:   "Staff evaluations",
	Long: `Periodic staff evaluations against reusable forms. A form targets a
role level and holds scored and free-text questions. Evaluations start
as drafts, collect answers, and freeze on submit. An evaluator must
outrank the person being evaluated.`,
}

var evalTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage evaluation forms",
}

var evalTemplateCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an evaluation form",
	Long: `Create an evaluation form. --item adds a scored question (0 to
--max-score), --text-item a free-text one. Scored questions come first
on the form, in flag order.

Examples:
  sc eval template create "Barista quarterly" --level 4 --type regular --cycle-weeks 13 \
    --item "Drink quality" --item "Speed of service" --text-item "Growth areas"
  sc eval template create "Trial shift review" --level 5 --item "Punctuality" --max-score 10`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetInt("level")
		typeRaw, _ := cmd.Flags().GetString("type")
		cycleWeeks, _ := cmd.Flags().GetInt("cycle-weeks")
		maxScore, _ := cmd.Flags().GetInt("max-score")
		scoreItems, _ := cmd.Flags().GetStringSlice("item")
		textItems, _ := cmd.Flags().GetStringSlice("text-item")

		evalType := types.EvalType(typeRaw)
		if !evalType.IsValid() {
			FatalError("invalid type %q (want adhoc or regular)", typeRaw)
		}

		o := requireOrg(rootCtx)
		in := evaluation.TemplateInput{
			Name:        args[0],
			TargetLevel: level,
			EvalType:    evalType,
			CycleWeeks:  cycleWeeks,
			Items:       buildTemplateItems(scoreItems, textItems, maxScore),
		}

		tpl, err := app.Evaluations.CreateTemplate(rootCtx, o.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(tpl)
			return
		}
		fmt.Printf("%s Created form %q with %d question(s)\n", ui.RenderPassIcon(), tpl.Name, len(tpl.Items))
		fmt.Printf("  ID: %s\n", tpl.ID)
	},
}

var evalTemplateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List evaluation forms",
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		tpls, err := app.Evaluations.ListTemplates(rootCtx, o.ID)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(tpls)
			return
		}
		if len(tpls) == 0 {
			fmt.Println("No evaluation forms yet")
			return
		}
		for _, tpl := range tpls {
			cycle := ""
			if tpl.EvalType == types.EvalRegular {
				cycle = fmt.Sprintf(", every %d weeks", tpl.CycleWeeks)
			}
			fmt.Printf("%s  L%d  %-7s %s (%d questions%s)\n",
				shortID(tpl.ID), tpl.TargetLevel, tpl.EvalType, tpl.Name, len(tpl.Items), cycle)
		}
	},
}

var evalTemplateShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Show a form's questions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		tpl, err := app.Evaluations.GetTemplate(rootCtx, o.ID, mustID("template", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(tpl)
			return
		}
		fmt.Printf("\n%s\n", ui.RenderHeader(tpl.Name))
		fmt.Printf("  ID:            %s\n", tpl.ID)
		fmt.Printf("  Target level:  %d\n", tpl.TargetLevel)
		fmt.Printf("  Type:          %s\n", tpl.EvalType)
		if tpl.EvalType == types.EvalRegular {
			fmt.Printf("  Cycle:         every %d weeks\n", tpl.CycleWeeks)
		}
		fmt.Println("\nQuestions:")
		for i, item := range tpl.Items {
			kind := fmt.Sprintf("score 0-%d", item.MaxScore)
			if item.ItemType == types.EvalItemText {
				kind = "text"
			}
			fmt.Printf("  %2d. %s %s\n", i+1, item.Title, ui.RenderMuted("("+kind+")"))
		}
	},
}

var evalTemplateUpdateCmd = &cobra.Command{
	Use:   "update <template-id>",
	Short: "Edit a form",
	Long: `Edit a form. Passing any --item or --text-item replaces the whole
question list; saved answers on existing evaluations are untouched.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in evaluation.TemplateUpdateInput
		changed := false
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			in.Name = &v
			changed = true
		}
		if cmd.Flags().Changed("level") {
			v, _ := cmd.Flags().GetInt("level")
			in.TargetLevel = &v
			changed = true
		}
		if cmd.Flags().Changed("type") {
			raw, _ := cmd.Flags().GetString("type")
			t := types.EvalType(raw)
			if !t.IsValid() {
				FatalError("invalid type %q (want adhoc or regular)", raw)
			}
			in.EvalType = &t
			changed = true
		}
		if cmd.Flags().Changed("cycle-weeks") {
			v, _ := cmd.Flags().GetInt("cycle-weeks")
			in.CycleWeeks = &v
			changed = true
		}
		if cmd.Flags().Changed("item") || cmd.Flags().Changed("text-item") {
			scoreItems, _ := cmd.Flags().GetStringSlice("item")
			textItems, _ := cmd.Flags().GetStringSlice("text-item")
			maxScore, _ := cmd.Flags().GetInt("max-score")
			items := buildTemplateItems(scoreItems, textItems, maxScore)
			in.Items = &items
			changed = true
		}
		if !changed {
			FatalError("nothing to update (pass --name, --level, --type, --cycle-weeks, or --item)")
		}

		o := requireOrg(rootCtx)
		tpl, err := app.Evaluations.UpdateTemplate(rootCtx, o.ID, mustID("template", args[0]), in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(tpl)
			return
		}
		fmt.Printf("%s Updated form %q\n", ui.RenderPassIcon(), tpl.Name)
	},
}

var evalTemplateDeleteCmd = &cobra.Command{
	Use:   "delete <template-id>",
	Short: "Delete a form",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		id := mustID("template", args[0])
		if err := app.Evaluations.DeleteTemplate(rootCtx, o.ID, id); err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": id.String()})
			return
		}
		fmt.Printf("%s Deleted form %s\n", ui.RenderPassIcon(), shortID(id))
	},
}

var evalCreateCmd = &cobra.Command{
	Use:   "create <worker>",
	Short: "Open a draft evaluation",
	Long: `Open a draft evaluation of a worker using a form. The acting user is
the evaluator and must outrank the worker. Answer with 'sc eval respond',
then freeze with 'sc eval submit'.

Example:
  sc eval create maria --template 7c9e... --store downtown`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tplRef, _ := cmd.Flags().GetString("template")
		if tplRef == "" {
			FatalError("--template is required")
		}

		c := requireCaller(rootCtx)
		in := evaluation.Input{
			EvaluateeID: resolveUser(rootCtx, c.Org.ID, args[0]).ID,
			TemplateID:  mustID("template", tplRef),
		}
		if cmd.Flags().Changed("store") {
			storeRef, _ := cmd.Flags().GetString("store")
			id := resolveStore(rootCtx, c.Org.ID, storeRef).ID
			in.StoreID = &id
		}

		e, err := app.Evaluations.Create(rootCtx, c.Org.ID, c.User.ID, in)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(e)
			return
		}
		fmt.Printf("%s Opened evaluation of %s\n", ui.RenderPassIcon(), args[0])
		fmt.Printf("  ID: %s\n", e.ID)
		fmt.Printf("%s Answer with: sc eval respond %s --answer 1=4\n", ui.RenderInfoIcon(), e.ID)
	},
}

var evalRespondCmd = &cobra.Command{
	Use:   "respond <evaluation-id>",
	Short: "Answer questions on a draft",
	Long: `Save answers on a draft evaluation. Each --answer pairs a question
number from 'sc eval show' with a value: a number for scored questions,
free text otherwise. Questions you don't name keep their saved answers.

Examples:
  sc eval respond 4f2a... --answer 1=4 --answer 2=5
  sc eval respond 4f2a... --answer 3="Ready for more shifts"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		answers, _ := cmd.Flags().GetStringArray("answer")
		if len(answers) == 0 {
			FatalError("pass at least one --answer <question>=<value>")
		}

		o := requireOrg(rootCtx)
		e, err := app.Evaluations.Get(rootCtx, o.ID, mustID("evaluation", args[0]))
		if err != nil {
			FatalError("%v", err)
		}
		if e.TemplateID == nil {
			FatalError("evaluation has no form attached")
		}
		tpl, err := app.Evaluations.GetTemplate(rootCtx, o.ID, *e.TemplateID)
		if err != nil {
			FatalError("%v", err)
		}

		// Overlay the new answers onto what is already saved, since a
		// save replaces the full response set.
		merged := make(map[string]evaluation.ResponseInput, len(tpl.Items))
		for _, r := range e.Responses {
			merged[r.ItemID.String()] = evaluation.ResponseInput{ItemID: r.ItemID, Score: r.Score, Text: r.Text}
		}
		for _, raw := range answers {
			num, value, ok := strings.Cut(raw, "=")
			if !ok {
				FatalError("invalid --answer %q (want <question>=<value>)", raw)
			}
			n := mustInt("question number", num)
			if n < 1 || n > len(tpl.Items) {
				FatalError("no question %d on this form (it has %d)", n, len(tpl.Items))
			}
			item := tpl.Items[n-1]
			in := evaluation.ResponseInput{ItemID: item.ID}
			if item.ItemType == types.EvalItemScore {
				score := mustInt("score", value)
				in.Score = &score
			} else {
				in.Text = value
			}
			merged[item.ID.String()] = in
		}

		flat := make([]evaluation.ResponseInput, 0, len(merged))
		for _, item := range tpl.Items {
			if in, ok := merged[item.ID.String()]; ok {
				flat = append(flat, in)
			}
		}

		e, err = app.Evaluations.SaveResponses(rootCtx, o.ID, e.ID, flat)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(e)
			return
		}
		fmt.Printf("%s Saved %d of %d answer(s)\n", ui.RenderPassIcon(), len(e.Responses), len(tpl.Items))
		if len(e.Responses) == len(tpl.Items) {
			fmt.Printf("%s Freeze it with: sc eval submit %s\n", ui.RenderInfoIcon(), e.ID)
		}
	},
}

var evalSubmitCmd = &cobra.Command{
	Use:   "submit <evaluation-id>",
	Short: "Freeze a draft evaluation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		e, err := app.Evaluations.Submit(rootCtx, o.ID, mustID("evaluation", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(e)
			return
		}
		fmt.Printf("%s Submitted evaluation %s\n", ui.RenderPassIcon(), shortID(e.ID))
	},
}

var evalShowCmd = &cobra.Command{
	Use:   "show <evaluation-id>",
	Short: "Show an evaluation with its answers",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o := requireOrg(rootCtx)
		e, err := app.Evaluations.Get(rootCtx, o.ID, mustID("evaluation", args[0]))
		if err != nil {
			FatalError("%v", err)
		}

		var tpl *types.EvalTemplate
		if e.TemplateID != nil {
			tpl, err = app.Evaluations.GetTemplate(rootCtx, o.ID, *e.TemplateID)
			if err != nil && !errors.Is(err, apperr.ErrNotFound) {
				FatalError("%v", err)
			}
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{"evaluation": e, "template": tpl})
			return
		}

		idx := buildNameIndex(rootCtx, o.ID)
		title := "Evaluation"
		if tpl != nil {
			title = tpl.Name
		}
		fmt.Printf("\n%s\n", ui.RenderHeader(fmt.Sprintf("%s: %s", title, idx.user(e.EvaluateeID))))
		fmt.Printf("  ID:         %s\n", e.ID)
		fmt.Printf("  Evaluator:  %s\n", idx.user(e.EvaluatorID))
		fmt.Printf("  Store:      %s\n", idx.storePtr(e.StoreID))
		fmt.Printf("  Status:     %s\n", ui.RenderStatus(string(e.Status)))
		fmt.Printf("  Updated:    %s\n", fmtDate(e.UpdatedAt))

		if tpl == nil {
			return
		}
		byItem := make(map[string]*types.EvalResponse, len(e.Responses))
		for _, r := range e.Responses {
			byItem[r.ItemID.String()] = r
		}
		fmt.Println()
		for i, item := range tpl.Items {
			fmt.Printf("  %2d. %s\n", i+1, item.Title)
			r := byItem[item.ID.String()]
			switch {
			case r == nil:
				fmt.Printf("      %s\n", ui.RenderMuted("(unanswered)"))
			case item.ItemType == types.EvalItemScore && r.Score != nil:
				fmt.Printf("      %s\n", renderScore(*r.Score, item.MaxScore))
			default:
				fmt.Printf("      %s\n", r.Text)
			}
		}
	},
}

var evalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List evaluations",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		o := requireOrg(rootCtx)
		f := storage.EvaluationFilter{OrgID: o.ID, Page: pageFromFlags(page, perPage)}

		if cmd.Flags().Changed("evaluator") {
			ref, _ := cmd.Flags().GetString("evaluator")
			id := resolveUser(rootCtx, o.ID, ref).ID
			f.EvaluatorID = &id
		}
		if cmd.Flags().Changed("of") {
			ref, _ := cmd.Flags().GetString("of")
			id := resolveUser(rootCtx, o.ID, ref).ID
			f.EvaluateeID = &id
		}
		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			status := types.EvalStatus(raw)
			if !status.IsValid() {
				FatalError("invalid status %q (want draft or submitted)", raw)
			}
			f.Status = status
		}

		items, total, err := app.Evaluations.List(rootCtx, o.ID, f)
		if err != nil {
			FatalError("%v", err)
		}

		if jsonOutput {
			outputJSONList(items, total)
			return
		}
		if len(items) == 0 {
			fmt.Println("No evaluations found")
			return
		}
		idx := buildNameIndex(rootCtx, o.ID)
		for _, e := range items {
			fmt.Printf("%s  %s  %-14s of %-14s %s\n",
				shortID(e.ID), fmtDate(e.UpdatedAt), idx.user(e.EvaluatorID),
				idx.user(e.EvaluateeID), ui.RenderStatus(string(e.Status)))
		}
		showMore(len(items), total)
	},
}

// buildTemplateItems turns the --item and --text-item flag values into
// ordered question inputs, scored questions first.
func buildTemplateItems(scoreItems, textItems []string, maxScore int) []evaluation.TemplateItemInput {
	items := make([]evaluation.TemplateItemInput, 0, len(scoreItems)+len(textItems))
	for _, title := range scoreItems {
		items = append(items, evaluation.TemplateItemInput{
			Title:     title,
			ItemType:  types.EvalItemScore,
			MaxScore:  maxScore,
			SortOrder: len(items),
		})
	}
	for _, title := range textItems {
		items = append(items, evaluation.TemplateItemInput{
			Title:     title,
			ItemType:  types.EvalItemText,
			SortOrder: len(items),
		})
	}
	return items
}

func renderScore(score, max int) string {
	s := fmt.Sprintf("%d/%d", score, max)
	if max > 0 && score*2 < max {
		return ui.RenderWarn(s)
	}
	return ui.RenderPass(s)
}

func init() {
	evalTemplateCreateCmd.Flags().Int("level", 4, "Role level the form targets")
	evalTemplateCreateCmd.Flags().String("type", "adhoc", "adhoc or regular")
	evalTemplateCreateCmd.Flags().Int("cycle-weeks", 0, "Weeks between regular evaluations")
	evalTemplateCreateCmd.Flags().Int("max-score", 5, "Top score for scored questions")
	evalTemplateCreateCmd.Flags().StringSlice("item", nil, "Scored question (repeatable)")
	evalTemplateCreateCmd.Flags().StringSlice("text-item", nil, "Free-text question (repeatable)")

	evalTemplateUpdateCmd.Flags().String("name", "", "New name")
	evalTemplateUpdateCmd.Flags().Int("level", 0, "New target level")
	evalTemplateUpdateCmd.Flags().String("type", "", "New type")
	evalTemplateUpdateCmd.Flags().Int("cycle-weeks", 0, "New cycle length")
	evalTemplateUpdateCmd.Flags().Int("max-score", 5, "Top score for replacement questions")
	evalTemplateUpdateCmd.Flags().StringSlice("item", nil, "Replacement scored question (repeatable)")
	evalTemplateUpdateCmd.Flags().StringSlice("text-item", nil, "Replacement free-text question (repeatable)")

	evalCreateCmd.Flags().String("template", "", "Form ID (required)")
	evalCreateCmd.Flags().String("store", "", "Store context")

	evalRespondCmd.Flags().StringArray("answer", nil, "<question>=<value> (repeatable)")

	evalListCmd.Flags().String("evaluator", "", "Filter by evaluator")
	evalListCmd.Flags().String("of", "", "Filter by person evaluated")
	evalListCmd.Flags().String("status", "", "Filter by status: draft, submitted")
	evalListCmd.Flags().Int("page", 1, "Page number")
	evalListCmd.Flags().Int("per-page", 50, "Results per page (max 100)")

	evalTemplateCmd.AddCommand(evalTemplateCreateCmd)
	evalTemplateCmd.AddCommand(evalTemplateListCmd)
	evalTemplateCmd.AddCommand(evalTemplateShowCmd)
	evalTemplateCmd.AddCommand(evalTemplateUpdateCmd)
	evalTemplateCmd.AddCommand(evalTemplateDeleteCmd)
	evalCmd.AddCommand(evalTemplateCmd)

	evalCmd.AddCommand(evalCreateCmd)
	evalCmd.AddCommand(evalRespondCmd)
	evalCmd.AddCommand(evalSubmitCmd)
	evalCmd.AddCommand(evalShowCmd)
	evalCmd.AddCommand(evalListCmd)
	rootCmd.AddCommand(evalCmd)
}
