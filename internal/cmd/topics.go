package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Review and edit the refined topics",
	Long: `Review the refined topics and their learning goals.

Without a subcommand, lists the topics in their current order.`,
	Args: cobra.NoArgs,
	RunE: runTopicsList,
}

var topicsEditCmd = &cobra.Command{
	Use:   "edit <topic-id>",
	Short: "Edit a refined topic",
	Long: `Edit a refined topic. Fields without a flag keep their current value;
--goal replaces all learning goals and may be repeated.

Example:
  coursegen topics edit 3f6c... --title "Pod networking" --goal "Explain CNI" --goal "Trace a packet"`,
	Args: cobra.ExactArgs(1),
	RunE: runTopicsEdit,
}

var topicsRegenerateCmd = &cobra.Command{
	Use:   "regenerate <topic-id>",
	Short: "Replace a refined topic with newly generated content",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopicsRegenerate,
}

var topicsReorderCmd = &cobra.Command{
	Use:   "reorder <topic-id>...",
	Short: "Set the order of the refined topics",
	Long: `Set the order of the refined topics. Pass every topic ID in the new
order; the lessons are generated in this order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTopicsReorder,
}

var (
	editTitle       string
	editDescription string
	editGoals       []string
	editMinutes     int
)

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.AddCommand(topicsEditCmd)
	topicsCmd.AddCommand(topicsRegenerateCmd)
	topicsCmd.AddCommand(topicsReorderCmd)

	topicsEditCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	topicsEditCmd.Flags().StringVar(&editDescription, "description", "", "new description")
	topicsEditCmd.Flags().StringArrayVar(&editGoals, "goal", nil, "learning goal (repeatable, replaces all goals)")
	topicsEditCmd.Flags().IntVar(&editMinutes, "minutes", 0, "estimated time in minutes")
}

func runTopicsList(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		printTopics(a.out, a.styles, sess.RefinedTopics)
		return nil
	})
}

func runTopicsEdit(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		update, err := a.orch.StartEditingTopic(args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("title") {
			update.Title = editTitle
		}
		if flags.Changed("description") {
			update.Description = editDescription
		}
		if flags.Changed("goal") {
			update.LearningGoals = editGoals
		}
		if flags.Changed("minutes") {
			update.EstimatedTimeMin = editMinutes
		}

		topic, err := a.orch.SaveTopicEdit(ctx, args[0], update)
		if err != nil {
			a.orch.CancelEditingTopic()
			return err
		}
		fmt.Fprintf(a.out, "Saved %s\n", topic.Title)
		return nil
	})
}

func runTopicsRegenerate(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		err := a.orch.RegenerateTopic(ctx, args[0])
		if errors.Is(err, errors.ErrDeclined) {
			fmt.Fprintln(a.out, "Regeneration canceled")
			return nil
		}
		if err != nil {
			return err
		}
		if topic, ok := a.orch.Session().Topic(args[0]); ok {
			printTopics(a.out, a.styles, []workflow.RefinedTopic{*topic})
		}
		return nil
	})
}

// runTopicsReorder moves each topic into place in a reorder draft and
// saves the draft.
func runTopicsReorder(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		draft, err := a.orch.EnterReorderMode()
		if err != nil {
			return err
		}
		if err := checkPermutation(args, draft); err != nil {
			a.orch.CancelReorderMode()
			return err
		}

		for to, id := range args {
			from := slices.IndexFunc(draft, func(t workflow.RefinedTopic) bool { return t.ID == id })
			if draft, err = a.orch.MoveTopic(from, to); err != nil {
				a.orch.CancelReorderMode()
				return err
			}
		}

		next, err := a.orch.SaveTopicOrder(ctx)
		if err != nil {
			return err
		}
		printTopics(a.out, a.styles, next.RefinedTopics)
		return nil
	})
}

// checkPermutation requires ids to name every draft topic exactly once.
func checkPermutation(ids []string, draft []workflow.RefinedTopic) error {
	if len(ids) != len(draft) {
		return errors.NewValidationError(fmt.Sprintf("must list all %d topics", len(draft))).
			WithField("topics").WithValue(len(ids))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return errors.NewValidationError("listed twice").WithField("topics").WithValue(id)
		}
		seen[id] = true
		if !slices.ContainsFunc(draft, func(t workflow.RefinedTopic) bool { return t.ID == id }) {
			return errors.NewNotFoundError("refined topic", id)
		}
	}
	return nil
}
