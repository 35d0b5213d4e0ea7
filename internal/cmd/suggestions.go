package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/coursegen/internal/workflow"
)

var suggestionsCmd = &cobra.Command{
	Use:     "suggestions",
	Aliases: []string{"sg"},
	Short:   "Review the topic suggestions from research",
	Long: `Review the topic suggestions produced by research.

Without a subcommand, lists the suggestions with their review status.
Approve the ones the course should cover, then run 'coursegen advance refine'.`,
	Args: cobra.NoArgs,
	RunE: runSuggestionsList,
}

var suggestionsApproveCmd = &cobra.Command{
	Use:   "approve <suggestion-id>...",
	Short: "Approve suggestions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetSuggestionStatus(cmd, args, workflow.SuggestionApproved)
	},
}

var suggestionsRejectCmd = &cobra.Command{
	Use:   "reject <suggestion-id>...",
	Short: "Reject suggestions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetSuggestionStatus(cmd, args, workflow.SuggestionRejected)
	},
}

var suggestionsResetCmd = &cobra.Command{
	Use:   "reset <suggestion-id>...",
	Short: "Return suggestions to pending",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetSuggestionStatus(cmd, args, workflow.SuggestionPending)
	},
}

var suggestionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a custom topic",
	Long: `Add a topic of your own to the suggestions. Custom topics start out
approved.

Example:
  coursegen suggestions add --title "Service meshes" --description "How sidecars route traffic between pods"`,
	Args: cobra.NoArgs,
	RunE: runSuggestionsAdd,
}

var suggestionsMoreCmd = &cobra.Command{
	Use:   "more",
	Short: "Ask research for more suggestions",
	Args:  cobra.NoArgs,
	RunE:  runSuggestionsMore,
}

var (
	addTitle       string
	addDescription string
)

func init() {
	rootCmd.AddCommand(suggestionsCmd)
	suggestionsCmd.AddCommand(suggestionsApproveCmd)
	suggestionsCmd.AddCommand(suggestionsRejectCmd)
	suggestionsCmd.AddCommand(suggestionsResetCmd)
	suggestionsCmd.AddCommand(suggestionsAddCmd)
	suggestionsCmd.AddCommand(suggestionsMoreCmd)

	suggestionsAddCmd.Flags().StringVar(&addTitle, "title", "", "topic title (at least 3 characters)")
	suggestionsAddCmd.Flags().StringVar(&addDescription, "description", "", "topic description (at least 10 characters)")
	_ = suggestionsAddCmd.MarkFlagRequired("title")
	_ = suggestionsAddCmd.MarkFlagRequired("description")
}

func runSuggestionsList(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		printSuggestions(a.out, a.styles, sess)
		return nil
	})
}

// runSetSuggestionStatus applies status to each suggestion in turn and
// stops at the first failure.
func runSetSuggestionStatus(cmd *cobra.Command, ids []string, status workflow.SuggestionStatus) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		for _, id := range ids {
			var err error
			switch status {
			case workflow.SuggestionApproved:
				err = a.orch.ApproveSuggestion(ctx, id)
			case workflow.SuggestionRejected:
				err = a.orch.RejectSuggestion(ctx, id)
			default:
				err = a.orch.ResetSuggestion(ctx, id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s\n", id, a.styles.StatusStyle(string(status)).Render(string(status)))
		}
		fmt.Fprintf(a.out, "%d approved\n", a.orch.View().ApprovedCount)
		return nil
	})
}

func runSuggestionsAdd(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		s, err := a.orch.AddCustomTopic(ctx, workflow.CustomTopic{
			Title:       addTitle,
			Description: addDescription,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added %s (%s)\n", s.Title, s.ID)
		return nil
	})
}

func runSuggestionsMore(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		next, err := a.orch.GenerateMoreSuggestions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d suggestions (was %d)\n", len(next.Suggestions), len(sess.Suggestions))
		return nil
	})
}
