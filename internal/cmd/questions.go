package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/coursegen/internal/workflow"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Preview the generated quiz questions",
	Args:  cobra.NoArgs,
	RunE:  runQuestions,
}

var questionsOutput string

func init() {
	rootCmd.AddCommand(questionsCmd)
	questionsCmd.Flags().StringVarP(&questionsOutput, "output", "o", outputText, "output format: text, json or yaml")
}

func runQuestions(cmd *cobra.Command, args []string) error {
	if err := validOutput(questionsOutput); err != nil {
		return err
	}
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		qs, err := a.orch.PreviewQuestions(ctx)
		if err != nil {
			return err
		}
		if questionsOutput != outputText {
			return writeStructured(a.out, questionsOutput, qs)
		}
		printQuestions(a.out, a.styles, qs)
		return nil
	})
}
