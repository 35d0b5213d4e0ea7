package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/coursegen/internal/workflow"
)

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Move the session to its next step",
	Long: `Move the session to its next step. Each step is processed by the service
in the background; use --wait to block until it finishes or
'coursegen watch' to follow it.

  refine           refine the approved suggestions into topics
  scripts          write a lesson script for every refined topic
  videos           render every lesson as video or presentation
  questions        generate quiz questions
  create-training  publish the course`,
}

// advanceStep is one step transition exposed as a subcommand.
type advanceStep struct {
	use   string
	short string
	run   func(a *app, ctx context.Context) (*workflow.Session, error)
}

var advanceSteps = []advanceStep{
	{"refine", "Refine the approved suggestions", func(a *app, ctx context.Context) (*workflow.Session, error) {
		return a.orch.ProceedToRefinement(ctx)
	}},
	{"scripts", "Generate lesson scripts", func(a *app, ctx context.Context) (*workflow.Session, error) {
		return a.orch.ProceedToScriptGeneration(ctx)
	}},
	{"videos", "Generate lesson videos and presentations", func(a *app, ctx context.Context) (*workflow.Session, error) {
		return a.orch.ProceedToVideoGeneration(ctx)
	}},
	{"questions", "Generate quiz questions", func(a *app, ctx context.Context) (*workflow.Session, error) {
		return a.orch.ProceedToQuestionGeneration(ctx)
	}},
	{"create-training", "Publish the course", func(a *app, ctx context.Context) (*workflow.Session, error) {
		return a.orch.CreateTraining(ctx)
	}},
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry the failed step",
	Long: `Retry the current step after it failed. Steps that are not started by
an advance of their own, such as research, are refreshed instead.`,
	Args: cobra.NoArgs,
	RunE: runRetry,
}

var (
	advanceWait bool
	retryWait   bool
)

func init() {
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(retryCmd)
	advanceCmd.PersistentFlags().BoolVarP(&advanceWait, "wait", "w", false, "wait until the step finishes")
	retryCmd.Flags().BoolVarP(&retryWait, "wait", "w", false, "wait until the step finishes")

	for _, step := range advanceSteps {
		advanceCmd.AddCommand(&cobra.Command{
			Use:   step.use,
			Short: step.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAdvance(cmd, step)
			},
		})
	}
}

func runAdvance(cmd *cobra.Command, step advanceStep) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		if _, err := step.run(a, ctx); err != nil {
			return err
		}
		return finishAdvance(ctx, a, advanceWait)
	})
}

func runRetry(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		if !a.orch.View().CanRetry() {
			return fmt.Errorf("step %s has not failed (status %s)", sess.CurrentStep, sess.Status)
		}
		if _, err := a.orch.RetryCurrentStep(ctx); err != nil {
			return err
		}
		return finishAdvance(ctx, a, retryWait)
	})
}

// finishAdvance optionally waits for the new step and prints the session.
func finishAdvance(ctx context.Context, a *app, wait bool) error {
	if wait {
		if err := a.wait(ctx); err != nil {
			return err
		}
	}
	printSession(a.out, a.styles, a.orch.View())
	return nil
}
