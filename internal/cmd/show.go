package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/coursegen/internal/workflow"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current session",
	Long: `Show the current session: its step, status and what it is waiting for.

Use --output json or --output yaml for the complete session, including
suggestions, refined topics and lesson scripts.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Make an existing session the current one",
	Long: `Attach to an existing session and make it the current session for
subsequent commands. Use --wait to block until the step it is processing
finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the current session",
	Long: `Forget the current session so that the next 'coursegen start' begins from
the topic form. The session itself is kept by the service and can be
attached to again with 'coursegen resume'.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var (
	showOutput string
	resumeWait bool
)

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(resetCmd)
	showCmd.Flags().StringVarP(&showOutput, "output", "o", outputText, "output format: text, json or yaml")
	resumeCmd.Flags().BoolVarP(&resumeWait, "wait", "w", false, "wait until the current step finishes")
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := validOutput(showOutput); err != nil {
		return err
	}
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		if showOutput != outputText {
			return writeStructured(a.out, showOutput, sess)
		}
		printSession(a.out, a.styles, a.orch.View())
		return nil
	})
}

func runResume(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		sess, err := a.orch.Resume(ctx, args[0])
		if err != nil {
			return err
		}
		if err := saveCurrentSession(sess.ID); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Current session is now %s\n", sess.ID)
		if resumeWait {
			if err := a.wait(ctx); err != nil {
				return err
			}
		}
		printSession(a.out, a.styles, a.orch.View())
		return nil
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	id, err := loadCurrentSession()
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No current session")
		return nil
	}
	if err := clearCurrentSession(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Forgot session %s\n", id)
	return nil
}
