package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/coursegen/internal/workflow"
)

var startCmd = &cobra.Command{
	Use:   "start <topic>",
	Short: "Start a new course session with topic research",
	Long: `Start a new course-generation session. The service researches the topic
and suggests sub-topics for you to review with 'coursegen suggestions'.

Defaults for audience, difficulty, language and video length come from the
course section of the configuration.

Examples:
  coursegen start "Introduction to Kubernetes networking"
  coursegen start "Baking sourdough bread" --language de --wait`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStart,
}

var (
	startAudience   string
	startDifficulty string
	startLanguage   string
	startDuration   int
	startWait       bool
)

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVar(&startAudience, "audience", "", "target audience (default from course.target_audience)")
	startCmd.Flags().StringVar(&startDifficulty, "difficulty", "", "beginner, intermediate or advanced (default from course.difficulty)")
	startCmd.Flags().StringVar(&startLanguage, "language", "", "content language (default from course.language)")
	startCmd.Flags().IntVar(&startDuration, "duration", 0, "target video length in minutes (default from course.video_duration_min)")
	startCmd.Flags().BoolVarP(&startWait, "wait", "w", false, "wait until research finishes")
}

func runStart(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		req := startRequest(a, strings.Join(args, " "))
		sess, err := a.orch.StartResearch(ctx, req)
		if err != nil {
			return err
		}
		if err := saveCurrentSession(sess.ID); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Started session %s\n", sess.ID)

		if !startWait {
			fmt.Fprintln(a.out, a.styles.Muted.Render("Run 'coursegen watch' to follow research."))
			return nil
		}
		if err := a.wait(ctx); err != nil {
			return err
		}
		printSession(a.out, a.styles, a.orch.View())
		return nil
	})
}

// startRequest fills unset flags from the course configuration.
func startRequest(a *app, topic string) workflow.StartRequest {
	req := workflow.StartRequest{
		Topic:            topic,
		TargetAudience:   a.cfg.Course.TargetAudience,
		DifficultyLevel:  workflow.Difficulty(a.cfg.Course.Difficulty),
		Language:         workflow.Language(a.cfg.Course.Language),
		VideoDurationMin: a.cfg.Course.VideoDurationMin,
	}
	if startAudience != "" {
		req.TargetAudience = startAudience
	}
	if startDifficulty != "" {
		req.DifficultyLevel = workflow.Difficulty(startDifficulty)
	}
	if startLanguage != "" {
		req.Language = workflow.Language(startLanguage)
	}
	if startDuration != 0 {
		req.VideoDurationMin = startDuration
	}
	return req
}
