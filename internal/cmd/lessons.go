package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Review lesson scripts and render lessons",
	Long: `Review lesson scripts and render each lesson as a video or a
presentation.

Without a subcommand, lists the lessons with their output type and
generation status.`,
	Args: cobra.NoArgs,
	RunE: runLessonsList,
}

var lessonsShowCmd = &cobra.Command{
	Use:   "show <lesson-id>",
	Short: "Print a lesson script",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessonsShow,
}

var lessonsEditCmd = &cobra.Command{
	Use:   "edit <lesson-id>",
	Short: "Replace a lesson script",
	Long: `Replace a lesson script with the contents of a file, or of stdin when
the file is "-".

Example:
  coursegen lessons edit 9a1e... --file intro.md --title "Welcome"`,
	Args: cobra.ExactArgs(1),
	RunE: runLessonsEdit,
}

var lessonsRegenerateCmd = &cobra.Command{
	Use:   "regenerate <lesson-id>",
	Short: "Replace a lesson script with a newly generated one",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessonsRegenerate,
}

var lessonsOutputTypeCmd = &cobra.Command{
	Use:       "output-type <lesson-id> <video|presentation>",
	Short:     "Choose how a lesson is rendered",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(workflow.OutputVideo), string(workflow.OutputPresentation)},
	RunE:      runLessonsOutputType,
}

var lessonsPresentationCmd = &cobra.Command{
	Use:   "presentation <lesson-id>",
	Short: "Generate a lesson's presentation",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessonsPresentation,
}

var lessonsPreviewCmd = &cobra.Command{
	Use:   "preview <lesson-id>",
	Short: "Print a lesson's presentation",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessonsPreview,
}

var lessonsAudioCmd = &cobra.Command{
	Use:   "audio <lesson-id>",
	Short: "Regenerate the narration of a lesson's presentation",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessonsAudio,
}

var lessonsVideoCmd = &cobra.Command{
	Use:   "video <lesson-id>",
	Short: "Generate a lesson's video",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessonsVideo,
}

var (
	lessonTitle string
	lessonFile  string
	lessonWait  bool
)

func init() {
	rootCmd.AddCommand(lessonsCmd)
	lessonsCmd.AddCommand(lessonsShowCmd)
	lessonsCmd.AddCommand(lessonsEditCmd)
	lessonsCmd.AddCommand(lessonsRegenerateCmd)
	lessonsCmd.AddCommand(lessonsOutputTypeCmd)
	lessonsCmd.AddCommand(lessonsPresentationCmd)
	lessonsCmd.AddCommand(lessonsPreviewCmd)
	lessonsCmd.AddCommand(lessonsAudioCmd)
	lessonsCmd.AddCommand(lessonsVideoCmd)

	lessonsEditCmd.Flags().StringVar(&lessonTitle, "title", "", "new lesson title")
	lessonsEditCmd.Flags().StringVarP(&lessonFile, "file", "f", "", "file holding the new script, - for stdin")
	_ = lessonsEditCmd.MarkFlagRequired("file")

	for _, c := range []*cobra.Command{lessonsPresentationCmd, lessonsAudioCmd, lessonsVideoCmd} {
		c.Flags().BoolVarP(&lessonWait, "wait", "w", false, "wait until generation finishes")
	}
}

func findLesson(sess *workflow.Session, id string) (*workflow.LessonScript, error) {
	l, ok := sess.Lesson(id)
	if !ok {
		return nil, errors.NewNotFoundError("lesson", id)
	}
	return l, nil
}

func runLessonsList(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		printLessons(a.out, a.styles, a.orch.View())
		return nil
	})
}

func runLessonsShow(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		l, err := findLesson(sess, args[0])
		if err != nil {
			return err
		}
		printLesson(a.out, a.styles, l)
		return nil
	})
}

func runLessonsEdit(cmd *cobra.Command, args []string) error {
	script, err := readScript(cmd.InOrStdin(), lessonFile)
	if err != nil {
		return err
	}
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		l, err := a.orch.SaveScriptEdit(ctx, args[0], workflow.ScriptUpdate{
			Title:  lessonTitle,
			Script: script,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved %s\n", l.Title)
		return nil
	})
}

func readScript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

func runLessonsRegenerate(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		err := a.orch.RegenerateScript(ctx, args[0])
		if errors.Is(err, errors.ErrDeclined) {
			fmt.Fprintln(a.out, "Regeneration canceled")
			return nil
		}
		if err != nil {
			return err
		}
		if l, ok := a.orch.Session().Lesson(args[0]); ok {
			printLesson(a.out, a.styles, l)
		}
		return nil
	})
}

func runLessonsOutputType(cmd *cobra.Command, args []string) error {
	kind := workflow.OutputType(args[1])
	if !kind.Valid() {
		return errors.NewValidationError("must be video or presentation").WithField("outputType").WithValue(args[1])
	}
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		if _, err := a.orch.SetOutputType(ctx, args[0], kind); err != nil {
			return err
		}
		printLessons(a.out, a.styles, a.orch.View())
		return nil
	})
}

func runLessonsPresentation(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		if _, err := a.orch.GeneratePresentation(ctx, args[0]); err != nil {
			return err
		}
		return finishLesson(ctx, a)
	})
}

func runLessonsPreview(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		p, err := a.orch.PreviewPresentation(ctx, args[0])
		if err != nil {
			return err
		}
		printPresentation(a.out, a.styles, p)
		return nil
	})
}

func runLessonsAudio(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		if _, err := a.orch.RegenerateAudio(ctx, args[0]); err != nil {
			return err
		}
		return finishLesson(ctx, a)
	})
}

func runLessonsVideo(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		if _, err := a.orch.GenerateVideo(ctx, args[0]); err != nil {
			return err
		}
		return finishLesson(ctx, a)
	})
}

// finishLesson optionally waits for lesson generation and prints the lessons.
func finishLesson(ctx context.Context, a *app) error {
	if lessonWait {
		if err := a.wait(ctx); err != nil {
			return err
		}
	}
	printLessons(a.out, a.styles, a.orch.View())
	return nil
}
