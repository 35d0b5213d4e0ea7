package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/coursegen/internal/orchestrator"
	"github.com/Iron-Ham/coursegen/internal/tui"
	"github.com/Iron-Ham/coursegen/internal/tui/styles"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("invalid output format %q: must be one of text, json, yaml", format)
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return validOutput(format)
}

// modeLine describes what the session is waiting for.
func modeLine(st styles.Set, v orchestrator.View) string {
	switch v.Mode {
	case workflow.ModeProcessing:
		return st.Warning.Render(v.ProcessingTitle) + "\n" + st.Muted.Render(v.ProcessingMessage)
	case workflow.ModeFailed:
		return st.Error.Render("Step failed") + "\n" + st.Muted.Render("Run 'coursegen retry' to try again.")
	case workflow.ModeTerminal:
		line := st.Success.Render("Course completed")
		if v.Session.CourseID != "" {
			line += st.Muted.Render(" (course " + v.Session.CourseID + ")")
		}
		return line
	case workflow.ModeInteractive:
		return st.Success.Render("Waiting for you") + "\n" + st.Muted.Render(nextHint(v))
	}
	return st.Muted.Render("No session")
}

// nextHint names the command that continues the pipeline.
func nextHint(v orchestrator.View) string {
	switch v.Session.CurrentStep {
	case workflow.StepSelection:
		if v.ApprovedCount == 0 {
			return "Approve at least one suggestion, then run 'coursegen advance refine'."
		}
		return "Run 'coursegen advance refine' to refine the approved topics."
	case workflow.StepRefinement:
		return "Review the topics, then run 'coursegen advance scripts'."
	case workflow.StepScript:
		return "Review the scripts, then run 'coursegen advance videos'."
	case workflow.StepVideo:
		return "Run 'coursegen advance questions' once the lessons are rendered."
	case workflow.StepQuestions:
		return "Review the questions, then run 'coursegen advance create-training'."
	}
	return ""
}

// printSession writes the session overview.
func printSession(w io.Writer, st styles.Set, v orchestrator.View) {
	sess := v.Session
	fmt.Fprintln(w, tui.RenderSteps(st, sess))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Session:  %s\n", sess.ID)
	fmt.Fprintf(w, "Topic:    %s\n", sess.MainTopic)
	fmt.Fprintf(w, "Step:     %s (%s)\n", sess.CurrentStep, st.StatusStyle(string(sess.Status)).Render(string(sess.Status)))
	fmt.Fprintf(w, "Language: %s", sess.Language)
	if sess.DifficultyLevel != "" {
		fmt.Fprintf(w, ", %s", sess.DifficultyLevel)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Topics:   %d suggested, %d approved, %d refined, %d lessons\n",
		len(sess.Suggestions), v.ApprovedCount, len(sess.RefinedTopics), len(sess.LessonScripts))
	fmt.Fprintln(w)
	fmt.Fprintln(w, modeLine(st, v))
}

func newTable(st styles.Set, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(st.Palette.Border)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(st.Palette.Primary).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func printSuggestions(w io.Writer, st styles.Set, sess *workflow.Session) {
	if len(sess.Suggestions) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No suggestions yet."))
		return
	}
	t := newTable(st, "ID", "Status", "Title", "Custom")
	for _, s := range sess.Suggestions {
		custom := ""
		if s.IsCustom {
			custom = "yes"
		}
		t.Row(s.ID, st.StatusStyle(string(s.Status)).Render(string(s.Status)), s.Title, custom)
	}
	fmt.Fprintln(w, t.String())
}

func printTopics(w io.Writer, st styles.Set, topics []workflow.RefinedTopic) {
	if len(topics) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No refined topics yet."))
		return
	}
	for i, t := range topics {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, st.Title.UnsetMarginBottom().Render(t.Title), st.Muted.Render(t.ID))
		if t.Description != "" {
			fmt.Fprintf(w, "   %s\n", t.Description)
		}
		for _, g := range t.LearningGoals {
			fmt.Fprintf(w, "   - %s\n", g)
		}
		if t.EstimatedTimeMin > 0 {
			fmt.Fprintf(w, "   %s\n", st.Muted.Render(strconv.Itoa(t.EstimatedTimeMin)+" min"))
		}
	}
}

func printLessons(w io.Writer, st styles.Set, v orchestrator.View) {
	sess := v.Session
	if len(sess.LessonScripts) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No lesson scripts yet."))
		return
	}
	t := newTable(st, "ID", "Title", "Output", "Status", "Minutes")
	for _, l := range sess.LessonScripts {
		kind := l.EffectiveOutputType()
		status := l.SubStatus(kind)
		switch {
		case kind == workflow.OutputPresentation && v.IsGeneratingPresentation(l.ID),
			kind == workflow.OutputVideo && v.IsGeneratingVideo(l.ID):
			status = "processing"
		case status == "":
			status = "not started"
		}
		t.Row(l.ID, l.Title, string(kind), st.StatusStyle(status).Render(status), strconv.Itoa(l.DurationMin))
	}
	fmt.Fprintln(w, t.String())
}

func printLesson(w io.Writer, st styles.Set, l *workflow.LessonScript) {
	fmt.Fprintln(w, st.Title.Render(l.Title))
	fmt.Fprintf(w, "Lesson: %s\n", l.ID)
	fmt.Fprintf(w, "Output: %s\n", l.EffectiveOutputType())
	if l.VideoURL != "" {
		fmt.Fprintf(w, "Video:  %s\n", l.VideoURL)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, l.Script)
}

func printPresentation(w io.Writer, st styles.Set, p *workflow.LessonPresentation) {
	fmt.Fprintf(w, "Presentation %s (%s), %d slides\n", p.ID, st.StatusStyle(p.Status).Render(p.Status), len(p.Slides))
	for i, s := range p.Slides {
		fmt.Fprintf(w, "\n%s\n", st.Title.UnsetMarginBottom().Render(fmt.Sprintf("%d. %s", i+1, s.Title)))
		if s.Content != "" {
			fmt.Fprintln(w, s.Content)
		}
		if s.AudioURL != "" {
			fmt.Fprintln(w, st.Muted.Render("audio: "+s.AudioURL))
		}
	}
}

func printQuestions(w io.Writer, st styles.Set, qs []workflow.Question) {
	if len(qs) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No questions generated."))
		return
	}
	for i, q := range qs {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, q.Text, st.Muted.Render(fmt.Sprintf("[%s, %d pts]", q.Type, q.Points)))
		switch d := q.Data.(type) {
		case workflow.MultipleChoiceData:
			for j, opt := range d.Options {
				fmt.Fprintf(w, "   %c) %s\n", 'a'+rune(j), opt)
			}
		case workflow.OrderingData:
			for _, item := range d.Items {
				fmt.Fprintf(w, "   - %s\n", item)
			}
		case workflow.MatchingData:
			for _, p := range d.Pairs {
				fmt.Fprintf(w, "   %s = %s\n", p.Left, p.Right)
			}
		case workflow.DragDropData:
			fmt.Fprintf(w, "   items: %s\n", strings.Join(d.Items, ", "))
			fmt.Fprintf(w, "   targets: %s\n", strings.Join(d.Targets, ", "))
		case workflow.FillBlankData:
			fmt.Fprintf(w, "   %s\n", d.Text)
		}
	}
}
