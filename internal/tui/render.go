package tui

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/tui/styles"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// RenderSteps renders the step indicator: finished stages checked, the
// current one highlighted and the rest muted. A completed pipeline checks
// every stage.
func RenderSteps(st styles.Set, sess *workflow.Session) string {
	current := -1
	if sess != nil {
		current = workflow.Ordinal(sess.CurrentStep)
	}
	completed := sess != nil && sess.CurrentStep == workflow.StepCompleted

	labels := workflow.StepLabels()
	parts := make([]string, len(labels))
	for i, label := range labels {
		switch {
		case completed || i < current:
			parts[i] = st.StepDone.Render("✓ " + label)
		case i == current:
			parts[i] = st.StepActive.Render(label)
		default:
			parts[i] = st.StepTodo.Render(label)
		}
	}
	return strings.Join(parts, st.Muted.Render(" › "))
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	v := m.view

	title := "coursegen"
	if v.Session != nil {
		title += ": " + v.Session.MainTopic
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(RenderSteps(m.styles, v.Session))
	b.WriteString("\n\n")

	b.WriteString(m.renderMode())
	b.WriteString("\n")

	if lessons := m.renderLessons(); lessons != "" {
		b.WriteString("\n")
		b.WriteString(lessons)
	}

	if len(v.Tasks) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("polling: " + strings.Join(v.Tasks, ", ")))
		b.WriteString("\n")
	}

	if len(m.notices) > 0 {
		b.WriteString("\n")
		for _, n := range m.notices {
			b.WriteString(m.renderNotice(n))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	help := "q quit"
	if m.refresh != nil {
		help += " • r refresh"
	}
	b.WriteString(m.styles.Muted.Render(help))
	return b.String()
}

func (m Model) renderMode() string {
	v := m.view
	switch v.Mode {
	case workflow.ModeForm:
		return m.styles.Muted.Render("No session. Run 'coursegen start <topic>'.")
	case workflow.ModeProcessing:
		return m.spinner.View() + " " + m.styles.Warning.Render(v.ProcessingTitle) + "\n" +
			m.styles.Subtitle.Render(v.ProcessingMessage)
	case workflow.ModeFailed:
		return m.styles.Error.Render(fmt.Sprintf("%s failed", v.Session.CurrentStep)) + "\n" +
			m.styles.Muted.Render("Run 'coursegen retry' to try again.")
	case workflow.ModeTerminal:
		s := m.styles.Success.Render("Course completed")
		if v.Session.CourseID != "" {
			s += m.styles.Muted.Render(" (course " + v.Session.CourseID + ")")
		}
		return s
	}

	s := m.styles.Success.Render("Waiting for your review")
	if v.Session.CurrentStep == workflow.StepSelection {
		s += m.styles.Muted.Render(fmt.Sprintf(" (%d approved)", v.ApprovedCount))
	}
	return s
}

// renderLessons lists the lessons whose output is being generated.
func (m Model) renderLessons() string {
	v := m.view
	if v.Session == nil {
		return ""
	}
	var b strings.Builder
	for _, l := range v.Session.LessonScripts {
		var what string
		switch {
		case v.IsGeneratingPresentation(l.ID):
			what = "presentation"
		case v.IsGeneratingVideo(l.ID):
			what = "video"
		default:
			continue
		}
		fmt.Fprintf(&b, "%s Generating %s: %s\n", m.spinner.View(), what, l.Title)
	}
	return b.String()
}

func (m Model) renderNotice(n notice) string {
	stamp := m.styles.Muted.Render(n.at.Format("15:04:05"))
	var summary string
	switch n.level {
	case event.LevelSuccess:
		summary = m.styles.Success.Render(n.summary)
	case event.LevelError:
		summary = m.styles.Error.Render(n.summary)
	case event.LevelWarn:
		summary = m.styles.Warning.Render(n.summary)
	default:
		summary = n.summary
	}
	if n.detail == "" {
		return stamp + " " + summary
	}
	return stamp + " " + summary + ": " + n.detail
}
