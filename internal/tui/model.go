package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/orchestrator"
	"github.com/Iron-Ham/coursegen/internal/tui/styles"
)

// maxNotices is the number of notifications kept on screen.
const maxNotices = 5

// ViewSource provides the derived state the model renders.
type ViewSource interface {
	View() orchestrator.View
}

var _ ViewSource = (*orchestrator.Orchestrator)(nil)

// notice is one notification shown under the session.
type notice struct {
	level   event.Level
	summary string
	detail  string
	at      time.Time
}

// Model is the bubbletea model of the watch view. It holds no workflow
// state of its own: every state change re-reads the View from its source.
type Model struct {
	source  ViewSource
	refresh func(context.Context) error
	styles  styles.Set
	spinner spinner.Model

	view    orchestrator.View
	notices []notice

	exitWhenIdle bool
	refreshing   bool
	width        int
	quitting     bool
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithExitWhenIdle quits once no poll loop is left and the service is not
// working on the current step.
func WithExitWhenIdle() ModelOption {
	return func(m *Model) { m.exitWhenIdle = true }
}

// WithRefresh binds the r key to fn.
func WithRefresh(fn func(context.Context) error) ModelOption {
	return func(m *Model) { m.refresh = fn }
}

// NewModel creates a watch model rendering src.
func NewModel(src ViewSource, st styles.Set, opts ...ModelOption) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Warning

	m := Model{
		source:  src,
		styles:  st,
		spinner: sp,
		view:    src.View(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// addNotice appends n, keeping the newest maxNotices.
func (m *Model) addNotice(n notice) {
	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

// done reports whether an idle exit is due.
func (m Model) done() bool {
	return m.exitWhenIdle && m.view.Idle()
}
