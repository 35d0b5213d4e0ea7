package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/coursegen/internal/event"
)

// stateChangedMsg is sent when the store applied a snapshot or a poll loop
// started or stopped.
type stateChangedMsg struct{}

// noticeMsg carries a notification from the bus.
type noticeMsg struct {
	event event.NotificationEvent
}

// refreshDoneMsg is sent when a manual refresh returns.
type refreshDoneMsg struct {
	err error
}

// refreshCmd runs fn off the update loop.
func refreshCmd(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: fn(context.Background())}
	}
}

// msgFor translates a bus event into a model message. Events the view
// does not depend on translate to nil.
func msgFor(e event.Event) tea.Msg {
	switch e := e.(type) {
	case event.NotificationEvent:
		return noticeMsg{event: e}
	case event.SessionUpdatedEvent, event.StepChangedEvent,
		event.PollStartedEvent, event.PollStoppedEvent,
		event.GenerationFinishedEvent, event.ConfirmStateChangedEvent:
		return stateChangedMsg{}
	}
	return nil
}
