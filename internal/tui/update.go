package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/coursegen/internal/event"
)

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.done() {
		return tea.Quit
	}
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateChangedMsg:
		m.view = m.source.View()
		if m.done() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case noticeMsg:
		m.addNotice(notice{
			level:   msg.event.Level,
			summary: msg.event.Summary,
			detail:  msg.event.Detail,
			at:      msg.event.Timestamp(),
		})
		return m, nil

	case refreshDoneMsg:
		m.refreshing = false
		m.view = m.source.View()
		if msg.err != nil {
			m.addNotice(notice{level: event.LevelError, summary: "Refresh failed", detail: msg.err.Error(), at: time.Now()})
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "r":
		if m.refresh == nil || m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, refreshCmd(m.refresh)
	}
	return m, nil
}
