// Package tui implements the watch view: a bubbletea program that follows
// one workflow session while its poll loops run.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/orchestrator"
	"github.com/Iron-Ham/coursegen/internal/tui/styles"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	bus     *event.Bus
	opts    []tea.ProgramOption
}

// New creates a watch view of orch. Bus events re-render the view.
func New(orch *orchestrator.Orchestrator, st styles.Set, opts ...ModelOption) *App {
	return &App{
		model: NewModel(orch, st, append([]ModelOption{WithRefresh(func(ctx context.Context) error {
			_, err := orch.Refresh(ctx)
			return err
		})}, opts...)...),
		bus: orch.Bus(),
	}
}

// WithProgramOptions passes extra options to the bubbletea program, such as
// its input and output.
func (a *App) WithProgramOptions(opts ...tea.ProgramOption) *App {
	a.opts = append(a.opts, opts...)
	return a
}

// Run starts the TUI application and blocks until it quits or ctx is done.
// A canceled ctx is not an error.
func (a *App) Run(ctx context.Context) error {
	a.program = tea.NewProgram(a.model, append([]tea.ProgramOption{tea.WithContext(ctx)}, a.opts...)...)

	id := a.bus.SubscribeAll(func(e event.Event) {
		if msg := msgFor(e); msg != nil {
			a.program.Send(msg)
		}
	})
	defer a.bus.Unsubscribe(id)

	_, err := a.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
