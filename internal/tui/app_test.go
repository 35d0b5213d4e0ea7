package tui

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/coursegen/internal/api"
	"github.com/Iron-Ham/coursegen/internal/orchestrator"
	"github.com/Iron-Ham/coursegen/internal/testutil"
	"github.com/Iron-Ham/coursegen/internal/tui/styles"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

func TestApp_RunExitsWhenIdle(t *testing.T) {
	fake := testutil.NewFakeService()
	srv := fake.Server(t)
	id := fake.Seed(&workflow.Session{
		MainTopic:   "Kubernetes networking",
		CurrentStep: workflow.StepSelection,
		Status:      workflow.StatusCompleted,
	})

	orch := orchestrator.New(api.New(srv.URL))
	defer orch.Close()
	if _, err := orch.Resume(context.Background(), id); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	var out bytes.Buffer
	app := New(orch, styles.New(styles.ThemeDefault), WithExitWhenIdle()).
		WithProgramOptions(tea.WithInput(nil), tea.WithOutput(&out))

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return for an idle session")
	}
	if orch.Bus().SubscriptionCount() != 0 {
		t.Error("Run() should unsubscribe from the bus")
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	fake := testutil.NewFakeService()
	srv := fake.Server(t)
	id := fake.Seed(&workflow.Session{
		MainTopic:   "Kubernetes networking",
		CurrentStep: workflow.StepSelection,
		Status:      workflow.StatusCompleted,
	})

	orch := orchestrator.New(api.New(srv.URL))
	defer orch.Close()
	if _, err := orch.Resume(context.Background(), id); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	var out bytes.Buffer
	app := New(orch, styles.New(styles.ThemeDefault)).
		WithProgramOptions(tea.WithInput(nil), tea.WithOutput(&out))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() after cancel error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop on cancel")
	}
}
