package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/coursegen/internal/api"
	"github.com/Iron-Ham/coursegen/internal/config"
	"github.com/Iron-Ham/coursegen/internal/confirm"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/logging"
	"github.com/Iron-Ham/coursegen/internal/orchestrator"
	"github.com/Iron-Ham/coursegen/internal/poll"
	"github.com/Iron-Ham/coursegen/internal/tui/styles"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// app is the per-invocation wiring shared by every workflow command.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	orch   *orchestrator.Orchestrator
	styles styles.Set

	out io.Writer

	mu        sync.Mutex
	errOut    io.Writer
	noticeSub string
}

// newApp loads the configuration and builds the API client and the
// orchestrator. Notifications are printed to the command's stderr.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.API.BaseURL,
		api.WithToken(cfg.API.Token),
		api.WithTimeout(cfg.API.RequestTimeout),
		api.WithLogger(logger))

	theme := styles.ThemeName(cfg.TUI.Theme)
	var confirmer confirm.Confirmer = confirm.NewTerminalConfirmer(theme)
	if cfg.Confirm.AssumeYes {
		confirmer = confirm.AutoConfirmer{Answer: true}
	}

	bus := event.NewBus()
	a := &app{
		cfg:    cfg,
		logger: logger,
		styles: styles.New(theme),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		orch: orchestrator.New(client,
			orchestrator.WithBus(bus),
			orchestrator.WithLogger(logger),
			orchestrator.WithConfirmer(confirmer),
			orchestrator.WithIntervals(intervals(cfg.Polling))),
	}
	a.noticeSub = event.SubscribeTo(bus, event.TypeNotification, a.printNotification)
	return a, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	dir := cfg.Logging.Dir
	if dir == "" {
		dir = filepath.Join(config.ConfigDir(), "logs")
	}
	logger, err := logging.NewLogger(dir, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func intervals(p config.PollingConfig) poll.Intervals {
	return poll.Intervals{
		Session:      p.SessionInterval,
		Presentation: p.PresentationInterval,
		Video:        p.VideoInterval,
	}
}

// close stops every poll loop and flushes the log.
func (a *app) close() {
	a.orch.Close()
	_ = a.logger.Close()
}

// resume attaches to the session the command acts on and remembers it as
// the current session.
func (a *app) resume(ctx context.Context) (*workflow.Session, error) {
	id, err := sessionID()
	if err != nil {
		return nil, err
	}
	sess, err := a.orch.Resume(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := saveCurrentSession(sess.ID); err != nil {
		a.logger.Warn("could not save current session", "error", err)
	}
	return sess, nil
}

// wait blocks until every poll loop has stopped or ctx is done.
func (a *app) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.orch.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		a.orch.Close()
		<-done
		return ctx.Err()
	}
}

// muteNotifications stops printing notifications.
func (a *app) muteNotifications() {
	a.orch.Bus().Unsubscribe(a.noticeSub)
}

func (a *app) printNotification(e event.NotificationEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var summary string
	switch e.Level {
	case event.LevelSuccess:
		summary = a.styles.Success.Render("✓ " + e.Summary)
	case event.LevelError:
		summary = a.styles.Error.Render("✗ " + e.Summary)
	case event.LevelWarn:
		summary = a.styles.Warning.Render("! " + e.Summary)
	default:
		summary = a.styles.Muted.Render("• " + e.Summary)
	}
	if e.Detail == "" {
		fmt.Fprintln(a.errOut, summary)
		return
	}
	fmt.Fprintf(a.errOut, "%s: %s\n", summary, e.Detail)
}

// withApp runs fn with a fresh app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(cmd.Context(), a)
}

// withSession is withApp for commands that act on an existing session.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, a *app, sess *workflow.Session) error) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		sess, err := a.resume(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, a, sess)
	})
}
