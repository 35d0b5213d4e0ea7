// Package orchestrator coordinates one course-generation workflow session.
//
// Every mutation follows one of two patterns: the session returned by the
// service replaces the store's snapshot, or the session is refetched after
// the service acknowledges the change. Advances restart the session poll
// loop because the new step begins processing; presentation and video
// generation start a loop keyed by lesson. Failures are published as
// notifications carrying the service's message and leave the session
// untouched.
package orchestrator

import (
	"context"
	"sync"

	"github.com/Iron-Ham/coursegen/internal/confirm"
	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/logging"
	"github.com/Iron-Ham/coursegen/internal/orchestrator/retry"
	"github.com/Iron-Ham/coursegen/internal/poll"
	"github.com/Iron-Ham/coursegen/internal/store"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// Gate names.
const (
	GateTopicRegeneration  = "topic-regeneration"
	GateScriptRegeneration = "script-regeneration"
)

// Orchestrator drives one workflow session: it dispatches mutations to the
// workflow service, applies their results to the session store and starts
// the poll loops that observe server-side progress.
type Orchestrator struct {
	svc       workflow.Service
	store     *store.Store
	scheduler *poll.Scheduler
	bus       *event.Bus
	logger    *logging.Logger
	retries   *retry.Manager

	topicGate  *confirm.Gate
	scriptGate *confirm.Gate

	closeOnce sync.Once
}

type options struct {
	confirmer confirm.Confirmer
	intervals poll.Intervals
	bus       *event.Bus
	logger    *logging.Logger
	retries   *retry.Manager
}

// Option configures an Orchestrator.
type Option func(*options)

// WithConfirmer sets how regeneration prompts are answered. The default
// declines every prompt.
func WithConfirmer(c confirm.Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// WithIntervals overrides the poll intervals.
func WithIntervals(iv poll.Intervals) Option {
	return func(o *options) { o.intervals = iv }
}

// WithBus sets the event bus. A private bus is created otherwise.
func WithBus(bus *event.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRetryManager shares retry bookkeeping between orchestrators.
func WithRetryManager(m *retry.Manager) Option {
	return func(o *options) { o.retries = m }
}

// New creates an Orchestrator with no session.
func New(svc workflow.Service, opts ...Option) *Orchestrator {
	o := options{
		confirmer: confirm.AutoConfirmer{Answer: false},
		intervals: poll.DefaultIntervals(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = event.NewBus()
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}
	if o.retries == nil {
		o.retries = retry.NewManager()
	}

	st := store.New(o.bus, o.logger)
	return &Orchestrator{
		svc:   svc,
		store: st,
		scheduler: poll.NewScheduler(svc, st,
			poll.WithIntervals(o.intervals),
			poll.WithBus(o.bus),
			poll.WithLogger(o.logger)),
		bus:     o.bus,
		logger:  o.logger,
		retries: o.retries,
		topicGate: confirm.NewGate(GateTopicRegeneration, "Confirm Regeneration",
			o.confirmer, o.bus),
		scriptGate: confirm.NewGate(GateScriptRegeneration, "Confirm Regeneration",
			o.confirmer, o.bus),
	}
}

// Bus returns the bus the orchestrator publishes on.
func (o *Orchestrator) Bus() *event.Bus { return o.bus }

// Store returns the session store.
func (o *Orchestrator) Store() *store.Store { return o.store }

// Scheduler returns the poll scheduler.
func (o *Orchestrator) Scheduler() *poll.Scheduler { return o.scheduler }

// Retries returns the retry bookkeeping.
func (o *Orchestrator) Retries() *retry.Manager { return o.retries }

// Session returns a copy of the current session, or nil.
func (o *Orchestrator) Session() *workflow.Session { return o.store.Session() }

// Gate returns the named confirmation gate, or nil.
func (o *Orchestrator) Gate(name string) *confirm.Gate {
	switch name {
	case GateTopicRegeneration:
		return o.topicGate
	case GateScriptRegeneration:
		return o.scriptGate
	}
	return nil
}

// Wait blocks until every poll loop has stopped.
func (o *Orchestrator) Wait() { o.scheduler.Wait() }

// Close cancels every poll loop and tears the store down. No state changes
// after Close returns. Close is idempotent.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.store.Close()
		o.scheduler.Close()
		o.logger.Debug("orchestrator closed")
	})
}

// -----------------------------------------------------------------------------
// Shared helpers
// -----------------------------------------------------------------------------

// current returns the current session or ErrNoSession.
func (o *Orchestrator) current() (*workflow.Session, error) {
	if o.store.Closed() {
		return nil, errors.ErrClosed
	}
	sess := o.store.Session()
	if sess == nil {
		return nil, errors.ErrNoSession
	}
	return sess, nil
}

func (o *Orchestrator) notify(level event.Level, summary, detail string) {
	o.bus.Publish(event.NewNotificationEvent(level, summary, detail))
}

// fail reports a failed operation: it logs err at a level matching its
// severity, publishes an error
// notification carrying the service's message and returns err wrapped in a
// WorkflowError.
func (o *Orchestrator) fail(sess *workflow.Session, op, fallback string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	wfErr := errors.NewWorkflowError(fallback, err).WithOperation(op)
	logger := o.logger.With("op", op)
	if sess != nil {
		wfErr = wfErr.WithSession(sess.ID).WithStep(string(sess.CurrentStep))
		logger = logger.WithSession(sess.ID).WithStep(string(sess.CurrentStep))
	}
	if errors.GetSeverity(err) == errors.SeverityWarning {
		logger.Warn("operation rejected", "error", err)
	} else {
		logger.Error("operation failed", "error", err)
	}
	o.notify(event.LevelError, "Error", errors.UserMessage(err, fallback))
	return wfErr
}

// busy is the error for an operation that is already running.
func busy(what string) error {
	return errors.Wrap(errors.ErrBusy, what)
}

// refetch loads the session and applies it unless a newer response has
// been applied meanwhile.
func (o *Orchestrator) refetch(ctx context.Context, sessionID string) (*workflow.Session, error) {
	tok := o.store.Begin()
	sess, err := o.svc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	o.store.Commit(tok, sess)
	return sess, nil
}

// refreshAfter refetches after a successful mutation. A failed refetch is
// reported but does not fail the mutation.
func (o *Orchestrator) refreshAfter(ctx context.Context, sess *workflow.Session) {
	if _, err := o.refetch(ctx, sess.ID); err != nil {
		_ = o.fail(sess, "refresh", "Could not refresh session", err)
	}
}

// Refresh refetches the current session.
func (o *Orchestrator) Refresh(ctx context.Context) (*workflow.Session, error) {
	sess, err := o.current()
	if err != nil {
		return nil, err
	}
	fresh, err := o.refetch(ctx, sess.ID)
	if err != nil {
		return nil, o.fail(sess, "refresh", "Could not refresh session", err)
	}
	return fresh, nil
}
