// Package poll runs the cancellable repeating fetch loops that observe
// asynchronous progress of the workflow service.
//
// Three kinds of loop exist: the session loop (one per scheduler), and the
// presentation and video loops (one per lesson each). Every loop is registered
// in the session store under its key, so starting a loop under a key that is
// already running replaces the old loop.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/logging"
	"github.com/Iron-Ham/coursegen/internal/store"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// Default poll intervals.
const (
	DefaultSessionInterval      = 2 * time.Second
	DefaultPresentationInterval = 3 * time.Second
	DefaultVideoInterval        = 5 * time.Second
)

// SessionFetcher loads a session from the workflow service.
type SessionFetcher interface {
	GetSession(ctx context.Context, sessionID string) (*workflow.Session, error)
}

// Intervals holds the tick interval of each loop kind.
type Intervals struct {
	Session      time.Duration
	Presentation time.Duration
	Video        time.Duration
}

// DefaultIntervals returns the standard poll intervals.
func DefaultIntervals() Intervals {
	return Intervals{
		Session:      DefaultSessionInterval,
		Presentation: DefaultPresentationInterval,
		Video:        DefaultVideoInterval,
	}
}

func (iv Intervals) withDefaults() Intervals {
	d := DefaultIntervals()
	if iv.Session <= 0 {
		iv.Session = d.Session
	}
	if iv.Presentation <= 0 {
		iv.Presentation = d.Presentation
	}
	if iv.Video <= 0 {
		iv.Video = d.Video
	}
	return iv
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithIntervals overrides the poll intervals.
func WithIntervals(iv Intervals) Option {
	return func(s *Scheduler) { s.intervals = iv.withDefaults() }
}

// WithBus sets the bus for poll lifecycle and completion events.
func WithBus(bus *event.Bus) Option {
	return func(s *Scheduler) { s.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler starts and stops poll loops.
type Scheduler struct {
	fetcher SessionFetcher
	store   *store.Store
	bus     *event.Bus
	logger  *logging.Logger

	mu        sync.Mutex
	intervals Intervals

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

// NewScheduler creates a Scheduler that commits fetched sessions to st.
func NewScheduler(fetcher SessionFetcher, st *store.Store, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		fetcher:   fetcher,
		store:     st,
		logger:    logging.NopLogger(),
		intervals: DefaultIntervals(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Intervals returns the intervals new loops start with.
func (s *Scheduler) Intervals() Intervals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervals
}

// SetIntervals changes the intervals of loops started afterwards. Zero
// fields keep their defaults.
func (s *Scheduler) SetIntervals(iv Intervals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervals = iv.withDefaults()
}

// StartSession starts the session loop, replacing any running one. The
// loop stops on the first fetch error, keeping the last applied session,
// and once the session reaches a step that needs no automatic waiting.
func (s *Scheduler) StartSession(sessionID string) *Task {
	logger := s.logger.WithSession(sessionID).With("poll", store.TaskSession)
	return s.start(store.TaskSession, s.Intervals().Session, func(ctx context.Context) (bool, string) {
		tok := s.store.Begin()
		sess, err := s.fetcher.GetSession(ctx, sessionID)
		if ctx.Err() != nil {
			return true, event.StopReasonCanceled
		}
		if err != nil {
			logger.Warn("session poll failed, polling stopped", "error", err)
			return true, event.StopReasonError
		}
		if sess = s.apply(tok, sess, sessionID); sess == nil {
			return false, ""
		}
		if workflow.ShouldStopSessionPolling(sess.Status, sess.CurrentStep) {
			logger.Debug("session settled",
				"step", string(sess.CurrentStep),
				"status", string(sess.Status))
			return true, event.StopReasonSettled
		}
		return false, ""
	})
}

// StartPresentation starts the presentation loop for one lesson.
func (s *Scheduler) StartPresentation(sessionID, lessonID string) *Task {
	return s.startLesson(workflow.OutputPresentation, sessionID, lessonID,
		store.PresentationTaskKey(lessonID), s.Intervals().Presentation, store.BusyGeneratePresentation)
}

// StartVideo starts the video loop for one lesson.
func (s *Scheduler) StartVideo(sessionID, lessonID string) *Task {
	return s.startLesson(workflow.OutputVideo, sessionID, lessonID,
		store.VideoTaskKey(lessonID), s.Intervals().Video, store.BusyGenerateVideo)
}

// startLesson runs a loop that keeps polling through transient fetch errors
// until the lesson's sub-status for kind is settled. A fetch error the
// service marks as final, such as an unknown session, stops the loop and
// clears the generating mark.
func (s *Scheduler) startLesson(kind workflow.OutputType, sessionID, lessonID, key string, interval time.Duration, busy store.BusyKind) *Task {
	logger := s.logger.WithSession(sessionID).WithLesson(lessonID).With("poll", key)
	return s.start(key, interval, func(ctx context.Context) (bool, string) {
		tok := s.store.Begin()
		sess, err := s.fetcher.GetSession(ctx, sessionID)
		if ctx.Err() != nil {
			return true, event.StopReasonCanceled
		}
		if err != nil {
			var apiErr *errors.APIError
			if errors.As(err, &apiErr) && !errors.IsRetryable(err) {
				logger.Warn("poll failed, polling stopped", "error", err)
				s.store.ClearBusy(busy, lessonID)
				return true, event.StopReasonError
			}
			logger.Warn("poll failed, retrying next cycle", "error", err)
			return false, ""
		}
		if sess = s.apply(tok, sess, sessionID); sess == nil {
			return false, ""
		}

		lesson, ok := sess.Lesson(lessonID)
		if !ok {
			return false, ""
		}
		status := lesson.SubStatus(kind)
		if !workflow.SubStatusSettled(status) {
			return false, ""
		}

		success := status == string(workflow.StatusCompleted)
		s.store.ClearBusy(busy, lessonID)
		s.bus.Publish(event.NewGenerationFinishedEvent(string(kind), lessonID, lesson.Title, success))
		s.bus.Publish(completionNotice(kind, success))
		logger.Info("generation settled", "kind", string(kind), "status", status)
		return true, event.StopReasonSettled
	})
}

// apply commits sess and returns the session the store now holds, which is
// the newer one when sess was discarded as stale. It returns nil when the
// store no longer holds sessionID.
func (s *Scheduler) apply(tok store.Token, sess *workflow.Session, sessionID string) *workflow.Session {
	if s.store.Commit(tok, sess) {
		return sess
	}
	cur := s.store.Session()
	if cur == nil || cur.ID != sessionID {
		return nil
	}
	return cur
}

func completionNotice(kind workflow.OutputType, success bool) event.NotificationEvent {
	name := "Video"
	if kind == workflow.OutputPresentation {
		name = "Presentation"
	}
	if success {
		return event.NewNotificationEvent(event.LevelSuccess, "Completed",
			name+" has been generated successfully!")
	}
	return event.NewNotificationEvent(event.LevelError, "Failed",
		name+" generation failed. Please try again.")
}

// cycle performs one poll. It returns true with a reason to stop the loop.
type cycle func(ctx context.Context) (stop bool, reason string)

func (s *Scheduler) start(key string, interval time.Duration, fn cycle) *Task {
	ctx, cancel := context.WithCancel(s.ctx)
	t := newTask(key, cancel)
	if !s.store.Register(key, t) {
		close(t.done)
		return t
	}

	s.bus.Publish(event.NewPollStartedEvent(key, interval))
	s.wg.Go(func() {
		s.run(ctx, t, interval, fn)
	})
	return t
}

func (s *Scheduler) run(ctx context.Context, t *Task, interval time.Duration, fn cycle) {
	defer close(t.done)
	defer s.store.Unregister(t.key, t)

	cycles := 0
	reason := event.StopReasonCanceled
	defer func() {
		s.bus.Publish(event.NewPollStoppedEvent(t.key, reason, cycles))
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycles++
			if stop, why := fn(ctx); stop {
				reason = why
				t.Cancel()
				return
			}
		}
	}
}

// Stop cancels the loop registered under key.
func (s *Scheduler) Stop(key string) {
	s.store.CancelTask(key)
}

// StopSession cancels the session loop.
func (s *Scheduler) StopSession() {
	s.Stop(store.TaskSession)
}

// StopAll cancels every running loop. New loops may be started afterwards.
func (s *Scheduler) StopAll() {
	s.store.CancelAll()
}

// Active returns the keys of the running loops.
func (s *Scheduler) Active() []string {
	return s.store.TaskKeys()
}

// Wait blocks until every loop goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close cancels every loop, including ones not yet registered, and waits
// for them to exit. The scheduler cannot be used afterwards.
func (s *Scheduler) Close() {
	s.cancel()
	s.store.CancelAll()
	s.wg.Wait()
}
