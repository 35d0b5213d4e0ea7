// Package store holds the single authoritative workflow session and the
// client-only transient state that surrounds it.
//
// Every request that may replace the session first takes a [Token] from
// [Store.Begin]. Its response is applied with [Store.Commit] only if no
// response from a later-issued request has been applied in the meantime, so
// a slow poll can never overwrite the result of a newer mutation.
package store

import (
	"slices"
	"sync"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/logging"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// Token is a fetch epoch. Tokens are strictly increasing per store.
type Token uint64

// BusyKind names a per-item operation that may not run twice concurrently.
type BusyKind string

const (
	BusyRegenerateTopic      BusyKind = "regenerate_topic"
	BusySaveTopic            BusyKind = "save_topic"
	BusyRegenerateScript     BusyKind = "regenerate_script"
	BusySaveScript           BusyKind = "save_script"
	BusyGeneratePresentation BusyKind = "generate_presentation"
	BusyGenerateVideo        BusyKind = "generate_video"
	BusyOutputType           BusyKind = "output_type"
	BusySuggestion           BusyKind = "suggestion"
)

// Flag names a session-wide operation in flight.
type Flag string

const (
	FlagLoading             Flag = "loading"
	FlagGeneratingMore      Flag = "generating_more"
	FlagGeneratingQuestions Flag = "generating_questions"
	FlagSavingOrder         Flag = "saving_order"
	FlagAddingTopic         Flag = "adding_topic"
)

// Cancellable is a running background task. Cancel must be idempotent.
type Cancellable interface {
	Cancel()
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	session *workflow.Session
	issued  Token
	applied Token

	editingTopic string
	busy         map[BusyKind]map[string]struct{}
	flags        map[Flag]bool
	draft        []workflow.RefinedTopic
	reordering   bool
	presentation *workflow.LessonPresentation

	tasks  map[string]Cancellable
	closed bool

	bus    *event.Bus
	logger *logging.Logger
}

// New creates an empty store. bus and logger may be nil.
func New(bus *event.Bus, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Store{
		busy:   make(map[BusyKind]map[string]struct{}),
		flags:  make(map[Flag]bool),
		tasks:  make(map[string]Cancellable),
		bus:    bus,
		logger: logger,
	}
}

// Begin issues the token for a request that is about to be sent.
func (s *Store) Begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit replaces the session with sess if tok is newer than the last
// applied token. It reports whether the snapshot was applied. After Close
// every commit is discarded.
func (s *Store) Commit(tok Token, sess *workflow.Session) bool {
	if sess == nil {
		return false
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if tok <= s.applied {
		applied := s.applied
		s.mu.Unlock()
		s.logger.Debug("discarding stale session response",
			"session_id", sess.ID,
			"token", uint64(tok),
			"applied", uint64(applied))
		return false
	}

	var prevStep workflow.Step
	var prevID string
	if s.session != nil {
		prevStep = s.session.CurrentStep
		prevID = s.session.ID
	}
	s.applied = tok
	s.session = sess.Clone()
	s.mu.Unlock()

	s.bus.Publish(event.NewSessionUpdatedEvent(sess.ID, string(sess.CurrentStep), string(sess.Status), uint64(tok)))
	if prevID != sess.ID || prevStep != sess.CurrentStep {
		from := string(prevStep)
		if prevID != sess.ID {
			from = ""
		}
		s.bus.Publish(event.NewStepChangedEvent(sess.ID, from, string(sess.CurrentStep)))
	}
	return true
}

// Session returns a copy of the current session, or nil.
func (s *Store) Session() *workflow.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// SessionID returns the current session's ID, or "".
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.ID
}

// Clear drops the session and all transient state. Responses to requests
// issued before Clear are discarded. Running tasks are not touched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.applied = s.issued
	s.resetTransientLocked()
}

func (s *Store) resetTransientLocked() {
	s.editingTopic = ""
	s.busy = make(map[BusyKind]map[string]struct{})
	s.flags = make(map[Flag]bool)
	s.draft = nil
	s.reordering = false
	s.presentation = nil
}

// Close tears the store down: all registered tasks are cancelled and every
// later write is ignored. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.resetTransientLocked()
	tasks := s.takeTasksLocked()
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// -----------------------------------------------------------------------------
// Transient per-item state
// -----------------------------------------------------------------------------

// TryBusy marks (kind, id) busy. It returns false if the item is already
// busy or the store is closed.
func (s *Store) TryBusy(kind BusyKind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	set := s.busy[kind]
	if set == nil {
		set = make(map[string]struct{})
		s.busy[kind] = set
	}
	if _, ok := set[id]; ok {
		return false
	}
	set[id] = struct{}{}
	return true
}

// ClearBusy clears (kind, id). Clearing an item that is not busy is a no-op.
func (s *Store) ClearBusy(kind BusyKind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy[kind], id)
}

// IsBusy reports whether (kind, id) is busy.
func (s *Store) IsBusy(kind BusyKind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.busy[kind][id]
	return ok
}

// TryFlag sets f if it is not already set.
func (s *Store) TryFlag(f Flag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.flags[f] {
		return false
	}
	s.flags[f] = true
	return true
}

// ClearFlag clears f.
func (s *Store) ClearFlag(f Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, f)
}

// SetEditingTopic records the topic open in the editor; "" closes it.
func (s *Store) SetEditingTopic(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.editingTopic = id
	}
}

// EditingTopic returns the topic open in the editor.
func (s *Store) EditingTopic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingTopic
}

// SetPresentation stores the presentation being previewed.
func (s *Store) SetPresentation(p *workflow.LessonPresentation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.presentation = p.Clone()
	}
}

// Presentation returns a copy of the presentation being previewed.
func (s *Store) Presentation() *workflow.LessonPresentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presentation.Clone()
}

// -----------------------------------------------------------------------------
// Reorder draft
// -----------------------------------------------------------------------------

// BeginReorder enters reorder mode with a private draft of the refined
// topics in their current sort order.
func (s *Store) BeginReorder() ([]workflow.RefinedTopic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.ErrClosed
	}
	if s.session == nil {
		return nil, errors.ErrNoSession
	}
	draft := s.session.Clone().RefinedTopics
	slices.SortStableFunc(draft, func(a, b workflow.RefinedTopic) int {
		return a.SortOrder - b.SortOrder
	})
	s.draft = draft
	s.reordering = true
	return cloneTopics(draft), nil
}

// Draft returns a copy of the reorder draft.
func (s *Store) Draft() ([]workflow.RefinedTopic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reordering {
		return nil, errors.ErrNotInReorderMode
	}
	return cloneTopics(s.draft), nil
}

// SetDraft replaces the reorder draft.
func (s *Store) SetDraft(draft []workflow.RefinedTopic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reordering {
		return errors.ErrNotInReorderMode
	}
	s.draft = cloneTopics(draft)
	return nil
}

// EndReorder leaves reorder mode and discards the draft.
func (s *Store) EndReorder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
	s.reordering = false
}

func cloneTopics(topics []workflow.RefinedTopic) []workflow.RefinedTopic {
	if topics == nil {
		return nil
	}
	out := make([]workflow.RefinedTopic, len(topics))
	for i, t := range topics {
		t.LearningGoals = slices.Clone(t.LearningGoals)
		out[i] = t
	}
	return out
}
