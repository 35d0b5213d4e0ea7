// Package retry maps a failed pipeline step to the advance request that
// re-runs it, and keeps per-step attempt bookkeeping.
//
// The mapping is fixed and total: refinement, script, video and questions
// re-run their own advance; every other step (research, selection,
// completed and unknown values) has no advance of its own and is recovered
// by refetching the session.
package retry

import (
	"sync"
	"time"

	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// TargetFor returns the advance target that re-runs step. ok is false when
// the step is recovered by a refetch instead.
func TargetFor(step workflow.Step) (target workflow.Target, ok bool) {
	switch step {
	case workflow.StepRefinement:
		return workflow.TargetRefine, true
	case workflow.StepScript:
		return workflow.TargetScripts, true
	case workflow.StepVideo:
		return workflow.TargetVideos, true
	case workflow.StepQuestions:
		return workflow.TargetQuestions, true
	}
	return "", false
}

// StepState tracks retry attempts for one step of one session.
type StepState struct {
	SessionID   string        `json:"session_id"`
	Step        workflow.Step `json:"step"`
	Attempts    int           `json:"attempts"`
	LastError   string        `json:"last_error,omitempty"`
	LastAttempt time.Time     `json:"last_attempt"`
	Succeeded   bool          `json:"succeeded,omitempty"`
}

// Manager manages retry state per (session, step).
// It is thread-safe and can be used concurrently.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*StepState
	now    func() time.Time
}

// NewManager creates a new retry manager.
func NewManager() *Manager {
	return &Manager{
		states: make(map[string]*StepState),
		now:    time.Now,
	}
}

func key(sessionID string, step workflow.Step) string {
	return sessionID + "/" + string(step)
}

// RecordAttempt records a retry of step. A failed attempt stores err's
// message as the last error.
func (m *Manager) RecordAttempt(sessionID string, step workflow.Step, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(sessionID, step)
	state, exists := m.states[k]
	if !exists {
		state = &StepState{SessionID: sessionID, Step: step}
		m.states[k] = state
	}
	state.Attempts++
	state.LastAttempt = m.now()
	if err != nil {
		state.LastError = err.Error()
		state.Succeeded = false
	} else {
		state.LastError = ""
		state.Succeeded = true
	}
}

// State returns a copy of the retry state of step, or nil.
func (m *Manager) State(sessionID string, step workflow.Step) *StepState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[key(sessionID, step)]
	if !ok {
		return nil
	}
	c := *state
	return &c
}

// Attempts returns the number of retries recorded for step.
func (m *Manager) Attempts(sessionID string, step workflow.Step) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if state, ok := m.states[key(sessionID, step)]; ok {
		return state.Attempts
	}
	return 0
}

// ResetSession clears the retry state of every step of a session.
func (m *Manager) ResetSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, state := range m.states {
		if state.SessionID == sessionID {
			delete(m.states, k)
		}
	}
}

// ResetAll clears all retry state.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states = make(map[string]*StepState)
}

// AllStates returns a copy of all retry states.
func (m *Manager) AllStates() []StepState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]StepState, 0, len(m.states))
	for _, state := range m.states {
		out = append(out, *state)
	}
	return out
}
