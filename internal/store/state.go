package store

import (
	"maps"
	"slices"

	"github.com/Iron-Ham/coursegen/internal/workflow"
)

// State is a deep copy of everything the store holds at one instant.
type State struct {
	Session      *workflow.Session
	Epoch        Token
	EditingTopic string
	Busy         map[BusyKind][]string
	Flags        map[Flag]bool
	Reordering   bool
	Draft        []workflow.RefinedTopic
	Presentation *workflow.LessonPresentation
	Tasks        []string
	Closed       bool
}

// Snapshot returns a deep copy of the store's state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	busy := make(map[BusyKind][]string, len(s.busy))
	for kind, ids := range s.busy {
		if len(ids) > 0 {
			busy[kind] = slices.Sorted(maps.Keys(ids))
		}
	}
	return State{
		Session:      s.session.Clone(),
		Epoch:        s.applied,
		EditingTopic: s.editingTopic,
		Busy:         busy,
		Flags:        maps.Clone(s.flags),
		Reordering:   s.reordering,
		Draft:        cloneTopics(s.draft),
		Presentation: s.presentation.Clone(),
		Tasks:        slices.Sorted(maps.Keys(s.tasks)),
		Closed:       s.closed,
	}
}

// IsBusy reports whether (kind, id) was busy when the snapshot was taken.
func (st State) IsBusy(kind BusyKind, id string) bool {
	return slices.Contains(st.Busy[kind], id)
}

// Flag reports whether f was set when the snapshot was taken.
func (st State) Flag(f Flag) bool {
	return st.Flags[f]
}

// Polling reports whether a task was registered under key.
func (st State) Polling(key string) bool {
	return slices.Contains(st.Tasks, key)
}
