package store

import (
	"maps"
	"slices"
)

// Task registry keys.
const (
	TaskSession = "session"
)

// PresentationTaskKey is the registry key of a lesson's presentation poll.
func PresentationTaskKey(lessonID string) string { return "presentation:" + lessonID }

// VideoTaskKey is the registry key of a lesson's video poll.
func VideoTaskKey(lessonID string) string { return "video:" + lessonID }

// Register stores t under key, cancelling any task already registered under
// the same key. On a closed store t is cancelled immediately and Register
// returns false.
func (s *Store) Register(key string, t Cancellable) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		t.Cancel()
		return false
	}
	prev := s.tasks[key]
	s.tasks[key] = t
	s.mu.Unlock()

	if prev != nil && prev != t {
		prev.Cancel()
	}
	return true
}

// Unregister removes t from key if it is still the registered task. Loops
// call this on exit so a replacement task is never dropped.
func (s *Store) Unregister(key string, t Cancellable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks[key] == t {
		delete(s.tasks, key)
	}
}

// CancelTask cancels and removes the task under key, if any.
func (s *Store) CancelTask(key string) {
	s.mu.Lock()
	t := s.tasks[key]
	delete(s.tasks, key)
	s.mu.Unlock()

	if t != nil {
		t.Cancel()
	}
}

// CancelAll cancels and removes every registered task.
func (s *Store) CancelAll() {
	s.mu.Lock()
	tasks := s.takeTasksLocked()
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
}

// HasTask reports whether a task is registered under key.
func (s *Store) HasTask(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// TaskKeys returns the sorted keys of all registered tasks.
func (s *Store) TaskKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.tasks))
}

func (s *Store) takeTasksLocked() []Cancellable {
	tasks := slices.Collect(maps.Values(s.tasks))
	s.tasks = make(map[string]Cancellable)
	return tasks
}
