package poll

import (
	"context"
	"sync"
)

// Task is one running poll loop. It satisfies store.Cancellable.
type Task struct {
	key    string
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func newTask(key string, cancel context.CancelFunc) *Task {
	return &Task{key: key, cancel: cancel, done: make(chan struct{})}
}

// Key returns the registry key of the loop.
func (t *Task) Key() string { return t.key }

// Cancel stops the loop. It may be called any number of times from any
// goroutine.
func (t *Task) Cancel() {
	t.once.Do(t.cancel)
}

// Done is closed once the loop goroutine has exited.
func (t *Task) Done() <-chan struct{} { return t.done }
