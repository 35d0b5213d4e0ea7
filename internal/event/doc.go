// Package event provides the notify-on-change mechanism of coursegen: a
// synchronous pub-sub bus and the workflow event types published on it.
//
// The session store publishes [SessionUpdatedEvent] and [StepChangedEvent]
// after every applied snapshot, the poll scheduler publishes lifecycle and
// sub-process completion events, and the orchestrator publishes
// [NotificationEvent] for every user-visible success or failure. Front ends
// (the CLI and the watch TUI) subscribe to these instead of inspecting the
// orchestrator directly.
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Poll loops publish from their own
// goroutines, so handlers must not assume they run on any particular
// goroutine. A panicking handler is recovered and logged.
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - session.updated, step.changed
//   - poll.started, poll.stopped
//   - presentation.completed, presentation.failed
//   - video.completed, video.failed
//   - confirm.state_changed
//   - notification
package event
