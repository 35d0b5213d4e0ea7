package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "session.updated", "poll.stopped")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Event type identifiers.
const (
	TypeSessionUpdated        = "session.updated"
	TypeStepChanged           = "step.changed"
	TypePollStarted           = "poll.started"
	TypePollStopped           = "poll.stopped"
	TypePresentationCompleted = "presentation.completed"
	TypePresentationFailed    = "presentation.failed"
	TypeVideoCompleted        = "video.completed"
	TypeVideoFailed           = "video.failed"
	TypeConfirmStateChanged   = "confirm.state_changed"
	TypeNotification          = "notification"
)

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// SessionUpdatedEvent is emitted after the store applies a new session snapshot.
type SessionUpdatedEvent struct {
	baseEvent
	SessionID string
	Step      string
	Status    string
	Epoch     uint64 // token of the response that was applied
}

// NewSessionUpdatedEvent creates a SessionUpdatedEvent.
func NewSessionUpdatedEvent(sessionID, step, status string, epoch uint64) SessionUpdatedEvent {
	return SessionUpdatedEvent{
		baseEvent: newBaseEvent(TypeSessionUpdated),
		SessionID: sessionID,
		Step:      step,
		Status:    status,
		Epoch:     epoch,
	}
}

// StepChangedEvent is emitted when an applied snapshot moves the session to a
// different step. From is empty for the first snapshot of a session.
type StepChangedEvent struct {
	baseEvent
	SessionID string
	From      string
	To        string
}

// NewStepChangedEvent creates a StepChangedEvent.
func NewStepChangedEvent(sessionID, from, to string) StepChangedEvent {
	return StepChangedEvent{
		baseEvent: newBaseEvent(TypeStepChanged),
		SessionID: sessionID,
		From:      from,
		To:        to,
	}
}

// -----------------------------------------------------------------------------
// Poll Events
// -----------------------------------------------------------------------------

// PollStartedEvent is emitted when a poll loop starts.
type PollStartedEvent struct {
	baseEvent
	Key      string // "session", "presentation:<lesson>", "video:<lesson>"
	Interval time.Duration
}

// NewPollStartedEvent creates a PollStartedEvent.
func NewPollStartedEvent(key string, interval time.Duration) PollStartedEvent {
	return PollStartedEvent{
		baseEvent: newBaseEvent(TypePollStarted),
		Key:       key,
		Interval:  interval,
	}
}

// Reasons a poll loop stops.
const (
	StopReasonSettled  = "settled"
	StopReasonError    = "error"
	StopReasonCanceled = "canceled"
)

// PollStoppedEvent is emitted when a poll loop exits.
type PollStoppedEvent struct {
	baseEvent
	Key    string
	Reason string
	Cycles int
}

// NewPollStoppedEvent creates a PollStoppedEvent.
func NewPollStoppedEvent(key, reason string, cycles int) PollStoppedEvent {
	return PollStoppedEvent{
		baseEvent: newBaseEvent(TypePollStopped),
		Key:       key,
		Reason:    reason,
		Cycles:    cycles,
	}
}

// GenerationFinishedEvent is emitted when a lesson's presentation or video
// sub-process settles.
type GenerationFinishedEvent struct {
	baseEvent
	Kind     string // "presentation" or "video"
	LessonID string
	Title    string
	Success  bool
}

// NewGenerationFinishedEvent creates a GenerationFinishedEvent typed
// "<kind>.completed" or "<kind>.failed".
func NewGenerationFinishedEvent(kind, lessonID, title string, success bool) GenerationFinishedEvent {
	action := ".failed"
	if success {
		action = ".completed"
	}
	return GenerationFinishedEvent{
		baseEvent: newBaseEvent(kind + action),
		Kind:      kind,
		LessonID:  lessonID,
		Title:     title,
		Success:   success,
	}
}

// -----------------------------------------------------------------------------
// Confirmation Events
// -----------------------------------------------------------------------------

// ConfirmStateChangedEvent is emitted on every confirmation gate transition.
type ConfirmStateChangedEvent struct {
	baseEvent
	Gate   string
	ItemID string
	From   string
	To     string
}

// NewConfirmStateChangedEvent creates a ConfirmStateChangedEvent.
func NewConfirmStateChangedEvent(gate, itemID, from, to string) ConfirmStateChangedEvent {
	return ConfirmStateChangedEvent{
		baseEvent: newBaseEvent(TypeConfirmStateChanged),
		Gate:      gate,
		ItemID:    itemID,
		From:      from,
		To:        to,
	}
}

// -----------------------------------------------------------------------------
// Notifications
// -----------------------------------------------------------------------------

// Level is the severity of a user notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// NotificationEvent carries a user-visible message. Detail holds the
// service's message verbatim for failures.
type NotificationEvent struct {
	baseEvent
	Level   Level
	Summary string
	Detail  string
}

// NewNotificationEvent creates a NotificationEvent.
func NewNotificationEvent(level Level, summary, detail string) NotificationEvent {
	return NotificationEvent{
		baseEvent: newBaseEvent(TypeNotification),
		Level:     level,
		Summary:   summary,
		Detail:    detail,
	}
}
