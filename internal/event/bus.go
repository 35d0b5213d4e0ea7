package event

import (
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
)

// Handler is a function that handles an event.
type Handler func(Event)

// subscription represents a registered event handler.
type subscription struct {
	id        string
	eventType string
	handler   Handler
}

// Bus is a simple synchronous pub-sub event bus.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
	logger        *slog.Logger
}

// NewBus creates a new event bus. Handler panics are reported through
// slog.Default until SetLogger is called.
func NewBus() *Bus {
	return &Bus{
		subscriptions: make(map[string][]subscription),
	}
}

// SetLogger sets the logger used to report recovered handler panics.
func (b *Bus) SetLogger(l *slog.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = l
}

// Subscribe registers a handler for a specific event type.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.generateID()
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{
		id:        id,
		eventType: eventType,
		handler:   handler,
	})
	return id
}

// SubscribeAll registers a handler for all event types.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe("*", handler)
}

// SubscribeTo registers a handler that only receives events of type T
// published under eventType.
func SubscribeTo[T Event](b *Bus, eventType string, handler func(T)) string {
	return b.Subscribe(eventType, func(e Event) {
		if typed, ok := e.(T); ok {
			handler(typed)
		}
	})
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[eventType] = append(subs[:i:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Publish dispatches an event to all registered handlers.
// Specific handlers are called first, followed by wildcard handlers, each
// group in registration order. Publishing on a nil bus is a no-op.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	eventType := event.EventType()
	specificSubs := append([]subscription(nil), b.subscriptions[eventType]...)
	wildcardSubs := append([]subscription(nil), b.subscriptions["*"]...)
	logger := b.logger
	b.mu.RUnlock()

	for _, sub := range specificSubs {
		safeCall(logger, sub.handler, event)
	}
	for _, sub := range wildcardSubs {
		safeCall(logger, sub.handler, event)
	}
}

// safeCall invokes a handler and recovers from any panics.
func safeCall(logger *slog.Logger, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("event handler panicked",
				"event_type", event.EventType(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	handler(event)
}

func (b *Bus) generateID() string {
	return "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string][]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
