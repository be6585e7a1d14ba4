// Package events distributes deck session events to registered observers.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// Event is a domain event raised by the deck builder.
type Event struct {
	// Type is the event type, e.g. "session:turn".
	Type string `json:"type"`

	// SessionID is the session the event belongs to. Empty for process-wide events.
	SessionID string `json:"session_id,omitempty"`

	// Data is one of the payload types in messages.go.
	Data any `json:"data,omitempty"`

	At time.Time `json:"at"`
}

// New creates an event stamped with the current time.
func New(eventType, sessionID string, data any) Event {
	return Event{Type: eventType, SessionID: sessionID, Data: data, At: time.Now()}
}

// Observer receives dispatched events.
type Observer interface {
	// OnEvent is called for every event ShouldHandle accepts.
	OnEvent(event Event) error

	// GetName returns a human-readable name for logging.
	GetName() string

	// ShouldHandle reports whether the observer wants events of this type.
	ShouldHandle(eventType string) bool
}

// EventDispatcher fans events out to observers. Safe for concurrent use.
type EventDispatcher struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *slog.Logger
}

// NewEventDispatcher creates a dispatcher. A nil logger uses slog.Default.
func NewEventDispatcher(logger *slog.Logger) *EventDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDispatcher{logger: logger}
}

// Register adds an observer for all future events.
func (d *EventDispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	d.logger.Debug("registered event observer", "observer", observer.GetName())
}

// Unregister removes an observer.
func (d *EventDispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			d.logger.Debug("unregistered event observer", "observer", observer.GetName())
			return
		}
	}
}

// Dispatch notifies observers in registration order. An observer error is logged
// and does not stop delivery to the rest.
func (d *EventDispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			d.logger.Warn("event observer failed",
				"observer", observer.GetName(),
				"event", event.Type,
				"error", err,
			)
		}
	}
}

// ObserverCount returns the number of registered observers.
func (d *EventDispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// GetData extracts a typed payload from an event.
func GetData[T any](event Event) (T, bool) {
	typed, ok := event.Data.(T)
	return typed, ok
}
