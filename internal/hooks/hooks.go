// Package hooks provides an event bus for engagement and gateway lifecycle
// events. Lead capture and operational integrations subscribe here.
package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/concierge/internal/logging"
)

// Event names emitted by engagement controllers and the gateway.
const (
	EventSessionStart      = "session_start"
	EventSessionEnd        = "session_end"
	EventSessionReset      = "session_reset"
	EventContextChanged    = "context_changed"
	EventTeaserShown       = "teaser_shown"
	EventProactiveFired    = "proactive_fired"
	EventMessageReceived   = "message_received"
	EventReplySent         = "reply_sent"
	EventReplyFailed       = "reply_failed"
	EventScheduleRequested = "schedule_requested"
	EventGatewayStart      = "gateway_start"
	EventGatewayStop       = "gateway_stop"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventSessionStart,
	EventSessionEnd,
	EventSessionReset,
	EventContextChanged,
	EventTeaserShown,
	EventProactiveFired,
	EventMessageReceived,
	EventReplySent,
	EventReplyFailed,
	EventScheduleRequested,
	EventGatewayStart,
	EventGatewayStop,
}

// Payload carries event data to hook handlers. Session is the id of the
// engagement controller that raised the event, empty for gateway events.
type Payload struct {
	Event   string         `json:"event"`
	Session string         `json:"session,omitempty"`
	At      time.Time      `json:"at"`
	Data    map[string]any `json:"data,omitempty"`
}

// String returns Data[key] as a string, or "" when absent.
func (p Payload) String(key string) string {
	s, _ := p.Data[key].(string)
	return s
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	now      func() time.Time
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		now:      time.Now,
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and for Off.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := m.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	m.handlers[event] = filtered
}

// Emit dispatches an event to all registered handlers synchronously, in
// registration order. Errors are logged and do not stop later handlers.
func (m *Manager) Emit(ctx context.Context, event, session string, data map[string]any) {
	handlers, payload, ok := m.prepare(event, session, data)
	if !ok {
		return
	}
	for _, h := range handlers {
		m.run(ctx, h, payload, "hook handler error")
	}
}

// EmitAsync dispatches an event to all registered handlers concurrently.
// Returns immediately; handler errors are logged.
func (m *Manager) EmitAsync(ctx context.Context, event, session string, data map[string]any) {
	handlers, payload, ok := m.prepare(event, session, data)
	if !ok {
		return
	}
	for _, h := range handlers {
		go m.run(ctx, h, payload, "async hook handler error")
	}
}

func (m *Manager) prepare(event, session string, data map[string]any) ([]namedHandler, Payload, bool) {
	m.mu.RLock()
	handlers := make([]namedHandler, len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return nil, Payload{}, false
	}
	return handlers, Payload{Event: event, Session: session, At: m.now(), Data: data}, true
}

func (m *Manager) run(ctx context.Context, h namedHandler, p Payload, msg string) {
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("session", p.Session).
			Str("handler", h.name).
			Msg(msg)
	}
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the list of events that have at least one handler registered.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]string, 0, len(m.handlers))
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	return events
}
