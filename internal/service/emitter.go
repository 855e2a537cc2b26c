package service

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Events emitted by the service layer.
const (
	EventSectionUpdated   = "section:updated"
	EventSectionsChanged  = "sections:changed"
	EventMetaUpdated      = "meta:updated"
	EventReportReplaced   = "report:replaced"
	EventCheckpointSaved  = "checkpoint:saved"
	EventEditorRefused    = "editor:refused"
	EventEditorError      = "editor:error"
	EventDragStateChanged = "drag:state"
)

// EventEmitter notifies the surrounding surface (MCP client, CLI, tests)
// of document changes. Services receive this interface, which makes them
// independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to a logger at debug level.
type LogEmitter struct {
	Logger *log.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	logger := e.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Debug("event", "name", event, "data", data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events with the given name.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
