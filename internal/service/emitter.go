package service

import (
	"context"
	"log/slog"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter decouples services from their transport
// ─────────────────────────────────────────────────────────────

// Events emitted by the services.
const (
	EventDocumentChanged = "document:changed"
	EventDocumentDeleted = "document:deleted"
	EventDocumentsExport = "documents:exported"
)

// EventEmitter is an interface for announcing document changes. Services
// receive this interface instead of a concrete transport, which makes them
// independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
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

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}

// LogEmitter writes events to a structured logger. Used when nothing is
// listening, e.g. the headless server.
type LogEmitter struct {
	Logger *slog.Logger
}

func (l LogEmitter) Emit(ctx context.Context, event string, data any) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "event", "event", event, "data", data)
}

// ChangeEvent is the payload of EventDocumentChanged.
type ChangeEvent struct {
	DocumentID string `json:"documentId"`
	BlockID    string `json:"blockId,omitempty"`
	Op         string `json:"op"`
}
