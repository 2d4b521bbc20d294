package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Bootstrap lifecycle event types.
const (
	TypeBootstrapStarted   = "bootstrap.started"
	TypeBootstrapCompleted = "bootstrap.completed"
	TypeBootstrapAborted   = "bootstrap.aborted"
	TypeModuleFailed       = "module.failed"
	TypeSessionRecovered   = "session.recovered"
)

// Event is a lifecycle notification published during a bootstrap run.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// RunID identifies the bootstrap run that produced the event
	RunID uuid.UUID `json:"run_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of eventType for the given run.
func NewEvent(eventType string, runID uuid.UUID, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = payloadBytes
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		RunID:     runID,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the orchestrator to publish lifecycle changes without knowing
// who listens.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
