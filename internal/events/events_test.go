package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	type modulePayload struct {
		Symbol string `json:"symbol"`
		Error  string `json:"error"`
	}

	runID := uuid.New()
	payload := modulePayload{Symbol: "Clock", Error: "status 404"}

	event, err := NewEvent(TypeModuleFailed, runID, payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeModuleFailed, event.Type)
	assert.Equal(t, runID, event.RunID)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded modulePayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_NilPayload(t *testing.T) {
	event, err := NewEvent(TypeBootstrapStarted, uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, event.Payload)
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent(TypeBootstrapStarted, uuid.New(), make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestHandlerFunc(t *testing.T) {
	var got *Event
	h := HandlerFunc(func(ctx context.Context, event *Event) error {
		got = event
		return nil
	})

	event, err := NewEvent(TypeBootstrapCompleted, uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Same(t, event, got)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(2)
	runID := uuid.New()

	for _, typ := range []string{TypeBootstrapStarted, TypeModuleFailed, TypeBootstrapCompleted} {
		event, err := NewEvent(typ, runID, nil)
		require.NoError(t, err)
		require.NoError(t, r.HandleEvent(context.Background(), event))
	}

	assert.Equal(t, []string{TypeModuleFailed, TypeBootstrapCompleted}, r.Types())
	assert.Len(t, r.Events(), 2)

	unbounded := NewRecorder(0)
	for i := 0; i < 5; i++ {
		event, err := NewEvent(TypeBootstrapStarted, runID, nil)
		require.NoError(t, err)
		require.NoError(t, unbounded.HandleEvent(context.Background(), event))
	}
	assert.Len(t, unbounded.Events(), 5)
}
