package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskEvent(t *testing.T) {
	payload := TaskPayload{
		TaskID:   uuid.New(),
		UserID:   uuid.New(),
		Title:    "Write report",
		Deadline: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
	}

	event, err := NewTaskEvent(TaskCreated, payload)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TaskCreated, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded TaskPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload.TaskID, decoded.TaskID)
	assert.Equal(t, payload.UserID, decoded.UserID)
	assert.Equal(t, payload.Title, decoded.Title)
	assert.True(t, payload.Deadline.Equal(decoded.Deadline))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &raw))
	assert.Contains(t, raw, "task_id")
}

func TestNewTaskEvent_UnencodablePayload(t *testing.T) {
	_, err := NewTaskEvent(TaskCreated, make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *TaskEvent
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestEventHandler(t *testing.T) {
	handler := &MockEventHandler{}

	event, err := NewTaskEvent(TaskCreated, TaskPayload{TaskID: uuid.New()})
	require.NoError(t, err)

	err = handler.HandleEvent(context.Background(), event)
	assert.NoError(t, err)
	assert.Equal(t, 1, handler.HandledCount)
	assert.Equal(t, event, handler.LastEvent)

	expectedErr := errors.New("handler error")
	handler.HandlerError = expectedErr
	err = handler.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 2, handler.HandledCount)
}
