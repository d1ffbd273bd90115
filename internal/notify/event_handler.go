package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TaskEventHandler emails the owner of a task when a lifecycle event occurs.
type TaskEventHandler struct {
	users      store.UserStore
	dispatcher *Dispatcher
	logger     *slog.Logger
}

var _ events.EventHandler = (*TaskEventHandler)(nil)

// NewTaskEventHandler creates a TaskEventHandler.
func NewTaskEventHandler(users store.UserStore, dispatcher *Dispatcher, logger *slog.Logger) *TaskEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskEventHandler{
		users:      users,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "task_event_handler")),
	}
}

// actions maps event types to the verb used in the email.
var actions = map[string]string{
	events.TaskCreated: "created",
}

// HandleEvent implements events.EventHandler. Unknown event types are ignored.
func (h *TaskEventHandler) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	action, ok := actions[event.Type]
	if !ok {
		h.logger.Debug("ignoring event", slog.String("event_type", event.Type))
		return nil
	}

	var payload events.TaskPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}

	user, err := h.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up task owner: %w", err)
	}

	msg, err := TaskActivity(user.Email, payload.Title, action)
	if err != nil {
		return err
	}

	if err := h.dispatcher.Dispatch(msg); err != nil {
		return fmt.Errorf("failed to queue %s notification: %w", action, err)
	}

	h.logger.Debug("queued task notification",
		slog.String("event_type", event.Type),
		slog.String("task_id", payload.TaskID.String()))
	return nil
}
