package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// CreateTaskInput is the unparsed input of CreateTask.
type CreateTaskInput struct {
	Title       string
	Description *string
	Deadline    string
	// Priority may be empty, meaning medium.
	Priority string
}

// TaskFilterInput is the unparsed input of ListTasks. Nil fields are not
// filtered on.
type TaskFilterInput struct {
	Status   *string
	Priority *string
	DateFrom *string
	DateTo   *string
}

// UpdateTaskInput is the unparsed input of UpdateTask. Nil fields are left
// unchanged; a Description that is Set with a nil Value clears it.
type UpdateTaskInput struct {
	Title       *string
	Description domain.Optional[string]
	Deadline    *string
	Priority    *string
	Status      *string
}

// TaskService manages a user's tasks. Every method is scoped to ownerID; a
// task owned by anyone else behaves as if it did not exist.
type TaskService interface {
	CreateTask(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error)
	ListTasks(ctx context.Context, ownerID uuid.UUID, input TaskFilterInput) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, input UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error
}

// TaskServiceOption configures optional TaskService behavior.
type TaskServiceOption func(*taskServiceImpl)

// WithClock replaces the clock used for created_at and updated_at.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.now = func() time.Time { return domain.Normalize(now()) }
	}
}

type taskServiceImpl struct {
	tasks        store.TaskStore
	db           store.TxBeginner
	eventEmitter events.EventEmitter
	now          func() time.Time
	logger       *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	db store.TxBeginner,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	switch {
	case tasks == nil:
		return nil, NewServiceError("task", "create_service", errors.New("task store cannot be nil"))
	case db == nil:
		return nil, NewServiceError("task", "create_service", errors.New("db cannot be nil"))
	case eventEmitter == nil:
		return nil, NewServiceError("task", "create_service", errors.New("event emitter cannot be nil"))
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		tasks:        tasks,
		db:           db,
		eventEmitter: eventEmitter,
		now:          domain.Now,
		logger:       logger.With(slog.String("component", "task_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateTask implements TaskService.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deadline, err := domain.ParseTimestamp("deadline", input.Deadline)
	if err != nil {
		return nil, err
	}
	priority, err := domain.ParseTaskPriority(input.Priority)
	if err != nil {
		return nil, err
	}

	task, err := domain.NewTask(ownerID, input.Title, input.Description, deadline, priority, s.now())
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.tasks.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, NewServiceError("task", "create", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", ownerID.String()))

	s.emit(ctx, events.TaskCreated, task)

	return task, nil
}

// emit publishes a lifecycle event. Failures are logged only; the change
// that caused the event is already committed.
func (s *taskServiceImpl) emit(ctx context.Context, eventType string, task *domain.Task) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewTaskEvent(eventType, events.TaskPayload{
		TaskID:   task.ID,
		UserID:   task.UserID,
		Title:    task.Title,
		Deadline: task.Deadline,
	})
	if err != nil {
		log.Error("failed to build task event",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType))
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Warn("task event handler failed",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType),
			slog.String("task_id", task.ID.String()))
	}
}

// ListTasks implements TaskService.
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	ownerID uuid.UUID,
	input TaskFilterInput,
) ([]*domain.Task, error) {
	filter, err := parseFilter(input)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, ownerID, filter)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, NewServiceError("task", "list", err)
	}
	return tasks, nil
}

func parseFilter(input TaskFilterInput) (store.TaskFilter, error) {
	var filter store.TaskFilter

	if input.Status != nil {
		status, err := domain.ParseTaskStatus(*input.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if input.Priority != nil {
		priority, err := parseRequiredPriority(*input.Priority)
		if err != nil {
			return filter, err
		}
		filter.Priority = &priority
	}
	if input.DateFrom != nil {
		from, err := domain.ParseTimestamp("date_from", *input.DateFrom)
		if err != nil {
			return filter, err
		}
		filter.CreatedFrom = &from
	}
	if input.DateTo != nil {
		to, err := domain.ParseTimestamp("date_to", *input.DateTo)
		if err != nil {
			return filter, err
		}
		filter.CreatedTo = &to
	}

	return filter, nil
}

// parseRequiredPriority rejects the empty string, which ParseTaskPriority
// treats as "use the default".
func parseRequiredPriority(s string) (domain.TaskPriority, error) {
	if s == "" {
		return "", domain.ErrInvalidPriority
	}
	return domain.ParseTaskPriority(s)
}

// UpdateTask implements TaskService.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	input UpdateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	patch, err := parsePatch(input)
	if err != nil {
		return nil, err
	}

	var updated *domain.Task
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		current, err := txTasks.GetForUpdate(ctx, ownerID, taskID)
		if err != nil {
			return err
		}

		updated, err = patch.Apply(*current, s.now())
		if err != nil {
			return err
		}

		return txTasks.Update(ctx, ownerID, updated)
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTaskNotFound):
			log.Debug("task not found for update",
				slog.String("task_id", taskID.String()),
				slog.String("user_id", ownerID.String()))
			return nil, ErrTaskNotFound
		case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
			return nil, err
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("user_id", ownerID.String()))
		return nil, NewServiceError("task", "update", err)
	}

	log.Info("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", ownerID.String()))

	return updated, nil
}

func parsePatch(input UpdateTaskInput) (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       input.Title,
		Description: input.Description,
	}

	if input.Deadline != nil {
		deadline, err := domain.ParseTimestamp("deadline", *input.Deadline)
		if err != nil {
			return patch, err
		}
		patch.Deadline = &deadline
	}
	if input.Priority != nil {
		priority, err := parseRequiredPriority(*input.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}
	if input.Status != nil {
		status, err := domain.ParseTaskStatus(*input.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}

	return patch, nil
}

// DeleteTask implements TaskService.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.tasks.Delete(ctx, ownerID, taskID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			log.Debug("task not found for delete",
				slog.String("task_id", taskID.String()),
				slog.String("user_id", ownerID.String()))
			return ErrTaskNotFound
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("user_id", ownerID.String()))
		return NewServiceError("task", "delete", err)
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", ownerID.String()))
	return nil
}
