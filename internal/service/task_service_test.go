package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/events"
	"github.com/phrazzld/tasktrack-api/internal/mocks"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingHandler captures emitted events.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.TaskEvent
	err    error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) Events() []*events.TaskEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*events.TaskEvent(nil), h.events...)
}

// newTxDB returns a sqlmock database used only for BEGIN/COMMIT/ROLLBACK.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

type taskFixture struct {
	svc     service.TaskService
	store   *mocks.InMemoryTaskStore
	db      sqlmock.Sqlmock
	clock   *testClock
	handler *recordingHandler
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	log, _ := logger.NewTestLogger(t)
	db, mock := newTxDB(t)
	taskStore := mocks.NewInMemoryTaskStore()
	clock := newTestClock()
	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(handler)

	svc, err := service.NewTaskService(taskStore, db, emitter, log, service.WithClock(clock.Now))
	require.NoError(t, err)

	return &taskFixture{svc: svc, store: taskStore, db: mock, clock: clock, handler: handler}
}

// create commits a task through the service and advances the clock a minute.
func (f *taskFixture) create(t *testing.T, owner uuid.UUID, input service.CreateTaskInput) *domain.Task {
	t.Helper()
	f.db.ExpectBegin()
	f.db.ExpectCommit()
	task, err := f.svc.CreateTask(context.Background(), owner, input)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return task
}

func TestNewTaskService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	db, _ := newTxDB(t)
	emitter := events.NewInMemoryEventEmitter(nil)

	_, err := service.NewTaskService(nil, db, emitter, nil)
	assert.Error(t, err)

	_, err = service.NewTaskService(mocks.NewInMemoryTaskStore(), nil, emitter, nil)
	assert.Error(t, err)

	_, err = service.NewTaskService(mocks.NewInMemoryTaskStore(), db, nil, nil)
	assert.Error(t, err)
}

func TestTaskService_CreateTask(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	now := f.clock.Now()

	task := f.create(t, owner, service.CreateTaskInput{
		Title:       "Write report",
		Description: ptr("quarterly numbers"),
		Deadline:    "2025-03-05T17:00:00Z",
	})

	assert.Equal(t, owner, task.UserID)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.TaskPriorityMedium, task.Priority, "empty priority defaults to medium")
	assert.Equal(t, now, task.CreatedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	assert.Equal(t, time.Date(2025, 3, 5, 17, 0, 0, 0, time.UTC), task.Deadline)

	stored, ok := f.store.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, *task, *stored)

	emitted := f.handler.Events()
	require.Len(t, emitted, 1)
	assert.Equal(t, events.TaskCreated, emitted[0].Type)

	var payload events.TaskPayload
	require.NoError(t, emitted[0].UnmarshalPayload(&payload))
	assert.Equal(t, task.ID, payload.TaskID)
	assert.Equal(t, owner, payload.UserID)
	assert.Equal(t, "Write report", payload.Title)
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input service.CreateTaskInput
	}{
		{name: "empty title", input: service.CreateTaskInput{Title: "", Deadline: "2025-03-05"}},
		{name: "whitespace title", input: service.CreateTaskInput{Title: "  \t", Deadline: "2025-03-05"}},
		{name: "missing deadline", input: service.CreateTaskInput{Title: "x"}},
		{name: "unparsable deadline", input: service.CreateTaskInput{Title: "x", Deadline: "next friday"}},
		{name: "unknown priority", input: service.CreateTaskInput{Title: "x", Deadline: "2025-03-05", Priority: "urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture(t)
			task, err := f.svc.CreateTask(context.Background(), uuid.New(), tt.input)
			assert.Nil(t, task)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, f.store.Len())
			assert.Empty(t, f.handler.Events())
		})
	}
}

func TestTaskService_CreateTask_HandlerFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	f.handler.err = errors.New("smtp down")

	task := f.create(t, uuid.New(), service.CreateTaskInput{Title: "x", Deadline: "2025-03-05"})
	assert.NotNil(t, task)
	assert.Equal(t, 1, f.store.Len())
}

func TestTaskService_CreateTask_StoreFailure(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	storeErr := errors.New("connection reset")
	f.store.Err = storeErr
	f.db.ExpectBegin()
	f.db.ExpectRollback()

	task, err := f.svc.CreateTask(context.Background(), uuid.New(), service.CreateTaskInput{Title: "x", Deadline: "2025-03-05"})
	assert.Nil(t, task)
	assert.ErrorIs(t, err, storeErr)

	var serviceErr *service.ServiceError
	assert.ErrorAs(t, err, &serviceErr)
	assert.Empty(t, f.handler.Events(), "no event for an uncommitted task")
}

func TestTaskService_ListTasks(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	other := uuid.New()

	first := f.create(t, owner, service.CreateTaskInput{Title: "first", Deadline: "2025-04-01", Priority: "high"})
	second := f.create(t, owner, service.CreateTaskInput{Title: "second", Deadline: "2025-04-01", Priority: "low"})
	third := f.create(t, owner, service.CreateTaskInput{Title: "third", Deadline: "2025-04-01", Priority: "high"})
	f.create(t, other, service.CreateTaskInput{Title: "not mine", Deadline: "2025-04-01", Priority: "high"})

	f.db.ExpectBegin()
	f.db.ExpectCommit()
	_, err := f.svc.UpdateTask(context.Background(), owner, third.ID, service.UpdateTaskInput{Status: ptr("completed")})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("all newest first", func(t *testing.T) {
		tasks, err := f.svc.ListTasks(ctx, owner, service.TaskFilterInput{})
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, ids(tasks))
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		tasks, err := f.svc.ListTasks(ctx, owner, service.TaskFilterInput{
			Status:   ptr("pending"),
			Priority: ptr("high"),
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first.ID}, ids(tasks))
	})

	t.Run("date bounds are inclusive", func(t *testing.T) {
		from := second.CreatedAt.Format(time.RFC3339Nano)
		tasks, err := f.svc.ListTasks(ctx, owner, service.TaskFilterInput{DateFrom: &from, DateTo: &from})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{second.ID}, ids(tasks))
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		tasks, err := f.svc.ListTasks(ctx, uuid.New(), service.TaskFilterInput{})
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	t.Run("invalid filters", func(t *testing.T) {
		for _, input := range []service.TaskFilterInput{
			{Status: ptr("done")},
			{Status: ptr("")},
			{Priority: ptr("urgent")},
			{Priority: ptr("")},
			{DateFrom: ptr("yesterday")},
			{DateTo: ptr("2025-02-30")},
		} {
			tasks, err := f.svc.ListTasks(ctx, owner, input)
			assert.Nil(t, tasks)
			assert.ErrorIs(t, err, domain.ErrValidation)
		}
	})
}

func ids(tasks []*domain.Task) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestTaskService_ListTasks_IntegrityFailure(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	f.store.Seed(&domain.Task{
		ID: uuid.New(), UserID: owner, Title: "x", Deadline: f.clock.Now(),
		Priority: domain.TaskPriorityLow, Status: "archived",
		CreatedAt: f.clock.Now(), UpdatedAt: f.clock.Now(),
	})

	_, err := f.svc.ListTasks(context.Background(), owner, service.TaskFilterInput{})
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestTaskService_UpdateTask_StatusOnly(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	original := f.create(t, owner, service.CreateTaskInput{
		Title:       "Write report",
		Description: ptr("draft"),
		Deadline:    "2025-03-05T17:00:00Z",
		Priority:    "high",
	})

	f.db.ExpectBegin()
	f.db.ExpectCommit()
	updated, err := f.svc.UpdateTask(context.Background(), owner, original.ID, service.UpdateTaskInput{
		Status: ptr("in_progress"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
	assert.Equal(t, original.Title, updated.Title)
	assert.Equal(t, original.Description, updated.Description)
	assert.Equal(t, original.Deadline, updated.Deadline)
	assert.Equal(t, original.Priority, updated.Priority)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))

	stored, _ := f.store.Get(original.ID)
	assert.Equal(t, *updated, *stored)
}

func TestTaskService_UpdateTask_Description(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	task := f.create(t, owner, service.CreateTaskInput{
		Title:       "Write report",
		Description: ptr("keep me?"),
		Deadline:    "2025-03-05T17:00:00Z",
	})

	f.db.ExpectBegin()
	f.db.ExpectCommit()
	updated, err := f.svc.UpdateTask(context.Background(), owner, task.ID, service.UpdateTaskInput{
		Title: ptr("Write final report"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Description, "absent description is left alone")
	assert.Equal(t, "keep me?", *updated.Description)

	f.db.ExpectBegin()
	f.db.ExpectCommit()
	updated, err = f.svc.UpdateTask(context.Background(), owner, task.ID, service.UpdateTaskInput{
		Description: domain.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Description, "explicit null clears the description")
	assert.Equal(t, "Write final report", updated.Title)

	stored, _ := f.store.Get(task.ID)
	assert.Nil(t, stored.Description)

	f.db.ExpectBegin()
	f.db.ExpectCommit()
	updated, err = f.svc.UpdateTask(context.Background(), owner, task.ID, service.UpdateTaskInput{
		Description: domain.Some("rewritten"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "rewritten", *updated.Description)
}

func TestTaskService_UpdateTask_EmptyPatchRefreshesUpdatedAt(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	original := f.create(t, owner, service.CreateTaskInput{Title: "x", Deadline: "2025-03-05"})

	f.db.ExpectBegin()
	f.db.ExpectCommit()
	updated, err := f.svc.UpdateTask(context.Background(), owner, original.ID, service.UpdateTaskInput{})
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), updated.UpdatedAt)
	assert.False(t, updated.UpdatedAt.Before(original.UpdatedAt))
}

func TestTaskService_UpdateTask_OtherOwner(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	task := f.create(t, owner, service.CreateTaskInput{Title: "x", Deadline: "2025-03-05"})

	f.db.ExpectBegin()
	f.db.ExpectRollback()
	updated, err := f.svc.UpdateTask(context.Background(), uuid.New(), task.ID, service.UpdateTaskInput{Title: ptr("hijacked")})
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, service.ErrTaskNotFound)

	stored, _ := f.store.Get(task.ID)
	assert.Equal(t, "x", stored.Title)
}

func TestTaskService_UpdateTask_Missing(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	f.db.ExpectBegin()
	f.db.ExpectRollback()

	_, err := f.svc.UpdateTask(context.Background(), uuid.New(), uuid.New(), service.UpdateTaskInput{})
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
}

func TestTaskService_UpdateTask_Validation(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	task := f.create(t, owner, service.CreateTaskInput{Title: "x", Deadline: "2025-03-05"})

	t.Run("rejected before the transaction", func(t *testing.T) {
		for _, input := range []service.UpdateTaskInput{
			{Deadline: ptr("soon")},
			{Priority: ptr("")},
			{Priority: ptr("urgent")},
			{Status: ptr("done")},
		} {
			_, err := f.svc.UpdateTask(context.Background(), owner, task.ID, input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		}
	})

	t.Run("empty title rolls back", func(t *testing.T) {
		f.db.ExpectBegin()
		f.db.ExpectRollback()
		_, err := f.svc.UpdateTask(context.Background(), owner, task.ID, service.UpdateTaskInput{Title: ptr(" ")})
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
	})

	stored, _ := f.store.Get(task.ID)
	assert.Equal(t, *task, *stored)
}

func TestTaskService_DeleteTask(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	owner := uuid.New()
	task := f.create(t, owner, service.CreateTaskInput{Title: "x", Deadline: "2025-03-05"})
	ctx := context.Background()

	err := f.svc.DeleteTask(ctx, uuid.New(), task.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotFound, "other users cannot delete")
	assert.Equal(t, 1, f.store.Len())

	require.NoError(t, f.svc.DeleteTask(ctx, owner, task.ID))
	assert.Zero(t, f.store.Len())

	err = f.svc.DeleteTask(ctx, owner, task.ID)
	assert.ErrorIs(t, err, service.ErrTaskNotFound, "second delete reports not found")
}

func TestTaskService_DeleteTask_StoreFailure(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	f.store.Err = errors.New("connection reset")

	err := f.svc.DeleteTask(context.Background(), uuid.New(), uuid.New())
	assert.NotErrorIs(t, err, service.ErrTaskNotFound)

	var serviceErr *service.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "delete", serviceErr.Op)
}
