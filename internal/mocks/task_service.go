package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/service"
)

// MockTaskService implements service.TaskService for testing
type MockTaskService struct {
	// Custom behavior functions
	CreateTaskFn func(ctx context.Context, ownerID uuid.UUID, input service.CreateTaskInput) (*domain.Task, error)
	ListTasksFn  func(ctx context.Context, ownerID uuid.UUID, input service.TaskFilterInput) ([]*domain.Task, error)
	UpdateTaskFn func(ctx context.Context, ownerID, taskID uuid.UUID, input service.UpdateTaskInput) (*domain.Task, error)
	DeleteTaskFn func(ctx context.Context, ownerID, taskID uuid.UUID) error

	// Default return values
	Task         *domain.Task
	Tasks        []*domain.Task
	DefaultError error
}

// CreateTask implements the TaskService.CreateTask method
func (m *MockTaskService) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	input service.CreateTaskInput,
) (*domain.Task, error) {
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, ownerID, input)
	}
	return m.Task, m.DefaultError
}

// ListTasks implements the TaskService.ListTasks method
func (m *MockTaskService) ListTasks(
	ctx context.Context,
	ownerID uuid.UUID,
	input service.TaskFilterInput,
) ([]*domain.Task, error) {
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx, ownerID, input)
	}
	return m.Tasks, m.DefaultError
}

// UpdateTask implements the TaskService.UpdateTask method
func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	input service.UpdateTaskInput,
) (*domain.Task, error) {
	if m.UpdateTaskFn != nil {
		return m.UpdateTaskFn(ctx, ownerID, taskID, input)
	}
	return m.Task, m.DefaultError
}

// DeleteTask implements the TaskService.DeleteTask method
func (m *MockTaskService) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, ownerID, taskID)
	}
	return m.DefaultError
}

// MockStatsService implements service.StatsService for testing
type MockStatsService struct {
	ComputeStatsFn func(ctx context.Context, ownerID uuid.UUID) (domain.TaskStats, error)

	Stats        domain.TaskStats
	DefaultError error
}

// ComputeStats implements the StatsService.ComputeStats method
func (m *MockStatsService) ComputeStats(ctx context.Context, ownerID uuid.UUID) (domain.TaskStats, error) {
	if m.ComputeStatsFn != nil {
		return m.ComputeStatsFn(ctx, ownerID)
	}
	return m.Stats, m.DefaultError
}
