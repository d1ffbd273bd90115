package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// TaskFilter narrows a task listing. Nil fields are ignored; present fields
// combine with AND. CreatedFrom and CreatedTo are inclusive bounds on
// created_at.
type TaskFilter struct {
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TaskStore defines the interface for task data persistence.
//
// Every method that addresses a single task takes the owner's id as well as
// the task id. A task owned by someone else is reported exactly like a task
// that does not exist: ErrTaskNotFound.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// List returns the owner's tasks matching filter, newest first
	// (created_at DESC, id DESC). The result is never nil.
	List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*domain.Task, error)

	// GetForUpdate retrieves one of the owner's tasks and locks its row for
	// the rest of the transaction.
	GetForUpdate(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)

	// Update persists every mutable field of task.
	Update(ctx context.Context, ownerID uuid.UUID, task *domain.Task) error

	// Delete removes one of the owner's tasks permanently.
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) error

	// ListStatsRows returns the raw (status, priority) pair of each of the
	// owner's tasks without interpreting them.
	ListStatsRows(ctx context.Context, ownerID uuid.UUID) ([]domain.TaskClassification, error)

	// FindDueForReminder returns every user's non-completed tasks with
	// after < deadline <= until, ordered by deadline.
	FindDueForReminder(ctx context.Context, after, until time.Time) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
