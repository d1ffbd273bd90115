package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskPriority is the importance of a task.
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task validation errors. Each wraps ErrValidation.
var (
	ErrEmptyTaskTitle    = NewValidationError("title", "cannot be empty", nil)
	ErrEmptyTaskOwner    = NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	ErrEmptyTaskDeadline = NewValidationError("deadline", "is required", nil)
	ErrInvalidStatus     = NewValidationError("status", "must be one of pending, in_progress, completed", nil)
	ErrInvalidPriority   = NewValidationError("priority", "must be one of low, medium, high", nil)
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// ParseTaskStatus parses client input. Unknown values are validation errors.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// ParseTaskPriority parses client input. An empty string yields the default
// priority; unknown values are validation errors.
func ParseTaskPriority(s string) (TaskPriority, error) {
	if s == "" {
		return TaskPriorityMedium, nil
	}
	priority := TaskPriority(s)
	if !priority.Valid() {
		return "", ErrInvalidPriority
	}
	return priority, nil
}

// StoredTaskStatus converts a persisted value. Unknown values are integrity errors.
func StoredTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.Valid() {
		return "", newIntegrityError("task status", s)
	}
	return status, nil
}

// StoredTaskPriority converts a persisted value. Unknown values are integrity errors.
func StoredTaskPriority(s string) (TaskPriority, error) {
	priority := TaskPriority(s)
	if !priority.Valid() {
		return "", newIntegrityError("task priority", s)
	}
	return priority, nil
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Deadline    time.Time    `json:"deadline"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTask creates a pending task for the given owner.
// CreatedAt and UpdatedAt are both set to now.
func NewTask(
	ownerID uuid.UUID,
	title string,
	description *string,
	deadline time.Time,
	priority TaskPriority,
	now time.Time,
) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Deadline:    Normalize(deadline),
		Priority:    priority,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}
	if t.Deadline.IsZero() {
		return ErrEmptyTaskDeadline
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// TaskPatch carries the optional fields of a partial update.
// A nil field is left unchanged. Description can also be cleared.
type TaskPatch struct {
	Title       *string
	Description Optional[string]
	Deadline    *time.Time
	Priority    *TaskPriority
	Status      *TaskStatus
}

// Apply returns a copy of t with every present patch field applied and
// UpdatedAt set to now, even when no field changes value.
func (p TaskPatch) Apply(t Task, now time.Time) (*Task, error) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description.Set {
		if p.Description.Value == nil {
			t.Description = nil
		} else {
			description := *p.Description.Value
			t.Description = &description
		}
	}
	if p.Deadline != nil {
		t.Deadline = Normalize(*p.Deadline)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}

	// Never move backwards, even if the wall clock did.
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
