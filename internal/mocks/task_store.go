package mocks

import (
	"bytes"
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// InMemoryTaskStore implements store.TaskStore over a map. Its filtering,
// ordering, ownership and integrity behavior mirrors the Postgres store.
type InMemoryTaskStore struct {
	// Err, when set, is returned by every method.
	Err error

	mu    sync.Mutex
	tasks map[uuid.UUID]domain.Task
}

var _ store.TaskStore = (*InMemoryTaskStore)(nil)

// NewInMemoryTaskStore creates an empty store.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[uuid.UUID]domain.Task)}
}

// Seed inserts tasks without validation, so tests can plant corrupt rows.
func (m *InMemoryTaskStore) Seed(tasks ...*domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.tasks[t.ID] = *t
	}
}

// Get returns a stored task regardless of owner.
func (m *InMemoryTaskStore) Get(id uuid.UUID) (*domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, false
	}
	return &t, true
}

// Len returns the number of stored tasks.
func (m *InMemoryTaskStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Create implements store.TaskStore.
func (m *InMemoryTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.Err != nil {
		return m.Err
	}
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", "invalid task", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	m.tasks[task.ID] = *task
	return nil
}

// List implements store.TaskStore.
func (m *InMemoryTaskStore) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.Task, 0)
	for _, t := range m.tasks {
		if t.UserID != ownerID || !matches(t, filter) {
			continue
		}
		if err := checkStored(t); err != nil {
			return nil, err
		}
		task := t
		result = append(result, &task)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) > 0
	})

	return result, nil
}

func matches(t domain.Task, filter store.TaskFilter) bool {
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && t.Priority != *filter.Priority {
		return false
	}
	if filter.CreatedFrom != nil && t.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && t.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	return true
}

func checkStored(t domain.Task) error {
	if _, err := domain.StoredTaskStatus(string(t.Status)); err != nil {
		return err
	}
	_, err := domain.StoredTaskPriority(string(t.Priority))
	return err
}

// GetForUpdate implements store.TaskStore.
func (m *InMemoryTaskStore) GetForUpdate(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	if err := checkStored(t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update implements store.TaskStore.
func (m *InMemoryTaskStore) Update(ctx context.Context, ownerID uuid.UUID, task *domain.Task) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tasks[task.ID]
	if !ok || existing.UserID != ownerID {
		return store.ErrTaskNotFound
	}

	// user_id and created_at are not part of the UPDATE statement.
	updated := *task
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	m.tasks[task.ID] = updated
	return nil
}

// Delete implements store.TaskStore.
func (m *InMemoryTaskStore) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, taskID)
	return nil
}

// ListStatsRows implements store.TaskStore.
func (m *InMemoryTaskStore) ListStatsRows(ctx context.Context, ownerID uuid.UUID) ([]domain.TaskClassification, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]domain.TaskClassification, 0)
	for _, t := range m.tasks {
		if t.UserID != ownerID {
			continue
		}
		rows = append(rows, domain.TaskClassification{
			Status:   string(t.Status),
			Priority: string(t.Priority),
		})
	}
	return rows, nil
}

// FindDueForReminder implements store.TaskStore. Rows with unknown stored
// values are skipped.
func (m *InMemoryTaskStore) FindDueForReminder(ctx context.Context, after, until time.Time) ([]*domain.Task, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.Task, 0)
	for _, t := range m.tasks {
		if !t.Deadline.After(after) || t.Deadline.After(until) {
			continue
		}
		if t.Status == domain.TaskStatusCompleted || checkStored(t) != nil {
			continue
		}
		task := t
		result = append(result, &task)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Deadline.Equal(result[j].Deadline) {
			return result[i].Deadline.Before(result[j].Deadline)
		}
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) < 0
	})

	return result, nil
}

// WithTx implements store.TaskStore. The store has no transactions; it
// returns itself.
func (m *InMemoryTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}
