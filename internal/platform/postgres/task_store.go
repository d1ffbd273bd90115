package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

const taskColumns = `id, user_id, title, description, deadline, priority, status, created_at, updated_at`

// ownedTaskPredicate addresses one task of one owner. Every single-task
// statement is built from it; $1 is the task id and $2 the owner id.
const ownedTaskPredicate = `id = $1 AND user_id = $2`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a pool, connection or transaction managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Deadline,
		string(task.Priority),
		string(task.Status),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, task.UserID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return store.NewStoreError("task", "create", "failed to insert task", MapError(err))
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// buildListQuery renders the listing statement for one owner. Filters are
// appended as positional parameters in a fixed order.
func buildListQuery(ownerID uuid.UUID, filter store.TaskFilter) (string, []any) {
	var b strings.Builder
	args := []any{ownerID}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)

	add := func(clause string, arg any) {
		args = append(args, arg)
		b.WriteString(" AND ")
		b.WriteString(clause)
		b.WriteString(" $")
		b.WriteString(strconv.Itoa(len(args)))
	}

	if filter.Status != nil {
		add("status =", string(*filter.Status))
	}
	if filter.Priority != nil {
		add("priority =", string(*filter.Priority))
	}
	if filter.CreatedFrom != nil {
		add("created_at >=", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		add("created_at <=", *filter.CreatedTo)
	}

	b.WriteString(` ORDER BY created_at DESC, id DESC`)
	return b.String(), args
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := buildListQuery(ownerID, filter)
	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, err
	}

	log.Debug("listed tasks",
		slog.String("user_id", ownerID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// GetForUpdate implements store.TaskStore.GetForUpdate
func (s *PostgresTaskStore) GetForUpdate(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + ownedTaskPredicate + ` FOR UPDATE`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.String("task_id", taskID.String()),
				slog.String("user_id", ownerID.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return task, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, ownerID uuid.UUID, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $3, description = $4, deadline = $5, priority = $6, status = $7, updated_at = $8
		WHERE ` + ownedTaskPredicate

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		ownerID,
		task.Title,
		task.Description,
		task.Deadline,
		string(task.Priority),
		string(task.Status),
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "update", "failed to update task", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		log.Debug("task not updated",
			slog.String("task_id", task.ID.String()),
			slog.String("reason", err.Error()))
		return err
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM tasks WHERE ` + ownedTaskPredicate

	result, err := s.db.ExecContext(ctx, query, taskID, ownerID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return store.NewStoreError("task", "delete", "failed to delete task", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		log.Debug("task not deleted",
			slog.String("task_id", taskID.String()),
			slog.String("reason", err.Error()))
		return err
	}

	log.Info("task deleted successfully",
		slog.String("task_id", taskID.String()))
	return nil
}

// ListStatsRows implements store.TaskStore.ListStatsRows
func (s *PostgresTaskStore) ListStatsRows(ctx context.Context, ownerID uuid.UUID) ([]domain.TaskClassification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT status, priority FROM tasks WHERE user_id = $1`, ownerID)
	if err != nil {
		log.Error("failed to query task classifications",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	result := []domain.TaskClassification{}
	for rows.Next() {
		var c domain.TaskClassification
		if err := rows.Scan(&c.Status, &c.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan task classification: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}

	return result, nil
}

// FindDueForReminder implements store.TaskStore.FindDueForReminder
// Rows whose status or priority is outside the known domain are logged at
// error level and skipped so that one corrupt row does not block every
// other reminder.
func (s *PostgresTaskStore) FindDueForReminder(ctx context.Context, after, until time.Time) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deadline > $1 AND deadline <= $2 AND status <> $3
		ORDER BY deadline, id`

	rows, err := s.db.QueryContext(ctx, query, after, until, string(domain.TaskStatusCompleted))
	if err != nil {
		log.Error("failed to query tasks due for reminder",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			if errors.Is(err, domain.ErrIntegrity) {
				log.Error("skipping task with invalid stored values",
					slog.String("error", err.Error()))
				continue
			}
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}

	log.Debug("found tasks due for reminder",
		slog.Time("after", after),
		slog.Time("until", until),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one row in taskColumns order. Unknown enum values surface
// as domain.ErrIntegrity.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		priority    string
		status      string
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&description,
		&task.Deadline,
		&priority,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if task.Priority, err = domain.StoredTaskPriority(priority); err != nil {
		return nil, fmt.Errorf("task %s: %w", task.ID, err)
	}
	if task.Status, err = domain.StoredTaskStatus(status); err != nil {
		return nil, fmt.Errorf("task %s: %w", task.ID, err)
	}

	if description.Valid {
		d := description.String
		task.Description = &d
	}
	task.Deadline = task.Deadline.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	return &task, nil
}
