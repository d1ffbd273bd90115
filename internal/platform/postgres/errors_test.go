package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockResult implements sql.Result for testing
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (m mockResult) RowsAffected() (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.rowsAffected, nil
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		expectedError error
	}{
		{name: "no rows", err: sql.ErrNoRows, expectedError: store.ErrNotFound},
		{
			name:          "unique violation",
			err:           &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			expectedError: store.ErrDuplicate,
		},
		{
			name:          "foreign key violation",
			err:           &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "tasks_user_id_fkey"},
			expectedError: store.ErrInvalidEntity,
		},
		{
			name:          "check violation",
			err:           &pgconn.PgError{Code: pgerrcode.CheckViolation},
			expectedError: store.ErrInvalidEntity,
		},
		{
			name:          "not null violation",
			err:           &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "title"},
			expectedError: store.ErrInvalidEntity,
		},
		{
			name:          "wrapped unique violation",
			err:           fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}),
			expectedError: store.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(tt.err)
			assert.ErrorIs(t, mapped, tt.expectedError)
		})
	}

	assert.NoError(t, MapError(nil))

	other := errors.New("connection refused")
	assert.Same(t, other, MapError(other))
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	fk := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", unique)))
	assert.False(t, IsUniqueViolation(fk))
	assert.False(t, IsUniqueViolation(nil))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("plain")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckRowsAffected(mockResult{rowsAffected: 1}, store.ErrTaskNotFound))
	assert.ErrorIs(t, CheckRowsAffected(mockResult{}, store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.ErrorIs(t, CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)

	resultErr := errors.New("driver does not support RowsAffected")
	err := CheckRowsAffected(mockResult{err: resultErr}, store.ErrTaskNotFound)
	assert.ErrorIs(t, err, resultErr)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	assert.Error(t, CheckRowsAffected(nil, nil))
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	err := MapUniqueViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrEmailExists)

	other := errors.New("timeout")
	assert.Same(t, other, MapUniqueViolation(other, store.ErrEmailExists))
}
