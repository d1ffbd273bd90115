package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/store"
)

// SessionFactory hands out store.Sessions, each pinned to one connection
// checked out of the pool.
type SessionFactory struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSessionFactory creates a SessionFactory over db.
func NewSessionFactory(db *sql.DB, logger *slog.Logger) *SessionFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionFactory{db: db, logger: logger}
}

var _ store.SessionFactory = (*SessionFactory)(nil)

// OpenSession implements store.SessionFactory.OpenSession
func (f *SessionFactory) OpenSession(ctx context.Context) (store.Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return &connSession{
		conn:  conn,
		tasks: NewPostgresTaskStore(conn, f.logger),
		users: NewPostgresUserStore(conn, f.logger),
	}, nil
}

type connSession struct {
	conn  *sql.Conn
	tasks *PostgresTaskStore
	users *PostgresUserStore
}

func (s *connSession) Tasks() store.TaskStore { return s.tasks }
func (s *connSession) Users() store.UserStore { return s.users }
func (s *connSession) Close() error           { return s.conn.Close() }
