package store

import "context"

// Session is a set of stores bound to one dedicated database connection.
// It must be closed to return the connection to the pool.
type Session interface {
	Tasks() TaskStore
	Users() UserStore
	Close() error
}

// SessionFactory opens Sessions for work that runs outside a request, such
// as a background scan.
type SessionFactory interface {
	OpenSession(ctx context.Context) (Session, error)
}
