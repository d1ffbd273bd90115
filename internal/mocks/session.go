package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/tasktrack-api/internal/store"
)

// MockSession implements store.Session over arbitrary stores.
type MockSession struct {
	TaskStore store.TaskStore
	UserStore store.UserStore
	CloseErr  error

	mu     sync.Mutex
	closed int
}

// Tasks implements store.Session.
func (s *MockSession) Tasks() store.TaskStore { return s.TaskStore }

// Users implements store.Session.
func (s *MockSession) Users() store.UserStore { return s.UserStore }

// Close implements store.Session and counts calls.
func (s *MockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.CloseErr
}

// CloseCount returns how many times Close was called.
func (s *MockSession) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// MockSessionFactory implements store.SessionFactory.
type MockSessionFactory struct {
	// OpenSessionFn overrides the default behavior when set
	OpenSessionFn func(ctx context.Context) (store.Session, error)

	// Session is returned by default
	Session *MockSession
	Err     error

	mu     sync.Mutex
	opened int
}

// OpenSession implements store.SessionFactory.
func (f *MockSessionFactory) OpenSession(ctx context.Context) (store.Session, error) {
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()

	if f.OpenSessionFn != nil {
		return f.OpenSessionFn(ctx)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Session, nil
}

// OpenCount returns how many times OpenSession was called.
func (f *MockSessionFactory) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}
