package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/tasktrack-api/internal/notify"
)

// MockNotifier implements notify.Notifier and records every message.
type MockNotifier struct {
	// NotifyFn overrides the default behavior when set
	NotifyFn func(ctx context.Context, msg notify.Message) error

	// Err is returned by default
	Err error

	mu       sync.Mutex
	messages []notify.Message
}

// Notify implements notify.Notifier.
func (m *MockNotifier) Notify(ctx context.Context, msg notify.Message) error {
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()

	if m.NotifyFn != nil {
		return m.NotifyFn(ctx, msg)
	}
	return m.Err
}

// Messages returns a copy of the recorded messages.
func (m *MockNotifier) Messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.messages...)
}
