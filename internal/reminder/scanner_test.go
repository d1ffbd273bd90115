package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/mocks"
	"github.com/phrazzld/tasktrack-api/internal/notify"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures messages and can fail selected recipients.
type recordingSender struct {
	mu       sync.Mutex
	messages []notify.Message
	failFor  map[string]error
}

func (r *recordingSender) Send(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[msg.To]; err != nil {
		return err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingSender) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.messages...)
}

var scanNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type scanFixture struct {
	scanner  *Scanner
	tasks    *mocks.InMemoryTaskStore
	users    *mocks.MockUserStore
	session  *mocks.MockSession
	sessions *mocks.MockSessionFactory
	sender   *recordingSender
	logs     *logger.TestLogBuffer
}

func newScanFixture(t *testing.T, cfg Config) *scanFixture {
	t.Helper()

	log, logs := logger.NewTestLogger(t)
	f := &scanFixture{
		tasks:  mocks.NewInMemoryTaskStore(),
		users:  mocks.NewMockUserStore(),
		sender: &recordingSender{failFor: map[string]error{}},
		logs:   logs,
	}
	f.session = &mocks.MockSession{TaskStore: f.tasks, UserStore: f.users}
	f.sessions = &mocks.MockSessionFactory{Session: f.session}
	f.scanner = NewScanner(f.sessions, f.sender, cfg, log)
	f.scanner.now = func() time.Time { return scanNow }
	return f
}

func (f *scanFixture) addUser(email string) *domain.User {
	user := &domain.User{ID: uuid.New(), Email: email, HashedPassword: "x", CreatedAt: scanNow}
	f.users.Users[email] = user
	return user
}

func (f *scanFixture) addTask(owner *domain.User, title string, deadline time.Time, status domain.TaskStatus) *domain.Task {
	task := &domain.Task{
		ID:        uuid.New(),
		UserID:    owner.ID,
		Title:     title,
		Deadline:  deadline,
		Priority:  domain.TaskPriorityMedium,
		Status:    status,
		CreatedAt: scanNow.Add(-time.Hour),
		UpdatedAt: scanNow.Add(-time.Hour),
	}
	f.tasks.Seed(task)
	return task
}

func TestRunCycle_SelectsTasksInWindow(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, DefaultConfig())
	alice := f.addUser("alice@example.com")
	bob := f.addUser("bob@example.com")

	f.addTask(alice, "due soon", scanNow.Add(2*time.Hour), domain.TaskStatusPending)
	f.addTask(bob, "at window end", scanNow.Add(24*time.Hour), domain.TaskStatusInProgress)
	f.addTask(alice, "exactly now", scanNow, domain.TaskStatusPending)
	f.addTask(alice, "overdue", scanNow.Add(-time.Minute), domain.TaskStatusPending)
	f.addTask(alice, "too far", scanNow.Add(24*time.Hour+time.Second), domain.TaskStatusPending)
	f.addTask(bob, "already done", scanNow.Add(time.Hour), domain.TaskStatusCompleted)

	result, err := f.scanner.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Due: 2, Sent: 2}, result)

	messages := f.sender.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "alice@example.com", messages[0].To)
	assert.Equal(t, "Task Deadline Reminder: due soon", messages[0].Subject)
	assert.Contains(t, messages[0].HTMLBody, "2025-03-01 14:00")
	assert.Equal(t, "bob@example.com", messages[1].To)
	assert.Equal(t, "Task Deadline Reminder: at window end", messages[1].Subject)

	assert.Equal(t, 1, f.session.CloseCount())
}

func TestRunCycle_RemindsAgainOnNextCycle(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, DefaultConfig())
	alice := f.addUser("alice@example.com")
	f.addTask(alice, "due soon", scanNow.Add(time.Hour), domain.TaskStatusPending)

	for i := 0; i < 2; i++ {
		_, err := f.scanner.RunCycle(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, f.sender.Messages(), 2)
	assert.Equal(t, 2, f.sessions.OpenCount())
	assert.Equal(t, 2, f.session.CloseCount())
}

func TestRunCycle_ItemFailuresDoNotStopTheCycle(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, DefaultConfig())
	alice := f.addUser("alice@example.com")
	bob := f.addUser("bob@example.com")
	ghost := &domain.User{ID: uuid.New(), Email: "ghost@example.com"}

	f.addTask(ghost, "orphan", scanNow.Add(time.Hour), domain.TaskStatusPending)
	f.addTask(alice, "smtp fails", scanNow.Add(2*time.Hour), domain.TaskStatusPending)
	f.addTask(bob, "delivered", scanNow.Add(3*time.Hour), domain.TaskStatusPending)
	f.sender.failFor["alice@example.com"] = errors.New("mailbox unavailable")

	result, err := f.scanner.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Due: 3, Sent: 1, Failed: 2}, result)

	messages := f.sender.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "bob@example.com", messages[0].To)

	assert.Contains(t, f.logs.String(), "mailbox unavailable")
	assert.Contains(t, f.logs.String(), store.ErrUserNotFound.Error())
}

func TestRunCycle_SkipsCorruptRows(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, DefaultConfig())
	alice := f.addUser("alice@example.com")
	f.addTask(alice, "corrupt", scanNow.Add(time.Hour), "archived")
	f.addTask(alice, "fine", scanNow.Add(2*time.Hour), domain.TaskStatusPending)

	result, err := f.scanner.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
}

func TestRunCycle_ScanFailures(t *testing.T) {
	t.Parallel()

	t.Run("session cannot be opened", func(t *testing.T) {
		f := newScanFixture(t, DefaultConfig())
		f.sessions.Err = errors.New("pool exhausted")

		_, err := f.scanner.RunCycle(context.Background())
		assert.ErrorIs(t, err, f.sessions.Err)
	})

	t.Run("query fails and session is still closed", func(t *testing.T) {
		f := newScanFixture(t, DefaultConfig())
		f.tasks.Err = errors.New("relation does not exist")

		_, err := f.scanner.RunCycle(context.Background())
		assert.ErrorIs(t, err, f.tasks.Err)
		assert.Equal(t, 1, f.session.CloseCount())
	})
}

func TestRunCycle_PanicStillClosesSession(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, DefaultConfig())
	alice := f.addUser("alice@example.com")
	bob := f.addUser("bob@example.com")
	f.addTask(alice, "owner lookup panics", scanNow.Add(time.Hour), domain.TaskStatusPending)
	f.addTask(bob, "still delivered", scanNow.Add(2*time.Hour), domain.TaskStatusPending)
	f.users.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
		if id == alice.ID {
			panic("driver bug")
		}
		return bob, nil
	}

	var result CycleResult
	var err error
	assert.NotPanics(t, func() { result, err = f.scanner.RunCycle(context.Background()) })
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Due: 2, Sent: 1, Failed: 1}, result)

	messages := f.sender.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "bob@example.com", messages[0].To)

	assert.Equal(t, 1, f.session.CloseCount())
	assert.Contains(t, f.logs.String(), "deadline reminder panicked: driver bug")
}

func TestRunSafely_RecoversFromScanPanic(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, DefaultConfig())
	f.sessions.OpenSessionFn = func(ctx context.Context) (store.Session, error) {
		panic("factory bug")
	}

	assert.NotPanics(t, func() { f.scanner.runSafely(context.Background()) })
	assert.Contains(t, f.logs.String(), "deadline scan panicked")
}

func TestScanner_StartStop(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, Config{Interval: 10 * time.Millisecond, RunOnStart: true})
	alice := f.addUser("alice@example.com")
	f.addTask(alice, "due", scanNow.Add(time.Hour), domain.TaskStatusPending)

	f.scanner.Start()
	f.scanner.Start()

	assert.Eventually(t, func() bool {
		return len(f.sender.Messages()) >= 2
	}, 2*time.Second, 5*time.Millisecond, "the loop keeps scanning on every tick")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.scanner.Stop(ctx))

	opened := f.sessions.OpenCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, opened, f.sessions.OpenCount(), "no cycles after Stop")
	assert.Equal(t, opened, f.session.CloseCount())

	assert.NoError(t, f.scanner.Stop(ctx), "Stop is idempotent")
}

func TestScanner_StopWaitsForCycle(t *testing.T) {
	t.Parallel()

	f := newScanFixture(t, Config{Interval: time.Hour, RunOnStart: true})
	alice := f.addUser("alice@example.com")
	f.addTask(alice, "due", scanNow.Add(time.Hour), domain.TaskStatusPending)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.users.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
		close(entered)
		<-release
		return alice, nil
	}

	f.scanner.Start()
	<-entered

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.scanner.Stop(short), context.DeadlineExceeded)

	close(release)
	assert.Eventually(t, func() bool {
		return len(f.sender.Messages()) == 1
	}, time.Second, 5*time.Millisecond, "the running cycle completes after Stop")
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := ConfigFrom(config.ReminderConfig{
		IntervalMinutes:      15,
		WindowHours:          48,
		NotifyTimeoutSeconds: 5,
		RunOnStart:           true,
	})
	assert.Equal(t, Config{
		Interval:      15 * time.Minute,
		Window:        48 * time.Hour,
		NotifyTimeout: 5 * time.Second,
		RunOnStart:    true,
	}, cfg)

	s := NewScanner(&mocks.MockSessionFactory{}, &recordingSender{}, Config{}, nil)
	assert.Equal(t, DefaultConfig(), s.config)
}
