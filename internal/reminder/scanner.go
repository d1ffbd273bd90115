package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/notify"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// Config holds configuration for the scanner.
type Config struct {
	// Interval is the time between cycles.
	Interval time.Duration

	// Window is how far ahead of now a deadline qualifies.
	Window time.Duration

	// NotifyTimeout bounds the handling of a single task.
	NotifyTimeout time.Duration

	// RunOnStart runs a cycle immediately instead of after the first Interval.
	RunOnStart bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Interval:      time.Hour,
		Window:        24 * time.Hour,
		NotifyTimeout: 30 * time.Second,
	}
}

// ConfigFrom converts application configuration.
func ConfigFrom(cfg config.ReminderConfig) Config {
	return Config{
		Interval:      cfg.Interval(),
		Window:        cfg.Window(),
		NotifyTimeout: cfg.NotifyTimeout(),
		RunOnStart:    cfg.RunOnStart,
	}
}

// Sender delivers one message and reports the outcome.
type Sender interface {
	Send(ctx context.Context, msg notify.Message) error
}

// CycleResult summarizes one scan.
type CycleResult struct {
	Due    int
	Sent   int
	Failed int
}

// Scanner periodically sends deadline reminders.
type Scanner struct {
	sessions store.SessionFactory
	sender   Sender
	config   Config
	now      func() time.Time
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScanner creates a Scanner. Zero config durations take their defaults.
func NewScanner(sessions store.SessionFactory, sender Sender, cfg Config, logger *slog.Logger) *Scanner {
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaults.NotifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		sessions: sessions,
		sender:   sender,
		config:   cfg,
		now:      domain.Now,
		logger:   logger.With(slog.String("component", "deadline_scanner")),
	}
}

// Start launches the scan loop in its own goroutine. Calling Start on a
// running scanner does nothing.
func (s *Scanner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)

	s.logger.Info("deadline scanner started",
		slog.Duration("interval", s.config.Interval),
		slog.Duration("window", s.config.Window))
}

// Stop ends the loop and waits for a cycle in progress to finish, or for
// ctx to be done.
func (s *Scanner) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		s.logger.Info("deadline scanner stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("deadline scanner did not stop before deadline")
		return ctx.Err()
	}
}

func (s *Scanner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if s.config.RunOnStart {
		s.runSafely(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSafely(ctx)
		}
	}
}

// runSafely runs one cycle to completion even if ctx is cancelled meanwhile,
// and keeps the loop alive on failure.
func (s *Scanner) runSafely(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("deadline scan panicked", slog.Any("panic", p))
		}
	}()

	if _, err := s.RunCycle(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("deadline scan failed", slog.String("error", err.Error()))
	}
}

// RunCycle performs one scan. Failures for individual tasks are logged and
// counted; only failures of the scan itself are returned.
func (s *Scanner) RunCycle(ctx context.Context) (result CycleResult, err error) {
	now := s.now()
	until := now.Add(s.config.Window)

	session, err := s.sessions.OpenSession(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to open store session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.logger.Warn("failed to close store session", slog.String("error", closeErr.Error()))
		}
	}()

	tasks, err := session.Tasks().FindDueForReminder(ctx, now, until)
	if err != nil {
		return result, fmt.Errorf("failed to find tasks due for reminder: %w", err)
	}
	result.Due = len(tasks)

	for _, task := range tasks {
		if err := s.remindSafely(ctx, session.Users(), task); err != nil {
			result.Failed++
			s.logger.Error("failed to send deadline reminder",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			continue
		}
		result.Sent++
	}

	s.logger.Info("deadline scan finished",
		slog.Int("due", result.Due),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Time("window_end", until))

	return result, nil
}

// remindSafely converts a panic while handling one task into an error so the
// remaining tasks in the cycle are still handled.
func (s *Scanner) remindSafely(ctx context.Context, users store.UserStore, task *domain.Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("deadline reminder panicked: %v", p)
		}
	}()
	return s.remind(ctx, users, task)
}

func (s *Scanner) remind(ctx context.Context, users store.UserStore, task *domain.Task) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.NotifyTimeout)
	defer cancel()

	user, err := users.GetByID(ctx, task.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return fmt.Errorf("task owner no longer exists: %w", err)
		}
		return fmt.Errorf("failed to look up task owner: %w", err)
	}

	msg, err := notify.DeadlineReminder(user.Email, task)
	if err != nil {
		return err
	}

	return s.sender.Send(ctx, msg)
}
