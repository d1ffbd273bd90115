package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/redact"
)

// Errors returned by Dispatch.
var (
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
	ErrQueueFull        = errors.New("notification queue is full")
)

// DispatcherConfig holds configuration options for the dispatcher.
type DispatcherConfig struct {
	// Workers is the number of concurrent deliveries. If zero or negative, defaults to 1.
	Workers int

	// QueueSize bounds the number of messages waiting for a worker.
	QueueSize int

	// Timeout bounds each delivery. If zero, defaults to 30 seconds.
	Timeout time.Duration
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:   2,
		QueueSize: 100,
		Timeout:   30 * time.Second,
	}
}

// Dispatcher delivers messages through a Notifier, either synchronously with
// Send or in the background with Dispatch.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	queue    chan Message
	wg       sync.WaitGroup
	logger   *slog.Logger

	// mu guards closed and every send on queue.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher and starts its workers.
func NewDispatcher(notifier Notifier, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "notification_dispatcher"))

	if cfg.Workers <= 0 {
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", cfg.Workers),
			slog.Int("default_count", 1))
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDispatcherConfig().Timeout
	}

	d := &Dispatcher{
		notifier: notifier,
		timeout:  cfg.Timeout,
		queue:    make(chan Message, cfg.QueueSize),
		logger:   logger,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	return d
}

// Send delivers msg and waits for the result, bounded by the configured timeout.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("notify %s: %w", redact.String(msg.To), err)
	}
	return nil
}

// Dispatch queues msg for background delivery and returns immediately.
// Delivery failures are logged.
func (d *Dispatcher) Dispatch(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.logger.Warn("dropping notification, queue is full",
			slog.String("to", redact.String(msg.To)),
			slog.String("subject", msg.Subject),
			slog.Int("queue_cap", cap(d.queue)))
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(d.queue))
	}
}

// Wait stops accepting new messages and waits until queued messages are
// delivered or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Debug("notification dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn("notification dispatcher did not drain before deadline",
			slog.Int("pending", len(d.queue)))
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for msg := range d.queue {
		d.deliver(id, msg)
	}
}

func (d *Dispatcher) deliver(workerID int, msg Message) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("notifier panicked",
				slog.Any("panic", p),
				slog.Int("worker_id", workerID),
				slog.String("to", redact.String(msg.To)))
		}
	}()

	if err := d.Send(context.Background(), msg); err != nil {
		d.logger.Error("failed to deliver notification",
			slog.String("error", err.Error()),
			slog.Int("worker_id", workerID),
			slog.String("subject", msg.Subject))
	}
}
