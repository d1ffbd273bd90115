package notify

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/redact"
)

// Message is a single HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Notifier delivers a message to its recipient.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier logs the recipient and subject of each message instead of
// sending it. Bodies are never logged.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "log_notifier"))}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "email not configured, notification not sent",
		slog.String("to", redact.String(msg.To)),
		slog.String("subject", msg.Subject))
	return nil
}

// New returns an SMTPNotifier when cfg carries credentials and a
// LogNotifier otherwise.
func New(cfg config.SMTPConfig, logger *slog.Logger) (Notifier, error) {
	if !cfg.Configured() {
		return NewLogNotifier(logger), nil
	}
	return NewSMTPNotifier(cfg, logger)
}
