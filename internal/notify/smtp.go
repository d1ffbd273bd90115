package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/redact"
	"github.com/wneessen/go-mail"
)

// SMTPNotifier sends messages through an SMTP server using STARTTLS and
// PLAIN authentication.
type SMTPNotifier struct {
	host    string
	from    string
	options []mail.Option
	logger  *slog.Logger
}

// NewSMTPNotifier creates an SMTPNotifier. The sender address defaults to
// the SMTP username.
func NewSMTPNotifier(cfg config.SMTPConfig, logger *slog.Logger) (*SMTPNotifier, error) {
	if !cfg.Configured() {
		return nil, errors.New("smtp host, username and password are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	options := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if cfg.Port > 0 {
		options = append(options, mail.WithPort(cfg.Port))
	}

	return &SMTPNotifier{
		host:    cfg.Host,
		from:    from,
		options: options,
		logger:  logger.With(slog.String("component", "smtp_notifier")),
	}, nil
}

// Notify implements Notifier. A new connection is used for every message.
func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	m, err := n.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.host, n.options...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.InfoContext(ctx, "email sent",
		slog.String("to", redact.String(msg.To)),
		slog.String("subject", msg.Subject))
	return nil
}

func (n *SMTPNotifier) buildMessage(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(headerSafe(msg.Subject))
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	return m, nil
}

// headerSafe removes line breaks so user text cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
