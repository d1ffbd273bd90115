// Package notify delivers user-facing email notifications.
//
// A Notifier sends one Message. SMTPNotifier talks to a mail server;
// LogNotifier only records that a message would have been sent and is used
// when no SMTP credentials are configured. A Dispatcher runs deliveries on a
// small worker pool with a per-message timeout so that callers never wait on
// the mail server. Notification failures are logged and never retried.
package notify
