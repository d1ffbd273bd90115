package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// DeadlineLayout is how deadlines appear in reminder emails.
const DeadlineLayout = "2006-01-02 15:04"

var (
	deadlineReminderTemplate = template.Must(template.New("deadline_reminder").Parse(`<html>
<body>
    <h2>Task Deadline Reminder</h2>
    <p>Your task "<strong>{{.Title}}</strong>" is due on {{.Deadline}}.</p>
    <p>Don't forget to complete it on time!</p>
</body>
</html>
`))

	taskActivityTemplate = template.Must(template.New("task_activity").Parse(`<html>
<body>
    <h2>Task Manager Notification</h2>
    <p>Your task "<strong>{{.Title}}</strong>" has been {{.Action}}.</p>
    <p>Thank you for using Task Manager!</p>
</body>
</html>
`))
)

// DeadlineReminder builds the reminder for a task whose deadline is near.
// The deadline is shown in UTC.
func DeadlineReminder(to string, task *domain.Task) (Message, error) {
	body, err := render(deadlineReminderTemplate, struct {
		Title    string
		Deadline string
	}{
		Title:    task.Title,
		Deadline: task.Deadline.UTC().Format(DeadlineLayout),
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:       to,
		Subject:  "Task Deadline Reminder: " + task.Title,
		HTMLBody: body,
	}, nil
}

// TaskActivity builds the notice sent after something happened to a task,
// for example action "created".
func TaskActivity(to, title, action string) (Message, error) {
	body, err := render(taskActivityTemplate, struct {
		Title  string
		Action string
	}{
		Title:  title,
		Action: action,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Task %s: %s", titleCase(action), title),
		HTMLBody: body,
	}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// titleCase upper-cases the first letter of each word and lower-cases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
