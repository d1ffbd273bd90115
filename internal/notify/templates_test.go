package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadlineReminder(t *testing.T) {
	t.Parallel()

	task := &domain.Task{
		ID:       uuid.New(),
		Title:    "Ship <release>",
		Deadline: time.Date(2025, 3, 5, 17, 30, 45, 0, time.FixedZone("CET", 3600)),
	}

	msg, err := DeadlineReminder("alice@example.com", task)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Task Deadline Reminder: Ship <release>", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "2025-03-05 16:30", "deadline is rendered in UTC without seconds")
	assert.Contains(t, msg.HTMLBody, "Ship &lt;release&gt;", "title is HTML escaped")
	assert.NotContains(t, msg.HTMLBody, "<release>")
}

func TestTaskActivity(t *testing.T) {
	t.Parallel()

	msg, err := TaskActivity("bob@example.com", "Buy milk", "created")
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", msg.To)
	assert.Equal(t, "Task Created: Buy milk", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Buy milk")
	assert.Contains(t, msg.HTMLBody, "has been created")
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Created", titleCase("created"))
	assert.Equal(t, "Marked Done", titleCase("mARKED done"))
	assert.Equal(t, "", titleCase(""))
}
