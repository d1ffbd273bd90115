package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"level":"ERROR","error":"dial postgres://app:hunter2@db:5432/tasks failed"}`,
		`{"level":"INFO","msg":"reminder sent to alice@example.com"}`,
		`plain line`,
	}, "\n"))

	var out bytes.Buffer
	require.NoError(t, run(in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.NotContains(t, lines[0], "hunter2")
	assert.NotContains(t, lines[1], "alice@example.com")
	assert.Contains(t, lines[1], "[REDACTED_EMAIL]")
	assert.Equal(t, "plain line", lines[2])
}
