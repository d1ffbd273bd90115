package testdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseURL(t *testing.T) {
	t.Setenv(EnvTestDatabaseURL, "")
	t.Setenv(EnvDatabaseURL, "")
	assert.Empty(t, DatabaseURL())

	t.Setenv(EnvDatabaseURL, "postgres://fallback/db")
	assert.Equal(t, "postgres://fallback/db", DatabaseURL())

	t.Setenv(EnvTestDatabaseURL, "postgres://test/db")
	assert.Equal(t, "postgres://test/db", DatabaseURL())
}

func TestSkipIfUnavailable(t *testing.T) {
	t.Setenv(EnvTestDatabaseURL, "")
	t.Setenv(EnvDatabaseURL, "")

	reachedEnd := false
	t.Run("skips", func(t *testing.T) {
		SkipIfUnavailable(t)
		reachedEnd = true
	})
	assert.False(t, reachedEnd)
}
