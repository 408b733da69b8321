package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_InputValidation(t *testing.T) {
	t.Run("EmptyMigrationsPath", func(t *testing.T) {
		err := RunMigrations("postgres://test", "")
		assert.EqualError(t, err, "POSTGRES_MIGRATIONS_PATH is empty")
	})

	t.Run("EmptyDatabaseURL", func(t *testing.T) {
		err := RunMigrations("", "migrations/postgres")
		assert.EqualError(t, err, "POSTGRES_URL is empty")
	})

	t.Run("MissingMigrationsDirectory", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing")
		err := RunMigrations("postgres://test", missing)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open ledger migrations at "+missing)
	})
}
