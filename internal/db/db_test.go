package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenForTesting(t *testing.T) {
	d, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	var tableName string
	err = d.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='listings'").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "listings", tableName)
}

func TestOpenForTestingIsolated(t *testing.T) {
	a, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	b, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, err = a.Exec(`INSERT INTO listings (user_id, crop_type, waste_type, created_at, updated_at)
		VALUES ('u1', 'Rice', 'straw', '2024-01-01 00:00:00', '2024-01-01 00:00:00')`)
	require.NoError(t, err)

	var count int
	require.NoError(t, b.QueryRow("SELECT COUNT(*) FROM listings").Scan(&count))
	assert.Zero(t, count)
}

func TestOpenFileMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agrilink.db")

	d, err := Open(SQLite, path)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// Reopening finds the schema at the latest version and applies nothing.
	d, err = Open(SQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	var version int
	require.NoError(t, d.QueryRow("SELECT version FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestMigrationStatusCheck(t *testing.T) {
	d, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.Exec(`INSERT INTO listings (user_id, crop_type, waste_type, status, created_at, updated_at)
		VALUES ('u1', 'Rice', 'straw', 'sold', '2024-01-01 00:00:00', '2024-01-01 00:00:00')`)
	assert.Error(t, err, "status outside pending/completed is rejected")
}

func TestOpenUnknownDialect(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}
