package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMigratesSchema(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	for _, table := range []string{"gp_runs", "gp_track_observations", "gp_homographies", "gp_frame_stats"} {
		var n int
		err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}

	// Running again is a no-op.
	assert.NoError(t, db.MigrateUp())
}

func TestPragmas(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrateDown(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	require.NoError(t, db.MigrateDown())
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='gp_runs'`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, db.MigrateUp())
	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
