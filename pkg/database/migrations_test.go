package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/migrations"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":   {Data: []byte("SELECT 1;")},
		"002_second.sql":  {Data: []byte("SELECT 1;")},
		"001_initial.sql": {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{got[0].Version, got[1].Version, got[2].Version})
	assert.Equal(t, "initial", got[0].Name)
}

func TestLoadMigrations_RejectsBadNames(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"initial.sql": {Data: []byte("SELECT 1;")}})
	assert.Error(t, err)

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.Error(t, err)
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.Run(migrations.FS))
	require.NoError(t, m.Run(migrations.FS))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	all, err := LoadMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, len(all), count)

	_, err = db.Exec("INSERT INTO countries (name, code) VALUES ('Qatar', 'QA')")
	assert.NoError(t, err)
}

func TestMigrator_FailedMigrationIsNotRecorded(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	err := m.Run(fstest.MapFS{"001_broken.sql": {Data: []byte("CREATE TABLE (")}})
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Zero(t, count)
}
