package db

import (
	"path/filepath"
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/wanderplan/internal/config"
)

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	conn, err := Open(config.DBConfig{Driver: DialectSQLite, Path: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, EnsureSchema(conn, false))
	require.NoError(t, EnsureSchema(conn, false))

	var count int
	err = conn.NewQuery("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'trips', 'trip_items')").Row(&count)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestEnsureSchemaSkip(t *testing.T) {
	conn, err := Open(config.DBConfig{Driver: DialectSQLite, Path: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, EnsureSchema(conn, true))

	var count int
	require.NoError(t, conn.Select("COUNT(*)").From("sqlite_master").Where(dbx.HashExp{"name": "trips"}).Row(&count))
	require.Zero(t, count)
}

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wanderplan.db")
	sqlDB, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	sqlDB.Close()
	require.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DBConfig{Driver: "oracle"})
	require.Error(t, err)
}
