package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/tuning"
	"haven.world/internal/sim/world"
)

func reopen(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteIndex_AuditsAndSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "world.sqlite")
	idx, err := OpenSQLite(path)
	require.NoError(t, err)

	require.NoError(t, idx.WriteAudit(world.AuditEntry{Seq: 1, TimeMs: 1000, Actor: "alice", Action: "HARVEST", Target: "tree_20_3", X: 20, Y: 3, Version: 2}))
	require.NoError(t, idx.WriteAudit(world.AuditEntry{Seq: 2, TimeMs: 1001, Actor: "bob", Action: "BUILD", Target: "path_stone", X: 7, Y: 7, Version: 3}))
	idx.RecordSnapshot("data/world.json", 3, 812, time.UnixMilli(1002))
	require.NoError(t, idx.Close())

	db := reopen(t, path)
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM audits`).Scan(&n))
	require.Equal(t, 2, n)

	var action, target string
	require.NoError(t, db.QueryRow(`SELECT action, target FROM audits WHERE actor = ?`, "bob").Scan(&action, &target))
	require.Equal(t, "BUILD", action)
	require.Equal(t, "path_stone", target)

	var entities int
	require.NoError(t, db.QueryRow(`SELECT entities FROM snapshots WHERE version = 3`).Scan(&entities))
	require.Equal(t, 812, entities)
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.sqlite")
	idx, err := OpenSQLite(path)
	require.NoError(t, err)

	cats := catalogs.Default()
	require.NoError(t, idx.UpsertCatalogs(cats, tuning.Defaults()))
	// Upserting twice replaces rows instead of failing on the primary key.
	require.NoError(t, idx.UpsertCatalogs(cats, tuning.Defaults()))

	var digest string
	require.NoError(t, idx.DB().QueryRow(`SELECT digest FROM catalogs WHERE name = 'build_recipes'`).Scan(&digest))
	require.Equal(t, cats.Digest, digest)

	var n int
	require.NoError(t, idx.DB().QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n))
	require.Equal(t, 5, n)
	require.NoError(t, idx.Close())
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqAudit}

	_ = s.WriteAudit(world.AuditEntry{Seq: 2})
	s.RecordSnapshot("world.json", 1, 1, time.Now())

	st := s.Stats()
	require.Equal(t, uint64(1), st.DropAuditTotal)
	require.Equal(t, uint64(1), st.DropSnapshotTotal)
	require.Equal(t, 1, st.QueueDepth)
	require.Equal(t, 1, st.QueueCapacity)
}

func TestSQLiteIndex_NilIsNoop(t *testing.T) {
	var s *SQLiteIndex
	require.NoError(t, s.WriteAudit(world.AuditEntry{}))
	s.RecordSnapshot("x", 1, 1, time.Now())
	require.Equal(t, Stats{}, s.Stats())
	require.NoError(t, s.UpsertCatalogs(catalogs.Default(), tuning.Defaults()))
}
