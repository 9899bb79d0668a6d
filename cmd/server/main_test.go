package main

import (
	"flag"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haven.world/internal/persistence/indexdb"
	"haven.world/internal/persistence/snapshot"
	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/tuning"
	"haven.world/internal/sim/world"
	"haven.world/internal/sim/world/kernel/model"
	"haven.world/internal/sim/world/terrain/store"
)

type fixedMetrics world.WorldMetrics

func (f fixedMetrics) Metrics() world.WorldMetrics { return world.WorldMetrics(f) }

type fakeIndex struct {
	audits    []world.AuditEntry
	snapshots []uint64
}

func (f *fakeIndex) WriteAudit(e world.AuditEntry) error {
	f.audits = append(f.audits, e)
	return nil
}
func (f *fakeIndex) Close() error                                          { return nil }
func (f *fakeIndex) UpsertCatalogs(*catalogs.Catalogs, tuning.Tuning) error { return nil }
func (f *fakeIndex) RecordSnapshot(_ string, version uint64, _ int, _ time.Time) {
	f.snapshots = append(f.snapshots, version)
}
func (f *fakeIndex) Stats() indexdb.Stats { return indexdb.Stats{QueueDepth: 3, DropAuditTotal: 2} }

func TestMetricsHandler(t *testing.T) {
	src := fixedMetrics{
		Entities:     812,
		StoreVersion: 4,
		Clients:      2,
		QueueDepths:  world.QueueDepths{Inbox: 1},
		ActionsTotal: 9,
	}
	rec := httptest.NewRecorder()
	metricsHandler(src, &fakeIndex{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "haven_world_entities 812\n")
	assert.Contains(t, body, "haven_world_version 4\n")
	assert.Contains(t, body, "haven_world_clients 2\n")
	assert.Contains(t, body, `haven_world_queue_depth{queue="inbox"} 1`)
	assert.Contains(t, body, "haven_actions_total 9\n")
	assert.Contains(t, body, "haven_index_dropped_audits_total 2\n")
	assert.Equal(t, "text/plain; version=0.0.4", rec.Header().Get("Content-Type"))
}

func TestMetricsHandler_NoIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	metricsHandler(fixedMetrics{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), "haven_index_")
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestIndexedWorldFile_RecordsSavedVersions(t *testing.T) {
	idx := &fakeIndex{}
	wf := &indexedWorldFile{WorldFile: snapshot.WorldFile{Path: filepath.Join(t.TempDir(), "world.json")}, idx: idx}
	st, err := store.Open(store.Config{Size: 10}, wf, func() []model.Entity {
		return []model.Entity{{ID: "rock_1_1", Asset: model.AssetRock, Role: model.RoleObstacle, X: 1, Y: 1}}
	}, nil)
	require.NoError(t, err)
	wf.st = st

	_, ok := st.Remove(1, 1)
	require.True(t, ok)

	require.Equal(t, []uint64{0, 1}, idx.snapshots)
	got, err := wf.LoadWorld()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMultiAuditLogger_FansOut(t *testing.T) {
	a, b := &fakeIndex{}, &fakeIndex{}
	require.NoError(t, multiAuditLogger{a: a, b: b}.WriteAudit(world.AuditEntry{Seq: 1}))
	require.Len(t, a.audits, 1)
	require.Len(t, b.audits, 1)
}

func TestFlagSet_NegativeSeedCountsAsSet(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	seed := fs.Int64("seed", 0, "")
	fs.String("addr", ":8000", "")
	require.NoError(t, fs.Parse([]string{"-seed", "-7"}))

	require.True(t, flagSet(fs, "seed"))
	require.Equal(t, int64(-7), *seed)
	require.False(t, flagSet(fs, "addr"))
}

func TestFlagSet_UnsetSeedKeepsTuning(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.Int64("seed", 0, "")
	require.NoError(t, fs.Parse(nil))
	require.False(t, flagSet(fs, "seed"))
}
