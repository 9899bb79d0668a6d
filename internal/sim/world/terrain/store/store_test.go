package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"haven.world/internal/sim/world/kernel/model"
)

type memPersister struct {
	saved   []model.Entity
	saves   int
	loadErr error
	saveErr error
}

func (m *memPersister) LoadWorld() ([]model.Entity, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]model.Entity, len(m.saved))
	copy(out, m.saved)
	return out, nil
}

func (m *memPersister) SaveWorld(entities []model.Entity) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = entities
	return nil
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func seedEntities() []model.Entity {
	return []model.Entity{
		{ID: model.GeneratedID(model.AssetTree, 20, 30), Asset: model.AssetTree, Role: model.RoleObstacle, X: 20, Y: 30},
		{ID: model.GeneratedID(model.AssetRock, 21, 30), Asset: model.AssetRock, Role: model.RoleObstacle, X: 21, Y: 30},
	}
}

func openTest(t *testing.T, p *memPersister) *Store {
	t.Helper()
	s, err := Open(Config{Size: 100, Now: fixedClock(1700000000000)}, p, seedEntities, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestOpen_GeneratesAndPersistsWhenEmpty(t *testing.T) {
	p := &memPersister{}
	s := openTest(t, p)
	if s.Len() != 2 {
		t.Fatalf("expected 2 entities, got %d", s.Len())
	}
	if p.saves != 1 || len(p.saved) != 2 {
		t.Fatalf("expected generated world to be persisted once, saves=%d saved=%d", p.saves, len(p.saved))
	}
}

func TestOpen_LoadsExistingSnapshot(t *testing.T) {
	p := &memPersister{saved: []model.Entity{
		{ID: "furnace_50_50_1", Asset: model.AssetFurnace, Role: model.RoleObstacle, X: 50, Y: 50},
	}}
	called := false
	s, err := Open(Config{Size: 100}, p, func() []model.Entity { called = true; return seedEntities() }, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if called {
		t.Fatalf("generator must not run when a snapshot exists")
	}
	if e, ok := s.Get(50, 50); !ok || e.ID != "furnace_50_50_1" {
		t.Fatalf("unexpected entity at (50,50): %+v ok=%v", e, ok)
	}
	if p.saves != 0 {
		t.Fatalf("loading should not rewrite the snapshot")
	}
}

func TestOpen_LoadErrorIsReturned(t *testing.T) {
	p := &memPersister{loadErr: errors.New("corrupt")}
	if _, err := Open(Config{Size: 100}, p, seedEntities, nil); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestOpen_DropsDuplicateCells(t *testing.T) {
	p := &memPersister{saved: []model.Entity{
		{ID: "a", Asset: model.AssetTree, Role: model.RoleObstacle, X: 1, Y: 1},
		{ID: "b", Asset: model.AssetRock, Role: model.RoleObstacle, X: 1, Y: 1},
		{ID: "c", Asset: model.AssetRock, Role: model.RoleObstacle, X: 500, Y: 1},
	}}
	s, err := Open(Config{Size: 100}, p, nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entity after dedupe, got %d", s.Len())
	}
	if e, _ := s.Get(1, 1); e.ID != "a" {
		t.Fatalf("first entity should win, got %q", e.ID)
	}
}

func TestAddRemove_SingleOccupancy(t *testing.T) {
	p := &memPersister{}
	s := openTest(t, p)

	e, ok := s.Add(model.AssetFurnace, model.RoleObstacle, 40, 40)
	if !ok {
		t.Fatalf("add on empty cell failed")
	}
	if e.ID != "furnace_40_40_1700000000000" {
		t.Fatalf("unexpected id %q", e.ID)
	}
	if _, ok := s.Add(model.AssetClayPot, model.RoleObstacle, 40, 40); ok {
		t.Fatalf("add on occupied cell must fail")
	}
	if _, ok := s.Add(model.AssetClayPot, model.RoleObstacle, 100, 0); ok {
		t.Fatalf("add out of bounds must fail")
	}

	removed, ok := s.Remove(40, 40)
	if !ok || removed.ID != e.ID {
		t.Fatalf("remove returned %+v ok=%v", removed, ok)
	}
	if _, ok := s.Remove(40, 40); ok {
		t.Fatalf("second remove must fail")
	}
	if _, ok := s.ByID(e.ID); ok {
		t.Fatalf("id index not cleared")
	}

	// Same millisecond, same cell: the id must still be unique among live entities.
	a, _ := s.Add(model.AssetPathStone, model.RoleFloor, 41, 41)
	s.Remove(41, 41)
	b, _ := s.Add(model.AssetPathStone, model.RoleFloor, 41, 41)
	if a.ID != b.ID {
		t.Fatalf("id should be reusable once the first entity is gone: %q vs %q", a.ID, b.ID)
	}

	// Cell map and id map must agree after the sequence.
	for _, ent := range s.Snapshot() {
		got, ok := s.ByID(ent.ID)
		if !ok || got != ent {
			t.Fatalf("index mismatch for %s", ent.ID)
		}
		atCell, ok := s.Get(ent.X, ent.Y)
		if !ok || atCell != ent {
			t.Fatalf("cell mismatch for %s", ent.ID)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 entities, got %d", s.Len())
	}
}

func TestAdd_SuffixesCollidingIDs(t *testing.T) {
	s := openTest(t, &memPersister{})
	s.byID["rock_5_5_1700000000000"] = model.Cell{X: 99, Y: 99}
	e, ok := s.Add(model.AssetRock, model.RoleObstacle, 5, 5)
	if !ok {
		t.Fatalf("add failed")
	}
	if e.ID != "rock_5_5_1700000000000_1" {
		t.Fatalf("unexpected id %q", e.ID)
	}
}

func TestMutations_BumpVersionAndPersist(t *testing.T) {
	p := &memPersister{}
	s := openTest(t, p)
	v0, saves0 := s.Version(), p.saves

	s.Add(model.AssetFurnace, model.RoleObstacle, 60, 60)
	s.Remove(60, 60)
	s.Remove(60, 60) // no-op

	if s.Version() != v0+2 {
		t.Fatalf("version: got %d want %d", s.Version(), v0+2)
	}
	if p.saves != saves0+2 {
		t.Fatalf("saves: got %d want %d", p.saves, saves0+2)
	}
}

func TestPersistFailure_KeepsMemoryState(t *testing.T) {
	p := &memPersister{}
	s := openTest(t, p)
	p.saveErr = errors.New("disk full")

	if _, ok := s.Add(model.AssetFurnace, model.RoleObstacle, 70, 70); !ok {
		t.Fatalf("add should succeed in memory despite persist failure")
	}
	if !s.Occupied(70, 70) {
		t.Fatalf("entity missing after failed persist")
	}
}

func TestRestore_PutsBackRemovedEntity(t *testing.T) {
	s := openTest(t, &memPersister{})
	e, _ := s.Remove(20, 30)
	if !s.Restore(e) {
		t.Fatalf("restore failed")
	}
	if got, ok := s.ByID(e.ID); !ok || got != e {
		t.Fatalf("restored entity mismatch: %+v", got)
	}
	if s.Restore(e) {
		t.Fatalf("restoring a live entity must fail")
	}
}

func TestSnapshot_IdempotentAndIsolated(t *testing.T) {
	s := openTest(t, &memPersister{})
	a, _ := json.Marshal(s.Snapshot())
	b, _ := json.Marshal(s.Snapshot())
	if string(a) != string(b) {
		t.Fatalf("repeated snapshots differ")
	}
	if s.Digest() != s.Digest() {
		t.Fatalf("digest not stable")
	}

	snap := s.Snapshot()
	snap[0].X = 99
	if e, _ := s.Get(20, 30); e.X != 20 {
		t.Fatalf("snapshot aliases store state")
	}
}
