package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"haven.world/internal/persistence/indexdb"
	"haven.world/internal/persistence/snapshot"
	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/tuning"
	"haven.world/internal/sim/world"
	"haven.world/internal/sim/world/kernel/model"
	"haven.world/internal/sim/world/terrain/store"
)

type runtimeIndex interface {
	world.AuditLogger
	Close() error
	UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error
	RecordSnapshot(path string, version uint64, entities int, at time.Time)
	Stats() indexdb.Stats
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("HAVEN_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "world.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported HAVEN_INDEX_BACKEND: %s", backend)
	}
}

// indexedWorldFile notes every successful world save in the index.
type indexedWorldFile struct {
	snapshot.WorldFile
	idx runtimeIndex
	// st is nil while the store itself is opening.
	st *store.Store
}

func (f *indexedWorldFile) SaveWorld(entities []model.Entity) error {
	if err := f.WorldFile.SaveWorld(entities); err != nil {
		return err
	}
	if f.idx != nil {
		var version uint64
		if f.st != nil {
			version = f.st.Version()
		}
		f.idx.RecordSnapshot(f.Path, version, len(entities), time.Now())
	}
	return nil
}
