package store

import (
	"time"

	"github.com/sirupsen/logrus"

	"haven.world/internal/logging"
	"haven.world/internal/sim/world/kernel/model"
)

// Persister saves and restores the full entity collection. LoadWorld returns an empty
// slice and no error when nothing has been saved yet.
type Persister interface {
	LoadWorld() ([]model.Entity, error)
	SaveWorld(entities []model.Entity) error
}

type Config struct {
	Size int
	// Now stamps ids of entities added after boot. Defaults to time.Now.
	Now func() time.Time
}

// Store is the authoritative set of placed entities. It is not safe for concurrent
// use; the world goroutine owns it.
type Store struct {
	size int
	now  func() time.Time

	entities []model.Entity // insertion order, what gets persisted
	byCell   map[model.Cell]model.Entity
	byID     map[string]model.Cell

	version uint64

	persister Persister
	log       logrus.FieldLogger
}

func newStore(cfg Config, p Persister, log logrus.FieldLogger) *Store {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		size:      cfg.Size,
		now:       now,
		byCell:    map[model.Cell]model.Entity{},
		byID:      map[string]model.Cell{},
		persister: p,
		log:       log,
	}
}

func (s *Store) Size() int { return s.size }

func (s *Store) Len() int { return len(s.entities) }

// Version increases by one on every successful mutation.
func (s *Store) Version() uint64 { return s.version }

func (s *Store) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.size && y < s.size
}
