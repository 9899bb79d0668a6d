package store

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"haven.world/internal/sim/world/kernel/model"
)

// Open restores the world from p. When nothing usable was saved it runs generate once
// and persists the result straight away. A snapshot that cannot be read is an error:
// regenerating over it would destroy the saved world.
func Open(cfg Config, p Persister, generate func() []model.Entity, log logrus.FieldLogger) (*Store, error) {
	s := newStore(cfg, p, log)

	var loaded []model.Entity
	if p != nil {
		var err error
		loaded, err = p.LoadWorld()
		if err != nil {
			return nil, fmt.Errorf("load world: %w", err)
		}
	}

	if len(loaded) > 0 {
		s.restore(loaded)
		s.log.WithField("entities", len(s.entities)).Info("world loaded from snapshot")
		return s, nil
	}

	if generate != nil {
		s.restore(generate())
	}
	s.log.WithField("entities", len(s.entities)).Info("world generated")
	s.persist()
	return s, nil
}

func (s *Store) restore(entities []model.Entity) {
	for _, e := range entities {
		if !s.InBounds(e.X, e.Y) {
			s.log.WithField("id", e.ID).Warn("dropping out-of-bounds entity")
			continue
		}
		if _, ok := s.byCell[e.Cell()]; ok {
			s.log.WithField("id", e.ID).WithField("cell", e.Cell().String()).Warn("dropping entity on occupied cell")
			continue
		}
		if _, ok := s.byID[e.ID]; ok {
			s.log.WithField("id", e.ID).Warn("dropping entity with duplicate id")
			continue
		}
		s.insert(e)
	}
}
