package store

import (
	"crypto/sha256"
	"encoding/json"

	"haven.world/internal/sim/world/kernel/model"
)

// Snapshot copies the collection in insertion order.
func (s *Store) Snapshot() []model.Entity {
	out := make([]model.Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Digest hashes the serialised collection. Equal digests mean a client holding one
// snapshot can skip the other.
func (s *Store) Digest() [32]byte {
	b, _ := json.Marshal(s.entities)
	return sha256.Sum256(b)
}

func (s *Store) persist() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveWorld(s.Snapshot()); err != nil {
		s.log.WithError(err).Error("persist world")
	}
}
