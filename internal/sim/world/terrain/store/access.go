package store

import (
	"fmt"

	"haven.world/internal/sim/world/kernel/model"
)

func (s *Store) Get(x, y int) (model.Entity, bool) {
	e, ok := s.byCell[model.Cell{X: x, Y: y}]
	return e, ok
}

func (s *Store) ByID(id string) (model.Entity, bool) {
	c, ok := s.byID[id]
	if !ok {
		return model.Entity{}, false
	}
	return s.byCell[c], true
}

func (s *Store) Occupied(x, y int) bool {
	_, ok := s.byCell[model.Cell{X: x, Y: y}]
	return ok
}

// Add places a new entity at (x, y). It reports false, changing nothing, when the cell
// is taken or outside the map.
func (s *Store) Add(asset model.Asset, role model.Role, x, y int) (model.Entity, bool) {
	if !s.InBounds(x, y) || s.Occupied(x, y) {
		return model.Entity{}, false
	}
	e := model.Entity{
		ID:    s.nextID(asset, x, y),
		Asset: asset,
		Role:  role,
		X:     x,
		Y:     y,
	}
	s.insert(e)
	s.version++
	s.persist()
	return e, true
}

// Restore puts back an entity previously returned by Remove, keeping its id. Used to
// undo a removal whose follow-up failed.
func (s *Store) Restore(e model.Entity) bool {
	if !s.InBounds(e.X, e.Y) || s.Occupied(e.X, e.Y) {
		return false
	}
	if _, ok := s.byID[e.ID]; ok {
		return false
	}
	s.insert(e)
	s.version++
	s.persist()
	return true
}

func (s *Store) Remove(x, y int) (model.Entity, bool) {
	c := model.Cell{X: x, Y: y}
	e, ok := s.byCell[c]
	if !ok {
		return model.Entity{}, false
	}
	delete(s.byCell, c)
	delete(s.byID, e.ID)
	for i := range s.entities {
		if s.entities[i].ID == e.ID {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			break
		}
	}
	s.version++
	s.persist()
	return e, true
}

func (s *Store) insert(e model.Entity) {
	s.entities = append(s.entities, e)
	s.byCell[e.Cell()] = e
	s.byID[e.ID] = e.Cell()
}

func (s *Store) nextID(asset model.Asset, x, y int) string {
	id := model.PlacedID(asset, x, y, s.now().UnixMilli())
	if _, taken := s.byID[id]; !taken {
		return id
	}
	for n := 1; ; n++ {
		cand := fmt.Sprintf("%s_%d", id, n)
		if _, taken := s.byID[cand]; !taken {
			return cand
		}
	}
}
