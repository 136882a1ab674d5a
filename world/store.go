package world

import (
	"errors"
)

var (
	ErrAlreadyOccupied = errors.New("cell already occupied")
	ErrNotFound        = errors.New("voxel not found")
)

// Store is the authoritative set of placed voxels. It guarantees that no two
// voxels share a cell. It is not safe for concurrent use and takes no history
// snapshots; callers compose that.
type Store struct {
	voxels   []Voxel
	occupied map[Position]int // cell -> index into voxels
}

func NewStore() *Store {
	return &Store{
		occupied: make(map[Position]int),
	}
}

func (s *Store) Len() int {
	return len(s.voxels)
}

func (s *Store) Contains(pos Position) bool {
	_, ok := s.occupied[pos]
	return ok
}

// At returns the voxel occupying pos.
func (s *Store) At(pos Position) (Voxel, bool) {
	idx, ok := s.occupied[pos]
	if !ok {
		return Voxel{}, false
	}
	return s.voxels[idx], true
}

func (s *Store) Get(id string) (Voxel, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Voxel{}, false
	}
	return s.voxels[idx], true
}

// Add places a new voxel with a fresh identifier. The store is left untouched
// when the cell is already taken.
func (s *Store) Add(pos Position, color Color, material Material) (Voxel, error) {
	if s.Contains(pos) {
		return Voxel{}, ErrAlreadyOccupied
	}
	v := Voxel{
		ID:       NewID(),
		Position: pos,
		Color:    color,
		Material: material,
	}
	s.insert(v)
	return v, nil
}

func (s *Store) Remove(id string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	delete(s.occupied, s.voxels[idx].Position)
	s.voxels = append(s.voxels[:idx], s.voxels[idx+1:]...)
	for i := idx; i < len(s.voxels); i++ {
		s.occupied[s.voxels[i].Position] = i
	}
	return nil
}

func (s *Store) Clear() {
	s.voxels = nil
	clear(s.occupied)
}

// Snapshot returns a deep copy of the current world in insertion order.
func (s *Store) Snapshot() World {
	out := make(World, len(s.voxels))
	copy(out, s.voxels)
	return out
}

// Restore replaces the contents with w. Records that would break the
// one-voxel-per-cell rule, or that reuse an identifier, are dropped; the
// first occurrence wins. It returns how many were dropped.
func (s *Store) Restore(w World) int {
	s.Clear()
	ids := make(map[string]struct{}, len(w))
	dropped := 0
	for _, v := range w {
		if s.Contains(v.Position) {
			dropped++
			continue
		}
		if v.ID == "" {
			v.ID = NewID()
		}
		if _, dup := ids[v.ID]; dup {
			dropped++
			continue
		}
		ids[v.ID] = struct{}{}
		s.insert(v)
	}
	return dropped
}

// Each calls fn for every voxel in insertion order until fn returns false.
func (s *Store) Each(fn func(v Voxel) bool) {
	for _, v := range s.voxels {
		if !fn(v) {
			return
		}
	}
}

func (s *Store) insert(v Voxel) {
	s.occupied[v.Position] = len(s.voxels)
	s.voxels = append(s.voxels, v)
}

func (s *Store) indexOf(id string) int {
	for i := range s.voxels {
		if s.voxels[i].ID == id {
			return i
		}
	}
	return -1
}
