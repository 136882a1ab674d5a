// Package history keeps the bounded undo stack of world snapshots.
package history

import (
	"github.com/gekko3d/voxelverse/world"
)

// DefaultCapacity is how many pre-mutation states are retained.
const DefaultCapacity = 20

// History is a bounded deque of snapshots: pushed and popped at the tail,
// trimmed at the head once full. It is not safe for concurrent use.
type History struct {
	capacity int
	entries  []world.World
}

func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		capacity: capacity,
		entries:  make([]world.World, 0, capacity),
	}
}

// Record stores a deep copy of w, the state immediately before a mutation.
// The oldest entry is discarded when the history is full.
func (h *History) Record(w world.World) {
	snap := w.Clone()
	if snap == nil {
		snap = world.World{}
	}
	if len(h.entries) >= h.capacity {
		// Shift down rather than reslicing so the backing array does not grow.
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, snap)
}

// Undo pops the most recent snapshot. With an empty history it reports false
// and changes nothing.
func (h *History) Undo() (world.World, bool) {
	if len(h.entries) == 0 {
		return nil, false
	}
	last := len(h.entries) - 1
	w := h.entries[last]
	h.entries[last] = nil
	h.entries = h.entries[:last]
	return w, true
}

func (h *History) Len() int      { return len(h.entries) }
func (h *History) Capacity() int { return h.capacity }

// Reset drops every entry.
func (h *History) Reset() {
	clear(h.entries)
	h.entries = h.entries[:0]
}
