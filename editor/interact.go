package editor

import (
	"github.com/gekko3d/voxelverse/placement"
	"github.com/gekko3d/voxelverse/world"
)

// Outcome says what a click did. Both fields are empty when nothing changed.
type Outcome struct {
	Added     *world.Voxel
	RemovedID string
}

// Interact applies a click. With the remove tool, or with alt held, the
// voxel under the cursor is deleted by its identifier; ground hits delete
// nothing. Otherwise a voxel is created in the cell next to the clicked face
// (or on the ground) using the current selection.
//
// A nil hit means the pointer was over nothing and never mutates. The
// returned error is world.ErrAlreadyOccupied or world.ErrNotFound; callers
// on the interactive path may ignore it.
func (e *Editor) Interact(hit *placement.Hit, alt bool) (Outcome, error) {
	sel := e.Selection()

	if sel.Tool == ToolRemove || alt {
		if hit == nil || hit.VoxelID == "" {
			return Outcome{}, nil
		}
		if err := e.Remove(hit.VoxelID); err != nil {
			return Outcome{}, err
		}
		return Outcome{RemovedID: hit.VoxelID}, nil
	}

	pos, ok := placement.ResolveHit(hit)
	if !ok {
		return Outcome{}, nil
	}
	v, err := e.AddVoxel(pos, sel.Color, sel.Material)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Added: &v}, nil
}

// Preview returns the cell a click on hit would fill, for hover feedback.
// Only the add tool previews.
func (e *Editor) Preview(hit *placement.Hit) (world.Position, bool) {
	if e.Selection().Tool != ToolAdd {
		return world.Position{}, false
	}
	return placement.ResolveHit(hit)
}

// Pick hit-tests ray against the current world and the ground.
func (e *Editor) Pick(ray placement.Ray) *placement.Hit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Picker.Pick(e.store, ray)
}
