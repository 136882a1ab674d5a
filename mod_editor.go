package voxelverse

import (
	"errors"

	"github.com/gekko3d/voxelverse/editor"
	"github.com/gekko3d/voxelverse/world"
)

// EditorModule installs the editor, the pointer queue and the system that
// turns queued pointer events into edits.
type EditorModule struct {
	HistoryCapacity  int
	Selection        *editor.Selection
	GroundHalfExtent float32
}

func (m EditorModule) Install(app *App, cmd *Commands) {
	ed := editor.New(m.HistoryCapacity)
	if m.Selection != nil {
		ed.SetSelection(*m.Selection)
	}
	if m.GroundHalfExtent > 0 {
		ed.Picker.GroundHalfExtent = m.GroundHalfExtent
	}

	cmd.AddResources(ed, &PointerInput{}, &HoverPreview{})
	app.UseSystem(
		System(pointerSystem).
			InStage(PreUpdate),
	)
}

// pointerSystem applies queued pointer events in arrival order.
func pointerSystem(cmd *Commands, input *PointerInput, ed *editor.Editor, preview *HoverPreview) {
	log := cmd.Logger()
	metrics := Resource[Metrics](cmd.app)

	for _, ev := range input.drain() {
		hit := ev.Hit
		if ev.Ray != nil {
			hit = ed.Pick(*ev.Ray)
		}

		if ev.Hover {
			preview.set(ed.Preview(hit))
			continue
		}

		out, err := ed.Interact(hit, ev.Alt)
		if metrics != nil {
			metrics.ObserveInteraction(out, err)
		}
		switch {
		case errors.Is(err, world.ErrAlreadyOccupied):
			log.Debugf("cell already occupied, click ignored")
		case errors.Is(err, world.ErrNotFound):
			log.Debugf("voxel under cursor is gone, click ignored")
		case err != nil:
			log.Warnf("interaction failed: %v", err)
		case out.Added != nil:
			log.Debugf("placed %s at %s", out.Added.Material, out.Added.Position)
		case out.RemovedID != "":
			log.Debugf("removed voxel %s", out.RemovedID)
		}
	}
}
