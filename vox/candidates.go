package vox

import (
	"fmt"

	"github.com/gekko3d/voxelverse/merge"
	"github.com/gekko3d/voxelverse/world"
)

// Candidates converts one model to structure candidates in world space.
// MagicaVoxel is Z-up; the result is Y-up, centered on the origin in x and z
// and resting on y=0. Glass and blend materials become Glass, emit becomes
// Emissive, everything else Solid.
func (f *File) Candidates(model int) ([]merge.Candidate, error) {
	if model < 0 || model >= len(f.Models) {
		return nil, fmt.Errorf("model %d out of range (file has %d)", model, len(f.Models))
	}
	m := f.Models[model]
	if len(m.Voxels) == 0 {
		return nil, nil
	}

	minZ := m.Voxels[0].Z
	for _, v := range m.Voxels[1:] {
		if v.Z < minZ {
			minZ = v.Z
		}
	}
	cx := int(m.SizeX / 2)
	cy := int(m.SizeY / 2)

	out := make([]merge.Candidate, 0, len(m.Voxels))
	for _, v := range m.Voxels {
		rgba := f.Palette[v.ColorIndex]
		c := merge.Candidate{
			X:     float64(int(v.X) - cx),
			Y:     float64(int(v.Z) - int(minZ)),
			Z:     float64(cy - int(v.Y)),
			Color: world.Color{R: rgba[0], G: rgba[1], B: rgba[2]},
		}
		if mat, ok := f.Materials[int(v.ColorIndex)]; ok {
			wm := mat.Type.World()
			c.Material = &wm
		}
		out = append(out, c)
	}
	return out, nil
}

// World maps a MagicaVoxel material type to an editor material.
func (t MaterialType) World() world.Material {
	switch t {
	case TypeGlass, TypeBlend:
		return world.Glass
	case TypeEmit:
		return world.Emissive
	default:
		return world.Solid
	}
}
