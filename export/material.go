package export

import (
	"github.com/gekko3d/voxelverse/world"
)

// glassAlpha is the opacity glass is exported with.
const glassAlpha = 0.35

// Material describes how one (color, material) group is shaded.
type Material struct {
	BaseColor    [4]uint8 // RGBA
	Emissive     [4]uint8 // RGBA
	Roughness    float32
	Metalness    float32
	Transparency float32
}

func NewMaterial(baseColor [4]uint8, emissive [4]uint8) Material {
	return Material{
		BaseColor: baseColor,
		Emissive:  emissive,
		Roughness: 1.0,
		Metalness: 0.0,
	}
}

// MaterialFor maps a voxel's paint and material to its shading.
func MaterialFor(c world.Color, m world.Material) Material {
	base := [4]uint8{c.R, c.G, c.B, 255}
	switch m {
	case world.Glass:
		mat := NewMaterial(base, [4]uint8{})
		mat.Transparency = 1 - glassAlpha
		mat.Roughness = 0.1
		return mat
	case world.Emissive:
		return NewMaterial(base, base)
	default:
		return NewMaterial(base, [4]uint8{})
	}
}

func (m Material) Opaque() bool {
	return m.Transparency == 0
}

func (m Material) baseColorFactor() [4]float32 {
	return [4]float32{
		float32(m.BaseColor[0]) / 255,
		float32(m.BaseColor[1]) / 255,
		float32(m.BaseColor[2]) / 255,
		1 - m.Transparency,
	}
}

func (m Material) emissiveFactor() [3]float64 {
	return [3]float64{
		float64(m.Emissive[0]) / 255,
		float64(m.Emissive[1]) / 255,
		float64(m.Emissive[2]) / 255,
	}
}
