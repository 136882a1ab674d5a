package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/voxelverse/world"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vox(x, y, z int, hex uint32, m world.Material) world.Voxel {
	return world.Voxel{ID: world.NewID(), Position: world.Position{x, y, z}, Color: world.RGB(hex), Material: m}
}

func TestBuild_SingleCube(t *testing.T) {
	doc, stats := Build(world.World{vox(0, 0, 0, 0xef4444, world.Solid)})

	assert.Equal(t, Stats{Voxels: 1, Groups: 1, Faces: 6}, stats)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Meshes[0].Primitives, 1)
	require.Len(t, doc.Materials, 1)
	assert.Equal(t, gltf.AlphaOpaque, doc.Materials[0].AlphaMode)
	assert.Equal(t, []int{0}, doc.Scenes[0].Nodes)

	prim := doc.Meshes[0].Primitives[0]
	assert.Equal(t, gltf.PrimitiveAttributes{gltf.POSITION: 0, gltf.NORMAL: 1}, prim.Attributes)
	require.NotNil(t, prim.Indices)
	require.NotNil(t, prim.Material)
	assert.Equal(t, 2, *prim.Indices)
	assert.Equal(t, 0, *prim.Material)
}

func TestBuild_CullsSharedFaces(t *testing.T) {
	_, stats := Build(world.World{
		vox(0, 0, 0, 0xef4444, world.Solid),
		vox(1, 0, 0, 0x3b82f6, world.Solid),
	})
	assert.Equal(t, 10, stats.Faces)
	assert.Equal(t, 2, stats.Groups)
}

func TestBuild_GlassNeighbors(t *testing.T) {
	// solid keeps its face toward glass, glass hides its face toward solid
	_, stats := Build(world.World{
		vox(0, 0, 0, 0xef4444, world.Solid),
		vox(0, 1, 0, 0x3b82f6, world.Glass),
	})
	assert.Equal(t, 11, stats.Faces)

	_, stats = Build(world.World{
		vox(0, 0, 0, 0x3b82f6, world.Glass),
		vox(0, 0, 1, 0x3b82f6, world.Glass),
	})
	assert.Equal(t, 10, stats.Faces)
	assert.Equal(t, 1, stats.Groups)
}

func TestBuild_GlassDrawsLast(t *testing.T) {
	doc, _ := Build(world.World{
		vox(0, 0, 0, 0x3b82f6, world.Glass),
		vox(5, 0, 0, 0xef4444, world.Solid),
		vox(9, 0, 0, 0xfacc15, world.Emissive),
	})
	require.Len(t, doc.Materials, 3)
	assert.Equal(t, gltf.AlphaOpaque, doc.Materials[0].AlphaMode)
	assert.Equal(t, gltf.AlphaOpaque, doc.Materials[1].AlphaMode)
	assert.Equal(t, gltf.AlphaBlend, doc.Materials[2].AlphaMode)
	assert.NotZero(t, doc.Materials[1].EmissiveFactor[0])
}

func TestBuild_Empty(t *testing.T) {
	doc, stats := Build(nil)
	assert.Zero(t, stats.Faces)
	assert.Empty(t, doc.Meshes)
	assert.Empty(t, doc.Scenes[0].Nodes)
}

func TestMaterialFor(t *testing.T) {
	c := world.RGB(0x112233)

	solid := MaterialFor(c, world.Solid)
	assert.True(t, solid.Opaque())
	assert.Equal(t, [4]uint8{}, solid.Emissive)

	glass := MaterialFor(c, world.Glass)
	assert.False(t, glass.Opaque())
	assert.InDelta(t, 0.35, glass.baseColorFactor()[3], 1e-6)

	emit := MaterialFor(c, world.Emissive)
	assert.Equal(t, [4]uint8{0x11, 0x22, 0x33, 255}, emit.Emissive)
}

func TestWriteGLB(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGLB(&buf, world.World{
		vox(0, 0, 0, 0xef4444, world.Solid),
		vox(0, 1, 0, 0x22c55e, world.Emissive),
	}))
	require.Greater(t, buf.Len(), 12)
	assert.Equal(t, "glTF", string(buf.Bytes()[:4]))

	var doc gltf.Document
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&doc))
	require.Len(t, doc.Meshes, 1)
	assert.Len(t, doc.Meshes[0].Primitives, 2)
}

func TestWriteGLTF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGLTF(&buf, world.World{vox(0, 0, 0, 0xef4444, world.Solid)}))
	assert.Equal(t, byte('{'), bytes.TrimSpace(buf.Bytes())[0])
	assert.Contains(t, buf.String(), "data:application/octet-stream;base64,")
	assert.Contains(t, buf.String(), Generator)
}

func TestSaveFile(t *testing.T) {
	dir := t.TempDir()
	w := world.World{vox(0, 0, 0, 0xef4444, world.Solid)}

	read := func(name string) []byte {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return data
	}

	// the extension wins over the flag
	require.NoError(t, SaveFile(filepath.Join(dir, "scene.glb"), w, false))
	require.NoError(t, SaveFile(filepath.Join(dir, "scene.gltf"), w, true))
	assert.Equal(t, "glTF", string(read("scene.glb")[:4]))
	assert.Equal(t, byte('{'), bytes.TrimSpace(read("scene.gltf"))[0])

	require.NoError(t, SaveFile(filepath.Join(dir, "scene.bin"), w, true))
	require.NoError(t, SaveFile(filepath.Join(dir, "scene.out"), w, false))
	assert.Equal(t, "glTF", string(read("scene.bin")[:4]))
	assert.Equal(t, byte('{'), bytes.TrimSpace(read("scene.out"))[0])
}
