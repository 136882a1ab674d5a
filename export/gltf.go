// Package export writes the world as a glTF 2.0 scene of unit cubes.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gekko3d/voxelverse/world"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const Generator = "voxelverse"

type groupKey struct {
	color    world.Color
	material world.Material
}

type group struct {
	key       groupKey
	positions [][3]float32
	normals   [][3]float32
	indices   []uint32
}

// face describes one cube side by its outward normal and two in-plane axes
// with u x v = normal, so corners in (-u-v, +u-v, +u+v, -u+v) order wind
// counter-clockwise seen from outside.
type face struct {
	normal, u, v [3]int
}

var faces = [6]face{
	{normal: [3]int{1, 0, 0}, u: [3]int{0, 1, 0}, v: [3]int{0, 0, 1}},
	{normal: [3]int{-1, 0, 0}, u: [3]int{0, 0, 1}, v: [3]int{0, 1, 0}},
	{normal: [3]int{0, 1, 0}, u: [3]int{0, 0, 1}, v: [3]int{1, 0, 0}},
	{normal: [3]int{0, -1, 0}, u: [3]int{1, 0, 0}, v: [3]int{0, 0, 1}},
	{normal: [3]int{0, 0, 1}, u: [3]int{1, 0, 0}, v: [3]int{0, 1, 0}},
	{normal: [3]int{0, 0, -1}, u: [3]int{0, 1, 0}, v: [3]int{1, 0, 0}},
}

// Stats summarizes a built document.
type Stats struct {
	Voxels int
	Groups int
	Faces  int
}

// hidden reports whether the side of a voxel of material m facing a
// neighbor of material n is covered. Opaque neighbors cover everything;
// glass covers only glass.
func hidden(m, n world.Material) bool {
	if n != world.Glass {
		return true
	}
	return m == world.Glass
}

// Build meshes w into a glTF document: one primitive per (color, material)
// group, each a set of cubes centered on integer cells with covered faces
// removed.
func Build(w world.World) (*gltf.Document, Stats) {
	cells := make(map[world.Position]world.Material, len(w))
	for _, v := range w {
		cells[v.Position] = v.Material
	}

	groups := make(map[groupKey]*group)
	var order []groupKey
	stats := Stats{Voxels: len(w)}

	for _, v := range w {
		key := groupKey{color: v.Color, material: v.Material}
		g, ok := groups[key]
		if !ok {
			g = &group{key: key}
			groups[key] = g
			order = append(order, key)
		}
		for _, f := range faces {
			n := v.Position.Add(world.Position(f.normal))
			if nm, ok := cells[n]; ok && hidden(v.Material, nm) {
				continue
			}
			g.addFace(v.Position, f)
			stats.Faces++
		}
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator

	sort.SliceStable(order, func(i, j int) bool {
		// opaque first so blended primitives draw last
		return order[i].material != world.Glass && order[j].material == world.Glass
	})

	var prims []*gltf.Primitive
	for _, key := range order {
		g := groups[key]
		if len(g.indices) == 0 {
			continue
		}
		posAccessor := modeler.WritePosition(doc, g.positions)
		normalAccessor := modeler.WriteNormal(doc, g.normals)
		indicesAccessor := modeler.WriteIndices(doc, g.indices)

		doc.Materials = append(doc.Materials, gltfMaterial(key))
		prims = append(prims, &gltf.Primitive{
			Attributes: gltf.PrimitiveAttributes{
				gltf.POSITION: posAccessor,
				gltf.NORMAL:   normalAccessor,
			},
			Indices:  gltf.Index(indicesAccessor),
			Material: gltf.Index(len(doc.Materials) - 1),
		})
	}
	stats.Groups = len(prims)

	if len(prims) > 0 {
		doc.Meshes = []*gltf.Mesh{{Name: "World", Primitives: prims}}
		doc.Nodes = []*gltf.Node{{Name: "World", Mesh: gltf.Index(0)}}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	}
	return doc, stats
}

func (g *group) addFace(p world.Position, f face) {
	base := uint32(len(g.positions))
	center := [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
	normal := [3]float32{float32(f.normal[0]), float32(f.normal[1]), float32(f.normal[2])}
	for _, s := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		var corner [3]float32
		for i := 0; i < 3; i++ {
			corner[i] = center[i] + 0.5*normal[i] + 0.5*(s[0]*float32(f.u[i])+s[1]*float32(f.v[i]))
		}
		g.positions = append(g.positions, corner)
		g.normals = append(g.normals, normal)
	}
	g.indices = append(g.indices, base, base+1, base+2, base, base+2, base+3)
}

func gltfMaterial(key groupKey) *gltf.Material {
	m := MaterialFor(key.color, key.material)
	pbr := &gltf.PBRMetallicRoughness{}
	setColor(&pbr.BaseColorFactor, m.baseColorFactor())
	setScalar(&pbr.MetallicFactor, m.Metalness)
	setScalar(&pbr.RoughnessFactor, m.Roughness)
	mat := &gltf.Material{
		Name:                 fmt.Sprintf("%s %s", key.color, key.material),
		PBRMetallicRoughness: pbr,
	}
	if m.Opaque() {
		mat.AlphaMode = gltf.AlphaOpaque
	} else {
		mat.AlphaMode = gltf.AlphaBlend
		mat.DoubleSided = true
	}
	if key.material == world.Emissive {
		e := m.emissiveFactor()
		setFactor(&mat.EmissiveFactor, e[0], e[1], e[2])
	}
	return mat
}

// Factor setters, for either float width of the glTF fields.

func setFactor[T ~float32 | ~float64](dst *[3]T, r, g, b float64) {
	dst[0], dst[1], dst[2] = T(r), T(g), T(b)
}

func setColor[T ~float32 | ~float64](dst **[4]T, c [4]float32) {
	*dst = &[4]T{T(c[0]), T(c[1]), T(c[2]), T(c[3])}
}

func setScalar[T ~float32 | ~float64](dst **T, v float32) {
	x := T(v)
	*dst = &x
}

// WriteGLB writes w as a binary glTF.
func WriteGLB(out io.Writer, w world.World) error {
	doc, _ := Build(w)
	enc := gltf.NewEncoder(out)
	enc.AsBinary = true
	return enc.Encode(doc)
}

// WriteGLTF writes w as JSON glTF with the geometry buffer embedded as a
// data URI.
func WriteGLTF(out io.Writer, w world.World) error {
	doc, _ := Build(w)
	for _, b := range doc.Buffers {
		b.EmbeddedResource()
	}
	enc := gltf.NewEncoder(out)
	enc.AsBinary = false
	return enc.Encode(doc)
}

// SaveFile writes w to path. A .glb extension selects binary output and
// .gltf selects JSON; any other extension falls back to binary.
func SaveFile(path string, w world.World, binary bool) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		binary = true
	case ".gltf":
		binary = false
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	write := WriteGLTF
	if binary {
		write = WriteGLB
	}
	if err := write(f, w); err != nil {
		_ = f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}
