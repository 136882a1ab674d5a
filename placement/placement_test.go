package placement

import (
	"testing"

	"github.com/gekko3d/voxelverse/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var axisNormals = []mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

func TestResolve_AdjacentToClickedFace(t *testing.T) {
	cells := []world.Position{{0, 0, 0}, {3, 2, -4}, {-7, 5, 1}}
	// Offsets within a face, away from the edges.
	jitter := []float32{-0.3, 0, 0.2, 0.45}

	for _, cell := range cells {
		center := mgl32.Vec3{float32(cell[0]), float32(cell[1]), float32(cell[2])}
		for _, n := range axisNormals {
			for _, j := range jitter {
				// Point on the face: center + n/2, moved along the two other axes.
				p := center.Add(n.Mul(0.5))
				for i := 0; i < 3; i++ {
					if n[i] == 0 {
						p[i] += j
					}
				}

				got := Resolve(p, n)
				want := cell.Add(world.Position{int(n[0]), int(n[1]), int(n[2])})
				assert.Equal(t, want, got, "cell %v normal %v point %v", cell, n, p)
			}
		}
	}
}

func TestResolveGround_HeightIsZero(t *testing.T) {
	points := []mgl32.Vec3{
		{0, -0.5, 0},
		{2.4, -0.5, -3.6},
		{-0.49, -0.5, 0.51},
		{12.7, 4, -1.2}, // y of the input is ignored
	}
	want := []world.Position{{0, 0, 0}, {2, 0, -4}, {0, 0, 1}, {13, 0, -1}}
	for i, p := range points {
		got := ResolveGround(p)
		assert.Equal(t, 0, got.Y())
		assert.Equal(t, want[i], got)
	}
}

func TestResolveHit(t *testing.T) {
	_, ok := ResolveHit(nil)
	assert.False(t, ok)

	pos, ok := ResolveHit(&Hit{Point: mgl32.Vec3{1.2, -0.5, 0.7}, Normal: mgl32.Vec3{0, 1, 0}, Ground: true})
	require.True(t, ok)
	assert.Equal(t, world.Position{1, 0, 1}, pos)

	pos, ok = ResolveHit(&Hit{Point: mgl32.Vec3{0.1, 0.5, 0.2}, Normal: mgl32.Vec3{0, 1, 0}, VoxelID: "v"})
	require.True(t, ok)
	assert.Equal(t, world.Position{0, 1, 0}, pos)
}

func storeOf(w world.World) *world.Store {
	s := world.NewStore()
	s.Restore(w)
	return s
}

func TestPicker_HitsNearestFace(t *testing.T) {
	w := world.World{
		{ID: "near", Position: world.Position{0, 0, 0}},
		{ID: "far", Position: world.Position{0, 0, -3}},
	}
	ray := Ray{Origin: mgl32.Vec3{0.1, 0.2, 10}, Direction: mgl32.Vec3{0, 0, -1}}

	hit := NewPicker().Pick(storeOf(w), ray)
	require.NotNil(t, hit)
	assert.Equal(t, "near", hit.VoxelID)
	assert.False(t, hit.Ground)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, hit.Normal)
	assert.InDelta(t, 0.5, hit.Point.Z(), 1e-5)

	pos, ok := ResolveHit(hit)
	require.True(t, ok)
	assert.Equal(t, world.Position{0, 0, 1}, pos)
}

func TestPicker_GroundWhenNoVoxel(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{2.2, 10, -1.7}, Direction: mgl32.Vec3{0, -1, 0}}
	hit := NewPicker().Pick(world.NewStore(), ray)
	require.NotNil(t, hit)
	assert.True(t, hit.Ground)
	assert.Empty(t, hit.VoxelID)
	assert.InDelta(t, -0.5, hit.Point.Y(), 1e-5)

	pos, _ := ResolveHit(hit)
	assert.Equal(t, world.Position{2, 0, -2}, pos)
}

func TestPicker_TopFaceBeatsGround(t *testing.T) {
	w := world.World{{ID: "a", Position: world.Position{0, 0, 0}}}
	ray := Ray{Origin: mgl32.Vec3{0, 10, 0}, Direction: mgl32.Vec3{0, -1, 0}}

	hit := NewPicker().Pick(storeOf(w), ray)
	require.NotNil(t, hit)
	assert.Equal(t, "a", hit.VoxelID)
	pos, _ := ResolveHit(hit)
	assert.Equal(t, world.Position{0, 1, 0}, pos)
}

func TestPicker_Miss(t *testing.T) {
	// Pointing at the sky.
	ray := Ray{Origin: mgl32.Vec3{0, 5, 0}, Direction: mgl32.Vec3{0, 1, 0}}
	assert.Nil(t, NewPicker().Pick(storeOf(world.World{{ID: "a"}}), ray))

	// Ground outside the plane's extent.
	ray = Ray{Origin: mgl32.Vec3{80, 5, 0}, Direction: mgl32.Vec3{0, -1, 0}}
	assert.Nil(t, NewPicker().Pick(world.NewStore(), ray))
}

func TestPickRay_CenterLooksAtTarget(t *testing.T) {
	cam := DefaultCamera()
	ray := PickRay(400, 300, 800, 600, cam)

	want := cam.Target.Sub(cam.Position).Normalize()
	assert.InDelta(t, want.X(), ray.Direction.X(), 1e-5)
	assert.InDelta(t, want.Y(), ray.Direction.Y(), 1e-5)
	assert.InDelta(t, want.Z(), ray.Direction.Z(), 1e-5)
	assert.Equal(t, cam.Position, ray.Origin)

	// The centre ray from the default camera lands on the ground just in
	// front of the origin.
	hit := NewPicker().Pick(world.NewStore(), ray)
	require.NotNil(t, hit)
	assert.True(t, hit.Ground)
	assert.InDelta(t, -0.5, hit.Point.X(), 1e-4)
	assert.InDelta(t, -0.5, hit.Point.Z(), 1e-4)
}
