// Package placement turns pointer interactions into grid cells.
//
// A hit is either a voxel face (point on the face plus its outward normal) or
// the ground plane. Resolving never touches the store; the caller decides
// whether the resulting cell can be filled.
package placement

import (
	"math"

	"github.com/gekko3d/voxelverse/world"
	"github.com/go-gl/mathgl/mgl32"
)

// Hit is what the interaction layer reports for a pointer event.
type Hit struct {
	Point  mgl32.Vec3
	Normal mgl32.Vec3

	// VoxelID is the voxel under the cursor. Empty for ground hits.
	VoxelID string
	Ground  bool
}

// Resolve returns the cell just outside the face that was hit. The point is
// pushed half a cell along the normal before flooring so the clicked cell
// itself is never returned.
func Resolve(point, normal mgl32.Vec3) world.Position {
	return world.Position{
		floorHalf(point.X(), normal.X()),
		floorHalf(point.Y(), normal.Y()),
		floorHalf(point.Z(), normal.Z()),
	}
}

// ResolveGround snaps a ground-plane point to a cell at height 0.
func ResolveGround(point mgl32.Vec3) world.Position {
	return world.Position{
		int(math.Floor(float64(point.X()) + 0.5)),
		0,
		int(math.Floor(float64(point.Z()) + 0.5)),
	}
}

// ResolveHit resolves a hit of either kind. A nil hit means the pointer was
// not over any surface and there is no candidate.
func ResolveHit(hit *Hit) (world.Position, bool) {
	if hit == nil {
		return world.Position{}, false
	}
	if hit.Ground {
		return ResolveGround(hit.Point), true
	}
	return Resolve(hit.Point, hit.Normal), true
}

func floorHalf(p, n float32) int {
	return int(math.Floor(float64(p) + float64(n)*0.5 + 0.5))
}
