package placement

import (
	"math"

	"github.com/gekko3d/voxelverse/world"
	"github.com/go-gl/mathgl/mgl32"
)

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Camera is a Y-up look-at camera.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32 // degrees
}

// DefaultCamera matches the editor's opening view.
func DefaultCamera() Camera {
	return Camera{
		Position: mgl32.Vec3{10, 10, 10},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     50,
	}
}

// PickRay builds the world-space ray through a pixel.
func PickRay(mouseX, mouseY float64, width, height int, cam Camera) Ray {
	// Normalized Device Coordinates
	nx := (2.0*float32(mouseX))/float32(width) - 1.0
	ny := 1.0 - (2.0*float32(mouseY))/float32(height) // Flip Y for NDC

	forward := cam.Target.Sub(cam.Position).Normalize()
	up := cam.Up
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	right := forward.Cross(up).Normalize()
	camUp := right.Cross(forward)

	aspect := float32(width) / float32(height)
	tanHalfFov := float32(math.Tan(float64(mgl32.DegToRad(cam.FovY) / 2.0)))

	dir := forward.Add(right.Mul(nx * aspect * tanHalfFov)).Add(camUp.Mul(ny * tanHalfFov))
	return Ray{cam.Position, dir.Normalize()}
}

// Source is anything that can enumerate voxels, such as *world.Store.
type Source interface {
	Each(fn func(v world.Voxel) bool)
}

// Picker hit-tests rays against voxels and the ground plane.
type Picker struct {
	GroundHeight     float32 // y of the ground plane surface
	GroundHalfExtent float32 // ground spans [-e,e] on x and z
	MaxDistance      float32
}

func NewPicker() *Picker {
	return &Picker{
		GroundHeight:     -0.5,
		GroundHalfExtent: 50,
		MaxDistance:      1000,
	}
}

// Pick returns the closest surface along the ray, or nil when the ray hits
// nothing.
func (p *Picker) Pick(src Source, ray Ray) *Hit {
	closestT := p.MaxDistance
	var best *Hit

	half := mgl32.Vec3{0.5, 0.5, 0.5}
	src.Each(func(v world.Voxel) bool {
		center := mgl32.Vec3{float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2])}
		t, normal, ok := intersectAABB(ray, center.Sub(half), center.Add(half))
		if !ok || t > closestT {
			return true
		}
		closestT = t
		best = &Hit{
			Point:   ray.At(t),
			Normal:  normal,
			VoxelID: v.ID,
		}
		return true
	})

	if t, ok := p.intersectGround(ray); ok && t < closestT {
		best = &Hit{
			Point:  ray.At(t),
			Normal: mgl32.Vec3{0, 1, 0},
			Ground: true,
		}
	}
	return best
}

func (p *Picker) intersectGround(ray Ray) (float32, bool) {
	dy := ray.Direction.Y()
	if dy > -1e-8 {
		return 0, false
	}
	t := (p.GroundHeight - ray.Origin.Y()) / dy
	if t < 0 {
		return 0, false
	}
	hit := ray.At(t)
	e := p.GroundHalfExtent
	if hit.X() < -e || hit.X() > e || hit.Z() < -e || hit.Z() > e {
		return 0, false
	}
	return t, true
}

// intersectAABB is the slab test. It returns the entry distance and the
// outward normal of the entry face. Rays starting inside the box miss.
func intersectAABB(ray Ray, minB, maxB mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	tEnter := float32(-math.MaxFloat32)
	tExit := float32(math.MaxFloat32)
	axis := -1
	var sign float32

	for i := 0; i < 3; i++ {
		o, d := ray.Origin[i], ray.Direction[i]
		if math.Abs(float64(d)) < 1e-8 {
			if o < minB[i] || o > maxB[i] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		inv := 1.0 / d
		t1 := (minB[i] - o) * inv
		t2 := (maxB[i] - o) * inv
		n := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			n = 1
		}
		if t1 > tEnter {
			tEnter = t1
			axis = i
			sign = n
		}
		if t2 < tExit {
			tExit = t2
		}
	}

	if axis < 0 || tEnter > tExit || tEnter < 0 {
		return 0, mgl32.Vec3{}, false
	}
	var normal mgl32.Vec3
	normal[axis] = sign
	return tEnter, normal, true
}
