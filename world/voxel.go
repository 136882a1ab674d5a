package world

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Position is an integer grid cell. A voxel at (x,y,z) is the unit cube
// centered on that point.
type Position [3]int

func (p Position) X() int { return p[0] }
func (p Position) Y() int { return p[1] }
func (p Position) Z() int { return p[2] }

// Add returns p offset by d.
func (p Position) Add(d Position) Position {
	return Position{p[0] + d[0], p[1] + d[1], p[2] + d[2]}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

type Material uint8

const (
	Solid Material = iota
	Glass
	Emissive
)

var materialNames = [...]string{
	Solid:    "SOLID",
	Glass:    "GLASS",
	Emissive: "EMISSIVE",
}

func (m Material) String() string {
	if int(m) < len(materialNames) {
		return materialNames[m]
	}
	return materialNames[Solid]
}

// ParseMaterial maps the textual tag to a Material. Anything it does not
// recognize is Solid.
func ParseMaterial(s string) Material {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GLASS":
		return Glass
	case "EMISSIVE":
		return Emissive
	default:
		return Solid
	}
}

func (m Material) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Material) UnmarshalText(text []byte) error {
	*m = ParseMaterial(string(text))
	return nil
}

// Voxel is immutable once placed; changing one means removing it and adding
// a new one.
type Voxel struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Color    Color    `json:"color"`
	Material Material `json:"type"`
}

// World is an ordered set of voxels. Order is insertion order and has no
// meaning beyond rendering.
type World []Voxel

// Clone returns a deep copy. Voxel holds only value fields so a slice copy is
// enough.
func (w World) Clone() World {
	if w == nil {
		return nil
	}
	out := make(World, len(w))
	copy(out, w)
	return out
}

func (w World) MarshalJSON() ([]byte, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Voxel(w))
}

// Bounds returns the inclusive min and max cells. ok is false for an empty
// world.
func (w World) Bounds() (min, max Position, ok bool) {
	if len(w) == 0 {
		return Position{}, Position{}, false
	}
	min, max = w[0].Position, w[0].Position
	for _, v := range w[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < min[i] {
				min[i] = v.Position[i]
			}
			if v.Position[i] > max[i] {
				max[i] = v.Position[i]
			}
		}
	}
	return min, max, true
}

// NewID is the identifier source for new voxels.
var NewID = func() string {
	return uuid.NewString()
}
