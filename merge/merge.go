// Package merge reconciles externally proposed voxel batches against the
// store.
package merge

import (
	"math"

	"github.com/gekko3d/voxelverse/history"
	"github.com/gekko3d/voxelverse/world"
)

// maxCoord bounds accepted coordinates so float->int conversion is exact.
const maxCoord = 1 << 24

// Candidate is a proposed voxel. Coordinates may be fractional; a nil
// Material means Solid.
type Candidate struct {
	X, Y, Z  float64
	Color    world.Color
	Material *world.Material
}

// Cell is a candidate after normalization.
type Cell struct {
	Position world.Position
	Color    world.Color
	Material world.Material
}

// Plan is the outcome of normalizing and filtering a batch, before anything
// is committed.
type Plan struct {
	Cells []Cell

	// Collisions counts candidates dropped because the store already holds
	// their cell.
	Collisions int
	// Overridden counts candidates replaced by a later one for the same cell.
	Overridden int
	// Invalid counts candidates with non-finite or out of range coordinates.
	Invalid int
}

// Occupancy is the read side of the store that filtering needs.
type Occupancy interface {
	Contains(pos world.Position) bool
}

// Normalize rounds a candidate onto the grid and defaults its material.
// Halves round up, so -0.5 becomes 0 and 2.5 becomes 3.
func Normalize(c Candidate) (Cell, bool) {
	var pos world.Position
	for i, v := range [3]float64{c.X, c.Y, c.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxCoord {
			return Cell{}, false
		}
		pos[i] = int(math.Floor(v + 0.5))
	}
	mat := world.Solid
	if c.Material != nil {
		mat = *c.Material
	}
	return Cell{Position: pos, Color: c.Color, Material: mat}, true
}

// Build normalizes batch and drops every candidate whose cell is occupied in
// occ. Two candidates landing on the same free cell collapse into one slot:
// the later candidate's paint wins, the earlier candidate's order is kept.
func Build(occ Occupancy, batch []Candidate) Plan {
	var plan Plan
	slots := make(map[world.Position]int, len(batch))
	for _, c := range batch {
		cell, ok := Normalize(c)
		if !ok {
			plan.Invalid++
			continue
		}
		if occ.Contains(cell.Position) {
			plan.Collisions++
			continue
		}
		if idx, dup := slots[cell.Position]; dup {
			plan.Cells[idx] = cell
			plan.Overridden++
			continue
		}
		slots[cell.Position] = len(plan.Cells)
		plan.Cells = append(plan.Cells, cell)
	}
	return plan
}

// Result reports what a merge did.
type Result struct {
	Plan
	Inserted []world.Voxel
}

// Apply merges batch into store. When at least one cell survives filtering,
// one snapshot of the pre-merge world is recorded in hist before the cells
// are appended with fresh identifiers. A batch that inserts nothing leaves
// both store and history untouched.
func Apply(store *world.Store, hist *history.History, batch []Candidate) Result {
	res := Result{Plan: Build(store, batch)}
	if len(res.Cells) == 0 {
		return res
	}
	hist.Record(store.Snapshot())
	res.Inserted = make([]world.Voxel, 0, len(res.Cells))
	for _, cell := range res.Cells {
		v, err := store.Add(cell.Position, cell.Color, cell.Material)
		if err != nil {
			// Build already filtered occupied and duplicate cells.
			continue
		}
		res.Inserted = append(res.Inserted, v)
	}
	return res
}
