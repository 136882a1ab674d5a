// Package persist saves and restores the world as an ordered JSON array of
// {id, position:[x,y,z], color, type} records.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/voxelverse/world"
)

// ErrMalformed reports persisted data that is not a JSON array of records.
// Callers treat it as an empty world.
var ErrMalformed = errors.New("malformed world data")

type record struct {
	ID       string          `json:"id"`
	Position json.RawMessage `json:"position"`
	Color    string          `json:"color"`
	Type     string          `json:"type"`
}

// Encode serializes w in order.
func Encode(w world.World) ([]byte, error) {
	return json.Marshal(w)
}

// Decode parses data written by Encode. Individual records that cannot be
// used are skipped and counted: a position that is not three finite numbers
// or a color that does not parse. Unknown material tags become Solid and a
// missing id gets a fresh one. Empty input is an empty world.
func Decode(data []byte) (world.World, int, error) {
	if len(data) == 0 {
		return world.World{}, 0, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return world.World{}, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	w := make(world.World, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		v, ok := decodeRecord(raw)
		if !ok {
			dropped++
			continue
		}
		w = append(w, v)
	}
	return w, dropped, nil
}

func decodeRecord(raw json.RawMessage) (world.Voxel, bool) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return world.Voxel{}, false
	}
	var coords []float64
	if err := json.Unmarshal(rec.Position, &coords); err != nil || len(coords) != 3 {
		return world.Voxel{}, false
	}
	var pos world.Position
	for i, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return world.Voxel{}, false
		}
		pos[i] = int(math.Floor(c + 0.5))
	}
	color, err := world.ParseColor(rec.Color)
	if err != nil {
		return world.Voxel{}, false
	}
	id := rec.ID
	if id == "" {
		id = world.NewID()
	}
	return world.Voxel{
		ID:       id,
		Position: pos,
		Color:    color,
		Material: world.ParseMaterial(rec.Type),
	}, true
}
