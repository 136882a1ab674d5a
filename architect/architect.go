// Package architect decodes generated structure responses into merge
// candidates and summarizes the world for the generator's context.
package architect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gekko3d/voxelverse/merge"
	"github.com/gekko3d/voxelverse/world"
)

var ErrInvalidResponse = errors.New("invalid architect response")

// Response is a generated structure: a short message and the voxels to add.
// Voxels may be empty, in which case nothing is applied.
type Response struct {
	Message string  `json:"message"`
	Voxels  []Voxel `json:"voxels,omitempty"`
}

// Voxel is one proposed block as the generator writes it. Coordinates are
// kept raw so that one bad entry does not reject the whole response.
type Voxel struct {
	X     json.RawMessage `json:"x"`
	Y     json.RawMessage `json:"y"`
	Z     json.RawMessage `json:"z"`
	Color string          `json:"color"`
	Type  string          `json:"type,omitempty"`
}

// Decode reads one response document.
func Decode(r io.Reader) (Response, error) {
	var resp Response
	dec := json.NewDecoder(r)
	if err := dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return resp, nil
}

// Candidates converts the response voxels. Entries with a missing or
// non-numeric coordinate or an unparseable color are dropped and counted.
// A missing type means Solid; an unrecognized one is Solid as well.
func (resp Response) Candidates() ([]merge.Candidate, int) {
	out := make([]merge.Candidate, 0, len(resp.Voxels))
	dropped := 0
	for _, v := range resp.Voxels {
		c, ok := v.candidate()
		if !ok {
			dropped++
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}

func (v Voxel) candidate() (merge.Candidate, bool) {
	var coords [3]float64
	for i, raw := range [3]json.RawMessage{v.X, v.Y, v.Z} {
		f, ok := number(raw)
		if !ok {
			return merge.Candidate{}, false
		}
		coords[i] = f
	}
	color, err := world.ParseColor(v.Color)
	if err != nil {
		return merge.Candidate{}, false
	}
	c := merge.Candidate{X: coords[0], Y: coords[1], Z: coords[2], Color: color}
	if v.Type != "" {
		m := world.ParseMaterial(v.Type)
		c.Material = &m
	}
	return c, true
}

// number accepts JSON numbers and strings holding a number.
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Describe summarizes w for the generator: how many voxels exist, the
// occupied bounds and the material mix.
func Describe(w world.World) string {
	if len(w) == 0 {
		return "The world is empty. The ground is y=0 and structures are centered on (0,0)."
	}
	min, max, _ := w.Bounds()
	var counts [3]int
	for _, v := range w {
		if int(v.Material) < len(counts) {
			counts[v.Material]++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The world has %d voxels spanning x %d..%d, y %d..%d, z %d..%d.",
		len(w), min.X(), max.X(), min.Y(), max.Y(), min.Z(), max.Z())
	fmt.Fprintf(&b, " Materials: %d %s, %d %s, %d %s.",
		counts[world.Solid], world.Solid, counts[world.Glass], world.Glass, counts[world.Emissive], world.Emissive)
	b.WriteString(" New voxels landing on occupied cells are skipped.")
	return b.String()
}
