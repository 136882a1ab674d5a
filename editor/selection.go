package editor

import (
	"strings"

	"github.com/gekko3d/voxelverse/world"
)

type Tool uint8

const (
	ToolAdd Tool = iota
	ToolRemove
)

func (t Tool) String() string {
	if t == ToolRemove {
		return "REMOVE"
	}
	return "ADD"
}

func ParseTool(s string) Tool {
	if strings.EqualFold(strings.TrimSpace(s), "REMOVE") {
		return ToolRemove
	}
	return ToolAdd
}

func (t Tool) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tool) UnmarshalText(text []byte) error {
	*t = ParseTool(string(text))
	return nil
}

// Selection is the active paint and tool. Every creation reads it; undo does
// not touch it.
type Selection struct {
	Color    world.Color    `json:"color"`
	Material world.Material `json:"material"`
	Tool     Tool           `json:"tool"`
}

func DefaultSelection() Selection {
	return Selection{
		Color:    world.DefaultPalette[0],
		Material: world.Solid,
		Tool:     ToolAdd,
	}
}
