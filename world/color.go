package world

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Color is a 24-bit RGB paint value.
type Color struct {
	R, G, B uint8
}

var ErrInvalidColor = errors.New("invalid color")

// RGB builds a color from a packed 0xRRGGBB value.
func RGB(hex uint32) Color {
	return Color{R: uint8(hex >> 16), G: uint8(hex >> 8), B: uint8(hex)}
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// ParseColor accepts "#rgb", "#rrggbb" (the '#' is optional) and CSS color
// names.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return Color{R: c.R, G: c.G, B: c.B}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return RGB(uint32(v)), nil
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DefaultPalette is the editor's stock swatch set; the first entry is the
// initial selection.
var DefaultPalette = []Color{
	RGB(0xef4444), // red
	RGB(0xf97316), // orange
	RGB(0xeab308), // yellow
	RGB(0x22c55e), // green
	RGB(0x3b82f6), // blue
	RGB(0xa855f7), // purple
	RGB(0xec4899), // pink
	RGB(0xffffff), // white
	RGB(0x94a3b8), // gray
	RGB(0x1e293b), // dark blue
	RGB(0x78350f), // brown
	RGB(0x000000), // black
}
