package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/matzehuels/boxdeck/pkg/errors"
)

// ParseColor accepts SVG color names ("orange", "lightgray"), "#RGB",
// "#RRGGBB", "#RRGGBBAA" and "transparent".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "transparent" || s == "none" {
		return color.RGBA{}, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	return color.RGBA{}, errors.New(errors.ErrCodeInvalidInput, "unknown color %q", s)
}

// MustColor is like ParseColor but panics on error. Intended for literals.
func MustColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(h string) (color.RGBA, error) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidInput, "invalid hex color #%s", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidInput, "invalid hex color #%s", h)
	}
	// Colors are stored non-premultiplied; renderers premultiply when needed.
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex formats c as "#rrggbb", ignoring alpha.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Opacity returns the alpha channel as a fraction.
func Opacity(c color.RGBA) float64 {
	return float64(c.A) / 255
}
