package domain

import (
	"math/rand/v2"
	"strconv"
)

// Color is a "#RRGGBB" hex string.
type Color string

// Vivid pastel palette used for cards and columns.
const (
	ColorPink   Color = "#FF99C8"
	ColorYellow Color = "#FFD700"
	ColorGreen  Color = "#77DD77"
	ColorBlue   Color = "#89CFF0"
	ColorOrange Color = "#FFB347"
	ColorPurple Color = "#CBAACB"
	ColorRed    Color = "#FF6961"
	ColorTeal   Color = "#77BFC7"
)

// Palette lists every color RandomColor may return.
var Palette = []Color{
	ColorPink,
	ColorYellow,
	ColorGreen,
	ColorBlue,
	ColorOrange,
	ColorPurple,
	ColorRed,
	ColorTeal,
}

// ColorSource returns the color for a newly observed bookmark or column.
type ColorSource func() Color

// RandomColor draws uniformly from Palette, with replacement.
// Collisions between bookmarks are expected.
func RandomColor() Color {
	return Palette[rand.IntN(len(Palette))]
}

// FixedColor returns a ColorSource that always yields c.
func FixedColor(c Color) ColorSource {
	return func() Color { return c }
}

// InPalette reports whether c is one of the palette colors.
func InPalette(c Color) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// ContrastColor returns "black" or "white", whichever reads better on c.
// Invalid colors are treated as black backgrounds.
func ContrastColor(c Color) string {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return "white"
	}
	r, errR := strconv.ParseUint(s[1:3], 16, 8)
	g, errG := strconv.ParseUint(s[3:5], 16, 8)
	b, errB := strconv.ParseUint(s[5:7], 16, 8)
	if errR != nil || errG != nil || errB != nil {
		return "white"
	}

	// Relative luminance (ITU-R BT.601 weights)
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	if luminance > 0.5 {
		return "black"
	}
	return "white"
}
