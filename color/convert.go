package color

import (
	"fmt"
	"math"
)

// Convert returns c expressed in space to. An unknown target space yields
// black, a transparent target always yields transparent, and a
// transparent source is converted as if it were black.
func Convert(c Color, to Space) Color {
	if !to.Valid() {
		return Black
	}
	if to == Transparent {
		return TransparentColor
	}
	if !c.valid() {
		c = Black
	}
	if c.Space == to {
		return c
	}
	if c.Space == Transparent {
		return Convert(Black, to)
	}

	comps := c.Components
	switch c.Space {
	case Gray:
		g := comps[0]
		switch to {
		case RGB:
			return Color{Space: RGB, Components: []float64{g, g, g}}
		case CMYK:
			return Color{Space: CMYK, Components: []float64{0, 0, 0, 1 - g}}
		}
	case RGB:
		r, g, b := comps[0], comps[1], comps[2]
		switch to {
		case Gray:
			return Color{Space: Gray, Components: []float64{0.3*r + 0.59*g + 0.11*b}}
		case CMYK:
			cc, m, y := 1-r, 1-g, 1-b
			k := math.Min(cc, math.Min(m, y))
			return Color{Space: CMYK, Components: []float64{cc, m, y, k}}
		}
	case CMYK:
		cc, m, y, k := comps[0], comps[1], comps[2], comps[3]
		switch to {
		case Gray:
			return Color{Space: Gray, Components: []float64{1 - math.Min(1, 0.3*cc+0.59*m+0.11*y+k)}}
		case RGB:
			return Color{Space: RGB, Components: []float64{
				1 - math.Min(1, cc+k),
				1 - math.Min(1, m+k),
				1 - math.Min(1, y+k),
			}}
		}
	}
	return Black
}

// Equal compares two colors after converting b into a's space. Invalid
// operands compare as black. Transparent only equals transparent.
func Equal(a, b Color) bool {
	if !a.valid() {
		a = Black
	}
	if !b.valid() {
		b = Black
	}
	if a.Space == Transparent || b.Space == Transparent {
		return a.Space == Transparent && b.Space == Transparent
	}
	if a.Space != b.Space {
		b = Convert(b, a.Space)
	}
	for i, f := range a.Components {
		if f != b.Components[i] {
			return false
		}
	}
	return true
}

// HTML renders c as a CSS hex color. Transparent renders with a zero alpha.
func (c Color) HTML() string {
	if !c.valid() {
		c = Black
	}
	switch c.Space {
	case Transparent:
		return "#00000000"
	case Gray:
		g := comp(c.Components[0])
		return "#" + g + g + g
	case CMYK:
		c = Convert(c, RGB)
	}
	return "#" + comp(c.Components[0]) + comp(c.Components[1]) + comp(c.Components[2])
}

func comp(f float64) string {
	f = math.Max(0, math.Min(1, f))
	return fmt.Sprintf("%02x", int(math.Floor(f*255)))
}
