// Package color implements the tagged color arrays used by form scripts:
// ["T"], ["G", g], ["RGB", r, g, b] and ["CMYK", c, m, y, k].
package color

import (
	"fmt"
	"math"
)

// Space identifies a color space tag.
type Space string

const (
	Transparent Space = "T"
	Gray        Space = "G"
	RGB         Space = "RGB"
	CMYK        Space = "CMYK"
)

// Arity returns the number of components a color in s carries, or -1 for
// an unknown space.
func (s Space) Arity() int {
	switch s {
	case Transparent:
		return 0
	case Gray:
		return 1
	case RGB:
		return 3
	case CMYK:
		return 4
	}
	return -1
}

// Valid reports whether s is one of the four known spaces.
func (s Space) Valid() bool { return s.Arity() >= 0 }

// Color is a parsed color array. Components are in [0,1].
type Color struct {
	Space      Space
	Components []float64
}

// Predefined colors exposed to scripts as properties of the color object.
var (
	TransparentColor = Color{Space: Transparent}
	Black            = Color{Space: Gray, Components: []float64{0}}
	White            = Color{Space: Gray, Components: []float64{1}}
	Red              = Color{Space: RGB, Components: []float64{1, 0, 0}}
	Green            = Color{Space: RGB, Components: []float64{0, 1, 0}}
	Blue             = Color{Space: RGB, Components: []float64{0, 0, 1}}
	Cyan             = Color{Space: CMYK, Components: []float64{1, 0, 0, 0}}
	Magenta          = Color{Space: CMYK, Components: []float64{0, 1, 0, 0}}
	Yellow           = Color{Space: CMYK, Components: []float64{0, 0, 1, 0}}
	DarkGray         = Color{Space: Gray, Components: []float64{0.25}}
	MidGray          = Color{Space: Gray, Components: []float64{0.5}}
	LightGray        = Color{Space: Gray, Components: []float64{0.75}}
)

// Named maps the script-visible constant names to their colors.
var Named = map[string]Color{
	"transparent": TransparentColor,
	"black":       Black,
	"white":       White,
	"red":         Red,
	"green":       Green,
	"blue":        Blue,
	"cyan":        Cyan,
	"magenta":     Magenta,
	"yellow":      Yellow,
	"dkGray":      DarkGray,
	"gray":        MidGray,
	"ltGray":      LightGray,
}

// Parse converts a tagged array into a Color. It fails unless the tag is
// known, the length matches the tag's arity and every component is a
// number in [0,1].
func Parse(v any) (Color, bool) {
	switch t := v.(type) {
	case Color:
		return t, t.valid()
	case []any:
		return parseItems(t)
	}
	return Color{}, false
}

func parseItems(items []any) (Color, bool) {
	if len(items) == 0 {
		return Color{}, false
	}
	tag, ok := items[0].(string)
	if !ok {
		return Color{}, false
	}
	space := Space(tag)
	if !space.Valid() || len(items) != space.Arity()+1 {
		return Color{}, false
	}
	comps := make([]float64, 0, space.Arity())
	for _, item := range items[1:] {
		f, ok := number(item)
		if !ok || math.IsNaN(f) || f < 0 || f > 1 {
			return Color{}, false
		}
		comps = append(comps, f)
	}
	return Color{Space: space, Components: comps}, true
}

// IsValid reports whether v is a well formed color array.
func IsValid(v any) bool {
	_, ok := Parse(v)
	return ok
}

// Correct returns the parsed color, or black when v is not a valid color.
func Correct(v any) Color {
	if c, ok := Parse(v); ok {
		return c
	}
	return Black
}

func (c Color) valid() bool {
	if !c.Space.Valid() || len(c.Components) != c.Space.Arity() {
		return false
	}
	for _, f := range c.Components {
		if math.IsNaN(f) || f < 0 || f > 1 {
			return false
		}
	}
	return true
}

// Array returns the tagged array form handed back to scripts.
func (c Color) Array() []any {
	out := make([]any, 0, len(c.Components)+1)
	out = append(out, string(c.Space))
	for _, f := range c.Components {
		out = append(out, f)
	}
	return out
}

func (c Color) String() string {
	return fmt.Sprint(c.Array())
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	}
	return 0, false
}
