package color

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsValid(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		valid bool
	}{
		{"gray", []any{"G", 0.5}, true},
		{"gray arity", []any{"G", 0.5, 0.2}, false},
		{"rgb out of range", []any{"RGB", 1.0, 0.0, 1.2}, false},
		{"transparent", []any{"T"}, true},
		{"transparent with component", []any{"T", 0.0}, false},
		{"cmyk ints", []any{"CMYK", int64(1), int64(0), int64(0), int64(0)}, true},
		{"unknown tag", []any{"HSV", 0.1, 0.2, 0.3}, false},
		{"empty", []any{}, false},
		{"string component", []any{"G", "0.5"}, false},
		{"not array", "G", false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := IsValid(tc.in); got != tc.valid {
			t.Errorf("%s: IsValid(%v) = %v, want %v", tc.name, tc.in, got, tc.valid)
		}
	}
}

func TestConvert(t *testing.T) {
	if got := Convert(MidGray, RGB); !cmp.Equal(got.Components, []float64{0.5, 0.5, 0.5}) {
		t.Fatalf("gray->rgb = %v", got)
	}
	if got := Convert(White, CMYK); !cmp.Equal(got.Components, []float64{0, 0, 0, 0}) {
		t.Fatalf("white->cmyk = %v", got)
	}
	if got := Convert(Red, Transparent); got.Space != Transparent || len(got.Components) != 0 {
		t.Fatalf("red->T = %v", got)
	}
	if got := Convert(TransparentColor, RGB); !cmp.Equal(got.Components, []float64{0, 0, 0}) {
		t.Fatalf("T->rgb should route via black, got %v", got)
	}
	if got := Convert(Red, Space("HSV")); got.Space != Gray || got.Components[0] != 0 {
		t.Fatalf("unknown space should give black, got %v", got)
	}
	if got := Convert(Cyan, RGB); !cmp.Equal(got.Components, []float64{0, 1, 1}) {
		t.Fatalf("cyan->rgb = %v", got)
	}
	got := Convert(Red, CMYK)
	if !cmp.Equal(got.Components, []float64{0, 1, 1, 0}) {
		t.Fatalf("red->cmyk = %v", got)
	}
}

func TestEqual(t *testing.T) {
	if !Equal(White, Color{Space: RGB, Components: []float64{1, 1, 1}}) {
		t.Fatal("white should equal rgb white")
	}
	if Equal(Red, Blue) {
		t.Fatal("red should not equal blue")
	}
	if !Equal(TransparentColor, TransparentColor) {
		t.Fatal("transparent should equal itself")
	}
	if Equal(TransparentColor, Black) {
		t.Fatal("transparent should not equal black")
	}
	if !Equal(Color{Space: "bogus"}, Black) {
		t.Fatal("invalid colors compare as black")
	}
}

func TestArrayRoundTrip(t *testing.T) {
	c, ok := Parse([]any{"RGB", 0.25, 0.5, 1.0})
	if !ok {
		t.Fatal("expected valid color")
	}
	if diff := cmp.Diff([]any{"RGB", 0.25, 0.5, 1.0}, c.Array()); diff != "" {
		t.Fatalf("array mismatch (-want +got):\n%s", diff)
	}
}

func TestHTML(t *testing.T) {
	cases := map[string]Color{
		"#00000000": TransparentColor,
		"#ffffff":   White,
		"#ff0000":   Red,
		"#00ffff":   Cyan,
		"#7f7f7f":   MidGray,
	}
	for want, c := range cases {
		if got := c.HTML(); got != want {
			t.Errorf("HTML(%v) = %s, want %s", c, got, want)
		}
	}
}
