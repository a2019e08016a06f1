package scripting

import (
	"sort"

	"github.com/wudi/formscript/color"
	"github.com/wudi/formscript/form"
)

// colorObject is the script-facing `color` global: named colors as fresh
// arrays plus convert and equal.
type colorObject struct{}

func (colorObject) ObjectID() string { return "" }

func (colorObject) Property(name string) (form.Property, bool) {
	c, ok := color.Named[name]
	if !ok {
		return form.Property{}, false
	}
	return form.Property{Get: func() any { return c.Array() }}, true
}

func (colorObject) PropertyNames() []string {
	names := make([]string, 0, len(color.Named))
	for n := range color.Named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (colorObject) Method(name string) (form.Method, bool) {
	switch name {
	case "convert":
		return func(c form.Call) (any, error) {
			space, _ := c.Arg(1).(string)
			return color.Convert(color.Correct(c.Arg(0)), color.Space(space)).Array(), nil
		}, true
	case "equal":
		return func(c form.Call) (any, error) {
			return color.Equal(color.Correct(c.Arg(0)), color.Correct(c.Arg(1))), nil
		}, true
	}
	return nil, false
}
