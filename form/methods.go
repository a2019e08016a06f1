package form

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

// Call carries one method invocation from a script.
type Call struct {
	Ctx   context.Context
	Event *Event
	Args  []any
}

// Arg returns the i-th argument or nil when it was omitted.
func (c Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// String returns argument i as a string. Non-strings are rejected with
// ErrInvalidArgument.
func (c Call) String(i int, what string) (string, error) {
	s, ok := c.Arg(i).(string)
	if !ok {
		return "", errors.Wrapf(ErrInvalidArgument, "%s must be a string", what)
	}
	return s, nil
}

// Int returns argument i truncated to an integer.
func (c Call) Int(i int, what string) (int, error) {
	n, ok := asNumber(c.Arg(i))
	if !ok || math.IsNaN(n) {
		return 0, errors.Wrapf(ErrInvalidArgument, "%s must be a number", what)
	}
	return int(n), nil
}

// Method is a callable member of a script-facing object.
type Method func(call Call) (any, error)

// Methods is implemented by backings that expose callable members next to
// their properties.
type Methods interface {
	Method(name string) (Method, bool)
}

// Method implements Methods.
func (f *Field) Method(name string) (Method, bool) {
	switch name {
	case "setAction":
		return func(c Call) (any, error) {
			// Non-string arguments are ignored.
			trigger, ok1 := c.Arg(0).(string)
			script, ok2 := c.Arg(1).(string)
			if ok1 && ok2 {
				f.SetAction(trigger, script)
			}
			return nil, nil
		}, true
	case "setFocus":
		return func(Call) (any, error) {
			f.SetFocus()
			return nil, nil
		}, true
	case "checkThisBox":
		return func(c Call) (any, error) {
			i, err := c.Int(0, "widget index")
			if err != nil {
				return nil, err
			}
			checked := true
			if len(c.Args) > 1 {
				checked = Truthy(c.Args[1])
			}
			f.CheckThisBox(i, checked)
			return nil, nil
		}, true
	case "isBoxChecked":
		return func(c Call) (any, error) {
			i, err := c.Int(0, "widget index")
			if err != nil {
				return nil, err
			}
			return f.IsBoxChecked(i), nil
		}, true
	case "isDefaultChecked":
		return func(c Call) (any, error) {
			i, err := c.Int(0, "widget index")
			if err != nil {
				return nil, err
			}
			return f.IsDefaultChecked(i), nil
		}, true
	case "getArray":
		return func(Call) (any, error) { return []any{}, nil }, true
	}
	return nil, false
}

// Method implements Methods.
func (d *Doc) Method(name string) (Method, bool) {
	switch name {
	case "getField":
		return func(c Call) (any, error) {
			n, err := c.String(0, "field name")
			if err != nil {
				return nil, err
			}
			if f, ok := d.GetField(n); ok {
				return f.Object(), nil
			}
			return nil, nil
		}, true
	case "getNthFieldName":
		return func(c Call) (any, error) {
			i, ok := asNumber(c.Arg(0))
			if !ok {
				return nil, errors.Wrap(ErrInvalidArgument, "field index must be a number")
			}
			// Range is checked before truncation so -0.5 and NaN miss.
			if !(i >= 0 && i < float64(d.NumFields())) {
				return nil, nil
			}
			n, _ := d.GetNthFieldName(int(i))
			return n, nil
		}, true
	case "calculateNow":
		return func(c Call) (any, error) {
			return nil, d.CalculateNow(c.Ctx)
		}, true
	case "resetForm":
		return func(c Call) (any, error) {
			names, err := nameList(c.Arg(0))
			if err != nil {
				return nil, err
			}
			return nil, d.ResetForm(c.Ctx, names)
		}, true
	}
	return nil, false
}

// nameList accepts nil (meaning all) or a list of field names.
func nameList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []any:
		names := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Wrap(ErrInvalidArgument, "field names must be strings")
			}
			names = append(names, s)
		}
		return names, nil
	}
	return nil, errors.Wrap(ErrInvalidArgument, "fields must be an array of names")
}
