package scripting

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/wudi/formscript/form"
	"github.com/wudi/formscript/observability"
)

// installAForm defines the Acrobat form helper functions used by
// generated field scripts.
func (e *GojaEngine) installAForm() {
	e.vm.Set("AFMergeChange", e.afMergeChange)
	e.vm.Set("AFMakeNumber", e.afMakeNumber)
	e.vm.Set("AFSimple", e.afSimple)
	e.vm.Set("AFSimple_Calculate", e.afSimpleCalculate)
	e.vm.Set("AFRange_Validate", e.afRangeValidate)
}

// eventArg returns the event passed as argument i, or the bound event.
func (e *GojaEngine) eventArg(call goja.FunctionCall, i int) *form.Event {
	if obj, ok := e.fromJS(call.Argument(i)).(*form.Object); ok {
		if ev, ok := obj.Backing().(*form.Event); ok {
			return ev
		}
	}
	return e.event
}

func (e *GojaEngine) afMergeChange(call goja.FunctionCall) goja.Value {
	ev := e.eventArg(call, 0)
	if ev == nil {
		panic(e.vm.NewTypeError("AFMergeChange: no event"))
	}
	if ev.WillCommit {
		return e.vm.ToValue(form.ToString(ev.Value()))
	}
	return e.vm.ToValue(form.MergeChange(ev))
}

func (e *GojaEngine) afMakeNumber(call goja.FunctionCall) goja.Value {
	n, ok := makeNumber(e.fromJS(call.Argument(0)))
	if !ok {
		return goja.Null()
	}
	return e.vm.ToValue(n)
}

func (e *GojaEngine) afSimple(call goja.FunctionCall) goja.Value {
	fn := call.Argument(0).String()
	v1, ok := makeNumber(e.fromJS(call.Argument(1)))
	if !ok {
		e.throw(errors.New("Invalid nValue1 in AFSimple"))
	}
	v2, ok := makeNumber(e.fromJS(call.Argument(2)))
	if !ok {
		e.throw(errors.New("Invalid nValue2 in AFSimple"))
	}
	res, err := simple(fn, []float64{v1, v2})
	if err != nil {
		e.throw(errors.Wrap(err, "AFSimple"))
	}
	return e.vm.ToValue(res)
}

func (e *GojaEngine) afSimpleCalculate(call goja.FunctionCall) goja.Value {
	fn := call.Argument(0).String()
	if _, err := simple(fn, []float64{0}); err != nil {
		panic(e.vm.NewTypeError("Invalid function in AFSimple_Calculate"))
	}
	ev := e.event
	if ev == nil || e.doc == nil {
		return goja.Undefined()
	}

	var values []float64
	for _, name := range fieldList(e.fromJS(call.Argument(1))) {
		f, ok := e.doc.GetField(name)
		if !ok {
			continue
		}
		if n, ok := makeNumber(f.Value()); ok {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		if fn == "PRD" {
			ev.SetValue(float64(1))
		} else {
			ev.SetValue(float64(0))
		}
		return goja.Undefined()
	}
	res, _ := simple(fn, values)
	ev.SetValue(math.Floor(1e6*res+0.5) / 1e6)
	return goja.Undefined()
}

func (e *GojaEngine) afRangeValidate(call goja.FunctionCall) goja.Value {
	ev := e.event
	if ev == nil || !form.Truthy(ev.Value()) {
		return goja.Undefined()
	}
	value, ok := makeNumber(ev.Value())
	if !ok {
		return goja.Undefined()
	}
	greater := call.Argument(0).ToBoolean()
	less := call.Argument(2).ToBoolean()
	var lo, hi float64
	if greater {
		if lo, ok = makeNumber(e.fromJS(call.Argument(1))); !ok {
			return goja.Undefined()
		}
	}
	if less {
		if hi, ok = makeNumber(e.fromJS(call.Argument(3))); !ok {
			return goja.Undefined()
		}
	}

	shown := form.ToString(ev.Value())
	var msg string
	switch {
	case greater && less:
		if value < lo || value > hi {
			msg = shown + " is not between " + form.ToString(lo) + " and " + form.ToString(hi)
		}
	case greater:
		if value < lo {
			msg = shown + " is not greater or equal than " + form.ToString(lo)
		}
	case less:
		if value > hi {
			msg = shown + " is not less or equal than " + form.ToString(hi)
		}
	}
	if msg != "" {
		e.alert(msg)
		ev.RC = false
	}
	return goja.Undefined()
}

// alert routes msg through the `app` global when one is defined.
func (e *GojaEngine) alert(msg string) {
	app, ok := e.globals["app"]
	if ok {
		if ms, ok := app.Backing().(form.Methods); ok {
			if m, ok := ms.Method("alert"); ok {
				if _, err := m(form.Call{Ctx: e.callContext(), Event: e.event, Args: []any{msg}}); err != nil {
					e.throw(err)
				}
				return
			}
		}
	}
	e.log.Warn("alert without app binding", observability.String("message", msg))
}

func simple(fn string, values []float64) (float64, error) {
	res := values[0]
	switch fn {
	case "AVG", "SUM":
		for _, v := range values[1:] {
			res += v
		}
		if fn == "AVG" {
			res /= float64(len(values))
		}
	case "PRD":
		for _, v := range values[1:] {
			res *= v
		}
	case "MIN":
		for _, v := range values[1:] {
			res = math.Min(res, v)
		}
	case "MAX":
		for _, v := range values[1:] {
			res = math.Max(res, v)
		}
	default:
		return 0, errors.Errorf("invalid function %q", fn)
	}
	return res, nil
}

var (
	numberPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)
	listSep      = regexp.MustCompile(`, ?`)
)

// makeNumber converts a field value to a finite number. Strings are
// trimmed, the first comma is read as a decimal point and the longest
// numeric prefix is parsed.
func makeNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		s := strings.Replace(strings.TrimSpace(t), ",", ".", 1)
		m := numberPrefix.FindString(s)
		if m == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.TrimPrefix(m, "+"), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// fieldList accepts an array of names or a comma separated string.
func fieldList(v any) []string {
	switch t := v.(type) {
	case string:
		return listSep.Split(t, -1)
	case []any:
		names := make([]string, 0, len(t))
		for _, item := range t {
			names = append(names, form.ToString(item))
		}
		return names
	}
	return nil
}
