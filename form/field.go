package form

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/wudi/formscript/color"
)

// Kind tags the field variant.
type Kind int

const (
	KindPlain Kind = iota
	KindRadio
	KindCheckbox
)

func (k Kind) String() string {
	switch k {
	case KindRadio:
		return "radiobutton"
	case KindCheckbox:
		return "checkbox"
	}
	return "plain"
}

// FieldConfig describes one widget of a field as supplied by the host.
// For radio groups and checkboxes the first config carries the shared
// field properties and every config contributes one sibling widget.
type FieldConfig struct {
	ID                string
	Name              string
	Type              string
	Value             any
	ValueAsString     any
	DefaultValue      any
	ExportValue       any
	Readonly          bool
	Required          bool
	MultipleSelection bool
	FillColor         any
	StrokeColor       any
	TextColor         any
	Actions           *Actions
	// Attrs holds cosmetic properties (alignment, display, textFont, ...)
	// that are part of the field's schema but carry no engine semantics.
	Attrs map[string]any
}

type widget struct {
	id          string
	exportValue any
	actions     *Actions
}

// Field is one interactive form field. Radio groups and checkboxes keep
// one widget per sibling and track which one is current.
type Field struct {
	kind          Kind
	name          string
	typ           string
	value         any
	valueAsString string
	defaultValue  any

	readonly          bool
	required          bool
	multipleSelection bool

	fillColor   color.Color
	strokeColor color.Color
	textColor   color.Color

	widgets []widget
	current int

	attrs map[string]any
	send  Sender
	obj   *Object
}

// NewField builds a field of the given kind from its widget configs.
// Plain fields use only the first config.
func NewField(kind Kind, cfgs []FieldConfig, s Sender) *Field {
	if len(cfgs) == 0 {
		cfgs = []FieldConfig{{}}
	}
	base := cfgs[0]
	f := &Field{
		kind:              kind,
		name:              base.Name,
		typ:               base.Type,
		value:             base.Value,
		valueAsString:     ToString(base.ValueAsString),
		defaultValue:      base.DefaultValue,
		readonly:          base.Readonly,
		required:          base.Required,
		multipleSelection: base.MultipleSelection,
		fillColor:         colorOr(base.FillColor, color.TransparentColor),
		strokeColor:       colorOr(base.StrokeColor, color.Black),
		textColor:         colorOr(base.TextColor, color.Black),
		attrs:             make(map[string]any, len(base.Attrs)),
		send:              s,
	}
	if f.value == nil {
		f.value = ""
	}
	for k, v := range base.Attrs {
		f.attrs[k] = v
	}
	if kind == KindPlain {
		cfgs = cfgs[:1]
	}
	for i, cfg := range cfgs {
		actions := cfg.Actions
		if actions == nil {
			actions = NewActions(nil)
		}
		f.widgets = append(f.widgets, widget{id: cfg.ID, exportValue: cfg.ExportValue, actions: actions})
		if i > 0 && SameValue(f.value, cfg.ExportValue) {
			f.current = i
		}
	}
	f.obj = NewObject(f, s)
	return f
}

func colorOr(v any, def color.Color) color.Color {
	if c, ok := color.Parse(v); ok {
		return c
	}
	return def
}

func (f *Field) Kind() Kind   { return f.kind }
func (f *Field) Name() string { return f.name }

// Object returns the notifying wrapper around f. Writes through it reach
// the host; writes through f's own setters do not.
func (f *Field) Object() *Object { return f.obj }

// ID returns the id of the current widget.
func (f *Field) ID() string { return f.widgets[f.current].id }

// IDs returns every widget id of the field.
func (f *Field) IDs() []string {
	ids := make([]string, len(f.widgets))
	for i, w := range f.widgets {
		ids[i] = w.id
	}
	return ids
}

// IsButton reports whether f is a radio group or checkbox.
func (f *Field) IsButton() bool { return f.kind != KindPlain }

func (f *Field) Value() any { return f.value }

// SetValue assigns the field value according to its kind. Plain fields
// ignore the assignment when multiple selection is on. Radio groups map
// an export value to its widget; Off toggles a two-widget group.
// Checkboxes always accept Off.
func (f *Field) SetValue(v any) {
	switch f.kind {
	case KindPlain:
		if !f.multipleSelection {
			f.value = v
		}
	case KindCheckbox:
		if s, ok := v.(string); ok && s == Off {
			f.value = Off
			return
		}
		f.setGroupValue(v)
	case KindRadio:
		f.setGroupValue(v)
	}
}

func (f *Field) setGroupValue(v any) {
	if i := f.exportIndex(v); i >= 0 {
		f.current = i
		f.value = f.widgets[i].exportValue
		return
	}
	if s, ok := v.(string); ok && s == Off && len(f.widgets) == 2 {
		next := (f.current + 1) % 2
		f.current = next
		f.value = f.widgets[next].exportValue
	}
}

func (f *Field) exportIndex(v any) int {
	for i, w := range f.widgets {
		if SameValue(w.exportValue, v) {
			return i
		}
	}
	return -1
}

func (f *Field) ValueAsString() string { return f.valueAsString }

// SetValueAsString stores the display string; nil becomes "".
func (f *Field) SetValueAsString(v any) { f.valueAsString = ToString(v) }

func (f *Field) DefaultValue() any { return f.defaultValue }

// ExportValues lists the export value of every widget.
func (f *Field) ExportValues() []any {
	out := make([]any, len(f.widgets))
	for i, w := range f.widgets {
		out[i] = w.exportValue
	}
	return out
}

func (f *Field) FillColor() color.Color   { return f.fillColor }
func (f *Field) StrokeColor() color.Color { return f.strokeColor }
func (f *Field) TextColor() color.Color   { return f.textColor }

// SetFillColor keeps the previous color when v is not a valid color.
func (f *Field) SetFillColor(v any) bool { return setColor(&f.fillColor, v) }

func (f *Field) SetStrokeColor(v any) bool { return setColor(&f.strokeColor, v) }

func (f *Field) SetTextColor(v any) bool { return setColor(&f.textColor, v) }

func setColor(dst *color.Color, v any) bool {
	c, ok := color.Parse(v)
	if ok {
		*dst = c
	}
	return ok
}

// SetAction appends script to trigger's action list on the current widget.
func (f *Field) SetAction(trigger, script string) {
	f.ActiveActions().Append(trigger, script)
}

// SetFocus asks the host to focus the current widget.
func (f *Field) SetFocus() {
	send(f.send, Message{"id": f.ID(), "focus": true})
}

// CheckThisBox selects widget i. Radio groups ignore an uncheck request;
// checkboxes switch to Off instead.
func (f *Field) CheckThisBox(i int, checked bool) {
	if f.kind == KindPlain || i < 0 || i >= len(f.widgets) {
		return
	}
	if f.kind == KindRadio && !checked {
		return
	}
	f.current = i
	if checked {
		f.value = f.widgets[i].exportValue
	} else {
		f.value = Off
	}
	send(f.send, Message{"id": f.ID(), "value": f.value})
}

// IsBoxChecked reports whether widget i is the checked one.
func (f *Field) IsBoxChecked(i int) bool {
	if f.kind == KindPlain || i < 0 || i >= len(f.widgets) {
		return false
	}
	if f.kind == KindCheckbox && SameValue(f.value, Off) {
		return false
	}
	return f.current == i
}

// IsDefaultChecked reports whether widget i is checked by default.
func (f *Field) IsDefaultChecked(i int) bool {
	switch f.kind {
	case KindPlain:
		return false
	case KindCheckbox:
		if SameValue(f.defaultValue, Off) {
			return SameValue(f.value, Off)
		}
	}
	return i >= 0 && i < len(f.widgets) && SameValue(f.defaultValue, f.widgets[i].exportValue)
}

// selectWidget makes the widget with the given id current.
func (f *Field) selectWidget(id string) {
	for i, w := range f.widgets {
		if w.id == id {
			f.current = i
			return
		}
	}
}

// restoreWidget puts widget prev back as current after an event that
// addressed another sibling without changing the group value.
func (f *Field) restoreWidget(prev int, before any) {
	if SameValue(f.value, before) {
		f.current = prev
	}
}

// exportValue maps the raw widget state of an interaction to the group
// value: the current widget's export value, or Off for an unchecked
// checkbox. Plain fields pass the state through.
func (f *Field) exportValue(state any) any {
	switch f.kind {
	case KindCheckbox:
		if !Truthy(state) {
			return Off
		}
		return f.widgets[f.current].exportValue
	case KindRadio:
		return f.widgets[f.current].exportValue
	}
	return state
}

// ActiveActions returns the action map of the current widget.
func (f *Field) ActiveActions() *Actions {
	return f.widgets[f.current].actions
}

// RunActions evaluates the scripts bound to ev.Name on the current widget,
// in order. A failing script aborts the list and sets ev.RC to false. The
// boolean reports whether a list existed for the event.
func (f *Field) RunActions(ctx context.Context, eval Evaluator, ev *Event) (bool, error) {
	scripts, ok := f.ActiveActions().Get(ev.Name)
	if !ok {
		return false, nil
	}
	for i, script := range scripts {
		if err := eval.Evaluate(ctx, script, ev); err != nil {
			ev.RC = false
			return true, errors.WithStack(&ActionError{Target: f.name, Event: ev.Name, Index: i, Err: err})
		}
	}
	return true, nil
}

// ObjectID implements Backing.
func (f *Field) ObjectID() string { return f.ID() }

// Property implements Backing.
func (f *Field) Property(name string) (Property, bool) {
	switch name {
	case "name":
		return readOnly(func() any { return f.name }), true
	case "type":
		return readOnly(func() any { return f.typ }), true
	case "value":
		return Property{Get: f.Value, Set: func(v any) error { f.SetValue(v); return nil }}, true
	case "valueAsString":
		return Property{
			Get: func() any { return f.valueAsString },
			Set: func(v any) error { f.SetValueAsString(v); return nil },
		}, true
	case "defaultValue":
		return Property{
			Get: func() any { return f.defaultValue },
			Set: func(v any) error { f.defaultValue = v; return nil },
		}, true
	case "exportValues":
		return readOnly(func() any { return f.ExportValues() }), true
	case "readonly":
		return boolProperty(&f.readonly), true
	case "required":
		return boolProperty(&f.required), true
	case "multipleSelection":
		return boolProperty(&f.multipleSelection), true
	case "numItems":
		return readOnly(func() any { return len(f.widgets) }), true
	case "fillColor":
		return colorProperty(&f.fillColor), true
	case "strokeColor":
		return colorProperty(&f.strokeColor), true
	case "textColor":
		return colorProperty(&f.textColor), true
	}
	if _, ok := f.attrs[name]; ok {
		return Property{
			Get: func() any { return f.attrs[name] },
			Set: func(v any) error { f.attrs[name] = v; return nil },
		}, true
	}
	return Property{}, false
}

var fieldProperties = []string{
	"name", "type", "value", "valueAsString", "defaultValue", "exportValues",
	"readonly", "required", "multipleSelection", "numItems",
	"fillColor", "strokeColor", "textColor",
}

// PropertyNames implements Backing.
func (f *Field) PropertyNames() []string {
	names := append([]string(nil), fieldProperties...)
	attrs := make([]string, 0, len(f.attrs))
	for k := range f.attrs {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)
	return append(names, attrs...)
}

func readOnly(get func() any) Property { return Property{Get: get} }

func boolProperty(p *bool) Property {
	return Property{
		Get: func() any { return *p },
		Set: func(v any) error { *p = Truthy(v); return nil },
	}
}

func colorProperty(p *color.Color) Property {
	return Property{
		Get: func() any { return p.Array() },
		Set: func(v any) error { setColor(p, v); return nil },
	}
}
