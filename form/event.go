package form

import (
	"strings"
	"unicode/utf16"
)

// Event names with dedicated handling in the dispatcher.
const (
	EventKeystroke = "Keystroke"
	EventValidate  = "Validate"
	EventCalculate = "Calculate"
	EventFormat    = "Format"
	EventBlur      = "Blur"
	EventFocus     = "Focus"
	EventAction    = "Action"
)

// Targets that address the document or a page instead of a field.
const (
	DocTarget  = "doc"
	PageTarget = "page"
)

// RawEvent is the interaction record received from the host. SelStart and
// SelEnd are UTF-16 offsets; -1 means unset. Use NewRawEvent to get
// those defaults.
type RawEvent struct {
	ID         string
	Name       string
	Value      any
	Change     string
	ChangeEx   any
	CommitKey  int
	FieldFull  bool
	KeyDown    bool
	Modifier   bool
	Shift      bool
	WillCommit bool
	SelStart   int
	SelEnd     int
	// PageNumber and Actions are only meaningful for page events.
	PageNumber int
	Actions    map[string][]string
}

// NewRawEvent returns a record for id and name with an unset selection.
func NewRawEvent(id, name string) RawEvent {
	return RawEvent{ID: id, Name: name, SelStart: -1, SelEnd: -1}
}

// Event is the in-flight record of one dispatch. It is created at dispatch
// entry and handed explicitly to every script evaluation.
type Event struct {
	Name       string
	Change     string
	ChangeEx   any
	CommitKey  int
	FieldFull  bool
	KeyDown    bool
	Modifier   bool
	Shift      bool
	WillCommit bool
	SelStart   int
	SelEnd     int
	// RC is the accept flag. Only the action runner resets it.
	RC         bool
	Source     *Object
	Target     *Object
	TargetName string
	Type       string

	value  any
	locked bool
	obj    *Object
}

// NewEvent builds an event from a raw record.
func NewEvent(raw RawEvent) *Event {
	ev := &Event{
		Name:       strings.ReplaceAll(raw.Name, " ", ""),
		Change:     raw.Change,
		ChangeEx:   raw.ChangeEx,
		CommitKey:  raw.CommitKey,
		FieldFull:  raw.FieldFull,
		KeyDown:    raw.KeyDown,
		Modifier:   raw.Modifier,
		Shift:      raw.Shift,
		WillCommit: raw.WillCommit,
		SelStart:   raw.SelStart,
		SelEnd:     raw.SelEnd,
		RC:         true,
		Type:       "Field",
		value:      raw.Value,
	}
	if ev.value == nil {
		ev.value = ""
	}
	return ev
}

func (e *Event) Value() any { return e.value }

// SetValue replaces the proposed value. It fails while the value is
// locked for a Blur or Focus event.
func (e *Event) SetValue(v any) bool {
	if e.locked {
		return false
	}
	e.value = v
	return true
}

// ReadOnlyValue reports whether the value is locked.
func (e *Event) ReadOnlyValue() bool { return e.locked }

func (e *Event) lockValue() { e.locked = true }

// Object returns the script-facing view of the event.
func (e *Event) Object() *Object {
	if e.obj == nil {
		e.obj = NewObject(e, nil)
	}
	return e.obj
}

// MergeChange splices Change into the value between SelStart and SelEnd.
func MergeChange(e *Event) string {
	units := utf16.Encode([]rune(ToString(e.value)))
	var prefix, suffix []uint16
	if e.SelStart >= 0 {
		prefix = units[:min(e.SelStart, len(units))]
	}
	if e.SelEnd >= 0 && e.SelEnd <= len(units) {
		suffix = units[e.SelEnd:]
	}
	return string(utf16.Decode(prefix)) + e.Change + string(utf16.Decode(suffix))
}

// ObjectID implements Backing. Events never notify the host.
func (e *Event) ObjectID() string { return "" }

// Property implements Backing.
func (e *Event) Property(name string) (Property, bool) {
	switch name {
	case "name":
		return stringProperty(&e.Name), true
	case "value":
		return Property{Get: e.Value, Set: func(v any) error {
			if !e.SetValue(v) {
				return ErrReadOnly
			}
			return nil
		}}, true
	case "change":
		return Property{
			Get: func() any { return e.Change },
			Set: func(v any) error { e.Change = ToString(v); return nil },
		}, true
	case "changeEx":
		return Property{Get: func() any { return e.ChangeEx }, Set: func(v any) error { e.ChangeEx = v; return nil }}, true
	case "commitKey":
		return intProperty(&e.CommitKey), true
	case "fieldFull":
		return boolProperty(&e.FieldFull), true
	case "keyDown":
		return boolProperty(&e.KeyDown), true
	case "modifier":
		return boolProperty(&e.Modifier), true
	case "shift":
		return boolProperty(&e.Shift), true
	case "willCommit":
		return boolProperty(&e.WillCommit), true
	case "rc":
		return boolProperty(&e.RC), true
	case "selStart":
		return intProperty(&e.SelStart), true
	case "selEnd":
		return intProperty(&e.SelEnd), true
	case "source":
		return Property{Get: func() any { return objectOrNil(e.Source) }}, true
	case "target":
		return Property{Get: func() any { return objectOrNil(e.Target) }}, true
	case "targetName":
		return stringProperty(&e.TargetName), true
	case "type":
		return stringProperty(&e.Type), true
	}
	return Property{}, false
}

var eventProperties = []string{
	"name", "value", "change", "changeEx", "commitKey", "fieldFull", "keyDown",
	"modifier", "shift", "willCommit", "rc", "selStart", "selEnd",
	"source", "target", "targetName", "type",
}

// PropertyNames implements Backing.
func (e *Event) PropertyNames() []string { return append([]string(nil), eventProperties...) }

func objectOrNil(o *Object) any {
	if o == nil {
		return nil
	}
	return o
}

func stringProperty(p *string) Property {
	return Property{
		Get: func() any { return *p },
		Set: func(v any) error { *p = ToString(v); return nil },
	}
}

func intProperty(p *int) Property {
	return Property{
		Get: func() any { return *p },
		Set: func(v any) error {
			n, ok := asNumber(v)
			if !ok {
				return ErrInvalidArgument
			}
			*p = int(n)
			return nil
		},
	}
}
