package form

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// DocumentInfo is the descriptive metadata the host supplies for the
// document.
type DocumentInfo struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
	URL      string
	BaseURL  string
	FileName string
	FileSize int64
	NumPages int
	PageNum  int
}

// DocumentConfig configures a Doc.
type DocumentConfig struct {
	Info DocumentInfo
	// Actions are the document level scripts keyed by event name.
	Actions *Actions
	// CalculationOrder lists field ids in the order the calculate pass
	// visits them. It is never reordered.
	CalculationOrder []string
}

// Doc is the document facade: the field registry, the calculation order
// and the document and page action lists.
type Doc struct {
	info      DocumentInfo
	calculate bool
	dirty     bool
	pageNum   int

	fields map[string]*Field
	names  []string
	byID   map[string]*Field
	order  []string

	actions     *Actions
	pageActions map[int]*Actions

	send       Sender
	obj        *Object
	dispatcher *Dispatcher
}

// NewDocument returns an empty document. Fields are added with AddField.
func NewDocument(cfg DocumentConfig, s Sender) *Doc {
	d := &Doc{
		info:        cfg.Info,
		calculate:   true,
		pageNum:     cfg.Info.PageNum,
		fields:      make(map[string]*Field),
		byID:        make(map[string]*Field),
		order:       append([]string(nil), cfg.CalculationOrder...),
		actions:     cfg.Actions,
		pageActions: make(map[int]*Actions),
		send:        s,
	}
	if d.info.NumPages <= 0 {
		d.info.NumPages = 1
	}
	if d.actions == nil {
		d.actions = NewActions(nil)
	}
	d.obj = NewObject(d, s)
	return d
}

// Object returns the script-facing view of the document.
func (d *Doc) Object() *Object { return d.obj }

// Dispatcher returns the dispatcher attached to d, if any.
func (d *Doc) Dispatcher() *Dispatcher { return d.dispatcher }

// AddField registers f under name and all of its widget ids. Re-adding a
// name replaces the field in place.
func (d *Doc) AddField(name string, f *Field) {
	if _, exists := d.fields[name]; !exists {
		d.names = append(d.names, name)
	}
	d.fields[name] = f
	for _, id := range f.IDs() {
		if id != "" {
			d.byID[id] = f
		}
	}
}

// FieldByID resolves a widget id.
func (d *Doc) FieldByID(id string) (*Field, bool) {
	f, ok := d.byID[id]
	return f, ok
}

// GetField returns the field named name, or else the first field, in
// registration order, whose name contains name.
func (d *Doc) GetField(name string) (*Field, bool) {
	if f, ok := d.fields[name]; ok {
		return f, true
	}
	for _, n := range d.names {
		if strings.Contains(n, name) {
			return d.fields[n], true
		}
	}
	return nil, false
}

// GetNthFieldName returns the name of the i-th registered field.
func (d *Doc) GetNthFieldName(i int) (string, bool) {
	if i < 0 || i >= len(d.names) {
		return "", false
	}
	return d.names[i], true
}

func (d *Doc) NumFields() int { return len(d.names) }

// FieldNames returns the registered names in registration order.
func (d *Doc) FieldNames() []string { return append([]string(nil), d.names...) }

// CalculationOrder returns the configured calculation order.
func (d *Doc) CalculationOrder() []string { return d.order }

// Calculate reports whether committed edits trigger a calculate pass.
func (d *Doc) Calculate() bool     { return d.calculate }
func (d *Doc) SetCalculate(b bool) { d.calculate = b }

func (d *Doc) Info() DocumentInfo { return d.info }
func (d *Doc) PageNum() int       { return d.pageNum }

// SetPageNum moves to page n when it is in range and tells the host.
func (d *Doc) SetPageNum(n int) bool {
	if n < 0 || n >= d.info.NumPages {
		return false
	}
	send(d.send, Message{"command": "page-num", "value": n})
	d.pageNum = n
	return true
}

// CalculateNow runs the calculate pass seeded at the first field of the
// calculation order.
func (d *Doc) CalculateNow(ctx context.Context) error {
	if d.dispatcher == nil {
		return nil
	}
	return d.dispatcher.CalculateNow(ctx)
}

// ResetForm restores the named fields, or every field when names is nil,
// to their default values and then runs one calculate pass if anything
// was reset. Unknown names are skipped.
func (d *Doc) ResetForm(ctx context.Context, names []string) error {
	var changed bool
	reset := func(f *Field) error {
		obj := f.Object()
		if err := obj.Set("value", f.DefaultValue()); err != nil {
			return err
		}
		return obj.Set("valueAsString", f.Value())
	}
	if names != nil {
		for _, name := range names {
			f, ok := d.GetField(name)
			if !ok {
				continue
			}
			if err := reset(f); err != nil {
				return err
			}
			changed = true
		}
	} else {
		changed = len(d.names) != 0
		for _, name := range d.names {
			if err := reset(d.fields[name]); err != nil {
				return err
			}
		}
	}
	if changed {
		return d.CalculateNow(ctx)
	}
	return nil
}

// docEventsSkippedOnOpen are not run by the Open sweep over doc actions.
var docEventsSkippedOnOpen = map[string]bool{
	"WillClose":  true,
	"WillSave":   true,
	"DidSave":    true,
	"WillPrint":  true,
	"DidPrint":   true,
	"OpenAction": true,
}

func (d *Doc) dispatchDocEvent(ctx context.Context, eval Evaluator, ev *Event) error {
	if ev.Name != "Open" {
		return d.runActions(ctx, eval, ev, d.actions, ev.Name)
	}
	for _, name := range d.actions.Names() {
		if docEventsSkippedOnOpen[name] {
			continue
		}
		if err := d.runActions(ctx, eval, ev, d.actions, name); err != nil {
			return err
		}
	}
	return d.runActions(ctx, eval, ev, d.actions, "OpenAction")
}

func (d *Doc) dispatchPageEvent(ctx context.Context, eval Evaluator, ev *Event, actions map[string][]string, page int) error {
	if ev.Name == "PageOpen" {
		if _, ok := d.pageActions[page]; !ok {
			d.pageActions[page] = NewActions(actions)
		}
		d.pageNum = page - 1
	}
	return d.runActions(ctx, eval, ev, d.pageActions[page], ev.Name)
}

func (d *Doc) runActions(ctx context.Context, eval Evaluator, ev *Event, actions *Actions, name string) error {
	scripts, _ := actions.Get(name)
	for i, script := range scripts {
		if err := eval.Evaluate(ctx, script, ev); err != nil {
			return errors.WithStack(&ActionError{Target: DocTarget, Event: name, Index: i, Err: err})
		}
	}
	return nil
}

// ObjectID implements Backing. Document assignments are not mirrored to
// the host.
func (d *Doc) ObjectID() string { return "" }

// Property implements Backing.
func (d *Doc) Property(name string) (Property, bool) {
	switch name {
	case "calculate":
		return boolProperty(&d.calculate), true
	case "dirty":
		return boolProperty(&d.dirty), true
	case "pageNum":
		return Property{
			Get: func() any { return d.pageNum },
			Set: func(v any) error {
				if n, ok := asNumber(v); ok && n == float64(int(n)) {
					d.SetPageNum(int(n))
				}
				return nil
			},
		}, true
	case "baseURL":
		return stringProperty(&d.info.BaseURL), true
	case "numFields":
		return readOnly(func() any { return d.NumFields() }), true
	case "numPages":
		return readOnly(func() any { return d.info.NumPages }), true
	case "title":
		return readOnly(func() any { return d.info.Title }), true
	case "author":
		return readOnly(func() any { return d.info.Author }), true
	case "subject":
		return readOnly(func() any { return d.info.Subject }), true
	case "keywords":
		return readOnly(func() any { return d.info.Keywords }), true
	case "creator":
		return readOnly(func() any { return d.info.Creator }), true
	case "producer":
		return readOnly(func() any { return d.info.Producer }), true
	case "URL":
		return readOnly(func() any { return d.info.URL }), true
	case "documentFileName":
		return readOnly(func() any { return d.info.FileName }), true
	case "filesize":
		return readOnly(func() any { return d.info.FileSize }), true
	}
	return Property{}, false
}

var docProperties = []string{
	"calculate", "dirty", "pageNum", "baseURL", "numFields", "numPages",
	"title", "author", "subject", "keywords", "creator", "producer",
	"URL", "documentFileName", "filesize",
}

// PropertyNames implements Backing.
func (d *Doc) PropertyNames() []string { return append([]string(nil), docProperties...) }
