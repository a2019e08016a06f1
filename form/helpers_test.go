package form

import (
	"context"
	"fmt"
	"testing"
)

// fakeScripts resolves script bodies to Go funcs so dispatcher tests do
// not need a JavaScript runtime. Every evaluation is recorded.
type fakeScripts struct {
	fns   map[string]func(ev *Event) error
	calls []string
}

func newFakeScripts() *fakeScripts {
	return &fakeScripts{fns: make(map[string]func(ev *Event) error)}
}

func (s *fakeScripts) on(script string, fn func(ev *Event) error) string {
	s.fns[script] = fn
	return script
}

func (s *fakeScripts) Evaluate(_ context.Context, script string, ev *Event) error {
	s.calls = append(s.calls, script)
	fn, ok := s.fns[script]
	if !ok {
		return fmt.Errorf("unknown script %q", script)
	}
	return fn(ev)
}

func (s *fakeScripts) ran(script string) int {
	n := 0
	for _, c := range s.calls {
		if c == script {
			n++
		}
	}
	return n
}

type recorder struct {
	msgs []Message
}

func (r *recorder) Send(msg Message) { r.msgs = append(r.msgs, msg) }

func (r *recorder) reset() { r.msgs = nil }

func textField(t *testing.T, id, name string, value any, actions map[string][]string, s Sender) *Field {
	t.Helper()
	return NewField(KindPlain, []FieldConfig{{
		ID:      id,
		Name:    name,
		Type:    "text",
		Value:   value,
		Actions: NewActions(actions),
	}}, s)
}

func newDoc(t *testing.T, order []string, s Sender, eval Evaluator, fields ...*Field) (*Doc, *Dispatcher) {
	t.Helper()
	doc := NewDocument(DocumentConfig{CalculationOrder: order}, s)
	for _, f := range fields {
		doc.AddField(f.Name(), f)
	}
	return doc, NewDispatcher(doc, eval)
}

func keystroke(id string, value any, change string, selStart, selEnd int, willCommit bool) RawEvent {
	raw := NewRawEvent(id, EventKeystroke)
	raw.Value = value
	raw.Change = change
	raw.SelStart = selStart
	raw.SelEnd = selEnd
	raw.WillCommit = willCommit
	return raw
}
