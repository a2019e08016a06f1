package form

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDoc_GetField(t *testing.T) {
	doc := NewDocument(DocumentConfig{}, nil)
	doc.AddField("person.first", textField(t, "1", "person.first", "", nil, nil))
	doc.AddField("person.last", textField(t, "2", "person.last", "", nil, nil))
	doc.AddField("last", textField(t, "3", "last", "", nil, nil))

	if f, ok := doc.GetField("last"); !ok || f.Name() != "last" {
		t.Fatal("exact match must win over substring match")
	}
	if f, ok := doc.GetField("person"); !ok || f.Name() != "person.first" {
		t.Fatal("first substring match in registration order expected")
	}
	if _, ok := doc.GetField("missing"); ok {
		t.Fatal("unexpected field")
	}

	if name, ok := doc.GetNthFieldName(1); !ok || name != "person.last" {
		t.Fatalf("GetNthFieldName(1) = %q", name)
	}
	if _, ok := doc.GetNthFieldName(3); ok {
		t.Fatal("index past the end must fail")
	}
	if doc.NumFields() != 3 {
		t.Fatalf("expected 3 fields, got %d", doc.NumFields())
	}
}

func TestDoc_ResetForm(t *testing.T) {
	scripts := newFakeScripts()
	calc := scripts.on("calc", func(*Event) error { return nil })
	rec := &recorder{}
	a := NewField(KindPlain, []FieldConfig{{ID: "a", Name: "a", Value: "x", DefaultValue: "d"}}, rec)
	b := NewField(KindPlain, []FieldConfig{{ID: "b", Name: "b", Value: "y", DefaultValue: "e",
		Actions: NewActions(map[string][]string{EventCalculate: {calc}})}}, rec)
	doc, _ := newDoc(t, []string{"b"}, rec, scripts, a, b)

	if err := doc.ResetForm(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if a.Value() != "d" || a.ValueAsString() != "d" {
		t.Fatalf("a not reset: %v %q", a.Value(), a.ValueAsString())
	}
	if scripts.ran(calc) != 1 {
		t.Fatalf("expected exactly one calculate pass, got %d", scripts.ran(calc))
	}

	if err := doc.ResetForm(context.Background(), []string{"nothing"}); err != nil {
		t.Fatal(err)
	}
	if scripts.ran(calc) != 1 {
		t.Fatal("no calculate pass when nothing was reset")
	}

	a.SetValue("changed")
	rec.reset()
	if err := doc.ResetForm(context.Background(), []string{"a"}); err != nil {
		t.Fatal(err)
	}
	want := []Message{{"id": "a", "value": "d"}, {"id": "a", "valueAsString": "d"}}
	if diff := cmp.Diff(want, rec.msgs[:2]); diff != "" {
		t.Fatalf("reset notifications (-want +got):\n%s", diff)
	}
	if scripts.ran(calc) != 2 {
		t.Fatal("named reset should trigger a calculate pass")
	}
}

func TestDoc_ResetFormEmptyRegistry(t *testing.T) {
	scripts := newFakeScripts()
	doc, _ := newDoc(t, []string{"a"}, nil, scripts)
	if err := doc.ResetForm(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(scripts.calls) != 0 {
		t.Fatal("empty registry must not calculate")
	}
}

func TestDoc_Properties(t *testing.T) {
	rec := &recorder{}
	doc := NewDocument(DocumentConfig{Info: DocumentInfo{Title: "Invoice", NumPages: 2}}, rec)
	obj := doc.Object()

	if v, _ := obj.Get("title"); v != "Invoice" {
		t.Fatalf("title = %v", v)
	}
	if err := obj.Set("title", "x"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("title must be read-only, got %v", err)
	}
	if err := obj.Set("calculate", false); err != nil || doc.Calculate() {
		t.Fatalf("calculate flag not cleared: %v", err)
	}
	if err := obj.Set("pageNum", 5); err != nil || doc.PageNum() != 0 {
		t.Fatal("out of range pageNum must be ignored")
	}
	if err := obj.Set("pageNum", 1); err != nil || doc.PageNum() != 1 {
		t.Fatal("pageNum not updated")
	}
	if diff := cmp.Diff([]Message{{"command": "page-num", "value": 1}}, rec.msgs); diff != "" {
		t.Fatalf("page-num notification (-want +got):\n%s", diff)
	}
}

func TestObject_Expandos(t *testing.T) {
	rec := &recorder{}
	f := NewField(KindPlain, []FieldConfig{{ID: "7", Name: "n", Attrs: map[string]any{"display": 0}}}, rec)
	obj := f.Object()

	if err := obj.Set("myFlag", true); err != nil {
		t.Fatal(err)
	}
	if len(rec.msgs) != 0 {
		t.Fatal("expandos must not notify the host")
	}
	if v, ok := obj.Get("myFlag"); !ok || v != true {
		t.Fatal("expando not stored")
	}
	if err := obj.Set("display", 1); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Message{{"id": "7", "display": 1}}, rec.msgs); diff != "" {
		t.Fatalf("schema attr notification (-want +got):\n%s", diff)
	}
	if err := obj.Set("name", "other"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("name must be read-only, got %v", err)
	}
	if _, ok := obj.Get("_value"); ok {
		t.Fatal("private names must not resolve to schema properties")
	}
	if !obj.Delete("myFlag") || obj.Has("myFlag") {
		t.Fatal("expando not deleted")
	}
	if obj.Delete("value") {
		t.Fatal("schema properties cannot be deleted")
	}
}
