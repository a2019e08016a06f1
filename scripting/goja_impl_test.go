package scripting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/google/go-cmp/cmp"

	"github.com/wudi/formscript/form"
)

func TestGojaEngine_ContextCancellation(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if _, err := engine.Execute(ctx, "while (true) {}"); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestGojaEngine_ImmediateCancel(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Execute(ctx, "42"); err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

type recorder struct {
	msgs []form.Message
}

func (r *recorder) Send(msg form.Message) { r.msgs = append(r.msgs, msg) }

type fixture struct {
	engine *GojaEngine
	doc    *form.Doc
	disp   *form.Dispatcher
	sent   *recorder
}

func newFixture(t *testing.T, order []string, fields ...form.FieldConfig) *fixture {
	t.Helper()
	sent := &recorder{}
	doc := form.NewDocument(form.DocumentConfig{CalculationOrder: order}, sent)
	for _, cfg := range fields {
		doc.AddField(cfg.Name, form.NewField(form.KindPlain, []form.FieldConfig{cfg}, sent))
	}
	engine := NewEngine()
	if err := engine.BindDocument(doc); err != nil {
		t.Fatalf("bind document: %v", err)
	}
	return &fixture{engine: engine, doc: doc, disp: form.NewDispatcher(doc, engine), sent: sent}
}

func (fx *fixture) field(t *testing.T, name string) *form.Field {
	t.Helper()
	f, ok := fx.doc.GetField(name)
	if !ok {
		t.Fatalf("field %q not registered", name)
	}
	return f
}

func textConfig(id, name string, value any, actions map[string][]string) form.FieldConfig {
	return form.FieldConfig{ID: id, Name: name, Type: "text", Value: value, Actions: form.NewActions(actions)}
}

func TestEngine_FieldAssignmentNotifiesHost(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "total", "", nil))

	if _, err := fx.engine.Execute(context.Background(), `getField("total").value = "9"`); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := fx.field(t, "total").Value(); got != "9" {
		t.Fatalf("value = %v, want 9", got)
	}
	want := []form.Message{{"id": "1R", "value": "9"}}
	if diff := cmp.Diff(want, fx.sent.msgs); diff != "" {
		t.Fatalf("messages (-want +got):\n%s", diff)
	}
}

func TestEngine_ExpandosAndReadOnly(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "total", "", nil))

	got, err := fx.engine.Execute(context.Background(), `
		var f = this.getField("total");
		f.note = "kept";
		f.name = "renamed";
		f.note + ":" + f.name + ":" + ("note" in f) + ":" + (typeof f.setAction);
	`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "kept:total:true:function" {
		t.Fatalf("got %v", got)
	}
	if len(fx.sent.msgs) != 0 {
		t.Fatalf("expandos must not notify, got %v", fx.sent.msgs)
	}
}

func TestEngine_TypeErrorOnBadArgument(t *testing.T) {
	fx := newFixture(t, nil)

	got, err := fx.engine.Execute(context.Background(), `
		try { getField(1); "no error" } catch (e) { e instanceof TypeError }
	`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != true {
		t.Fatalf("expected TypeError, got %v", got)
	}
}

func TestEngine_SetActionIgnoresNonStrings(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "a", "x", map[string][]string{
		"Validate": {`getField("a").setAction(1, "x"); getField("a").setAction("Format");`},
	}))

	raw := form.NewRawEvent("1R", form.EventKeystroke)
	raw.Value, raw.WillCommit = "y", true
	if err := fx.disp.Dispatch(context.Background(), raw); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	f := fx.field(t, "a")
	if f.Value() != "y" {
		t.Fatalf("value = %v, want y committed", f.Value())
	}
	if _, ok := f.ActiveActions().Get("Format"); ok {
		t.Fatal("setAction with a missing script must not register an action")
	}
}

func TestEngine_GetNthFieldNameRange(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "a", "", nil), textConfig("2R", "b", "", nil))

	got, err := fx.engine.Execute(context.Background(), `
		[getNthFieldName(-0.5), getNthFieldName(NaN), getNthFieldName(2), getNthFieldName(1.9)].map(String).join()
	`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "null,null,null,b" {
		t.Fatalf("got %v", got)
	}
	got, err = fx.engine.Execute(context.Background(), `
		try { getNthFieldName("0"); "no error" } catch (e) { e instanceof TypeError }
	`)
	if err != nil || got != true {
		t.Fatalf("expected TypeError, got %v %v", got, err)
	}
}

func TestEngine_DeadlineDoesNotLeakIntoNextScript(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "a", "", nil))

	for i := 0; i < 500; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := fx.engine.Execute(ctx, "1 + 1")
		cancel()
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
	}
}

func TestEngine_KeystrokeScriptChangesEvent(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "digits", "12", map[string][]string{
		"Keystroke": {`event.rc = /^\d*$/.test(event.change);`},
	}))

	raw := form.NewRawEvent("1R", form.EventKeystroke)
	raw.Value, raw.Change, raw.SelStart, raw.SelEnd = "12", "x", 2, 2
	if err := fx.disp.Dispatch(context.Background(), raw); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := []form.Message{{"id": "1R", "value": "12", "selRange": []int{2, 2}}}
	if diff := cmp.Diff(want, fx.sent.msgs); diff != "" {
		t.Fatalf("rollback (-want +got):\n%s", diff)
	}
}

func TestEngine_SimpleCalculate(t *testing.T) {
	fx := newFixture(t, []string{"3R"},
		textConfig("1R", "a", "", nil),
		textConfig("2R", "b", "2,5", nil),
		textConfig("3R", "sum", "", map[string][]string{
			"Calculate": {`AFSimple_Calculate("SUM", ["a", "b"]);`},
		}),
	)

	raw := form.NewRawEvent("1R", form.EventKeystroke)
	raw.Value, raw.WillCommit = "4", true
	if err := fx.disp.Dispatch(context.Background(), raw); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	sum := fx.field(t, "sum")
	if got := form.ToString(sum.Value()); got != "6.5" {
		t.Fatalf("sum = %q, want 6.5", got)
	}
	if sum.ValueAsString() != "6.5" {
		t.Fatalf("valueAsString = %q", sum.ValueAsString())
	}
}

type alertApp struct{ alerts []string }

func (a *alertApp) ObjectID() string                      { return "" }
func (a *alertApp) Property(string) (form.Property, bool) { return form.Property{}, false }
func (a *alertApp) PropertyNames() []string               { return nil }

func (a *alertApp) Method(name string) (form.Method, bool) {
	if name != "alert" {
		return nil, false
	}
	return func(c form.Call) (any, error) {
		a.alerts = append(a.alerts, form.ToString(c.Arg(0)))
		return nil, nil
	}, true
}

func TestEngine_RangeValidateRejects(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "age", "", map[string][]string{
		"Validate": {`AFRange_Validate(true, 0, true, 120);`},
	}))
	app := &alertApp{}
	if err := fx.engine.Define("app", form.NewObject(app, nil)); err != nil {
		t.Fatalf("define: %v", err)
	}

	raw := form.NewRawEvent("1R", form.EventValidate)
	raw.Value = "130"
	if err := fx.disp.Dispatch(context.Background(), raw); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := fx.field(t, "age").Value(); got != "" {
		t.Fatalf("rejected value committed: %v", got)
	}
	if diff := cmp.Diff([]string{"130 is not between 0 and 120"}, app.alerts); diff != "" {
		t.Fatalf("alerts (-want +got):\n%s", diff)
	}
}

func TestEngine_NestedEvaluationRestoresEvent(t *testing.T) {
	fx := newFixture(t, []string{"2R"},
		textConfig("1R", "a", "", map[string][]string{
			"Action": {`var before = event.name; calculateNow(); global.seen = before + "/" + event.name;`},
		}),
		textConfig("2R", "b", "", map[string][]string{
			"Calculate": {`event.value = "calc:" + event.name;`},
		}),
	)

	if err := fx.disp.Dispatch(context.Background(), form.NewRawEvent("1R", form.EventAction)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	seen, err := fx.engine.Execute(context.Background(), `global.seen`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if seen != "Action/Action" {
		t.Fatalf("seen = %v", seen)
	}
	if got := fx.field(t, "b").Value(); got != "calc:Calculate" {
		t.Fatalf("b = %v", got)
	}
}

func TestEngine_ScriptErrorCarriesStack(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "a", "", map[string][]string{
		"Action": {`throw new Error("boom")`},
	}))

	err := fx.disp.Dispatch(context.Background(), form.NewRawEvent("1R", form.EventAction))
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		t.Fatalf("expected goja exception, got %v", err)
	}
	if !strings.Contains(ex.String(), "boom") {
		t.Fatalf("exception = %q", ex.String())
	}
	var ae *form.ActionError
	if !errors.As(err, &ae) || ae.Event != form.EventAction {
		t.Fatalf("expected action error, got %v", err)
	}
}

func TestEngine_ColorGlobal(t *testing.T) {
	engine := NewEngine()

	got, err := engine.Execute(context.Background(), `
		[color.equal(color.red, ["RGB", 1, 0, 0]), color.convert(color.white, "RGB").join(","), color.convert(color.red, "T")[0]].join("|")
	`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "true|RGB,1,1,1|T" {
		t.Fatalf("got %v", got)
	}
}

func TestEngine_DocumentProperties(t *testing.T) {
	fx := newFixture(t, nil, textConfig("1R", "a", "", nil), textConfig("2R", "b", "", nil))

	got, err := fx.engine.Execute(context.Background(), `
		this.calculate = false;
		numFields + ":" + getNthFieldName(1) + ":" + this.calculate
	`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "2:b:false" {
		t.Fatalf("got %v", got)
	}
	if fx.doc.Calculate() {
		t.Fatal("calculate flag not written through")
	}
}

func TestMakeNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 2,5 ", 2.5, true},
		{"3.5abc", 3.5, true},
		{".5", 0.5, true},
		{"abc", 0, false},
		{"Infinity", 0, false},
		{int64(7), 7, true},
		{nil, 0, false},
	}
	for _, c := range cases {
		got, ok := makeNumber(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("makeNumber(%#v) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}
