package scripting

import (
	"context"

	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/wudi/formscript/form"
	"github.com/wudi/formscript/observability"
)

// Option configures a GojaEngine.
type Option func(*GojaEngine)

func WithLogger(l observability.Logger) Option {
	return func(e *GojaEngine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithTracer(t observability.Tracer) Option {
	return func(e *GojaEngine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// GojaEngine evaluates scripts on a single goja runtime. Evaluations may
// nest when a script calls back into the document; only the outermost
// one watches the context for cancellation.
type GojaEngine struct {
	vm     *goja.Runtime
	log    observability.Logger
	tracer observability.Tracer

	doc     *form.Doc
	globals map[string]*form.Object
	objects map[*form.Object]*goja.Object
	events  map[*form.Object]*goja.Object

	ctx   context.Context
	event *form.Event
	depth int
}

func NewEngine(opts ...Option) *GojaEngine {
	vm := goja.New()
	e := &GojaEngine{
		vm:      vm,
		log:     observability.NopLogger{},
		tracer:  observability.NopTracer(),
		globals: make(map[string]*form.Object),
		objects: make(map[*form.Object]*goja.Object),
		events:  make(map[*form.Object]*goja.Object),
	}
	for _, opt := range opts {
		opt(e)
	}
	vm.Set("event", goja.Null())
	vm.Set("global", vm.NewObject())
	e.installConstants()
	e.installAForm()
	if err := e.Define("color", form.NewObject(colorObject{}, nil)); err != nil {
		e.log.Error("color binding failed", observability.Error("error", err))
	}
	return e
}

// Evaluate implements form.Evaluator.
func (e *GojaEngine) Evaluate(ctx context.Context, script string, ev *form.Event) error {
	_, err := e.run(ctx, script, ev)
	return err
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	val, err := e.run(ctx, script, e.event)
	if err != nil {
		return nil, err
	}
	return e.fromJS(val), nil
}

func (e *GojaEngine) run(ctx context.Context, script string, ev *form.Event) (val goja.Value, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prevCtx, prevEvent := e.ctx, e.event
	e.ctx = ctx
	e.bindEvent(ev)
	e.depth++
	defer func() {
		e.depth--
		e.ctx = prevCtx
		e.bindEvent(prevEvent)
		if e.depth == 0 {
			e.events = make(map[*form.Object]*goja.Object)
		}
	}()

	if e.depth == 1 {
		// The interrupt must not outlive this call or it would hit the
		// next script on the idle runtime.
		interrupted := make(chan struct{})
		stop := context.AfterFunc(ctx, func() {
			e.vm.Interrupt(ctx.Err())
			close(interrupted)
		})
		defer func() {
			if !stop() {
				<-interrupted
			}
			e.vm.ClearInterrupt()
		}()
	}

	_, span := e.tracer.StartSpan(ctx, observability.SpanScript)
	span.SetTag("depth", e.depth)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	val, err = e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val, nil
}

func (e *GojaEngine) bindEvent(ev *form.Event) {
	e.event = ev
	if ev == nil {
		e.vm.Set("event", goja.Null())
		return
	}
	e.vm.Set("event", e.toJS(ev.Object()))
}

// Define implements Engine.
func (e *GojaEngine) Define(name string, obj *form.Object) error {
	if obj == nil {
		return errors.Errorf("define %q: nil object", name)
	}
	e.globals[name] = obj
	return e.vm.Set(name, e.toJS(obj))
}

// BindDocument implements Engine. Document properties become accessor
// properties of the global object so that `this.calculate = false` and a
// bare `calculate` both reach the document.
func (e *GojaEngine) BindDocument(doc *form.Doc) error {
	if doc == nil {
		return errors.New("bind document: nil document")
	}
	e.doc = doc
	obj := doc.Object()
	global := e.vm.GlobalObject()
	for _, name := range doc.PropertyNames() {
		name := name
		getter := e.vm.ToValue(func(goja.FunctionCall) goja.Value {
			v, _ := obj.Get(name)
			return e.toJS(v)
		})
		setter := e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			e.assign(obj, name, call.Argument(0))
			return goja.Undefined()
		})
		if err := global.DefineAccessorProperty(name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return errors.Wrapf(err, "bind document property %q", name)
		}
	}
	for _, name := range []string{"getField", "getNthFieldName", "calculateNow", "resetForm"} {
		m, _ := doc.Method(name)
		if err := global.Set(name, e.method(m)); err != nil {
			return errors.Wrapf(err, "bind document method %q", name)
		}
	}
	return nil
}

// callContext is the context of the evaluation in progress.
func (e *GojaEngine) callContext() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// throw raises err inside the running script. Wrong argument types
// surface as TypeError.
func (e *GojaEngine) throw(err error) {
	if errors.Is(err, form.ErrInvalidArgument) {
		panic(e.vm.NewTypeError(err.Error()))
	}
	panic(e.vm.NewGoError(err))
}
