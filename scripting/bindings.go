package scripting

import (
	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/wudi/formscript/form"
)

// objectAdapter exposes a form.Object to scripts as a goja dynamic object.
// Schema reads and writes go through the wrapper so host notifications
// fire; methods of the backing resolve after properties and expandos.
type objectAdapter struct {
	e       *GojaEngine
	obj     *form.Object
	methods map[string]goja.Value
}

func (a *objectAdapter) Get(key string) goja.Value {
	if v, ok := a.obj.Get(key); ok {
		return a.e.toJS(v)
	}
	if m, ok := a.method(key); ok {
		return m
	}
	return nil
}

func (a *objectAdapter) Set(key string, val goja.Value) bool {
	return a.e.assign(a.obj, key, val)
}

func (a *objectAdapter) Has(key string) bool {
	if a.obj.Has(key) {
		return true
	}
	_, ok := a.method(key)
	return ok
}

func (a *objectAdapter) Delete(key string) bool { return a.obj.Delete(key) }

func (a *objectAdapter) Keys() []string { return a.obj.Keys() }

func (a *objectAdapter) method(name string) (goja.Value, bool) {
	if m, ok := a.methods[name]; ok {
		return m, true
	}
	ms, ok := a.obj.Backing().(form.Methods)
	if !ok {
		return nil, false
	}
	m, ok := ms.Method(name)
	if !ok {
		return nil, false
	}
	if a.methods == nil {
		a.methods = make(map[string]goja.Value)
	}
	fn := a.e.method(m)
	a.methods[name] = fn
	return fn, true
}

// assign writes val to obj.name. A read-only property reports false, which
// goja turns into a TypeError only in strict code.
func (e *GojaEngine) assign(obj *form.Object, name string, val goja.Value) bool {
	err := obj.Set(name, e.fromJS(val))
	switch {
	case err == nil:
		return true
	case errors.Is(err, form.ErrReadOnly):
		return false
	}
	e.throw(err)
	return false
}

func (e *GojaEngine) method(m form.Method) goja.Value {
	return e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = e.fromJS(arg)
		}
		res, err := m(form.Call{Ctx: e.callContext(), Event: e.event, Args: args})
		if err != nil {
			e.throw(err)
		}
		if res == nil {
			return goja.Undefined()
		}
		return e.toJS(res)
	})
}

// wrap returns the dynamic object for obj, creating it on first use.
// Event objects are cached only for the outermost evaluation.
func (e *GojaEngine) wrap(obj *form.Object) *goja.Object {
	cache := e.objects
	if _, ok := obj.Backing().(*form.Event); ok {
		cache = e.events
	}
	if o, ok := cache[obj]; ok {
		return o
	}
	o := e.vm.NewDynamicObject(&objectAdapter{e: e, obj: obj})
	cache[obj] = o
	return o
}

func (e *GojaEngine) toJS(v any) goja.Value {
	switch t := v.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return t
	case *form.Object:
		return e.wrap(t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = e.toJS(item)
		}
		return e.vm.NewArray(items...)
	case []string:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = item
		}
		return e.vm.NewArray(items...)
	}
	return e.vm.ToValue(v)
}

func (e *GojaEngine) fromJS(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return unwrap(v.Export())
}

// unwrap maps exported dynamic objects back to their form objects.
func unwrap(v any) any {
	switch t := v.(type) {
	case *objectAdapter:
		return t.obj
	case []any:
		for i := range t {
			t[i] = unwrap(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = unwrap(t[k])
		}
		return t
	}
	return v
}
