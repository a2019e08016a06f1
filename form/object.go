package form

import (
	"strings"

	"github.com/pkg/errors"
)

// Property is one entry of an object's static schema. A nil Set marks the
// property read-only.
type Property struct {
	Get func() any
	Set func(v any) error
}

// Backing is the typed state behind an Object.
type Backing interface {
	// ObjectID is the host id used in notifications; empty disables them.
	ObjectID() string
	Property(name string) (Property, bool)
	PropertyNames() []string
}

// Object is the script-facing view of a Backing. Assigning a schema
// property mutates the backing and then notifies the host with
// {id, name: newValue}. Names outside the schema live in a side table of
// expandos that never notifies.
type Object struct {
	backing  Backing
	send     Sender
	expandos map[string]any
	order    []string
}

// NewObject wraps b. send may be nil.
func NewObject(b Backing, s Sender) *Object {
	return &Object{backing: b, send: s, expandos: make(map[string]any)}
}

func (o *Object) Backing() Backing { return o.backing }

func (o *Object) schema(name string) (Property, bool) {
	if strings.HasPrefix(name, "_") {
		return Property{}, false
	}
	return o.backing.Property(name)
}

// Get looks up expandos first, then the schema.
func (o *Object) Get(name string) (any, bool) {
	if v, ok := o.expandos[name]; ok {
		return v, true
	}
	if p, ok := o.schema(name); ok {
		return p.Get(), true
	}
	return nil, false
}

// Set assigns name. Read-only schema properties return ErrReadOnly.
func (o *Object) Set(name string, v any) error {
	p, ok := o.schema(name)
	if !ok {
		if _, seen := o.expandos[name]; !seen {
			o.order = append(o.order, name)
		}
		o.expandos[name] = v
		return nil
	}
	if p.Set == nil {
		return errors.Wrapf(ErrReadOnly, "%s", name)
	}
	if err := p.Set(v); err != nil {
		return err
	}
	if id := o.backing.ObjectID(); id != "" {
		send(o.send, Message{"id": id, name: p.Get()})
	}
	return nil
}

func (o *Object) Has(name string) bool {
	_, ok := o.Get(name)
	return ok
}

// Delete removes an expando. Schema properties cannot be deleted.
func (o *Object) Delete(name string) bool {
	if _, ok := o.expandos[name]; !ok {
		return false
	}
	delete(o.expandos, name)
	for i, k := range o.order {
		if k == name {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys lists expandos followed by schema properties.
func (o *Object) Keys() []string {
	keys := append([]string(nil), o.order...)
	for _, k := range o.backing.PropertyNames() {
		if _, shadowed := o.expandos[k]; !shadowed {
			keys = append(keys, k)
		}
	}
	return keys
}
