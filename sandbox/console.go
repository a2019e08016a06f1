package sandbox

import "github.com/wudi/formscript/form"

const consolePrefix = "PDF.js Console:: "

// Console is the script-facing `console` object.
type Console struct {
	send form.Sender
	obj  *form.Object
}

func newConsole(s form.Sender) *Console {
	c := &Console{send: s}
	c.obj = form.NewObject(c, nil)
	return c
}

func (c *Console) Object() *form.Object { return c.obj }

// Println forwards msg to the host console. Non-string messages are
// dropped.
func (c *Console) Println(msg any) {
	if s, ok := msg.(string); ok {
		c.send.Send(form.Message{"command": "println", "value": consolePrefix + s})
	}
}

func (c *Console) Clear() { c.send.Send(form.Message{"id": "clear"}) }

func (c *Console) ObjectID() string                      { return "" }
func (c *Console) Property(string) (form.Property, bool) { return form.Property{}, false }
func (c *Console) PropertyNames() []string               { return nil }

func (c *Console) Method(name string) (form.Method, bool) {
	switch name {
	case "println":
		return func(call form.Call) (any, error) {
			c.Println(call.Arg(0))
			return nil, nil
		}, true
	case "clear":
		return func(form.Call) (any, error) {
			c.Clear()
			return nil, nil
		}, true
	case "show", "hide":
		return func(form.Call) (any, error) { return nil, nil }, true
	}
	return nil, false
}
