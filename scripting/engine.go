package scripting

import (
	"context"

	"github.com/wudi/formscript/form"
)

// Engine is a script runtime able to evaluate form actions.
type Engine interface {
	form.Evaluator

	// Execute evaluates script against the currently bound event and
	// returns its completion value converted to Go.
	Execute(ctx context.Context, script string) (interface{}, error)

	// Define binds obj under a global name.
	Define(name string, obj *form.Object) error

	// BindDocument exposes doc as the script's `this`: its properties and
	// methods become globals and the AForm helpers resolve fields in it.
	BindDocument(doc *form.Doc) error
}

var _ Engine = (*GojaEngine)(nil)
