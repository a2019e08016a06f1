package form

import "context"

// Evaluator runs one script body with ev bound as the current event. It
// may re-enter the document synchronously. Errors abort the action list
// that requested the evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, ev *Event) error
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, script string, ev *Event) error

func (f EvaluatorFunc) Evaluate(ctx context.Context, script string, ev *Event) error {
	return f(ctx, script, ev)
}
