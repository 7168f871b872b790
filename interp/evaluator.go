package interp

import "context"

// Capture holds what a JavaScript evaluation wrote to the console.
type Capture struct {
	Logs   []string
	Errors []string
}

// Evaluator runs a fragment of JavaScript and reports its console output.
// A returned error means the fragment could not be evaluated at all;
// console.error output belongs in Capture.Errors instead.
type Evaluator interface {
	Eval(ctx context.Context, code string) (Capture, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, code string) (Capture, error)

// Eval calls f(ctx, code).
func (f EvaluatorFunc) Eval(ctx context.Context, code string) (Capture, error) {
	return f(ctx, code)
}
