package interp

import (
	"context"
	"fmt"
	"time"
)

// Interpreter pattern-matches output calls out of source text.
// It is safe for concurrent use.
type Interpreter struct {
	eval    Evaluator
	timeout time.Duration
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithEvaluator sets the evaluator used for JavaScript statements.
// The default is a LiteralEvaluator, which never executes user code.
func WithEvaluator(e Evaluator) Option {
	return func(in *Interpreter) {
		if e != nil {
			in.eval = e
		}
	}
}

// WithTimeout bounds the time spent in the evaluator for one Execute call.
// Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(in *Interpreter) {
		in.timeout = d
	}
}

// New returns an Interpreter.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		eval:    LiteralEvaluator{},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

var defaultInterpreter = New()

// Execute runs the default interpreter. See [Interpreter.Execute].
func Execute(lang, source, stdin string) string {
	return defaultInterpreter.Execute(context.Background(), lang, source, stdin)
}

// Execute extracts the output that source would plausibly print when
// written in lang. It is a heuristic, not an interpreter: there is no
// parsing, scoping or control flow. Execute never panics; internal faults
// are reported as an "Execution Error: ..." result.
func (in *Interpreter) Execute(ctx context.Context, lang, source, stdin string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("Execution Error: %v", r)
		}
	}()

	if in.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.timeout)
		defer cancel()
	}

	switch Language(lang) {
	case JavaScript:
		return in.javascript(ctx, source)
	case Python:
		return python(source, stdin)
	case Java:
		return java(source)
	case Cpp:
		return cpp(source)
	default:
		return fmt.Sprintf("Language %s execution not implemented", lang)
	}
}
