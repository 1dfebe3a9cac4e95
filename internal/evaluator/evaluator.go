// Package evaluator executes parsed programs by walking the AST.
package evaluator

import (
	"context"
	"ember/internal/ast"
	"ember/internal/errs"
	"ember/internal/native"
	"ember/internal/object"
	"errors"
	"io"
	"log/slog"
	"os"
)

const DefaultMaxCallDepth = 512

// Evaluator holds the persistent global environment of one interpreter
// instance. It is not safe for concurrent use.
type Evaluator struct {
	registry *native.Registry
	globals  *object.Environment

	out      io.Writer
	logger   *slog.Logger
	maxDepth int

	srcName string
	src     string // the text AST positions currently refer to

	frames []frame
}

// Option is a functional option for configuring the Evaluator.
type Option func(*Evaluator)

// WithOutput sets the writer natives such as print write to.
func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) {
		e.out = w
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithMaxCallDepth bounds the number of active user function calls.
func WithMaxCallDepth(depth int) Option {
	return func(e *Evaluator) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithSource names the source text of the programs to be executed, so
// errors can report line and column.
func WithSource(name, src string) Option {
	return func(e *Evaluator) {
		e.SetSource(name, src)
	}
}

// New creates an evaluator whose root scope holds the registry's natives.
func New(reg *native.Registry, opts ...Option) *Evaluator {
	if reg == nil {
		reg = native.NewRegistry()
	}
	e := &Evaluator{
		registry: reg,
		out:      os.Stdout,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.globals = object.NewEnclosedEnvironment(object.NewRootEnvironment(reg.Bindings()))
	return e
}

// SetSource replaces the source text positions are resolved against. The
// REPL calls it once per entry.
func (e *Evaluator) SetSource(name, src string) {
	e.srcName = name
	e.src = src
}

// Names lists every name visible at top level, natives included.
func (e *Evaluator) Names() []string {
	return e.globals.Names()
}

// Execute runs the program's statements in the global environment.
func (e *Evaluator) Execute(ctx context.Context, program *ast.Program) error {
	_, err := e.Eval(ctx, program)
	return err
}

// Eval is Execute, also returning the value of the last expression
// statement executed, or the value of a top-level return. It is NULL when
// there is neither.
func (e *Evaluator) Eval(ctx context.Context, program *ast.Program) (object.Object, error) {
	e.frames = e.frames[:0]

	e.logger.Debug("executing program",
		slog.String("source", e.srcName),
		slog.Int("statements", len(program.Statements)))

	var result object.Object = object.NULL
	for _, stmt := range program.Statements {
		if es, ok := stmt.(*ast.ExpressionStatement); ok {
			val, err := e.evalExpression(ctx, e.globals, es.Expression)
			if err != nil {
				return nil, err
			}
			result = val
			continue
		}

		sig, err := e.execStatement(ctx, e.globals, stmt)
		if err != nil {
			return nil, err
		}
		// stray break and continue end the statement they unwound; the
		// program carries on with the next one
		if sig.kind == sigReturning {
			return sig.value, nil
		}
	}
	return result, nil
}

func (e *Evaluator) checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.InterruptError, err, "execution interrupted")
	}
	return nil
}

// at positions err at pos unless a more precise position is already set.
func (e *Evaluator) at(err error, pos int) error {
	var ee *errs.Error
	if errors.As(err, &ee) {
		ee.At(e.src, pos)
	}
	return err
}

// nativeContext is what native callbacks see of the running evaluator.
type nativeContext struct {
	ctx context.Context
	e   *Evaluator
}

func (c nativeContext) Context() context.Context { return c.ctx }
func (c nativeContext) Output() io.Writer        { return c.e.out }
func (c nativeContext) Logger() *slog.Logger     { return c.e.logger }
