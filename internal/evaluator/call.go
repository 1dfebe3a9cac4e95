package evaluator

import (
	"context"
	"ember/internal/ast"
	"ember/internal/errs"
	"ember/internal/object"
	"errors"
	"log/slog"
)

// frame is one active user function call.
type frame struct {
	function string
	pos      int    // position of the call
	src      string // text pos refers to
}

func (e *Evaluator) evalCallExpression(ctx context.Context, env *object.Environment, call *ast.CallExpression) (object.Object, error) {
	args, err := e.evalExpressions(ctx, env, call.Arguments)
	if err != nil {
		return nil, err
	}

	callee, ok := env.Get(call.Function)
	if !ok {
		return nil, errs.New(errs.NameError, "function not defined: %s", call.Function).At(e.src, call.Pos())
	}

	switch fn := callee.(type) {
	case *object.Function:
		return e.applyFunction(ctx, fn, args, call.Pos())
	case *object.Native:
		return e.applyNative(ctx, fn, args, call.Pos())
	default:
		return nil, errs.New(errs.TypeError, "not a function: %s is %s", call.Function, callee.Type()).At(e.src, call.Pos())
	}
}

// applyFunction runs fn in a fresh frame: a child of a copy of the closure
// snapshot, holding the arguments. Nothing the callee writes is seen by the
// snapshot or by the caller.
func (e *Evaluator) applyFunction(ctx context.Context, fn *object.Function, args []object.Object, pos int) (object.Object, error) {
	if err := e.checkContext(ctx); err != nil {
		return nil, e.at(err, pos)
	}
	if len(args) != len(fn.Parameters) {
		return nil, errs.New(errs.ArityError, "wrong number of arguments to `%s`, got=%d, want=%d",
			fn.Name, len(args), len(fn.Parameters)).At(e.src, pos)
	}
	if len(e.frames) >= e.maxDepth {
		err := errs.New(errs.StackError, "maximum call depth of %d exceeded calling %s", e.maxDepth, fn.Name).At(e.src, pos)
		err.Trace = e.stackTrace()
		return nil, err
	}

	env := object.NewEnclosedEnvironment(fn.Env.Copy())
	for i, param := range fn.Parameters {
		env.Bindings[param.Value] = &object.Binding{Value: args[i]}
	}

	e.frames = append(e.frames, frame{function: fn.Name, pos: pos, src: e.src})
	callerSrc := e.src
	e.src = fn.Source
	defer func() {
		e.src = callerSrc
		e.frames = e.frames[:len(e.frames)-1]
	}()

	e.logger.Debug("call",
		slog.String("function", fn.Name),
		slog.Int("depth", len(e.frames)))

	sig, err := e.execBlock(ctx, env, fn.Body)
	if err != nil {
		var ee *errs.Error
		if errors.As(err, &ee) && ee.Trace == nil {
			ee.Trace = e.stackTrace()
		}
		return nil, err
	}

	// break and continue that reach the body end the call like a bare return
	if sig.kind == sigReturning {
		return sig.value, nil
	}
	if sig.kind != sigNormal {
		e.logger.Debug("stray loop signal ended call",
			slog.String("function", fn.Name),
			slog.String("signal", sig.kind.String()))
	}
	return object.NULL, nil
}

func (e *Evaluator) applyNative(ctx context.Context, fn *object.Native, args []object.Object, pos int) (object.Object, error) {
	val, err := fn.Fn(nativeContext{ctx: ctx, e: e}, args)
	if err != nil {
		var ee *errs.Error
		if !errors.As(err, &ee) {
			ee = errs.Wrap(errs.IOError, err, "%s failed", fn.Name)
		}
		return nil, ee.At(e.src, pos)
	}
	if val == nil {
		return object.NULL, nil
	}
	return val, nil
}

// maxTraceFrames caps the trace of deep recursion.
const maxTraceFrames = 32

// stackTrace renders the active frames, innermost first.
func (e *Evaluator) stackTrace() []errs.Frame {
	trace := make([]errs.Frame, 0, min(len(e.frames), maxTraceFrames))
	for i := len(e.frames) - 1; i >= 0 && len(trace) < maxTraceFrames; i-- {
		f := e.frames[i]
		line, col := errs.LineAndColumn(f.src, f.pos)
		trace = append(trace, errs.Frame{Function: f.function, Line: line, Column: col})
	}
	return trace
}
