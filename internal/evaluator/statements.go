package evaluator

import (
	"context"
	"ember/internal/ast"
	"ember/internal/errs"
	"ember/internal/object"
)

func (e *Evaluator) execStatement(ctx context.Context, env *object.Environment, stmt ast.Statement) (signal, error) {
	switch stmt := stmt.(type) {
	case *ast.LetStatement:
		return normal, e.execLetStatement(ctx, env, stmt)

	case *ast.AssignStatement:
		val, err := e.evalExpression(ctx, env, stmt.Value)
		if err != nil {
			return normal, err
		}
		return normal, e.at(env.Assign(stmt.Name.Value, val), stmt.Pos())

	case *ast.ExpressionStatement:
		_, err := e.evalExpression(ctx, env, stmt.Expression)
		return normal, err

	case *ast.BlockStatement:
		return e.execBlock(ctx, object.NewEnclosedEnvironment(env), stmt)

	case *ast.IfStatement:
		return e.execIfStatement(ctx, env, stmt)

	case *ast.LoopStatement:
		return e.execLoopStatement(ctx, env, stmt)

	case *ast.ForStatement:
		return e.execForStatement(ctx, env, stmt)

	case *ast.BreakStatement:
		return breaking, nil

	case *ast.ContinueStatement:
		return continuing, nil

	case *ast.FunctionStatement:
		return normal, e.execFunctionStatement(env, stmt)

	case *ast.ReturnStatement:
		if stmt.ReturnValue == nil {
			return returning(object.NULL), nil
		}
		val, err := e.evalExpression(ctx, env, stmt.ReturnValue)
		if err != nil {
			return normal, err
		}
		return returning(val), nil

	default:
		return normal, errs.New(errs.SyntaxError, "unsupported statement %T", stmt).At(e.src, stmt.Pos())
	}
}

// execBlock runs statements in env, stopping at the first signal that is
// not normal and handing it to the caller.
func (e *Evaluator) execBlock(ctx context.Context, env *object.Environment, block *ast.BlockStatement) (signal, error) {
	for _, stmt := range block.Statements {
		sig, err := e.execStatement(ctx, env, stmt)
		if err != nil {
			return normal, err
		}
		if sig.kind != sigNormal {
			return sig, nil
		}
	}
	return normal, nil
}

func (e *Evaluator) execLetStatement(ctx context.Context, env *object.Environment, stmt *ast.LetStatement) error {
	val, err := e.evalExpression(ctx, env, stmt.Value)
	if err != nil {
		return err
	}
	return e.at(env.Declare(stmt.Name.Value, val, stmt.IsConst), stmt.Pos())
}

func (e *Evaluator) execIfStatement(ctx context.Context, env *object.Environment, stmt *ast.IfStatement) (signal, error) {
	ok, err := e.evalCondition(ctx, env, stmt.Condition)
	if err != nil {
		return normal, err
	}

	if ok {
		return e.execBlock(ctx, object.NewEnclosedEnvironment(env), stmt.ThenBranch)
	}
	if stmt.ElseBranch != nil {
		return e.execBlock(ctx, object.NewEnclosedEnvironment(env), stmt.ElseBranch)
	}
	return normal, nil
}

func (e *Evaluator) execLoopStatement(ctx context.Context, env *object.Environment, stmt *ast.LoopStatement) (signal, error) {
	for {
		if err := e.checkContext(ctx); err != nil {
			return normal, e.at(err, stmt.Pos())
		}

		ok, err := e.evalCondition(ctx, env, stmt.Condition)
		if err != nil || !ok {
			return normal, err
		}

		sig, err := e.execBlock(ctx, object.NewEnclosedEnvironment(env), stmt.Body)
		if err != nil {
			return normal, err
		}
		switch sig.kind {
		case sigBreaking:
			return normal, nil
		case sigReturning:
			return sig, nil
		}
	}
}

// execForStatement scopes the init declaration to the loop. The update
// runs after a normal or continued iteration, never after break or return.
func (e *Evaluator) execForStatement(ctx context.Context, env *object.Environment, stmt *ast.ForStatement) (signal, error) {
	loopEnv := object.NewEnclosedEnvironment(env)
	if err := e.execLetStatement(ctx, loopEnv, stmt.Init); err != nil {
		return normal, err
	}

	for {
		if err := e.checkContext(ctx); err != nil {
			return normal, e.at(err, stmt.Pos())
		}

		ok, err := e.evalCondition(ctx, loopEnv, stmt.Condition)
		if err != nil || !ok {
			return normal, err
		}

		sig, err := e.execBlock(ctx, object.NewEnclosedEnvironment(loopEnv), stmt.Body)
		if err != nil {
			return normal, err
		}
		switch sig.kind {
		case sigBreaking:
			return normal, nil
		case sigReturning:
			return sig, nil
		}

		if _, err := e.evalExpression(ctx, loopEnv, stmt.Update); err != nil {
			return normal, err
		}
	}
}

// execFunctionStatement binds a closure over a snapshot of everything
// visible here. The function also binds itself in the snapshot, so it can
// call itself.
func (e *Evaluator) execFunctionStatement(env *object.Environment, stmt *ast.FunctionStatement) error {
	fn := &object.Function{
		Name:       stmt.Name.Value,
		Parameters: stmt.Parameters,
		Body:       stmt.Body,
		Source:     e.src,
	}
	fn.Env = env.Snapshot()
	fn.Env.Bindings[fn.Name] = &object.Binding{Value: fn, IsConst: true}

	return e.at(env.Declare(fn.Name, fn, true), stmt.Pos())
}

func (e *Evaluator) evalCondition(ctx context.Context, env *object.Environment, cond ast.Expression) (bool, error) {
	val, err := e.evalExpression(ctx, env, cond)
	if err != nil {
		return false, err
	}
	b, ok := val.(*object.Boolean)
	if !ok {
		return false, errs.New(errs.TypeError, "condition must be a BOOLEAN, got %s", val.Type()).At(e.src, cond.Pos())
	}
	return b.Value, nil
}
