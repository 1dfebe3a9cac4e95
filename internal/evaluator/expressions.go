package evaluator

import (
	"context"
	"ember/internal/ast"
	"ember/internal/errs"
	"ember/internal/object"
	"math"
)

func (e *Evaluator) evalExpression(ctx context.Context, env *object.Environment, expr ast.Expression) (object.Object, error) {
	switch expr := expr.(type) {
	case *ast.NumberLiteral:
		return &object.Number{Value: expr.Value}, nil

	case *ast.StringLiteral:
		return &object.String{Value: expr.Value}, nil

	case *ast.BooleanLiteral:
		return object.NativeBoolToBooleanObject(expr.Value), nil

	case *ast.Identifier:
		if val, ok := env.Get(expr.Value); ok {
			return val, nil
		}
		return nil, errs.New(errs.NameError, "identifier not found: %s", expr.Value).At(e.src, expr.Pos())

	case *ast.AssignExpression:
		val, err := e.evalExpression(ctx, env, expr.Value)
		if err != nil {
			return nil, err
		}
		if err := env.Assign(expr.Name.Value, val); err != nil {
			return nil, e.at(err, expr.Name.Pos())
		}
		return val, nil

	case *ast.InfixExpression:
		left, err := e.evalExpression(ctx, env, expr.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.evalExpression(ctx, env, expr.Right)
		if err != nil {
			return nil, err
		}
		val, err := evalInfixExpression(expr.Operator, left, right)
		if err != nil {
			return nil, e.at(err, expr.Pos())
		}
		return val, nil

	case *ast.ArrayLiteral:
		elements, err := e.evalExpressions(ctx, env, expr.Elements)
		if err != nil {
			return nil, err
		}
		return &object.Array{Elements: elements}, nil

	case *ast.IndexExpression:
		left, err := e.evalExpression(ctx, env, expr.Left)
		if err != nil {
			return nil, err
		}
		index, err := e.evalExpression(ctx, env, expr.Index)
		if err != nil {
			return nil, err
		}
		val, err := evalIndexExpression(left, index)
		if err != nil {
			return nil, e.at(err, expr.Pos())
		}
		return val, nil

	case *ast.CallExpression:
		return e.evalCallExpression(ctx, env, expr)

	default:
		return nil, errs.New(errs.SyntaxError, "unsupported expression %T", expr).At(e.src, expr.Pos())
	}
}

// evalExpressions evaluates left to right, stopping at the first error.
func (e *Evaluator) evalExpressions(ctx context.Context, env *object.Environment, exps []ast.Expression) ([]object.Object, error) {
	result := make([]object.Object, 0, len(exps))

	for _, exp := range exps {
		evaluated, err := e.evalExpression(ctx, env, exp)
		if err != nil {
			return nil, err
		}
		result = append(result, evaluated)
	}

	return result, nil
}

func evalInfixExpression(op ast.Operator, left, right object.Object) (object.Object, error) {
	switch op {
	case ast.OpEq:
		return object.NativeBoolToBooleanObject(object.Equals(left, right)), nil
	case ast.OpNotEq:
		return object.NativeBoolToBooleanObject(!object.Equals(left, right)), nil
	}

	if op == ast.OpAdd && (left.Type() == object.STRING_OBJ || right.Type() == object.STRING_OBJ) {
		return &object.String{Value: left.Inspect() + right.Inspect()}, nil
	}

	l, lok := left.(*object.Number)
	r, rok := right.(*object.Number)
	if !lok || !rok {
		return nil, errs.New(errs.TypeError, "type mismatch: %s %s %s", left.Type(), op, right.Type())
	}
	return evalNumberInfixExpression(op, l.Value, r.Value)
}

// evalNumberInfixExpression follows IEEE 754; division by zero is inf or NaN.
func evalNumberInfixExpression(op ast.Operator, leftVal, rightVal float64) (object.Object, error) {
	switch op {
	case ast.OpAdd:
		return &object.Number{Value: leftVal + rightVal}, nil
	case ast.OpSub:
		return &object.Number{Value: leftVal - rightVal}, nil
	case ast.OpMul:
		return &object.Number{Value: leftVal * rightVal}, nil
	case ast.OpDiv:
		return &object.Number{Value: leftVal / rightVal}, nil
	case ast.OpLt:
		return object.NativeBoolToBooleanObject(leftVal < rightVal), nil
	case ast.OpLtEq:
		return object.NativeBoolToBooleanObject(leftVal <= rightVal), nil
	case ast.OpGt:
		return object.NativeBoolToBooleanObject(leftVal > rightVal), nil
	case ast.OpGtEq:
		return object.NativeBoolToBooleanObject(leftVal >= rightVal), nil
	default:
		return nil, errs.New(errs.TypeError, "unknown operator: NUMBER %s NUMBER", op)
	}
}

func evalIndexExpression(left, index object.Object) (object.Object, error) {
	array, ok := left.(*object.Array)
	if !ok {
		return nil, errs.New(errs.TypeError, "index operator not supported: %s", left.Type())
	}
	n, ok := index.(*object.Number)
	if !ok {
		return nil, errs.New(errs.TypeError, "array index must be a NUMBER, got %s", index.Type())
	}
	if n.Value < 0 || n.Value != math.Trunc(n.Value) {
		return nil, errs.New(errs.TypeError, "array index must be a non-negative integer, got %s", n.Inspect())
	}
	if n.Value >= float64(len(array.Elements)) {
		return object.NULL, nil
	}
	return array.Elements[int(n.Value)], nil
}
