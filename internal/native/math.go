package native

import (
	"ember/internal/object"
	"math"
	"math/rand/v2"
)

func MathModule() Module {
	return Module{
		Name: "math",
		Functions: map[string]Function{
			"sqrt":   unaryMath("sqrt", math.Sqrt),
			"floor":  unaryMath("floor", math.Floor),
			"abs":    unaryMath("abs", math.Abs),
			"pow":    fnMathPow,
			"random": fnMathRandom,
		},
	}
}

func unaryMath(name string, fn func(float64) float64) Function {
	return func(ctx Context, args []object.Object) (object.Object, error) {
		if err := checkArity(name, args, 1); err != nil {
			return nil, err
		}
		x, err := unpackNumber(name, args, 0)
		if err != nil {
			return nil, err
		}
		return &object.Number{Value: fn(x)}, nil
	}
}

func fnMathPow(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("pow", args, 2); err != nil {
		return nil, err
	}
	base, err := unpackNumber("pow", args, 0)
	if err != nil {
		return nil, err
	}
	exp, err := unpackNumber("pow", args, 1)
	if err != nil {
		return nil, err
	}
	return &object.Number{Value: math.Pow(base, exp)}, nil
}

// fnMathRandom returns a value in [0, 1).
func fnMathRandom(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("random", args, 0); err != nil {
		return nil, err
	}
	return &object.Number{Value: rand.Float64()}, nil
}
