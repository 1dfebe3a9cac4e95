package native

import (
	"ember/internal/errs"
	"ember/internal/object"
)

func checkArity(fnName string, args []object.Object, want int) error {
	if len(args) != want {
		return errs.New(errs.ArityError, "wrong number of arguments to `%s`, got=%d, want=%d", fnName, len(args), want)
	}
	return nil
}

func checkMinArity(fnName string, args []object.Object, want int) error {
	if len(args) < want {
		return errs.New(errs.ArityError, "wrong number of arguments to `%s`, got=%d, want at least %d", fnName, len(args), want)
	}
	return nil
}

func unpackNumber(fnName string, args []object.Object, i int) (float64, error) {
	n, ok := args[i].(*object.Number)
	if !ok {
		return 0, errs.New(errs.TypeError, "argument %d to `%s` must be a NUMBER, got=%s", i+1, fnName, args[i].Type())
	}
	return n.Value, nil
}

func unpackString(fnName string, args []object.Object, i int) (string, error) {
	s, ok := args[i].(*object.String)
	if !ok {
		return "", errs.New(errs.TypeError, "argument %d to `%s` must be a STRING, got=%s", i+1, fnName, args[i].Type())
	}
	return s.Value, nil
}
