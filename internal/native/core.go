package native

import (
	"ember/internal/errs"
	"ember/internal/object"
	"io"
	"unicode/utf8"
)

// CoreModule holds the top-level functions, called without a prefix.
func CoreModule() Module {
	return Module{
		Functions: map[string]Function{
			"print": fnPrint,
			"len":   fnLen,
		},
	}
}

// fnPrint writes each argument's canonical form followed by a newline.
func fnPrint(ctx Context, args []object.Object) (object.Object, error) {
	out := ctx.Output()
	for _, arg := range args {
		if _, err := io.WriteString(out, arg.Inspect()+"\n"); err != nil {
			return nil, errs.Wrap(errs.IOError, err, "print failed")
		}
	}
	return object.NULL, nil
}

func fnLen(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("len", args, 1); err != nil {
		return nil, err
	}
	switch arg := args[0].(type) {
	case *object.String:
		return &object.Number{Value: float64(utf8.RuneCountInString(arg.Value))}, nil
	case *object.Array:
		return &object.Number{Value: float64(len(arg.Elements))}, nil
	default:
		return nil, errs.New(errs.TypeError, "argument to `len` not supported, got %s", args[0].Type())
	}
}
