package native

import (
	"ember/internal/object"
	"fmt"
)

// ANSI SGR codes, keyed by function name.
var styleCodes = map[string]int{
	"bold":      1,
	"underline": 4,
	"red":       31,
	"green":     32,
	"yellow":    33,
	"blue":      34,
	"magenta":   35,
	"cyan":      36,
	"white":     37,
	"bgRed":     41,
	"bgGreen":   42,
	"bgYellow":  43,
	"bgBlue":    44,
}

func StyleModule() Module {
	functions := map[string]Function{}
	for name, code := range styleCodes {
		functions[name] = styleWrap(name, code)
	}
	return Module{Name: "style", Functions: functions}
}

func styleWrap(name string, code int) Function {
	return func(ctx Context, args []object.Object) (object.Object, error) {
		if err := checkArity(name, args, 1); err != nil {
			return nil, err
		}
		return &object.String{Value: fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, args[0].Inspect())}, nil
	}
}
