// Package errs holds the error taxonomy shared by the lexer, parser,
// evaluator and native modules. Every error is fatal to a run.
package errs

import (
	"bytes"
	"errors"
	"fmt"
)

type Kind int

const (
	LexError Kind = iota
	SyntaxError
	NameError
	TypeError
	ArityError
	StackError
	IOError
	InterruptError
)

var kindNames = [...]string{
	"LexError",
	"SyntaxError",
	"NameError",
	"TypeError",
	"ArityError",
	"StackError",
	"IOError",
	"InterruptError",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Error"
}

// Frame is one entry of a runtime stack trace, innermost first.
type Frame struct {
	Function string
	Line     int
	Column   int
}

type Error struct {
	Kind    Kind
	Message string
	Line    int // 0 when the position is unknown
	Column  int
	Trace   []Frame
	Err     error
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Err = err
	if err != nil {
		e.Message = e.Message + ": " + err.Error()
	}
	return e
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s at %d:%d", e.Kind, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// At sets the source position once; the innermost position wins.
func (e *Error) At(src string, pos int) *Error {
	if e.Line == 0 && src != "" && pos >= 0 {
		e.Line, e.Column = LineAndColumn(src, pos)
	}
	return e
}

// Render returns the message followed by the stack trace, one frame per line.
func (e *Error) Render() string {
	var out bytes.Buffer
	out.WriteString(e.Error())
	for _, f := range e.Trace {
		out.WriteString("\n    at ")
		out.WriteString(f.Function)
		if f.Line > 0 {
			fmt.Fprintf(&out, " (%d:%d)", f.Line, f.Column)
		}
	}
	return out.String()
}

// Is reports whether err is, or wraps, an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func LineAndColumn(src string, pos int) (line int, column int) {
	line = 1
	column = 1
	for i, char := range src {
		if i == pos {
			break
		}
		if char == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}
