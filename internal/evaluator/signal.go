package evaluator

import "ember/internal/object"

// signalKind tells how a statement completed. Signals never escape the
// evaluator and are never values.
type signalKind int

const (
	sigNormal signalKind = iota
	sigReturning
	sigBreaking
	sigContinuing
)

type signal struct {
	kind  signalKind
	value object.Object // set for sigReturning
}

var (
	normal     = signal{kind: sigNormal}
	breaking   = signal{kind: sigBreaking}
	continuing = signal{kind: sigContinuing}
)

func returning(val object.Object) signal {
	return signal{kind: sigReturning, value: val}
}

func (k signalKind) String() string {
	switch k {
	case sigReturning:
		return "returning"
	case sigBreaking:
		return "breaking"
	case sigContinuing:
		return "continuing"
	default:
		return "normal"
	}
}
