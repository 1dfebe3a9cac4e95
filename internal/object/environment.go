package object

import (
	"ember/internal/errs"
	"sort"
)

type Environment struct {
	Bindings map[string]*Binding
	Outer    *Environment

	// Sealed marks the native root. Its bindings are const and it is never
	// part of a closure snapshot.
	Sealed bool
}

type Binding struct {
	Value   Object
	IsConst bool
}

// NewEnclosedEnvironment initializes a child scope of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	return env
}

func NewEnvironment() *Environment {
	return &Environment{
		Bindings: make(map[string]*Binding),
	}
}

// NewRootEnvironment creates the sealed root holding the native bindings.
func NewRootEnvironment(natives map[string]Object) *Environment {
	env := NewEnvironment()
	for name, val := range natives {
		env.Bindings[name] = &Binding{Value: val, IsConst: true}
	}
	env.Sealed = true
	return env
}

func (e *Environment) GetBinding(name string) (*Binding, bool) {
	for env := e; env != nil; env = env.Outer {
		if binding, ok := env.Bindings[name]; ok {
			return binding, true
		}
	}
	return nil, false
}

func (e *Environment) Get(name string) (Object, bool) {
	binding, ok := e.GetBinding(name)
	if !ok {
		return nil, false
	}
	return binding.Value, true
}

// Declare binds name in this environment. A let may replace a let; a const
// may not be replaced at all.
func (e *Environment) Declare(name string, val Object, isConst bool) error {
	if binding, exists := e.Bindings[name]; exists && binding.IsConst {
		return errs.New(errs.NameError, "%s is already declared as a constant", name)
	}
	e.Bindings[name] = &Binding{Value: val, IsConst: isConst}
	return nil
}

// Assign overwrites the nearest binding of name, or creates one in this
// environment when the name is unbound.
func (e *Environment) Assign(name string, val Object) error {
	binding, ok := e.GetBinding(name)
	if !ok {
		e.Bindings[name] = &Binding{Value: val}
		return nil
	}
	if binding.IsConst {
		return errs.New(errs.NameError, "cannot assign to constant %s", name)
	}
	binding.Value = val
	return nil
}

// Snapshot flattens every binding visible from e, up to the sealed root,
// into a fresh environment whose parent is that root. Bindings are copied,
// so later writes on either side are not observed by the other.
func (e *Environment) Snapshot() *Environment {
	snap := NewEnvironment()
	env := e
	for ; env != nil && !env.Sealed; env = env.Outer {
		for name, binding := range env.Bindings {
			if _, shadowed := snap.Bindings[name]; !shadowed {
				copied := *binding
				snap.Bindings[name] = &copied
			}
		}
	}
	snap.Outer = env
	return snap
}

// Copy duplicates this environment's own bindings, keeping the same parent.
func (e *Environment) Copy() *Environment {
	env := &Environment{
		Bindings: make(map[string]*Binding, len(e.Bindings)),
		Outer:    e.Outer,
		Sealed:   e.Sealed,
	}
	for name, binding := range e.Bindings {
		copied := *binding
		env.Bindings[name] = &copied
	}
	return env
}

// Names lists every name visible from e, sorted.
func (e *Environment) Names() []string {
	seen := map[string]bool{}
	for env := e; env != nil; env = env.Outer {
		for name := range env.Bindings {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
