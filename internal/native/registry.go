// Package native is the bridge between scripts and Go: an immutable registry
// of host callbacks keyed by their dotted script name.
package native

import (
	"ember/internal/object"
	"errors"
	"slices"
	"sort"
)

type Context = object.NativeContext

type Function = object.NativeFunction

// Module is a closed set of functions under one name. Functions of the
// module with the empty name are registered without a prefix.
type Module struct {
	Name      string
	Functions map[string]Function

	// Close, when set, releases resources the module holds (db handles).
	Close func() error
}

// Registry maps flattened "module.function" keys to natives. It is built
// once and never changes afterwards.
type Registry struct {
	natives map[string]*object.Native
	closers []func() error
}

func NewRegistry(modules ...Module) *Registry {
	r := &Registry{natives: map[string]*object.Native{}}
	for _, m := range modules {
		for name, fn := range m.Functions {
			key := name
			if m.Name != "" {
				key = m.Name + "." + name
			}
			r.natives[key] = &object.Native{Name: key, Fn: fn}
		}
		if m.Close != nil {
			r.closers = append(r.closers, m.Close)
		}
	}
	return r
}

// Standard builds a registry from the built-in modules. A non-empty allow
// list keeps only the named modules; top-level functions are always kept.
func Standard(allow []string) *Registry {
	modules := []Module{}
	for _, m := range Builtins() {
		if m.Name == "" || len(allow) == 0 || slices.Contains(allow, m.Name) {
			modules = append(modules, m)
		}
	}
	return NewRegistry(modules...)
}

// Builtins returns fresh instances of every built-in module.
func Builtins() []Module {
	return []Module{
		CoreModule(),
		MathModule(),
		StyleModule(),
		FsModule(),
		DbModule(),
	}
}

func (r *Registry) Lookup(name string) (*object.Native, bool) {
	n, ok := r.natives[name]
	return n, ok
}

// Names returns the registered keys, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.natives))
	for name := range r.natives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bindings returns the natives as values for a root environment.
func (r *Registry) Bindings() map[string]object.Object {
	out := make(map[string]object.Object, len(r.natives))
	for name, n := range r.natives {
		out[name] = n
	}
	return out
}

func (r *Registry) Close() error {
	var errList []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
