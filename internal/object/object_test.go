package object

import (
	"ember/internal/errs"
	"math"
	"testing"
)

func TestInspect(t *testing.T) {
	// variables, so the sum is rounded at run time like script arithmetic
	tenth, fifth := 0.1, 0.2
	tests := []struct {
		obj      Object
		expected string
	}{
		{&Number{Value: 3}, "3"},
		{&Number{Value: -42}, "-42"},
		{&Number{Value: 1.5}, "1.5"},
		{&Number{Value: tenth + fifth}, "0.30000000000000004"},
		{&Number{Value: math.Copysign(0, -1)}, "0"},
		{&Number{Value: 1e21}, "1e+21"},
		{&Number{Value: math.NaN()}, "NaN"},
		{&Number{Value: math.Inf(1)}, "inf"},
		{&Number{Value: math.Inf(-1)}, "-inf"},
		{&String{Value: "hi\tthere"}, "hi\tthere"},
		{TRUE, "true"},
		{FALSE, "false"},
		{NULL, "null"},
		{&Array{Elements: []Object{&Number{Value: 1}, &String{Value: "a"}, TRUE}}, "[1, a, true]"},
		{&Array{Elements: []Object{}}, "[]"},
		{&Function{Name: "fib"}, "[function fib]"},
		{&Native{Name: "math.sqrt"}, "[native math.sqrt]"},
	}

	for i, tt := range tests {
		if tt.obj.Inspect() != tt.expected {
			t.Errorf("tests[%d] - Inspect wrong. expected=%q, got=%q", i, tt.expected, tt.obj.Inspect())
		}
	}
}

func TestEquals(t *testing.T) {
	fn := &Function{Name: "f"}
	tests := []struct {
		a, b     Object
		expected bool
	}{
		{&Number{Value: 1}, &Number{Value: 1}, true},
		{&Number{Value: 1}, &Number{Value: 2}, false},
		{&Number{Value: math.NaN()}, &Number{Value: math.NaN()}, false},
		{&String{Value: "a"}, &String{Value: "a"}, true},
		{&String{Value: "1"}, &Number{Value: 1}, false},
		{TRUE, &Boolean{Value: true}, true},
		{NULL, &Null{}, true},
		{NULL, FALSE, false},
		{&Array{Elements: []Object{&Number{Value: 1}}}, &Array{Elements: []Object{&Number{Value: 1}}}, true},
		{&Array{Elements: []Object{&Number{Value: 1}}}, &Array{Elements: []Object{}}, false},
		{fn, fn, true},
		{fn, &Function{Name: "f"}, false},
	}

	for i, tt := range tests {
		if Equals(tt.a, tt.b) != tt.expected {
			t.Errorf("tests[%d] - Equals(%s, %s) expected %t", i, tt.a.Inspect(), tt.b.Inspect(), tt.expected)
		}
	}
}

func TestDeclare(t *testing.T) {
	env := NewEnvironment()

	if err := env.Declare("x", &Number{Value: 1}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.Declare("x", &Number{Value: 2}, false); err != nil {
		t.Fatalf("redeclaring a let must succeed, got %v", err)
	}
	if err := env.Declare("c", TRUE, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.Declare("c", FALSE, false); !errs.Is(err, errs.NameError) {
		t.Fatalf("expected NameError redeclaring a const, got %v", err)
	}

	inner := NewEnclosedEnvironment(env)
	if err := inner.Declare("c", FALSE, true); err != nil {
		t.Fatalf("shadowing in a child scope must succeed, got %v", err)
	}
	if v, _ := env.Get("c"); v != TRUE {
		t.Fatalf("shadowing changed the outer binding")
	}
}

func TestAssign(t *testing.T) {
	root := NewRootEnvironment(map[string]Object{"print": &Native{Name: "print"}})
	global := NewEnclosedEnvironment(root)
	block := NewEnclosedEnvironment(global)

	global.Declare("x", &Number{Value: 1}, false)
	if err := block.Assign("x", &Number{Value: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := global.Get("x"); v.Inspect() != "2" {
		t.Fatalf("assignment must update the owning scope, got %s", v.Inspect())
	}

	if err := block.Assign("y", &Number{Value: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := global.Get("y"); ok {
		t.Fatalf("an unbound name must be created in the innermost scope")
	}

	global.Declare("k", TRUE, true)
	if err := block.Assign("k", FALSE); !errs.Is(err, errs.NameError) {
		t.Fatalf("expected NameError assigning a const, got %v", err)
	}
	if err := block.Assign("print", FALSE); !errs.Is(err, errs.NameError) {
		t.Fatalf("expected NameError assigning a native, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	root := NewRootEnvironment(map[string]Object{"print": &Native{Name: "print"}})
	global := NewEnclosedEnvironment(root)
	global.Declare("x", &Number{Value: 1}, false)
	inner := NewEnclosedEnvironment(global)
	inner.Declare("x", &Number{Value: 10}, false)
	inner.Declare("y", &Number{Value: 2}, false)

	snap := inner.Snapshot()
	if snap.Outer != root {
		t.Fatalf("snapshot parent must be the sealed root")
	}
	if _, ok := snap.Bindings["print"]; ok {
		t.Fatalf("natives must not be copied into the snapshot")
	}
	if v, _ := snap.Get("x"); v.Inspect() != "10" {
		t.Fatalf("inner binding must shadow outer, got %s", v.Inspect())
	}

	global.Assign("x", &Number{Value: 99})
	inner.Assign("y", &Number{Value: 3})
	if v, _ := snap.Get("y"); v.Inspect() != "2" {
		t.Fatalf("snapshot observed a later write, got %s", v.Inspect())
	}

	frame := snap.Copy()
	frame.Assign("y", &Number{Value: 7})
	if v, _ := snap.Get("y"); v.Inspect() != "2" {
		t.Fatalf("copy aliases the snapshot, got %s", v.Inspect())
	}
}

func TestNames(t *testing.T) {
	root := NewRootEnvironment(map[string]Object{"print": &Native{Name: "print"}})
	env := NewEnclosedEnvironment(root)
	env.Declare("b", NULL, false)
	env.Declare("a", NULL, false)

	names := env.Names()
	expected := []string{"a", "b", "print"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, names)
		}
	}
}
