package evaluator

import (
	"bytes"
	"context"
	"ember/internal/errs"
	"ember/internal/native"
	"ember/internal/object"
	"ember/internal/parser"
	"strings"
	"testing"
)

func newTestEvaluator(input string, out *bytes.Buffer, opts ...Option) *Evaluator {
	opts = append([]Option{WithOutput(out), WithSource("test", input)}, opts...)
	return New(native.Standard(nil), opts...)
}

func testEval(t *testing.T, input string, opts ...Option) (object.Object, string, error) {
	t.Helper()
	program, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("parser error for %q: %v", input, err)
	}
	var out bytes.Buffer
	val, err := newTestEvaluator(input, &out, opts...).Eval(context.Background(), program)
	return val, out.String(), err
}

func testOutput(t *testing.T, input string) string {
	t.Helper()
	_, out, err := testEval(t, input)
	if err != nil {
		t.Fatalf("unexpected error for %q: %v", input, err)
	}
	return out
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3;", "9"},
		{"10 - 4 / 2;", "3"},
		{"2 * (3 + 4);", "14"},
		{"1.5 + 1;", "2.5"},
		{"1 / 0;", "inf"},
		{"0 - 1 / 0;", "-inf"},
		{"0 / 0;", "NaN"},
		{`"a" + 1;`, "a1"},
		{`1 + "a";`, "1a"},
		{`"n=" + 0.5;`, "n=0.5"},
		{`"x" + true;`, "xtrue"},
		{`"v" + [1, "b"];`, "v[1, b]"},
		{"3 > 2;", "true"},
		{"2 >= 2;", "true"},
		{"2 < 1;", "false"},
		{"1 <= 1;", "true"},
		{"1 == 1;", "true"},
		{`"1" == 1;`, "false"},
		{"[1, [2]] == [1, [2]];", "true"},
		{"true != false;", "true"},
		{"1 < 2 == true;", "true"},
		{"[1, 2, 3][1];", "2"},
		{"[1, 2, 3][3];", "null"},
		{"[[1, 2], [3]][0][1];", "2"},
		{"let a = 0; let b = 0; a = b = 3; a + b;", "6"},
		{"print;", "[native print]"},
		{"math.sqrt;", "[native math.sqrt]"},
		{"fn f() { } f;", "[function f]"},
		{"fn f() { } f();", "null"},
		{"let x = 1;", "null"},
	}

	for i, tt := range tests {
		val, _, err := testEval(t, tt.input)
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error for %q: %v", i, tt.input, err)
		}
		if val.Inspect() != tt.expected {
			t.Errorf("tests[%d] - %q expected=%q, got=%q", i, tt.input, tt.expected, val.Inspect())
		}
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`fn nothing() { } print(1, "a", [true, nothing()]);`, "1\na\n[true, null]\n"},
		{`print();`, ""},
		{`fn bare() { return; } fn empty() { } print(bare(), empty());`, "null\nnull\n"},
		{`for (let i = 0; i < 5; i = i + 1) { if (i == 3) { break; } print(i); }`, "0\n1\n2\n"},
		{`for (let i = 0; i < 4; i = i + 1) { if (i == 1) { continue; } print(i); }`, "0\n2\n3\n"},
		{`let i = 0; while (i < 5) { i = i + 1; if (i == 2) { continue; } print(i); }`, "1\n3\n4\n5\n"},
		{`let i = 0; looping (true) { i = i + 1; if (i > 2) break; } print(i);`, "3\n"},
		{`let x = 1; if (true) { let x = 2; print(x); } print(x);`, "2\n1\n"},
		{`let x = 1; if (true) { x = 2; } print(x);`, "2\n"},
		{`let x = 1; { let x = 3; } print(x);`, "1\n"},
		{`if (false) print(1); else print(2);`, "2\n"},
		{`break; print(1); continue; print(2);`, "1\n2\n"},
		{`print(1); return; print(2);`, "1\n"},
		{`print(style.green("ok"));`, "\x1b[32mok\x1b[0m\n"},
		{`print(len("abc") + len([1, 2]));`, "5\n"},
	}

	for i, tt := range tests {
		out := testOutput(t, tt.input)
		if out != tt.expected {
			t.Errorf("tests[%d] - %q expected=%q, got=%q", i, tt.input, tt.expected, out)
		}
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`fn add(a, b) { return a + b; } print(add(2, 3));`, "5\n"},
		{`fn fib(n) { if (n < 2) { return n; } return fib(n - 1) + fib(n - 2); } print(fib(15));`, "610\n"},
		{`let x = 1; fn f() { return x; } x = 2; print(f());`, "1\n"},
		{`let x = 1; fn f() { x = 5; return x; } print(f()); print(x);`, "5\n1\n"},
		{`let n = 0; fn inc() { n = n + 1; return n; } print(inc()); print(inc());`, "1\n1\n"},
		{`fn f(a) { a = a + 1; return a; } let a = 1; print(f(a)); print(a);`, "2\n1\n"},
		{`fn f() { for (let i = 0; i < 10; i = i + 1) { if (i == 3) { return i; } } return 0 - 1; } print(f());`, "3\n"},
		{`fn f() { let i = 0; while (true) { i = i + 1; if (i == 4) { return i; } } } print(f());`, "4\n"},
		{`fn f() { break; print(1); } print(f());`, "null\n"},
		{`fn f() { return; } print(f());`, "null\n"},
		{`fn f(x) giveback x * 2; print(f(4));`, "8\n"},
		{`fn outer() { fn inner() { return 7; } return inner(); } print(outer());`, "7\n"},
		{`fn f() { return [1, 2]; } print(f()[1]);`, "2\n"},
	}

	for i, tt := range tests {
		out := testOutput(t, tt.input)
		if out != tt.expected {
			t.Errorf("tests[%d] - %q expected=%q, got=%q", i, tt.input, tt.expected, out)
		}
	}
}

func TestErrorHandling(t *testing.T) {
	tests := []struct {
		input    string
		kind     errs.Kind
		contains string
	}{
		{`const a = 1; a = 2;`, errs.NameError, "cannot assign to constant a"},
		{`const a = 1; let a = 2;`, errs.NameError, "already declared"},
		{`fn f() { } f = 1;`, errs.NameError, "constant f"},
		{`fn f() { } fn f() { }`, errs.NameError, "already declared"},
		{`print = 1;`, errs.NameError, "constant print"},
		{`let a = 1; a = 2; const b = a; b = 3;`, errs.NameError, "constant b"},
		{`print(y);`, errs.NameError, "identifier not found: y"},
		{`foo();`, errs.NameError, "function not defined: foo"},
		{`if (true) { y = 1; } print(y);`, errs.NameError, "identifier not found: y"},
		{`for (let i = 0; i < 1; i = i + 1) { } print(i);`, errs.NameError, "identifier not found: i"},
		{`fn a() { return b(); } fn b() { return 1; } a();`, errs.NameError, "function not defined: b"},
		{`let x = 1; x();`, errs.TypeError, "not a function"},
		{`1 - "a";`, errs.TypeError, "type mismatch: NUMBER - STRING"},
		{`true + 1;`, errs.TypeError, "type mismatch: BOOLEAN + NUMBER"},
		{`[1] < [2];`, errs.TypeError, "type mismatch"},
		{`if (1) { }`, errs.TypeError, "condition must be a BOOLEAN"},
		{`while ("a") { }`, errs.TypeError, "condition must be a BOOLEAN"},
		{`let a = [1]; a[0 - 1];`, errs.TypeError, "non-negative integer"},
		{`let a = [1]; a[0.5];`, errs.TypeError, "non-negative integer"},
		{`let a = [1]; a["0"];`, errs.TypeError, "must be a NUMBER"},
		{`1[0];`, errs.TypeError, "index operator not supported"},
		{`math.pow(2);`, errs.ArityError, "wrong number of arguments to `pow`"},
		{`fn f(a, b) { } f(1);`, errs.ArityError, "got=1, want=2"},
		{`fs.readFile("/definitely/not/here");`, errs.IOError, "failed to read file"},
	}

	for i, tt := range tests {
		_, _, err := testEval(t, tt.input)
		if err == nil {
			t.Fatalf("tests[%d] - expected error for %q", i, tt.input)
		}
		if !errs.Is(err, tt.kind) {
			t.Fatalf("tests[%d] - expected %s for %q, got %v", i, tt.kind, tt.input, err)
		}
		if !strings.Contains(err.Error(), tt.contains) {
			t.Fatalf("tests[%d] - expected message to contain %q, got %q", i, tt.contains, err.Error())
		}
	}
}

func TestOutputBeforeErrorIsKept(t *testing.T) {
	_, out, err := testEval(t, `print(1); print(missing); print(2);`)
	if !errs.Is(err, errs.NameError) {
		t.Fatalf("expected NameError, got %v", err)
	}
	if out != "1\n" {
		t.Fatalf("expected output before the failure to stay, got %q", out)
	}
}

func TestErrorPosition(t *testing.T) {
	_, _, err := testEval(t, "let a = 1;\nprint(b);")
	e, ok := err.(*errs.Error)
	if !ok {
		t.Fatalf("expected *errs.Error, got %T", err)
	}
	if e.Line != 2 || e.Column != 7 {
		t.Fatalf("expected 2:7, got %d:%d", e.Line, e.Column)
	}

	_, _, err = testEval(t, "\n  math.pow(2);")
	e = err.(*errs.Error)
	if e.Line != 2 || e.Column != 3 {
		t.Fatalf("native errors must carry the call position, got %d:%d", e.Line, e.Column)
	}
}

func TestStackTrace(t *testing.T) {
	input := "fn inner() { return x; }\nfn outer() { return inner(); }\nouter();"
	_, _, err := testEval(t, input)

	e, ok := err.(*errs.Error)
	if !ok || e.Kind != errs.NameError {
		t.Fatalf("expected NameError, got %v", err)
	}
	if len(e.Trace) != 2 {
		t.Fatalf("expected 2 frames, got %v", e.Trace)
	}
	expected := []errs.Frame{
		{Function: "inner", Line: 2, Column: 21},
		{Function: "outer", Line: 3, Column: 1},
	}
	for i, f := range expected {
		if e.Trace[i] != f {
			t.Fatalf("frame[%d] - expected=%v, got=%v", i, f, e.Trace[i])
		}
	}
	if !strings.Contains(e.Render(), "\n    at inner (2:21)\n    at outer (3:1)") {
		t.Fatalf("unexpected render:\n%s", e.Render())
	}
}

func TestCallDepthLimit(t *testing.T) {
	_, _, err := testEval(t, `fn f(n) { return f(n + 1); } f(0);`, WithMaxCallDepth(50))

	e, ok := err.(*errs.Error)
	if !ok || e.Kind != errs.StackError {
		t.Fatalf("expected StackError, got %v", err)
	}
	if len(e.Trace) == 0 || len(e.Trace) > maxTraceFrames {
		t.Fatalf("unexpected trace length %d", len(e.Trace))
	}
	if !strings.Contains(e.Message, "maximum call depth of 50") {
		t.Fatalf("unexpected message %q", e.Message)
	}

	out := testOutput(t, `fn down(n) { if (n == 0) { return 0; } return down(n - 1); } print(down(400));`)
	if out != "0\n" {
		t.Fatalf("recursion under the default limit must succeed, got %q", out)
	}
}

func TestCancellation(t *testing.T) {
	input := `while (true) { }`
	program, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err = newTestEvaluator(input, &out).Execute(ctx, program)
	if !errs.Is(err, errs.InterruptError) {
		t.Fatalf("expected InterruptError, got %v", err)
	}
	if !strings.Contains(err.Error(), context.Canceled.Error()) {
		t.Fatalf("expected the context error in the message, got %q", err.Error())
	}
}

func TestGlobalsPersistAcrossPrograms(t *testing.T) {
	var out bytes.Buffer
	e := New(native.Standard(nil), WithOutput(&out))

	entries := []struct {
		input    string
		expected string
	}{
		{"let x = 4;", "null"},
		{"fn double(n) { return n * 2; }", "null"},
		{"double(x);", "8"},
		{"x = x + 1; x;", "5"},
	}

	for i, tt := range entries {
		program, err := parser.Parse(tt.input)
		if err != nil {
			t.Fatalf("entries[%d] - parser error: %v", i, err)
		}
		e.SetSource("repl", tt.input)
		val, err := e.Eval(context.Background(), program)
		if err != nil {
			t.Fatalf("entries[%d] - unexpected error: %v", i, err)
		}
		if val.Inspect() != tt.expected {
			t.Fatalf("entries[%d] - expected=%q, got=%q", i, tt.expected, val.Inspect())
		}
	}

	names := strings.Join(e.Names(), " ")
	if !strings.Contains(names, "double") || !strings.Contains(names, "math.sqrt") {
		t.Fatalf("names missing globals or natives: %s", names)
	}
}

func TestFunctionErrorPositionUsesDeclaringSource(t *testing.T) {
	var out bytes.Buffer
	e := New(native.Standard(nil), WithOutput(&out))

	first := "\n\nfn f() { return missing; }"
	program, _ := parser.Parse(first)
	e.SetSource("entry1", first)
	if err := e.Execute(context.Background(), program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := "f();"
	program, _ = parser.Parse(second)
	e.SetSource("entry2", second)
	err := e.Execute(context.Background(), program)

	ee, ok := err.(*errs.Error)
	if !ok || ee.Line != 3 {
		t.Fatalf("expected error on line 3 of the declaring entry, got %v", err)
	}
}

func TestDeterminism(t *testing.T) {
	input := `fn fib(n) { if (n < 2) { return n; } return fib(n - 1) + fib(n - 2); }
for (let i = 0; i < 12; i = i + 1) { print("fib " + i + " = " + fib(i)); }`

	first := testOutput(t, input)
	second := testOutput(t, input)
	if first != second {
		t.Fatalf("two runs differ:\n%s\n---\n%s", first, second)
	}
	if !strings.HasSuffix(first, "fib 11 = 89\n") {
		t.Fatalf("unexpected output:\n%s", first)
	}
}
