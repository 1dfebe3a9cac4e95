package parser

import (
	"ember/internal/ast"
	"ember/internal/errs"
	"reflect"
	"strings"
	"testing"
)

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := Parse(input)
	if err != nil {
		t.Fatalf("parser error for %q: %v", input, err)
	}
	return program
}

func TestLetStatements(t *testing.T) {
	tests := []struct {
		input         string
		expectedName  string
		expectedConst bool
		expectedValue string
	}{
		{"let x = 5;", "x", false, "5"},
		{"const y = true;", "y", true, "true"},
		{`let foobar = "bar";`, "foobar", false, `"bar"`},
		{"let z = a + b;", "z", false, "(a + b)"},
	}

	for i, tt := range tests {
		program := parseOK(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("tests[%d] - expected 1 statement, got=%d", i, len(program.Statements))
		}
		stmt, ok := program.Statements[0].(*ast.LetStatement)
		if !ok {
			t.Fatalf("tests[%d] - statement is not *ast.LetStatement. got=%T", i, program.Statements[0])
		}
		if stmt.Name.Value != tt.expectedName || stmt.IsConst != tt.expectedConst {
			t.Fatalf("tests[%d] - declaration wrong. got name=%q const=%t", i, stmt.Name.Value, stmt.IsConst)
		}
		if stmt.Value.String() != tt.expectedValue {
			t.Fatalf("tests[%d] - value wrong. expected=%q, got=%q", i, tt.expectedValue, stmt.Value.String())
		}
	}
}

func TestFlatPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3;", "((1 + 2) * 3);"},
		{"a * b + c;", "((a * b) + c);"},
		{"a - b - c;", "((a - b) - c);"},
		{"a < b == c;", "((a < b) == c);"},
		{"1 + (2 * 3);", "(1 + (2 * 3));"},
		{"x = y = 3;", "x = (y = 3);"},
		{"print(x = 2);", "print((x = 2));"},
		{"a[0][1];", "((a[0])[1]);"},
		{"[1, 2][i + 1];", "([1, 2][(i + 1)]);"},
		{"math.pow(2, 3) + 1;", "(math.pow(2, 3) + 1);"},
		{"random();", "random();"},
		{"x;", "x;"},
	}

	for i, tt := range tests {
		actual := parseOK(t, tt.input).String()
		if actual != tt.expected {
			t.Errorf("tests[%d] - expected=%q, got=%q", i, tt.expected, actual)
		}
	}
}

func TestAssignStatement(t *testing.T) {
	program := parseOK(t, "x = x + 1;")
	stmt, ok := program.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("statement is not *ast.AssignStatement. got=%T", program.Statements[0])
	}
	if stmt.Name.Value != "x" || stmt.Value.String() != "(x + 1)" {
		t.Fatalf("unexpected assignment %q", stmt.String())
	}
}

func TestIfStatementBodiesNormalize(t *testing.T) {
	program := parseOK(t, `if (x < y) print(x); else { print(y); print(x); }`)

	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("statement is not *ast.IfStatement. got=%T", program.Statements[0])
	}
	if len(stmt.ThenBranch.Statements) != 1 {
		t.Fatalf("single statement body must become a one-element block, got=%d", len(stmt.ThenBranch.Statements))
	}
	if stmt.ElseBranch == nil || len(stmt.ElseBranch.Statements) != 2 {
		t.Fatalf("else branch wrong: %v", stmt.ElseBranch)
	}

	program = parseOK(t, `if (true) { }`)
	if program.Statements[0].(*ast.IfStatement).ElseBranch != nil {
		t.Fatalf("expected no else branch")
	}
}

func TestLoopStatements(t *testing.T) {
	for _, kw := range []string{"looping", "while"} {
		program := parseOK(t, kw+" (i < 3) { i = i + 1; }")
		stmt, ok := program.Statements[0].(*ast.LoopStatement)
		if !ok {
			t.Fatalf("%s - statement is not *ast.LoopStatement. got=%T", kw, program.Statements[0])
		}
		if stmt.Condition.String() != "(i < 3)" || len(stmt.Body.Statements) != 1 {
			t.Fatalf("%s - unexpected loop %q", kw, stmt.String())
		}
	}
}

func TestForStatement(t *testing.T) {
	program := parseOK(t, `for (let i = 0; i < 5; i = i + 1) { if (i == 3) { break; } continue; }`)

	stmt, ok := program.Statements[0].(*ast.ForStatement)
	if !ok {
		t.Fatalf("statement is not *ast.ForStatement. got=%T", program.Statements[0])
	}
	if stmt.Init.Name.Value != "i" || stmt.Condition.String() != "(i < 5)" || stmt.Update.String() != "(i = (i + 1))" {
		t.Fatalf("unexpected clauses %q", stmt.String())
	}
	if _, ok := stmt.Body.Statements[1].(*ast.ContinueStatement); !ok {
		t.Fatalf("expected continue statement, got=%T", stmt.Body.Statements[1])
	}
	inner := stmt.Body.Statements[0].(*ast.IfStatement)
	if _, ok := inner.ThenBranch.Statements[0].(*ast.BreakStatement); !ok {
		t.Fatalf("expected break statement, got=%T", inner.ThenBranch.Statements[0])
	}
}

func TestBreakOutsideLoopParses(t *testing.T) {
	program := parseOK(t, "break; continue;")
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got=%d", len(program.Statements))
	}
}

func TestFunctionStatement(t *testing.T) {
	tests := []struct {
		input          string
		expectedParams []string
	}{
		{"fn f() { }", []string{}},
		{"fn f(x) { return x; }", []string{"x"}},
		{"fn f(x, y, z) return x;", []string{"x", "y", "z"}},
	}

	for i, tt := range tests {
		program := parseOK(t, tt.input)
		fn, ok := program.Statements[0].(*ast.FunctionStatement)
		if !ok {
			t.Fatalf("tests[%d] - statement is not *ast.FunctionStatement. got=%T", i, program.Statements[0])
		}
		params := []string{}
		for _, p := range fn.Parameters {
			params = append(params, p.Value)
		}
		if !reflect.DeepEqual(params, tt.expectedParams) {
			t.Fatalf("tests[%d] - parameters wrong. expected=%v, got=%v", i, tt.expectedParams, params)
		}
	}
}

func TestReturnStatements(t *testing.T) {
	program := parseOK(t, "return; giveback 1 + 1;")
	bare := program.Statements[0].(*ast.ReturnStatement)
	if bare.ReturnValue != nil {
		t.Fatalf("bare return must have no value, got %v", bare.ReturnValue)
	}
	val := program.Statements[1].(*ast.ReturnStatement)
	if val.ReturnValue.String() != "(1 + 1)" {
		t.Fatalf("return value wrong, got %q", val.ReturnValue.String())
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"5;", 5},
		{"3.25;", 3.25},
		{"7.;", 7},
		{"1.2.3;", 0},
	}

	for i, tt := range tests {
		program := parseOK(t, tt.input)
		lit := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.NumberLiteral)
		if lit.Value != tt.expected {
			t.Fatalf("tests[%d] - value wrong. expected=%v, got=%v", i, tt.expected, lit.Value)
		}
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input    string
		kind     errs.Kind
		contains string
	}{
		{"let = 5;", errs.SyntaxError, "expected next token to be IDENT"},
		{"let x 5;", errs.SyntaxError, "expected next token to be ="},
		{"let x = 5", errs.SyntaxError, "end of input"},
		{"1 + 2 = 3;", errs.SyntaxError, "invalid assignment target"},
		{"math.pi = 3;", errs.SyntaxError, "invalid assignment target"},
		{"(x) = 3;", errs.SyntaxError, "invalid assignment target x"},
		{"print((x) = 3);", errs.SyntaxError, "invalid assignment target x"},
		{"fn f(a, 1) { }", errs.SyntaxError, "malformed parameter list"},
		{"fn f(a b) { }", errs.SyntaxError, "malformed parameter list"},
		{"if x { }", errs.SyntaxError, "expected next token to be ("},
		{"for (i = 0; i < 1; i = i + 1) { }", errs.SyntaxError, "declaration"},
		{"{ let a = 1;", errs.SyntaxError, "expected next token to be }"},
		{"!x;", errs.SyntaxError, "unexpected '!'"},
		{"let a = 1; let b = @;", errs.LexError, "unrecognized character"},
		{"print(1,);", errs.SyntaxError, "unexpected ')'"},
	}

	for i, tt := range tests {
		program, err := Parse(tt.input)
		if err == nil {
			t.Fatalf("tests[%d] - expected error for %q", i, tt.input)
		}
		if program != nil {
			t.Fatalf("tests[%d] - a failed parse must not return a program", i)
		}
		if !errs.Is(err, tt.kind) {
			t.Fatalf("tests[%d] - expected %s, got %v", i, tt.kind, err)
		}
		if !strings.Contains(err.Error(), tt.contains) {
			t.Fatalf("tests[%d] - expected message to contain %q, got %q", i, tt.contains, err.Error())
		}
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := Parse("let a = 1;\nlet b 2;")
	e, ok := err.(*errs.Error)
	if !ok {
		t.Fatalf("expected *errs.Error, got %T", err)
	}
	if e.Line != 2 || e.Column != 7 {
		t.Fatalf("expected 2:7, got %d:%d", e.Line, e.Column)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	input := `fn fib(n) { if (n < 2) { return n; } return fib(n - 1) + fib(n - 2); }
for (let i = 0; i < 10; i = i + 1) { print(style.bold(fib(i))); }`

	first := parseOK(t, input)
	second := parseOK(t, input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parsing the same input twice produced different trees")
	}
	if !reflect.DeepEqual(WalkAST(first), WalkAST(second)) {
		t.Fatalf("walked trees differ")
	}
}

func TestRenderAST(t *testing.T) {
	program := parseOK(t, `let x = 1 + 2 * 3; if (x > 1) { print(x); }`)

	text := RenderASTAsText(program, 0)
	if !strings.Contains(text, "let x = ((1 + 2) * 3)") {
		t.Fatalf("text rendering wrong:\n%s", text)
	}

	js, err := RenderASTAsJSON(program)
	if err != nil {
		t.Fatalf("json rendering failed: %v", err)
	}
	for _, want := range []string{`"type": "Program"`, `"type": "IfStatement"`, `"operator": "*"`, `"function": "print"`} {
		if !strings.Contains(js, want) {
			t.Fatalf("json missing %s:\n%s", want, js)
		}
	}
}
