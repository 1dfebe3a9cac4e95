package parser

import (
	"ember/internal/ast"
	"fmt"
	"reflect"
	"strings"
)

// RenderASTAsText produces a human-centric, indented representation of the AST.
// Infix expressions are fully parenthesized, which makes the left-to-right
// folding of binary operators visible.
func RenderASTAsText(node ast.Node, indent int) string {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return "nil"
	}

	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *ast.Program:
		var sb strings.Builder
		for i, s := range n.Statements {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(RenderASTAsText(s, 0))
		}
		return sb.String()

	case *ast.LetStatement:
		return fmt.Sprintf("%s%s %s = %s", sp, n.TokenLiteral(), n.Name.Value, RenderASTAsText(n.Value, 0))

	case *ast.AssignStatement:
		return fmt.Sprintf("%s%s = %s", sp, n.Name.Value, RenderASTAsText(n.Value, 0))

	case *ast.ExpressionStatement:
		return sp + RenderASTAsText(n.Expression, 0)

	case *ast.BlockStatement:
		if len(n.Statements) == 0 {
			return "{}"
		}
		var sb strings.Builder
		sb.WriteString("{\n")
		for _, s := range n.Statements {
			sb.WriteString(RenderASTAsText(s, indent+1))
			sb.WriteString("\n")
		}
		sb.WriteString(sp + "}")
		return sb.String()

	case *ast.IfStatement:
		out := fmt.Sprintf("%sif %s %s", sp, RenderASTAsText(n.Condition, 0), RenderASTAsText(n.ThenBranch, indent))
		if n.ElseBranch != nil {
			out += " else " + RenderASTAsText(n.ElseBranch, indent)
		}
		return out

	case *ast.LoopStatement:
		return fmt.Sprintf("%s%s %s %s", sp, n.TokenLiteral(), RenderASTAsText(n.Condition, 0), RenderASTAsText(n.Body, indent))

	case *ast.ForStatement:
		return fmt.Sprintf("%sfor (%s; %s; %s) %s", sp,
			RenderASTAsText(n.Init, 0),
			RenderASTAsText(n.Condition, 0),
			RenderASTAsText(n.Update, 0),
			RenderASTAsText(n.Body, indent))

	case *ast.BreakStatement:
		return sp + "break"

	case *ast.ContinueStatement:
		return sp + "continue"

	case *ast.FunctionStatement:
		params := make([]string, len(n.Parameters))
		for i, p := range n.Parameters {
			params[i] = p.Value
		}
		return fmt.Sprintf("%sfn %s(%s) %s", sp, n.Name.Value, strings.Join(params, ", "), RenderASTAsText(n.Body, indent))

	case *ast.ReturnStatement:
		if n.ReturnValue == nil {
			return sp + "return"
		}
		return sp + "return " + RenderASTAsText(n.ReturnValue, 0)

	case *ast.Identifier:
		return n.Value

	case *ast.NumberLiteral:
		return n.TokenLiteral()

	case *ast.StringLiteral:
		return fmt.Sprintf("%q", n.Value)

	case *ast.BooleanLiteral:
		return fmt.Sprintf("%t", n.Value)

	case *ast.InfixExpression:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, 0), n.Operator, RenderASTAsText(n.Right, 0))

	case *ast.AssignExpression:
		return fmt.Sprintf("(%s = %s)", n.Name.Value, RenderASTAsText(n.Value, 0))

	case *ast.CallExpression:
		args := make([]string, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = RenderASTAsText(a, 0)
		}
		return fmt.Sprintf("%s(%s)", n.Function, strings.Join(args, ", "))

	case *ast.ArrayLiteral:
		elements := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			elements[i] = RenderASTAsText(el, 0)
		}
		return "[" + strings.Join(elements, ", ") + "]"

	case *ast.IndexExpression:
		return fmt.Sprintf("%s[%s]", RenderASTAsText(n.Left, 0), RenderASTAsText(n.Index, 0))

	default:
		return fmt.Sprintf("%s<%T>", sp, n)
	}
}
