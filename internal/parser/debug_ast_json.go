package parser

import (
	"bytes"
	"ember/internal/ast"
	"encoding/json"
	"fmt"
	"reflect"
)

// WalkAST recursively traverses an AST and serializes it into a machine-centric map structure.
// This output is designed for stability, canonical representation, and tool-chain consumption.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		return map[string]interface{}{
			"type":       "Program",
			"statements": walkStatements(n.Statements),
		}

	case *ast.LetStatement:
		return map[string]interface{}{
			"type":     "LetStatement",
			"position": n.Pos(),
			"token":    n.TokenLiteral(),
			"name":     n.Name.Value,
			"const":    n.IsConst,
			"value":    WalkAST(n.Value),
		}

	case *ast.AssignStatement:
		return map[string]interface{}{
			"type":     "AssignStatement",
			"position": n.Pos(),
			"name":     n.Name.Value,
			"value":    WalkAST(n.Value),
		}

	case *ast.ExpressionStatement:
		return map[string]interface{}{
			"type":       "ExpressionStatement",
			"position":   n.Pos(),
			"token":      n.TokenLiteral(),
			"expression": WalkAST(n.Expression),
		}

	case *ast.BlockStatement:
		return map[string]interface{}{
			"type":       "BlockStatement",
			"position":   n.Pos(),
			"statements": walkStatements(n.Statements),
		}

	case *ast.IfStatement:
		return map[string]interface{}{
			"type":       "IfStatement",
			"position":   n.Pos(),
			"condition":  WalkAST(n.Condition),
			"thenBranch": WalkAST(n.ThenBranch),
			"elseBranch": WalkAST(n.ElseBranch),
		}

	case *ast.LoopStatement:
		return map[string]interface{}{
			"type":      "LoopStatement",
			"position":  n.Pos(),
			"token":     n.TokenLiteral(),
			"condition": WalkAST(n.Condition),
			"body":      WalkAST(n.Body),
		}

	case *ast.ForStatement:
		return map[string]interface{}{
			"type":      "ForStatement",
			"position":  n.Pos(),
			"init":      WalkAST(n.Init),
			"condition": WalkAST(n.Condition),
			"update":    WalkAST(n.Update),
			"body":      WalkAST(n.Body),
		}

	case *ast.BreakStatement:
		return map[string]interface{}{"type": "BreakStatement", "position": n.Pos()}

	case *ast.ContinueStatement:
		return map[string]interface{}{"type": "ContinueStatement", "position": n.Pos()}

	case *ast.FunctionStatement:
		params := make([]interface{}, len(n.Parameters))
		for i, p := range n.Parameters {
			params[i] = p.Value
		}
		return map[string]interface{}{
			"type":       "FunctionStatement",
			"position":   n.Pos(),
			"name":       n.Name.Value,
			"parameters": params,
			"body":       WalkAST(n.Body),
		}

	case *ast.ReturnStatement:
		return map[string]interface{}{
			"type":        "ReturnStatement",
			"position":    n.Pos(),
			"token":       n.TokenLiteral(),
			"returnValue": WalkAST(n.ReturnValue),
		}

	case *ast.Identifier:
		return map[string]interface{}{
			"type":  "Identifier",
			"value": n.Value,
		}

	case *ast.NumberLiteral:
		return map[string]interface{}{
			"type":  "NumberLiteral",
			"token": n.TokenLiteral(),
			"value": n.Value,
		}

	case *ast.StringLiteral:
		return map[string]interface{}{
			"type":  "StringLiteral",
			"value": n.Value,
		}

	case *ast.BooleanLiteral:
		return map[string]interface{}{
			"type":  "BooleanLiteral",
			"value": n.Value,
		}

	case *ast.InfixExpression:
		return map[string]interface{}{
			"type":     "InfixExpression",
			"position": n.Pos(),
			"operator": n.Operator.String(),
			"left":     WalkAST(n.Left),
			"right":    WalkAST(n.Right),
		}

	case *ast.AssignExpression:
		return map[string]interface{}{
			"type":     "AssignExpression",
			"position": n.Pos(),
			"name":     n.Name.Value,
			"value":    WalkAST(n.Value),
		}

	case *ast.CallExpression:
		args := make([]interface{}, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = WalkAST(a)
		}
		return map[string]interface{}{
			"type":      "CallExpression",
			"position":  n.Pos(),
			"function":  n.Function,
			"arguments": args,
		}

	case *ast.ArrayLiteral:
		elements := make([]interface{}, len(n.Elements))
		for i, el := range n.Elements {
			elements[i] = WalkAST(el)
		}
		return map[string]interface{}{
			"type":     "ArrayLiteral",
			"elements": elements,
		}

	case *ast.IndexExpression:
		return map[string]interface{}{
			"type":  "IndexExpression",
			"left":  WalkAST(n.Left),
			"index": WalkAST(n.Index),
		}

	default:
		return map[string]interface{}{
			"type": "Unknown",
			"node": fmt.Sprintf("%T", n),
		}
	}
}

func walkStatements(stmts []ast.Statement) []interface{} {
	out := make([]interface{}, len(stmts))
	for i, s := range stmts {
		out[i] = WalkAST(s)
	}
	return out
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}
