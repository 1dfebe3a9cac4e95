package ast

import "ember/internal/token"

// Operator is the closed set of binary operators. The parser resolves
// operator tokens once so the evaluator never matches operator text.
type Operator int

const (
	OpInvalid Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpGt
	OpLt
	OpGtEq
	OpLtEq
	OpEq
	OpNotEq
)

var operatorText = [...]string{
	OpInvalid: "?",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpGt:      ">",
	OpLt:      "<",
	OpGtEq:    ">=",
	OpLtEq:    "<=",
	OpEq:      "==",
	OpNotEq:   "!=",
}

var operatorTokens = map[token.TokenType]Operator{
	token.PLUS:     OpAdd,
	token.MINUS:    OpSub,
	token.ASTERISK: OpMul,
	token.SLASH:    OpDiv,
	token.GT:       OpGt,
	token.LT:       OpLt,
	token.GT_EQ:    OpGtEq,
	token.LT_EQ:    OpLtEq,
	token.EQ:       OpEq,
	token.NOT_EQ:   OpNotEq,
}

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorText) {
		return operatorText[OpInvalid]
	}
	return operatorText[o]
}

// LookupOperator maps a binary operator token to its Operator.
func LookupOperator(t token.TokenType) (Operator, bool) {
	op, ok := operatorTokens[t]
	return op, ok
}
