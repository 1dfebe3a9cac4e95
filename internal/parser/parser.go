package parser

import (
	"errors"
	"ember/internal/ast"
	"ember/internal/errs"
	"ember/internal/lexer"
	"ember/internal/token"
	"strconv"
	"strings"
)

// Parser is a recursive-descent parser with one token of lookahead.
// curToken is the next token to consume; peekToken follows it.
type Parser struct {
	l   *lexer.Lexer
	src string

	curToken  token.Token
	peekToken token.Token
	lexErr    error
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:   l,
		src: l.Source(),
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse lexes and parses a whole source text.
func Parse(src string) (*ast.Program, error) {
	return New(lexer.New(src)).ParseProgram()
}

func (p *Parser) nextToken() token.Token {
	consumed := p.curToken
	p.curToken = p.peekToken
	if p.curToken.Type == token.EOF {
		// keep peek at EOF; the lexer is exhausted
		p.peekToken = p.curToken
		return consumed
	}
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == token.ILLEGAL && p.lexErr == nil {
		p.lexErr = errs.New(errs.LexError, "unrecognized character %q", p.peekToken.Literal).At(p.src, p.peekToken.Position)
	}
	return consumed
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) errorAt(tok token.Token, message string, args ...interface{}) error {
	if tok.Type == token.ILLEGAL && p.lexErr != nil {
		return p.lexErr
	}
	return errs.New(errs.SyntaxError, message, args...).At(p.src, tok.Position)
}

// expect consumes the current token if it has type t.
func (p *Parser) expect(t token.TokenType) (token.Token, error) {
	if p.curTokenIs(t) {
		return p.nextToken(), nil
	}
	return p.curToken, p.errorAt(p.curToken, "expected next token to be %s, got %s instead", t, describe(p.curToken))
}

// ParseProgram consumes the whole token stream. The first error aborts
// the parse and no program is returned.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}

	if p.lexErr != nil {
		return nil, p.lexErr
	}

	return program, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.curToken.Type {
	case token.LET, token.CONST:
		return p.parseLetStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.LOOP:
		return p.parseLoopStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.BREAK:
		tok := p.nextToken()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.BreakStatement{Token: tok}, nil
	case token.CONTINUE:
		tok := p.nextToken()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.ContinueStatement{Token: tok}, nil
	case token.FUNCTION:
		return p.parseFunctionStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.IDENT:
		if p.peekTokenIs(token.ASSIGN) {
			return p.parseAssignStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLetStatement() (*ast.LetStatement, error) {
	stmt := &ast.LetStatement{Token: p.nextToken()}
	stmt.IsConst = stmt.Token.Type == token.CONST

	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	stmt.Name = &ast.Identifier{Token: nameTok, Value: nameTok.Literal}

	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}

	if stmt.Value, err = p.parseExpression(); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseAssignStatement() (*ast.AssignStatement, error) {
	nameTok := p.nextToken()
	stmt := &ast.AssignStatement{
		Token: nameTok,
		Name:  &ast.Identifier{Token: nameTok, Value: nameTok.Literal},
	}

	p.nextToken() // consume '='

	var err error
	if stmt.Value, err = p.parseExpression(); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseExpressionStatement() (*ast.ExpressionStatement, error) {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	var err error
	if stmt.Expression, err = p.parseExpression(); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseIfStatement() (*ast.IfStatement, error) {
	stmt := &ast.IfStatement{Token: p.nextToken()}

	var err error
	if stmt.Condition, err = p.parseCondition(); err != nil {
		return nil, err
	}

	if stmt.ThenBranch, err = p.parseBody(); err != nil {
		return nil, err
	}

	if p.curTokenIs(token.ELSE) {
		p.nextToken()
		if stmt.ElseBranch, err = p.parseBody(); err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

func (p *Parser) parseLoopStatement() (*ast.LoopStatement, error) {
	stmt := &ast.LoopStatement{Token: p.nextToken()}

	var err error
	if stmt.Condition, err = p.parseCondition(); err != nil {
		return nil, err
	}

	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}

	return stmt, nil
}

// parseForStatement parses for (let i = 0; i < n; i = i + 1) body. The init
// declaration consumes its own ';', the update is a bare expression.
func (p *Parser) parseForStatement() (*ast.ForStatement, error) {
	stmt := &ast.ForStatement{Token: p.nextToken()}

	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	if !p.curTokenIs(token.LET) && !p.curTokenIs(token.CONST) {
		return nil, p.errorAt(p.curToken, "for loop must start with a declaration, got %s", describe(p.curToken))
	}

	var err error
	if stmt.Init, err = p.parseLetStatement(); err != nil {
		return nil, err
	}

	if stmt.Condition, err = p.parseExpression(); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	if stmt.Update, err = p.parseExpression(); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseFunctionStatement() (*ast.FunctionStatement, error) {
	stmt := &ast.FunctionStatement{Token: p.nextToken()}

	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	stmt.Name = &ast.Identifier{Token: nameTok, Value: nameTok.Literal}

	if stmt.Parameters, err = p.parseFunctionParameters(); err != nil {
		return nil, err
	}

	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseFunctionParameters() ([]*ast.Identifier, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	identifiers := []*ast.Identifier{}

	if p.curTokenIs(token.RPAREN) {
		p.nextToken()
		return identifiers, nil
	}

	for {
		if !p.curTokenIs(token.IDENT) {
			return nil, p.errorAt(p.curToken, "malformed parameter list: expected parameter name, got %s", describe(p.curToken))
		}
		tok := p.nextToken()
		identifiers = append(identifiers, &ast.Identifier{Token: tok, Value: tok.Literal})

		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(token.RPAREN) {
			p.nextToken()
			return identifiers, nil
		}
		return nil, p.errorAt(p.curToken, "malformed parameter list: expected ',' or ')', got %s", describe(p.curToken))
	}
}

func (p *Parser) parseReturnStatement() (*ast.ReturnStatement, error) {
	stmt := &ast.ReturnStatement{Token: p.nextToken()}

	if !p.curTokenIs(token.SEMICOLON) {
		var err error
		if stmt.ReturnValue, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseBlockStatement() (*ast.BlockStatement, error) {
	lbrace, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	block := &ast.BlockStatement{Token: lbrace}
	block.Statements = []ast.Statement{}

	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}

	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}

	return block, nil
}

// parseBody parses a block or a single statement, normalized to a block.
func (p *Parser) parseBody() (*ast.BlockStatement, error) {
	if p.curTokenIs(token.LBRACE) {
		return p.parseBlockStatement()
	}

	first := p.curToken
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.BlockStatement{Token: first, Statements: []ast.Statement{stmt}}, nil
}

func (p *Parser) parseCondition() (ast.Expression, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	return cond, nil
}

// parseExpression parses assignment -> binary -> primary. Binary operators
// share one precedence level and fold strictly left to right, so
// 1 + 2 * 3 is (1 + 2) * 3.
func (p *Parser) parseExpression() (ast.Expression, error) {
	// grouping leaves no node, so a parenthesized name is only visible here
	grouped := p.curTokenIs(token.LPAREN)
	left, err := p.parseBinary()
	if err != nil {
		return nil, err
	}

	if !p.curTokenIs(token.ASSIGN) {
		return left, nil
	}

	assignTok := p.curToken
	ident, ok := left.(*ast.Identifier)
	if !ok || grouped || strings.Contains(ident.Value, ".") {
		return nil, p.errorAt(assignTok, "invalid assignment target %s", left.String())
	}
	p.nextToken()

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.AssignExpression{Token: assignTok, Name: ident, Value: value}, nil
}

func (p *Parser) parseBinary() (ast.Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := ast.LookupOperator(p.curToken.Type)
		if !ok {
			return left, nil
		}
		opTok := p.nextToken()

		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		left = &ast.InfixExpression{Token: opTok, Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	var expr ast.Expression
	var err error

	switch p.curToken.Type {
	case token.NUMBER:
		tok := p.nextToken()
		expr = &ast.NumberLiteral{Token: tok, Value: parseNumber(tok.Literal)}
	case token.STRING:
		tok := p.nextToken()
		expr = &ast.StringLiteral{Token: tok, Value: tok.Literal}
	case token.TRUE, token.FALSE:
		tok := p.nextToken()
		expr = &ast.BooleanLiteral{Token: tok, Value: tok.Type == token.TRUE}
	case token.IDENT:
		expr, err = p.parseNameOrCall()
	case token.LBRACKET:
		expr, err = p.parseArrayLiteral()
	case token.LPAREN:
		p.nextToken()
		if expr, err = p.parseExpression(); err == nil {
			_, err = p.expect(token.RPAREN)
		}
	default:
		return nil, p.errorAt(p.curToken, "unexpected %s in expression", describe(p.curToken))
	}
	if err != nil {
		return nil, err
	}

	for p.curTokenIs(token.LBRACKET) {
		lbracket := p.nextToken()
		index, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		expr = &ast.IndexExpression{Token: lbracket, Left: expr, Index: index}
	}

	return expr, nil
}

// parseNameOrCall reads a possibly dotted name, flattened to one string,
// and an optional call argument list.
func (p *Parser) parseNameOrCall() (ast.Expression, error) {
	first := p.nextToken()
	name := first.Literal

	for p.curTokenIs(token.PERIOD) {
		p.nextToken()
		part, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		name += "." + part.Literal
	}

	if !p.curTokenIs(token.LPAREN) {
		return &ast.Identifier{Token: first, Value: name}, nil
	}

	args, err := p.parseExpressionList(token.LPAREN, token.RPAREN)
	if err != nil {
		return nil, err
	}

	return &ast.CallExpression{Token: first, Function: name, Arguments: args}, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	array := &ast.ArrayLiteral{Token: p.curToken}

	var err error
	if array.Elements, err = p.parseExpressionList(token.LBRACKET, token.RBRACKET); err != nil {
		return nil, err
	}

	return array, nil
}

func (p *Parser) parseExpressionList(open, end token.TokenType) ([]ast.Expression, error) {
	if _, err := p.expect(open); err != nil {
		return nil, err
	}

	list := []ast.Expression{}

	if p.curTokenIs(end) {
		p.nextToken()
		return list, nil
	}

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list = append(list, expr)

		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if _, err := p.expect(end); err != nil {
		return nil, err
	}

	return list, nil
}

// parseNumber decodes a NUMBER literal. Malformed text such as 1.2.3
// decodes to 0; literals beyond float64 range keep their infinity.
func parseNumber(literal string) float64 {
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return value
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER:
		return string(tok.Type) + " '" + tok.Literal + "'"
	case token.STRING:
		return `STRING "` + tok.Literal + `"`
	default:
		return "'" + tok.Literal + "'"
	}
}
