// Package parser builds statements from a token sequence by recursive
// descent, recovering from syntax errors so one pass reports all of them.
package parser

import (
	"fmt"

	"github.com/lemonberrylabs/golox/pkg/ast"
	"github.com/lemonberrylabs/golox/pkg/scanner"
	"github.com/lemonberrylabs/golox/pkg/types"
)

// Parser is a recursive descent parser over scanner tokens.
type Parser struct {
	tokens []scanner.Token
	pos    int
	diags  types.Diagnostics
}

// New creates a parser for the given tokens, normally the output of
// scanner.ScanTokens (terminated by EOF).
func New(tokens []scanner.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the whole token sequence. Every statement that parsed
// cleanly is returned along with one diagnostic per broken statement.
func (p *Parser) Parse() ([]ast.Stmt, types.Diagnostics) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		stmt, err := p.declaration()
		if err != nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, p.diags
}

// ParseExpression parses tokens holding exactly one expression.
func ParseExpression(tokens []scanner.Token) (ast.Expr, types.Diagnostics) {
	p := New(tokens)
	expr, err := p.expression()
	if err != nil {
		return nil, p.diags
	}
	if !p.isAtEnd() {
		p.errorAt(p.current(), "Expect end of expression.")
		return nil, p.diags
	}
	return expr, p.diags
}

// declaration := varDecl | statement
func (p *Parser) declaration() (ast.Stmt, error) {
	if p.match(scanner.TokenVar) {
		return p.varDeclaration()
	}
	return p.statement()
}

// varDecl := "var" IDENTIFIER ( "=" expression )? ";"
func (p *Parser) varDeclaration() (ast.Stmt, error) {
	name, err := p.expect(scanner.TokenIdentifier, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	var initializer ast.Expr
	if p.match(scanner.TokenEqual) {
		initializer, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(scanner.TokenSemicolon, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return &ast.VarStmt{Name: name, Initializer: initializer}, nil
}

// statement := printStmt | exprStmt
func (p *Parser) statement() (ast.Stmt, error) {
	if p.match(scanner.TokenPrint) {
		return p.printStatement()
	}
	return p.expressionStatement()
}

func (p *Parser) printStatement() (ast.Stmt, error) {
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.TokenSemicolon, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{Expression: value}, nil
}

func (p *Parser) expressionStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(scanner.TokenSemicolon, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ast.ExpressionStmt{Expression: expr}, nil
}

// expression is the entry point for expressions.
// Precedence (low to high):
//
//	=              (right associative)
//	==, !=
//	>, >=, <, <=
//	+, -
//	*, /
//	unary !, unary -
//	literals, identifiers, grouping
func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

// assignment parses the left side as an ordinary expression and only then
// checks whether it is a valid target.
func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}

	if p.match(scanner.TokenEqual) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}

		if v, ok := expr.(*ast.Variable); ok {
			return &ast.Assign{Name: v.Name, Value: value}, nil
		}
		// Reported but not returned: the statement still parses.
		p.errorAt(equals, "Invalid assignment target.")
	}

	return expr, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binary(p.comparison, scanner.TokenBangEqual, scanner.TokenEqualEqual)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binary(p.addition,
		scanner.TokenGreater, scanner.TokenGreaterEqual, scanner.TokenLess, scanner.TokenLessEqual)
}

func (p *Parser) addition() (ast.Expr, error) {
	return p.binary(p.multiplication, scanner.TokenMinus, scanner.TokenPlus)
}

func (p *Parser) multiplication() (ast.Expr, error) {
	return p.binary(p.unary, scanner.TokenSlash, scanner.TokenStar)
}

// binary parses one left-associative precedence tier whose operands are
// parsed by next.
func (p *Parser) binary(next func() (ast.Expr, error), ops ...scanner.TokenType) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for p.match(ops...) {
		operator := p.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Operator: operator, Right: right}
	}
	return left, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(scanner.TokenBang, scanner.TokenMinus) {
		operator := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operator: operator, Right: right}, nil
	}
	return p.primary()
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.current()

	switch tok.Type {
	case scanner.TokenFalse:
		p.advance()
		return &ast.Literal{Value: types.NewBool(false)}, nil
	case scanner.TokenTrue:
		p.advance()
		return &ast.Literal{Value: types.NewBool(true)}, nil
	case scanner.TokenNil:
		p.advance()
		return &ast.Literal{Value: types.Nil}, nil
	case scanner.TokenNumber, scanner.TokenString:
		p.advance()
		return &ast.Literal{Value: tok.Literal}, nil
	case scanner.TokenIdentifier:
		p.advance()
		return &ast.Variable{Name: tok}, nil
	case scanner.TokenLeftParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(scanner.TokenRightParen, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &ast.Grouping{Expression: expr}, nil
	default:
		return nil, p.errorAt(tok, "Expect expression.")
	}
}

// synchronize discards tokens until the start of the next statement: just
// past a ';' or in front of a keyword that begins a declaration.
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Type == scanner.TokenSemicolon {
			return
		}
		switch p.current().Type {
		case scanner.TokenClass, scanner.TokenFun, scanner.TokenVar, scanner.TokenFor,
			scanner.TokenIf, scanner.TokenWhile, scanner.TokenPrint, scanner.TokenReturn:
			return
		}
		p.advance()
	}
}

// current returns the current token. Past the end it is EOF.
func (p *Parser) current() scanner.Token {
	if p.pos >= len(p.tokens) {
		line := 1
		if n := len(p.tokens); n > 0 {
			line = p.tokens[n-1].Line
		}
		return scanner.Token{Type: scanner.TokenEOF, Line: line}
	}
	return p.tokens[p.pos]
}

// previous returns the most recently consumed token.
func (p *Parser) previous() scanner.Token {
	if p.pos == 0 {
		return scanner.Token{}
	}
	return p.tokens[p.pos-1]
}

// advance consumes the current token and returns it. EOF is never consumed.
func (p *Parser) advance() scanner.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.current().Type == scanner.TokenEOF
}

func (p *Parser) check(tt scanner.TokenType) bool {
	return !p.isAtEnd() && p.current().Type == tt
}

// match consumes the current token if it has one of the given types.
func (p *Parser) match(tts ...scanner.TokenType) bool {
	for _, tt := range tts {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the expected type or records msg against the
// current token.
func (p *Parser) expect(tt scanner.TokenType, msg string) (scanner.Token, error) {
	if p.check(tt) {
		return p.advance(), nil
	}
	return p.current(), p.errorAt(p.current(), msg)
}

// errorAt records a syntax diagnostic at tok and returns it.
func (p *Parser) errorAt(tok scanner.Token, msg string) *types.Diagnostic {
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Type == scanner.TokenEOF {
		where = " at end"
	}
	d := types.NewSyntaxError(tok.Line, where, msg)
	p.diags = append(p.diags, d)
	return d
}
