// Package ast defines the syntax tree produced by the parser: Expr nodes
// produce values and Stmt nodes produce effects.
package ast

import (
	"github.com/lemonberrylabs/golox/pkg/scanner"
	"github.com/lemonberrylabs/golox/pkg/types"
)

// Expr is the interface for all expression nodes.
type Expr interface {
	exprNode()
}

// Literal is a constant value: a number, string, true, false or nil.
type Literal struct {
	Value types.Value
}

// Grouping is a parenthesized expression.
type Grouping struct {
	Expression Expr
}

// Unary is a prefix operation (-x, !x).
type Unary struct {
	Operator scanner.Token
	Right    Expr
}

// Binary is an infix operation (a + b, x == y).
type Binary struct {
	Left     Expr
	Operator scanner.Token
	Right    Expr
}

// Variable is a reference to a named variable.
type Variable struct {
	Name scanner.Token
}

// Assign stores Value into an existing variable.
type Assign struct {
	Name  scanner.Token
	Value Expr
}

func (*Literal) exprNode()  {}
func (*Grouping) exprNode() {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Variable) exprNode() {}
func (*Assign) exprNode()   {}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	stmtNode()
}

// ExpressionStmt evaluates an expression and discards the result.
type ExpressionStmt struct {
	Expression Expr
}

// PrintStmt evaluates an expression and writes it as one line of output.
type PrintStmt struct {
	Expression Expr
}

// VarStmt declares a variable. Initializer is nil when absent.
type VarStmt struct {
	Name        scanner.Token
	Initializer Expr
}

func (*ExpressionStmt) stmtNode() {}
func (*PrintStmt) stmtNode()      {}
func (*VarStmt) stmtNode()        {}
