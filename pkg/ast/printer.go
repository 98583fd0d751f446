package ast

import (
	"fmt"
	"strings"
)

// Print renders an expression in prefix form, e.g. (* (- 123) (group 45.67)).
func Print(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

// PrintStatement renders a statement in the same prefix form:
// (print e), (; e), (var name) and (var name e).
func PrintStatement(s Stmt) string {
	var sb strings.Builder
	switch n := s.(type) {
	case *ExpressionStmt:
		parenthesize(&sb, ";", n.Expression)
	case *PrintStmt:
		parenthesize(&sb, "print", n.Expression)
	case *VarStmt:
		if n.Initializer == nil {
			parenthesize(&sb, "var "+n.Name.Lexeme)
		} else {
			parenthesize(&sb, "var "+n.Name.Lexeme, n.Initializer)
		}
	default:
		fmt.Fprintf(&sb, "<%T>", s)
	}
	return sb.String()
}

// PrintProgram renders each statement on its own line.
func PrintProgram(stmts []Stmt) string {
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = PrintStatement(s)
	}
	return strings.Join(lines, "\n")
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Literal:
		if n.Value.IsNil() {
			sb.WriteString("nil")
		} else {
			sb.WriteString(n.Value.String())
		}
	case *Grouping:
		parenthesize(sb, "group", n.Expression)
	case *Unary:
		parenthesize(sb, n.Operator.Lexeme, n.Right)
	case *Binary:
		parenthesize(sb, n.Operator.Lexeme, n.Left, n.Right)
	case *Variable:
		sb.WriteString(n.Name.Lexeme)
	case *Assign:
		parenthesize(sb, "= "+n.Name.Lexeme, n.Value)
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}

func parenthesize(sb *strings.Builder, name string, exprs ...Expr) {
	sb.WriteByte('(')
	sb.WriteString(name)
	for _, e := range exprs {
		sb.WriteByte(' ')
		writeExpr(sb, e)
	}
	sb.WriteByte(')')
}
