package runtime

import (
	"fmt"
	"io"

	"github.com/lemonberrylabs/golox/pkg/ast"
	"github.com/lemonberrylabs/golox/pkg/scanner"
	"github.com/lemonberrylabs/golox/pkg/types"
)

// epsilon is the gap between 1.0 and the next float64.
const epsilon = 2.220446049250313e-16

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLegacyNumberEquality makes == on numbers report (a - b) < epsilon,
// matching older lox tooling. The comparison is not symmetric: 1 == 2 is
// true while 2 == 1 is false.
func WithLegacyNumberEquality() Option {
	return func(i *Interpreter) {
		i.legacyEquality = true
	}
}

// Interpreter executes statements against a global environment that
// persists across calls to Interpret.
type Interpreter struct {
	out            io.Writer
	globals        *Environment
	legacyEquality bool
}

// New creates an interpreter that writes print output to out.
func New(out io.Writer, opts ...Option) *Interpreter {
	if out == nil {
		out = io.Discard
	}
	i := &Interpreter{
		out:     out,
		globals: NewEnvironment(nil),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Globals returns the global environment.
func (i *Interpreter) Globals() *Environment {
	return i.globals
}

// Interpret executes statements in order. The first runtime error stops the
// batch and is returned as a *types.RuntimeError; effects of the statements
// before it remain.
func (i *Interpreter) Interpret(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := i.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate computes the value of a single expression in the global
// environment.
func (i *Interpreter) Evaluate(expr ast.Expr) (types.Value, error) {
	return i.evaluate(expr)
}

func (i *Interpreter) execute(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := i.evaluate(s.Expression)
		return err

	case *ast.PrintStmt:
		v, err := i.evaluate(s.Expression)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(i.out, v.String()); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil

	case *ast.VarStmt:
		value := types.Nil
		if s.Initializer != nil {
			v, err := i.evaluate(s.Initializer)
			if err != nil {
				return err
			}
			value = v
		}
		i.globals.Define(s.Name.Lexeme, value)
		return nil

	default:
		return fmt.Errorf("unsupported statement %T", stmt)
	}
}

func (i *Interpreter) evaluate(expr ast.Expr) (types.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil

	case *ast.Grouping:
		return i.evaluate(e.Expression)

	case *ast.Unary:
		right, err := i.evaluate(e.Right)
		if err != nil {
			return types.Nil, err
		}
		return i.evalUnary(e.Operator, right)

	case *ast.Binary:
		left, err := i.evaluate(e.Left)
		if err != nil {
			return types.Nil, err
		}
		right, err := i.evaluate(e.Right)
		if err != nil {
			return types.Nil, err
		}
		return i.evalBinary(e.Operator, left, right)

	case *ast.Variable:
		return i.globals.Get(e.Name)

	case *ast.Assign:
		value, err := i.evaluate(e.Value)
		if err != nil {
			return types.Nil, err
		}
		if err := i.globals.Assign(e.Name, value); err != nil {
			return types.Nil, err
		}
		return value, nil

	default:
		return types.Nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func (i *Interpreter) evalUnary(op scanner.Token, right types.Value) (types.Value, error) {
	switch op.Type {
	case scanner.TokenMinus:
		if !right.IsNumber() {
			return types.Nil, operandError(op)
		}
		return types.NewNumber(-right.AsNumber()), nil
	case scanner.TokenBang:
		return types.NewBool(!right.Truthy()), nil
	}
	return types.Nil, types.NewRuntimeError(op.Line, op.Lexeme,
		fmt.Sprintf("Unknown unary operator '%s'.", op.Lexeme))
}

func (i *Interpreter) evalBinary(op scanner.Token, left, right types.Value) (types.Value, error) {
	switch op.Type {
	case scanner.TokenPlus:
		if left.IsNumber() && right.IsNumber() {
			return types.NewNumber(left.AsNumber() + right.AsNumber()), nil
		}
		if left.IsString() && right.IsString() {
			return types.NewString(left.AsString() + right.AsString()), nil
		}
		return types.Nil, types.NewRuntimeError(op.Line, op.Lexeme,
			"Operands must be two numbers or two strings.")

	case scanner.TokenEqualEqual:
		return types.NewBool(i.equal(left, right)), nil
	case scanner.TokenBangEqual:
		return types.NewBool(!i.equal(left, right)), nil
	}

	if !left.IsNumber() || !right.IsNumber() {
		return types.Nil, operandError(op)
	}
	a, b := left.AsNumber(), right.AsNumber()

	switch op.Type {
	case scanner.TokenMinus:
		return types.NewNumber(a - b), nil
	case scanner.TokenStar:
		return types.NewNumber(a * b), nil
	case scanner.TokenSlash:
		// Division by zero follows IEEE 754: inf, -inf or NaN.
		return types.NewNumber(a / b), nil
	case scanner.TokenGreater:
		return types.NewBool(a > b), nil
	case scanner.TokenGreaterEqual:
		return types.NewBool(a >= b), nil
	case scanner.TokenLess:
		return types.NewBool(a < b), nil
	case scanner.TokenLessEqual:
		return types.NewBool(a <= b), nil
	}
	return types.Nil, types.NewRuntimeError(op.Line, op.Lexeme,
		fmt.Sprintf("Unknown binary operator '%s'.", op.Lexeme))
}

func (i *Interpreter) equal(a, b types.Value) bool {
	if i.legacyEquality && a.IsNumber() && b.IsNumber() {
		return a.AsNumber()-b.AsNumber() < epsilon
	}
	return a.Equal(b)
}

func operandError(op scanner.Token) *types.RuntimeError {
	return types.NewRuntimeError(op.Line, op.Lexeme, "Operand must be a number.")
}
