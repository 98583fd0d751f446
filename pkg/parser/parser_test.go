package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lemonberrylabs/golox/pkg/ast"
	"github.com/lemonberrylabs/golox/pkg/scanner"
	"github.com/lemonberrylabs/golox/pkg/types"
)

func parseProgram(t *testing.T, src string) ([]ast.Stmt, types.Diagnostics) {
	t.Helper()
	tokens, lexDiags := scanner.New(src).ScanTokens()
	if len(lexDiags) != 0 {
		t.Fatalf("lexical errors in %q: %v", src, lexDiags.Strings())
	}
	return New(tokens).Parse()
}

func mustParse(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	stmts, diags := parseProgram(t, src)
	if len(diags) != 0 {
		t.Fatalf("parse errors in %q: %v", src, diags.Strings())
	}
	return stmts
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (group (+ 1 2)) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"8 / 4 / 2", "(/ (/ 8 4) 2)"},
		{"1 < 2 == true", "(== (< 1 2) true)"},
		{"1 + 2 >= 3 * 4", "(>= (+ 1 2) (* 3 4))"},
		{"a != b == c", "(== (!= a b) c)"},
		{"-1 * -2", "(* (- 1) (- 2))"},
		{"!!true", "(! (! true))"},
		{"-x + 1", "(+ (- x) 1)"},
		{"nil", "nil"},
		{`"s" + "t"`, "(+ s t)"},
		{"a = b = 3", "(= a (= b 3))"},
		{"a = 1 + 2", "(= a (+ 1 2))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, _ := scanner.New(tt.input).ScanTokens()
			expr, diags := ParseExpression(tokens)
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags.Strings())
			}
			if got := ast.Print(expr); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseExpressionTree(t *testing.T) {
	tokens, _ := scanner.New("1 + 2 * 3").ScanTokens()
	expr, diags := ParseExpression(tokens)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Strings())
	}

	want := &ast.Binary{
		Left:     &ast.Literal{Value: types.NewNumber(1)},
		Operator: tokens[1],
		Right: &ast.Binary{
			Left:     &ast.Literal{Value: types.NewNumber(2)},
			Operator: tokens[3],
			Right:    &ast.Literal{Value: types.NewNumber(3)},
		},
	}
	if diff := cmp.Diff(ast.Expr(want), expr); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExpressionTrailingTokens(t *testing.T) {
	tokens, _ := scanner.New("1 2").ScanTokens()
	expr, diags := ParseExpression(tokens)
	if expr != nil {
		t.Errorf("expected nil expression, got %s", ast.Print(expr))
	}
	if len(diags) != 1 || diags[0].Error() != "[line 1] Error at '2': Expect end of expression." {
		t.Errorf("unexpected diagnostics: %v", diags.Strings())
	}
}

func TestParseStatements(t *testing.T) {
	stmts := mustParse(t, `
var a = 1;
var b;
print a + b;
a = 2;
`)

	want := "(var a 1)\n(var b)\n(print (+ a b))\n(; (= a 2))"
	if got := ast.PrintProgram(stmts); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	decl, ok := stmts[1].(*ast.VarStmt)
	if !ok {
		t.Fatalf("expected *ast.VarStmt, got %T", stmts[1])
	}
	if decl.Initializer != nil {
		t.Errorf("expected nil initializer, got %s", ast.Print(decl.Initializer))
	}
}

func TestParseEmptyInput(t *testing.T) {
	stmts := mustParse(t, "// nothing\n")
	if len(stmts) != 0 {
		t.Errorf("expected no statements, got %d", len(stmts))
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "missing semicolon at end",
			input: "print 1",
			want:  []string{"[line 1] Error at end: Expect ';' after value."},
		},
		{
			name:  "missing semicolon after expression",
			input: "1 + 2 print 3;",
			want:  []string{"[line 1] Error at 'print': Expect ';' after expression."},
		},
		{
			name:  "missing variable name",
			input: "var 1 = 2;",
			want:  []string{"[line 1] Error at '1': Expect variable name."},
		},
		{
			name:  "missing semicolon after declaration",
			input: "var x = 1\nprint x;",
			want:  []string{"[line 2] Error at 'print': Expect ';' after variable declaration."},
		},
		{
			name:  "expect expression",
			input: "print ;",
			want:  []string{"[line 1] Error at ';': Expect expression."},
		},
		{
			name:  "unclosed group",
			input: "print (1 + 2;",
			want:  []string{"[line 1] Error at ';': Expect ')' after expression."},
		},
		{
			name:  "invalid assignment target",
			input: "1 = 2;",
			want:  []string{"[line 1] Error at '=': Invalid assignment target."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := parseProgram(t, tt.input)
			if diff := cmp.Diff(tt.want, diags.Strings()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
			for _, d := range diags {
				if d.Kind != types.KindSyntax {
					t.Errorf("expected syntax diagnostic, got %s", d.Kind)
				}
			}
		})
	}
}

func TestInvalidAssignmentTargetKeepsParsing(t *testing.T) {
	stmts, diags := parseProgram(t, "1 = 2;\nprint 3;\n(a) = 4;")

	want := []string{
		"[line 1] Error at '=': Invalid assignment target.",
		"[line 3] Error at '=': Invalid assignment target.",
	}
	if diff := cmp.Diff(want, diags.Strings()); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	// The left side is kept, so all three statements survive.
	if got, want := ast.PrintProgram(stmts), "(; 1)\n(print 3)\n(; (group a))"; got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRecoveryReportsEachBrokenStatement(t *testing.T) {
	stmts, diags := parseProgram(t, `
print 1;
var = 2;
print (3;
print 4;
var y = ;
print 5;
`)

	want := []string{
		"[line 3] Error at '=': Expect variable name.",
		"[line 4] Error at ';': Expect ')' after expression.",
		"[line 6] Error at ';': Expect expression.",
	}
	if diff := cmp.Diff(want, diags.Strings()); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	if got, want := ast.PrintProgram(stmts), "(print 1)\n(print 4)\n(print 5)"; got != want {
		t.Errorf("surviving statements:\n%s\nwant:\n%s", got, want)
	}
}

func TestSynchronizeStopsAtKeyword(t *testing.T) {
	stmts, diags := parseProgram(t, "print (1 2\nvar x = 2;")

	if len(diags) != 1 || diags[0].Error() != "[line 1] Error at '2': Expect ')' after expression." {
		t.Fatalf("unexpected diagnostics: %v", diags.Strings())
	}
	if got := ast.PrintProgram(stmts); got != "(var x 2)" {
		t.Errorf("expected the declaration after the error to parse, got %q", got)
	}
}

func TestParseWithoutEOF(t *testing.T) {
	tokens := []scanner.Token{
		{Type: scanner.TokenPrint, Lexeme: "print", Line: 1},
		{Type: scanner.TokenNumber, Lexeme: "1", Literal: types.NewNumber(1), Line: 1},
	}
	_, diags := New(tokens).Parse()
	if len(diags) != 1 || diags[0].Where != " at end" {
		t.Errorf("expected an at-end diagnostic, got %v", diags.Strings())
	}
}
