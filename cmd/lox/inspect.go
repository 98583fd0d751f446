package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lemonberrylabs/golox/pkg/ast"
	"github.com/lemonberrylabs/golox/pkg/lox"
	"github.com/spf13/cobra"
)

func newTokensCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the tokens of a script, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}

			tokens, diags := lox.Tokens(string(data))
			for _, tok := range tokens {
				fmt.Fprintln(stdout, tok.String())
			}
			reportDiagnostics(stderr, diags)
			if len(diags) > 0 {
				return &exitError{code: lox.ExitData}
			}
			return nil
		},
	}
}

func newASTCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast FILE",
		Short: "Print the syntax tree of a script in prefix form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}

			var out string
			var failed bool
			if asExpr, _ := cmd.Flags().GetBool("expr"); asExpr {
				expr, diags := lox.ParseExpression(string(data))
				reportDiagnostics(stderr, diags)
				failed = len(diags) > 0
				if expr != nil {
					out = ast.Print(expr)
				}
			} else {
				stmts, diags := lox.Parse(string(data))
				reportDiagnostics(stderr, diags)
				failed = len(diags) > 0
				out = ast.PrintProgram(stmts)
			}

			if out != "" {
				fmt.Fprintln(stdout, out)
			}
			if failed {
				return &exitError{code: lox.ExitData}
			}
			return nil
		},
	}
	cmd.Flags().Bool("expr", false, "Parse the file as a single expression")
	return cmd
}
