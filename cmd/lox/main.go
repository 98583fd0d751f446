// Package main is the entry point for the lox interpreter: a REPL, a script
// runner, inspection tools, a conformance runner and the API server.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/lemonberrylabs/golox/pkg/lox"
	"github.com/lemonberrylabs/golox/pkg/runtime"
	"github.com/lemonberrylabs/golox/pkg/types"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exitError carries a process exit code out of a command. Its message, if
// any, has already been reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var errorColor = color.New(color.FgRed)

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "lox [script]",
		Short:         "Lox interpreter",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("no-color"); v {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := sessionOptions(cmd)
			switch len(args) {
			case 0:
				return runPrompt(stdin, stdout, stderr, isTerminal(stdin), opts...)
			case 1:
				return runFile(args[0], stdout, stderr, opts...)
			default:
				fmt.Fprintln(stderr, "Usage: lox [script]")
				return &exitError{code: lox.ExitUsage}
			}
		},
	}

	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("lox version {{.Version}}\n")
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().Bool("legacy-equality", false,
		"Compare numbers with (a - b) < epsilon (env LOX_LEGACY_EQUALITY)")
	root.PersistentFlags().Bool("no-color", false, "Disable coloured diagnostics")

	root.AddCommand(
		newTokensCmd(stdout, stderr),
		newASTCmd(stdout, stderr),
		newTestCmd(stdout, stderr),
		newServeCmd(),
	)
	return root
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return lox.ExitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	errorColor.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// sessionOptions builds session options from the persistent flags. A flag
// set on the command line wins over the environment.
func sessionOptions(cmd *cobra.Command) []lox.Option {
	legacy, _ := strconv.ParseBool(envOrDefault("LOX_LEGACY_EQUALITY", "false"))
	if cmd.Flags().Changed("legacy-equality") {
		legacy, _ = cmd.Flags().GetBool("legacy-equality")
	}
	if !legacy {
		return nil
	}
	return []lox.Option{lox.WithInterpreterOptions(runtime.WithLegacyNumberEquality())}
}

func runFile(path string, stdout, stderr io.Writer, opts ...lox.Option) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	opts = append(opts, lox.WithOutput(stdout))
	res := lox.Run(string(data), opts...)
	report(stderr, res)
	if code := res.ExitCode(); code != lox.ExitOK {
		return &exitError{code: code}
	}
	return nil
}

// report writes the diagnostics or runtime error of a run to w.
func report(w io.Writer, res *lox.Result) {
	reportDiagnostics(w, res.Diagnostics)
	if res.RuntimeError != nil {
		errorColor.Fprintln(w, res.RuntimeError.Error())
	}
}

func reportDiagnostics(w io.Writer, diags types.Diagnostics) {
	for _, d := range diags {
		errorColor.Fprintln(w, d.Error())
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
