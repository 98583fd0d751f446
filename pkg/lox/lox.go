// Package lox wires the scanner, parser and interpreter into one pipeline.
// A Session keeps its interpreter between runs, so globals defined by one
// run are visible to the next.
package lox

import (
	"bytes"
	"io"
	"sync"

	"github.com/lemonberrylabs/golox/pkg/ast"
	"github.com/lemonberrylabs/golox/pkg/parser"
	"github.com/lemonberrylabs/golox/pkg/runtime"
	"github.com/lemonberrylabs/golox/pkg/scanner"
	"github.com/lemonberrylabs/golox/pkg/types"
)

// Process exit codes used by the CLI (sysexits.h).
const (
	ExitOK      = 0
	ExitUsage   = 64
	ExitData    = 65 // lexical or syntax error
	ExitRuntime = 70 // runtime error
)

// Option configures a Session.
type Option func(*Session)

// WithOutput streams print output to w as it is produced, in addition to
// capturing it in the Result.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.stream = w
	}
}

// WithInterpreterOptions passes options through to the interpreter.
func WithInterpreterOptions(opts ...runtime.Option) Option {
	return func(s *Session) {
		s.interpOpts = append(s.interpOpts, opts...)
	}
}

// Session runs source units against one long-lived interpreter. Runs are
// serialized, so a Session may be shared between goroutines.
type Session struct {
	mu         sync.Mutex
	stream     io.Writer
	interpOpts []runtime.Option
	interp     *runtime.Interpreter
	captured   *switchWriter
}

// NewSession creates a session with an empty global environment.
func NewSession(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	s.captured = &switchWriter{}
	s.interp = runtime.New(s.captured, s.interpOpts...)
	return s
}

// Result is the outcome of one run.
type Result struct {
	Output       string
	Diagnostics  types.Diagnostics
	RuntimeError *types.RuntimeError

	// err is a Go-level failure, such as an output write error.
	err error
}

// Err returns the failure of the run, or nil. A run with diagnostics was
// never interpreted, so at most one kind of failure is present.
func (r *Result) Err() error {
	if err := r.Diagnostics.ErrorOrNil(); err != nil {
		return err
	}
	if r.RuntimeError != nil {
		return r.RuntimeError
	}
	return r.err
}

// ExitCode maps the result to a process exit code.
func (r *Result) ExitCode() int {
	switch {
	case len(r.Diagnostics) > 0:
		return ExitData
	case r.RuntimeError != nil, r.err != nil:
		return ExitRuntime
	default:
		return ExitOK
	}
}

// Run scans and parses source and, when no diagnostic was produced,
// interprets it. Diagnostics never carry over between runs.
func (s *Session) Run(source string) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &Result{}
	stmts, diags := Parse(source)
	if len(diags) > 0 {
		res.Diagnostics = diags
		return res
	}

	var buf bytes.Buffer
	s.captured.set(&buf, s.stream)
	err := s.interp.Interpret(stmts)
	s.captured.set(nil, nil)

	res.Output = buf.String()
	if err != nil {
		if rerr, ok := err.(*types.RuntimeError); ok {
			res.RuntimeError = rerr
		} else {
			res.err = err
		}
	}
	return res
}

// Globals returns a copy of the session's global variables.
func (s *Session) Globals() map[string]types.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interp.Globals().Snapshot()
}

// Run executes source on a fresh session.
func Run(source string, opts ...Option) *Result {
	return NewSession(opts...).Run(source)
}

// Tokens scans source.
func Tokens(source string) ([]scanner.Token, types.Diagnostics) {
	return scanner.New(source).ScanTokens()
}

// Parse scans and parses source. Lexical diagnostics come first, followed
// by syntax diagnostics; parsing runs even when scanning reported errors.
func Parse(source string) ([]ast.Stmt, types.Diagnostics) {
	tokens, lexDiags := Tokens(source)
	stmts, synDiags := parser.New(tokens).Parse()
	diags := append(types.Diagnostics{}, lexDiags...)
	return stmts, append(diags, synDiags...)
}

// ParseExpression scans source holding a single expression and parses it.
func ParseExpression(source string) (ast.Expr, types.Diagnostics) {
	tokens, lexDiags := Tokens(source)
	expr, synDiags := parser.ParseExpression(tokens)
	diags := append(types.Diagnostics{}, lexDiags...)
	return expr, append(diags, synDiags...)
}

// switchWriter forwards writes to the writers of the current run.
type switchWriter struct {
	w io.Writer
}

func (sw *switchWriter) set(capture, stream io.Writer) {
	switch {
	case capture == nil:
		sw.w = nil
	case stream == nil:
		sw.w = capture
	default:
		sw.w = io.MultiWriter(capture, stream)
	}
}

func (sw *switchWriter) Write(p []byte) (int, error) {
	if sw.w == nil {
		return len(p), nil
	}
	return sw.w.Write(p)
}
