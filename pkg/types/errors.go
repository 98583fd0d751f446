package types

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies a static diagnostic by the stage that raised it.
type Kind int

const (
	KindLexical Kind = iota // raised by the scanner
	KindSyntax              // raised by the parser
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Diagnostic is a lexical or syntax error tied to a source line.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Where   string // "", " at end" or " at 'lexeme'"
	Message string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

// NewLexicalError creates a diagnostic for the scanner.
func NewLexicalError(line int, msg string) *Diagnostic {
	return &Diagnostic{Kind: KindLexical, Line: line, Message: msg}
}

// NewSyntaxError creates a diagnostic for the parser. where is the
// rendered location suffix, see Diagnostic.Where.
func NewSyntaxError(line int, where, msg string) *Diagnostic {
	return &Diagnostic{Kind: KindSyntax, Line: line, Where: where, Message: msg}
}

// Diagnostics is an ordered list of static diagnostics from one pass.
type Diagnostics []*Diagnostic

// Strings returns each diagnostic rendered on its own.
func (ds Diagnostics) Strings() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Error()
	}
	return out
}

// ErrorOrNil folds the diagnostics into a single error, one per line, or
// returns nil when there are none.
func (ds Diagnostics) ErrorOrNil() error {
	if len(ds) == 0 {
		return nil
	}
	merr := &multierror.Error{ErrorFormat: listFormat}
	for _, d := range ds {
		merr = multierror.Append(merr, d)
	}
	return merr.ErrorOrNil()
}

func listFormat(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// RuntimeError is raised while evaluating a statement. It carries the line
// and lexeme of the token that caused it.
type RuntimeError struct {
	Line    int
	Lexeme  string
	Message string
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Line)
}

// NewRuntimeError creates a runtime error at the given token position.
func NewRuntimeError(line int, lexeme, msg string) *RuntimeError {
	return &RuntimeError{Line: line, Lexeme: lexeme, Message: msg}
}
