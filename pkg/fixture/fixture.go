// Package fixture loads YAML conformance suites and checks each case
// against a fresh interpreter session.
//
// A suite looks like:
//
//	name: core
//	cases:
//	  - name: precedence
//	    source: "print 1 + 2 * 3;"
//	    output: "7\n"
//	  - name: undefined
//	    source: "print x;"
//	    runtimeError: "Undefined variable 'x'."
//
// A case with lines instead of source runs each entry as its own unit on
// one session, the way the REPL does.
package fixture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lemonberrylabs/golox/pkg/lox"
	"gopkg.in/yaml.v3"
)

// Suite is a named list of cases.
type Suite struct {
	Name  string  `yaml:"name"`
	Cases []*Case `yaml:"cases"`
}

// Case is one program and the observable behavior expected from it.
type Case struct {
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source,omitempty"`
	Lines        []string `yaml:"lines,omitempty"`
	Output       string   `yaml:"output,omitempty"`
	Diagnostics  []string `yaml:"diagnostics,omitempty"`
	RuntimeError string   `yaml:"runtimeError,omitempty"`
	ExitCode     *int     `yaml:"exitCode,omitempty"`
}

// Outcome is the result of running one case.
type Outcome struct {
	Case       *Case
	Output     string
	Mismatches []string
}

// Passed reports whether the case behaved as expected.
func (o Outcome) Passed() bool {
	return len(o.Mismatches) == 0
}

// Load decodes a suite. Unknown keys are errors.
func Load(r io.Reader) (*Suite, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Suite
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty suite")
		}
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and decodes the suite at path. A suite without a name is
// named after the file.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite: %w", err)
	}
	s, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

func (s *Suite) validate() error {
	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c == nil || c.Name == "" {
			return fmt.Errorf("case %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate case %q", c.Name)
		}
		seen[c.Name] = true
		if c.Source != "" && len(c.Lines) > 0 {
			return fmt.Errorf("case %q sets both source and lines", c.Name)
		}
	}
	return nil
}

// Run executes every case in order, each on a fresh session created with
// opts.
func (s *Suite) Run(opts ...lox.Option) []Outcome {
	outcomes := make([]Outcome, len(s.Cases))
	for i, c := range s.Cases {
		outcomes[i] = c.Run(opts...)
	}
	return outcomes
}

// Run executes the case on a fresh session. With lines, output and
// diagnostics accumulate over all units and the first runtime error is
// the one compared.
func (c *Case) Run(opts ...lox.Option) Outcome {
	session := lox.NewSession(opts...)

	units := c.Lines
	if len(units) == 0 {
		units = []string{c.Source}
	}

	var (
		out      strings.Builder
		diags    []string
		rtErr    string
		exitCode int
	)
	for _, unit := range units {
		res := session.Run(unit)
		out.WriteString(res.Output)
		diags = append(diags, res.Diagnostics.Strings()...)
		if res.RuntimeError != nil && rtErr == "" {
			rtErr = res.RuntimeError.Message
		}
		if code := res.ExitCode(); code != lox.ExitOK && exitCode == lox.ExitOK {
			exitCode = code
		}
	}

	o := Outcome{Case: c, Output: out.String()}
	if diff := cmp.Diff(c.Output, o.Output); diff != "" {
		o.Mismatches = append(o.Mismatches, "output (-want +got):\n"+diff)
	}
	if diff := cmp.Diff(c.Diagnostics, diags, cmpopts.EquateEmpty()); diff != "" {
		o.Mismatches = append(o.Mismatches, "diagnostics (-want +got):\n"+diff)
	}
	if c.RuntimeError != rtErr {
		o.Mismatches = append(o.Mismatches,
			fmt.Sprintf("runtime error: want %q, got %q", c.RuntimeError, rtErr))
	}
	if c.ExitCode != nil && *c.ExitCode != exitCode {
		o.Mismatches = append(o.Mismatches,
			fmt.Sprintf("exit code: want %d, got %d", *c.ExitCode, exitCode))
	}
	return o
}
