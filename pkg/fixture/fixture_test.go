package fixture

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/lemonberrylabs/golox/pkg/lox"
	"github.com/lemonberrylabs/golox/pkg/runtime"
)

func TestCoreSuite(t *testing.T) {
	suites, err := filepath.Glob("testdata/*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(suites) == 0 {
		t.Fatal("no suites in testdata")
	}

	for _, path := range suites {
		suite, err := LoadFile(path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		for _, o := range suite.Run() {
			o := o
			t.Run(suite.Name+"/"+o.Case.Name, func(t *testing.T) {
				for _, m := range o.Mismatches {
					t.Error(m)
				}
			})
		}
	}
}

func TestRunIsRepeatable(t *testing.T) {
	suite, err := LoadFile("testdata/core.yaml")
	if err != nil {
		t.Fatal(err)
	}

	first := suite.Run()
	second := suite.Run()
	for i := range first {
		if first[i].Output != second[i].Output || first[i].Passed() != second[i].Passed() {
			t.Errorf("case %s differs between runs", first[i].Case.Name)
		}
	}
}

func TestLoad(t *testing.T) {
	suite, err := Load(strings.NewReader(`
name: tiny
cases:
  - name: add
    source: "print 1 + 1;"
    output: "2\n"
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if suite.Name != "tiny" || len(suite.Cases) != 1 || suite.Cases[0].Output != "2\n" {
		t.Errorf("unexpected suite: %+v", suite)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "empty suite"},
		{"unknown key", "name: x\ncases:\n  - name: a\n    sauce: \"print 1;\"\n", "field sauce not found"},
		{"unnamed case", "cases:\n  - source: \"print 1;\"\n", "case 0 has no name"},
		{"duplicate", "cases:\n  - name: a\n  - name: a\n", `duplicate case "a"`},
		{"source and lines", "cases:\n  - name: a\n    source: \"x;\"\n    lines: [\"y;\"]\n", "sets both source and lines"},
		{"not yaml", "cases: [", "invalid suite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileNamesSuite(t *testing.T) {
	suite, err := LoadFile(filepath.Join("testdata", "core.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if suite.Name != "core" {
		t.Errorf("got %q", suite.Name)
	}

	if _, err := LoadFile("testdata/missing.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestMismatches(t *testing.T) {
	zero := 0
	c := &Case{
		Name:         "wrong",
		Source:       "print 1; print x;",
		Output:       "2\n",
		RuntimeError: "Undefined variable 'y'.",
		ExitCode:     &zero,
	}

	o := c.Run()
	if o.Passed() {
		t.Fatal("expected the case to fail")
	}
	if len(o.Mismatches) != 3 {
		t.Fatalf("expected output, runtime error and exit code mismatches, got %d:\n%s",
			len(o.Mismatches), strings.Join(o.Mismatches, "\n"))
	}
	if o.Output != "1\n" {
		t.Errorf("outcome should carry actual output, got %q", o.Output)
	}
}

func TestRunOptions(t *testing.T) {
	c := &Case{Name: "legacy", Source: "print 1 == 2;", Output: "true\n"}

	if c.Run().Passed() {
		t.Error("exact equality should print false")
	}
	if o := c.Run(lox.WithInterpreterOptions(runtime.WithLegacyNumberEquality())); !o.Passed() {
		t.Errorf("legacy equality: %v", o.Mismatches)
	}
}
