package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(append(args, "--no-color"), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunFile(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   int
		stdout string
		stderr string
	}{
		{
			name:   "ok",
			source: "var a = 1;\nprint a + 1;\n",
			code:   0,
			stdout: "2\n",
		},
		{
			name:   "syntax error",
			source: "print 1;\nprint ;\n",
			code:   65,
			stderr: "[line 2] Error at ';': Expect expression.\n",
		},
		{
			name:   "lexical error",
			source: "print 1 @;\n",
			code:   65,
			stderr: "[line 1] Error: Unexpected character.\n",
		},
		{
			name:   "runtime error",
			source: "print 1;\nprint -nil;\n",
			code:   70,
			stdout: "1\n",
			stderr: "Operand must be a number.\n[line 2]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "script.lox", tt.source)
			code, stdout, stderr := runCLI(t, "", path)
			if code != tt.code {
				t.Errorf("exit code: got %d, want %d (stderr %q)", code, tt.code, stderr)
			}
			if stdout != tt.stdout {
				t.Errorf("stdout: got %q, want %q", stdout, tt.stdout)
			}
			if stderr != tt.stderr {
				t.Errorf("stderr: got %q, want %q", stderr, tt.stderr)
			}
		})
	}
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t, "", "a.lox", "b.lox")
	if code != 64 {
		t.Errorf("exit code: got %d, want 64", code)
	}
	if stderr != "Usage: lox [script]\n" {
		t.Errorf("stderr: got %q", stderr)
	}
}

func TestMissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "", filepath.Join(t.TempDir(), "missing.lox"))
	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if !strings.HasPrefix(stderr, "Error: reading script:") {
		t.Errorf("stderr: got %q", stderr)
	}
}

func TestREPL(t *testing.T) {
	input := "var a = 1;\nprint b;\nprint ;\na = a + 1;\nprint a;"
	code, stdout, stderr := runCLI(t, input)

	if code != 0 {
		t.Errorf("exit code: got %d, want 0", code)
	}
	// Not a terminal, so no prompt is written.
	if stdout != "2\n" {
		t.Errorf("stdout: got %q", stdout)
	}
	wantErr := "Undefined variable 'b'.\n[line 1]\n[line 1] Error at ';': Expect expression.\n"
	if stderr != wantErr {
		t.Errorf("stderr: got %q, want %q", stderr, wantErr)
	}
}

func TestREPLPrompt(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := runPrompt(strings.NewReader("print 1;\n"), &stdout, &stderr, true); err != nil {
		t.Fatal(err)
	}
	if got := stdout.String(); got != "> 1\n> \n" {
		t.Errorf("got %q", got)
	}
}

func TestLegacyEquality(t *testing.T) {
	path := writeFile(t, "eq.lox", "print 1 == 2;")

	if _, stdout, _ := runCLI(t, "", path); stdout != "false\n" {
		t.Errorf("default: got %q", stdout)
	}
	if _, stdout, _ := runCLI(t, "", "--legacy-equality", path); stdout != "true\n" {
		t.Errorf("flag: got %q", stdout)
	}

	t.Setenv("LOX_LEGACY_EQUALITY", "true")
	if _, stdout, _ := runCLI(t, "", path); stdout != "true\n" {
		t.Errorf("env: got %q", stdout)
	}
	if _, stdout, _ := runCLI(t, "", "--legacy-equality=false", path); stdout != "false\n" {
		t.Errorf("flag over env: got %q", stdout)
	}
}

func TestTokensCommand(t *testing.T) {
	path := writeFile(t, "t.lox", `var s = "hi";`)

	code, stdout, _ := runCLI(t, "", "tokens", path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	want := "VAR var\nIDENTIFIER s\nEQUAL =\nSTRING \"hi\" hi\nSEMICOLON ;\nEOF \n"
	if stdout != want {
		t.Errorf("got %q, want %q", stdout, want)
	}
}

func TestASTCommand(t *testing.T) {
	prog := writeFile(t, "p.lox", "var a = 1;\nprint a * (2 + 3);")
	code, stdout, _ := runCLI(t, "", "ast", prog)
	if code != 0 || stdout != "(var a 1)\n(print (* a (group (+ 2 3))))\n" {
		t.Errorf("program: code %d, got %q", code, stdout)
	}

	expr := writeFile(t, "e.lox", "-123 * (45.67)")
	code, stdout, _ = runCLI(t, "", "ast", "--expr", expr)
	if code != 0 || stdout != "(* (- 123) (group 45.67))\n" {
		t.Errorf("expression: code %d, got %q", code, stdout)
	}

	broken := writeFile(t, "b.lox", "print ;")
	code, _, stderr := runCLI(t, "", "ast", broken)
	if code != 65 || !strings.Contains(stderr, "Expect expression.") {
		t.Errorf("broken: code %d, stderr %q", code, stderr)
	}
}

func TestTestCommand(t *testing.T) {
	suite := writeFile(t, "suite.yaml", `
name: cli
cases:
  - name: good
    source: "print 2 + 2;"
    output: "4\n"
  - name: bad
    source: "print 2 + 2;"
    output: "5\n"
`)

	code, stdout, _ := runCLI(t, "", "test", suite)
	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if !strings.Contains(stdout, "PASS cli/good") || !strings.Contains(stdout, "FAIL cli/bad") {
		t.Errorf("unexpected report:\n%s", stdout)
	}
	if !strings.Contains(stdout, "1 passed, 1 failed") {
		t.Errorf("missing summary:\n%s", stdout)
	}

	code, stdout, _ = runCLI(t, "", "test", filepath.Join("..", "..", "pkg", "fixture", "testdata", "core.yaml"))
	if code != 0 {
		t.Errorf("core suite failed:\n%s", stdout)
	}
}

func TestExampleScripts(t *testing.T) {
	tests := map[string]string{
		"hello.lox":      "Hello, world!\n",
		"arithmetic.lox": "7\n9\n3.5\ntrue\n-3.5\n",
		"scopes.lox":     "second\n20\ntrue\n",
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", filepath.Join("..", "..", "examples", name))
			if code != 0 {
				t.Fatalf("exit code %d, stderr: %s", code, stderr)
			}
			if stdout != want {
				t.Errorf("stdout = %q, want %q", stdout, want)
			}
		})
	}
}
