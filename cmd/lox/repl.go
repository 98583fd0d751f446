package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lemonberrylabs/golox/pkg/lox"
	"golang.org/x/term"
)

const prompt = "> "

// runPrompt reads one unit per line and runs it on a single session until
// end of input. Errors are reported and never end the loop.
func runPrompt(in io.Reader, stdout, stderr io.Writer, interactive bool, opts ...lox.Option) error {
	opts = append(opts, lox.WithOutput(stdout))
	session := lox.NewSession(opts...)
	reader := bufio.NewReader(in)

	for {
		if interactive {
			fmt.Fprint(stdout, prompt)
		}

		line, err := reader.ReadString('\n')
		if line != "" {
			report(stderr, session.Run(line))
		}
		if errors.Is(err, io.EOF) {
			if interactive {
				fmt.Fprintln(stdout)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	}
}

// isTerminal reports whether r is a terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
