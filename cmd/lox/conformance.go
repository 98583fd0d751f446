package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/lemonberrylabs/golox/pkg/fixture"
	"github.com/spf13/cobra"
)

func newTestCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "test SUITE...",
		Short: "Run YAML conformance suites",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass := color.New(color.FgGreen)
			fail := color.New(color.FgRed)
			opts := sessionOptions(cmd)

			var passed, failed int
			for _, path := range args {
				suite, err := fixture.LoadFile(path)
				if err != nil {
					return err
				}
				for _, o := range suite.Run(opts...) {
					name := suite.Name + "/" + o.Case.Name
					if o.Passed() {
						passed++
						pass.Fprint(stdout, "PASS")
						fmt.Fprintf(stdout, " %s\n", name)
						continue
					}
					failed++
					fail.Fprint(stdout, "FAIL")
					fmt.Fprintf(stdout, " %s\n", name)
					for _, m := range o.Mismatches {
						fmt.Fprintf(stdout, "    %s\n", strings.ReplaceAll(m, "\n", "\n    "))
					}
				}
			}

			fmt.Fprintf(stdout, "%d passed, %d failed\n", passed, failed)
			if failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
