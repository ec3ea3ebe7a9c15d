package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/TamplierS1/rox/compiler"
)

// interactive reports whether r is a terminal.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runREPL reads lines from stdin and prints the tokens of each. Lexical
// errors are reported and the loop keeps going.
func runREPL(stdin io.Reader, stdout, stderr io.Writer) int {
	prompt := interactive(stdin)
	if prompt {
		fmt.Fprintln(stdout, "rox REPL (type 'exit' to quit)")
	}

	scanner := bufio.NewScanner(stdin)
	for {
		if prompt {
			fmt.Fprint(stdout, "> ")
		}
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		if line == "exit" || line == "quit" {
			break
		}
		if err := compiler.DumpTokens(stdout, []byte(line)); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}

	if prompt {
		fmt.Fprintln(stdout)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return exitFailure
	}
	return exitOK
}
