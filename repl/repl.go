// SPDX-License-Identifier: Apache-2.0

// Package repl evaluates DM value expressions one line at a time.
//
// Lines starting with '#' are treated as directives, so #define and #undef
// update the macros used by later lines.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"dmchem/internal/errors"
	"dmchem/internal/parser"
)

const PROMPT = ">> "

const sourceName = "<repl>"

func Start(in io.Reader, out io.Writer, macros *parser.MacroTable) {
	if macros == nil {
		macros = parser.NewMacroTable()
	}
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		Eval(out, line, macros)
	}
}

// Eval runs one line against macros and writes the result or a diagnostic.
func Eval(out io.Writer, line string, macros *parser.MacroTable) {
	if strings.HasPrefix(line, "#") {
		if _, err := parser.ParseSource(sourceName, line, macros); err != nil {
			report(out, line, err)
			return
		}
		fmt.Fprintf(out, "ok (%d macros)\n", macros.Len())
		return
	}

	value, err := parser.ParseExpression(line, macros)
	if err != nil {
		report(out, line, err)
		return
	}
	fmt.Fprintf(out, "%s %s\n", value, color.CyanString("(%s)", value.Kind()))
}

func report(out io.Writer, line string, err error) {
	d, ok := errors.FromError(err)
	if !ok {
		fmt.Fprintln(out, color.RedString("error: %s", err))
		return
	}
	fmt.Fprint(out, errors.NewErrorReporter(sourceName, line).WithContext(0).FormatError(d))
}
