// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"dmchem/internal/ast"
	"dmchem/internal/errors"
	"dmchem/internal/parser"
	"dmchem/token"
)

// CLI is the dmchem command line.
type CLI struct {
	Source string `arg:"" help:"DM object file to read." type:"existingfile"`

	Define     []string `help:"Define a macro before parsing, as NAME=expr or NAME." short:"D" sep:"none" placeholder:"NAME=expr"`
	NoBuiltins bool     `help:"Do not predefine the direction macros (NORTH, SOUTH, ...)."`
	Tokens     bool     `help:"Print the token stream instead of the parsed objects."`
	Context    int      `help:"Source lines shown around an error." default:"3"`
	Verbose    int      `help:"Increase log verbosity." short:"v" type:"counter"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var cli CLI
	k, err := kong.New(&cli,
		kong.Name("dmchem"),
		kong.Description("Recover object definitions from DM source."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if _, err := k.Parse(args); err != nil {
		fmt.Fprintf(stderr, "dmchem: %s\n", err)
		return 2
	}

	commonlog.Configure(cli.Verbose, nil)

	startTime := time.Now()

	source, err := os.ReadFile(cli.Source)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read file: %v\n", err)
		return 1
	}

	if cli.Tokens {
		printTokens(stdout, cli.Source, string(source))
		return 0
	}

	macros, err := buildMacros(cli.Define, !cli.NoBuiltins)
	if err != nil {
		fmt.Fprintf(stderr, "dmchem: %s\n", err)
		return 2
	}

	doc, parseErr := parser.ParseSource(cli.Source, string(source), macros)

	duration := time.Since(startTime)
	formattedDuration := formatDuration(duration)

	if parseErr != nil {
		reporter := errors.NewErrorReporter(cli.Source, string(source)).WithContext(cli.Context)
		if d, ok := errors.FromError(parseErr); ok {
			fmt.Fprint(stdout, reporter.FormatError(d))
			color.New(color.Faint).Fprintf(stdout, "%s error %s: %s\n",
				errors.GetErrorCategory(d.Code), d.Code, errors.GetErrorDescription(d.Code))
			if len(doc) > 0 {
				fmt.Fprint(stdout, reporter.WithContext(0).FormatError(errors.PartialDocument(len(doc), d.Position)))
			}
		} else {
			fmt.Fprintf(stderr, "%v\n", parseErr)
		}
		printDocument(stdout, doc)
		color.New(color.FgRed).Fprintf(stdout, "Parsing failed after %s\n", formattedDuration)
		return 1
	}

	printDocument(stdout, doc)
	color.New(color.FgGreen).Fprintf(stdout, "Successfully processed %s in %s\n", cli.Source, formattedDuration)
	return 0
}

func buildMacros(defines []string, builtins bool) (*parser.MacroTable, error) {
	macros := parser.NewMacroTable()
	if builtins {
		macros = parser.DefaultMacros()
	}
	for _, def := range defines {
		if err := macros.DefineFlag(def); err != nil {
			return nil, err
		}
	}
	return macros, nil
}

func printTokens(w io.Writer, filename, source string) {
	for tok := range parser.NewScanner(filename, source).All() {
		fmt.Fprintf(w, "%4d:%-3d %-14s %q\n", tok.Pos.Line, tok.Pos.Column, token.Name(tok.Type), tok.Value)
	}
}

func printDocument(w io.Writer, doc ast.Document) {
	if len(doc) == 0 {
		return
	}
	fmt.Fprintln(w, doc.String())
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
