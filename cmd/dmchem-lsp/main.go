// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"dmchem/internal/lsp"
	"dmchem/internal/parser"
)

const lsName = "dmchem" // Name identifier for the language server

type CLI struct {
	Define     []string `help:"Define a macro for every document, as NAME=expr or NAME." short:"D" sep:"none" placeholder:"NAME=expr"`
	NoBuiltins bool     `help:"Do not predefine the direction macros."`
	Verbose    int      `help:"Increase log verbosity." short:"v" type:"counter" default:"1"`
	Debug      bool     `help:"Enable GLSP protocol debug logging."`
}

func main() {
	var cli CLI
	kong.Parse(&cli, kong.Name("dmchem-lsp"), kong.Description("Language server for DM object files."))

	commonlog.Configure(cli.Verbose, nil)
	log := commonlog.GetLogger("dmchem.lsp")

	macros := parser.NewMacroTable()
	if !cli.NoBuiltins {
		macros = parser.DefaultMacros()
	}
	for _, def := range cli.Define {
		if err := macros.DefineFlag(def); err != nil {
			log.Errorf("%s", err)
			os.Exit(2)
		}
	}

	h := lsp.NewHandler(macros)

	handler := protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentHover:              h.TextDocumentHover,
		TextDocumentDocumentSymbol:     h.TextDocumentDocumentSymbol,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, cli.Debug)

	log.Info("starting dmchem LSP server")

	// Editors talk to the server over stdin/stdout
	if err := s.RunStdio(); err != nil {
		log.Errorf("error running dmchem LSP server: %s", err)
		os.Exit(1)
	}
}
