package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"dmchem/internal/ast"
	"dmchem/internal/parser"
)

// file is the last parse of one open document.
type file struct {
	content string
	doc     ast.Document
	macros  *macroTimeline
}

// Handler implements the LSP server handlers for DM object files
type Handler struct {
	mu     sync.RWMutex
	files  map[string]*file
	macros *parser.MacroTable
	log    commonlog.Logger
}

// NewHandler creates a handler whose documents are parsed starting from a
// clone of macros. A nil table means no predefined macros.
func NewHandler(macros *parser.MacroTable) *Handler {
	if macros == nil {
		macros = parser.NewMacroTable()
	}
	return &Handler{
		files:  make(map[string]*file),
		macros: macros,
		log:    commonlog.GetLogger("dmchem.lsp"),
	}
}

// Initialize responds to the LSP client's initialize request and advertises the server's capabilities
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.log.Info("initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			HoverProvider:          true,
			DocumentSymbolProvider: true,
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.log.Info("initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	h.log.Info("shutdown")
	return nil
}

// TextDocumentDidOpen parses the opened document and publishes its diagnostics
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.log.Debugf("opened %s", params.TextDocument.URI)
	return h.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange reparses the whole document on every change
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	h.log.Debugf("changed %s", params.TextDocument.URI)

	for i := len(params.ContentChanges) - 1; i >= 0; i-- {
		switch change := params.ContentChanges[i].(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			return h.update(ctx, params.TextDocument.URI, change.Text)
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				return h.update(ctx, params.TextDocument.URI, change.Text)
			}
		}
	}
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.log.Debugf("closed %s", params.TextDocument.URI)

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.files, params.TextDocument.URI)

	return nil
}

// TextDocumentSemanticTokensFull handles semantic token requests for the entire document
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	f, err := h.lookup(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	tokens := collectSemanticTokens(f.content, f.macros)

	var data []uint32
	var prevLine, prevStart uint32

	// Encode tokens into LSP wire format (using delta-line, delta-start compression)
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}

		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))

		prevLine = token.Line
		prevStart = token.StartChar
	}

	return &protocol.SemanticTokens{
		Data: data,
	}, nil
}

// TextDocumentDocumentSymbol lists each object record with its properties
// as children.
func (h *Handler) TextDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	f, err := h.lookup(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	symbols := []protocol.DocumentSymbol{}
	for _, record := range f.doc {
		header := lineRange(record.Pos.Line, record.Pos.Column, len(record.Path.String()))
		symbol := protocol.DocumentSymbol{
			Name:           record.Path.String(),
			Kind:           protocol.SymbolKindClass,
			Range:          header,
			SelectionRange: header,
		}
		for name, value := range record.Properties.All() {
			detail := value.String()
			symbol.Children = append(symbol.Children, protocol.DocumentSymbol{
				Name:           name,
				Detail:         &detail,
				Kind:           protocol.SymbolKindProperty,
				Range:          header,
				SelectionRange: header,
			})
		}
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

// TextDocumentHover shows the value of the macro under the cursor.
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	f, err := h.lookup(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	name, offset, span, ok := wordAt(f.content, params.Position)
	if !ok {
		return nil, nil
	}
	value, ok := f.macros.at(offset).Lookup(name)
	if !ok {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: fmt.Sprintf("```dm\n#define %s %s\n```\n%s", name, value, value.Kind()),
		},
		Range: &span,
	}, nil
}

func (h *Handler) lookup(uri protocol.DocumentUri) (*file, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	f, ok := h.files[uri]
	if !ok {
		return nil, fmt.Errorf("document %s is not open", uri)
	}
	return f, nil
}

func (h *Handler) update(ctx *glsp.Context, uri protocol.DocumentUri, content string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}

	doc, parseErr := parser.ParseSource(path, content, h.macros.Clone())
	if parseErr != nil {
		h.log.Debugf("%s: %s", path, parseErr)
	}

	h.mu.Lock()
	h.files[uri] = &file{content: content, doc: doc, macros: newMacroTimeline(content, h.macros)}
	h.mu.Unlock()

	sendDiagnosticNotification(ctx, uri, ConvertParseError(parseErr))
	return nil
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove leading slash (e.g., /C:/...) -> C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// wordAt finds the identifier covering pos on its line, with the byte
// offset where it starts.
func wordAt(content string, pos protocol.Position) (string, int, protocol.Range, bool) {
	lines := strings.Split(content, "\n")
	if int(pos.Line) >= len(lines) {
		return "", 0, protocol.Range{}, false
	}
	line := []rune(lines[pos.Line])
	at := int(pos.Character)
	if at > len(line) {
		return "", 0, protocol.Range{}, false
	}

	start, end := at, at
	for start > 0 && isWordRune(line[start-1]) {
		start--
	}
	for end < len(line) && isWordRune(line[end]) {
		end++
	}
	if start == end {
		return "", 0, protocol.Range{}, false
	}

	offset := len(string(line[:start]))
	for _, l := range lines[:pos.Line] {
		offset += len(l) + 1
	}

	return string(line[start:end]), offset, protocol.Range{
		Start: protocol.Position{Line: pos.Line, Character: uint32(start)},
		End:   protocol.Position{Line: pos.Line, Character: uint32(end)},
	}, true
}

func isWordRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
