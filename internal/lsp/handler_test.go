package lsp_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"dmchem/internal/lsp"
	"dmchem/internal/parser"
)

const reactionURI = "file:///tmp/reactions.dm"

const reactionSource = `#define REM 0.2

/datum/chemical_reaction/water
	name = "Water"
	result_amount = 4*REM
	required_reagents = list("oxygen" = 1, "hydrogen" = 2)
`

type notifications struct {
	published []*protocol.PublishDiagnosticsParams
}

func (n *notifications) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if p, ok := params.(*protocol.PublishDiagnosticsParams); ok && method == protocol.ServerTextDocumentPublishDiagnostics {
				n.published = append(n.published, p)
			}
		},
	}
}

func open(t *testing.T, h *lsp.Handler, ctx *glsp.Context, text string) {
	t.Helper()
	err := h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: reactionURI, LanguageID: "dm", Text: text},
	})
	require.NoError(t, err)
}

func TestDidOpenPublishesNoDiagnosticsForValidSource(t *testing.T) {
	var n notifications
	h := lsp.NewHandler(nil)

	open(t, h, n.context(), reactionSource)

	require.Len(t, n.published, 1)
	assert.Equal(t, reactionURI, n.published[0].URI)
	assert.Empty(t, n.published[0].Diagnostics)
}

func TestDidChangePublishesSyntaxError(t *testing.T) {
	var n notifications
	h := lsp.NewHandler(nil)
	ctx := n.context()

	open(t, h, ctx, reactionSource)
	err := h.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: reactionURI},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "/obj\n\tname = \"a\"\n\tname = \"b\"\n"},
		},
	})
	require.NoError(t, err)

	require.Len(t, n.published, 2)
	diagnostics := n.published[1].Diagnostics
	require.Len(t, diagnostics, 1)
	d := diagnostics[0]
	assert.Contains(t, d.Message, "duplicate property")
	assert.Equal(t, uint32(2), d.Range.Start.Line)
	assert.Equal(t, uint32(1), d.Range.Start.Character)
	assert.Equal(t, uint32(5), d.Range.End.Character)
	require.NotNil(t, d.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	require.NotNil(t, d.Code)
	assert.Equal(t, "E0101", d.Code.Value)
}

func TestDocumentSymbols(t *testing.T) {
	h := lsp.NewHandler(nil)
	open(t, h, nil, reactionSource)

	result, err := h.TextDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
	})
	require.NoError(t, err)

	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, symbols, 1)
	assert.Equal(t, "/datum/chemical_reaction/water", symbols[0].Name)
	assert.Equal(t, uint32(2), symbols[0].Range.Start.Line)

	require.Len(t, symbols[0].Children, 3)
	assert.Equal(t, "name", symbols[0].Children[0].Name)
	assert.Equal(t, "result_amount", symbols[0].Children[1].Name)
	require.NotNil(t, symbols[0].Children[1].Detail)
	assert.Equal(t, "0.8", *symbols[0].Children[1].Detail)
}

func TestHoverShowsMacroValue(t *testing.T) {
	h := lsp.NewHandler(parser.DefaultMacros())
	open(t, h, nil, reactionSource+"\tdir = NORTH\n")

	hover, err := h.TextDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
			Position:     protocol.Position{Line: 4, Character: 20},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	content, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, content.Value, "#define REM 0.2")

	hover, err = h.TextDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
			Position:     protocol.Position{Line: 6, Character: 8},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	content = hover.Contents.(protocol.MarkupContent)
	assert.Contains(t, content.Value, "#define NORTH 1")

	hover, err = h.TextDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
			Position:     protocol.Position{Line: 3, Character: 2},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestDidCloseForgetsDocument(t *testing.T) {
	h := lsp.NewHandler(nil)
	open(t, h, nil, reactionSource)

	require.NoError(t, h.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
	}))

	_, err := h.TextDocumentSemanticTokensFull(nil, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
	})
	assert.Error(t, err)
}

func TestTextDocumentSemanticTokensFull(t *testing.T) {
	h := lsp.NewHandler(nil)
	open(t, h, nil, reactionSource)

	tokens, err := h.TextDocumentSemanticTokensFull(nil, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
	})
	require.NoError(t, err, "TextDocumentSemanticTokensFull returned error")
	require.NotNil(t, tokens, "Returned tokens should not be nil")

	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err, "Failed to decode semantic tokens")
	require.NotEmpty(t, decoded, "No semantic tokens decoded")

	// #define REM 0.2
	assertToken(t, &decoded[0], 1, 1, 1, "macro", nil)
	assertToken(t, &decoded[1], 1, 2, 6, "keyword", nil)
	assertToken(t, &decoded[2], 1, 9, 3, "macro", []string{"declaration"})
	assertToken(t, &decoded[3], 1, 13, 3, "number", nil)
	// /datum/chemical_reaction/water
	assertToken(t, &decoded[4], 3, 2, 5, "namespace", nil)
	assertToken(t, &decoded[5], 3, 8, 17, "namespace", nil)
	assertToken(t, &decoded[6], 3, 26, 5, "namespace", nil)
	// name = "Water"
	assertToken(t, &decoded[7], 4, 2, 4, "property", nil)
	assertToken(t, &decoded[8], 4, 7, 1, "operator", nil)
	assertToken(t, &decoded[9], 4, 9, 7, "string", nil)
	// result_amount = 4*REM
	assertToken(t, &decoded[10], 5, 2, 13, "property", nil)
	assertToken(t, &decoded[11], 5, 16, 1, "operator", nil)
	assertToken(t, &decoded[12], 5, 18, 1, "number", nil)
	assertToken(t, &decoded[13], 5, 19, 1, "operator", nil)
	assertToken(t, &decoded[14], 5, 20, 3, "macro", []string{"readonly"})
}

type decodedToken struct {
	Line      uint32
	StartChar uint32
	Length    uint32
	Type      string
	Modifiers []string
}

func decodeSemanticTokens(data []uint32) ([]decodedToken, error) {
	if len(data)%5 != 0 {
		return nil, fmt.Errorf("semantic token data length %d is not a multiple of 5", len(data))
	}

	var tokens []decodedToken
	var line, start uint32
	for i := 0; i < len(data); i += 5 {
		deltaLine, deltaStart := data[i], data[i+1]
		if deltaLine == 0 {
			start += deltaStart
		} else {
			line += deltaLine
			start = deltaStart
		}

		typeIndex := int(data[i+3])
		if typeIndex >= len(lsp.SemanticTokenTypes) {
			return nil, fmt.Errorf("token type index %d out of range", typeIndex)
		}

		var modifiers []string
		for bit, name := range lsp.SemanticTokenModifiers {
			if data[i+4]&(1<<bit) != 0 {
				modifiers = append(modifiers, name)
			}
		}

		tokens = append(tokens, decodedToken{
			Line:      line + 1,
			StartChar: start + 1,
			Length:    data[i+2],
			Type:      lsp.SemanticTokenTypes[typeIndex],
			Modifiers: modifiers,
		})
	}
	return tokens, nil
}

func assertToken(t *testing.T, tok *decodedToken, line, start, length uint32, tokenType string, modifiers []string) {
	t.Helper()
	assert.Equal(t, line, tok.Line, "line")
	assert.Equal(t, start, tok.StartChar, "start")
	assert.Equal(t, length, tok.Length, "length")
	assert.Equal(t, tokenType, tok.Type, "type")
	assert.Equal(t, modifiers, tok.Modifiers, "modifiers")
}

const scopedSource = `/obj/early
	a = DOSE
#define DOSE 5
/obj/middle
	b = DOSE
#undef DOSE
/obj/late
	c = DOSE
`

func hoverAt(t *testing.T, h *lsp.Handler, line, character uint32) *protocol.Hover {
	t.Helper()
	hover, err := h.TextDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
			Position:     protocol.Position{Line: line, Character: character},
		},
	})
	require.NoError(t, err)
	return hover
}

func TestHoverFollowsDirectiveOrder(t *testing.T) {
	h := lsp.NewHandler(nil)
	open(t, h, nil, scopedSource)

	assert.Nil(t, hoverAt(t, h, 1, 6), "used above its #define")

	hover := hoverAt(t, h, 4, 6)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.(protocol.MarkupContent).Value, "#define DOSE 5")

	assert.Nil(t, hoverAt(t, h, 7, 6), "used after its #undef")
}

func TestHoverSeesRedefinition(t *testing.T) {
	h := lsp.NewHandler(nil)
	open(t, h, nil, "#define N 1\n/obj/a\n\tv = N\n#define N 2*N\n/obj/b\n\tv = N\n")

	first := hoverAt(t, h, 2, 6)
	require.NotNil(t, first)
	assert.Contains(t, first.Contents.(protocol.MarkupContent).Value, "#define N 1\n")

	second := hoverAt(t, h, 5, 6)
	require.NotNil(t, second)
	assert.Contains(t, second.Contents.(protocol.MarkupContent).Value, "#define N 2.0")
}

func TestSemanticTokensFollowDirectiveOrder(t *testing.T) {
	h := lsp.NewHandler(nil)
	open(t, h, nil, scopedSource)

	tokens, err := h.TextDocumentSemanticTokensFull(nil, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: reactionURI},
	})
	require.NoError(t, err)
	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err)

	macroUses := map[uint32]bool{}
	for _, tok := range decoded {
		if tok.Type == "macro" && tok.Length == 4 && tok.StartChar == 6 {
			macroUses[tok.Line] = true
		}
	}
	assert.Equal(t, map[uint32]bool{5: true}, macroUses)
}
