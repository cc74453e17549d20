package lsp

import (
	"github.com/alecthomas/participle/v2/lexer"

	"dmchem/internal/parser"
	"dmchem/token"
)

// SemanticTokenTypes is the legend advertised to clients; TokenType indexes it.
var SemanticTokenTypes = []string{
	"namespace",
	"property",
	"macro",
	"keyword",
	"number",
	"string",
	"operator",
}

// SemanticTokenModifiers is the modifier legend; TokenModifiers is a bitmask over it.
var SemanticTokenModifiers = []string{
	"declaration",
	"readonly",
}

// SemanticToken represents a single LSP semantic token entry
// Line and StartChar are 0-based positions
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int // index into SemanticTokenTypes
	TokenModifiers int // bitmask
}

// collectSemanticTokens classifies the scanner's tokens. Identifiers become
// path segments, property names or macro uses depending on where they sit.
// A macro use is only recognised between its #define and any #undef.
func collectSemanticTokens(content string, timeline *macroTimeline) []SemanticToken {
	var tokens []SemanticToken

	macros := timeline.base.Clone()
	next := 0

	var prev lexer.Token
	lineStart := true
	for tok := range parser.NewScanner("", content).All() {
		for ; next < len(timeline.events) && timeline.events[next].offset < tok.Pos.Offset; next++ {
			timeline.events[next].apply(macros)
		}

		var kind string
		modifiers := 0

		switch {
		case tok.Type == token.Identifier && (prev.Type == token.Define || prev.Type == token.Undef):
			kind = "macro"
			modifiers = modifierMask("declaration")
		case tok.Type == token.Identifier && prev.Type == token.LeadWhitespace:
			kind = "property"
		case tok.Type == token.Identifier && (lineStart || prev.Type == token.Slash):
			kind = "namespace"
		case tok.Type == token.Identifier:
			if _, ok := macros.Lookup(tok.Value); ok {
				kind = "macro"
				modifiers = modifierMask("readonly")
			}
		case tok.Type == token.Hash:
			kind = "macro"
		case token.IsWord(tok.Type) && prev.Type == token.Slash:
			kind = "namespace"
		case tok.Type == token.Boolean || token.IsWord(tok.Type):
			kind = "keyword"
		case tok.Type == token.Number:
			kind = "number"
		case tok.Type == token.String:
			kind = "string"
		case tok.Type == token.Bar || tok.Type == token.Equals || tok.Type == token.Star ||
			tok.Type == token.Plus || tok.Type == token.Minus:
			kind = "operator"
		}

		if kind != "" {
			tokens = append(tokens, SemanticToken{
				Line:           uint32(tok.Pos.Line - 1),
				StartChar:      uint32(tok.Pos.Column - 1),
				Length:         uint32(len([]rune(tok.Value))),
				TokenType:      indexOf(kind, SemanticTokenTypes),
				TokenModifiers: modifiers,
			})
		}

		lineStart = tok.Type == token.Eol
		prev = tok
	}

	return tokens
}

func modifierMask(names ...string) int {
	mask := 0
	for _, name := range names {
		if i := indexOf(name, SemanticTokenModifiers); i >= 0 {
			mask |= 1 << i
		}
	}
	return mask
}

func indexOf(target string, list []string) int {
	for i, item := range list {
		if item == target {
			return i
		}
	}
	return -1
}
