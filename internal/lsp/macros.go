package lsp

import (
	"slices"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"dmchem/internal/ast"
	"dmchem/internal/parser"
	"dmchem/token"
)

// macroEvent is one #define or #undef line. It takes effect at offset, the
// end of its line.
type macroEvent struct {
	offset int
	name   string
	value  ast.Value // nil for #undef
}

func (e macroEvent) apply(table *parser.MacroTable) {
	if e.value == nil {
		table.Undef(e.name)
		return
	}
	table.Define(e.name, e.value)
}

// macroTimeline replays a document's directives so lookups see the macros
// as they stood at a given point rather than at the end of the file.
type macroTimeline struct {
	base   *parser.MacroTable
	events []macroEvent
}

func newMacroTimeline(content string, base *parser.MacroTable) *macroTimeline {
	t := &macroTimeline{base: base}
	running := base.Clone()

	tokens := slices.Collect(parser.NewScanner("", content).All())
	lineStart := true
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Type == token.LeadWhitespace && lineStart && i+1 < len(tokens) {
			i++
			tok = tokens[i]
		}
		atStart := lineStart
		lineStart = tok.Type == token.Eol
		if !atStart || tok.Type != token.Hash || i+2 >= len(tokens) {
			continue
		}

		directive, name := tokens[i+1], tokens[i+2]
		if name.Type != token.Identifier || (directive.Type != token.Define && directive.Type != token.Undef) {
			continue
		}

		end := len(content)
		j := i + 3
		for ; j < len(tokens); j++ {
			if tokens[j].Type == token.Eol {
				end = tokens[j].Pos.Offset
				break
			}
		}

		event, ok := directiveEvent(running, directive, name, content[nameEnd(name):end])
		if ok {
			event.offset = end
			event.apply(running)
			t.events = append(t.events, event)
		}
		i = j
		lineStart = true
	}
	return t
}

// directiveEvent evaluates a directive the way the parser would, against
// the macros defined so far.
func directiveEvent(running *parser.MacroTable, directive, name lexer.Token, expr string) (macroEvent, bool) {
	if directive.Type == token.Undef {
		return macroEvent{name: name.Value}, true
	}

	scratch := running.Clone()
	if err := scratch.DefineSource(name.Value, strings.TrimSpace(expr)); err != nil {
		return macroEvent{}, false
	}
	value, _ := scratch.Lookup(name.Value)
	return macroEvent{name: name.Value, value: value}, true
}

func nameEnd(tok lexer.Token) int {
	return tok.Pos.Offset + len(tok.Value)
}

// at returns the macros defined just before offset.
func (t *macroTimeline) at(offset int) *parser.MacroTable {
	table := t.base.Clone()
	for _, e := range t.events {
		if e.offset >= offset {
			break
		}
		e.apply(table)
	}
	return table
}
