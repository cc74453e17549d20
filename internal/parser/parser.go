package parser

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/tliron/commonlog"

	"dmchem/internal/ast"
)

// Parser is one parse session over a token stream. The macro table it is
// given is read and written as directives are met, top to bottom.
type Parser struct {
	cur      *cursor
	macros   *MacroTable
	furthest *failure
	fatal    *SyntaxError
	log      commonlog.Logger
}

// NewParser creates a session. A nil table starts the session with no macros.
func NewParser(lex lexer.Lexer, macros *MacroTable) *Parser {
	if macros == nil {
		macros = NewMacroTable()
	}
	return &Parser{
		cur:    &cursor{lex: lex},
		macros: macros,
		log:    commonlog.GetLogger("dmchem.parser"),
	}
}

func ParseFile(path string, macros *MacroTable) (ast.Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseSource(path, string(source), macros)
}

// ParseSource parses a whole document. On failure the records parsed before
// the failing line are returned with a *SyntaxError.
func ParseSource(filename string, source string, macros *MacroTable) (ast.Document, error) {
	return NewParser(NewScanner(filename, source), macros).ParseDocument()
}

// ParseExpression parses source as exactly one value expression.
func ParseExpression(source string, macros *MacroTable) (ast.Value, error) {
	return NewParser(NewScanner("", source), macros).ParseExpression()
}

func (p *Parser) ParseDocument() (ast.Document, error) {
	var doc ast.Document

	for {
		p.skipBlankLines()
		if p.isAtEnd() {
			break
		}

		if _, ok := attempt(p, p.parseDirective); ok {
			p.commit()
			continue
		}

		record, ok := attempt(p, p.parseObject)
		if !ok {
			break
		}
		doc = append(doc, record)
		p.commit()
	}

	if p.fatal != nil || !p.isAtEnd() {
		err := p.failure()
		p.log.Debugf("%s: parse stopped after %d records: %s", err.Pos.Filename, len(doc), err.Msg)
		return doc, err
	}
	if p.cur.err != nil {
		return doc, fmt.Errorf("failed to read tokens: %w", p.cur.err)
	}

	p.log.Debugf("parsed %d object records", len(doc))
	return doc, nil
}

func (p *Parser) ParseExpression() (ast.Value, error) {
	p.skipLayout()
	value, ok := p.parseExpr()
	if ok {
		p.skipLayout()
		if p.isAtEnd() {
			return value, nil
		}
		p.expect("end of input")
	}
	return nil, p.failure()
}
