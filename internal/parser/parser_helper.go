package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"dmchem/token"
)

// cursor buffers tokens pulled from the lexer only as far as the parser has
// looked ahead. Marks are buffer indexes; commit drops the consumed prefix.
type cursor struct {
	lex lexer.Lexer
	buf []lexer.Token
	pos int
	err error
}

func (c *cursor) at(i int) lexer.Token {
	for len(c.buf) <= c.pos+i {
		if n := len(c.buf); n > 0 && c.buf[n-1].Type == token.EOF {
			return c.buf[n-1]
		}
		tok, err := c.lex.Next()
		if err != nil {
			c.err = err
			tok = lexer.Token{Type: token.EOF}
			if n := len(c.buf); n > 0 {
				tok.Pos = c.buf[n-1].Pos
			}
		}
		c.buf = append(c.buf, tok)
	}
	return c.buf[c.pos+i]
}

func (c *cursor) commit() {
	c.buf = c.buf[c.pos:]
	c.pos = 0
}

// failure collects what the parser expected at the furthest token any
// alternative reached.
type failure struct {
	found    lexer.Token
	expected []string
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != token.EOF {
		p.cur.pos++
	}
	return tok
}

func (p *Parser) check(tt token.Type) bool {
	return p.peek().Type == tt
}

func (p *Parser) match(types ...token.Type) bool {
	for _, tt := range types {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) peek() lexer.Token {
	return p.cur.at(0)
}

func (p *Parser) peekAt(i int) lexer.Token {
	return p.cur.at(i)
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) mark() int {
	return p.cur.pos
}

func (p *Parser) reset(mark int) {
	p.cur.pos = mark
}

// commit forgets consumed tokens and earlier expectations. Only safe where no
// mark is outstanding.
func (p *Parser) commit() {
	p.cur.commit()
	p.furthest = nil
}

// attempt runs one grammar alternative, rewinding the cursor if it fails.
func attempt[T any](p *Parser, parse func() (T, bool)) (T, bool) {
	mark := p.mark()
	v, ok := parse()
	if !ok {
		p.reset(mark)
	}
	return v, ok
}

// expect records that what was wanted at the current token.
func (p *Parser) expect(what string) {
	tok := p.peek()
	switch {
	case p.furthest == nil || tok.Pos.Offset > p.furthest.found.Pos.Offset:
		p.furthest = &failure{found: tok, expected: []string{what}}
	case tok.Pos.Offset == p.furthest.found.Pos.Offset && !slices.Contains(p.furthest.expected, what):
		p.furthest.expected = append(p.furthest.expected, what)
	}
}

func (p *Parser) fatalf(tok lexer.Token, reason Reason, format string, args ...any) {
	if p.fatal != nil {
		return
	}
	p.fatal = &SyntaxError{
		Msg:    fmt.Sprintf(format, args...),
		Pos:    tok.Pos,
		Token:  tok,
		Reason: reason,
	}
}

func (p *Parser) failure() *SyntaxError {
	if p.fatal != nil {
		return p.fatal
	}
	if p.furthest == nil {
		tok := p.peek()
		return &SyntaxError{Msg: "unexpected " + describe(tok), Pos: tok.Pos, Token: tok}
	}
	f := p.furthest
	return &SyntaxError{
		Msg:      fmt.Sprintf("unexpected %s, expected %s", describe(f.found), joinExpected(f.expected)),
		Pos:      f.found.Pos,
		Token:    f.found,
		Expected: f.expected,
	}
}

// endOfLine accepts a newline, or the end of input in its place.
func (p *Parser) endOfLine() bool {
	if p.match(token.Eol) || p.isAtEnd() {
		return true
	}
	p.expect("end of line")
	return false
}

// skipBlankLines consumes lines holding nothing but indentation.
func (p *Parser) skipBlankLines() {
	for {
		m := p.mark()
		p.match(token.LeadWhitespace)
		if p.match(token.Eol) {
			continue
		}
		if !p.isAtEnd() {
			p.reset(m)
		}
		return
	}
}

// skipLine consumes the rest of the current line including its newline.
func (p *Parser) skipLine() {
	for !p.isAtEnd() {
		if p.advance().Type == token.Eol {
			return
		}
	}
}

// skipLayout consumes line breaks and indentation inside bracketed forms.
func (p *Parser) skipLayout() {
	for p.match(token.Eol, token.LeadWhitespace) {
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.Eol:
		return "end of line"
	case token.LeadWhitespace:
		return "indentation"
	}
	return fmt.Sprintf("%q", tok.Value)
}

func joinExpected(expected []string) string {
	if len(expected) == 1 {
		return expected[0]
	}
	return strings.Join(expected[:len(expected)-1], ", ") + " or " + expected[len(expected)-1]
}
