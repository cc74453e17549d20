package parser

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/tliron/commonlog"

	"dmchem/token"
)

var keywordTable = token.Keywords()

// Scanner turns DM source into tokens on demand. It never fails: characters
// no rule accepts are skipped.
type Scanner struct {
	filename  string
	source    string
	current   int
	line      int
	column    int
	lineStart bool
	stalled   int
	done      bool
	log       commonlog.Logger
}

func NewScanner(filename, source string) *Scanner {
	return &Scanner{
		filename:  filename,
		source:    source,
		line:      1,
		column:    1,
		lineStart: true,
		stalled:   -1,
		log:       commonlog.GetLogger("dmchem.lexer"),
	}
}

// Next returns the next token. Once input is exhausted it returns EOF forever.
func (s *Scanner) Next() (lexer.Token, error) {
	for !s.done {
		if s.isAtEnd() {
			s.done = true
			break
		}

		start := s.current
		tok, ok := s.scanToken()
		if ok {
			s.stalled = -1
			return tok, nil
		}
		if s.current != start {
			continue
		}
		if s.stalled == start {
			s.log.Debugf("%s: no progress at offset %d, ending token stream", s.filename, start)
			s.done = true
			break
		}
		s.stalled = start
	}
	return lexer.Token{Type: token.EOF, Pos: s.position()}, nil
}

// All yields tokens until EOF, which is not yielded.
func (s *Scanner) All() iter.Seq[lexer.Token] {
	return func(yield func(lexer.Token) bool) {
		for {
			tok, _ := s.Next()
			if tok.Type == token.EOF || !yield(tok) {
				return
			}
		}
	}
}

func (s *Scanner) scanToken() (lexer.Token, bool) {
	c := s.peek()

	if isHorizontalSpace(c) {
		if s.lineStart {
			s.lineStart = false
			return s.scanWhile(token.LeadWhitespace, isHorizontalSpace), true
		}
		s.skipWhile(isHorizontalSpace)
		return lexer.Token{}, false
	}
	s.lineStart = false

	switch {
	case c == '\r':
		s.advance()
		return lexer.Token{}, false
	case c == '\n':
		pos := s.position()
		s.advance()
		s.lineStart = true
		return lexer.Token{Type: token.Eol, Value: "\n", Pos: pos}, true
	case strings.HasPrefix(s.rest(), "//"):
		s.skipWhile(func(r rune) bool { return r != '\n' })
		return lexer.Token{}, false
	case strings.HasPrefix(s.rest(), "/*"):
		s.skipBlockComment()
		return lexer.Token{}, false
	}

	if tok, ok := s.scanKeyword(); ok {
		return tok, true
	}
	if isIdentStart(c) {
		return s.scanWhile(token.Identifier, isIdentPart), true
	}
	if tt, ok := token.Single[c]; ok {
		pos := s.position()
		s.advance()
		return lexer.Token{Type: tt, Value: string(c), Pos: pos}, true
	}
	if c == '"' || c == '\'' {
		if tok, ok := s.scanString(c); ok {
			return tok, true
		}
	}
	if isDigit(c) {
		return s.scanNumber(), true
	}

	s.log.Debugf("%s:%d:%d: skipping unrecognized character %q", s.filename, s.line, s.column, c)
	s.advance()
	return lexer.Token{}, false
}

// scanKeyword tries the keyword table longest first. A word keyword running
// straight into more identifier characters is not a keyword.
func (s *Scanner) scanKeyword() (lexer.Token, bool) {
	rest := s.rest()
	for _, kw := range keywordTable {
		if !strings.HasPrefix(rest, kw) {
			continue
		}
		if isIdentStart(rune(kw[0])) {
			next, _ := utf8.DecodeRuneInString(rest[len(kw):])
			if len(rest) > len(kw) && isIdentPart(next) {
				continue
			}
		}
		tt, _ := token.LookupKeyword(kw)
		pos := s.position()
		for range kw {
			s.advance()
		}
		return lexer.Token{Type: tt, Value: kw, Pos: pos}, true
	}
	return lexer.Token{}, false
}

// scanString reads a literal up to the matching quote. The token value keeps
// the quotes. An opener with no closer is left for the caller to skip.
func (s *Scanner) scanString(quote rune) (lexer.Token, bool) {
	end := strings.IndexRune(s.rest()[1:], quote)
	if end < 0 {
		return lexer.Token{}, false
	}
	pos := s.position()
	start := s.current
	stop := s.current + 1 + end + 1
	for s.current < stop {
		s.advance()
	}
	return lexer.Token{Type: token.String, Value: s.source[start:stop], Pos: pos}, true
}

func (s *Scanner) scanNumber() lexer.Token {
	pos := s.position()
	start := s.current
	s.skipWhile(isDigit)
	rest := s.rest()
	if len(rest) > 1 && rest[0] == '.' && isDigit(rune(rest[1])) {
		s.advance()
		s.skipWhile(isDigit)
	}
	return lexer.Token{Type: token.Number, Value: s.source[start:s.current], Pos: pos}
}

func (s *Scanner) skipBlockComment() {
	s.advance()
	s.advance()
	for !s.isAtEnd() {
		if strings.HasPrefix(s.rest(), "*/") {
			s.advance()
			s.advance()
			return
		}
		s.advance()
	}
}

func (s *Scanner) scanWhile(tt token.Type, accept func(rune) bool) lexer.Token {
	pos := s.position()
	start := s.current
	s.skipWhile(accept)
	return lexer.Token{Type: tt, Value: s.source[start:s.current], Pos: pos}
}

func (s *Scanner) skipWhile(accept func(rune) bool) {
	for !s.isAtEnd() && accept(s.peek()) {
		s.advance()
	}
}

func (s *Scanner) advance() rune {
	r, size := utf8.DecodeRuneInString(s.rest())
	s.current += size
	if r == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return r
}

func (s *Scanner) peek() rune {
	if s.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.rest())
	return r
}

func (s *Scanner) rest() string {
	return s.source[s.current:]
}

func (s *Scanner) position() lexer.Position {
	return lexer.Position{
		Filename: s.filename,
		Offset:   s.current,
		Line:     s.line,
		Column:   s.column,
	}
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

// Helper functions.

func isHorizontalSpace(c rune) bool {
	return c == ' ' || c == '\t'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || isDigit(c)
}

// Definition exposes the DM scanner through participle's lexer API.
type Definition struct{}

var (
	_ lexer.Definition       = Definition{}
	_ lexer.StringDefinition = Definition{}
)

func (Definition) Symbols() map[string]lexer.TokenType {
	return token.Symbols()
}

func (Definition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return NewScanner(filename, string(source)), nil
}

func (Definition) LexString(filename string, input string) (lexer.Lexer, error) {
	return NewScanner(filename, input), nil
}
