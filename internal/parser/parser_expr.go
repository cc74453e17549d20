package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/shopspring/decimal"

	"dmchem/internal/ast"
	"dmchem/token"
)

// parseExpr commits to the first alternative that matches. Compound forms
// come before the terms they start with.
func (p *Parser) parseExpr() (ast.Value, bool) {
	alternatives := []func() (ast.Value, bool){
		p.parseUnion,
		p.parseArithmetic,
		p.parseListLiteral,
		p.parseTerm,
	}
	for _, alt := range alternatives {
		if v, ok := attempt(p, alt); ok {
			return v, true
		}
	}
	return nil, false
}

func (p *Parser) parseTerm() (ast.Value, bool) {
	alternatives := []func() (ast.Value, bool){
		p.parseRgb,
		p.parseHexColor,
		p.parseMacroReference,
		p.parsePath,
		p.parseNumber,
		p.parseString,
		p.parseBoolean,
	}
	for _, alt := range alternatives {
		if v, ok := attempt(p, alt); ok {
			return v, true
		}
	}
	return nil, false
}

// parseReference reads "a", "/a/b", "a/b" or "/a/b/" and returns the
// segments joined without the leading slash. slashed reports whether any
// "/segment" was present.
func (p *Parser) parseReference() (ref string, slashed bool, ok bool) {
	var segments []string
	if p.check(token.Identifier) {
		segments = append(segments, p.advance().Value)
	}
	for p.check(token.Slash) && isSegment(p.peekAt(1)) {
		p.advance()
		segments = append(segments, p.advance().Value)
		slashed = true
	}
	if len(segments) == 0 {
		p.expect("path")
		return "", false, false
	}
	if slashed {
		p.match(token.Slash)
	}
	return strings.Join(segments, "/"), slashed, true
}

func isSegment(tok lexer.Token) bool {
	return tok.Type == token.Identifier || token.IsWord(tok.Type)
}

// parseUnion needs at least two members; a lone path is left to parsePath.
func (p *Parser) parseUnion() (ast.Value, bool) {
	first, _, ok := p.parseReference()
	if !ok {
		return nil, false
	}
	union := ast.Union{ast.Path(first)}
	for p.match(token.Bar) {
		next, _, ok := p.parseReference()
		if !ok {
			return nil, false
		}
		union = append(union, ast.Path(next))
	}
	if len(union) < 2 {
		p.expect("'|'")
		return nil, false
	}
	return union, true
}

// parseArithmetic only succeeds when an operator or parentheses were
// consumed, leaving plain numbers and macros to parseTerm.
func (p *Parser) parseArithmetic() (ast.Value, bool) {
	v, compound, ok := p.parseSum()
	if !ok {
		return nil, false
	}
	if !compound {
		p.expect("operator")
		return nil, false
	}
	return v, true
}

func (p *Parser) parseSum() (ast.Value, bool, bool) {
	left, compound, ok := p.parseProduct()
	if !ok {
		return nil, false, false
	}
	for p.check(token.Minus) || p.check(token.Plus) {
		op := p.advance()
		right, _, ok := p.parseProduct()
		if !ok {
			return nil, false, false
		}
		a, _ := ast.Numeric(left)
		b, _ := ast.Numeric(right)
		if op.Type == token.Minus {
			left = ast.NewDecimal(a.Sub(b))
		} else {
			left = ast.NewDecimal(a.Add(b))
		}
		compound = true
	}
	return left, compound, true
}

func (p *Parser) parseProduct() (ast.Value, bool, bool) {
	left, compound, ok := p.parseFactor()
	if !ok {
		return nil, false, false
	}
	for p.match(token.Star) {
		right, _, ok := p.parseFactor()
		if !ok {
			return nil, false, false
		}
		a, _ := ast.Numeric(left)
		b, _ := ast.Numeric(right)
		left = ast.NewDecimal(a.Mul(b))
		compound = true
	}
	return left, compound, true
}

// parseFactor yields a numeric operand: a literal, a macro holding a number,
// or a parenthesized sum.
func (p *Parser) parseFactor() (ast.Value, bool, bool) {
	if p.match(token.LeftParen) {
		v, _, ok := p.parseSum()
		if !ok {
			return nil, false, false
		}
		if !p.match(token.RightParen) {
			p.expect("')'")
			return nil, false, false
		}
		n, _ := ast.Numeric(v)
		return ast.NewDecimal(n), true, true
	}

	if v, ok := attempt(p, p.parseNumber); ok {
		return v, false, true
	}

	v, ok := attempt(p, p.parseMacroReference)
	if !ok {
		return nil, false, false
	}
	if _, numeric := ast.Numeric(v); !numeric {
		return nil, false, false
	}
	return v, false, true
}

// parseRgb reads rgb(r, g, b) with exactly three channels in 0..255.
func (p *Parser) parseRgb() (ast.Value, bool) {
	if !p.match(token.Rgb) {
		p.expect("rgb")
		return nil, false
	}
	if !p.match(token.LeftParen) {
		p.expect("'('")
		return nil, false
	}

	var channels [3]uint8
	for i := range channels {
		p.skipLayout()
		if i > 0 {
			if !p.match(token.Comma) {
				p.expect("','")
				return nil, false
			}
			p.skipLayout()
		}
		v, _, ok := p.parseSum()
		if !ok {
			return nil, false
		}
		n, _ := ast.Numeric(v)
		c := n.IntPart()
		if c < 0 || c > 255 {
			return nil, false
		}
		channels[i] = uint8(c)
	}

	p.skipLayout()
	if !p.match(token.RightParen) {
		p.expect("')'")
		return nil, false
	}
	return ast.Color{R: channels[0], G: channels[1], B: channels[2], A: 255}, true
}

// parseHexColor reads a string literal holding "#RGB", "#RRGGBB" or
// "#RRGGBBAA". Anything else is left to parseString.
func (p *Parser) parseHexColor() (ast.Value, bool) {
	if !p.check(token.String) {
		p.expect("string")
		return nil, false
	}
	text := unquote(p.peek().Value)
	if !strings.HasPrefix(text, "#") {
		return nil, false
	}
	c, err := decodeHexColor(text)
	if err != nil {
		p.log.Debugf("%s: %s", p.peek().Pos, err)
		return nil, false
	}
	p.advance()
	return c, true
}

func decodeHexColor(text string) (ast.Color, error) {
	alpha := uint8(255)
	switch len(text) {
	case 4, 7:
	case 9:
		a, err := strconv.ParseUint(text[7:], 16, 8)
		if err != nil {
			return ast.Color{}, fmt.Errorf("invalid alpha in hex color %q: %w", text, err)
		}
		alpha = uint8(a)
		text = text[:7]
	default:
		return ast.Color{}, fmt.Errorf("invalid hex color %q", text)
	}

	c, err := colorful.Hex(text)
	if err != nil {
		return ast.Color{}, fmt.Errorf("invalid hex color %q: %w", text, err)
	}
	r, g, b := c.RGB255()
	return ast.Color{R: r, G: g, B: b, A: alpha}, nil
}

// parseMacroReference substitutes the stored value of a defined name. The
// value is used as is, never expanded again.
func (p *Parser) parseMacroReference() (ast.Value, bool) {
	name, _, ok := p.parseReference()
	if !ok {
		return nil, false
	}
	return p.macros.Lookup(name)
}

func (p *Parser) parsePath() (ast.Value, bool) {
	ref, _, ok := p.parseReference()
	if !ok {
		return nil, false
	}
	return ast.Path(ref), true
}

// parseNumber reads an optionally negated literal. A fractional part makes
// it a Decimal.
func (p *Parser) parseNumber() (ast.Value, bool) {
	negative := p.check(token.Minus) && p.peekAt(1).Type == token.Number
	if negative {
		p.advance()
	}
	if !p.check(token.Number) {
		p.expect("number")
		return nil, false
	}

	text := p.advance().Value
	if negative {
		text = "-" + text
	}
	if !strings.Contains(text, ".") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return ast.Integer(n), true
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, false
	}
	return ast.NewDecimal(d), true
}

func (p *Parser) parseString() (ast.Value, bool) {
	if !p.check(token.String) {
		p.expect("string")
		return nil, false
	}
	return ast.String(unquote(p.advance().Value)), true
}

func (p *Parser) parseBoolean() (ast.Value, bool) {
	if !p.check(token.Boolean) {
		p.expect("boolean")
		return nil, false
	}
	return ast.Boolean(p.advance().Value == "TRUE"), true
}

// parseListLiteral reads list(a, b) as a List and list(k = v, ...) as a
// Dict. The first element fixes which; an empty list() is a Dict. Each
// element is parsed once, so nesting costs no extra backtracking.
func (p *Parser) parseListLiteral() (ast.Value, bool) {
	var list ast.List
	var dict *ast.Dict
	first := true

	ok := p.parseListElements(func() bool {
		key, ok := p.parseExpr()
		if !ok {
			return false
		}
		if first {
			first = false
			if p.check(token.Equals) {
				dict = ast.NewDict()
			} else {
				p.expect("'='")
				list = ast.List{}
			}
		}

		if dict == nil {
			list = append(list, key)
			return true
		}
		if !p.match(token.Equals) {
			p.expect("'='")
			return false
		}
		value, ok := p.parseExpr()
		if !ok {
			return false
		}
		dict.Set(key, value)
		return true
	})
	if !ok {
		return nil, false
	}
	if list != nil {
		return list, true
	}
	if dict == nil {
		dict = ast.NewDict()
	}
	return dict, true
}

// parseListElements reads "list(" elem {"," elem} ")". Line breaks and
// indentation around the punctuation are ignored.
func (p *Parser) parseListElements(element func() bool) bool {
	if !p.match(token.List) {
		p.expect("list")
		return false
	}
	if !p.match(token.LeftParen) {
		p.expect("'('")
		return false
	}

	p.skipLayout()
	if p.match(token.RightParen) {
		return true
	}
	for {
		if !element() {
			return false
		}
		p.skipLayout()
		if p.match(token.RightParen) {
			return true
		}
		if !p.match(token.Comma) {
			p.expect("',' or ')'")
			return false
		}
		p.skipLayout()
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
