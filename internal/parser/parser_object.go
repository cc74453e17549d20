package parser

import (
	"github.com/alecthomas/participle/v2/lexer"

	"dmchem/internal/ast"
	"dmchem/token"
)

// parseObject reads a path header line and the indented property lines
// under it. Indented lines that are not a property are dropped.
func (p *Parser) parseObject() (ast.ObjectRecord, bool) {
	header := p.peek()
	path, slashed, ok := p.parseReference()
	if !ok {
		return ast.ObjectRecord{}, false
	}
	if !slashed {
		p.expect("'/'")
		return ast.ObjectRecord{}, false
	}
	if !p.endOfLine() {
		return ast.ObjectRecord{}, false
	}

	props := ast.NewPropertyMap()
	for {
		m := p.mark()
		p.skipBlankLines()
		if !p.match(token.LeadWhitespace) || p.check(token.Hash) {
			p.reset(m)
			break
		}

		key := p.peek()
		prop, ok := attempt(p, p.parseProperty)
		if !ok {
			p.log.Debugf("%s: discarding unparseable property line", key.Pos)
			p.skipLine()
			continue
		}
		if !props.Add(prop.name, prop.value) {
			p.fatalf(key, ReasonDuplicateProperty, "duplicate property %q in %s", prop.name, ast.Path(path))
			return ast.ObjectRecord{}, false
		}
	}

	return ast.ObjectRecord{
		Pos:        header.Pos,
		Path:       ast.Path(path),
		Properties: props,
	}, true
}

type property struct {
	name  string
	value ast.Value
}

// parseProperty reads "name = value" up to the end of the line. The name may
// itself be a path, as in "var/list/foo".
func (p *Parser) parseProperty() (property, bool) {
	name, _, ok := p.parseReference()
	if !ok {
		return property{}, false
	}
	if !p.match(token.Equals) {
		p.expect("'='")
		return property{}, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return property{}, false
	}
	if !p.endOfLine() {
		return property{}, false
	}
	return property{name: name, value: value}, true
}

// ExpectedDirective is the expectation recorded when a '#' line names
// neither directive.
const ExpectedDirective = "define or undef"

// parseDirective reads "#define NAME expr" or "#undef NAME". The macro table
// only changes once the whole line has matched.
func (p *Parser) parseDirective() (string, bool) {
	p.match(token.LeadWhitespace)
	if !p.match(token.Hash) {
		p.expect("'#'")
		return "", false
	}

	switch {
	case p.match(token.Define):
		name, ok := p.macroName()
		if !ok {
			return "", false
		}
		value, ok := p.parseExpr()
		if !ok || !p.endOfLine() {
			return "", false
		}
		p.macros.Define(name.Value, value)
		p.log.Debugf("%s: #define %s %s", name.Pos, name.Value, value)
		return name.Value, true

	case p.match(token.Undef):
		name, ok := p.macroName()
		if !ok || !p.endOfLine() {
			return "", false
		}
		if !p.macros.Undef(name.Value) {
			p.log.Debugf("%s: #undef of unknown macro %s", name.Pos, name.Value)
		}
		return name.Value, true
	}

	p.expect(ExpectedDirective)
	return "", false
}

func (p *Parser) macroName() (lexer.Token, bool) {
	if !p.check(token.Identifier) {
		p.expect("macro name")
		return lexer.Token{}, false
	}
	return p.advance(), true
}
