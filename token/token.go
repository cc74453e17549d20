// SPDX-License-Identifier: Apache-2.0

// Package token defines the token kinds produced by the DM lexer.
package token

import (
	"sort"

	"github.com/alecthomas/participle/v2/lexer"
)

// Type is the participle token type; kinds below are positive, EOF is negative.
type Type = lexer.TokenType

const (
	EOF Type = lexer.EOF

	// Literals
	Number Type = iota
	String
	Boolean
	Identifier

	// Single character punctuation
	Slash
	Dot
	Plus
	Minus
	Star
	Bang
	Equals
	Less
	Greater
	Hash
	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace
	Comma
	Colon
	Semicolon
	Percent
	Question
	Tilde
	Caret

	// Multi character operators
	Ampersand
	AndAnd
	Bar
	OrOr
	EqualsEquals
	NotEquals
	LessEquals
	GreaterEquals
	PlusPlus
	MinusMinus
	PlusEquals
	MinusEquals
	StarEquals
	SlashEquals

	// Keywords
	Define
	Undef
	List
	Rgb
	For
	In
	To
	If
	Else
	New
	Return

	// Layout
	LeadWhitespace
	Eol
)

var names = map[Type]string{
	EOF:           "EOF",
	Number:        "Number",
	String:        "String",
	Boolean:       "Boolean",
	Identifier:    "Identifier",
	Slash:         "Slash",
	Dot:           "Dot",
	Plus:          "Plus",
	Minus:         "Minus",
	Star:          "Star",
	Bang:          "Bang",
	Equals:        "Equals",
	Less:          "Less",
	Greater:       "Greater",
	Hash:          "Hash",
	LeftParen:     "LeftParen",
	RightParen:    "RightParen",
	LeftBracket:   "LeftBracket",
	RightBracket:  "RightBracket",
	LeftBrace:     "LeftBrace",
	RightBrace:    "RightBrace",
	Comma:         "Comma",
	Colon:         "Colon",
	Semicolon:     "Semicolon",
	Percent:       "Percent",
	Question:      "Question",
	Tilde:         "Tilde",
	Caret:         "Caret",
	Ampersand:     "Ampersand",
	AndAnd:        "AndAnd",
	Bar:           "Bar",
	OrOr:          "OrOr",
	EqualsEquals:  "EqualsEquals",
	NotEquals:     "NotEquals",
	LessEquals:    "LessEquals",
	GreaterEquals: "GreaterEquals",
	PlusPlus:      "PlusPlus",
	MinusMinus:    "MinusMinus",
	PlusEquals:    "PlusEquals",
	MinusEquals:   "MinusEquals",
	StarEquals:    "StarEquals",
	SlashEquals:   "SlashEquals",
	Define:        "Define",
	Undef:         "Undef",
	List:          "List",
	Rgb:           "Rgb",
	For:           "For",
	In:            "In",
	To:            "To",
	If:            "If",
	Else:          "Else",
	New:           "New",
	Return:        "Return",

	LeadWhitespace: "LeadWhitespace",
	Eol:            "Eol",
}

// Name returns the symbolic name of a token kind.
func Name(t Type) string {
	if n, ok := names[t]; ok {
		return n
	}
	return "Unknown"
}

// Symbols maps every kind name to its type, as participle's lexer.Definition expects.
func Symbols() map[string]Type {
	symbols := make(map[string]Type, len(names))
	for t, n := range names {
		symbols[n] = t
	}
	return symbols
}

// Single maps punctuation characters to their kinds.
var Single = map[rune]Type{
	'/': Slash,
	'.': Dot,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'!': Bang,
	'=': Equals,
	'<': Less,
	'>': Greater,
	'#': Hash,
	'(': LeftParen,
	')': RightParen,
	'[': LeftBracket,
	']': RightBracket,
	'{': LeftBrace,
	'}': RightBrace,
	',': Comma,
	':': Colon,
	';': Semicolon,
	'%': Percent,
	'?': Question,
	'~': Tilde,
	'^': Caret,
}

// keywords holds every word keyword and multi character operator,
// matched longest first by the lexer.
var keywords = map[string]Type{
	"list":   List,
	"rgb":    Rgb,
	"define": Define,
	"undef":  Undef,
	"for":    For,
	"in":     In,
	"to":     To,
	"if":     If,
	"else":   Else,
	"new":    New,
	"return": Return,
	"TRUE":   Boolean,
	"FALSE":  Boolean,

	"==": EqualsEquals,
	"!=": NotEquals,
	"<=": LessEquals,
	">=": GreaterEquals,
	"++": PlusPlus,
	"--": MinusMinus,
	"+=": PlusEquals,
	"-=": MinusEquals,
	"*=": StarEquals,
	"/=": SlashEquals,
	"&&": AndAnd,
	"||": OrOr,
	"&":  Ampersand,
	"|":  Bar,
}

// Keywords returns the keyword table entries ordered longest first.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// LookupKeyword returns the kind of an exact keyword or operator text.
func LookupKeyword(text string) (Type, bool) {
	t, ok := keywords[text]
	return t, ok
}

// IsWord reports whether t is a word keyword, which may also serve as a
// path segment after a slash.
func IsWord(t Type) bool {
	return t >= Define && t <= Return
}
