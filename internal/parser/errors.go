package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Reason classifies a SyntaxError.
type Reason int

const (
	ReasonUnexpected Reason = iota
	ReasonDuplicateProperty
	ReasonInvalidMacro
)

// SyntaxError reports where the grammar could not continue.
type SyntaxError struct {
	Msg      string
	Pos      lexer.Position
	Token    lexer.Token
	Expected []string
	Reason   Reason
}

var _ participle.Error = (*SyntaxError)(nil)

func (e *SyntaxError) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return e.Pos.String() + ": " + e.Msg
}

func (e *SyntaxError) Message() string {
	return e.Msg
}

func (e *SyntaxError) Position() lexer.Position {
	return e.Pos
}

// Length is the width of the offending token, at least one column.
func (e *SyntaxError) Length() int {
	if n := len([]rune(e.Token.Value)); n > 0 && e.Token.Value != "\n" {
		return n
	}
	return 1
}
