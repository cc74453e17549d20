package parser

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tliron/commonlog"

	"dmchem/internal/ast"
	"dmchem/token"
)

// MacroTable maps #define names to their values for one parse session.
// Tables are not safe for concurrent use; give each session its own table
// or a Clone.
type MacroTable struct {
	values map[string]ast.Value
	log    commonlog.Logger
}

func NewMacroTable() *MacroTable {
	return &MacroTable{
		values: make(map[string]ast.Value),
		log:    commonlog.GetLogger("dmchem.parser"),
	}
}

// DefaultMacros returns a table seeded with the engine's direction constants.
func DefaultMacros() *MacroTable {
	m := NewMacroTable()
	for name, dir := range map[string]int64{
		"NORTH": 1,
		"SOUTH": 2,
		"EAST":  4,
		"WEST":  8,
		"UP":    16,
		"DOWN":  32,
	} {
		m.Define(name, ast.Integer(dir))
	}
	return m
}

// Define registers name, replacing any earlier definition. It reports whether
// one was replaced.
func (m *MacroTable) Define(name string, value ast.Value) bool {
	_, replaced := m.values[name]
	m.values[name] = value
	if replaced {
		m.log.Debugf("redefining macro %s = %s", name, value)
	}
	return replaced
}

// Undef removes name. Removing an unknown name is not an error.
func (m *MacroTable) Undef(name string) bool {
	_, ok := m.values[name]
	delete(m.values, name)
	return ok
}

func (m *MacroTable) Lookup(name string) (ast.Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m *MacroTable) Len() int {
	return len(m.values)
}

// Names returns the defined names in sorted order.
func (m *MacroTable) Names() []string {
	return slices.Sorted(maps.Keys(m.values))
}

func (m *MacroTable) Clone() *MacroTable {
	c := NewMacroTable()
	maps.Copy(c.values, m.values)
	return c
}

// DefineSource parses expr against the table and registers it under name,
// the way a "#define name expr" line would.
func (m *MacroTable) DefineSource(name, expr string) error {
	if !isMacroName(name) {
		return &SyntaxError{
			Msg:    fmt.Sprintf("invalid macro name %q", name),
			Reason: ReasonInvalidMacro,
		}
	}
	value, err := ParseExpression(expr, m)
	if err != nil {
		return fmt.Errorf("macro %s: %w", name, err)
	}
	m.Define(name, value)
	return nil
}

func isMacroName(name string) bool {
	s := NewScanner("", name)
	first, _ := s.Next()
	rest, _ := s.Next()
	return first.Type == token.Identifier && first.Value == name && rest.Type == token.EOF
}

// DefineFlag applies a command-line definition, "NAME=expr" or a bare "NAME"
// which defines NAME as 1.
func (m *MacroTable) DefineFlag(def string) error {
	name, expr, ok := strings.Cut(def, "=")
	if !ok {
		expr = "1"
	}
	return m.DefineSource(strings.TrimSpace(name), expr)
}
