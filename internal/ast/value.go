package ast

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	INTEGER Kind = iota
	DECIMAL
	BOOLEAN
	STRING
	COLOR
	PATH
	UNION
	LIST
	DICT
)

var kindNames = [...]string{
	INTEGER: "integer",
	DECIMAL: "decimal",
	BOOLEAN: "boolean",
	STRING:  "string",
	COLOR:   "color",
	PATH:    "path",
	UNION:   "union",
	LIST:    "list",
	DICT:    "dict",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a parsed property value. String renders it back as DM source.
type Value interface {
	Kind() Kind
	Equal(other Value) bool
	String() string
}

type Integer int64

// Decimal is an exact decimal, produced by fractional literals and arithmetic.
type Decimal struct {
	decimal.Decimal
}

type Boolean bool

type String string

type Color struct {
	R, G, B, A uint8
}

// Path is a slash separated object path stored without its leading slash.
type Path string

// Union is two or more paths joined by '|'.
type Union []Path

type List []Value

func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

func (Integer) Kind() Kind { return INTEGER }
func (Decimal) Kind() Kind { return DECIMAL }
func (Boolean) Kind() Kind { return BOOLEAN }
func (String) Kind() Kind  { return STRING }
func (Color) Kind() Kind   { return COLOR }
func (Path) Kind() Kind    { return PATH }
func (Union) Kind() Kind   { return UNION }
func (List) Kind() Kind    { return LIST }
func (*Dict) Kind() Kind   { return DICT }

func (i Integer) Equal(other Value) bool {
	o, ok := other.(Integer)
	return ok && o == i
}

func (d Decimal) Equal(other Value) bool {
	o, ok := other.(Decimal)
	return ok && d.Decimal.Equal(o.Decimal)
}

func (b Boolean) Equal(other Value) bool {
	o, ok := other.(Boolean)
	return ok && o == b
}

func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == s
}

func (c Color) Equal(other Value) bool {
	o, ok := other.(Color)
	return ok && o == c
}

func (p Path) Equal(other Value) bool {
	o, ok := other.(Path)
	return ok && o == p
}

func (u Union) Equal(other Value) bool {
	o, ok := other.(Union)
	if !ok || len(o) != len(u) {
		return false
	}
	for i := range u {
		if u[i] != o[i] {
			return false
		}
	}
	return true
}

func (l List) Equal(other Value) bool {
	o, ok := other.(List)
	if !ok || len(o) != len(l) {
		return false
	}
	for i := range l {
		if !l[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Numeric converts integers and decimals to a decimal operand.
func Numeric(v Value) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case Integer:
		return decimal.NewFromInt(int64(n)), true
	case Decimal:
		return n.Decimal, true
	}
	return decimal.Decimal{}, false
}
