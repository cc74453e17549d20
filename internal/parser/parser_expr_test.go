package parser

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmchem/internal/ast"
)

func dec(s string) ast.Decimal {
	return ast.NewDecimal(decimal.RequireFromString(s))
}

func parseValue(t *testing.T, source string, macros *MacroTable) ast.Value {
	t.Helper()
	v, err := ParseExpression(source, macros)
	require.NoError(t, err, "parsing %q", source)
	require.NotNil(t, v)
	return v
}

func assertValue(t *testing.T, expected ast.Value, actual ast.Value) {
	t.Helper()
	assert.True(t, expected.Equal(actual), "expected %s (%s), got %s (%s)",
		expected, expected.Kind(), actual, actual.Kind())
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		source   string
		expected ast.Value
	}{
		{"42", ast.Integer(42)},
		{"0", ast.Integer(0)},
		{"-7", ast.Integer(-7)},
		{"3.5", dec("3.5")},
		{"-0.25", dec("-0.25")},
		{"99999999999999999999", dec("99999999999999999999")},
		{`"Water"`, ast.String("Water")},
		{`'single'`, ast.String("single")},
		{`""`, ast.String("")},
		{"TRUE", ast.Boolean(true)},
		{"FALSE", ast.Boolean(false)},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertValue(t, tt.expected, parseValue(t, tt.source, nil))
		})
	}
}

func TestParsePaths(t *testing.T) {
	tests := []struct {
		source   string
		expected ast.Value
	}{
		{"/obj", ast.Path("obj")},
		{"/obj/item/weapon", ast.Path("obj/item/weapon")},
		{"/obj/item/", ast.Path("obj/item")},
		{"obj/item", ast.Path("obj/item")},
		{"water", ast.Path("water")},
		{"/datum/reagent/new", ast.Path("datum/reagent/new")},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertValue(t, tt.expected, parseValue(t, tt.source, nil))
		})
	}
}

func TestParseUnion(t *testing.T) {
	v := parseValue(t, "/a/b|/c/d|/e", nil)
	assertValue(t, ast.Union{"a/b", "c/d", "e"}, v)

	v = parseValue(t, "/mob/living | /obj", nil)
	assertValue(t, ast.Union{"mob/living", "obj"}, v)
}

func TestParseUnionMembersAreNotMacroExpanded(t *testing.T) {
	macros := NewMacroTable()
	macros.Define("A", ast.Integer(1))

	v := parseValue(t, "A|/b", macros)
	assertValue(t, ast.Union{"A", "b"}, v)
}

func TestParseArithmetic(t *testing.T) {
	macros := NewMacroTable()
	macros.Define("REM", dec("0.1"))
	macros.Define("TWO", ast.Integer(2))

	tests := []struct {
		source   string
		expected string
	}{
		{"4*REM", "0.4"},
		{"(10-5)", "5"},
		{"2*3-1", "5"},
		{"1+2*3", "7"},
		{"(1+2)*3", "9"},
		{"10-2-3", "5"},
		{"TWO*TWO", "4"},
		{"REM*(TWO+1)", "0.3"},
		{"0.5*-2", "-1"},
		{"((7))", "7"},
		{"(7)", "7"},
		{"(TWO)", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			v := parseValue(t, tt.source, macros)
			assertValue(t, dec(tt.expected), v)
		})
	}
}

func TestArithmeticDoesNotUseNonNumericMacros(t *testing.T) {
	macros := NewMacroTable()
	macros.Define("NAME", ast.String("x"))

	_, err := ParseExpression("2*NAME", macros)
	assert.Error(t, err)
}

func TestParseMacroReference(t *testing.T) {
	macros := DefaultMacros()
	macros.Define("WATER", ast.Path("datum/reagent/water"))

	assertValue(t, ast.Integer(1), parseValue(t, "NORTH", macros))
	assertValue(t, ast.Integer(32), parseValue(t, "DOWN", macros))
	assertValue(t, ast.Path("datum/reagent/water"), parseValue(t, "WATER", macros))
	assertValue(t, ast.Path("UNDEFINED"), parseValue(t, "UNDEFINED", macros))
}

func TestParseRgb(t *testing.T) {
	tests := []struct {
		source   string
		expected ast.Color
	}{
		{"rgb(255, 128, 0)", ast.Color{R: 255, G: 128, B: 0, A: 255}},
		{"rgb(0,0,0)", ast.Color{A: 255}},
		{"rgb(\n\t10,\n\t20,\n\t30\n)", ast.Color{R: 10, G: 20, B: 30, A: 255}},
		{"rgb(100+1, 2*3, 12.9)", ast.Color{R: 101, G: 6, B: 12, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertValue(t, tt.expected, parseValue(t, tt.source, nil))
		})
	}
}

func TestParseRgbRejectsBadChannels(t *testing.T) {
	for _, source := range []string{"rgb(256, 0, 0)", "rgb(1, 2)", "rgb(1, 2, 3, 4)", `rgb("a", 0, 0)`} {
		_, err := ParseExpression(source, nil)
		assert.Error(t, err, source)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		source   string
		expected ast.Value
	}{
		{`"#ff8000"`, ast.Color{R: 255, G: 128, B: 0, A: 255}},
		{`"#FF8000"`, ast.Color{R: 255, G: 128, B: 0, A: 255}},
		{`"#f80"`, ast.Color{R: 255, G: 136, B: 0, A: 255}},
		{`"#ff800080"`, ast.Color{R: 255, G: 128, B: 0, A: 128}},
		{`"#zzzzzz"`, ast.String("#zzzzzz")},
		{`"#12345"`, ast.String("#12345")},
		{`"# not a color"`, ast.String("# not a color")},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertValue(t, tt.expected, parseValue(t, tt.source, nil))
		})
	}
}

func TestParseList(t *testing.T) {
	v := parseValue(t, `list(1, "two", /obj/three, list(4))`, nil)
	assertValue(t, ast.List{
		ast.Integer(1),
		ast.String("two"),
		ast.Path("obj/three"),
		ast.List{ast.Integer(4)},
	}, v)

	v = parseValue(t, "list(\n\t\"a\",\n\t\"b\"\n)", nil)
	assertValue(t, ast.List{ast.String("a"), ast.String("b")}, v)
}

func TestParseDictList(t *testing.T) {
	v := parseValue(t, `list("oxygen" = 1, "hydrogen" = 2, /datum/reagent/water = 0.5)`, nil)

	dict, ok := v.(*ast.Dict)
	require.True(t, ok, "expected a dict, got %s", v.Kind())
	assert.Equal(t, 3, dict.Len())

	got, ok := dict.Get(ast.String("oxygen"))
	require.True(t, ok)
	assertValue(t, ast.Integer(1), got)

	got, ok = dict.Get(ast.Path("datum/reagent/water"))
	require.True(t, ok)
	assertValue(t, dec("0.5"), got)

	keys := []string{}
	for k := range dict.All() {
		keys = append(keys, k.String())
	}
	assert.Equal(t, []string{`"oxygen"`, `"hydrogen"`, "/datum/reagent/water"}, keys)
}

func TestDictListLastDuplicateKeyWins(t *testing.T) {
	v := parseValue(t, `list("a" = 1, "b" = 2, "a" = 3)`, nil)
	dict := v.(*ast.Dict)

	assert.Equal(t, 2, dict.Len())
	got, _ := dict.Get(ast.String("a"))
	assertValue(t, ast.Integer(3), got)
	assert.Equal(t, `"a"`, dict.Entries()[0].Key.String())
}

func TestEmptyListIsDict(t *testing.T) {
	v := parseValue(t, "list()", nil)
	dict, ok := v.(*ast.Dict)
	require.True(t, ok)
	assert.Equal(t, 0, dict.Len())

	v = parseValue(t, "list(\n)", nil)
	assert.Equal(t, ast.DICT, v.Kind())
}

func TestParenthesizedOperandIsDecimal(t *testing.T) {
	v := parseValue(t, "(7)", nil)
	assert.Equal(t, ast.DECIMAL, v.Kind())

	v = parseValue(t, "7", nil)
	assert.Equal(t, ast.INTEGER, v.Kind())
}

func TestMixedListFails(t *testing.T) {
	for _, source := range []string{`list(1, "a" = 2)`, `list("a" = 1, 2)`} {
		_, err := ParseExpression(source, nil)
		assert.Error(t, err, source)
	}
}

func TestDeeplyNestedLists(t *testing.T) {
	const depth = 40

	v := parseValue(t, strings.Repeat("list(", depth)+"1"+strings.Repeat(")", depth), nil)
	for i := 0; i < depth; i++ {
		list, ok := v.(ast.List)
		require.True(t, ok, "level %d is %s", i, v.Kind())
		require.Len(t, list, 1)
		v = list[0]
	}
	assertValue(t, ast.Integer(1), v)

	v = parseValue(t, strings.Repeat(`list("k" = `, depth)+"1"+strings.Repeat(")", depth), nil)
	assert.Equal(t, ast.DICT, v.Kind())

	source := strings.Repeat("list(", depth) + "1"
	_, err := ParseExpression(source, nil)
	require.Error(t, err)
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, len(source)+1, syntaxErr.Pos.Column)
}

func TestBooleanExpectationLabel(t *testing.T) {
	_, err := ParseExpression("=", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string or boolean")
	assert.NotContains(t, err.Error(), "TRUE or FALSE")
}

func TestParseExpressionErrors(t *testing.T) {
	tests := []struct {
		source string
		line   int
		column int
	}{
		{"1 2", 1, 3},
		{"(1+2", 1, 5},
		{"list(1,", 1, 8},
		{"list(1 2)", 1, 8},
		{"%", 1, 1},
		{"", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			v, err := ParseExpression(tt.source, nil)
			assert.Nil(t, v)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.line, syntaxErr.Pos.Line, syntaxErr.Msg)
			assert.Equal(t, tt.column, syntaxErr.Pos.Column, syntaxErr.Msg)
		})
	}
}

func TestExpressionErrorMessage(t *testing.T) {
	_, err := ParseExpression("list(1 2)", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unexpected "2"`)
	assert.Contains(t, err.Error(), "',' or ')'")
}

func TestValuesRoundTripThroughPrinter(t *testing.T) {
	sources := []string{
		"42",
		"-3",
		"1.5",
		"2.0",
		`"text"`,
		`'say "hi"'`,
		"TRUE",
		"/obj/item",
		"/a|/b/c",
		"rgb(1, 2, 3)",
		`"#0A0B0C80"`,
		`list(1, "a", /obj)`,
		`list("a" = 1, /b = list(2))`,
		"list()",
	}

	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			v := parseValue(t, source, nil)
			again := parseValue(t, v.String(), nil)
			assertValue(t, v, again)
		})
	}
}
