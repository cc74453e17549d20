package errors

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"dmchem/internal/parser"
	"dmchem/token"
)

// DiagnosticBuilder provides a fluent interface for creating diagnostics with suggestions
type DiagnosticBuilder struct {
	d Diagnostic
}

// NewDiagnostic creates a new error builder
func NewDiagnostic(code, message string, pos lexer.Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		d: Diagnostic{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewWarning creates a new warning builder
func NewWarning(code, message string, pos lexer.Position) *DiagnosticBuilder {
	b := NewDiagnostic(code, message, pos)
	b.d.Level = Warning
	return b
}

// WithLength sets the length of the error span
func (b *DiagnosticBuilder) WithLength(length int) *DiagnosticBuilder {
	b.d.Length = length
	return b
}

// WithSuggestion adds a suggestion to the diagnostic
func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.d.Suggestions = append(b.d.Suggestions, Suggestion{Message: message})
	return b
}

// WithReplacement adds a suggestion with replacement text
func (b *DiagnosticBuilder) WithReplacement(message, replacement string) *DiagnosticBuilder {
	b.d.Suggestions = append(b.d.Suggestions, Suggestion{
		Message:     message,
		Replacement: replacement,
	})
	return b
}

// WithNote adds a note to the diagnostic
func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.d.Notes = append(b.d.Notes, note)
	return b
}

// WithHelp adds help text to the diagnostic
func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.d.HelpText = help
	return b
}

// Build returns the completed diagnostic
func (b *DiagnosticBuilder) Build() Diagnostic {
	return b.d
}

// FromError converts a parse failure into a diagnostic. It reports false for
// errors that carry no source position.
func FromError(err error) (Diagnostic, bool) {
	var syntaxErr *parser.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		switch {
		case syntaxErr.Reason == parser.ReasonDuplicateProperty:
			return DuplicateProperty(syntaxErr), true
		case syntaxErr.Reason == parser.ReasonInvalidMacro:
			return InvalidMacro(syntaxErr), true
		case slices.Contains(syntaxErr.Expected, parser.ExpectedDirective):
			return UnsupportedDirective(syntaxErr.Token), true
		}
		return UnexpectedToken(syntaxErr), true
	}

	var perr participle.Error
	if stderrors.As(err, &perr) {
		return NewDiagnostic(ErrorUnexpectedToken, perr.Message(), perr.Position()).Build(), true
	}
	return Diagnostic{}, false
}

// UnexpectedToken creates an error for a token the grammar could not continue with
func UnexpectedToken(err *parser.SyntaxError) Diagnostic {
	builder := NewDiagnostic(ErrorUnexpectedToken, err.Msg, err.Pos).
		WithLength(err.Length())

	switch err.Token.Type {
	case token.EOF:
		builder = builder.WithHelp("the input ended inside a value; check for an unclosed '(' or list(")
	case token.LeadWhitespace:
		builder = builder.WithNote("indented lines are properties of the object header above them")
	}
	if slices.Contains(err.Expected, "end of line") {
		builder = builder.WithNote("object headers and properties each end at the end of their line")
	}

	return builder.Build()
}

// DuplicateProperty creates an error for a property assigned twice in one block
func DuplicateProperty(err *parser.SyntaxError) Diagnostic {
	return NewDiagnostic(ErrorDuplicateProperty, err.Msg, err.Pos).
		WithLength(err.Length()).
		WithSuggestion(fmt.Sprintf("remove one of the '%s' assignments", err.Token.Value)).
		WithNote("an object block assigns each property at most once").
		Build()
}

// UnsupportedDirective creates an error for '#' lines other than #define and #undef
func UnsupportedDirective(tok lexer.Token) Diagnostic {
	name := strings.TrimSpace(tok.Value)
	builder := NewDiagnostic(ErrorUnsupportedDirective, fmt.Sprintf("unsupported directive '#%s'", name), tok.Pos).
		WithLength(max(1, len(name)))

	similar := findSimilarNames(name, []string{"define", "undef"})
	if len(similar) > 0 {
		builder = builder.WithReplacement(fmt.Sprintf("did you mean '#%s'?", similar[0]), "#"+similar[0])
	}

	return builder.WithHelp("only #define NAME value and #undef NAME are understood").Build()
}

// InvalidMacro creates an error for a macro that cannot be defined
func InvalidMacro(err *parser.SyntaxError) Diagnostic {
	return NewDiagnostic(ErrorInvalidMacro, err.Msg, err.Pos).
		WithLength(err.Length()).
		WithHelp("macro names are single identifiers such as REM or NORTH").
		Build()
}

// PartialDocument creates a warning reporting how many objects were recovered
// before a failure.
func PartialDocument(records int, pos lexer.Position) Diagnostic {
	return NewWarning(WarningPartialDocument, fmt.Sprintf("recovered %d object(s) before the failure", records), pos).
		Build()
}

// findSimilarNames finds names similar to the target using simple string distance
func findSimilarNames(target string, candidates []string) []string {
	var similar []string

	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(target) > 2 {
			similar = append(similar, candidate)
		}
	}

	return similar
}

// levenshteinDistance calculates the Levenshtein distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
