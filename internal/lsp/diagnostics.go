package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	dmerrors "dmchem/internal/errors"
)

// ConvertParseError transforms a parse failure into LSP diagnostics for IDE
// display. A nil error yields an empty list, which clears earlier diagnostics.
func ConvertParseError(err error) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	if err == nil {
		return diagnostics
	}

	d, ok := dmerrors.FromError(err)
	if !ok {
		return append(diagnostics, protocol.Diagnostic{
			Range:    lineRange(1, 1, 0),
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("dmchem"),
			Message:  err.Error(),
		})
	}

	message := d.Message
	for _, s := range d.Suggestions {
		message += "\n" + s.Message
	}

	severity := protocol.DiagnosticSeverityError
	if dmerrors.IsWarning(d.Code) {
		severity = protocol.DiagnosticSeverityWarning
	}

	return append(diagnostics, protocol.Diagnostic{
		Range:    lineRange(d.Position.Line, d.Position.Column, d.Length),
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: d.Code},
		Source:   ptrString("dmchem"),
		Message:  message,
	})
}

// lineRange converts a 1-based line and column into a single-line LSP range.
func lineRange(line, column, length int) protocol.Range {
	start := protocol.Position{
		Line:      uint32(max(0, line-1)),
		Character: uint32(max(0, column-1)),
	}
	end := start
	end.Character += uint32(max(0, length))
	return protocol.Range{Start: start, End: end}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
