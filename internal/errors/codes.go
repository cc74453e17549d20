package errors

import "strings"

// Error codes for the dmchem parser
// These codes are used in diagnostics so a failure can be identified
// independently of its message text.
//
// Error code ranges:
// E0100-E0199: Grammar errors
// E0200-E0299: Preprocessor errors
// W0800-W0899: Warning codes

const (
	// E0100: Token the grammar could not continue with
	ErrorUnexpectedToken = "E0100"

	// E0101: Property assigned twice in one object block
	ErrorDuplicateProperty = "E0101"

	// E0200: Directive other than #define or #undef
	ErrorUnsupportedDirective = "E0200"

	// E0201: Macro name or value that cannot be defined
	ErrorInvalidMacro = "E0201"

	// W0800: Source could not be read completely
	WarningPartialDocument = "W0800"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUnexpectedToken:
		return "Source text does not match the object grammar"
	case ErrorDuplicateProperty:
		return "Property is assigned more than once in one object block"
	case ErrorUnsupportedDirective:
		return "Only #define and #undef directives are understood"
	case ErrorInvalidMacro:
		return "Macro name or value is invalid"
	case WarningPartialDocument:
		return "Only part of the document was recovered"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return strings.HasPrefix(code, "W")
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0100" && code < "E0200":
		return "Grammar"
	case code >= "E0200" && code < "E0300":
		return "Preprocessor"
	case strings.HasPrefix(code, "W"):
		return "Warning"
	default:
		return "Unknown"
	}
}
