package core

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// DiagnosticKind classifies a diagnostic.
type DiagnosticKind int

// Diagnostic kinds.
const (
	// LexicalError is an unknown character or an unterminated literal.
	LexicalError DiagnosticKind = iota
	// SyntaxError is a token that does not fit the grammar, an unknown
	// function or a wrong argument count.
	SyntaxError
	// TypeError is an argument or root whose type does not fit its slot.
	TypeError
	// UnsupportedFeatureError is a clause whose required feature is missing
	// from the database capabilities.
	UnsupportedFeatureError
	// ValidationError is a literal argument rejected by a clause validator.
	ValidationError
	// ResolutionError is a name that matches no column or clause.
	ResolutionError
)

var diagnosticKindNames = map[DiagnosticKind]string{
	LexicalError:            "LexicalError",
	SyntaxError:             "SyntaxError",
	TypeError:               "TypeError",
	UnsupportedFeatureError: "UnsupportedFeatureError",
	ValidationError:         "ValidationError",
	ResolutionError:         "ResolutionError",
}

// String returns the name of the kind.
func (k DiagnosticKind) String() string {
	if name, ok := diagnosticKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DiagnosticKind) UnmarshalText(b []byte) error {
	for kind, name := range diagnosticKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic kind %q", b)
}

// Diagnostic is a problem found while compiling a formula. Diagnostics are
// collected, never thrown.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Range    token.Span     `json:"range"`
	// Clause is the canonical name of the clause involved, if any.
	Clause string `json:"clause,omitempty"`
	// Value is the offending literal of a ValidationError.
	Value any `json:"value,omitempty"`
	// Feature is the missing capability of an UnsupportedFeatureError.
	Feature string `json:"feature,omitempty"`
}

// Error implements error.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", d.Kind, d.Range.Start, d.Range.End, d.Message)
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// SortDiagnostics orders diagnostics by source position, keeping the
// discovery order for equal positions.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Range.Start < diags[j].Range.Start
	})
}
