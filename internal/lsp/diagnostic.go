package lsp

import (
	"github.com/leapstack-labs/leapexpr/internal/engine"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

const diagnosticSource = "leapexpr"

// analysis is a compiled document.
type analysis struct {
	doc    *Document
	qc     core.QueryContext
	result *engine.Result
	// resolved is false when metadata could not be loaded and only
	// syntax was checked.
	resolved bool
}

// analyze compiles the formula of a document.
func (s *Server) analyze(doc *Document) *analysis {
	qc, err := s.queryContext()
	if err != nil {
		s.logger.Warn("Metadata unavailable, checking syntax only", "error", err)
		tree, diags := s.engine.Parse(doc.Content)
		return &analysis{
			doc:    doc,
			qc:     core.QueryContext{Mode: s.mode},
			result: &engine.Result{Source: doc.Content, Mode: s.mode, Tree: tree, Diagnostics: diags},
		}
	}
	return &analysis{doc: doc, qc: qc, result: s.engine.CompileWith(doc.Content, qc), resolved: true}
}

// publishDiagnostics checks the document and publishes its problems.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	a := s.analyze(doc)
	diagnostics := make([]Diagnostic, 0, len(a.result.Diagnostics))
	for _, d := range a.result.Diagnostics {
		diagnostics = append(diagnostics, toLSPDiagnostic(doc, d))
	}

	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     doc.Version,
		Diagnostics: diagnostics,
	})
}

// toLSPDiagnostic converts a formula diagnostic. Empty ranges are widened
// to one character so clients can show them.
func toLSPDiagnostic(doc *Document, d core.Diagnostic) Diagnostic {
	span := d.Range
	if span.End <= span.Start {
		span.End = min(span.Start+1, len(doc.Content))
	}
	return Diagnostic{
		Range:    doc.SpanToRange(span),
		Severity: toLSPSeverity(d.Severity),
		Code:     d.Kind.String(),
		Source:   diagnosticSource,
		Message:  d.Message,
	}
}

func toLSPSeverity(s core.Severity) DiagnosticSeverity {
	switch s {
	case core.SeverityError:
		return DiagnosticSeverityError
	case core.SeverityWarning:
		return DiagnosticSeverityWarning
	case core.SeverityInfo:
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityHint
	}
}
