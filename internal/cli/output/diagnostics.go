package output

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// SeverityStyle returns the style for a diagnostic severity.
func (s *Styles) SeverityStyle(sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityError:
		return s.Error
	case core.SeverityWarning:
		return s.Warning
	case core.SeverityInfo:
		return s.Info
	case core.SeverityHint:
		return s.Hint
	default:
		return s.Muted
	}
}

// Diagnostics writes the diagnostics of source. name labels the formula,
// e.g. a file name, and may be empty.
func (r *Renderer) Diagnostics(name, source string, diags []core.Diagnostic) {
	if r.EffectiveMode() == ModeMarkdown {
		for _, d := range diags {
			r.Println(FormatDiagnostic(name, source, d))
		}
		return
	}

	for _, d := range diags {
		pos := token.PositionAt(source, d.Range.Start)
		label := r.styles.SeverityStyle(d.Severity).Render(d.Severity.String())
		loc := fmt.Sprintf("%d:%d", pos.Line, pos.Column)
		if name != "" {
			loc = name + ":" + loc
		}
		r.Printf("%s %s %s %s\n", label, r.styles.Muted.Render(loc), d.Message, r.styles.Muted.Render("("+d.Kind.String()+")"))

		line, caret := Underline(source, d.Range)
		if line != "" {
			r.Printf("  %s\n  %s\n", r.styles.Code.Render(line), r.styles.SeverityStyle(d.Severity).Render(caret))
		}
	}
}

// FormatDiagnostic formats a diagnostic as a markdown list item.
func FormatDiagnostic(name, source string, d core.Diagnostic) string {
	pos := token.PositionAt(source, d.Range.Start)
	loc := fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	if name != "" {
		loc = name + ":" + loc
	}
	return fmt.Sprintf("- **%s** `%s` %s (%s)", d.Severity, loc, d.Message, d.Kind)
}

// Underline returns the source line containing span and a caret line
// marking the span on it. Spans past the line end are clipped.
func Underline(source string, span token.Span) (line, caret string) {
	start := max(0, min(span.Start, len(source)))
	lineStart := strings.LastIndexByte(source[:start], '\n') + 1
	lineEnd := strings.IndexByte(source[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(source)
	} else {
		lineEnd += start
	}
	line = source[lineStart:lineEnd]
	if line == "" && start == len(source) && start == lineStart {
		return "", ""
	}

	end := max(start, min(span.End, lineEnd))
	pad := utf8.RuneCountInString(source[lineStart:start])
	width := max(1, utf8.RuneCountInString(source[start:end]))
	return line, strings.Repeat(" ", pad) + strings.Repeat("^", width)
}
