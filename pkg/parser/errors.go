package parser

import (
	"fmt"

	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// addError records an error diagnostic with a localized message.
func (p *Parser) addError(kind core.DiagnosticKind, span token.Span, key core.MessageKey, args ...any) *core.Diagnostic {
	p.diags = append(p.diags, core.Diagnostic{
		Kind:     kind,
		Severity: core.SeverityError,
		Message:  p.localizer.Sprintf(key, args...),
		Range:    span,
	})
	return &p.diags[len(p.diags)-1]
}

// describe names a token for messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.STRING:
		return fmt.Sprintf("%q", tok.StringValue())
	default:
		return tok.Text
	}
}
