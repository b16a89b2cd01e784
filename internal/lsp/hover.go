package lsp

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/complete"
	"github.com/leapstack-labs/leapexpr/pkg/resolve"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

func spanOf(start, end int) token.Span {
	return token.Span{Start: start, End: end}
}

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	s.sendResponse(msg.ID, s.getHover(params), nil)
	return nil
}

// getHover describes the clause or column under the cursor.
func (s *Server) getHover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	offset := doc.PositionToOffset(params.Position)
	tokens := s.engine.Tokenize(doc.Content, false)
	idx, ok := complete.TokenAt(tokens, offset)
	if !ok {
		return nil
	}
	tok := tokens[idx]

	var value string
	switch tok.Type {
	case token.FIELD:
		value = s.columnHover(tok.StringValue())
	case token.IDENT:
		name := tok.StringValue()
		if value = s.columnHover(name); value == "" {
			if def, ok := s.engine.Registry().LookupCallable(name); ok {
				value = clauseHover(def)
			}
		}
	}
	if value == "" {
		return nil
	}

	r := doc.SpanToRange(tok.Span())
	return &Hover{
		Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: value},
		Range:    &r,
	}
}

func (s *Server) columnHover(name string) string {
	qc, err := s.queryContext()
	if err != nil {
		return ""
	}
	col, ok := resolve.LookupColumn(qc.Columns, name)
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (column)\n\n", col.Label())
	if col.DisplayName != "" && col.DisplayName != col.Name {
		fmt.Fprintf(&b, "Name: `%s`\n\n", col.Name)
	}
	fmt.Fprintf(&b, "Type: %s", col.Type)
	return b.String()
}

func clauseHover(def *clause.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```\n%s\n```\n", def.Signature())
	if def.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", def.Description)
	}
	if def.RequiredFeature != "" {
		fmt.Fprintf(&b, "\nRequires `%s`.\n", def.RequiredFeature)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Server) handleSignatureHelp(msg *JSONRPCMessage) error {
	var params SignatureHelpParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	s.sendResponse(msg.ID, s.getSignatureHelp(params), nil)
	return nil
}

// getSignatureHelp shows the signature of the call around the cursor.
func (s *Server) getSignatureHelp(params SignatureHelpParams) *SignatureHelp {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	offset := doc.PositionToOffset(params.Position)
	tokens := s.engine.Tokenize(doc.Content, false)

	// Tokens starting before the cursor are the ones already typed.
	index := 0
	for index < len(tokens) && tokens[index].Type != token.EOF && tokens[index].Start < offset {
		index++
	}
	call, ok := complete.EnclosingCall(tokens, index)
	if !ok {
		return nil
	}
	def, ok := s.engine.Registry().LookupCallable(call.Name)
	if !ok || !def.TakesArguments() {
		return nil
	}

	info := signatureInformation(def)
	active := call.ArgIndex
	if n := len(info.Parameters); active >= n {
		active = n - 1
	}
	return &SignatureHelp{
		Signatures:      []SignatureInformation{info},
		ActiveParameter: uint32(max(active, 0)), //nolint:gosec // G115: active is non-negative
	}
}

// signatureInformation renders a clause call shape with the offsets of
// each parameter in the label.
func signatureInformation(def *clause.Definition) SignatureInformation {
	var b strings.Builder
	var params []ParameterInformation
	utf16Len := func(s string) uint32 {
		return uint32(len(utf16.Encode([]rune(s)))) //nolint:gosec // G115: label lengths are small
	}

	b.WriteString(def.DisplayName)
	b.WriteByte('(')
	add := func(label string) {
		if len(params) > 0 {
			b.WriteString(", ")
		}
		start := utf16Len(b.String())
		b.WriteString(label)
		params = append(params, ParameterInformation{Label: [2]uint32{start, utf16Len(b.String())}})
	}
	for _, t := range def.Args {
		add(t.String())
	}
	if def.Variadic {
		add("...")
	}
	if def.HasOptions {
		if len(def.OptionNames) > 0 {
			add(`"` + strings.Join(def.OptionNames, `"|"`) + `"`)
		} else {
			add("options")
		}
	}
	b.WriteString(") -> ")
	b.WriteString(def.ResultType.String())

	return SignatureInformation{
		Label:         b.String(),
		Documentation: def.Description,
		Parameters:    params,
	}
}
