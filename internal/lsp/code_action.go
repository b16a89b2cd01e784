package lsp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapexpr/pkg/complete"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/format"
)

// maxColumnFixes bounds the replacement columns offered for an unknown
// column.
const maxColumnFixes = 3

func (s *Server) handleFormatting(msg *JSONRPCMessage) error {
	var params DocumentFormattingParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	s.sendResponse(msg.ID, s.getFormatting(params.TextDocument.URI), nil)
	return nil
}

// getFormatting returns the edit replacing the document with its canonical
// form, or no edits when the formula does not parse or is already
// formatted.
func (s *Server) getFormatting(uri string) []TextEdit {
	doc := s.documents.Get(uri)
	if doc == nil {
		return []TextEdit{}
	}
	formatted, ok := s.format(doc)
	if !ok {
		return []TextEdit{}
	}
	return []TextEdit{{Range: doc.FullRange(), NewText: formatted}}
}

// format renders the document canonically. ok is false when there is
// nothing to change.
func (s *Server) format(doc *Document) (string, bool) {
	body := strings.TrimRight(doc.Content, "\r\n")
	formatted, diags := s.engine.Format(body, strings.Contains(body, "\n"))
	if len(diags) > 0 || formatted == body {
		return "", false
	}
	return formatted + doc.Content[len(body):], true
}

func (s *Server) handleCodeAction(msg *JSONRPCMessage) error {
	var params CodeActionParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	s.sendResponse(msg.ID, s.getCodeActions(params), nil)
	return nil
}

// getCodeActions offers closest-column replacements for unknown columns
// and formatting of the whole formula.
func (s *Server) getCodeActions(params CodeActionParams) []CodeAction {
	actions := []CodeAction{}
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return actions
	}
	uri := params.TextDocument.URI

	if wants(params.Context.Only, CodeActionKindQuickFix) {
		for _, diag := range params.Context.Diagnostics {
			if diag.Source != diagnosticSource || diag.Code != core.ResolutionError.String() {
				continue
			}
			actions = append(actions, s.columnFixes(doc, diag)...)
		}
	}

	if wants(params.Context.Only, CodeActionKindSourceFormat) {
		if formatted, ok := s.format(doc); ok {
			actions = append(actions, CodeAction{
				Title: "Format formula",
				Kind:  CodeActionKindSourceFormat,
				Edit: &WorkspaceEdit{Changes: map[string][]TextEdit{
					uri: {{Range: doc.FullRange(), NewText: formatted}},
				}},
			})
		}
	}
	return actions
}

// columnFixes proposes the columns closest to an unknown name.
func (s *Server) columnFixes(doc *Document, diag Diagnostic) []CodeAction {
	qc, err := s.queryContext()
	if err != nil || len(qc.Columns) == 0 {
		return nil
	}
	text := doc.GetTextInRange(diag.Range)
	name := strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	if name == "" {
		return nil
	}

	type match struct {
		label string
		score int
	}
	var matches []match
	for _, c := range qc.Columns {
		label := c.Label()
		if score, ok := complete.Score(name, label); ok {
			matches = append(matches, match{label, score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score < matches[j].score })
	if len(matches) > maxColumnFixes {
		matches = matches[:maxColumnFixes]
	}

	actions := make([]CodeAction, 0, len(matches))
	for _, m := range matches {
		actions = append(actions, CodeAction{
			Title:       fmt.Sprintf("Change to %s", format.Field(m.label)),
			Kind:        CodeActionKindQuickFix,
			Diagnostics: []Diagnostic{diag},
			IsPreferred: len(matches) == 1,
			Edit: &WorkspaceEdit{Changes: map[string][]TextEdit{
				doc.URI: {{Range: diag.Range, NewText: format.Field(m.label)}},
			}},
		})
	}
	return actions
}

// wants reports whether kind passes the client's filter. An empty filter
// accepts every kind.
func wants(only []CodeActionKind, kind CodeActionKind) bool {
	if len(only) == 0 {
		return true
	}
	for _, k := range only {
		if k == kind || strings.HasPrefix(string(kind), string(k)+".") {
			return true
		}
	}
	return false
}
