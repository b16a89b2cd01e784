package lsp

import (
	"strings"

	"github.com/leapstack-labs/leapexpr/pkg/complete"
)

func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	items := s.getCompletions(params)
	// Ranking depends on the whole typed word, so clients must ask again
	// as it grows.
	s.sendResponse(msg.ID, &CompletionList{IsIncomplete: true, Items: items}, nil)
	return nil
}

// getCompletions proposes candidates for the word under the cursor.
func (s *Server) getCompletions(params CompletionParams) []CompletionItem {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return []CompletionItem{}
	}
	qc, err := s.queryContext()
	if err != nil {
		s.logger.Warn("Completing without metadata", "error", err)
		qc.Mode = s.mode
	}

	offset := doc.PositionToOffset(params.Position)
	res := s.engine.SuggestWith(doc.Content, offset, qc, complete.CategoryAll)
	if res == nil {
		return []CompletionItem{}
	}

	replace := doc.SpanToRange(spanOf(res.From, res.To))
	typed := ""
	if res.From < offset {
		typed = doc.Content[res.From:min(offset, res.To)]
	}
	items := make([]CompletionItem, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		items = append(items, s.completionItem(c, replace, typed))
	}
	return items
}

// completionItem converts a candidate. FilterText is the typed word so
// clients keep fuzzy matches the server already ranked.
func (s *Server) completionItem(c complete.Candidate, replace Range, typed string) CompletionItem {
	item := CompletionItem{
		Label:            c.Label,
		Kind:             completionKind(c),
		Detail:           c.Detail,
		SortText:         c.SortKey,
		FilterText:       typed,
		InsertTextFormat: InsertTextFormatPlainText,
		TextEdit:         &TextEdit{Range: replace, NewText: c.InsertText},
	}
	if typed == "" {
		item.FilterText = c.Label
	}

	if c.Source == complete.SourceClause {
		if def, ok := s.engine.Registry().LookupDisplay(c.Label); ok && def.Description != "" {
			item.Documentation = &MarkupContent{Kind: MarkupKindMarkdown, Value: def.Description}
		}
	}

	if s.snippets && c.CursorOffset >= 0 && c.CursorOffset < len(c.InsertText) {
		item.InsertTextFormat = InsertTextFormatSnippet
		item.TextEdit.NewText = escapeSnippet(c.InsertText[:c.CursorOffset]) + "$0" + escapeSnippet(c.InsertText[c.CursorOffset:])
	}
	return item
}

func completionKind(c complete.Candidate) CompletionItemKind {
	switch c.Source {
	case complete.SourceColumn:
		return CompletionItemKindField
	case complete.SourceOperator:
		if strings.ContainsAny(c.Label, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") {
			return CompletionItemKindKeyword
		}
		return CompletionItemKindOperator
	case complete.SourceParameter:
		return CompletionItemKindEnumMember
	default:
		return CompletionItemKindFunction
	}
}

var snippetEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`)

func escapeSnippet(s string) string {
	return snippetEscaper.Replace(s)
}
