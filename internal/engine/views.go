package engine

import (
	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// TokenInfo is the JSON view of a token.
type TokenInfo struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	Value        any    `json:"value,omitempty"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Unterminated bool   `json:"unterminated,omitempty"`
}

// TokenInfos converts tokens to their JSON view.
func TokenInfos(toks []token.Token) []TokenInfo {
	out := make([]TokenInfo, len(toks))
	for i, t := range toks {
		out[i] = TokenInfo{
			Type:         t.Type.String(),
			Text:         t.Text,
			Value:        t.Value,
			Start:        t.Start,
			End:          t.End,
			Unterminated: t.Unterminated,
		}
	}
	return out
}

// ClauseInfo is the JSON view of a clause definition.
type ClauseInfo struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Category    string   `json:"category"`
	ResultType  string   `json:"result_type"`
	Signature   string   `json:"signature"`
	Feature     string   `json:"feature,omitempty"`
	Options     []string `json:"options,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ClauseInfos converts clause definitions to their JSON view.
func ClauseInfos(defs []*clause.Definition) []ClauseInfo {
	out := make([]ClauseInfo, len(defs))
	for i, d := range defs {
		out[i] = ClauseInfo{
			Name:        d.Name,
			DisplayName: d.DisplayName,
			Category:    d.Category.String(),
			ResultType:  d.ResultType.String(),
			Signature:   d.Signature(),
			Feature:     d.RequiredFeature,
			Options:     d.OptionNames,
			Description: d.Description,
		}
	}
	return out
}
