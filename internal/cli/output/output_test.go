package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewRendererWithTTY(out, &bytes.Buffer{}, isTTY, mode), out
}

func TestMode(t *testing.T) {
	assert.Equal(t, ModeText, Mode("TEXT"))
	assert.Equal(t, ModeMarkdown, Mode("md"))
	assert.Equal(t, ModeJSON, Mode("json"))
	assert.Equal(t, ModeAuto, Mode(""))
	assert.Equal(t, ModeAuto, Mode("xml"))
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
		{"", false, ModeMarkdown},
	}
	for _, tt := range tests {
		r, _ := newTestRenderer(tt.mode, tt.isTTY)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode %q tty %v", tt.mode, tt.isTTY)
	}
}

func TestNewRendererDetectsNonTerminal(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestTable(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		r, out := newTestRenderer(ModeMarkdown, false)
		r.Table([]string{"Name", "Type"}, [][]string{{"Count", "aggregation"}, {"a|b", "number"}})
		assert.Equal(t, "| Name | Type |\n| --- | --- |\n| Count | aggregation |\n| a\\|b | number |\n", out.String())
	})

	t.Run("text", func(t *testing.T) {
		r, out := newTestRenderer(ModeText, false)
		r.Table([]string{"Name"}, [][]string{{"Count"}})
		assert.Contains(t, out.String(), "NAME")
		assert.Contains(t, out.String(), "Count")
		assert.Contains(t, out.String(), "┌")
	})
}

func TestJSON(t *testing.T) {
	r, out := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, out.String())
}

func TestHeader(t *testing.T) {
	r, out := newTestRenderer(ModeMarkdown, false)
	r.Header(2, "Clauses")
	assert.Equal(t, "## Clauses\n\n", out.String())

	r, out = newTestRenderer(ModeText, false)
	r.Header(2, "Clauses")
	assert.Equal(t, "Clauses\n", out.String(), "no styling without a terminal")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.Equal(t, "- **Type**: number", FormatKeyValue("Type", "number"))
}

func TestUnderline(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		span      token.Span
		wantLine  string
		wantCaret string
	}{
		{"single line", `Sum([A]) + Frob(1)`, token.Span{Start: 11, End: 15}, `Sum([A]) + Frob(1)`, "           ^^^^"},
		{"second line", "1 +\n[Nope]", token.Span{Start: 4, End: 10}, "[Nope]", "^^^^^^"},
		{"end of input", `1 +`, token.Span{Start: 3, End: 3}, `1 +`, "   ^"},
		{"span past line end", "ab\ncd", token.Span{Start: 1, End: 5}, "ab", " ^"},
		{"multibyte prefix", `"é" + x`, token.Span{Start: 7, End: 8}, `"é" + x`, "      ^"},
		{"empty source", ``, token.Span{}, ``, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, caret := Underline(tt.source, tt.span)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantCaret, caret)
		})
	}
}

func TestDiagnostics(t *testing.T) {
	diags := []core.Diagnostic{{
		Kind:     core.ResolutionError,
		Severity: core.SeverityError,
		Message:  "Unknown column: Nope",
		Range:    token.Span{Start: 4, End: 10},
	}}

	t.Run("markdown", func(t *testing.T) {
		r, out := newTestRenderer(ModeMarkdown, false)
		r.Diagnostics("f.expr", "1 + [Nope]", diags)
		assert.Equal(t, "- **error** `f.expr:1:5` Unknown column: Nope (ResolutionError)\n", out.String())
	})

	t.Run("text", func(t *testing.T) {
		r, out := newTestRenderer(ModeText, false)
		r.Diagnostics("", "1 + [Nope]", diags)
		assert.Equal(t, "error 1:5 Unknown column: Nope (ResolutionError)\n  1 + [Nope]\n      ^^^^^^\n", out.String())
	})
}
