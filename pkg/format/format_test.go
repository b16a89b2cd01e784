package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/parser"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

func TestFormat_Canonical(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"spacing", `1+2*3`, `1 + 2 * 3`},
		{"redundant parens dropped", `((1 + 2))`, `1 + 2`},
		{"needed parens kept", `(1 + 2) * 3`, `(1 + 2) * 3`},
		{"right associativity kept", `1 - (2 - 3)`, `1 - (2 - 3)`},
		{"left chain", `1 - 2 - 3`, `1 - 2 - 3`},
		{"display names", `countif([Total] > 0)`, `CountIf([Total] > 0)`},
		{"zero arg call", `count()`, `Count()`},
		{"keywords uppercased", `[A] and not [B] or [C]`, `[A] AND NOT [B] OR [C]`},
		{"not on comparison operand", `not [A] = 1`, `NOT [A] = 1`},
		{"not over comparison", `not ([A] = 1)`, `NOT ([A] = 1)`},
		{"not over and", `not ([A] and [B])`, `NOT ([A] AND [B])`},
		{"not as comparison operand", `[A] = (not [B])`, `[A] = NOT [B]`},
		{"negated not", `-(not [A])`, `-(NOT [A])`},
		{"negative literal", `1 - -1`, `1 - -1`},
		{"negation", `-[A]*2`, `-[A] * 2`},
		{"double negation", `-(-[A])`, `-(-[A])`},
		{"numbers", `1.50 + 1e3`, `1.5 + 1000`},
		{"strings", `concat('it\'s', "a\"b")`, `concat("it's", "a\"b")`},
		{"booleans", `true`, `True`},
		{"identifier", `Total + 1`, `Total + 1`},
		{"field escapes", `[Product \] Name]`, `[Product \] Name]`},
		{"options", `week([Created], "iso")`, `week([Created], "iso")`},
		{"comments dropped", `1 /* x */ + 2`, `1 + 2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, diags := parser.ParseString(tt.input)
			require.Empty(t, diags)
			assert.Equal(t, tt.expected, Format(tree))
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		`Sum([Total]) / Count()`,
		`case([Total] > 10 AND NOT [Active], "big", [Total] < 0, "negative", "small")`,
		`-[A] + (NOT [B])`,
		`NOT NOT [A]`,
		`NOT ([A] > 1) AND [B] < 2`,
		`[A] OR [B] AND ([C] OR [D])`,
		`(([A] = 1) = ([B] = 2))`,
		`Percentile([Subtotal], 0.1) * -2`,
		`contains([Name], "a", "b", "case-insensitive")`,
		`convertTimezone([Created], "UTC", "Europe/Berlin")`,
		`concat("tab\there", 'new\nline', "back\\slash")`,
		`[weird \\ [name\]]`,
		`Frobnicate([A], 1)`,
		`Größe * 2`,
		`1 / (2 / 3) / 4`,
		`between([Total], -1, 1.25)`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			tree, _ := parser.ParseString(in)
			require.NotNil(t, tree)

			out := Format(tree)
			again, diags := parser.ParseString(out)
			require.NotNil(t, again, "reparse of %q", out)
			for _, d := range diags {
				assert.NotEqual(t, core.LexicalError, d.Kind)
			}
			assert.True(t, tree.Equal(again), "%s\n%s\n%s", out, tree, again)
			assert.Equal(t, out, Format(again), "formatting is idempotent")
		})
	}
}

func TestFormat_Multiline(t *testing.T) {
	tree, diags := parser.ParseString(`case([Total] > 10 AND [Total] < 100 AND [Active], "mid", "other")`)
	require.Empty(t, diags)

	out := Format(tree, Multiline())
	assert.Equal(t, `case(
  [Total] > 10
  AND [Total] < 100
  AND [Active],
  "mid",
  "other"
)`, out)

	again, diags := parser.ParseString(out)
	require.Empty(t, diags)
	assert.True(t, tree.Equal(again))

	short, _ := parser.ParseString(`Sum([A])`)
	assert.Equal(t, `Sum([A])`, Format(short, Multiline()))
}

func TestFormat_Constructed(t *testing.T) {
	span := token.Span{}
	n := core.NewCall("+", "", span,
		core.NewIdentifier("Unit Price", span),
		core.NewCall("count", "", span),
		core.NewLiteral(-0.5, span),
	)
	assert.Equal(t, `[Unit Price] + Count() + -0.5`, Format(n))

	unknown := core.NewCall("", "mystery", span, core.NewLiteral(false, span))
	assert.Equal(t, `mystery(False)`, Format(unknown))

	assert.Equal(t, "", Format(nil))
}

func TestLiteralAndField(t *testing.T) {
	assert.Equal(t, `"a\"b"`, Literal(`a"b`))
	assert.Equal(t, `0.1`, Literal(0.1))
	assert.Equal(t, `True`, Literal(true))
	assert.Equal(t, `[a\]b]`, Field("a]b"))
}
