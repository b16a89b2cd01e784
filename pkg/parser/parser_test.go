package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

func kinds(diags []core.Diagnostic) []core.DiagnosticKind {
	out := make([]core.DiagnosticKind, len(diags))
	for i, d := range diags {
		out[i] = d.Kind
	}
	return out
}

func TestParseValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"literal", `42`, `42`},
		{"string", `"abc"`, `"abc"`},
		{"boolean", `True`, `true`},
		{"field", `[Total]`, `[Total]`},
		{"identifier", `Total`, `Total`},
		{"multiply binds tighter", `1 + 2 * 3`, `(+ 1 (* 2 3))`},
		{"left associative minus", `1 - 2 - 3`, `(- (- 1 2) 3)`},
		{"left associative divide", `8 / 4 / 2`, `(/ (/ 8 4) 2)`},
		{"grouping", `(1 + 2) * 3`, `(* (+ 1 2) 3)`},
		{"negative literal folds", `-1`, `-1`},
		{"unary minus on field", `-[A] * 2`, `(* (- [A]) 2)`},
		{"subtract negative", `1 - -1`, `(- 1 -1)`},
		{"comparison under and", `[A] > 1 AND [B] < 2`, `(and (> [A] 1) (< [B] 2))`},
		{"and binds tighter than or", `[A] OR [B] AND [C]`, `(or [A] (and [B] [C]))`},
		{"not binds its operand only", `NOT [A] = True`, `(= (not [A]) true)`},
		{"not binds tighter than and", `NOT [A] AND [B]`, `(and (not [A]) [B])`},
		{"not binds tighter than multiply", `NOT [A] * 2`, `(* (not [A]) 2)`},
		{"not over grouped comparison", `NOT ([A] = 1)`, `(not (= [A] 1))`},
		{"not as comparison operand", `[A] = NOT [B]`, `(= [A] (not [B]))`},
		{"not over negation", `NOT -[A]`, `(not (- [A]))`},
		{"call", `CountIf([Total] > 0)`, `(count-where (> [Total] 0))`},
		{"call case insensitive", `countif([Total] > 0)`, `(count-where (> [Total] 0))`},
		{"zero arg call", `Count()`, `(count)`},
		{"nested calls", `Sum(abs([A])) / Count()`, `(/ (sum (abs [A])) (count))`},
		{"percentile", `Percentile([Subtotal], 0.1)`, `(percentile [Subtotal] 0.1)`},
		{"variadic", `concat("a", [B], "c")`, `(concat "a" [B] "c")`},
		{"case", `case([A] > 1, "big", "small")`, `(case (> [A] 1) "big" "small")`},
		{"comment ignored", `1 /* one */ + 2`, `(+ 1 2)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, diags := ParseString(tt.in)
			require.Empty(t, diags)
			require.NotNil(t, tree)
			assert.Equal(t, tt.want, tree.String())
		})
	}
}

func TestParseRanges(t *testing.T) {
	tree, diags := ParseString(`Sum([A]) + 1`)
	require.Empty(t, diags)
	assert.Equal(t, 0, tree.Range.Start)
	assert.Equal(t, 12, tree.Range.End)
	assert.Equal(t, 4, tree.Children[0].Children[0].Range.Start)
	assert.Equal(t, "Sum", tree.Children[0].Name)
	assert.Equal(t, "+", tree.Name)
}

func TestParseOptions(t *testing.T) {
	t.Run("named option on variadic clause", func(t *testing.T) {
		tree, diags := ParseString(`contains([Name], "a", "b", "case-insensitive")`)
		require.Empty(t, diags)
		assert.Len(t, tree.Children, 3)
		require.NotNil(t, tree.Options)
		assert.Equal(t, "case-insensitive", tree.Options.Value)
	})

	t.Run("plain string is not an option", func(t *testing.T) {
		tree, diags := ParseString(`contains([Name], "case")`)
		require.Empty(t, diags)
		assert.Len(t, tree.Children, 2)
		assert.Nil(t, tree.Options)
	})

	t.Run("mode option", func(t *testing.T) {
		tree, diags := ParseString(`week([Created], "iso")`)
		require.Empty(t, diags)
		assert.Equal(t, "(get-week [Created] :options \"iso\")", tree.String())
	})

	t.Run("free form option", func(t *testing.T) {
		tree, diags := ParseString(`convertTimezone([Created], "UTC", "Europe/Berlin")`)
		require.Empty(t, diags)
		assert.Len(t, tree.Children, 2)
		assert.Equal(t, "Europe/Berlin", tree.Options.Value)
	})

	t.Run("unknown option name", func(t *testing.T) {
		tree, diags := ParseString(`week([Created], "fortnight")`)
		require.Len(t, diags, 1)
		assert.Equal(t, core.SyntaxError, diags[0].Kind)
		assert.Equal(t, `Invalid option "fortnight" for week`, diags[0].Message)
		assert.Equal(t, "get-week", diags[0].Clause)
		assert.Len(t, tree.Children, 1)
	})
}

func TestParseArity(t *testing.T) {
	tests := []struct {
		in      string
		message string
	}{
		{`Percentile([A])`, "Function Percentile expects 2 arguments"},
		{`Sum()`, "Function Sum expects 1 argument"},
		{`Count([A])`, "Function Count expects 0 arguments"},
		{`concat("a")`, "Function concat expects at least 2 arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tree, diags := ParseString(tt.in)
			require.Len(t, diags, 1)
			assert.Equal(t, core.SyntaxError, diags[0].Kind)
			assert.Equal(t, tt.message, diags[0].Message)
			assert.NotNil(t, tree, "arity errors keep the partial tree")
		})
	}
}

func TestParseUnknownFunction(t *testing.T) {
	tree, diags := ParseString(`Frobnicate([A]) + 1`)
	require.Len(t, diags, 1)
	assert.Equal(t, "Unknown function Frobnicate", diags[0].Message)
	assert.Equal(t, 0, diags[0].Range.Start)
	assert.Equal(t, 10, diags[0].Range.End)
	require.NotNil(t, tree)
	assert.Equal(t, "(+ (Frobnicate? [A]) 1)", tree.String())
}

func TestParseRecovery(t *testing.T) {
	t.Run("bad argument keeps the rest", func(t *testing.T) {
		tree, diags := ParseString(`concat("a", *, "c")`)
		require.Len(t, diags, 1)
		assert.Equal(t, "Expected expression but found *", diags[0].Message)
		assert.Equal(t, `(concat "a" "c")`, tree.String())
	})

	t.Run("trailing comma", func(t *testing.T) {
		tree, diags := ParseString(`Sum([A],)`)
		require.Len(t, diags, 1)
		assert.Equal(t, "Expected expression but found )", diags[0].Message)
		assert.Equal(t, `(sum [A])`, tree.String())
	})

	t.Run("junk after argument", func(t *testing.T) {
		tree, diags := ParseString(`Sum([A] [B])`)
		require.Len(t, diags, 1)
		assert.Equal(t, "Expected operator but found [B]", diags[0].Message)
		assert.Equal(t, `(sum [A])`, tree.String())
	})

	t.Run("trailing tokens", func(t *testing.T) {
		tree, diags := ParseString(`1 2`)
		require.Len(t, diags, 1)
		assert.Equal(t, core.SyntaxError, diags[0].Kind)
		assert.Equal(t, `1`, tree.String())
	})

	t.Run("missing right operand", func(t *testing.T) {
		tree, diags := ParseString(`1 +`)
		require.Len(t, diags, 1)
		assert.Equal(t, "Expected expression but found end of input", diags[0].Message)
		assert.Equal(t, `1`, tree.String())
	})

	t.Run("several errors collected", func(t *testing.T) {
		_, diags := ParseString(`concat(*, Frob(1), /)`)
		assert.Equal(t, []core.DiagnosticKind{core.SyntaxError, core.SyntaxError, core.SyntaxError}, kinds(diags))
	})
}

func TestParseLexicalErrors(t *testing.T) {
	tree, diags := ParseString(`1 + 2 #`)
	require.Len(t, diags, 1)
	assert.Equal(t, core.LexicalError, diags[0].Kind)
	assert.Equal(t, `Unexpected character "#"`, diags[0].Message)
	assert.Equal(t, `(+ 1 2)`, tree.String())

	tree, diags = ParseString(`lower("abc`)
	assert.Nil(t, tree, "the unclosed string swallows the closing paren")
	assert.Equal(t, []core.DiagnosticKind{core.LexicalError, core.SyntaxError}, kinds(diags))

	tree, diags = ParseString(`[Tot`)
	require.Len(t, diags, 1)
	assert.Equal(t, "Missing a closing bracket", diags[0].Message)
	assert.Equal(t, `[Tot]`, tree.String())
}

func TestParseUnbalancedReturnsNil(t *testing.T) {
	tests := []string{
		`CountIf(`,
		`Sum([A]`,
		`(1 + 2`,
		`1 + 2)`,
		`)(`,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			var tree *core.Node
			var diags []core.Diagnostic
			assert.NotPanics(t, func() {
				tree, diags = ParseString(in)
			})
			assert.Nil(t, tree)
			assert.NotEmpty(t, diags)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	tree, diags := ParseString("  /* nothing */ ")
	assert.Nil(t, tree)
	require.Len(t, diags, 1)
	assert.Equal(t, "Expression is empty", diags[0].Message)
}

func TestParseWithCustomRegistry(t *testing.T) {
	reg := clause.MustRegistry(
		clause.Define("twice").Display("Twice").Returns(core.TypeNumber).Args(core.TypeNumber).Build(),
	)
	tree, diags := ParseString(`twice(2) + 1`, WithRegistry(reg))
	require.Empty(t, diags)
	assert.Equal(t, "(+ (twice 2) 1)", tree.String())
	assert.Equal(t, "+", tree.Name, "operators not in the registry keep their symbol")

	_, diags = ParseString(`Sum([A])`, WithRegistry(reg))
	require.Len(t, diags, 1)
	assert.Equal(t, "Unknown function Sum", diags[0].Message)
}

type upperLocalizer struct{}

func (upperLocalizer) Sprintf(key core.MessageKey, _ ...any) string {
	return "LOCALIZED:" + string(key)
}

func TestParseWithLocalizer(t *testing.T) {
	_, diags := ParseString(`Frob()`, WithLocalizer(upperLocalizer{}))
	require.Len(t, diags, 1)
	assert.Equal(t, "LOCALIZED:Unknown function %s", diags[0].Message)
}

func TestNodePrecedence(t *testing.T) {
	tree, _ := ParseString(`-[A] + NOT [B]`)
	// NOT [B] is not a valid additive operand but still parses
	assert.Equal(t, PrecedenceAddition, NodePrecedence(tree))
	assert.Equal(t, PrecedenceUnary, NodePrecedence(tree.Children[0]))
	assert.Equal(t, PrecedenceUnary, NodePrecedence(tree.Children[1]))

	lit, _ := ParseString(`-2`)
	assert.Equal(t, PrecedenceUnary, NodePrecedence(lit))
	call, _ := ParseString(`Count()`)
	assert.Equal(t, PrecedencePrimary, NodePrecedence(call))

	op, ok := InfixOperator("!=")
	assert.True(t, ok)
	assert.Equal(t, "!=", op)
	_, ok = InfixOperator("sum")
	assert.False(t, ok)
}
