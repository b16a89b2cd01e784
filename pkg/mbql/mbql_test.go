package mbql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/parser"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`CountIf([Total] > 0)`, `["count-where",[">",["field","Total"],0]]`},
		{`Percentile([Subtotal], 0.1)`, `["percentile",["field","Subtotal"],0.1]`},
		{`-[A] + 1`, `["+",["-",["field","A"]],1]`},
		{`week([Created], "iso")`, `["get-week",["field","Created"],{"options":"iso"}]`},
		{`NOT True`, `["not",true]`},
		{`Count()`, `["count"]`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tree, diags := parser.ParseString(tt.in)
			require.Empty(t, diags)
			got, err := Marshal(tree)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		`case([Total] > 10 AND NOT [Active], "big", "small")`,
		`contains([Name], "a", "case-insensitive")`,
		`Sum([Total]) / Count() * -2`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			tree, diags := parser.ParseString(in)
			require.Empty(t, diags)

			data, err := Marshal(tree)
			require.NoError(t, err)
			back, err := Unmarshal(data, nil)
			require.NoError(t, err)
			assert.True(t, tree.Equal(back), "%s != %s", tree, back)
		})
	}
}

func TestDecompileDisplayNames(t *testing.T) {
	n, err := Decompile([]any{"count-where", []any{">", []any{"field", "Total"}, 0}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "CountIf", n.Name)
	assert.Equal(t, 0.0, n.Children[0].Children[1].Value, "integers decode as numbers")
}

func TestCompileErrors(t *testing.T) {
	tree, _ := parser.ParseString(`Frob([A])`)
	_, err := Compile(tree)
	assert.ErrorIs(t, err, ErrUnknownClause)

	_, err = Compile(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecompileErrors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want error
	}{
		{"empty", []any{}, ErrMalformed},
		{"numeric head", []any{1.0, 2.0}, ErrMalformed},
		{"unknown", []any{"frobnicate"}, ErrUnknownClause},
		{"field arity", []any{"field"}, ErrMalformed},
		{"field name", []any{"field", 3.0}, ErrMalformed},
		{"null", nil, ErrMalformed},
		{"nested", []any{"sum", []any{"nope"}}, ErrUnknownClause},
		{"bad options", []any{"get-week", []any{"field", "A"}, map[string]any{"mode": "iso"}}, ErrMalformed},
		{"object", map[string]any{}, ErrMalformed},
		{"binary with one operand", []any{"+", 1.0}, ErrMalformed},
		{"and with one operand", []any{"and", []any{"field", "A"}}, ErrMalformed},
		{"not with two operands", []any{"not", true, false}, ErrMalformed},
		{"options on optionless clause", []any{"sum", []any{"field", "A"}, map[string]any{"options": 1.0}}, ErrMalformed},
		{"unnamed variadic option", []any{"contains", []any{"field", "A"}, "b", map[string]any{"options": "nope"}}, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompile(tt.in, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Unmarshal([]byte(`[`), nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCompileIdentifier(t *testing.T) {
	v, err := Compile(core.NewIdentifier("Total", token.Span{}))
	require.NoError(t, err)
	assert.Equal(t, []any{"field", "Total"}, v)
}
