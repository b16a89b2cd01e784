package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/internal/metadata"
	"github.com/leapstack-labs/leapexpr/internal/testutil"
	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/complete"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

func newTestEngine(t *testing.T, mode core.ExpressionMode) *Engine {
	t.Helper()
	return New(Config{
		Provider: &metadata.Static{
			Tables: map[string][]core.Column{
				"orders": {
					{Name: "Total", Type: core.TypeNumber},
					{Name: "CREATED_AT", DisplayName: "Created At", Type: core.TypeDateTime},
					{Name: "Name", Type: core.TypeString},
				},
			},
		},
		Table:  "orders",
		Mode:   mode,
		Logger: testutil.NewTestLogger(t),
	})
}

func TestCompile(t *testing.T) {
	e := newTestEngine(t, core.ModeAggregation)

	res, err := e.Compile(context.Background(), Request{Source: `countif([Total]>0)`})
	require.NoError(t, err)
	require.True(t, res.OK(), "diagnostics: %v", res.Diagnostics)
	assert.Equal(t, core.TypeAggregation, res.Type)
	assert.Equal(t, `CountIf([Total] > 0)`, res.Formatted)
	assert.Equal(t, []any{"count-where", []any{">", []any{"field", "Total"}, 0.0}}, res.MBQL)
	assert.NotEmpty(t, res.Tokens)
}

func TestCompileDiagnostics(t *testing.T) {
	e := newTestEngine(t, core.ModeExpression)

	t.Run("unknown column", func(t *testing.T) {
		res, err := e.Compile(context.Background(), Request{Source: `[Nope] + 1`})
		require.NoError(t, err)
		assert.False(t, res.OK())
		require.Len(t, res.Diagnostics, 1)
		assert.Equal(t, "Unknown column: Nope", res.Diagnostics[0].Message)
		assert.Empty(t, res.Formatted)
		assert.Nil(t, res.MBQL)
	})

	t.Run("mode override", func(t *testing.T) {
		res, err := e.Compile(context.Background(), Request{Source: `[Total]`, Mode: "aggregation"})
		require.NoError(t, err)
		require.Len(t, res.Diagnostics, 1)
		assert.Equal(t, core.TypeError, res.Diagnostics[0].Kind)
		assert.Equal(t, core.ModeAggregation, res.Mode)
	})

	t.Run("bad mode", func(t *testing.T) {
		_, err := e.Compile(context.Background(), Request{Source: `1`, Mode: "pivot"})
		require.Error(t, err)
	})

	t.Run("unbalanced input", func(t *testing.T) {
		res, err := e.Compile(context.Background(), Request{Source: `CountIf(`})
		require.NoError(t, err)
		assert.Nil(t, res.Typed)
		assert.NotEmpty(t, res.Diagnostics)
		assert.Equal(t, core.TypeAny, res.Type)
	})

	t.Run("parse and resolve diagnostics are merged in order", func(t *testing.T) {
		res, err := e.Compile(context.Background(), Request{Source: `[Nope] + Frob(1)`})
		require.NoError(t, err)
		require.Len(t, res.Diagnostics, 2)
		assert.Equal(t, core.ResolutionError, res.Diagnostics[0].Kind)
		assert.Equal(t, core.SyntaxError, res.Diagnostics[1].Kind)
	})
}

func TestCompileUnknownTable(t *testing.T) {
	e := newTestEngine(t, core.ModeExpression)
	_, err := e.Compile(context.Background(), Request{Source: `1`, Table: "people"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, metadata.ErrTableNotFound))
}

func TestCompileWithoutProvider(t *testing.T) {
	e := New(Config{Mode: core.ModeAggregation})
	res, err := e.Compile(context.Background(), Request{Source: `Percentile(1, 0.5)`})
	require.NoError(t, err)
	assert.True(t, res.OK(), "every feature is enabled without a provider")
}

type countingProvider struct {
	metadata.Static
	calls int
}

func (p *countingProvider) Columns(ctx context.Context, table string) ([]core.Column, error) {
	p.calls++
	return p.Static.Columns(ctx, table)
}

func TestColumnsAreCached(t *testing.T) {
	p := &countingProvider{Static: metadata.Static{
		Tables: map[string][]core.Column{"t": {{Name: "A", Type: core.TypeNumber}}},
	}}
	e := New(Config{Provider: p, Table: "t"})
	ctx := context.Background()

	for range 3 {
		_, err := e.Compile(ctx, Request{Source: `[A]`})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, p.calls)

	e.Invalidate()
	_, err := e.Compile(ctx, Request{Source: `[A]`})
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestFormat(t *testing.T) {
	e := New(Config{})

	out, diags := e.Format(`sum( [A] )/count()`, false)
	assert.Empty(t, diags)
	assert.Equal(t, `Sum([A]) / Count()`, out)

	out, diags = e.Format(`Sum([A]`, false)
	assert.NotEmpty(t, diags)
	assert.Equal(t, `Sum([A]`, out, "unparseable input is returned as is")
}

func TestSuggest(t *testing.T) {
	e := newTestEngine(t, core.ModeAggregation)

	res, err := e.Suggest(context.Background(), Request{Source: `cou`}, 3, complete.CategoryAggregations)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Candidates)
	assert.Equal(t, "Count", res.Candidates[0].Label)

	res, err = e.Suggest(context.Background(), Request{Source: `[Cre`}, 4, complete.CategoryAll)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "[Created At]", res.Candidates[0].InsertText)
}

func TestDecompile(t *testing.T) {
	e := New(Config{})
	out, err := e.Decompile([]byte(`["count-where", [">", ["field", "Total"], 0]]`))
	require.NoError(t, err)
	assert.Equal(t, `CountIf([Total] > 0)`, out)

	_, err = e.Decompile([]byte(`["frobnicate"]`))
	require.Error(t, err)
}

func TestClauses(t *testing.T) {
	sqlite, err := metadata.EngineFeatures("sqlite")
	require.NoError(t, err)
	e := New(Config{Provider: &metadata.Static{FeatureNames: sqlite.Names()}})

	aggs, err := e.Clauses(context.Background(), clause.CategoryAggregation)
	require.NoError(t, err)
	require.NotEmpty(t, aggs)
	for _, d := range aggs {
		assert.Equal(t, clause.CategoryAggregation, d.Category)
		assert.True(t, sqlite.Has(d.RequiredFeature), d.Name)
	}

	all, err := New(Config{}).Clauses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clause.Default().Len(), len(all))
}
