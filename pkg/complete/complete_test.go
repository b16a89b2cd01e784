package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/parser"
)

var testColumns = []core.Column{
	{Name: "Total", Type: core.TypeNumber},
	{Name: "Subtotal", DisplayName: "Sub Total", Type: core.TypeNumber},
	{Name: "CREATED_AT", DisplayName: "Created At", Type: core.TypeDateTime},
	{Name: "Name", Type: core.TypeString},
}

func queryContext(mode core.ExpressionMode, features ...string) core.QueryContext {
	return core.QueryContext{Columns: testColumns, Mode: mode, Features: core.NewFeatureSet(features...)}
}

func labels(r *Result) []string {
	out := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Label
	}
	return out
}

func TestSuggestAggregations(t *testing.T) {
	r := Suggest("cou", 3, queryContext(core.ModeAggregation), CategoryAggregations)
	require.NotNil(t, r)
	assert.Equal(t, 0, r.From)
	assert.Equal(t, 3, r.To)
	assert.Equal(t, []string{"Count", "CountIf", "CumulativeCount"}, labels(r))

	count := r.Candidates[0]
	assert.Equal(t, "Count", count.InsertText, "zero argument clauses insert the bare name")
	assert.Equal(t, SourceClause, count.Source)
	assert.Equal(t, "0000", count.SortKey)

	countIf := r.Candidates[1]
	assert.Equal(t, "CountIf()", countIf.InsertText)
	assert.Equal(t, 8, countIf.CursorOffset)
	assert.Equal(t, "CountIf(boolean) -> aggregation", countIf.Detail)
	assert.Equal(t, "0001", countIf.SortKey)
}

func TestSuggestAggregationsOutsideAggregationMode(t *testing.T) {
	assert.Nil(t, Suggest("cou", 3, queryContext(core.ModeExpression), CategoryAggregations))
	assert.Nil(t, Suggest("cou", 3, queryContext(core.ModeBoolean), CategoryAggregations))

	r := Suggest("cou", 3, queryContext(core.ModeExpression), CategoryAll)
	require.NotNil(t, r)
	assert.NotContains(t, labels(r), "Count")
}

func TestSuggestInsideField(t *testing.T) {
	assert.Nil(t, Suggest("[cou", 4, queryContext(core.ModeAggregation), CategoryAggregations))
	assert.Nil(t, Suggest("[cou", 4, queryContext(core.ModeExpression), CategoryFunctions))

	r := Suggest("[to", 3, queryContext(core.ModeExpression), CategoryAll)
	require.NotNil(t, r)
	assert.Equal(t, []string{"Total", "Sub Total"}, labels(r))
	assert.Equal(t, "[Sub Total]", r.Candidates[1].InsertText)
	assert.Equal(t, SourceColumn, r.Candidates[1].Source)

	closed := Suggest("[Sub T]", 7, queryContext(core.ModeExpression), CategoryColumns)
	require.NotNil(t, closed)
	assert.Equal(t, []string{"Sub Total"}, labels(closed))
	assert.Equal(t, 0, closed.From)
	assert.Equal(t, 7, closed.To)
}

func TestSuggestColumnsFromBareWord(t *testing.T) {
	r := Suggest("1 + crea", 8, queryContext(core.ModeExpression), CategoryColumns)
	require.NotNil(t, r)
	assert.Equal(t, []string{"Created At"}, labels(r))
	assert.Equal(t, "[Created At]", r.Candidates[0].InsertText)
	assert.Equal(t, 4, r.From)
}

func TestSuggestCursorInsideMultiByteRune(t *testing.T) {
	ctx := queryContext(core.ModeExpression)
	ctx.Columns = append(ctx.Columns, core.Column{Name: "Été", Type: core.TypeString})

	// byte 1 falls inside É
	r := Suggest("Ét", 1, ctx, CategoryColumns)
	require.NotNil(t, r)
	assert.Equal(t, 0, r.From)
	assert.Equal(t, 3, r.To)
	assert.Contains(t, labels(r), "Été")
	assert.Equal(t, Suggest("Ét", 0, ctx, CategoryColumns), r)

	r = Suggest("Ét", 2, ctx, CategoryColumns)
	require.NotNil(t, r)
	assert.Equal(t, []string{"Été"}, labels(r))

	r = Suggest("é", 1, ctx, CategoryAll)
	require.NotNil(t, r)
	assert.NotEmpty(t, r.Candidates)
}

func TestSuggestNextTokenIsParen(t *testing.T) {
	r := Suggest("Sum([A])", 2, queryContext(core.ModeAggregation), CategoryAggregations)
	require.NotNil(t, r)
	require.NotEmpty(t, r.Candidates)
	first := r.Candidates[0]
	assert.Equal(t, "Sum", first.Label)
	assert.Equal(t, "Sum", first.InsertText)
	assert.Equal(t, 3, first.CursorOffset)
	assert.Equal(t, 3, r.To)
}

func TestSuggestFunctions(t *testing.T) {
	r := Suggest("no", 2, queryContext(core.ModeExpression), CategoryFunctions)
	require.NotNil(t, r)
	require.NotEmpty(t, r.Candidates)
	assert.Equal(t, "now", r.Candidates[0].Label)
	assert.Equal(t, "now", r.Candidates[0].InsertText)

	r = Suggest("concat([A], len", 15, queryContext(core.ModeExpression), CategoryAll)
	require.NotNil(t, r)
	require.NotEmpty(t, r.Candidates)
	assert.Equal(t, "length", r.Candidates[0].Label)
	assert.Equal(t, "length()", r.Candidates[0].InsertText)
	assert.Equal(t, 7, r.Candidates[0].CursorOffset)
}

func TestSuggestFeatureGating(t *testing.T) {
	r := Suggest("perc", 4, queryContext(core.ModeAggregation), CategoryAggregations)
	require.NotNil(t, r)
	assert.NotContains(t, labels(r), "Percentile")

	r = Suggest("perc", 4, queryContext(core.ModeAggregation, clause.FeaturePercentile), CategoryAggregations)
	require.NotNil(t, r)
	assert.Equal(t, "Percentile", r.Candidates[0].Label)
}

func TestSuggestOperators(t *testing.T) {
	r := Suggest("[A] an", 6, queryContext(core.ModeBoolean), CategoryOperators)
	require.NotNil(t, r)
	assert.Equal(t, []string{"AND"}, labels(r))
	assert.Equal(t, SourceOperator, r.Candidates[0].Source)

	assert.Nil(t, Suggest("[A] >", 5, queryContext(core.ModeBoolean), CategoryOperators))
}

func TestSuggestOptions(t *testing.T) {
	src := `week([Created], "i`
	r := Suggest(src, len(src), queryContext(core.ModeExpression), CategoryAll)
	require.NotNil(t, r)
	assert.Equal(t, []string{"iso", "instance"}, labels(r))
	assert.Equal(t, `"iso"`, r.Candidates[0].InsertText)
	assert.Equal(t, SourceParameter, r.Candidates[0].Source)
	assert.Equal(t, 16, r.From)

	closed := `week([Created], "us")`
	r = Suggest(closed, 19, queryContext(core.ModeExpression), CategoryOptions)
	require.NotNil(t, r)
	assert.Equal(t, []string{"us"}, labels(r))

	assert.Nil(t, Suggest(`week("i`, 7, queryContext(core.ModeExpression), CategoryOptions))
	assert.Nil(t, Suggest(`lower("i`, 8, queryContext(core.ModeExpression), CategoryOptions))
}

func TestSuggestNothingAtCursor(t *testing.T) {
	assert.Nil(t, Suggest("Sum( ", 5, queryContext(core.ModeAggregation), CategoryAll))
	assert.Nil(t, Suggest("", 0, queryContext(core.ModeAggregation), CategoryAll))
	assert.Nil(t, Suggest("1 + 2", 5, queryContext(core.ModeExpression), CategoryAll))
	assert.NotPanics(t, func() {
		Suggest("cou", 99, queryContext(core.ModeAggregation), CategoryAll)
		Suggest("cou", -4, queryContext(core.ModeAggregation), CategoryAll)
	})
}

func TestSuggestIsDeterministic(t *testing.T) {
	ctx := queryContext(core.ModeAggregation, core.AllFeatures)
	assert.Equal(t, Suggest("s", 1, ctx, CategoryAll), Suggest("s", 1, ctx, CategoryAll))
}

func TestTokenAt(t *testing.T) {
	toks := parser.Tokenize("Sum([A])")

	idx, ok := TokenAt(toks, 3)
	require.True(t, ok)
	assert.Equal(t, 0, idx, "the word ending at the cursor wins over the paren after it")

	idx, ok = TokenAt(toks, 1)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = TokenAt(toks, 6)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = TokenAt(parser.Tokenize(""), 0)
	assert.False(t, ok)
}

func TestEnclosingCall(t *testing.T) {
	toks := parser.Tokenize(`Sum(case([A], (1), [B]`)
	call, ok := EnclosingCall(toks, 10)
	require.True(t, ok)
	assert.Equal(t, "case", call.Name)
	assert.Equal(t, 2, call.ArgIndex)
	assert.Equal(t, 4, call.NameSpan.Start)

	call, ok = EnclosingCall(toks, 2)
	require.True(t, ok)
	assert.Equal(t, "Sum", call.Name)
	assert.Equal(t, 0, call.ArgIndex)

	_, ok = EnclosingCall(parser.Tokenize(`(1 + x`), 3)
	assert.False(t, ok)
}

func TestScore(t *testing.T) {
	tests := []struct {
		query, label string
		want         int
		ok           bool
	}{
		{"cou", "Count", 0, true},
		{"COU", "count", 0, true},
		{"ount", "Count", 1, true},
		{"cnt", "Count", 4, true},
		{"", "anything", 0, true},
		{"xyz", "Count", 0, false},
		{"countt", "Count", 0, false},
	}
	for _, tt := range tests {
		got, ok := Score(tt.query, tt.label)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.query, tt.label)
		if tt.ok {
			assert.Equal(t, tt.want, got, "%s/%s", tt.query, tt.label)
		}
	}
}

func TestRankTieBreak(t *testing.T) {
	pool := []Candidate{{Label: "abc"}, {Label: "Abd"}, {Label: "ab"}, {Label: "xab"}}
	q := &query{Engine: New()}
	out := rank("ab", q.alphabetical(pool))
	var got []string
	for _, c := range out {
		got = append(got, c.Label)
	}
	assert.Equal(t, []string{"ab", "abc", "Abd", "xab"}, got)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Functions")
	require.NoError(t, err)
	assert.Equal(t, CategoryFunctions, c)

	c, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryAll, c)

	_, err = ParseCategory("widgets")
	assert.Error(t, err)
}
