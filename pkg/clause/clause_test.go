package clause

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

func lit(v any) *core.Node { return core.NewLiteral(v, token.Span{}) }

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryAggregation, "aggregation"},
		{CategoryFunction, "function"},
		{CategoryOperator, "operator"},
		{Category(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.String())
		})
	}
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"aggregation":  CategoryAggregation,
		"Aggregations": CategoryAggregation,
		"function":     CategoryFunction,
		" operators ":  CategoryOperator,
	} {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCategory("window")
	assert.ErrorContains(t, err, "unknown clause category")
}

func TestBuilderDefaults(t *testing.T) {
	d := Define("thing").Build()
	assert.Equal(t, "thing", d.DisplayName)
	assert.Equal(t, CategoryFunction, d.Category)
	assert.Equal(t, core.TypeExpression, d.ResultType)
	assert.NotNil(t, d.Args)
	assert.False(t, d.TakesArguments())
}

func TestLookup(t *testing.T) {
	reg := Default()

	d, ok := reg.Lookup("count-where")
	require.True(t, ok)
	assert.Equal(t, "CountIf", d.DisplayName)

	tests := []struct {
		display string
		want    string
	}{
		{"CountIf", "count-where"},
		{"countif", "count-where"},
		{"COUNTIF", "count-where"},
		{"splitPart", "split-part"},
		{"interval", "time-interval"},
		{"timeSpan", "interval"},
		{"AND", "and"},
	}
	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			d, ok := reg.LookupDisplay(tt.display)
			require.True(t, ok)
			assert.Equal(t, tt.want, d.Name)
		})
	}

	_, ok = reg.LookupDisplay("nope")
	assert.False(t, ok)

	_, ok = reg.LookupCallable("and")
	assert.False(t, ok, "operators are not callable by name")
	_, ok = reg.LookupCallable("sum")
	assert.True(t, ok)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Define("a").Build(), Define("a").Display("b").Build())
	assert.ErrorContains(t, err, "duplicate clause")

	_, err = NewRegistry(Define("a").Display("Same").Build(), Define("b").Display("same").Build())
	assert.ErrorContains(t, err, "reuses display name")

	_, err = NewRegistry(&Definition{DisplayName: "x"})
	assert.Error(t, err)
}

func TestAllIsSortedAndFiltered(t *testing.T) {
	reg := Default()
	all := reg.All()
	require.Equal(t, reg.Len(), len(all))
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}

	aggs := reg.All(InCategory(CategoryAggregation), Supported(core.NewFeatureSet()))
	names := make([]string, 0, len(aggs))
	for _, d := range aggs {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "count")
	assert.Contains(t, names, "count-where")
	assert.NotContains(t, names, "percentile")
	assert.NotContains(t, names, "stddev")
	assert.NotContains(t, names, "concat")

	withPercentile := reg.All(InCategory(CategoryAggregation), Supported(core.NewFeatureSet(FeaturePercentile)))
	assert.Len(t, withPercentile, len(aggs)+2, "percentile and median")
}

func TestCheckArity(t *testing.T) {
	reg := Default()
	get := func(name string) *Definition {
		d, ok := reg.Lookup(name)
		require.True(t, ok, name)
		return d
	}

	assert.True(t, get("count").CheckArity(0))
	assert.False(t, get("count").CheckArity(1))
	assert.True(t, get("percentile").CheckArity(2))
	assert.False(t, get("percentile").CheckArity(1))
	assert.False(t, get("concat").CheckArity(1))
	assert.True(t, get("concat").CheckArity(5))
	assert.True(t, get("-").CheckArity(1), "unary minus")
	assert.False(t, get("+").CheckArity(1))
}

func TestArgType(t *testing.T) {
	reg := Default()
	get := func(name string) *Definition {
		d, _ := reg.Lookup(name)
		return d
	}

	t.Run("fixed signature", func(t *testing.T) {
		d := get("substring")
		assert.Equal(t, core.TypeString, d.ArgType(0, nil, core.TypeExpression))
		assert.Equal(t, core.TypeNumber, d.ArgType(2, nil, core.TypeExpression))
	})

	t.Run("variadic repeats last", func(t *testing.T) {
		assert.Equal(t, core.TypeString, get("contains").ArgType(4, nil, core.TypeBoolean))
	})

	t.Run("arithmetic propagates aggregation", func(t *testing.T) {
		d := get("+")
		assert.True(t, d.HasArgTypeFunc())
		assert.Equal(t, core.TypeAggregation, d.ArgType(0, nil, core.TypeAggregation))
		assert.Equal(t, core.TypeNumber, d.ArgType(1, nil, core.TypeNumber))
		assert.Equal(t, core.TypeNumber, d.ArgType(1, nil, core.TypeExpression))
	})

	t.Run("case alternates condition and value", func(t *testing.T) {
		d := get("case")
		even := []*core.Node{lit(true), lit(1.0), lit(false), lit(2.0)}
		odd := append(even, lit(3.0))
		assert.Equal(t, core.TypeBoolean, d.ArgType(0, even, core.TypeNumber))
		assert.Equal(t, core.TypeNumber, d.ArgType(1, even, core.TypeNumber))
		assert.Equal(t, core.TypeBoolean, d.ArgType(2, even, core.TypeNumber))
		assert.Equal(t, core.TypeNumber, d.ArgType(3, even, core.TypeNumber))
		assert.Equal(t, core.TypeNumber, d.ArgType(4, odd, core.TypeNumber), "else branch")
	})

	t.Run("coalesce follows context", func(t *testing.T) {
		assert.Equal(t, core.TypeString, get("coalesce").ArgType(3, nil, core.TypeString))
	})

	t.Run("zero-arg clause", func(t *testing.T) {
		assert.Equal(t, core.TypeExpression, get("now").ArgType(0, nil, core.TypeAny))
	})
}

func TestValidators(t *testing.T) {
	reg := Default()
	get := func(name string) *Definition {
		d, _ := reg.Lookup(name)
		return d
	}

	tests := []struct {
		name    string
		clause  string
		args    []any
		wantKey core.MessageKey
	}{
		{"substring start zero", "substring", []any{nil, 0.0, 3.0}, core.MsgPositiveInteger},
		{"substring start negative", "substring", []any{nil, -2.0, 3.0}, core.MsgPositiveInteger},
		{"substring start one", "substring", []any{nil, 1.0, 3.0}, ""},
		{"substring start not literal", "substring", []any{nil, nil, 3.0}, ""},
		{"substring start numeric string", "substring", []any{nil, "0", 3.0}, core.MsgPositiveInteger},
		{"substring start fractional", "substring", []any{nil, 1.5, 2.0}, core.MsgPositiveInteger},
		{"substring start integral float", "substring", []any{nil, 2.0, 2.0}, ""},
		{"split part zero", "split-part", []any{nil, ",", 0.0}, core.MsgPositiveInteger},
		{"split part one", "split-part", []any{nil, ",", 1.0}, ""},
		{"offset zero", "offset", []any{nil, 0.0}, core.MsgRowOffsetZero},
		{"offset minus one", "offset", []any{nil, -1.0}, ""},
		{"offset one", "offset", []any{nil, 1.0}, ""},
		{"offset boolean", "offset", []any{nil, false}, ""},
		{"no validator", "sum", []any{0.0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := get(tt.clause).Validate(tt.args)
			if tt.wantKey == "" {
				assert.Nil(t, v)
				return
			}
			require.NotNil(t, v)
			assert.Equal(t, tt.wantKey, v.Key)
		})
	}
}

func TestOptions(t *testing.T) {
	reg := Default()
	d, _ := reg.LookupDisplay("contains")
	assert.True(t, d.HasOptions)
	assert.True(t, d.IsOption("Case-Insensitive"))
	assert.False(t, d.IsOption("exact"))

	tz, _ := reg.LookupDisplay("convertTimezone")
	assert.True(t, tz.HasOptions)
	assert.Empty(t, tz.OptionNames)
}

func TestSignature(t *testing.T) {
	reg := Default()
	d, _ := reg.Lookup("percentile")
	assert.Equal(t, "Percentile(number, number) -> aggregation", d.Signature())

	d, _ = reg.Lookup("contains")
	assert.Equal(t, "contains(string, string, ..., [case-insensitive]) -> boolean", d.Signature())

	d, _ = reg.Lookup("now")
	assert.Equal(t, "now() -> datetime", d.Signature())
}

func TestEveryFeatureIsListed(t *testing.T) {
	listed := core.NewFeatureSet(Features()...)
	for _, d := range Default().All() {
		if d.RequiredFeature != "" {
			assert.True(t, listed.Has(d.RequiredFeature), "%s requires unlisted %s", d.Name, d.RequiredFeature)
		}
	}
}
