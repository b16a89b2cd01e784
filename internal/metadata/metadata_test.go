package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

func TestQueryContext(t *testing.T) {
	p := &Static{
		Tables: map[string][]core.Column{
			"orders": {{Name: "Total", Type: core.TypeNumber}},
		},
		FeatureNames: []string{clause.FeaturePercentile},
	}

	qc, err := QueryContext(context.Background(), p, "orders", core.ModeAggregation)
	require.NoError(t, err)
	assert.Equal(t, core.ModeAggregation, qc.Mode)
	assert.Len(t, qc.Columns, 1)
	assert.True(t, qc.Features.Has(clause.FeaturePercentile))

	qc, err = QueryContext(context.Background(), p, "", core.ModeExpression)
	require.NoError(t, err)
	assert.Empty(t, qc.Columns)

	_, err = QueryContext(context.Background(), p, "missing", core.ModeExpression)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableNotFound)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "columns", perr.Op)
	assert.Contains(t, err.Error(), "metadata columns (static)")
}

func TestResultTypeFor(t *testing.T) {
	tests := []struct {
		sqlType string
		want    core.ResultType
	}{
		{"INTEGER", core.TypeNumber},
		{"bigint", core.TypeNumber},
		{"DECIMAL(10,2)", core.TypeNumber},
		{"double precision", core.TypeNumber},
		{"VARCHAR", core.TypeString},
		{"character varying", core.TypeString},
		{"text", core.TypeString},
		{"BOOLEAN", core.TypeBoolean},
		{"timestamp with time zone", core.TypeDateTime},
		{"DATE", core.TypeDateTime},
		{"INTEGER[]", core.TypeNumber},
		{"BLOB", core.TypeAny},
		{"", core.TypeAny},
	}
	for _, tt := range tests {
		t.Run(tt.sqlType, func(t *testing.T) {
			assert.Equal(t, tt.want, ResultTypeFor(tt.sqlType))
		})
	}
}

func TestEngineFeatures(t *testing.T) {
	fs, err := EngineFeatures("duckdb")
	require.NoError(t, err)
	for _, f := range clause.Features() {
		assert.True(t, fs.Has(f), f)
	}

	fs, err = EngineFeatures("sqlite3", clause.FeatureRegex)
	require.NoError(t, err)
	assert.False(t, fs.Has(clause.FeaturePercentile))
	assert.True(t, fs.Has(clause.FeatureRegex))

	fs, err = EngineFeatures("PostgreSQL")
	require.NoError(t, err)
	assert.True(t, fs.Has(clause.FeaturePercentile))

	_, err = EngineFeatures("oracle")
	assert.ErrorIs(t, err, ErrUnsupportedEngine)

	assert.Equal(t, []string{"duckdb", "postgres", "sqlite"}, Engines())
}
