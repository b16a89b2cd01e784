package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// Supported engines.
const (
	EngineDuckDB   = "duckdb"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// engineFeatures lists what each engine can compute.
var engineFeatures = map[string][]string{
	EngineDuckDB: clause.Features(),
	EnginePostgres: {
		clause.FeatureStandardDeviation,
		clause.FeaturePercentile,
		clause.FeatureDistinctWhere,
		clause.FeatureOffset,
		clause.FeatureExpressions,
		clause.FeatureCastText,
		clause.FeatureCastInteger,
		clause.FeatureCastDate,
		clause.FeatureCastFloat,
		clause.FeatureSplitPart,
		clause.FeatureRegex,
		clause.FeatureAdvancedMath,
		clause.FeatureDatetimeDiff,
		clause.FeatureConvertTimezone,
	},
	EngineSQLite: {
		clause.FeatureDistinctWhere,
		clause.FeatureOffset,
		clause.FeatureExpressions,
		clause.FeatureCastText,
		clause.FeatureCastInteger,
		clause.FeatureCastFloat,
		clause.FeatureDatetimeDiff,
	},
}

// Engines returns the names of the supported engines.
func Engines() []string {
	out := make([]string, 0, len(engineFeatures))
	for name := range engineFeatures {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EngineFeatures returns the capabilities of an engine plus any extra
// feature names.
func EngineFeatures(engine string, extra ...string) (core.FeatureSet, error) {
	names, ok := engineFeatures[normalizeEngine(engine)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, engine)
	}
	fs := core.NewFeatureSet(names...)
	for _, f := range extra {
		fs.Add(f)
	}
	return fs, nil
}

func normalizeEngine(engine string) string {
	switch e := strings.ToLower(strings.TrimSpace(engine)); e {
	case "postgresql", "pg", "pgx":
		return EnginePostgres
	case "sqlite3":
		return EngineSQLite
	default:
		return e
	}
}

// ResultTypeFor maps a database column type to the formula type system.
// Parameterized types such as DECIMAL(10,2) and arrays map by their base
// name; anything unrecognized is TypeAny.
func ResultTypeFor(sqlType string) core.ResultType {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	if i := strings.IndexAny(t, "(["); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "TINYINT", "SMALLINT", "INT", "INT2", "INT4", "INT8", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "SERIAL", "BIGSERIAL",
		"DECIMAL", "NUMERIC", "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "MONEY":
		return core.TypeNumber
	case "VARCHAR", "CHAR", "CHARACTER", "CHARACTER VARYING", "TEXT", "STRING", "BPCHAR", "UUID", "CLOB", "NAME":
		return core.TypeString
	case "BOOLEAN", "BOOL":
		return core.TypeBoolean
	case "DATE", "TIME", "TIMESTAMP", "DATETIME", "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE",
		"TIMESTAMP WITHOUT TIME ZONE", "TIME WITH TIME ZONE", "TIME WITHOUT TIME ZONE", "TIMETZ":
		return core.TypeDateTime
	}
	return core.TypeAny
}
