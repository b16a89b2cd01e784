package core

import (
	"fmt"
	"sort"
	"strings"
)

// ExpressionMode is where a formula is used, which fixes its root type.
type ExpressionMode int

// Expression modes.
const (
	// ModeExpression is a custom column: any non-aggregation value.
	ModeExpression ExpressionMode = iota
	// ModeAggregation is a custom aggregation: the root must aggregate.
	ModeAggregation
	// ModeBoolean is a custom filter: the root must be boolean.
	ModeBoolean
)

// String returns the configuration spelling of the mode.
func (m ExpressionMode) String() string {
	switch m {
	case ModeExpression:
		return "expression"
	case ModeAggregation:
		return "aggregation"
	case ModeBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("ExpressionMode(%d)", int(m))
	}
}

// ParseExpressionMode converts a mode name. "filter" is an alias for boolean.
func ParseExpressionMode(s string) (ExpressionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expression":
		return ModeExpression, nil
	case "aggregation":
		return ModeAggregation, nil
	case "boolean", "filter":
		return ModeBoolean, nil
	}
	return ModeExpression, fmt.Errorf("unknown expression mode %q (want expression, aggregation or boolean)", s)
}

// RootType is the type a formula in this mode must produce.
func (m ExpressionMode) RootType() ResultType {
	switch m {
	case ModeAggregation:
		return TypeAggregation
	case ModeBoolean:
		return TypeBoolean
	default:
		return TypeExpression
	}
}

// Column is a column a formula may reference.
type Column struct {
	Name        string     `json:"name" yaml:"name"`
	DisplayName string     `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Type        ResultType `json:"type" yaml:"type"`
}

// Label is the name shown to users and inserted by autocomplete.
func (c Column) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// AllFeatures is the wildcard feature name that enables every clause.
const AllFeatures = "*"

// FeatureSet is the set of capability flags a database supports.
type FeatureSet map[string]struct{}

// NewFeatureSet builds a set from names.
func NewFeatureSet(names ...string) FeatureSet {
	fs := make(FeatureSet, len(names))
	for _, n := range names {
		fs.Add(n)
	}
	return fs
}

// Add inserts a feature. Blank names are ignored.
func (fs FeatureSet) Add(name string) {
	name = strings.TrimSpace(name)
	if name != "" {
		fs[name] = struct{}{}
	}
}

// Has reports whether the feature is supported. The empty feature is
// always supported.
func (fs FeatureSet) Has(name string) bool {
	if name == "" {
		return true
	}
	if _, ok := fs[AllFeatures]; ok {
		return true
	}
	_, ok := fs[name]
	return ok
}

// Names returns the features in sorted order.
func (fs FeatureSet) Names() []string {
	out := make([]string, 0, len(fs))
	for n := range fs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// QueryContext is everything a formula is checked and completed against.
type QueryContext struct {
	Columns  []Column
	Mode     ExpressionMode
	Features FeatureSet
}
