// Package metadata supplies the columns and database capabilities that
// formulas are checked and completed against.
//
// A Provider is backed either by a YAML file (FileProvider) or by a live
// database connection (SQLProvider).
package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

var (
	// ErrTableNotFound is returned when a table has no known columns.
	ErrTableNotFound = errors.New("table not found")
	// ErrUnsupportedEngine is returned for database engines without a driver
	// or feature table.
	ErrUnsupportedEngine = errors.New("unsupported engine")
)

// Provider supplies query metadata.
type Provider interface {
	// Columns returns the columns of table in declaration order.
	Columns(ctx context.Context, table string) ([]core.Column, error)
	// Features returns the capabilities of the underlying database.
	Features(ctx context.Context) (core.FeatureSet, error)
}

// ProviderError records a failed provider operation.
type ProviderError struct {
	Op     string // "columns", "features", "load"
	Source string // file path or engine name
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("metadata %s (%s): %v", e.Op, e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// QueryContext assembles the context for formulas over table. An empty
// table name yields a context without columns.
func QueryContext(ctx context.Context, p Provider, table string, mode core.ExpressionMode) (core.QueryContext, error) {
	qc := core.QueryContext{Mode: mode}

	features, err := p.Features(ctx)
	if err != nil {
		return qc, err
	}
	qc.Features = features

	if table == "" {
		return qc, nil
	}
	columns, err := p.Columns(ctx, table)
	if err != nil {
		return qc, err
	}
	qc.Columns = columns
	return qc, nil
}

// Static is a fixed in-memory provider.
type Static struct {
	Tables       map[string][]core.Column
	FeatureNames []string
}

// Columns implements Provider.
func (s *Static) Columns(_ context.Context, table string) ([]core.Column, error) {
	cols, ok := s.Tables[table]
	if !ok {
		return nil, &ProviderError{Op: "columns", Source: "static", Err: fmt.Errorf("%w: %s", ErrTableNotFound, table)}
	}
	return cols, nil
}

// Features implements Provider.
func (s *Static) Features(context.Context) (core.FeatureSet, error) {
	return core.NewFeatureSet(s.FeatureNames...), nil
}

var _ Provider = (*Static)(nil)
