package metadata

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

func TestSQLProvider_Columns(t *testing.T) {
	tests := []struct {
		name      string
		engine    string
		table     string
		setupMock func(mock sqlmock.Sqlmock)
		want      []core.Column
		errIs     error
		errMsg    string
	}{
		{
			name:   "duckdb default schema",
			engine: "duckdb",
			table:  "orders",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"column_name", "data_type"}).
					AddRow("total", "DECIMAL(18,3)").
					AddRow("created_at", "TIMESTAMP")
				mock.ExpectQuery("SELECT column_name, data_type").WithArgs("main", "orders").WillReturnRows(rows)
			},
			want: []core.Column{
				{Name: "total", Type: core.TypeNumber},
				{Name: "created_at", Type: core.TypeDateTime},
			},
		},
		{
			name:   "postgres qualified table",
			engine: "postgresql",
			table:  "sales.orders",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"column_name", "data_type"}).
					AddRow("status", "character varying")
				mock.ExpectQuery(`table_schema = \$1`).WithArgs("sales", "orders").WillReturnRows(rows)
			},
			want: []core.Column{{Name: "status", Type: core.TypeString}},
		},
		{
			name:   "sqlite pragma",
			engine: "sqlite",
			table:  "it's",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"name", "type"}).AddRow("flag", "BOOLEAN")
				mock.ExpectQuery(`pragma_table_info\('it''s'\)`).WillReturnRows(rows)
			},
			want: []core.Column{{Name: "flag", Type: core.TypeBoolean}},
		},
		{
			name:   "table not found",
			engine: "duckdb",
			table:  "missing",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT column_name").WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))
			},
			errIs: ErrTableNotFound,
		},
		{
			name:   "query error",
			engine: "duckdb",
			table:  "orders",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT column_name").WillReturnError(assert.AnError)
			},
			errIs:  assert.AnError,
			errMsg: "failed to query column metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			p, err := NewSQLProvider(db, tt.engine)
			require.NoError(t, err)

			cols, err := p.Columns(context.Background(), tt.table)
			if tt.errIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.errIs)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, cols)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLProvider_Features(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p, err := NewSQLProvider(db, "sqlite", WithExtraFeatures(clause.FeaturePercentile))
	require.NoError(t, err)
	assert.Equal(t, EngineSQLite, p.Engine())

	fs, err := p.Features(context.Background())
	require.NoError(t, err)
	assert.True(t, fs.Has(clause.FeaturePercentile))
	assert.False(t, fs.Has(clause.FeatureStandardDeviation))

	assert.NoError(t, p.Close(), "borrowed connections are left open")
}

func TestSQLProvider_UnsupportedEngine(t *testing.T) {
	_, err := NewSQLProvider(nil, "oracle")
	assert.ErrorIs(t, err, ErrUnsupportedEngine)

	_, err = OpenSQL(context.Background(), "oracle", "")
	assert.ErrorIs(t, err, ErrUnsupportedEngine)
}

func TestSQLProvider_NotConnected(t *testing.T) {
	p, err := NewSQLProvider(nil, "duckdb")
	require.NoError(t, err)
	_, err = p.Columns(context.Background(), "orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not established")
}
