package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	_ "modernc.org/sqlite"              // SQLite driver (pure Go)

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// driverNames maps engines to database/sql driver names.
var driverNames = map[string]string{
	EngineDuckDB:   "duckdb",
	EnginePostgres: "pgx",
	EngineSQLite:   "sqlite",
}

// SQLProvider introspects table columns from a live database.
type SQLProvider struct {
	db       *sql.DB
	engine   string
	extra    []string
	logger   *slog.Logger
	ownsConn bool
}

// SQLOption configures an SQLProvider.
type SQLOption func(*SQLProvider)

// WithLogger sets the provider logger.
func WithLogger(logger *slog.Logger) SQLOption {
	return func(p *SQLProvider) {
		p.logger = logger
	}
}

// WithExtraFeatures adds features on top of the engine's own.
func WithExtraFeatures(names ...string) SQLOption {
	return func(p *SQLProvider) {
		p.extra = append(p.extra, names...)
	}
}

// NewSQLProvider wraps an open connection to the given engine.
func NewSQLProvider(db *sql.DB, engine string, opts ...SQLOption) (*SQLProvider, error) {
	engine = normalizeEngine(engine)
	if _, ok := driverNames[engine]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, engine)
	}
	p := &SQLProvider{
		db:     db,
		engine: engine,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// OpenSQL connects to a database. An empty DuckDB or SQLite DSN opens an
// in-memory database.
func OpenSQL(ctx context.Context, engine, dsn string, opts ...SQLOption) (*SQLProvider, error) {
	engine = normalizeEngine(engine)
	driver, ok := driverNames[engine]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, engine)
	}
	if dsn == "" && engine != EnginePostgres {
		dsn = ":memory:"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", engine, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", engine, err)
	}

	p, err := NewSQLProvider(db, engine, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	p.ownsConn = true
	p.logger.Debug("connected", slog.String("engine", engine))
	return p, nil
}

// Close closes the connection if the provider opened it.
func (p *SQLProvider) Close() error {
	if p.ownsConn && p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Engine returns the normalized engine name.
func (p *SQLProvider) Engine() string {
	return p.engine
}

// Features implements Provider.
func (p *SQLProvider) Features(context.Context) (core.FeatureSet, error) {
	fs, err := EngineFeatures(p.engine, p.extra...)
	if err != nil {
		return nil, &ProviderError{Op: "features", Source: p.engine, Err: err}
	}
	return fs, nil
}

// Columns implements Provider. table may be qualified as schema.table.
func (p *SQLProvider) Columns(ctx context.Context, table string) ([]core.Column, error) {
	if p.db == nil {
		return nil, &ProviderError{Op: "columns", Source: p.engine, Err: fmt.Errorf("database connection not established")}
	}

	var (
		rows *sql.Rows
		err  error
	)
	schema, name := splitTable(table, p.defaultSchema())
	switch p.engine {
	case EngineSQLite:
		//nolint:gosec // identifier is quoted
		rows, err = p.db.QueryContext(ctx, fmt.Sprintf("SELECT name, type FROM pragma_table_info(%s)", quoteLiteral(name)))
	case EnginePostgres:
		rows, err = p.db.QueryContext(ctx, `
			SELECT column_name, data_type
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position`, schema, name)
	default:
		rows, err = p.db.QueryContext(ctx, `
			SELECT column_name, data_type
			FROM information_schema.columns
			WHERE table_schema = ? AND table_name = ?
			ORDER BY ordinal_position`, schema, name)
	}
	if err != nil {
		return nil, &ProviderError{Op: "columns", Source: p.engine, Err: fmt.Errorf("failed to query column metadata: %w", err)}
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var colName, colType string
		if err := rows.Scan(&colName, &colType); err != nil {
			return nil, &ProviderError{Op: "columns", Source: p.engine, Err: fmt.Errorf("failed to scan column metadata: %w", err)}
		}
		columns = append(columns, core.Column{Name: colName, Type: ResultTypeFor(colType)})
	}
	if err := rows.Err(); err != nil {
		return nil, &ProviderError{Op: "columns", Source: p.engine, Err: fmt.Errorf("error iterating column metadata: %w", err)}
	}

	if len(columns) == 0 {
		return nil, &ProviderError{Op: "columns", Source: p.engine, Err: fmt.Errorf("%w: %s", ErrTableNotFound, table)}
	}
	p.logger.Debug("loaded columns", slog.String("table", table), slog.Int("count", len(columns)))
	return columns, nil
}

func (p *SQLProvider) defaultSchema() string {
	switch p.engine {
	case EnginePostgres:
		return "public"
	default:
		return "main"
	}
}

// splitTable parses schema.table.
func splitTable(table, defaultSchema string) (schema, name string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var _ Provider = (*SQLProvider)(nil)
