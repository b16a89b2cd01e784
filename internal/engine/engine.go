// Package engine runs the formula pipeline against a metadata provider.
// It tokenizes, parses and resolves a formula, then renders the typed tree
// both as canonical text and as the structured clause form.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapexpr/internal/metadata"
	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/complete"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/format"
	"github.com/leapstack-labs/leapexpr/pkg/i18n"
	"github.com/leapstack-labs/leapexpr/pkg/mbql"
	"github.com/leapstack-labs/leapexpr/pkg/parser"
	"github.com/leapstack-labs/leapexpr/pkg/resolve"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// Config holds engine configuration.
type Config struct {
	// Provider supplies columns and features. Nil means no columns and
	// every feature enabled.
	Provider metadata.Provider
	// Table is the default table formulas are checked against.
	Table string
	// Mode is the default expression mode.
	Mode core.ExpressionMode
	// Registry defaults to the builtin clauses.
	Registry *clause.Registry
	// Localizer defaults to English.
	Localizer core.Localizer
	// Language orders completion candidates. Defaults to English.
	Language language.Tag
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine compiles formulas. It is safe for concurrent use.
type Engine struct {
	table     string
	mode      core.ExpressionMode
	registry  *clause.Registry
	localizer core.Localizer
	logger    *slog.Logger

	cache     *metadata.Cache
	resolver  *resolve.Resolver
	completer *complete.Engine
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := cfg.Registry
	if registry == nil {
		registry = clause.Default()
	}
	localizer := cfg.Localizer
	if localizer == nil {
		localizer = i18n.English()
	}
	lang := cfg.Language
	if lang == language.Und {
		lang = language.English
	}

	e := &Engine{
		table:     cfg.Table,
		mode:      cfg.Mode,
		registry:  registry,
		localizer: localizer,
		logger:    logger,
		resolver:  resolve.New(resolve.WithRegistry(registry), resolve.WithLocalizer(localizer)),
		completer: complete.New(complete.WithRegistry(registry), complete.WithLanguage(lang)),
	}
	if cfg.Provider != nil {
		e.cache = metadata.NewCache(cfg.Provider)
	}
	return e
}

// Registry returns the clause registry in use.
func (e *Engine) Registry() *clause.Registry {
	return e.registry
}

// Mode returns the default expression mode.
func (e *Engine) Mode() core.ExpressionMode {
	return e.mode
}

// Table returns the default table.
func (e *Engine) Table() string {
	return e.table
}

// Invalidate drops cached columns. Call it after the provider's data changed.
func (e *Engine) Invalidate() {
	if e.cache != nil {
		e.cache.Invalidate()
	}
	e.logger.Debug("metadata cache invalidated")
}

// Request is one formula to compile.
type Request struct {
	Source string `json:"source"`
	// Mode overrides the default mode when set.
	Mode string `json:"mode,omitempty"`
	// Table overrides the default table when set.
	Table string `json:"table,omitempty"`
}

// Result is the outcome of compiling a formula.
type Result struct {
	Source      string              `json:"source"`
	Mode        core.ExpressionMode `json:"-"`
	Type        core.ResultType     `json:"type"`
	Diagnostics []core.Diagnostic   `json:"diagnostics"`
	// Formatted and MBQL are set only when compilation produced no errors.
	Formatted string `json:"formatted,omitempty"`
	MBQL      any    `json:"mbql,omitempty"`

	Tokens []token.Token `json:"-"`
	Tree   *core.Node    `json:"-"`
	Typed  *core.Node    `json:"-"`
}

// OK reports whether the formula compiled without errors.
func (r *Result) OK() bool {
	return r.Typed != nil && !core.HasErrors(r.Diagnostics)
}

// QueryContext builds the context for table in mode. An empty table selects
// the default table.
func (e *Engine) QueryContext(ctx context.Context, table string, mode core.ExpressionMode) (core.QueryContext, error) {
	if table == "" {
		table = e.table
	}
	if e.cache == nil {
		return core.QueryContext{Mode: mode, Features: core.NewFeatureSet(core.AllFeatures)}, nil
	}
	qc, err := metadata.QueryContext(ctx, e.cache, table, mode)
	if err != nil {
		return core.QueryContext{}, fmt.Errorf("failed to load metadata: %w", err)
	}
	e.logger.Debug("query context", slog.String("table", table), slog.Int("columns", len(qc.Columns)))
	return qc, nil
}

func (e *Engine) requestMode(mode string) (core.ExpressionMode, error) {
	if mode == "" {
		return e.mode, nil
	}
	return core.ParseExpressionMode(mode)
}

// Tokenize returns the tokens of source, trivia included when asked.
func (e *Engine) Tokenize(source string, trivia bool) []token.Token {
	if trivia {
		return parser.TokenizeWithTrivia(source)
	}
	return parser.Tokenize(source)
}

// Parse parses source without resolving names.
func (e *Engine) Parse(source string) (*core.Node, []core.Diagnostic) {
	return parser.ParseString(source, e.parserOptions()...)
}

func (e *Engine) parserOptions() []parser.Option {
	return []parser.Option{parser.WithRegistry(e.registry), parser.WithLocalizer(e.localizer)}
}

// Compile runs the whole pipeline. The error is reserved for metadata
// failures; problems with the formula itself are diagnostics.
func (e *Engine) Compile(ctx context.Context, req Request) (*Result, error) {
	mode, err := e.requestMode(req.Mode)
	if err != nil {
		return nil, err
	}
	qc, err := e.QueryContext(ctx, req.Table, mode)
	if err != nil {
		return nil, err
	}
	return e.CompileWith(req.Source, qc), nil
}

// CompileWith runs the pipeline against an explicit query context.
func (e *Engine) CompileWith(source string, qc core.QueryContext) *Result {
	res := &Result{Source: source, Mode: qc.Mode, Type: core.TypeAny}
	res.Tokens = parser.Tokenize(source)
	tree, diags := parser.Parse(res.Tokens, e.parserOptions()...)
	res.Tree = tree
	res.Diagnostics = diags

	typed, rdiags := e.resolver.Resolve(tree, qc)
	res.Typed = typed
	if typed != nil {
		res.Type = typed.Type
	}
	res.Diagnostics = append(res.Diagnostics, rdiags...)
	core.SortDiagnostics(res.Diagnostics)

	if res.OK() {
		res.Formatted = format.Format(typed, format.WithRegistry(e.registry))
		form, err := mbql.Compile(typed)
		if err != nil {
			e.logger.Warn("structured form failed", slog.String("source", source), slog.Any("error", err))
		} else {
			res.MBQL = form
		}
	}
	e.logger.Debug("compiled formula",
		slog.String("mode", qc.Mode.String()),
		slog.Int("diagnostics", len(res.Diagnostics)),
	)
	return res
}

// Format reformats source. Sources that do not parse are returned unchanged
// along with the parse diagnostics.
func (e *Engine) Format(source string, multiline bool) (string, []core.Diagnostic) {
	tree, diags := e.Parse(source)
	if tree == nil || core.HasErrors(diags) {
		return source, diags
	}
	opts := []format.Option{format.WithRegistry(e.registry)}
	if multiline {
		opts = append(opts, format.Multiline())
	}
	return format.Format(tree, opts...), nil
}

// Suggest proposes completions at cursor.
func (e *Engine) Suggest(ctx context.Context, req Request, cursor int, category complete.Category) (*complete.Result, error) {
	mode, err := e.requestMode(req.Mode)
	if err != nil {
		return nil, err
	}
	qc, err := e.QueryContext(ctx, req.Table, mode)
	if err != nil {
		return nil, err
	}
	return e.completer.Suggest(req.Source, cursor, qc, category), nil
}

// SuggestWith proposes completions against an explicit query context.
func (e *Engine) SuggestWith(source string, cursor int, qc core.QueryContext, category complete.Category) *complete.Result {
	return e.completer.Suggest(source, cursor, qc, category)
}

// Decompile converts a structured clause form back to canonical text.
func (e *Engine) Decompile(data []byte) (string, error) {
	tree, err := mbql.Unmarshal(data, e.registry)
	if err != nil {
		return "", err
	}
	return format.Format(tree, format.WithRegistry(e.registry)), nil
}

// Clauses lists the clauses supported by the provider's features, in
// canonical name order. A nil feature set lists every clause.
func (e *Engine) Clauses(ctx context.Context, cats ...clause.Category) ([]*clause.Definition, error) {
	var filters []clause.Filter
	if len(cats) > 0 {
		filters = append(filters, clause.InCategory(cats...))
	}
	if e.cache != nil {
		fs, err := e.cache.Features(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load features: %w", err)
		}
		filters = append(filters, clause.Supported(fs))
	}
	return e.registry.All(filters...), nil
}
