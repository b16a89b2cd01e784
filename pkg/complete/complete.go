// Package complete proposes completions for a partially typed formula.
//
// Suggest is a pure function of the source text, the cursor offset and
// the query context. It never fails: a nil Result means nothing applies at
// the cursor, an empty one means nothing matched.
package complete

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/format"
	"github.com/leapstack-labs/leapexpr/pkg/parser"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// Category selects which kind of completions to propose.
type Category int

// Completion categories.
const (
	CategoryAll Category = iota
	CategoryAggregations
	CategoryFunctions
	CategoryColumns
	CategoryOperators
	CategoryOptions
)

var categoryNames = map[Category]string{
	CategoryAll:          "all",
	CategoryAggregations: "aggregations",
	CategoryFunctions:    "functions",
	CategoryColumns:      "columns",
	CategoryOperators:    "operators",
	CategoryOptions:      "options",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory converts a category name.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryAll, nil
	}
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return CategoryAll, fmt.Errorf("unknown completion category %q", s)
}

// Source is what a candidate completes to.
type Source int

// Candidate sources.
const (
	SourceClause Source = iota
	SourceColumn
	SourceOperator
	SourceParameter
)

func (s Source) String() string {
	switch s {
	case SourceClause:
		return "clause"
	case SourceColumn:
		return "column"
	case SourceOperator:
		return "operator"
	case SourceParameter:
		return "parameter"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(b []byte) error {
	for _, v := range []Source{SourceClause, SourceColumn, SourceOperator, SourceParameter} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown candidate source %q", b)
}

// Candidate is one proposed completion.
type Candidate struct {
	Label      string `json:"label"`
	InsertText string `json:"insert_text"`
	// CursorOffset is where the cursor goes, relative to the start of
	// InsertText, after inserting it.
	CursorOffset int    `json:"cursor_offset"`
	Source       Source `json:"source"`
	SortKey      string `json:"sort_key"`
	Detail       string `json:"detail,omitempty"`
}

// Result is a ranked candidate list replacing source[From:To].
type Result struct {
	From       int         `json:"from"`
	To         int         `json:"to"`
	Candidates []Candidate `json:"candidates"`
}

func sortKey(rank int) string {
	return fmt.Sprintf("%04d", rank)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the clause registry.
func WithRegistry(r *clause.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLanguage sets the collation language used for alphabetical order.
func WithLanguage(tag language.Tag) Option {
	return func(e *Engine) {
		e.lang = tag
	}
}

// Engine computes completions. It is immutable and safe for concurrent use.
type Engine struct {
	registry *clause.Registry
	lang     language.Tag
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: clause.Default(),
		lang:     language.English,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Suggest runs a default Engine.
func Suggest(source string, cursor int, ctx core.QueryContext, category Category, opts ...Option) *Result {
	return New(opts...).Suggest(source, cursor, ctx, category)
}

// Suggest proposes completions for the token under cursor.
func (e *Engine) Suggest(source string, cursor int, ctx core.QueryContext, category Category) *Result {
	if category == CategoryAggregations && ctx.Mode != core.ModeAggregation {
		return nil
	}
	cursor = max(0, min(cursor, len(source)))
	// a cursor inside a multi-byte character sits before it
	for cursor > 0 && cursor < len(source) && !utf8.RuneStart(source[cursor]) {
		cursor--
	}

	q := &query{
		Engine: e,
		source: source,
		cursor: cursor,
		ctx:    ctx,
		tokens: parser.Tokenize(source),
	}
	idx, ok := TokenAt(q.tokens, cursor)
	if !ok {
		return nil
	}
	q.index = idx
	q.tok = q.tokens[idx]

	switch category {
	case CategoryAggregations:
		return q.words(q.clauses(clause.CategoryAggregation))
	case CategoryFunctions:
		return q.words(q.clauses(clause.CategoryFunction))
	case CategoryOperators:
		return q.words(q.operators())
	case CategoryColumns:
		return q.columns()
	case CategoryOptions:
		return q.options()
	}

	switch q.tok.Type {
	case token.FIELD:
		return q.columns()
	case token.STRING:
		return q.options()
	}
	var pool []Candidate
	if ctx.Mode == core.ModeAggregation {
		pool = append(pool, q.clauses(clause.CategoryAggregation)...)
	}
	pool = append(pool, q.clauses(clause.CategoryFunction)...)
	pool = append(pool, q.operators()...)
	pool = append(pool, q.columnCandidates()...)
	return q.words(pool)
}

// query is the state of one Suggest call.
type query struct {
	*Engine
	source string
	cursor int
	ctx    core.QueryContext
	tokens []token.Token
	index  int
	tok    token.Token
}

// typed is the part of the current token before the cursor. skip drops
// an opening delimiter; a closing one right before the cursor is dropped
// too.
func (q *query) typed(skip int) string {
	start := min(q.tok.Start+skip, q.cursor)
	end := q.cursor
	if skip > 0 && !q.tok.Unterminated && end == q.tok.End && end > start {
		end--
	}
	return q.source[start:end]
}

func (q *query) next() (token.Token, bool) {
	if q.index+1 < len(q.tokens) {
		return q.tokens[q.index+1], true
	}
	return token.Token{}, false
}

// words completes a bare word. Inside a bracketed field, clauses and
// operators do not apply.
func (q *query) words(pool []Candidate) *Result {
	if !isWord(q.tok.Type) {
		return nil
	}
	return &Result{
		From:       q.tok.Start,
		To:         q.tok.End,
		Candidates: rank(q.typed(0), q.alphabetical(pool)),
	}
}

// alphabetical sorts candidates by label with the engine's collation.
func (q *query) alphabetical(pool []Candidate) []Candidate {
	col := collate.New(q.lang, collate.IgnoreCase)
	out := make([]Candidate, len(pool))
	copy(out, pool)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Label, out[j].Label) < 0
	})
	return out
}

func (q *query) clauses(cat clause.Category) []Candidate {
	defs := q.registry.All(clause.InCategory(cat), clause.Supported(q.ctx.Features))
	next, hasNext := q.next()
	callFollows := hasNext && next.Type == token.LPAREN

	out := make([]Candidate, 0, len(defs))
	for _, d := range defs {
		c := Candidate{
			Label:      d.DisplayName,
			InsertText: d.DisplayName,
			Source:     SourceClause,
			Detail:     d.Signature(),
		}
		if d.TakesArguments() && !callFollows {
			c.InsertText += "()"
			c.CursorOffset = len(d.DisplayName) + 1
		} else {
			c.CursorOffset = len(c.InsertText)
		}
		out = append(out, c)
	}
	return out
}

// operators proposes the operators spelled as words.
func (q *query) operators() []Candidate {
	var out []Candidate
	for _, d := range q.registry.All(clause.InCategory(clause.CategoryOperator)) {
		if !token.IsKeyword(token.LookupIdent(d.DisplayName)) {
			continue
		}
		out = append(out, Candidate{
			Label:        d.DisplayName,
			InsertText:   d.DisplayName,
			CursorOffset: len(d.DisplayName),
			Source:       SourceOperator,
			Detail:       d.Description,
		})
	}
	return out
}

func (q *query) columnCandidates() []Candidate {
	out := make([]Candidate, 0, len(q.ctx.Columns))
	for _, c := range q.ctx.Columns {
		insert := format.Field(c.Label())
		out = append(out, Candidate{
			Label:        c.Label(),
			InsertText:   insert,
			CursorOffset: len(insert),
			Source:       SourceColumn,
			Detail:       c.Type.String(),
		})
	}
	return out
}

// columns completes a bare word or a bracketed field to a column.
func (q *query) columns() *Result {
	var typed string
	switch {
	case q.tok.Type == token.FIELD:
		typed = q.typed(1)
	case isWord(q.tok.Type):
		typed = q.typed(0)
	default:
		return nil
	}
	return &Result{
		From:       q.tok.Start,
		To:         q.tok.End,
		Candidates: rank(typed, q.alphabetical(q.columnCandidates())),
	}
}

// options completes the named option of the enclosing call while the
// cursor is in a string in its options slot.
func (q *query) options() *Result {
	if q.tok.Type != token.STRING || q.cursor == q.tok.Start {
		return nil
	}
	call, ok := EnclosingCall(q.tokens, q.index)
	if !ok {
		return nil
	}
	def, ok := q.registry.LookupCallable(call.Name)
	if !ok || len(def.OptionNames) == 0 || call.ArgIndex < len(def.Args) {
		return nil
	}

	pool := make([]Candidate, 0, len(def.OptionNames))
	for _, name := range def.OptionNames {
		insert := format.Literal(name)
		pool = append(pool, Candidate{
			Label:        name,
			InsertText:   insert,
			CursorOffset: len(insert),
			Source:       SourceParameter,
			Detail:       def.DisplayName,
		})
	}
	return &Result{
		From:       q.tok.Start,
		To:         q.tok.End,
		Candidates: rank(q.typed(1), q.alphabetical(pool)),
	}
}
