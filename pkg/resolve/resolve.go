// Package resolve binds names in a parsed formula and checks its types.
//
// Resolution works on a copy of the tree. Names resolve to columns first
// and to zero-argument clauses second. Types flow down from each argument
// slot and back up from the inferred type of each sub-expression. Every
// problem is collected as a diagnostic; nothing is fatal.
package resolve

import (
	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/i18n"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

var defaultLocalizer core.Localizer = i18n.English()

// Option configures a Resolver.
type Option func(*Resolver)

// WithRegistry sets the clause registry.
func WithRegistry(r *clause.Registry) Option {
	return func(res *Resolver) {
		res.registry = r
	}
}

// WithLocalizer sets the localizer used to render diagnostic messages.
func WithLocalizer(l core.Localizer) Option {
	return func(res *Resolver) {
		res.localizer = l
	}
}

// Resolver checks formulas against a query context. It holds no per-call
// state and is safe for concurrent use.
type Resolver struct {
	registry  *clause.Registry
	localizer core.Localizer
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		registry:  clause.Default(),
		localizer: defaultLocalizer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve checks tree with a default Resolver.
func Resolve(tree *core.Node, ctx core.QueryContext, opts ...Option) (*core.Node, []core.Diagnostic) {
	return New(opts...).Resolve(tree, ctx)
}

// Resolve returns a typed copy of tree and the diagnostics found. A nil
// tree resolves to nil without diagnostics.
func (r *Resolver) Resolve(tree *core.Node, ctx core.QueryContext) (*core.Node, []core.Diagnostic) {
	if tree == nil {
		return nil, nil
	}
	typed := tree.Clone()
	s := &resolution{Resolver: r, ctx: ctx, columns: newColumnIndex(ctx.Columns), root: typed}

	rootType := s.resolve(typed, ctx.Mode.RootType())
	switch {
	case ctx.Mode == core.ModeExpression && rootType == core.TypeAggregation:
		s.addError(core.TypeError, typed.Range, core.MsgAggregationInRow)
	case ctx.Mode == core.ModeAggregation && rootType != core.TypeAggregation:
		s.addError(core.TypeError, typed.Range, core.MsgTypeMismatch, core.TypeAggregation.String(), rootType.String())
	}
	core.SortDiagnostics(s.diags)
	return typed, s.diags
}

// resolution is the state of one Resolve call.
type resolution struct {
	*Resolver
	ctx     core.QueryContext
	columns *columnIndex
	// root is checked against the aggregation mode by Resolve itself.
	root  *core.Node
	diags []core.Diagnostic
}

func (s *resolution) addError(kind core.DiagnosticKind, span token.Span, key core.MessageKey, args ...any) *core.Diagnostic {
	s.diags = append(s.diags, core.Diagnostic{
		Kind:     kind,
		Severity: core.SeverityError,
		Message:  s.localizer.Sprintf(key, args...),
		Range:    span,
	})
	return &s.diags[len(s.diags)-1]
}

// resolve types n for a slot of type expected, reports mismatches and
// returns the inferred type.
func (s *resolution) resolve(n *core.Node, expected core.ResultType) core.ResultType {
	switch n.Kind {
	case core.NodeLiteral:
		s.checkSlot(n, expected)
		return n.Type

	case core.NodeField:
		col, ok := s.columns.lookup(n.Name)
		if !ok {
			s.addError(core.ResolutionError, n.Range, core.MsgUnknownColumn, n.Name)
			n.Type = core.TypeAny
			return n.Type
		}
		n.Name = col.Name
		n.Type = col.Type
		s.checkSlot(n, expected)
		return n.Type

	case core.NodeIdentifier:
		if col, ok := s.columns.lookup(n.Name); ok {
			n.Kind = core.NodeField
			n.Name = col.Name
			n.Type = col.Type
			s.checkSlot(n, expected)
			return n.Type
		}
		if def, ok := s.registry.LookupCallable(n.Name); ok && !def.TakesArguments() {
			n.Kind = core.NodeCall
			n.Clause = def.Name
			return s.resolveCall(n, def, expected)
		}
		s.addError(core.ResolutionError, n.Range, core.MsgUnknownColumn, n.Name)
		n.Type = core.TypeAny
		return n.Type

	default:
		def, ok := s.registry.Lookup(n.Clause)
		if !ok {
			// unknown function, reported by the parser
			for _, child := range n.Children {
				s.resolve(child, core.TypeAny)
			}
			n.Type = core.TypeAny
			return n.Type
		}
		return s.resolveCall(n, def, expected)
	}
}

func (s *resolution) resolveCall(n *core.Node, def *clause.Definition, expected core.ResultType) core.ResultType {
	if !s.ctx.Features.Has(def.RequiredFeature) {
		d := s.addError(core.UnsupportedFeatureError, n.Range, core.MsgUnsupportedFeature, def.DisplayName)
		d.Clause = def.Name
		d.Feature = def.RequiredFeature
	}

	context := expected
	arithmetic := isArithmetic(def)
	if arithmetic {
		switch {
		case s.containsAggregation(n):
			context = core.TypeAggregation
		case context == core.TypeAggregation:
			// constant or row-level math does not aggregate
			context = core.TypeNumber
		}
	}

	childTypes := make([]core.ResultType, len(n.Children))
	for i, child := range n.Children {
		childTypes[i] = s.resolve(child, def.ArgType(i, n.Children, context))
	}
	if n.Options != nil {
		s.resolve(n.Options, core.TypeString)
	}

	s.validate(n, def)

	switch {
	case arithmetic && context == core.TypeAggregation:
		n.Type = core.TypeAggregation
	case isPolymorphic(def):
		n.Type = polymorphicType(def, childTypes)
	default:
		n.Type = def.ResultType
	}
	s.checkSlot(n, expected)
	return n.Type
}

// validate runs the clause validator over the literal arguments.
func (s *resolution) validate(n *core.Node, def *clause.Definition) {
	literals := make([]any, len(n.Children))
	for i, child := range n.Children {
		if child.IsLiteral() {
			literals[i] = child.Value
		}
	}
	v := def.Validate(literals)
	if v == nil {
		return
	}
	d := s.addError(core.ValidationError, n.Range, v.Key, v.Args...)
	d.Clause = def.Name
	d.Value = v.Value
}

// checkSlot reports n when its type does not fit the slot. Number literals
// fit aggregation operands as constants, never the whole formula.
func (s *resolution) checkSlot(n *core.Node, slot core.ResultType) {
	if slot == core.TypeAggregation {
		if n == s.root {
			return
		}
		if n.IsLiteral() && n.Type == core.TypeNumber {
			return
		}
	}
	if core.Assignable(slot, n.Type) {
		return
	}
	s.addError(core.TypeError, n.Range, core.MsgTypeMismatch, slot.String(), n.Type.String())
}

// containsAggregation reports whether any operand of n, at any depth,
// aggregates.
func (s *resolution) containsAggregation(n *core.Node) bool {
	found := false
	for _, child := range n.Children {
		child.Walk(func(x *core.Node) bool {
			if found {
				return false
			}
			found = s.isAggregation(x)
			return !found
		})
	}
	return found
}

func (s *resolution) isAggregation(n *core.Node) bool {
	switch n.Kind {
	case core.NodeCall:
		def, ok := s.registry.Lookup(n.Clause)
		return ok && def.Category == clause.CategoryAggregation
	case core.NodeIdentifier:
		if _, isColumn := s.columns.lookup(n.Name); isColumn {
			return false
		}
		def, ok := s.registry.LookupCallable(n.Name)
		return ok && !def.TakesArguments() && def.Category == clause.CategoryAggregation
	}
	return false
}

func isArithmetic(def *clause.Definition) bool {
	return def.Category == clause.CategoryOperator && def.ResultType == core.TypeNumber && def.HasArgTypeFunc()
}

func isPolymorphic(def *clause.Definition) bool {
	switch def.Name {
	case "case", "if", "coalesce", "offset":
		return true
	}
	return false
}

// polymorphicType infers the result of clauses whose type follows their
// value arguments.
func polymorphicType(def *clause.Definition, args []core.ResultType) core.ResultType {
	switch def.Name {
	case "offset":
		if len(args) == 0 {
			return def.ResultType
		}
		return args[0]
	case "coalesce":
		return core.CommonType(args...)
	}
	// case/if: odd positions and an unpaired trailing argument are values
	values := make([]core.ResultType, 0, len(args)/2+1)
	for i, t := range args {
		if i%2 == 1 || (len(args)%2 == 1 && i == len(args)-1) {
			values = append(values, t)
		}
	}
	return core.CommonType(values...)
}
