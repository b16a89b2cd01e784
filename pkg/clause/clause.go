// Package clause provides the registry of formula clauses: aggregations,
// expression functions and operators.
//
// Each clause is an immutable Definition built once with the fluent Builder.
// The parser, resolver and autocomplete engine consult the registry to look
// up names, check arity and compute argument types.
package clause

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// Category groups clauses by how they are spelled and where they may appear.
type Category int

// Clause categories.
const (
	// CategoryAggregation clauses summarize many rows (Count, Sum, ...).
	CategoryAggregation Category = iota
	// CategoryFunction clauses are row-level functions called by name.
	CategoryFunction
	// CategoryOperator clauses are spelled with infix or prefix syntax.
	CategoryOperator
)

// String returns the string representation of Category.
func (c Category) String() string {
	switch c {
	case CategoryAggregation:
		return "aggregation"
	case CategoryFunction:
		return "function"
	case CategoryOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// ParseCategory parses a category name. Plural forms are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "aggregation":
		return CategoryAggregation, nil
	case "function":
		return CategoryFunction, nil
	case "operator":
		return CategoryOperator, nil
	}
	return 0, fmt.Errorf("unknown clause category %q", s)
}

// ArgTypeFunc computes the expected type of argument index given all the
// arguments of the call and the type expected of the call itself.
type ArgTypeFunc func(index int, args []*core.Node, context core.ResultType) core.ResultType

// Violation is a literal argument rejected by a validator.
type Violation struct {
	Key   core.MessageKey
	Args  []any
	Value any
}

// Validator checks literal arguments. args[i] holds the literal value of
// argument i, or nil when that argument is not a literal.
type Validator func(args []any) *Violation

// Definition describes one clause. Definitions are never mutated after Build.
type Definition struct {
	Name        string
	DisplayName string
	Category    Category
	ResultType  core.ResultType
	Args        []core.ResultType
	// Variadic clauses accept any number of arguments past the declared
	// signature, typed like the last declared argument.
	Variadic bool
	// Unary operators also accept a single operand.
	Unary           bool
	RequiredFeature string
	// HasOptions clauses accept one trailing options argument. When
	// OptionNames is set the argument must be a string literal naming one
	// of them.
	HasOptions  bool
	OptionNames []string
	Description string

	argType  ArgTypeFunc
	validate Validator
}

// ArgType returns the expected type of argument index.
func (d *Definition) ArgType(index int, args []*core.Node, context core.ResultType) core.ResultType {
	if d.argType != nil {
		return d.argType(index, args, context)
	}
	if len(d.Args) == 0 {
		return core.TypeExpression
	}
	if index >= len(d.Args) {
		return d.Args[len(d.Args)-1]
	}
	return d.Args[index]
}

// HasArgTypeFunc reports whether argument types depend on the call context.
func (d *Definition) HasArgTypeFunc() bool {
	return d.argType != nil
}

// Validate runs the clause validator, if any, over literal arguments.
func (d *Definition) Validate(literals []any) *Violation {
	if d.validate == nil {
		return nil
	}
	return d.validate(literals)
}

// CheckArity reports whether n arguments (options excluded) fit the clause.
func (d *Definition) CheckArity(n int) bool {
	if d.Unary && n == 1 {
		return true
	}
	if d.Variadic {
		return n >= len(d.Args)
	}
	return n == len(d.Args)
}

// TakesArguments reports whether the clause is called with arguments.
func (d *Definition) TakesArguments() bool {
	return len(d.Args) > 0
}

// IsOption reports whether a literal string names one of the clause options.
func (d *Definition) IsOption(s string) bool {
	for _, name := range d.OptionNames {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}

// Signature renders the call shape, e.g. "Percentile(number, number) -> aggregation".
func (d *Definition) Signature() string {
	var b strings.Builder
	b.WriteString(d.DisplayName)
	b.WriteByte('(')
	for i, t := range d.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	if d.Variadic {
		b.WriteString(", ...")
	}
	if d.HasOptions {
		if len(d.Args) > 0 {
			b.WriteString(", ")
		}
		if len(d.OptionNames) > 0 {
			b.WriteString("[" + strings.Join(d.OptionNames, "|") + "]")
		} else {
			b.WriteString("[options]")
		}
	}
	b.WriteString(") -> ")
	b.WriteString(d.ResultType.String())
	return b.String()
}
