package clause

import "github.com/leapstack-labs/leapexpr/pkg/core"

// Builder provides a fluent API for defining clauses.
type Builder struct {
	def *Definition
}

// Define starts a clause definition with its canonical name. The display
// name defaults to the canonical name and the category to function.
func Define(name string) *Builder {
	return &Builder{def: &Definition{
		Name:        name,
		DisplayName: name,
		Category:    CategoryFunction,
		ResultType:  core.TypeExpression,
	}}
}

// Display sets the name users type.
func (b *Builder) Display(name string) *Builder {
	b.def.DisplayName = name
	return b
}

// Aggregation marks the clause as an aggregation returning TypeAggregation.
func (b *Builder) Aggregation() *Builder {
	b.def.Category = CategoryAggregation
	b.def.ResultType = core.TypeAggregation
	return b
}

// Operator marks the clause as an operator.
func (b *Builder) Operator() *Builder {
	b.def.Category = CategoryOperator
	return b
}

// Returns sets the result type.
func (b *Builder) Returns(t core.ResultType) *Builder {
	b.def.ResultType = t
	return b
}

// Args sets the declared argument types.
func (b *Builder) Args(types ...core.ResultType) *Builder {
	b.def.Args = types
	return b
}

// Variadic allows repeating the last argument.
func (b *Builder) Variadic() *Builder {
	b.def.Variadic = true
	return b
}

// Unary allows a single operand.
func (b *Builder) Unary() *Builder {
	b.def.Unary = true
	return b
}

// Requires gates the clause behind a database feature.
func (b *Builder) Requires(feature string) *Builder {
	b.def.RequiredFeature = feature
	return b
}

// Options accepts a trailing options argument, restricted to names if any
// are given.
func (b *Builder) Options(names ...string) *Builder {
	b.def.HasOptions = true
	b.def.OptionNames = names
	return b
}

// ArgTypes installs a context-dependent argument type function.
func (b *Builder) ArgTypes(fn ArgTypeFunc) *Builder {
	b.def.argType = fn
	return b
}

// Validate installs a literal argument validator.
func (b *Builder) Validate(fn Validator) *Builder {
	b.def.validate = fn
	return b
}

// Describe sets the one-line description shown by hover and docs.
func (b *Builder) Describe(text string) *Builder {
	b.def.Description = text
	return b
}

// Build returns the finished definition. The builder must not be reused.
func (b *Builder) Build() *Definition {
	def := b.def
	b.def = nil
	if def.Args == nil {
		def.Args = []core.ResultType{}
	}
	return def
}
