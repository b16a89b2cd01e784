// Package mbql converts formula trees to and from the nested clause-array
// form consumed by query builders:
//
//	CountIf([Total] > 0)  →  ["count-where", [">", ["field", "Total"], 0]]
//
// Column references become ["field", name]. A trailing options argument
// becomes {"options": value}.
package mbql

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cast"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

const (
	fieldClause = "field"
	optionsKey  = "options"
)

var (
	// ErrUnknownClause is returned for calls without a registered clause.
	ErrUnknownClause = errors.New("unknown clause")
	// ErrMalformed is returned for values that are not a valid clause form.
	ErrMalformed = errors.New("malformed clause")
)

// Compile converts a tree into its clause-array form.
func Compile(n *core.Node) (any, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: empty expression", ErrMalformed)
	}
	switch n.Kind {
	case core.NodeLiteral:
		return n.Value, nil
	case core.NodeField, core.NodeIdentifier:
		return []any{fieldClause, n.Name}, nil
	}

	if n.Clause == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClause, n.Name)
	}
	out := make([]any, 0, len(n.Children)+2)
	out = append(out, n.Clause)
	for _, child := range n.Children {
		v, err := Compile(child)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if n.Options != nil {
		v, err := Compile(n.Options)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]any{optionsKey: v})
	}
	return out, nil
}

// Decompile converts a clause-array form back into a tree. Clause names are
// looked up in r; a nil registry means the builtin clauses.
func Decompile(v any, r *clause.Registry) (*core.Node, error) {
	if r == nil {
		r = clause.Default()
	}
	return decompile(v, r)
}

func decompile(v any, r *clause.Registry) (*core.Node, error) {
	var none token.Span
	switch v := v.(type) {
	case string, bool:
		return core.NewLiteral(v, none), nil
	case []any:
		return decompileClause(v, r)
	case nil:
		return nil, fmt.Errorf("%w: null", ErrMalformed)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("%w: unexpected %T", ErrMalformed, v)
	}
	return core.NewLiteral(f, none), nil
}

func decompileClause(form []any, r *clause.Registry) (*core.Node, error) {
	var none token.Span
	if len(form) == 0 {
		return nil, fmt.Errorf("%w: empty clause", ErrMalformed)
	}
	head, ok := form[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: clause name is %T", ErrMalformed, form[0])
	}

	if head == fieldClause {
		if len(form) != 2 {
			return nil, fmt.Errorf("%w: field takes one name", ErrMalformed)
		}
		name, ok := form[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: field name is %T", ErrMalformed, form[1])
		}
		return core.NewField(name, none), nil
	}

	def, ok := r.Lookup(head)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClause, head)
	}
	node := core.NewCall(def.Name, def.DisplayName, none)
	args := form[1:]
	if n := len(args); n > 0 {
		if opts, ok := args[n-1].(map[string]any); ok {
			value, present := opts[optionsKey]
			if !present {
				return nil, fmt.Errorf("%w: %s options without %q", ErrMalformed, head, optionsKey)
			}
			options, err := decompile(value, r)
			if err != nil {
				return nil, err
			}
			node.Options = options
			args = args[:n-1]
		}
	}
	for _, arg := range args {
		child, err := decompile(arg, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", head, err)
		}
		node.Children = append(node.Children, child)
	}

	if !def.CheckArity(len(node.Children)) {
		return nil, fmt.Errorf("%w: %s takes %s, got %d", ErrMalformed, head, arityText(def), len(node.Children))
	}
	if node.Options != nil {
		if !def.HasOptions {
			return nil, fmt.Errorf("%w: %s takes no options", ErrMalformed, head)
		}
		if (def.Variadic || len(def.OptionNames) > 0) && !isOptionName(def, node.Options) {
			return nil, fmt.Errorf("%w: %s options must name one of %v", ErrMalformed, head, def.OptionNames)
		}
	}
	return node, nil
}

func arityText(def *clause.Definition) string {
	switch {
	case def.Variadic:
		return fmt.Sprintf("at least %d arguments", len(def.Args))
	case def.Unary:
		return fmt.Sprintf("1 or %d arguments", len(def.Args))
	case len(def.Args) == 1:
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", len(def.Args))
}

// isOptionName reports whether options is a string literal naming one of
// the clause options, the only form the parser reads back as options.
func isOptionName(def *clause.Definition, options *core.Node) bool {
	name, ok := options.Value.(string)
	return ok && options.IsLiteral() && def.IsOption(name)
}

// Marshal compiles a tree to JSON.
func Marshal(n *core.Node) ([]byte, error) {
	v, err := Compile(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Unmarshal decompiles JSON produced by Marshal.
func Unmarshal(data []byte, r *clause.Registry) (*core.Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return Decompile(v, r)
}
