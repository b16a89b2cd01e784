package clause

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// Registry is an immutable set of clause definitions.
type Registry struct {
	byName    map[string]*Definition
	byDisplay map[string]*Definition // case-folded display name
	ordered   []*Definition          // sorted by canonical name
}

// NewRegistry builds a registry. Canonical names must be unique, and so
// must display names once case is folded.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{
		byName:    make(map[string]*Definition, len(defs)),
		byDisplay: make(map[string]*Definition, len(defs)),
		ordered:   make([]*Definition, 0, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("clause with display name %q has no name", d.DisplayName)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate clause %q", d.Name)
		}
		key := fold(d.DisplayName)
		if other, dup := r.byDisplay[key]; dup {
			return nil, fmt.Errorf("clause %q reuses display name %q of %q", d.Name, d.DisplayName, other.Name)
		}
		r.byName[d.Name] = d
		r.byDisplay[key] = d
		r.ordered = append(r.ordered, d)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].Name < r.ordered[j].Name
	})
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. Used for the
// builtin table.
func MustRegistry(defs ...*Definition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// fold returns the case-insensitive lookup key for a name. A Caser is
// stateful, so one is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Lookup returns a clause by canonical name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// LookupDisplay returns a clause by display name, ignoring case.
func (r *Registry) LookupDisplay(display string) (*Definition, bool) {
	d, ok := r.byDisplay[fold(display)]
	return d, ok
}

// LookupCallable returns a clause that can be called by name, i.e. an
// aggregation or function, ignoring case.
func (r *Registry) LookupCallable(display string) (*Definition, bool) {
	d, ok := r.LookupDisplay(display)
	if !ok || d.Category == CategoryOperator {
		return nil, false
	}
	return d, true
}

// Len returns the number of clauses.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// Filter selects clauses.
type Filter func(*Definition) bool

// All returns the clauses accepted by every filter, sorted by canonical name.
func (r *Registry) All(filters ...Filter) []*Definition {
	out := make([]*Definition, 0, len(r.ordered))
outer:
	for _, d := range r.ordered {
		for _, f := range filters {
			if !f(d) {
				continue outer
			}
		}
		out = append(out, d)
	}
	return out
}

// InCategory accepts clauses of any of the given categories.
func InCategory(cats ...Category) Filter {
	return func(d *Definition) bool {
		for _, c := range cats {
			if d.Category == c {
				return true
			}
		}
		return false
	}
}

// Supported accepts clauses whose required feature is in fs.
func Supported(fs core.FeatureSet) Filter {
	return func(d *Definition) bool {
		return fs.Has(d.RequiredFeature)
	}
}
