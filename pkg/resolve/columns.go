package resolve

import (
	"golang.org/x/text/cases"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// columnIndex finds columns by name. Exact names win over display names,
// which win over case-insensitive matches of either.
type columnIndex struct {
	byName    map[string]core.Column
	byDisplay map[string]core.Column
	byFolded  map[string]core.Column
}

func newColumnIndex(columns []core.Column) *columnIndex {
	idx := &columnIndex{
		byName:    make(map[string]core.Column, len(columns)),
		byDisplay: make(map[string]core.Column, len(columns)),
		byFolded:  make(map[string]core.Column, len(columns)),
	}
	folder := cases.Fold()
	for _, c := range columns {
		if _, dup := idx.byName[c.Name]; !dup {
			idx.byName[c.Name] = c
		}
		if c.DisplayName != "" {
			if _, dup := idx.byDisplay[c.DisplayName]; !dup {
				idx.byDisplay[c.DisplayName] = c
			}
		}
		for _, key := range []string{c.Name, c.DisplayName} {
			if key == "" {
				continue
			}
			folded := folder.String(key)
			if _, dup := idx.byFolded[folded]; !dup {
				idx.byFolded[folded] = c
			}
		}
	}
	return idx
}

func (idx *columnIndex) lookup(name string) (core.Column, bool) {
	if c, ok := idx.byName[name]; ok {
		return c, true
	}
	if c, ok := idx.byDisplay[name]; ok {
		return c, true
	}
	c, ok := idx.byFolded[cases.Fold().String(name)]
	return c, ok
}

// LookupColumn finds a column the way formulas reference it.
func LookupColumn(columns []core.Column, name string) (core.Column, bool) {
	return newColumnIndex(columns).lookup(name)
}
