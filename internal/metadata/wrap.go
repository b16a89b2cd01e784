package metadata

import (
	"context"
	"sync"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// Overlay serves the columns of a provider with a fixed feature set.
type Overlay struct {
	Provider
	FeatureSet core.FeatureSet
}

// Features implements Provider.
func (o *Overlay) Features(context.Context) (core.FeatureSet, error) {
	return o.FeatureSet, nil
}

// Cache memoizes the column lookups of a provider. Failed lookups are not
// cached.
type Cache struct {
	p Provider

	mu      sync.Mutex
	columns map[string][]core.Column
}

// NewCache wraps p.
func NewCache(p Provider) *Cache {
	return &Cache{p: p, columns: make(map[string][]core.Column)}
}

// Columns implements Provider.
func (c *Cache) Columns(ctx context.Context, table string) ([]core.Column, error) {
	c.mu.Lock()
	cols, ok := c.columns[table]
	c.mu.Unlock()
	if ok {
		return cols, nil
	}

	cols, err := c.p.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.columns[table] = cols
	c.mu.Unlock()
	return cols, nil
}

// Features implements Provider.
func (c *Cache) Features(ctx context.Context) (core.FeatureSet, error) {
	return c.p.Features(ctx)
}

// Invalidate drops every cached lookup.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.columns = make(map[string][]core.Column)
	c.mu.Unlock()
}

var (
	_ Provider = (*Overlay)(nil)
	_ Provider = (*Cache)(nil)
)
