package format

import (
	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

type config struct {
	registry  *clause.Registry
	multiline bool
}

// Option configures formatting.
type Option func(*config)

// WithRegistry sets the registry display names are taken from.
func WithRegistry(r *clause.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// Multiline breaks long AND/OR chains and long calls over several
// indented lines. The output still parses to the same tree.
func Multiline() Option {
	return func(c *config) {
		c.multiline = true
	}
}

// Format prints a formula tree. A nil tree formats as the empty string.
func Format(n *core.Node, opts ...Option) string {
	if n == nil {
		return ""
	}
	cfg := config{registry: clause.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := newPrinter(cfg.registry, cfg.multiline)
	p.formatExpr(n)
	return p.String()
}
