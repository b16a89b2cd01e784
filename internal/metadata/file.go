package metadata

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// File is the on-disk metadata format.
//
//	engine: duckdb
//	features: [percentile-aggregations]
//	tables:
//	  orders:
//	    - name: TOTAL
//	      display_name: Total
//	      type: number
type File struct {
	Engine   string                   `yaml:"engine"`
	Features []string                 `yaml:"features"`
	Tables   map[string][]core.Column `yaml:"tables"`
}

// ParseFile decodes metadata YAML.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	for table, cols := range f.Tables {
		for i, c := range cols {
			if c.Name == "" {
				return nil, fmt.Errorf("table %s: column %d has no name", table, i+1)
			}
		}
	}
	return &f, nil
}

// FileProvider serves metadata from a YAML file. Reload swaps in a fresh
// snapshot; readers never see a partial one.
type FileProvider struct {
	path string

	mu       sync.RWMutex
	snapshot *File
}

// LoadFile reads a metadata file.
func LoadFile(path string) (*FileProvider, error) {
	p := &FileProvider{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Path returns the file the provider reads.
func (p *FileProvider) Path() string {
	return p.path
}

// Reload re-reads the file. On failure the previous snapshot is kept.
func (p *FileProvider) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return &ProviderError{Op: "load", Source: p.path, Err: err}
	}
	f, err := ParseFile(data)
	if err != nil {
		return &ProviderError{Op: "load", Source: p.path, Err: err}
	}
	if f.Engine != "" {
		if _, err := EngineFeatures(f.Engine); err != nil {
			return &ProviderError{Op: "load", Source: p.path, Err: err}
		}
	}

	p.mu.Lock()
	p.snapshot = f
	p.mu.Unlock()
	return nil
}

func (p *FileProvider) current() *File {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Columns implements Provider.
func (p *FileProvider) Columns(_ context.Context, table string) ([]core.Column, error) {
	cols, ok := p.current().Tables[table]
	if !ok {
		return nil, &ProviderError{Op: "columns", Source: p.path, Err: fmt.Errorf("%w: %s", ErrTableNotFound, table)}
	}
	out := make([]core.Column, len(cols))
	copy(out, cols)
	return out, nil
}

// Features implements Provider. The engine's capabilities are combined
// with the features listed in the file.
func (p *FileProvider) Features(context.Context) (core.FeatureSet, error) {
	f := p.current()
	if f.Engine == "" {
		return core.NewFeatureSet(f.Features...), nil
	}
	fs, err := EngineFeatures(f.Engine, f.Features...)
	if err != nil {
		return nil, &ProviderError{Op: "features", Source: p.path, Err: err}
	}
	return fs, nil
}

// Tables lists the table names in the file.
func (p *FileProvider) Tables() []string {
	f := p.current()
	out := make([]string, 0, len(f.Tables))
	for name := range f.Tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var _ Provider = (*FileProvider)(nil)
