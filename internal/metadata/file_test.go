package metadata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

const sampleYAML = `
engine: sqlite
features: [regex]
tables:
  orders:
    - name: TOTAL
      display_name: Total
      type: number
    - name: created_at
      type: timestamp
    - name: note
  people:
    - name: name
      type: string
`

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "metadata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	p, err := LoadFile(writeFile(t, t.TempDir(), sampleYAML))
	require.NoError(t, err)
	ctx := context.Background()

	cols, err := p.Columns(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, []core.Column{
		{Name: "TOTAL", DisplayName: "Total", Type: core.TypeNumber},
		{Name: "created_at", Type: core.TypeDateTime},
		{Name: "note", Type: core.TypeAny},
	}, cols)

	fs, err := p.Features(ctx)
	require.NoError(t, err)
	assert.True(t, fs.Has(clause.FeatureRegex))
	assert.True(t, fs.Has(clause.FeatureOffset))
	assert.False(t, fs.Has(clause.FeaturePercentile))

	assert.Equal(t, []string{"orders", "people"}, p.Tables())

	_, err = p.Columns(ctx, "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad yaml", "tables: [", "failed to parse metadata"},
		{"bad type", "tables:\n  t:\n    - name: a\n      type: blob\n", "unknown result type"},
		{"missing name", "tables:\n  t:\n    - type: number\n", "has no name"},
		{"bad engine", "engine: oracle\n", "unsupported engine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, t.TempDir(), tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReloadKeepsSnapshotOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, sampleYAML)
	p, err := LoadFile(path)
	require.NoError(t, err)

	writeFile(t, dir, "tables: [")
	require.Error(t, p.Reload())

	cols, err := p.Columns(context.Background(), "people")
	require.NoError(t, err)
	assert.Len(t, cols, 1)

	writeFile(t, dir, "tables:\n  people:\n    - name: a\n    - name: b\n")
	require.NoError(t, p.Reload())
	cols, err = p.Columns(context.Background(), "people")
	require.NoError(t, err)
	assert.Len(t, cols, 2)

	fs, err := p.Features(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fs.Names(), "no engine means only the listed features")
}
