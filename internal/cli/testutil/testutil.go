// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapexpr/internal/cli/output"
)

// MetadataYAML describes the tables of the test project.
const MetadataYAML = `engine: sqlite
features: [percentile-aggregations]
tables:
  orders:
    - name: TOTAL
      display_name: Total
      type: number
    - name: SUBTOTAL
      display_name: Subtotal
      type: number
    - name: CREATED_AT
      display_name: Created At
      type: datetime
    - name: PRODUCT_NAME
      display_name: Product Name
      type: string
  people:
    - name: NAME
      type: string
`

// SetupTestProject creates a temporary project with a config file, a
// metadata file and a formulas directory, and returns its root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "formulas"), 0755); err != nil {
		t.Fatalf("failed to create formulas directory: %v", err)
	}

	files := map[string]string{
		"leapexpr.yaml": "metadata_file: metadata.yaml\ntable: orders\n",
		"metadata.yaml": MetadataYAML,
		filepath.Join("formulas", "revenue.expr"):  "Sum([Total])\n",
		filepath.Join("formulas", "big.expr"):      "CountIf([Total] > 100)\n",
		filepath.Join("formulas", "broken.expr"):   "Sum([Nope])\n",
		filepath.Join("formulas", "discount.expr"): "[Total] - [Subtotal]\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
