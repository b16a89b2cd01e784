// Package format prints formula trees back to source text.
//
// The output is canonical: single spaces around binary operators, display
// names for calls and only the parentheses precedence requires. Parsing
// the output yields a tree equal to the one printed.
package format

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
)

const indentSize = 2

// Printer handles formula formatting with optional line breaking.
type Printer struct {
	registry    *clause.Registry
	multiline   bool
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter(registry *clause.Registry, multiline bool) *Printer {
	return &Printer{
		registry:    registry,
		multiline:   multiline,
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the formatted output.
func (p *Printer) String() string {
	return strings.TrimRight(p.output.String(), "\n ")
}

func (p *Printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() {
	p.output.WriteByte(' ')
}

// formatList prints a list of items with separators.
// count is the number of items, format is called for each index,
// sep is the separator string, multiline adds newlines after separators.
func (p *Printer) formatList(count int, format func(i int), sep string, multiline bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
			if multiline {
				p.writeln()
			}
		}
	}
}
