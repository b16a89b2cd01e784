package format

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/parser"
)

const complexityThreshold = 5

var (
	stringEscaper = strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\t", `\t`,
		"\r", `\r`,
		"\b", `\b`,
		"\f", `\f`,
	)
	fieldEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)
)

func (p *Printer) formatExpr(n *core.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case core.NodeLiteral:
		p.formatLiteral(n)
	case core.NodeField:
		p.formatField(n.Name)
	case core.NodeIdentifier:
		if parser.IsIdentifier(n.Name) {
			p.write(n.Name)
		} else {
			p.formatField(n.Name)
		}
	case core.NodeCall:
		p.formatCall(n)
	}
}

func (p *Printer) exprComplexity(n *core.Node) int {
	if n == nil {
		return 0
	}
	if n.Kind != core.NodeCall {
		return 1
	}
	score := 1
	if _, infix := parser.InfixOperator(n.Clause); !infix {
		score = 2
	}
	for _, child := range n.Children {
		score += p.exprComplexity(child)
	}
	return score + p.exprComplexity(n.Options)
}

func isLogicalOp(clause string) bool {
	return clause == "and" || clause == "or"
}

// Literal formats a literal value the way the lexer reads it back.
func Literal(v any) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return `"` + stringEscaper.Replace(v) + `"`
	case bool:
		if v {
			return "True"
		}
		return "False"
	}
	return ""
}

// Field formats a bracketed column reference.
func Field(name string) string {
	return "[" + fieldEscaper.Replace(name) + "]"
}

func (p *Printer) formatLiteral(n *core.Node) {
	p.write(Literal(n.Value))
}

func (p *Printer) formatField(name string) {
	p.write(Field(name))
}

func (p *Printer) formatCall(n *core.Node) {
	switch {
	case n.Clause == "not" && len(n.Children) == 1:
		p.formatNot(n)
	case n.Clause == "-" && len(n.Children) == 1:
		p.formatNegation(n)
	case len(n.Children) >= 2 && n.Options == nil:
		if op, ok := parser.InfixOperator(n.Clause); ok {
			p.formatBinaryExpr(n, op)
			return
		}
		p.formatFuncCall(n)
	default:
		p.formatFuncCall(n)
	}
}

func (p *Printer) formatBinaryExpr(n *core.Node, op string) {
	shouldBreak := p.multiline && isLogicalOp(n.Clause) && p.exprComplexity(n) > complexityThreshold
	prec := parser.NodePrecedence(n)

	for i, child := range n.Children {
		if i > 0 {
			if shouldBreak {
				p.writeln()
			} else {
				p.space()
			}
			p.write(op)
			p.space()
		}
		childPrec := parser.NodePrecedence(child)
		p.formatOperand(child, childPrec < prec || (i > 0 && childPrec == prec))
	}
}

func (p *Printer) formatNot(n *core.Node) {
	p.write("NOT ")
	operand := n.Children[0]
	p.formatOperand(operand, parser.NodePrecedence(operand) < parser.PrecedenceUnary)
}

func (p *Printer) formatNegation(n *core.Node) {
	p.write("-")
	operand := n.Children[0]
	// "--" would read back as a folded literal
	p.formatOperand(operand, parser.NodePrecedence(operand) <= parser.PrecedenceUnary)
}

func (p *Printer) formatOperand(n *core.Node, parens bool) {
	if !parens {
		p.formatExpr(n)
		return
	}
	p.write("(")
	p.formatExpr(n)
	p.write(")")
}

func (p *Printer) formatFuncCall(n *core.Node) {
	p.write(p.callName(n))
	p.write("(")

	args := n.Children
	if n.Options != nil {
		args = append(args[:len(args):len(args)], n.Options)
	}
	if len(args) == 0 {
		p.write(")")
		return
	}

	if !p.multiline || p.exprComplexity(n) <= complexityThreshold {
		p.formatList(len(args), func(i int) { p.formatExpr(args[i]) }, ", ", false)
		p.write(")")
		return
	}

	p.writeln()
	p.indent()
	p.formatList(len(args), func(i int) { p.formatExpr(args[i]) }, ",", true)
	p.dedent()
	p.writeln()
	p.write(")")
}

// callName is the display name of a call. Unknown functions keep the
// name they were typed with.
func (p *Printer) callName(n *core.Node) string {
	if n.Clause != "" {
		if def, ok := p.registry.Lookup(n.Clause); ok {
			return def.DisplayName
		}
	}
	if n.Name != "" {
		return n.Name
	}
	return n.Clause
}
