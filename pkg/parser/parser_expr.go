package parser

import (
	"math"

	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// Precedence levels, lowest to highest. Binary operators are left
// associative: the right operand is parsed one level higher.
const (
	PrecedenceNone = iota
	PrecedenceOr
	PrecedenceAnd
	PrecedenceComparison // =, !=, <, >, <=, >=
	PrecedenceAddition   // +, -
	PrecedenceMultiply   // *, /
	PrecedenceUnary      // prefix - and NOT
	PrecedencePrimary    // literals, references, calls
)

// infixClauses maps infix operator tokens to clause names.
var infixClauses = map[token.TokenType]string{
	token.OR:    "or",
	token.AND:   "and",
	token.EQ:    "=",
	token.NE:    "!=",
	token.LT:    "<",
	token.GT:    ">",
	token.LE:    "<=",
	token.GE:    ">=",
	token.PLUS:  "+",
	token.MINUS: "-",
	token.STAR:  "*",
	token.SLASH: "/",
}

// clausePrecedence is the binding power of each operator clause.
var clausePrecedence = map[string]int{
	"or":  PrecedenceOr,
	"and": PrecedenceAnd,
	"not": PrecedenceUnary,
	"=":   PrecedenceComparison,
	"!=":  PrecedenceComparison,
	"<":   PrecedenceComparison,
	">":   PrecedenceComparison,
	"<=":  PrecedenceComparison,
	">=":  PrecedenceComparison,
	"+":   PrecedenceAddition,
	"-":   PrecedenceAddition,
	"*":   PrecedenceMultiply,
	"/":   PrecedenceMultiply,
}

// NodePrecedence returns how tightly n binds when printed as text.
func NodePrecedence(n *core.Node) int {
	switch {
	case n == nil:
		return PrecedencePrimary
	case n.Kind == core.NodeLiteral:
		if f, ok := n.Value.(float64); ok && math.Signbit(f) {
			return PrecedenceUnary
		}
		return PrecedencePrimary
	case n.Kind != core.NodeCall:
		return PrecedencePrimary
	case n.Clause == "-" && len(n.Children) == 1:
		return PrecedenceUnary
	}
	if prec, ok := clausePrecedence[n.Clause]; ok && len(n.Children) > 0 {
		return prec
	}
	return PrecedencePrimary
}

// InfixOperator returns the source spelling of a binary operator clause.
func InfixOperator(clause string) (string, bool) {
	for t, c := range infixClauses {
		if c == clause {
			return t.String(), true
		}
	}
	return "", false
}

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() *core.Node {
	return p.parseExpressionWithPrecedence(PrecedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) *core.Node {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	// Parse infix operators while their precedence is >= minPrecedence
	for {
		prec := p.getInfixPrecedence()
		if prec == PrecedenceNone || prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec)
	}

	return left
}

// parsePrefixExpr parses prefix operators and primary expressions.
func (p *Parser) parsePrefixExpr() *core.Node {
	switch p.token.Type {
	case token.NOT:
		op := p.token
		p.nextToken()
		operand := p.parseExpressionWithPrecedence(PrecedenceUnary)
		if operand == nil {
			return nil
		}
		return core.NewCall("not", "NOT", op.Span().Cover(operand.Range), operand)

	case token.MINUS:
		op := p.token
		p.nextToken()
		operand := p.parseExpressionWithPrecedence(PrecedenceUnary)
		if operand == nil {
			return nil
		}
		span := op.Span().Cover(operand.Range)
		if f, ok := operand.Value.(float64); ok && operand.IsLiteral() {
			return core.NewLiteral(-f, span)
		}
		return core.NewCall("-", "-", span, operand)

	default:
		return p.parsePrimary()
	}
}

// getInfixPrecedence returns the precedence of the current token as an
// infix operator, or PrecedenceNone.
func (p *Parser) getInfixPrecedence() int {
	clause, ok := infixClauses[p.token.Type]
	if !ok {
		return PrecedenceNone
	}
	return clausePrecedence[clause]
}

// parseInfixExpr parses the right operand of a binary operator. A missing
// right operand has already been reported, so the left side is returned.
func (p *Parser) parseInfixExpr(left *core.Node, prec int) *core.Node {
	op := p.token
	p.nextToken()

	right := p.parseExpressionWithPrecedence(prec + 1)
	if right == nil {
		return left
	}

	clause := infixClauses[op.Type]
	display := clause
	if def, ok := p.registry.Lookup(clause); ok {
		display = def.DisplayName
	}
	return core.NewCall(clause, display, left.Range.Cover(right.Range), left, right)
}
