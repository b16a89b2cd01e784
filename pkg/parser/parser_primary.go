package parser

import (
	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// Primary expression parsing: literals, column references, calls, groups.
//
// Grammar:
//
//	primary    → literal | field | identifier | call | "(" expr ")"
//	literal    → NUMBER | STRING | TRUE | FALSE
//	field      → "[" name "]"
//	call       → IDENT "(" [expr ("," expr)*] ")"

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() *core.Node {
	tok := p.token
	switch tok.Type {
	case token.NUMBER, token.STRING:
		p.nextToken()
		return core.NewLiteral(tok.Value, tok.Span())

	case token.TRUE:
		p.nextToken()
		return core.NewLiteral(true, tok.Span())

	case token.FALSE:
		p.nextToken()
		return core.NewLiteral(false, tok.Span())

	case token.FIELD:
		p.nextToken()
		return core.NewField(tok.StringValue(), tok.Span())

	case token.IDENT:
		if p.checkPeek(token.LPAREN) {
			return p.parseCall()
		}
		p.nextToken()
		return core.NewIdentifier(tok.StringValue(), tok.Span())

	case token.LPAREN:
		p.nextToken()
		expr := p.parseExpression()
		if expr == nil {
			p.match(token.RPAREN)
			return nil
		}
		if !p.match(token.RPAREN) {
			p.addError(core.SyntaxError, p.token.Span(), core.MsgExpectedOperator, describe(p.token))
			p.synchronize()
			p.match(token.RPAREN)
		}
		return expr

	default:
		p.addError(core.SyntaxError, tok.Span(), core.MsgExpectedExpression, describe(tok))
		p.synchronize()
		return nil
	}
}

// parseCall parses name "(" args ")". The name must be an aggregation or
// function; its arity is checked once the arguments parsed cleanly.
func (p *Parser) parseCall() *core.Node {
	nameTok := p.token
	name := nameTok.StringValue()
	p.nextToken() // name
	p.nextToken() // (

	var args []*core.Node
	clean := true
	if !p.check(token.RPAREN) {
		for {
			before := len(p.diags)
			arg := p.parseExpression()
			if arg != nil {
				args = append(args, arg)
			}
			if arg == nil || len(p.diags) > before {
				clean = false
			}
			if p.match(token.COMMA) {
				continue
			}
			if p.check(token.RPAREN) {
				break
			}
			p.addError(core.SyntaxError, p.token.Span(), core.MsgExpectedOperator, describe(p.token))
			clean = false
			p.synchronize()
			if p.match(token.COMMA) {
				continue
			}
			break
		}
	}

	end := p.token.Span()
	p.match(token.RPAREN)
	node := core.NewCall("", name, nameTok.Span().Cover(end), args...)

	def, ok := p.registry.LookupCallable(name)
	if !ok {
		p.addError(core.SyntaxError, nameTok.Span(), core.MsgUnknownFunction, name)
		return node
	}
	node.Clause = def.Name
	p.splitOptions(def, node)

	if clean && !def.CheckArity(len(node.Children)) {
		key := core.MsgArityExact
		if def.Variadic {
			key = core.MsgArityAtLeast
		}
		d := p.addError(core.SyntaxError, node.Range, key, def.DisplayName, len(def.Args))
		d.Clause = def.Name
	}
	return node
}

// splitOptions moves a trailing named-options argument into node.Options.
func (p *Parser) splitOptions(def *clause.Definition, node *core.Node) {
	n := len(node.Children)
	if !def.HasOptions || n == 0 {
		return
	}
	last := node.Children[n-1]

	if len(def.OptionNames) > 0 {
		s, isString := last.Value.(string)
		switch {
		case isString && last.IsLiteral() && def.IsOption(s) && n > len(def.Args):
		case !def.Variadic && n == len(def.Args)+1:
			d := p.addError(core.SyntaxError, last.Range, core.MsgInvalidOption, describeNode(last), def.DisplayName)
			d.Clause = def.Name
		default:
			return
		}
	} else if def.Variadic || n != len(def.Args)+1 {
		return
	}

	node.Options = last
	node.Children = node.Children[:n-1]
}

// describeNode names a node for messages.
func describeNode(n *core.Node) string {
	if s, ok := n.Value.(string); ok {
		return s
	}
	return n.String()
}
