// Package parser turns formula source into expression trees.
//
// # Usage
//
//	tokens := parser.Tokenize(`CountIf([Total] > 0)`)
//	tree, diags := parser.Parse(tokens)
//	if core.HasErrors(diags) {
//	    // report diags; tree may be partial or nil
//	}
//
// # Grammar Overview
//
//	expr     → or
//	or       → and (OR and)*
//	and      → cmp (AND cmp)*
//	cmp      → add ((= | != | < | > | <= | >=) add)*
//	add      → mul ((+ | -) mul)*
//	mul      → unary ((* | /) unary)*
//	unary    → - unary | NOT unary | primary
//	primary  → NUMBER | STRING | TRUE | FALSE | FIELD
//	         | IDENT [ "(" [expr ("," expr)*] ")" ]
//	         | "(" expr ")"
//
// Parsing never stops at the first problem. Errors become diagnostics and
// the parser resynchronizes at the next comma or closing parenthesis.
// Unbalanced parentheses are the one unrecoverable case: the tree is nil.
package parser

import (
	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/i18n"
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

var defaultLocalizer core.Localizer = i18n.English()

// Option configures a Parser.
type Option func(*Parser)

// WithRegistry sets the clause registry used to resolve function names.
func WithRegistry(r *clause.Registry) Option {
	return func(p *Parser) {
		p.registry = r
	}
}

// WithLocalizer sets the localizer used to render diagnostic messages.
func WithLocalizer(l core.Localizer) Option {
	return func(p *Parser) {
		p.localizer = l
	}
}

// Parser parses one token stream into an expression tree.
type Parser struct {
	tokens []token.Token
	pos    int
	token  token.Token // current token
	peek   token.Token // lookahead token

	registry  *clause.Registry
	localizer core.Localizer
	diags     []core.Diagnostic
}

// NewParser creates a parser over tokens. Trivia and ILLEGAL tokens are
// dropped; ILLEGAL tokens and unclosed literals are reported as lexical
// errors.
func NewParser(tokens []token.Token, opts ...Option) *Parser {
	p := &Parser{
		registry:  clause.Default(),
		localizer: defaultLocalizer,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.tokens = p.significant(tokens)
	p.pos = -1
	p.nextToken()
	return p
}

// Parse parses tokens produced by Tokenize or TokenizeWithTrivia.
func Parse(tokens []token.Token, opts ...Option) (*core.Node, []core.Diagnostic) {
	return NewParser(tokens, opts...).ParseFormula()
}

// ParseString tokenizes and parses source.
func ParseString(source string, opts ...Option) (*core.Node, []core.Diagnostic) {
	return Parse(Tokenize(source), opts...)
}

// ParseFormula parses the whole token stream.
func (p *Parser) ParseFormula() (*core.Node, []core.Diagnostic) {
	if !p.checkBalance() {
		return nil, p.diags
	}
	if p.check(token.EOF) {
		p.addError(core.SyntaxError, p.token.Span(), core.MsgEmptyExpression)
		return nil, p.diags
	}

	expr := p.parseExpression()
	if !p.check(token.EOF) {
		p.addError(core.SyntaxError, p.token.Span(), core.MsgExpectedOperator, describe(p.token))
	}
	return expr, p.diags
}

// Diagnostics returns the diagnostics collected so far.
func (p *Parser) Diagnostics() []core.Diagnostic {
	return p.diags
}

// significant drops trivia and ILLEGAL tokens, reporting lexical problems,
// and guarantees a trailing EOF.
func (p *Parser) significant(tokens []token.Token) []token.Token {
	out := make([]token.Token, 0, len(tokens)+1)
	end := 0
	for _, tok := range tokens {
		end = tok.End
		switch {
		case tok.Type == token.ILLEGAL:
			p.addError(core.LexicalError, tok.Span(), core.MsgUnexpectedChar, tok.Text)
			continue
		case token.IsTrivia(tok.Type):
			continue
		case tok.Unterminated && tok.Type == token.STRING:
			p.addError(core.LexicalError, tok.Span(), core.MsgMissingClosingQuote)
		case tok.Unterminated && tok.Type == token.FIELD:
			p.addError(core.LexicalError, tok.Span(), core.MsgMissingClosingSquare)
		}
		if tok.Type == token.EOF {
			break
		}
		out = append(out, tok)
	}
	return append(out, token.Token{Type: token.EOF, Start: end, End: end})
}

// checkBalance reports unbalanced parentheses, which cannot be recovered from.
func (p *Parser) checkBalance() bool {
	var open []token.Token
	for _, tok := range p.tokens {
		switch tok.Type {
		case token.LPAREN:
			open = append(open, tok)
		case token.RPAREN:
			if len(open) == 0 {
				p.addError(core.SyntaxError, tok.Span(), core.MsgMissingOpeningParen)
				return false
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		last := p.tokens[len(p.tokens)-1]
		p.addError(core.SyntaxError, open[len(open)-1].Span().Cover(last.Span()), core.MsgMissingClosingParen)
		return false
	}
	return true
}

// ---------- Token Helpers ----------

// nextToken advances to the next token. The EOF token repeats forever.
func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.token = p.tokens[p.pos]
	if p.pos+1 < len(p.tokens) {
		p.peek = p.tokens[p.pos+1]
	} else {
		p.peek = p.token
	}
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// synchronize skips to the next comma or closing parenthesis at the
// current nesting level, leaving it unconsumed.
func (p *Parser) synchronize() {
	depth := 0
	for !p.check(token.EOF) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				return
			}
			depth--
		case token.COMMA:
			if depth == 0 {
				return
			}
		}
		p.nextToken()
	}
}
