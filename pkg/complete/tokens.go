package complete

import (
	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// TokenAt returns the index of the token under pos. When two tokens touch
// pos, the one ending there wins: that is the word the user just typed.
// EOF never matches.
func TokenAt(tokens []token.Token, pos int) (int, bool) {
	found := -1
	for i, tok := range tokens {
		if tok.Type == token.EOF || tok.Start > pos {
			break
		}
		if !tok.Span().Touches(pos) {
			continue
		}
		if tok.End == pos {
			return i, true
		}
		if found < 0 {
			found = i
		}
	}
	return found, found >= 0
}

// Call locates the function call enclosing a position.
type Call struct {
	Name     string
	NameSpan token.Span
	// ArgIndex is the zero-based argument the position falls in.
	ArgIndex int
}

// EnclosingCall finds the innermost call whose argument list contains the
// token at index. A grouping parenthesis that is not a call stops the
// search.
func EnclosingCall(tokens []token.Token, index int) (Call, bool) {
	depth := 0
	arg := 0
	for i := index - 1; i >= 0; i-- {
		switch tokens[i].Type {
		case token.RPAREN:
			depth++
		case token.COMMA:
			if depth == 0 {
				arg++
			}
		case token.LPAREN:
			if depth > 0 {
				depth--
				continue
			}
			if i == 0 || tokens[i-1].Type != token.IDENT {
				return Call{}, false
			}
			name := tokens[i-1]
			return Call{Name: name.StringValue(), NameSpan: name.Span(), ArgIndex: arg}, true
		}
	}
	return Call{}, false
}

// isWord reports whether a token can be completed to a name.
func isWord(t token.TokenType) bool {
	return t == token.IDENT || token.IsKeyword(t)
}
