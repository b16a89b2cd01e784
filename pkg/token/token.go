// Package token defines the token types of the formula language.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads clearly at call sites
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Trivia, only emitted by TokenizeWithTrivia
	WHITESPACE
	COMMENT // /* ... */

	// Literals
	IDENT  // Total, now, CountIf
	FIELD  // [Column Name]
	NUMBER // 123, 45.67, .5, 1e10
	STRING // "hello", 'hello'

	// Operators
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	EQ     // =
	NE     // !=
	LT     // <
	GT     // >
	LE     // <=
	GE     // >=
	COMMA  // ,
	LPAREN // (
	RPAREN // )

	// Keywords (case-insensitive)
	AND
	FALSE
	NOT
	OR
	TRUE
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	ILLEGAL:    "ILLEGAL",
	WHITESPACE: "WHITESPACE",
	COMMENT:    "COMMENT",

	IDENT:  "IDENT",
	FIELD:  "FIELD",
	NUMBER: "NUMBER",
	STRING: "STRING",

	PLUS:   "+",
	MINUS:  "-",
	STAR:   "*",
	SLASH:  "/",
	EQ:     "=",
	NE:     "!=",
	LT:     "<",
	GT:     ">",
	LE:     "<=",
	GE:     ">=",
	COMMA:  ",",
	LPAREN: "(",
	RPAREN: ")",

	AND:   "AND",
	FALSE: "FALSE",
	NOT:   "NOT",
	OR:    "OR",
	TRUE:  "TRUE",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"and":   AND,
	"false": FALSE,
	"not":   NOT,
	"or":    OR,
	"true":  TRUE,
}

// LookupIdent returns the keyword token type for ident, or IDENT.
// Keywords match regardless of case.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= AND && t <= TRUE
}

// IsOperator returns true if the token type is an operator or punctuation.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= RPAREN
}

// IsTrivia reports whether the token carries no syntax.
func IsTrivia(t TokenType) bool {
	return t == WHITESPACE || t == COMMENT
}

// Token represents a lexical token with its source range.
type Token struct {
	Type  TokenType
	Start int    // byte offset of the first character
	End   int    // byte offset one past the last character
	Text  string // raw source text
	// Value is the decoded payload: float64 for NUMBER, the unescaped
	// string for STRING and FIELD, the lowercase word for keywords and
	// the name for IDENT.
	Value any
	// Unterminated is set on STRING and FIELD tokens missing their
	// closing delimiter.
	Unterminated bool
}

// Span returns the token's source range.
func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.End}
}

// StringValue returns Value as a string, or "" if it is not one.
func (t Token) StringValue() string {
	s, _ := t.Value.(string)
	return s
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q [%d,%d)", t.Type, t.Text, t.Start, t.End)
}
