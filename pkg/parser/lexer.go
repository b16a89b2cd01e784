package parser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapexpr/pkg/token"
)

// Lexer tokenizes formula source. It never fails: characters it cannot
// place become ILLEGAL tokens and unclosed literals are flagged.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination

	// trivia makes NextToken return WHITESPACE and COMMENT tokens.
	trivia bool
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	for {
		tok := l.scan()
		if l.trivia || !token.IsTrivia(tok.Type) {
			return tok
		}
	}
}

func (l *Lexer) scan() token.Token {
	start := l.pos
	if l.atEOF() {
		return token.Token{Type: token.EOF, Start: len(l.input), End: len(l.input)}
	}

	switch l.ch {
	case ' ', '\t', '\n', '\r':
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		return l.tokenFrom(token.WHITESPACE, start)
	case '+':
		return l.single(token.PLUS)
	case '-':
		return l.single(token.MINUS)
	case '*':
		return l.single(token.STAR)
	case '/':
		if l.peekChar() == '*' {
			return l.readBlockComment()
		}
		return l.single(token.SLASH)
	case '=':
		return l.single(token.EQ)
	case '!':
		if l.peekChar() == '=' {
			return l.double(token.NE)
		}
		return l.single(token.ILLEGAL)
	case '<':
		if l.peekChar() == '=' {
			return l.double(token.LE)
		}
		return l.single(token.LT)
	case '>':
		if l.peekChar() == '=' {
			return l.double(token.GE)
		}
		return l.single(token.GT)
	case ',':
		return l.single(token.COMMA)
	case '(':
		return l.single(token.LPAREN)
	case ')':
		return l.single(token.RPAREN)
	case '[':
		return l.readField()
	case '"', '\'':
		return l.readString()
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		return l.single(token.ILLEGAL)
	}

	if isDigit(l.ch) {
		return l.readNumber()
	}
	if r, size := l.currentRune(); isIdentStart(r) {
		return l.readIdentifier(size)
	}

	// One whole UTF-8 sequence per ILLEGAL token.
	_, size := l.currentRune()
	for i := 0; i < size; i++ {
		l.readChar()
	}
	return l.tokenFrom(token.ILLEGAL, start)
}

// single consumes one character as a token of type t.
func (l *Lexer) single(t token.TokenType) token.Token {
	start := l.pos
	l.readChar()
	return l.tokenFrom(t, start)
}

// double consumes two characters as a token of type t.
func (l *Lexer) double(t token.TokenType) token.Token {
	start := l.pos
	l.readChar()
	l.readChar()
	return l.tokenFrom(t, start)
}

func (l *Lexer) tokenFrom(t token.TokenType, start int) token.Token {
	return token.Token{Type: t, Start: start, End: l.pos, Text: l.input[start:l.pos]}
}

func (l *Lexer) currentRune() (rune, int) {
	if l.ch < utf8.RuneSelf {
		return rune(l.ch), 1
	}
	return utf8.DecodeRuneInString(l.input[l.pos:])
}

// readBlockComment reads a /* ... */ comment. An unclosed comment runs to
// the end of input.
func (l *Lexer) readBlockComment() token.Token {
	start := l.pos
	l.readChar() // skip '/'
	l.readChar() // skip '*'

	closed := false
	for !l.atEOF() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			closed = true
			break
		}
		l.readChar()
	}
	tok := l.tokenFrom(token.COMMENT, start)
	tok.Unterminated = !closed
	return tok
}

// readString reads a single- or double-quoted string with backslash escapes.
func (l *Lexer) readString() token.Token {
	start := l.pos
	quote := l.ch
	l.readChar() // skip opening quote

	var value strings.Builder
	closed := false
	for !l.atEOF() {
		if l.ch == quote {
			l.readChar()
			closed = true
			break
		}
		if l.ch == '\\' && l.readPos < len(l.input) {
			l.readChar()
			value.WriteByte(unescape(l.ch))
			l.readChar()
			continue
		}
		value.WriteByte(l.ch)
		l.readChar()
	}

	tok := l.tokenFrom(token.STRING, start)
	tok.Value = value.String()
	tok.Unterminated = !closed
	return tok
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return ch
	}
}

// readField reads a bracketed column reference. Inside the brackets a
// backslash escapes the next character.
func (l *Lexer) readField() token.Token {
	start := l.pos
	l.readChar() // skip '['

	var name strings.Builder
	closed := false
	for !l.atEOF() {
		if l.ch == ']' {
			l.readChar()
			closed = true
			break
		}
		if l.ch == '\\' && l.readPos < len(l.input) {
			l.readChar()
		}
		name.WriteByte(l.ch)
		l.readChar()
	}

	tok := l.tokenFrom(token.FIELD, start)
	tok.Value = name.String()
	tok.Unterminated = !closed
	return tok
}

// readIdentifier reads a word and classifies it as keyword or identifier.
func (l *Lexer) readIdentifier(size int) token.Token {
	start := l.pos
	for {
		for i := 0; i < size; i++ {
			l.readChar()
		}
		if l.atEOF() {
			break
		}
		r, n := l.currentRune()
		if !isIdentPart(r) {
			break
		}
		size = n
	}

	tok := l.tokenFrom(token.LookupIdent(l.input[start:l.pos]), start)
	if token.IsKeyword(tok.Type) {
		tok.Value = strings.ToLower(tok.Text)
	} else {
		tok.Value = tok.Text
	}
	return tok
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() token.Token {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// Exponent only when digits follow, so "2e" lexes as 2 then e.
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		signed := (next == '+' || next == '-') && l.readPos+1 < len(l.input) && isDigit(l.input[l.readPos+1])
		if isDigit(next) || signed {
			l.readChar() // skip 'e' or 'E'
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	tok := l.tokenFrom(token.NUMBER, start)
	v, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		tok.Type = token.ILLEGAL
		return tok
	}
	tok.Value = v
	return tok
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// IsIdentifier reports whether s lexes as a single bare identifier that is
// not a keyword.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) || i > 0 && !isIdentPart(r) {
			return false
		}
	}
	return token.LookupIdent(s) == token.IDENT
}

// Tokenize returns the significant tokens of input, ending with EOF.
func Tokenize(input string) []token.Token {
	return tokenize(NewLexer(input))
}

// TokenizeWithTrivia is like Tokenize but keeps WHITESPACE and COMMENT
// tokens, so the concatenated token texts reproduce the input.
func TokenizeWithTrivia(input string) []token.Token {
	l := NewLexer(input)
	l.trivia = true
	return tokenize(l)
}

func tokenize(l *Lexer) []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}
