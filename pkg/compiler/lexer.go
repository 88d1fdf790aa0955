package compiler

import (
	"strconv"
	"unicode"

	"minijava/pkg/token"
)

// MaxIdentLength is the longest identifier the lexer accepts; longer ones
// come back as token.UNKNOWN.
const MaxIdentLength = 31

// TokenSource is the pull interface the parser reads tokens through. Advance
// moves to the next token; the accessors describe the current one.
type TokenSource interface {
	Advance()
	Kind() token.Kind
	Lexeme() string
	Value() int
	Real() float64
	Literal() string
	Line() int
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	tok  token.Token
}

// NewLexer returns a lexer positioned before the first token.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1}
}

func (l *Lexer) Advance() { l.tok = l.nextToken() }
func (l *Lexer) Token() token.Token { return l.tok }
func (l *Lexer) Kind() token.Kind { return l.tok.Kind }
func (l *Lexer) Lexeme() string { return l.tok.Lexeme }
func (l *Lexer) Value() int { return l.tok.Value }
func (l *Lexer) Real() float64 { return l.tok.Real }
func (l *Lexer) Literal() string { return l.tok.Literal }
func (l *Lexer) Line() int { return l.tok.Line }

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening "//" must already have been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment discards everything up to and including the closing "*/".
// The opening "/*" must already have been consumed. It reports false when the
// input ends first.
func (l *Lexer) skipBlockComment() bool {
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance() // *
			l.advance() // /
			return true
		}
		l.advance()
	}
	return false
}

// scanIdent collects a full identifier or keyword token.
// The first letter must still be at l.peek().
func (l *Lexer) scanIdent() token.Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	kind := token.IDENT
	if kw, ok := token.Keywords[lexeme]; ok {
		kind = kw
	} else if len(lexeme) > MaxIdentLength {
		kind = token.UNKNOWN
	}
	return token.Token{Kind: kind, Lexeme: lexeme, Line: line}
}

// scanNumber collects an integer literal, or a real literal when the digits
// are followed by '.' and at least one more digit.
// The first digit must still be at l.peek().
func (l *Lexer) scanNumber() token.Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && unicode.IsDigit(l.peek2()) {
		l.advance() // consume '.'
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			l.advance()
		}
		lexeme := string(l.src[start:l.pos])
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return token.Token{Kind: token.UNKNOWN, Lexeme: lexeme, Line: line}
		}
		return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Real: f, Line: line}
	}

	lexeme := string(l.src[start:l.pos])
	n, err := strconv.Atoi(lexeme)
	if err != nil {
		return token.Token{Kind: token.UNKNOWN, Lexeme: lexeme, Line: line}
	}
	return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Value: n, Real: float64(n), Line: line}
}

// scanString collects a string literal "..." on a single line. There are no
// escape sequences; the text between the quotes is taken as is.
func (l *Lexer) scanString() token.Token {
	line := l.line
	start := l.pos
	l.advance() // consume opening "

	for l.pos < len(l.src) && l.peek() != '"' && l.peek() != '\n' {
		l.advance()
	}
	if l.peek() != '"' {
		return token.Token{Kind: token.UNKNOWN, Lexeme: string(l.src[start:l.pos]), Line: line}
	}
	l.advance() // consume closing "

	lexeme := string(l.src[start:l.pos])
	return token.Token{
		Kind:    token.QUOTE,
		Lexeme:  lexeme,
		Literal: lexeme[1 : len(lexeme)-1],
		Line:    line,
	}
}

// nextToken skips whitespace/comments and returns the next Token.
func (l *Lexer) nextToken() token.Token {
	// Skip whitespace and both comment styles in a loop so that
	// a comment followed immediately by more whitespace is handled.
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return token.Token{Kind: token.EOF, Line: l.line}
		}
		if l.peek() == '/' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		if l.peek() == '/' && l.peek2() == '*' {
			line := l.line
			l.advance()
			l.advance()
			if !l.skipBlockComment() {
				return token.Token{Kind: token.UNKNOWN, Lexeme: "/*", Line: line}
			}
			continue
		}
		break
	}

	ch := l.peek()
	line := l.line

	switch {
	case unicode.IsLetter(ch):
		return l.scanIdent()
	case unicode.IsDigit(ch):
		return l.scanNumber()
	case ch == '"':
		return l.scanString()
	}

	// lookahead: distinguish = vs ==, < vs <=, | vs ||
	if l.pos+1 < len(l.src) {
		two := string(l.src[l.pos : l.pos+2])
		if kind, ok := token.Operators[two]; ok {
			l.advance()
			l.advance()
			return token.Token{Kind: kind, Lexeme: two, Line: line}
		}
	}
	l.advance()
	one := string(ch)
	if kind, ok := token.Operators[one]; ok {
		return token.Token{Kind: kind, Lexeme: one, Line: line}
	}
	return token.Token{Kind: token.UNKNOWN, Lexeme: one, Line: line}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// Characters the lexer cannot classify come back as token.UNKNOWN; the parser
// reports them.
func Lex(src string) []token.Token {
	l := NewLexer(src)
	var tokens []token.Token
	for {
		l.Advance()
		tokens = append(tokens, l.tok)
		if l.tok.Kind == token.EOF {
			return tokens
		}
	}
}
