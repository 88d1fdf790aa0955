package compiler

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"minijava/pkg/token"
)

// kinds strips everything but the kind from a token stream.
func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token.Token
	}{
		{
			name:  "Empty",
			input: "",
			expected: []token.Token{
				{Kind: token.EOF, Line: 1},
			},
		},
		{
			name:  "Operators",
			input: "== != <= >= < > || && + - * / = !",
			expected: []token.Token{
				{Kind: token.RELOP, Lexeme: "==", Line: 1},
				{Kind: token.RELOP, Lexeme: "!=", Line: 1},
				{Kind: token.RELOP, Lexeme: "<=", Line: 1},
				{Kind: token.RELOP, Lexeme: ">=", Line: 1},
				{Kind: token.RELOP, Lexeme: "<", Line: 1},
				{Kind: token.RELOP, Lexeme: ">", Line: 1},
				{Kind: token.ADDOP, Lexeme: "||", Line: 1},
				{Kind: token.MULOP, Lexeme: "&&", Line: 1},
				{Kind: token.ADDOP, Lexeme: "+", Line: 1},
				{Kind: token.ADDOP, Lexeme: "-", Line: 1},
				{Kind: token.MULOP, Lexeme: "*", Line: 1},
				{Kind: token.MULOP, Lexeme: "/", Line: 1},
				{Kind: token.ASSIGNOP, Lexeme: "=", Line: 1},
				{Kind: token.NOT, Lexeme: "!", Line: 1},
				{Kind: token.EOF, Line: 1},
			},
		},
		{
			name:  "Delimiters",
			input: "(){}[],;.",
			expected: []token.Token{
				{Kind: token.LPAREN, Lexeme: "(", Line: 1},
				{Kind: token.RPAREN, Lexeme: ")", Line: 1},
				{Kind: token.LBRACE, Lexeme: "{", Line: 1},
				{Kind: token.RBRACE, Lexeme: "}", Line: 1},
				{Kind: token.LBRACKET, Lexeme: "[", Line: 1},
				{Kind: token.RBRACKET, Lexeme: "]", Line: 1},
				{Kind: token.COMMA, Lexeme: ",", Line: 1},
				{Kind: token.SEMI, Lexeme: ";", Line: 1},
				{Kind: token.DOT, Lexeme: ".", Line: 1},
				{Kind: token.EOF, Line: 1},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "final class String string main x_1",
			expected: []token.Token{
				{Kind: token.FINAL, Lexeme: "final", Line: 1},
				{Kind: token.CLASS, Lexeme: "class", Line: 1},
				{Kind: token.STRING, Lexeme: "String", Line: 1},
				{Kind: token.IDENT, Lexeme: "string", Line: 1},
				{Kind: token.MAIN, Lexeme: "main", Line: 1},
				{Kind: token.IDENT, Lexeme: "x_1", Line: 1},
				{Kind: token.EOF, Line: 1},
			},
		},
		{
			name:  "Numbers",
			input: "42 3.14 7.",
			expected: []token.Token{
				{Kind: token.NUMBER, Lexeme: "42", Value: 42, Real: 42, Line: 1},
				{Kind: token.NUMBER, Lexeme: "3.14", Real: 3.14, Line: 1},
				{Kind: token.NUMBER, Lexeme: "7", Value: 7, Real: 7, Line: 1},
				{Kind: token.DOT, Lexeme: ".", Line: 1},
				{Kind: token.EOF, Line: 1},
			},
		},
		{
			name:  "String Literal",
			input: `write("a b");`,
			expected: []token.Token{
				{Kind: token.WRITE, Lexeme: "write", Line: 1},
				{Kind: token.LPAREN, Lexeme: "(", Line: 1},
				{Kind: token.QUOTE, Lexeme: `"a b"`, Literal: "a b", Line: 1},
				{Kind: token.RPAREN, Lexeme: ")", Line: 1},
				{Kind: token.SEMI, Lexeme: ";", Line: 1},
				{Kind: token.EOF, Line: 1},
			},
		},
		{
			name:  "Comments and Lines",
			input: "a // line\n/* block\nstill */ b",
			expected: []token.Token{
				{Kind: token.IDENT, Lexeme: "a", Line: 1},
				{Kind: token.IDENT, Lexeme: "b", Line: 3},
				{Kind: token.EOF, Line: 3},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.DeepEqual(t, Lex(tc.input), tc.expected)
		})
	}
}

func TestLexUnknown(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		lexeme string
	}{
		{"Stray Character", "@", "@"},
		{"Single Pipe", "|", "|"},
		{"Single Ampersand", "&", "&"},
		{"Unterminated String", "\"abc\nx", `"abc`},
		{"Unterminated Comment", "/* never closed", "/*"},
		{"Long Identifier", strings.Repeat("a", MaxIdentLength+1), strings.Repeat("a", MaxIdentLength+1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks := Lex(tc.input)
			assert.Equal(t, toks[0].Kind, token.UNKNOWN)
			assert.Equal(t, toks[0].Lexeme, tc.lexeme)
		})
	}

	t.Run("Longest Accepted Identifier", func(t *testing.T) {
		toks := Lex(strings.Repeat("b", MaxIdentLength))
		assert.Equal(t, toks[0].Kind, token.IDENT)
	})
}

func TestLexerPullInterface(t *testing.T) {
	var src TokenSource = NewLexer("x = 5;\nwrite(\"hi\");")

	src.Advance()
	assert.Equal(t, src.Kind(), token.IDENT)
	assert.Equal(t, src.Lexeme(), "x")

	src.Advance()
	src.Advance()
	assert.Equal(t, src.Kind(), token.NUMBER)
	assert.Equal(t, src.Value(), 5)
	assert.Equal(t, src.Real(), 5.0)

	for src.Kind() != token.QUOTE {
		src.Advance()
	}
	assert.Equal(t, src.Literal(), "hi")
	assert.Equal(t, src.Line(), 2)

	for src.Kind() != token.EOF {
		src.Advance()
	}
	src.Advance()
	assert.Equal(t, src.Kind(), token.EOF)
}

func TestLexProgramKinds(t *testing.T) {
	got := kinds(Lex("public static void main(String[] args) { }"))
	assert.DeepEqual(t, got, []token.Kind{
		token.PUBLIC, token.STATIC, token.VOID, token.MAIN,
		token.LPAREN, token.STRING, token.LBRACKET, token.RBRACKET, token.IDENT, token.RPAREN,
		token.LBRACE, token.RBRACE, token.EOF,
	})
}
