// Package token defines the lexical vocabulary of MiniJava.
package token

import "fmt"

// Kind identifies the category of a lexed token.
type Kind int

const (
	EOF     Kind = iota // sentinel: end of input
	UNKNOWN             // character sequence the lexer could not classify

	// Literals
	IDENT  // variable / method / class name
	NUMBER // integer or real literal
	QUOTE  // string literal "..."

	// Keywords
	CLASS
	PUBLIC
	FINAL
	STATIC
	VOID
	MAIN
	STRING
	EXTENDS
	RETURN
	INT
	FLOAT
	BOOLEAN
	IF
	ELSE
	WHILE
	WRITE
	WRITELN
	READ
	LENGTH
	TRUE
	FALSE
	THIS
	NEW

	// Operators. The lexeme distinguishes members of a class (e.g. + vs -).
	RELOP    // == != < > <= >=
	ADDOP    // + - ||
	MULOP    // * / &&
	ASSIGNOP // =
	NOT      // !

	// Delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
	SEMI     // ;
	DOT      // .
)

var kindNames = [...]string{
	EOF:      "end of file",
	UNKNOWN:  "unknown token",
	IDENT:    "identifier",
	NUMBER:   "number",
	QUOTE:    "string literal",
	CLASS:    "class",
	PUBLIC:   "public",
	FINAL:    "final",
	STATIC:   "static",
	VOID:     "void",
	MAIN:     "main",
	STRING:   "String",
	EXTENDS:  "extends",
	RETURN:   "return",
	INT:      "int",
	FLOAT:    "float",
	BOOLEAN:  "boolean",
	IF:       "if",
	ELSE:     "else",
	WHILE:    "while",
	WRITE:    "write",
	WRITELN:  "writeln",
	READ:     "read",
	LENGTH:   "length",
	TRUE:     "true",
	FALSE:    "false",
	THIS:     "this",
	NEW:      "new",
	RELOP:    "relational operator",
	ADDOP:    "additive operator",
	MULOP:    "multiplicative operator",
	ASSIGNOP: "=",
	NOT:      "!",
	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	LBRACKET: "[",
	RBRACKET: "]",
	COMMA:    ",",
	SEMI:     ";",
	DOT:      ".",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps reserved words to their Kind. Keywords are case sensitive
// ("String" is a keyword, "string" is an identifier).
var Keywords = map[string]Kind{
	"class":   CLASS,
	"public":  PUBLIC,
	"final":   FINAL,
	"static":  STATIC,
	"void":    VOID,
	"main":    MAIN,
	"String":  STRING,
	"extends": EXTENDS,
	"return":  RETURN,
	"int":     INT,
	"float":   FLOAT,
	"boolean": BOOLEAN,
	"if":      IF,
	"else":    ELSE,
	"while":   WHILE,
	"write":   WRITE,
	"writeln": WRITELN,
	"read":    READ,
	"length":  LENGTH,
	"true":    TRUE,
	"false":   FALSE,
	"this":    THIS,
	"new":     NEW,
}

// Operators maps operator and delimiter spellings to their Kind. Two-character
// spellings must be tried before their one-character prefixes.
var Operators = map[string]Kind{
	"==": RELOP,
	"!=": RELOP,
	"<=": RELOP,
	">=": RELOP,
	"<":  RELOP,
	">":  RELOP,
	"||": ADDOP,
	"&&": MULOP,
	"+":  ADDOP,
	"-":  ADDOP,
	"*":  MULOP,
	"/":  MULOP,
	"=":  ASSIGNOP,
	"!":  NOT,
	"(":  LPAREN,
	")":  RPAREN,
	"{":  LBRACE,
	"}":  RBRACE,
	"[":  LBRACKET,
	"]":  RBRACKET,
	",":  COMMA,
	";":  SEMI,
	".":  DOT,
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Kind    Kind
	Lexeme  string  // the exact source text that was matched
	Value   int     // integer value of a NUMBER
	Real    float64 // value of a NUMBER with a fractional part
	Literal string  // text between the quotes of a QUOTE
	Line    int     // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-24s %-14q  line %d", t.Kind, t.Lexeme, t.Line)
}
