package compiler

import (
	"fmt"
	"strings"

	"minijava/pkg/symtab"
	"minijava/pkg/token"
)

// UnexpectedTokenError reports a token outside the set the grammar allows at
// that point.
type UnexpectedTokenError struct {
	Line     int
	Expected []token.Kind
	Actual   token.Kind
	Lexeme   string
}

func (e *UnexpectedTokenError) Error() string {
	if len(e.Expected) == 1 && e.Expected[0] == token.EOF {
		return fmt.Sprintf("line %d: unexpected token: unused tokens after end of program, found %s %q",
			e.Line, e.Actual, e.Lexeme)
	}
	names := make([]string, len(e.Expected))
	for i, k := range e.Expected {
		names[i] = k.String()
	}
	return fmt.Sprintf("line %d: unexpected token: expected %s, found %s %q",
		e.Line, strings.Join(names, " or "), e.Actual, e.Lexeme)
}

// UndeclaredIdentifierError reports a name with no visible declaration.
type UndeclaredIdentifierError struct {
	Line   int
	Lexeme string
}

func (e *UndeclaredIdentifierError) Error() string {
	return fmt.Sprintf("line %d: undeclared identifier: %s", e.Line, e.Lexeme)
}

// DuplicateDeclarationError reports a name declared twice in one scope.
type DuplicateDeclarationError struct {
	Line int
	Err  *symtab.DuplicateError
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("line %d: duplicate declaration: %s already declared at depth %d",
		e.Line, e.Err.Lexeme, e.Err.Depth)
}

func (e *DuplicateDeclarationError) Unwrap() error { return e.Err }

// InvalidConstructError reports a syntactically valid construct the
// translator refuses.
type InvalidConstructError struct {
	Line int
	Msg  string
}

func (e *InvalidConstructError) Error() string {
	return fmt.Sprintf("line %d: invalid construct: %s", e.Line, e.Msg)
}
