// Package compiler translates MiniJava source into three-address code and
// hands it to the 8086 code generator.
//
// Pipeline: MiniJava source → Lexer → Parser (symbol table + TAC) → asm.Generator → MASM text
package compiler
