package asm

import (
	"errors"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"minijava/pkg/symtab"
	"minijava/pkg/token"
)

// demoSymbols builds the retained index a translation of
//
//	class Demo { public int add(int x, int y) { int z; ... } }
//	final class Main { public static void main(String[] a) { ... } }
//
// would leave behind, plus one string literal.
func demoSymbols(t *testing.T) *symtab.Index {
	t.Helper()
	tbl := symtab.NewTable(symtab.DefaultSize)

	add, err := symtab.Insert[symtab.Method](tbl, "add", token.IDENT, 1)
	assert.NilError(t, err)
	add.ReturnType = symtab.TypeInt
	add.SizeOfParameters = 4
	add.SizeOfLocals = 4
	tbl.DeleteDepth(1)

	main, err := symtab.Insert[symtab.Method](tbl, "main", token.MAIN, 1)
	assert.NilError(t, err)
	main.ReturnType = symtab.TypeVoid

	lit, err := symtab.Insert[symtab.Literal](tbl, "S0", token.QUOTE, 0)
	assert.NilError(t, err)
	lit.Text = "sum is "
	return tbl.Retained()
}

const demoTAC = `proc add
_bp-4 = _bp+4 + _bp+6
_bp-2 = _bp-4
_AX = _bp-2
endp add

proc main
push 2
push 1
call add
wrs S0
wrln
endp main

`

func TestGenerate(t *testing.T) {
	out, err := Generate(demoTAC, demoSymbols(t))
	assert.NilError(t, err)

	want := `.model small
.stack 100h
.data
S0 DB "sum is ", "$"
.code
include io.asm
start PROC
    mov ax, @data
    mov ds, ax
    call main
    mov ah, 04ch
    int 21h
start ENDP

add PROC
    push bp
    mov bp, sp
    sub sp, 4
    mov ax, [bp+4]
    add ax, [bp+6]
    mov [bp-4], ax
    mov ax, [bp-4]
    mov [bp-2], ax
    mov ax, [bp-2]
    add sp, 4
    pop bp
    ret 4
add ENDP

main PROC
    push 2
    push 1
    call add
    mov dx, offset S0
    call writestr
    call writeln
    ret
main ENDP

END start
`
	assert.Equal(t, out, want)
	assert.Assert(t, !strings.Contains(out, "imul"))
}

func TestGenerateInstructions(t *testing.T) {
	tests := []struct {
		name string
		tac  string
		want []string
	}{
		{
			name: "Subtract",
			tac:  "_bp-2 = 0 - _bp-4",
			want: []string{"    mov ax, 0", "    sub ax, [bp-4]", "    mov [bp-2], ax"},
		},
		{
			name: "Multiply",
			tac:  "_bp-2 = _bp+4 * 3",
			want: []string{"    mov ax, [bp+4]", "    mov bx, 3", "    imul bx", "    mov [bp-2], ax"},
		},
		{
			name: "Divide",
			tac:  "_bp-2 = _bp+4 / _bp+6",
			want: []string{"    mov ax, [bp+4]", "    cwd", "    mov bx, [bp+6]", "    idiv bx", "    mov [bp-2], ax"},
		},
		{
			name: "Or",
			tac:  "_bp-2 = _bp+4 || 1",
			want: []string{"    mov ax, [bp+4]", "    or ax, 1", "    mov [bp-2], ax"},
		},
		{
			name: "And",
			tac:  "_bp-2 = _bp+4 && 0",
			want: []string{"    mov ax, [bp+4]", "    and ax, 0", "    mov [bp-2], ax"},
		},
		{
			name: "CopyFromReturnRegister",
			tac:  "_bp-2 = _ax",
			want: []string{"    mov [bp-2], ax"},
		},
		{
			name: "CopyToReturnRegister",
			tac:  "_AX = 7",
			want: []string{"    mov ax, 7"},
		},
		{
			name: "CopyThroughAX",
			tac:  "_bp-2 = _bp+4",
			want: []string{"    mov ax, [bp+4]", "    mov [bp-2], ax"},
		},
		{
			name: "WriteInt",
			tac:  "wri _bp-2",
			want: []string{"    mov dx, [bp-2]", "    call writeint"},
		},
		{
			name: "ReadInt",
			tac:  "RDI _bp-2",
			want: []string{"    call readint", "    mov [bp-2], bx"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Generate("proc add\n"+tc.tac+"\nendp add\n", demoSymbols(t))
			assert.NilError(t, err)
			assert.Assert(t, is.Contains(out, strings.Join(tc.want, "\n")+"\n"))
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		tac  string
		line int
		msg  string
	}{
		{"OutsideProcedure", "wrln\n", 1, "wrln outside of a procedure"},
		{"UnknownProcedure", "proc nope\nendp nope\n", 1, "unknown procedure nope"},
		{"Unterminated", "proc add\nwrln\n", 2, "procedure add is not terminated"},
		{"Nested", "proc add\nproc main\n", 2, "procedure main opened inside add"},
		{"MismatchedEndp", "proc add\nendp main\n", 2, "endp main without matching proc"},
		{"StrayEndp", "endp add\n", 1, "endp add without matching proc"},
		{"UnsupportedOperator", "proc add\n_bp-2 = 1 % 2\nendp add\n", 2, `unsupported operator "%"`},
		{"BadName", "proc 9lives\n", 1, `invalid procedure name "9lives"`},
		{"Redefined", "proc add\nendp add\nproc add\nendp add\n", 3, "procedure add defined twice"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var sb strings.Builder
			err := NewGenerator(demoSymbols(t), nil).Generate(strings.NewReader(tc.tac), &sb)
			var ge *GenerateError
			assert.Assert(t, errors.As(err, &ge), "got %v", err)
			assert.Equal(t, ge.Line, tc.line)
			assert.Equal(t, ge.Msg, tc.msg)
			assert.Equal(t, sb.Len(), 0)
		})
	}
}

func TestGenerateMainFrame(t *testing.T) {
	tbl := symtab.NewTable(symtab.DefaultSize)
	main, err := symtab.Insert[symtab.Method](tbl, "main", token.MAIN, 1)
	assert.NilError(t, err)
	main.ReturnType = symtab.TypeVoid
	main.SizeOfLocals = 2

	out, err := Generate("proc main\n_bp-2 = 1 + 2\nwri _bp-2\nendp main\n", tbl.Retained())
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, strings.Join([]string{
		"main PROC",
		"    push bp",
		"    mov bp, sp",
		"    sub sp, 2",
		"    mov ax, 1",
		"    add ax, 2",
		"    mov [bp-2], ax",
		"    mov dx, [bp-2]",
		"    call writeint",
		"    add sp, 2",
		"    pop bp",
		"    ret",
		"main ENDP",
	}, "\n")))
}

func TestGenerateMalformedTAC(t *testing.T) {
	_, err := Generate("proc add\nx y z\n", demoSymbols(t))
	assert.ErrorContains(t, err, "tac line 2: unknown instruction")
}

func TestNoLiterals(t *testing.T) {
	tbl := symtab.NewTable(symtab.DefaultSize)
	_, err := symtab.Insert[symtab.Method](tbl, "main", token.MAIN, 1)
	assert.NilError(t, err)

	out, err := Generate("proc main\nendp main\n", tbl.Retained())
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, ".data\n.code\n"))
	assert.Assert(t, is.Contains(out, "main PROC\n    ret\nmain ENDP\n"))
}

func TestOperand(t *testing.T) {
	tests := []struct{ in, want string }{
		{"_bp-2", "[bp-2]"},
		{"_bp+10", "[bp+10]"},
		{"_AX", "ax"},
		{"_ax", "ax"},
		{"42", "42"},
		{"S3", "S3"},
	}
	for _, tc := range tests {
		assert.Equal(t, operand(tc.in), tc.want, tc.in)
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}
}
