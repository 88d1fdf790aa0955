// Package asm lowers three-address code into 8086 MASM source for the small
// memory model. Procedures address their locals, temporaries and parameters
// through bp; output routines come from an external io.asm.
package asm

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"minijava/pkg/symtab"
	"minijava/pkg/tac"
	"minijava/pkg/token"
)

// arithmeticOps maps TAC operators that lower to "mov ax / OP ax, b / mov".
var arithmeticOps = map[string]string{
	"+":  "add",
	"-":  "sub",
	"||": "or",
	"&&": "and",
}

// Generator turns TAC into assembly using the retained symbol index to size
// frames and resolve string literals.
type Generator struct {
	symbols *symtab.Index
	log     *zap.Logger
	out     strings.Builder
	proc    *symtab.Method // procedure being emitted, nil between procedures
	emitted map[string]bool
}

// NewGenerator returns a generator resolving names through symbols. A nil
// logger disables logging.
func NewGenerator(symbols *symtab.Index, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{symbols: symbols, log: log}
}

// Generate is shorthand for NewGenerator(symbols, nil) over TAC text.
func Generate(code string, symbols *symtab.Index) (string, error) {
	var sb strings.Builder
	if err := NewGenerator(symbols, nil).Generate(strings.NewReader(code), &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// GenerateError names the TAC line a structural problem was found on.
type GenerateError struct {
	Line int
	Msg  string
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("tac line %d: %s", e.Line, e.Msg)
}

func (g *Generator) line(format string, args ...any) {
	fmt.Fprintf(&g.out, format+"\n", args...)
}

// Generate reads every TAC instruction from r and writes the assembly program
// to w. Nothing is written when the TAC is malformed.
func (g *Generator) Generate(r io.Reader, w io.Writer) error {
	g.out.Reset()
	g.proc = nil
	g.emitted = make(map[string]bool)

	ins, err := tac.NewReader(r).ReadAll()
	if err != nil {
		return err
	}

	g.header()
	lastLine := 0
	for _, in := range ins {
		if err := g.instr(in); err != nil {
			return err
		}
		lastLine = in.Line
	}
	if g.proc != nil {
		return &GenerateError{Line: lastLine, Msg: fmt.Sprintf("procedure %s is not terminated", g.proc.Lexeme)}
	}
	g.line("END start")

	_, err = io.WriteString(w, g.out.String())
	return err
}

// header emits the segment directives, one DB per interned literal and the
// start procedure.
func (g *Generator) header() {
	g.line(".model small")
	g.line(".stack 100h")
	g.line(".data")
	for i := 0; ; i++ {
		lit, ok := symtab.LookupAs[*symtab.Literal](g.symbols, fmt.Sprintf("S%d", i))
		if !ok {
			break
		}
		g.line("%s DB \"%s\", \"$\"", lit.Lexeme, lit.Text)
	}
	g.line(".code")
	g.line("include io.asm")
	g.line("start PROC")
	g.line("    mov ax, @data")
	g.line("    mov ds, ax")
	g.line("    call main")
	g.line("    mov ah, 04ch")
	g.line("    int 21h")
	g.line("start ENDP")
	g.line("")
}

func (g *Generator) instr(in tac.Instr) error {
	switch in.Op {
	case tac.OpProc:
		return g.begin(in)
	case tac.OpEndp:
		return g.end(in)
	}
	if g.proc == nil {
		return &GenerateError{Line: in.Line, Msg: fmt.Sprintf("%s outside of a procedure", in.Op)}
	}

	switch in.Op {
	case tac.OpWriteS:
		g.line("    mov dx, offset %s", in.Args[0])
		g.line("    call writestr")
	case tac.OpWriteI:
		g.line("    mov dx, %s", operand(in.Args[0]))
		g.line("    call writeint")
	case tac.OpWriteLn:
		g.line("    call writeln")
	case tac.OpReadI:
		g.line("    call readint")
		g.line("    mov %s, bx", operand(in.Args[0]))
	case tac.OpPush:
		g.line("    push %s", operand(in.Args[0]))
	case tac.OpCall:
		g.line("    call %s", in.Args[0])
	case tac.OpAssign:
		if in.Binary() {
			return g.binary(in)
		}
		g.copy(in.Args[0], in.Args[1])
	default:
		return &GenerateError{Line: in.Line, Msg: fmt.Sprintf("unsupported instruction %s", in.Op)}
	}
	return nil
}

func (g *Generator) begin(in tac.Instr) error {
	name := in.Args[0]
	if g.proc != nil {
		return &GenerateError{Line: in.Line, Msg: fmt.Sprintf("procedure %s opened inside %s", name, g.proc.Lexeme)}
	}
	if !isIdentifier(name) {
		return &GenerateError{Line: in.Line, Msg: fmt.Sprintf("invalid procedure name %q", name)}
	}
	if g.emitted[name] {
		return &GenerateError{Line: in.Line, Msg: fmt.Sprintf("procedure %s defined twice", name)}
	}
	m, ok := symtab.LookupAs[*symtab.Method](g.symbols, name)
	if !ok {
		return &GenerateError{Line: in.Line, Msg: fmt.Sprintf("unknown procedure %s", name)}
	}
	g.proc = m
	g.emitted[name] = true
	g.log.Debug("emitting procedure",
		zap.String("name", name),
		zap.Int("locals", m.SizeOfLocals),
		zap.Int("params", m.SizeOfParameters))

	g.line("%s PROC", name)
	if frameless(m) {
		return nil
	}
	g.line("    push bp")
	g.line("    mov bp, sp")
	if m.SizeOfLocals > 0 {
		g.line("    sub sp, %d", m.SizeOfLocals)
	}
	return nil
}

func (g *Generator) end(in tac.Instr) error {
	name := in.Args[0]
	if g.proc == nil || g.proc.Lexeme != name {
		return &GenerateError{Line: in.Line, Msg: fmt.Sprintf("endp %s without matching proc", name)}
	}
	m := g.proc
	if frameless(m) {
		g.line("    ret")
	} else {
		if m.SizeOfLocals > 0 {
			g.line("    add sp, %d", m.SizeOfLocals)
		}
		g.line("    pop bp")
		if m.SizeOfParameters > 0 {
			g.line("    ret %d", m.SizeOfParameters)
		} else {
			g.line("    ret")
		}
	}
	g.line("%s ENDP", name)
	g.line("")
	g.proc = nil
	return nil
}

func (g *Generator) copy(dest, src string) {
	switch {
	case isReturnRegister(src):
		g.line("    mov %s, ax", operand(dest))
	case isReturnRegister(dest):
		g.line("    mov ax, %s", operand(src))
	default:
		g.line("    mov ax, %s", operand(src))
		g.line("    mov %s, ax", operand(dest))
	}
}

func (g *Generator) binary(in tac.Instr) error {
	dest, a, op, b := operand(in.Args[0]), operand(in.Args[1]), in.Args[2], operand(in.Args[3])
	if mnemonic, ok := arithmeticOps[op]; ok {
		g.line("    mov ax, %s", a)
		g.line("    %s ax, %s", mnemonic, b)
		g.line("    mov %s, ax", dest)
		return nil
	}
	switch op {
	case "*":
		g.line("    mov ax, %s", a)
		g.line("    mov bx, %s", b)
		g.line("    imul bx")
		g.line("    mov %s, ax", dest)
	case "/":
		g.line("    mov ax, %s", a)
		g.line("    cwd")
		g.line("    mov bx, %s", b)
		g.line("    idiv bx")
		g.line("    mov %s, ax", dest)
	default:
		return &GenerateError{Line: in.Line, Msg: fmt.Sprintf("unsupported operator %q", op)}
	}
	return nil
}

// operand rewrites TAC pseudo-operands into assembly operands:
//
//	_bp-4  ->  [bp-4]
//	_AX    ->  ax
//
// Anything else (literals, labels) passes through.
func operand(s string) string {
	if isReturnRegister(s) {
		return "ax"
	}
	if len(s) > 3 && strings.EqualFold(s[:3], "_bp") {
		return "[bp" + s[3:] + "]"
	}
	return s
}

func isReturnRegister(s string) bool {
	return strings.EqualFold(s, tac.ReturnRegister)
}

// frameless reports whether m runs without a bp frame. Only main does, and
// only while it has no fields or temporaries to address.
func frameless(m *symtab.Method) bool {
	return m.Token == token.MAIN && m.SizeOfLocals == 0
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
