// Package tac reads and writes the three-address-code text that sits between
// the MiniJava translator and the 8086 code generator.
//
// Every instruction is one line of whitespace-separated fields:
//
//	proc NAME            endp NAME
//	wrs NAME             wri OPERAND          wrln
//	rdi OPERAND          push OPERAND         call NAME
//	DEST = SRC           DEST = OP1 OPERATOR OP2
//
// Blank lines are ignored.
package tac

// Opcodes, in their canonical lower-case spelling.
const (
	OpProc    = "proc"
	OpEndp    = "endp"
	OpWriteS  = "wrs"
	OpWriteI  = "wri"
	OpWriteLn = "wrln"
	OpReadI   = "rdi"
	OpPush    = "push"
	OpCall    = "call"
	OpAssign  = "="
)

// ReturnRegister is the pseudo-operand that carries a method's result.
const ReturnRegister = "_AX"

// arity is the operand count of every opcode that starts a line.
var arity = map[string]int{
	OpProc:    1,
	OpEndp:    1,
	OpWriteS:  1,
	OpWriteI:  1,
	OpWriteLn: 0,
	OpReadI:   1,
	OpPush:    1,
	OpCall:    1,
}

// Instr is one decoded TAC line.
//
// For OpAssign, Args is either [dest, src] or [dest, left, operator, right].
type Instr struct {
	Line int
	Op   string
	Args []string
}

// Binary reports whether an assignment carries an operator.
func (in Instr) Binary() bool {
	return in.Op == OpAssign && len(in.Args) == 4
}
