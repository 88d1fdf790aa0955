package tac

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteProc("add")
	w.WriteBinary("_bp-4", "_bp+4", "+", "_bp+6")
	w.WriteCopy("_bp-2", "_bp-4")
	w.WriteCopy(ReturnRegister, "_bp-2")
	w.WriteEndp("add")
	w.WriteProc("main")
	w.WritePush("5")
	w.WriteCall("add")
	w.WriteStr("S0")
	w.WriteInt("_bp-2")
	w.WriteNewline()
	w.WriteRead("_bp-2")
	w.WriteEndp("main")
	assert.NilError(t, w.Flush())

	want := `proc add
_bp-4 = _bp+4 + _bp+6
_bp-2 = _bp-4
_AX = _bp-2
endp add

proc main
push 5
call add
wrs S0
wri _bp-2
wrln
rdi _bp-2
endp main

`
	assert.Equal(t, buf.String(), want)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterStickyError(t *testing.T) {
	w := NewWriter(failingWriter{})
	w.WriteProc("main")
	w.WriteEndp("main")
	assert.ErrorContains(t, w.Flush(), "disk full")
	assert.ErrorContains(t, w.Flush(), "disk full")
}

func TestReader(t *testing.T) {
	src := "proc add\n" +
		"_bp-4 = _bp+4 + _bp+6\n" +
		"\n" +
		"   \n" +
		"PUSH 5\n" +
		"_AX = _bp-2\n" +
		"wrln\n" +
		"endp add\n"

	ins, err := NewReader(strings.NewReader(src)).ReadAll()
	assert.NilError(t, err)
	assert.DeepEqual(t, ins, []Instr{
		{Line: 1, Op: OpProc, Args: []string{"add"}},
		{Line: 2, Op: OpAssign, Args: []string{"_bp-4", "_bp+4", "+", "_bp+6"}},
		{Line: 5, Op: OpPush, Args: []string{"5"}},
		{Line: 6, Op: OpAssign, Args: []string{"_AX", "_bp-2"}},
		{Line: 7, Op: OpWriteLn, Args: []string{}},
		{Line: 8, Op: OpEndp, Args: []string{"add"}},
	})
	assert.Assert(t, ins[1].Binary())
	assert.Assert(t, !ins[3].Binary())
}

func TestReaderEOF(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n"))
	_, err := r.Next()
	assert.Equal(t, err, io.EOF)
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"MissingOperand", "proc\n", "proc expects 1 operand(s), got 0"},
		{"ExtraOperand", "wrln x\n", "wrln expects 0 operand(s), got 1"},
		{"ShortAssignment", "x =\n", "malformed assignment"},
		{"ThreeOperandAssignment", "x = a +\n", "malformed assignment"},
		{"Unknown", "jmp L1\n", "unknown instruction"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tc.src)).Next()
			var se *SyntaxError
			assert.Assert(t, errors.As(err, &se))
			assert.Equal(t, se.Line, 1)
			assert.Assert(t, is.Contains(err.Error(), tc.want))
		})
	}
}

func TestRoundTripLineNumbers(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteProc("main")
	w.WriteEndp("main")
	w.WriteProc("other")
	assert.NilError(t, w.Flush())

	ins, err := NewReader(&buf).ReadAll()
	assert.NilError(t, err)
	assert.Assert(t, is.Len(ins, 3))
	// The blank separator after endp still counts as a line.
	assert.Equal(t, ins[2].Line, 4)
}
