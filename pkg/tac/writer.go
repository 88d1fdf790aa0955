package tac

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Writer emits TAC lines. The first write error is sticky: later calls are
// no-ops and Flush reports it.
type Writer struct {
	w   *bufio.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) line(fields ...string) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintln(w.w, strings.Join(fields, " "))
}

func (w *Writer) WriteProc(name string) { w.line(OpProc, name) }

// WriteEndp closes a procedure and separates it from the next with a blank
// line.
func (w *Writer) WriteEndp(name string) {
	w.line(OpEndp, name)
	w.line()
}

func (w *Writer) WriteStr(label string) { w.line(OpWriteS, label) }
func (w *Writer) WriteInt(operand string) { w.line(OpWriteI, operand) }
func (w *Writer) WriteNewline() { w.line(OpWriteLn) }
func (w *Writer) WriteRead(operand string) { w.line(OpReadI, operand) }
func (w *Writer) WritePush(operand string) { w.line(OpPush, operand) }
func (w *Writer) WriteCall(name string) { w.line(OpCall, name) }
func (w *Writer) WriteCopy(dest, src string) { w.line(dest, OpAssign, src) }

func (w *Writer) WriteBinary(dest, left, op, right string) {
	w.line(dest, OpAssign, left, op, right)
}

// Flush writes any buffered lines and returns the first error seen.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}
