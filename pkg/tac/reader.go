package tac

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SyntaxError reports a TAC line that does not decode.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("tac line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Reader decodes TAC one instruction at a time.
type Reader struct {
	s    *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{s: bufio.NewScanner(r)}
}

// Next returns the next instruction, skipping blank lines. It returns io.EOF
// after the last one.
func (r *Reader) Next() (Instr, error) {
	for r.s.Scan() {
		r.line++
		in, ok, err := parseLine(r.s.Text(), r.line)
		if err != nil {
			return Instr{}, err
		}
		if ok {
			return in, nil
		}
	}
	if err := r.s.Err(); err != nil {
		return Instr{}, err
	}
	return Instr{}, io.EOF
}

// ReadAll decodes every remaining instruction.
func (r *Reader) ReadAll() ([]Instr, error) {
	var out []Instr
	for {
		in, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, in)
	}
}

// parseLine decodes raw. ok is false for a blank line.
func parseLine(raw string, lineNo int) (in Instr, ok bool, err error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Instr{}, false, nil
	}
	in.Line = lineNo

	op := strings.ToLower(fields[0])
	if n, known := arity[op]; known {
		in.Op = op
		in.Args = fields[1:]
		if len(in.Args) != n {
			return in, false, &SyntaxError{Line: lineNo, Text: raw,
				Msg: fmt.Sprintf("%s expects %d operand(s), got %d", op, n, len(in.Args))}
		}
		return in, true, nil
	}

	if len(fields) >= 2 && fields[1] == OpAssign {
		in.Op = OpAssign
		in.Args = append([]string{fields[0]}, fields[2:]...)
		if len(in.Args) != 2 && len(in.Args) != 4 {
			return in, false, &SyntaxError{Line: lineNo, Text: raw, Msg: "malformed assignment"}
		}
		return in, true, nil
	}

	return in, false, &SyntaxError{Line: lineNo, Text: raw, Msg: "unknown instruction"}
}
