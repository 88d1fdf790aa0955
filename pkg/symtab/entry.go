package symtab

import (
	"fmt"
	"strconv"
	"strings"

	"minijava/pkg/token"
)

// FrameLinkSize is the distance between bp and the first parameter: the saved
// bp and the near return address.
const FrameLinkSize = 4

// Type is the declared type of a variable, constant, or method result.
type Type int

const (
	TypeUnknown Type = iota
	TypeInt
	TypeFloat
	TypeBoolean
	TypeVoid
)

var typeNames = [...]string{
	TypeUnknown: "unknown",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeBoolean: "boolean",
	TypeVoid:    "void",
}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Size returns the storage size in bytes.
func (t Type) Size() int {
	switch t {
	case TypeInt:
		return 2
	case TypeBoolean:
		return 1
	case TypeFloat:
		return 4
	}
	return 0
}

// SlotSize is the number of bytes a variable of this type occupies in a
// frame. Loads and stores move whole words, so sizes round up to even.
func (t Type) SlotSize() int {
	return (t.Size() + 1) &^ 1
}

// Kind identifies the case of an Entry.
type Kind int

const (
	KindVariable Kind = iota
	KindConstant
	KindMethod
	KindClass
	KindLiteral
)

var entryKindNames = [...]string{
	KindVariable: "Variable",
	KindConstant: "Constant",
	KindMethod:   "Method",
	KindClass:    "Class",
	KindLiteral:  "StringLiteral",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(entryKindNames) {
		return entryKindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Header is the part every entry shares.
type Header struct {
	Lexeme string
	Token  token.Kind
	Depth  int
}

// Head returns the shared header of an entry.
func (h *Header) Head() *Header { return h }

// Entry is implemented by *Variable, *Constant, *Method, *Class and *Literal.
type Entry interface {
	Head() *Header
	Kind() Kind
	String() string
	entryNode()
}

// Param is one formal parameter of a method.
type Param struct {
	Type Type
	Name string
}

// Variable is a local, a parameter, a class-level field, or a temporary.
type Variable struct {
	Header
	Type   Type
	Size   int
	Offset int
	Param  bool
}

func (*Variable) entryNode() {}
func (*Variable) Kind() Kind { return KindVariable }
func (v *Variable) String() string {
	storage := "local"
	if v.Param {
		storage = "param"
	}
	return fmt.Sprintf("%s %s %s offset=%d size=%d", v.Type, v.Lexeme, storage, v.Offset, v.Size)
}

// Slot is the word-aligned space the variable takes in its frame.
func (v *Variable) Slot() int {
	return (v.Size + 1) &^ 1
}

// Operand renders the variable as a frame-relative TAC pseudo-operand.
//
//	local at offset 0, size 2  ->  _bp-2
//	local at offset 2, size 1  ->  _bp-4
//	param at offset 0          ->  _bp+4
func (v *Variable) Operand() string {
	if v.Param {
		return fmt.Sprintf("_bp+%d", v.Offset+FrameLinkSize)
	}
	return fmt.Sprintf("_bp-%d", v.Offset+v.Slot())
}

// Value is the payload of a constant.
type Value struct {
	Type  Type
	Int   int
	Float float64
}

func (v Value) String() string {
	if v.Type == TypeFloat {
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
	return strconv.Itoa(v.Int)
}

// Constant is a `final` declaration with a literal initializer.
type Constant struct {
	Header
	Type   Type
	Offset int
	Value  Value
}

func (*Constant) entryNode() {}
func (*Constant) Kind() Kind { return KindConstant }
func (c *Constant) String() string {
	return fmt.Sprintf("final %s %s = %s offset=%d", c.Type, c.Lexeme, c.Value, c.Offset)
}

// Method is a method declaration, including main.
type Method struct {
	Header
	ReturnType       Type
	SizeOfLocals     int
	SizeOfParameters int
	Params           []Param
}

func (*Method) entryNode() {}
func (*Method) Kind() Kind { return KindMethod }
func (m *Method) String() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type.String() + " " + p.Name
	}
	return fmt.Sprintf("%s %s(%s) locals=%d params=%d",
		m.ReturnType, m.Lexeme, strings.Join(params, ", "), m.SizeOfLocals, m.SizeOfParameters)
}

// Class is a class declaration.
type Class struct {
	Header
	MethodNames   []string
	VariableNames []string
	SizeOfLocals  int
}

func (*Class) entryNode() {}
func (*Class) Kind() Kind { return KindClass }
func (c *Class) String() string {
	return fmt.Sprintf("class %s methods=%v vars=%v locals=%d",
		c.Lexeme, c.MethodNames, c.VariableNames, c.SizeOfLocals)
}

// HasMethod reports whether name was declared as a method of c.
func (c *Class) HasMethod(name string) bool {
	for _, m := range c.MethodNames {
		if m == name {
			return true
		}
	}
	return false
}

// Literal is an interned string literal (S0, S1, ...).
type Literal struct {
	Header
	Text string
}

func (*Literal) entryNode() {}
func (*Literal) Kind() Kind { return KindLiteral }
func (l *Literal) String() string {
	return fmt.Sprintf("%s %q", l.Lexeme, l.Text)
}
