package compiler

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"minijava/pkg/symtab"
	"minijava/pkg/tac"
	"minijava/pkg/token"
)

// Parser walks the token stream once, filling the symbol table and emitting
// three-address code as each construct is recognised. There is no AST.
//
// Grammar:
//
//	program      = classDecl* EOF              (the last class holds main)
//	classDecl    = ["final"] "class" IDENT ["extends" IDENT] "{" varDecl methodDecl* [mainMethod] "}"
//	varDecl      = ("final" type IDENT "=" NUMBER ";" | type IDENT ("," IDENT)* ";")*
//	methodDecl   = "public" type IDENT "(" formals ")" "{" varDecl statements "return" [expr] ";" "}"
//	mainMethod   = "public" "static" "void" "main" "(" "String" "[" "]" IDENT ")" "{" statements "}"
//	statements   = (statement ";")*
//	statement    = assignment | "read" "(" IDENT ("," IDENT)* ")"
//	             | ("write" | "writeln") "(" [writeArg ("," writeArg)*] ")"
//	assignment   = IDENT "=" (expr | call) | call
//	call         = IDENT "." IDENT "(" [arg ("," arg)*] ")"
//	expr         = simpleExpr [RELOP simpleExpr]
//	simpleExpr   = term (ADDOP term)*
//	term         = factor (MULOP factor)*
//	factor       = IDENT | NUMBER | "(" expr ")" | "!" factor | "-" factor | "true" | "false"
type Parser struct {
	src   TokenSource
	table *symtab.Table
	out   *tac.Writer
	log   *zap.Logger

	depth     int // current lexical depth
	offset    int // next free byte in the frame being declared
	tempNum   int // last temporary number handed out
	stringNum int // number of interned string literals

	class  *symtab.Class
	method *symtab.Method // nil outside a method body
}

// NewParser returns a parser reading from src. Entries go into table and
// TAC goes to out. A nil logger disables logging.
func NewParser(src TokenSource, table *symtab.Table, out *tac.Writer, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{src: src, table: table, out: out, log: log}
}

// Parse translates the whole program. The first error aborts translation.
func (p *Parser) Parse() error {
	p.src.Advance() // prime the first token
	return p.program()
}

// ---- errors ----

func (p *Parser) unexpected(expected ...token.Kind) error {
	return &UnexpectedTokenError{
		Line:     p.src.Line(),
		Expected: expected,
		Actual:   p.src.Kind(),
		Lexeme:   p.src.Lexeme(),
	}
}

func (p *Parser) undeclared(lexeme string) error {
	return &UndeclaredIdentifierError{Line: p.src.Line(), Lexeme: lexeme}
}

func (p *Parser) invalid(format string, args ...any) error {
	return &InvalidConstructError{Line: p.src.Line(), Msg: fmt.Sprintf(format, args...)}
}

// declare inserts an entry for the current lexeme and turns a duplicate into
// a DuplicateDeclarationError carrying the source line.
func declare[E any, P interface {
	*E
	symtab.Entry
}](p *Parser, lexeme string, tok token.Kind, depth int) (P, error) {
	e, err := symtab.Insert[E, P](p.table, lexeme, tok, depth)
	var dup *symtab.DuplicateError
	if errors.As(err, &dup) {
		return nil, &DuplicateDeclarationError{Line: p.src.Line(), Err: dup}
	}
	return e, err
}

// ---- token plumbing ----

// match consumes the current token if it is of kind k. Braces and end of
// input also open and close scopes.
func (p *Parser) match(k token.Kind) error {
	if p.src.Kind() != k {
		return p.unexpected(k)
	}
	switch k {
	case token.LBRACE:
		p.depth++
	case token.RBRACE, token.EOF:
		p.closeScope()
	}
	p.src.Advance()
	return nil
}

func (p *Parser) closeScope() {
	p.log.Debug("closing scope",
		zap.Int("depth", p.depth),
		zap.Strings("entries", p.table.DumpDepth(p.depth)))
	p.table.DeleteDepth(p.depth)
	if p.depth > 0 {
		p.depth--
	}
}

// ---- declarations ----

func (p *Parser) program() error {
	for {
		switch p.src.Kind() {
		case token.FINAL, token.CLASS:
			isMain, err := p.classDecl()
			if err != nil {
				return err
			}
			if isMain {
				return p.match(token.EOF)
			}
		default:
			return p.unexpected(token.FINAL, token.CLASS)
		}
	}
}

// classDecl reports whether the class it parsed contained main.
func (p *Parser) classDecl() (bool, error) {
	if p.src.Kind() == token.FINAL {
		p.src.Advance()
	}
	if err := p.match(token.CLASS); err != nil {
		return false, err
	}

	name := p.src.Lexeme()
	cls, err := declare[symtab.Class](p, name, p.src.Kind(), p.depth)
	if err != nil {
		return false, err
	}
	if err := p.match(token.IDENT); err != nil {
		return false, err
	}
	if p.src.Kind() == token.EXTENDS {
		p.src.Advance()
		if err := p.match(token.IDENT); err != nil {
			return false, err
		}
	}

	p.class = cls
	p.method = nil
	p.offset = 0
	if err := p.match(token.LBRACE); err != nil {
		return false, err
	}
	if err := p.varDecl(); err != nil {
		return false, err
	}

	isMain := false
	for !isMain && p.src.Kind() == token.PUBLIC {
		p.src.Advance()
		if p.src.Kind() == token.STATIC {
			isMain = true
			err = p.mainMethod()
		} else {
			err = p.methodDecl()
		}
		if err != nil {
			return false, err
		}
	}

	p.log.Debug("class declared", zap.Stringer("class", cls))
	return isMain, p.match(token.RBRACE)
}

// typ consumes a type keyword.
func (p *Parser) typ() (symtab.Type, error) {
	var t symtab.Type
	switch p.src.Kind() {
	case token.INT:
		t = symtab.TypeInt
	case token.FLOAT:
		t = symtab.TypeFloat
	case token.BOOLEAN:
		t = symtab.TypeBoolean
	case token.VOID:
		t = symtab.TypeVoid
	default:
		return symtab.TypeUnknown, p.unexpected(token.INT, token.FLOAT, token.BOOLEAN, token.VOID)
	}
	p.src.Advance()
	return t, nil
}

// storageType consumes a type that may hold a value.
func (p *Parser) storageType() (symtab.Type, error) {
	t, err := p.typ()
	if err == nil && t == symtab.TypeVoid {
		err = p.invalid("void is only allowed as a method return type")
	}
	return t, err
}

// reserve charges size bytes of frame space to the current method, or to the
// current class outside a method. Callers pass word-aligned slot sizes.
func (p *Parser) reserve(name string, size int) int {
	off := p.offset
	p.offset += size
	if p.method != nil {
		p.method.SizeOfLocals += size
	} else if p.class != nil && name != "" {
		p.class.VariableNames = append(p.class.VariableNames, name)
		p.class.SizeOfLocals += size
	}
	return off
}

func (p *Parser) varDecl() error {
	for {
		switch p.src.Kind() {
		case token.FINAL:
			p.src.Advance()
			if err := p.constDecl(); err != nil {
				return err
			}
		case token.INT, token.FLOAT, token.BOOLEAN, token.VOID:
			t, err := p.storageType()
			if err != nil {
				return err
			}
			if err := p.identList(t); err != nil {
				return err
			}
		default:
			return nil
		}
		if err := p.match(token.SEMI); err != nil {
			return err
		}
	}
}

func (p *Parser) constDecl() error {
	t, err := p.storageType()
	if err != nil {
		return err
	}
	name := p.src.Lexeme()
	c, err := declare[symtab.Constant](p, name, p.src.Kind(), p.depth)
	if err != nil {
		return err
	}
	if err := p.match(token.IDENT); err != nil {
		return err
	}
	if err := p.match(token.ASSIGNOP); err != nil {
		return err
	}
	if p.src.Kind() != token.NUMBER {
		return p.unexpected(token.NUMBER)
	}

	c.Type = t
	c.Value = symtab.Value{Type: t}
	if t == symtab.TypeFloat {
		c.Value.Float = p.src.Real()
	} else {
		if isReal(p.src.Lexeme()) {
			return p.invalid("constant %s of type %s initialised with %s", name, t, p.src.Lexeme())
		}
		c.Value.Int = p.src.Value()
	}
	c.Offset = p.reserve(name, t.SlotSize())
	return p.match(token.NUMBER)
}

func (p *Parser) identList(t symtab.Type) error {
	for {
		name := p.src.Lexeme()
		v, err := declare[symtab.Variable](p, name, p.src.Kind(), p.depth)
		if err != nil {
			return err
		}
		v.Type = t
		v.Size = t.Size()
		v.Offset = p.reserve(name, v.Slot())
		if err := p.match(token.IDENT); err != nil {
			return err
		}
		if p.src.Kind() != token.COMMA {
			return nil
		}
		p.src.Advance()
	}
}

// methodDecl parses an ordinary method. "public" is already consumed.
func (p *Parser) methodDecl() error {
	ret, err := p.typ()
	if err != nil {
		return err
	}
	name := p.src.Lexeme()
	m, err := p.declareMethod(name)
	if err != nil {
		return err
	}
	m.ReturnType = ret
	p.class.MethodNames = append(p.class.MethodNames, name)

	if err := p.match(token.IDENT); err != nil {
		return err
	}
	if err := p.match(token.LPAREN); err != nil {
		return err
	}
	if err := p.formals(m); err != nil {
		return err
	}
	if err := p.match(token.RPAREN); err != nil {
		return err
	}

	p.out.WriteProc(name)
	p.enterFrame(m)
	if err := p.match(token.LBRACE); err != nil {
		return err
	}
	if err := p.varDecl(); err != nil {
		return err
	}
	if err := p.statements(); err != nil {
		return err
	}
	if err := p.returnStat(m); err != nil {
		return err
	}
	p.out.WriteEndp(name)
	p.log.Debug("method translated", zap.Stringer("method", m))
	p.method = nil
	return p.match(token.RBRACE)
}

// declareMethod inserts a method entry. Method names become assembly labels,
// so one name may only be used by one method in the whole program.
func (p *Parser) declareMethod(name string) (*symtab.Method, error) {
	if prev, ok := symtab.LookupAs[*symtab.Method](p.table.Retained(), name); ok {
		return nil, &DuplicateDeclarationError{
			Line: p.src.Line(),
			Err:  &symtab.DuplicateError{Lexeme: name, Depth: prev.Depth},
		}
	}
	return declare[symtab.Method](p, name, p.src.Kind(), p.depth)
}

// enterFrame starts m's locals below the fields of its class, which stay
// visible in the body and are addressed through the same bp.
func (p *Parser) enterFrame(m *symtab.Method) {
	p.method = m
	p.offset = p.class.SizeOfLocals
	m.SizeOfLocals = p.class.SizeOfLocals
}

// formals declares the parameters one level deeper than the method, where
// its body will live.
func (p *Parser) formals(m *symtab.Method) error {
	switch p.src.Kind() {
	case token.INT, token.FLOAT, token.BOOLEAN, token.VOID:
	default:
		return nil
	}
	for {
		t, err := p.storageType()
		if err != nil {
			return err
		}
		name := p.src.Lexeme()
		v, err := declare[symtab.Variable](p, name, p.src.Kind(), p.depth+1)
		if err != nil {
			return err
		}
		v.Type = t
		v.Size = t.Size()
		v.Offset = m.SizeOfParameters
		v.Param = true
		m.Params = append(m.Params, symtab.Param{Type: t, Name: name})
		m.SizeOfParameters += t.SlotSize()

		if err := p.match(token.IDENT); err != nil {
			return err
		}
		if p.src.Kind() != token.COMMA {
			return nil
		}
		p.src.Advance()
	}
}

func (p *Parser) returnStat(m *symtab.Method) error {
	if err := p.match(token.RETURN); err != nil {
		return err
	}
	if p.src.Kind() == token.SEMI {
		if m.ReturnType != symtab.TypeVoid {
			return p.invalid("method %s must return a value of type %s", m.Lexeme, m.ReturnType)
		}
		return p.match(token.SEMI)
	}
	v, err := p.expr()
	if err != nil {
		return err
	}
	p.out.WriteCopy(tac.ReturnRegister, v)
	return p.match(token.SEMI)
}

// mainMethod parses main. "public" is already consumed.
func (p *Parser) mainMethod() error {
	if err := p.match(token.STATIC); err != nil {
		return err
	}
	if err := p.match(token.VOID); err != nil {
		return err
	}
	name := p.src.Lexeme()
	m, err := p.declareMethod(name)
	if err != nil {
		return err
	}
	m.ReturnType = symtab.TypeVoid
	p.class.MethodNames = append(p.class.MethodNames, name)

	for _, k := range []token.Kind{token.MAIN, token.LPAREN, token.STRING, token.LBRACKET, token.RBRACKET, token.IDENT, token.RPAREN} {
		if err := p.match(k); err != nil {
			return err
		}
	}

	p.out.WriteProc(name)
	p.enterFrame(m)
	if err := p.match(token.LBRACE); err != nil {
		return err
	}
	if err := p.statements(); err != nil {
		return err
	}
	p.out.WriteEndp(name)
	p.method = nil
	return p.match(token.RBRACE)
}

// ---- statements ----

func (p *Parser) statements() error {
	for {
		var err error
		switch p.src.Kind() {
		case token.IDENT:
			err = p.assignStat()
		case token.READ:
			err = p.inStat()
		case token.WRITE, token.WRITELN:
			err = p.outStat()
		default:
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.match(token.SEMI); err != nil {
			return err
		}
	}
}

func (p *Parser) assignStat() error {
	name := p.src.Lexeme()
	switch e := p.table.Lookup(name).(type) {
	case *symtab.Variable:
		p.src.Advance()
		if err := p.match(token.ASSIGNOP); err != nil {
			return err
		}
		if p.src.Kind() == token.IDENT {
			if cls, ok := p.table.Lookup(p.src.Lexeme()).(*symtab.Class); ok {
				if err := p.methodCall(cls); err != nil {
					return err
				}
				p.out.WriteCopy(e.Operand(), tac.ReturnRegister)
				return nil
			}
		}
		v, err := p.expr()
		if err != nil {
			return err
		}
		p.out.WriteCopy(e.Operand(), v)
		return nil
	case *symtab.Class:
		return p.methodCall(e)
	case *symtab.Method:
		return p.invalid("call to %s must qualify with class name, as in ClassName.%s()", name, name)
	case *symtab.Constant:
		return p.invalid("cannot assign to constant %s", name)
	default:
		return p.undeclared(name)
	}
}

// methodCall parses Class.method(args), pushes the arguments right to left
// and emits the call. The result, if any, is left in the return register.
func (p *Parser) methodCall(cls *symtab.Class) error {
	if err := p.match(token.IDENT); err != nil {
		return err
	}
	if err := p.match(token.DOT); err != nil {
		return err
	}
	name := p.src.Lexeme()
	if p.src.Kind() == token.IDENT && !cls.HasMethod(name) {
		return p.undeclared(cls.Lexeme + "." + name)
	}
	if err := p.match(token.IDENT); err != nil {
		return err
	}
	if err := p.match(token.LPAREN); err != nil {
		return err
	}

	var args []string
	if k := p.src.Kind(); k == token.IDENT || k == token.NUMBER {
		for {
			a, err := p.argument()
			if err != nil {
				return err
			}
			args = append(args, a)
			if p.src.Kind() != token.COMMA {
				break
			}
			p.src.Advance()
		}
	}
	if err := p.match(token.RPAREN); err != nil {
		return err
	}

	for i := len(args) - 1; i >= 0; i-- {
		p.out.WritePush(args[i])
	}
	p.out.WriteCall(name)
	return nil
}

func (p *Parser) argument() (string, error) {
	switch p.src.Kind() {
	case token.IDENT:
		return p.valueOf()
	case token.NUMBER:
		return p.number()
	default:
		return "", p.unexpected(token.IDENT, token.NUMBER)
	}
}

func (p *Parser) inStat() error {
	p.src.Advance() // read
	if err := p.match(token.LPAREN); err != nil {
		return err
	}
	for {
		name := p.src.Lexeme()
		if p.src.Kind() == token.IDENT {
			switch e := p.table.Lookup(name).(type) {
			case *symtab.Variable:
				p.out.WriteRead(e.Operand())
			case *symtab.Constant:
				return p.invalid("cannot read into constant %s", name)
			default:
				return p.undeclared(name)
			}
		}
		if err := p.match(token.IDENT); err != nil {
			return err
		}
		if p.src.Kind() != token.COMMA {
			break
		}
		p.src.Advance()
	}
	return p.match(token.RPAREN)
}

func (p *Parser) outStat() error {
	newline := p.src.Kind() == token.WRITELN
	p.src.Advance()
	if err := p.match(token.LPAREN); err != nil {
		return err
	}
	if p.src.Kind() != token.RPAREN {
		for {
			if err := p.writeArg(); err != nil {
				return err
			}
			if p.src.Kind() != token.COMMA {
				break
			}
			p.src.Advance()
		}
	}
	if err := p.match(token.RPAREN); err != nil {
		return err
	}
	if newline {
		p.out.WriteNewline()
	}
	return nil
}

func (p *Parser) writeArg() error {
	switch p.src.Kind() {
	case token.IDENT:
		v, err := p.valueOf()
		if err != nil {
			return err
		}
		p.out.WriteInt(v)
	case token.NUMBER:
		v, err := p.number()
		if err != nil {
			return err
		}
		p.out.WriteInt(v)
	case token.QUOTE:
		label, err := p.intern(p.src.Literal())
		if err != nil {
			return err
		}
		p.out.WriteStr(label)
		p.src.Advance()
	default:
		return p.unexpected(token.IDENT, token.NUMBER, token.QUOTE)
	}
	return nil
}

// intern records a string literal under the next S<n> label. Literals live at
// depth 0 so the code generator finds them in the retained index.
func (p *Parser) intern(text string) (string, error) {
	label := fmt.Sprintf("S%d", p.stringNum)
	lit, err := declare[symtab.Literal](p, label, token.QUOTE, 0)
	if err != nil {
		return "", err
	}
	lit.Text = text
	p.stringNum++
	return label, nil
}

// ---- expressions ----

// expr returns the operand holding the value of the expression. A relational
// operator is accepted and its right side translated, but the value is the
// left side.
func (p *Parser) expr() (string, error) {
	left, err := p.simpleExpr()
	if err != nil {
		return "", err
	}
	if p.src.Kind() == token.RELOP {
		p.src.Advance()
		if _, err := p.simpleExpr(); err != nil {
			return "", err
		}
	}
	return left, nil
}

func (p *Parser) simpleExpr() (string, error) {
	left, err := p.term()
	if err != nil {
		return "", err
	}
	for p.src.Kind() == token.ADDOP {
		op := p.src.Lexeme()
		p.src.Advance()
		right, err := p.term()
		if err != nil {
			return "", err
		}
		left, err = p.binary(left, op, right)
		if err != nil {
			return "", err
		}
	}
	return left, nil
}

func (p *Parser) term() (string, error) {
	left, err := p.factor()
	if err != nil {
		return "", err
	}
	for p.src.Kind() == token.MULOP {
		op := p.src.Lexeme()
		p.src.Advance()
		right, err := p.factor()
		if err != nil {
			return "", err
		}
		left, err = p.binary(left, op, right)
		if err != nil {
			return "", err
		}
	}
	return left, nil
}

func (p *Parser) factor() (string, error) {
	switch p.src.Kind() {
	case token.IDENT:
		return p.valueOf()
	case token.NUMBER:
		return p.number()
	case token.LPAREN:
		p.src.Advance()
		v, err := p.expr()
		if err != nil {
			return "", err
		}
		return v, p.match(token.RPAREN)
	case token.NOT:
		p.src.Advance()
		v, err := p.factor()
		if err != nil {
			return "", err
		}
		return p.binary("1", "-", v)
	case token.ADDOP:
		if sign := p.src.Lexeme(); sign != "-" {
			return "", p.invalid("malformed sign %q, only - may prefix a factor", sign)
		}
		p.src.Advance()
		v, err := p.factor()
		if err != nil {
			return "", err
		}
		return p.binary("0", "-", v)
	case token.TRUE:
		p.src.Advance()
		return "1", nil
	case token.FALSE:
		p.src.Advance()
		return "0", nil
	default:
		return "", p.unexpected(token.IDENT, token.NUMBER, token.LPAREN, token.NOT, token.ADDOP, token.TRUE, token.FALSE)
	}
}

// binary allocates a temporary, emits temp = left op right and returns the
// temporary.
func (p *Parser) binary(left, op, right string) (string, error) {
	t, err := p.newTemp()
	if err != nil {
		return "", err
	}
	p.out.WriteBinary(t, left, op, right)
	return t, nil
}

// newTemp declares the next _tN in the frame being translated.
func (p *Parser) newTemp() (string, error) {
	p.tempNum++
	v, err := declare[symtab.Variable](p, fmt.Sprintf("_t%d", p.tempNum), token.IDENT, p.depth)
	if err != nil {
		return "", err
	}
	v.Type = symtab.TypeInt
	v.Size = symtab.TypeInt.Size()
	v.Offset = p.reserve("", v.Slot())
	return v.Operand(), nil
}

// valueOf consumes an identifier used as a value.
func (p *Parser) valueOf() (string, error) {
	name := p.src.Lexeme()
	var v string
	switch e := p.table.Lookup(name).(type) {
	case *symtab.Variable:
		v = e.Operand()
	case *symtab.Constant:
		if e.Type == symtab.TypeFloat {
			return "", p.invalid("float constant %s used in an integer expression", name)
		}
		v = e.Value.String()
	case *symtab.Method:
		return "", p.invalid("call to %s must qualify with class name, as in ClassName.%s()", name, name)
	case *symtab.Class:
		return "", p.invalid("class %s used as a value", name)
	default:
		return "", p.undeclared(name)
	}
	return v, p.match(token.IDENT)
}

// number consumes an integer literal.
func (p *Parser) number() (string, error) {
	lexeme := p.src.Lexeme()
	if isReal(lexeme) {
		return "", p.invalid("real literal %s used in an integer expression", lexeme)
	}
	return lexeme, p.match(token.NUMBER)
}

func isReal(lexeme string) bool {
	return strings.ContainsRune(lexeme, '.')
}
