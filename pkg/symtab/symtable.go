// Package symtab implements the depth-scoped MiniJava symbol table.
//
// Entries live in one arena and are reachable through two hash indices: the
// active index, pruned whenever a block closes, and the retained index, which
// keeps every entry ever inserted so the code generator can resolve names
// after parsing has finished.
package symtab

import (
	"fmt"
	"strings"

	"minijava/pkg/token"
)

// DefaultSize is the default number of hash buckets (a prime).
const DefaultSize = 211

// Handle addresses an entry in the table's arena.
type Handle int

// DuplicateError reports a lexeme declared twice at the same depth.
type DuplicateError struct {
	Lexeme string
	Depth  int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate lexeme %q at depth %d", e.Lexeme, e.Depth)
}

// Table is the symbol table shared by the translator and the code generator.
type Table struct {
	entries  []Entry
	active   *Index
	retained *Index
}

// NewTable returns an empty table with size hash buckets. A size below one
// falls back to DefaultSize.
func NewTable(size int) *Table {
	if size < 1 {
		size = DefaultSize
	}
	t := &Table{}
	t.active = newIndex(t, size)
	t.retained = newIndex(t, size)
	return t
}

// Insert creates an entry of type E for lexeme at depth and returns a mutable
// handle to it. It fails with *DuplicateError when an active entry with the
// same lexeme already exists at that depth.
//
//	v, err := symtab.Insert[symtab.Variable](t, "x", token.IDENT, 2)
func Insert[E any, P interface {
	*E
	Entry
}](t *Table, lexeme string, tok token.Kind, depth int) (P, error) {
	if t.active.declaredAt(lexeme, depth) {
		return nil, &DuplicateError{Lexeme: lexeme, Depth: depth}
	}

	p := P(new(E))
	h := p.Head()
	h.Lexeme = lexeme
	h.Token = tok
	h.Depth = depth

	handle := Handle(len(t.entries))
	t.entries = append(t.entries, p)
	t.active.add(lexeme, handle)
	t.retained.add(lexeme, handle)
	return p, nil
}

// Entry returns the entry stored under h.
func (t *Table) Entry(h Handle) Entry {
	return t.entries[h]
}

// Len returns the number of entries ever inserted.
func (t *Table) Len() int {
	return len(t.entries)
}

// Active returns the index of entries whose block is still open.
func (t *Table) Active() *Index { return t.active }

// Retained returns the index of every entry ever inserted.
func (t *Table) Retained() *Index { return t.retained }

// Lookup is shorthand for t.Active().Lookup(lexeme).
func (t *Table) Lookup(lexeme string) Entry {
	return t.active.Lookup(lexeme)
}

// DeleteDepth removes every active entry declared at depth. Entries stay in
// the retained index.
func (t *Table) DeleteDepth(depth int) {
	t.active.deleteDepth(depth)
}

// DumpDepth lists the active entries declared at depth, one line each, in
// bucket order.
func (t *Table) DumpDepth(depth int) []string {
	var lines []string
	for _, chain := range t.active.buckets {
		for i := len(chain) - 1; i >= 0; i-- {
			e := t.entries[chain[i]]
			h := e.Head()
			if h.Depth == depth {
				lines = append(lines, fmt.Sprintf("%s at depth %d of type %s", h.Lexeme, h.Depth, e.Kind()))
			}
		}
	}
	return lines
}

// String returns every entry ever inserted, in insertion order.
func (t *Table) String() string {
	var sb strings.Builder
	if len(t.entries) == 0 {
		sb.WriteString("Symbols: (empty)\n")
		return sb.String()
	}
	sb.WriteString("Symbols:\n")
	for i, e := range t.entries {
		fmt.Fprintf(&sb, "  %3d  depth %d  %-13s  %s\n", i, e.Head().Depth, e.Kind(), e)
	}
	return sb.String()
}

// Index is a chained hash index over a table's entries. Within a chain the
// most recently inserted handle is last.
type Index struct {
	t       *Table
	buckets [][]Handle
}

func newIndex(t *Table, size int) *Index {
	return &Index{t: t, buckets: make([][]Handle, size)}
}

// hash is Horner's rule with base 12 over the lexeme's bytes.
func (ix *Index) hash(lexeme string) int {
	var total uint64
	for i := 0; i < len(lexeme); i++ {
		total += 11*total + uint64(lexeme[i])
	}
	return int(total % uint64(len(ix.buckets)))
}

func (ix *Index) add(lexeme string, h Handle) {
	b := ix.hash(lexeme)
	ix.buckets[b] = append(ix.buckets[b], h)
}

func (ix *Index) declaredAt(lexeme string, depth int) bool {
	found := false
	ix.each(lexeme, func(e Entry) bool {
		found = e.Head().Depth == depth
		return found
	})
	return found
}

// each calls fn for every entry named lexeme, most recent first, until fn
// returns true.
func (ix *Index) each(lexeme string, fn func(Entry) bool) {
	chain := ix.buckets[ix.hash(lexeme)]
	for i := len(chain) - 1; i >= 0; i-- {
		e := ix.t.entries[chain[i]]
		if e.Head().Lexeme == lexeme && fn(e) {
			return
		}
	}
}

// Find returns the most recent entry named lexeme for which match returns
// true, or nil.
func (ix *Index) Find(lexeme string, match func(Entry) bool) Entry {
	var found Entry
	ix.each(lexeme, func(e Entry) bool {
		if match(e) {
			found = e
			return true
		}
		return false
	})
	return found
}

// Lookup resolves an unqualified lexeme. Variables win over classes, classes
// over methods, and methods over any other entry, since an identifier carries
// no keyword telling which kind it names.
func (ix *Index) Lookup(lexeme string) Entry {
	for _, k := range [...]Kind{KindVariable, KindClass, KindMethod} {
		if e := ix.Find(lexeme, func(e Entry) bool { return e.Kind() == k }); e != nil {
			return e
		}
	}
	return ix.Find(lexeme, func(Entry) bool { return true })
}

// LookupAs returns the most recent entry named lexeme whose concrete type is
// T.
//
//	m, ok := symtab.LookupAs[*symtab.Method](t.Retained(), "add")
func LookupAs[T Entry](ix *Index, lexeme string) (T, bool) {
	e := ix.Find(lexeme, func(e Entry) bool {
		_, ok := e.(T)
		return ok
	})
	if e == nil {
		var zero T
		return zero, false
	}
	return e.(T), true
}

func (ix *Index) deleteDepth(depth int) {
	for b, chain := range ix.buckets {
		kept := chain[:0]
		for _, h := range chain {
			if ix.t.entries[h].Head().Depth != depth {
				kept = append(kept, h)
			}
		}
		ix.buckets[b] = kept
	}
}
