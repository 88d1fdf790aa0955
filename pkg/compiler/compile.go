package compiler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"minijava/pkg/asm"
	"minijava/pkg/symtab"
	"minijava/pkg/tac"
	"minijava/pkg/utils"
)

type config struct {
	log       *zap.Logger
	tableSize int
}

// Option configures Translate, Compile and CompileFile.
type Option func(*config)

// WithLogger sends scope dumps and phase timings to log.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithTableSize sets the number of symbol table hash buckets.
func WithTableSize(n int) Option {
	return func(c *config) { c.tableSize = n }
}

func newConfig(opts []Option) *config {
	c := &config{log: zap.NewNop(), tableSize: symtab.DefaultSize}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Translate runs the first phase: it parses src and writes its TAC to w. The
// TAC emitted before an error is still flushed to w.
func Translate(src string, w io.Writer, opts ...Option) (*symtab.Table, error) {
	c := newConfig(opts)
	table := symtab.NewTable(c.tableSize)
	out := tac.NewWriter(w)

	start := time.Now()
	err := NewParser(NewLexer(src), table, out, c.log).Parse()
	if ferr := out.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("write tac: %w", ferr)
	}
	c.log.Debug("translated",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("symbols", table.Len()),
		zap.Error(err))
	return table, err
}

// Result holds the artifacts of an in-memory compilation.
type Result struct {
	TAC     string
	Asm     string
	Symbols *symtab.Table
}

// Compile runs both phases in memory. Code generation only runs when
// translation succeeded.
func Compile(src string, opts ...Option) (*Result, error) {
	c := newConfig(opts)

	var code bytes.Buffer
	table, err := Translate(src, &code, opts...)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	start := time.Now()
	if err := asm.NewGenerator(table.Retained(), c.log).Generate(bytes.NewReader(code.Bytes()), &out); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	c.log.Debug("generated", zap.Duration("elapsed", time.Since(start)))

	return &Result{TAC: code.String(), Asm: out.String(), Symbols: table}, nil
}

// CompileFile compiles the source at path, writing <base>.tac and <base>.asm
// beside it. On a translation error the .tac file keeps what was emitted and
// no .asm file is produced.
func CompileFile(path string, opts ...Option) (tacPath, asmPath string, err error) {
	c := newConfig(opts)

	src, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read source: %w", err)
	}
	tacPath, asmPath = utils.ArtifactPaths(path)

	table, err := translateFile(string(src), tacPath, opts)
	if err != nil {
		return tacPath, "", err
	}

	if err := generateFile(table, tacPath, asmPath, c.log); err != nil {
		return tacPath, "", err
	}
	return tacPath, asmPath, nil
}

func translateFile(src, tacPath string, opts []Option) (*symtab.Table, error) {
	f, err := os.Create(tacPath)
	if err != nil {
		return nil, fmt.Errorf("create tac: %w", err)
	}
	table, err := Translate(src, f, opts...)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close tac: %w", cerr)
	}
	return table, err
}

func generateFile(table *symtab.Table, tacPath, asmPath string, log *zap.Logger) (err error) {
	in, err := os.Open(tacPath)
	if err != nil {
		return fmt.Errorf("open tac: %w", err)
	}
	defer in.Close()

	out, err := os.Create(asmPath)
	if err != nil {
		return fmt.Errorf("create asm: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close asm: %w", cerr)
		}
		if err != nil {
			os.Remove(asmPath)
		}
	}()

	start := time.Now()
	if err := asm.NewGenerator(table.Retained(), log).Generate(in, out); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	log.Debug("generated", zap.String("file", asmPath), zap.Duration("elapsed", time.Since(start)))
	return nil
}
