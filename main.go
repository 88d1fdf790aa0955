package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"minijava/pkg/compiler"
	"minijava/pkg/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the exit, so tests can drive the CLI.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("minijava", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "debug logging: scope dumps and phase timings")
	tableSize := fs.Int("buckets", 0, "symbol table hash buckets (default 211)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: minijava [-v] [-buckets n] <file.java>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	log := newLogger(*verbose, stderr)
	defer log.Sync()

	inPath, _, err := utils.GetPathInfo(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "failed to resolve %q: %v\n", fs.Arg(0), err)
		return 1
	}

	opts := []compiler.Option{compiler.WithLogger(log)}
	if *tableSize > 0 {
		opts = append(opts, compiler.WithTableSize(*tableSize))
	}
	tacPath, asmPath, err := compiler.CompileFile(inPath, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", fs.Arg(0), err)
		return 1
	}

	fmt.Fprintf(stdout, "compiled %s -> %s, %s\n", fs.Arg(0), tacPath, asmPath)
	return 0
}

// newLogger builds a development logger writing to w: debug level with -v,
// warnings only otherwise.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
