// rox CLI - scans rox source, runs bytecode programs, and starts the
// evaluation service or language server
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/TamplierS1/rox/asm"
	"github.com/TamplierS1/rox/compiler"
	"github.com/TamplierS1/rox/logging"
	"github.com/TamplierS1/rox/manifest"
	"github.com/TamplierS1/rox/pkg/bytecode"
	"github.com/TamplierS1/rox/server"
	"github.com/TamplierS1/rox/vm"
)

// Exit codes, following sysexits.h.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitDataErr  = 65 // lexical or assembly error
	exitSoftware = 70 // runtime error
)

// options holds the parsed command line.
type options struct {
	asmFile  string
	runFile  string
	emitFile string
	disasm   bool
	demo     bool
	trace    bool
	serve    bool
	addr     string
	lsp      bool
	config   string
	init     bool
	verbose  int
	paths    []string
}

// countFlag is a flag.Value that counts repetitions (-v -v).
type countFlag int

func (c *countFlag) String() string { return fmt.Sprint(int(*c)) }

func (c *countFlag) Set(string) error {
	*c++
	return nil
}

func (c *countFlag) IsBoolFlag() bool { return true }

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var opts options
	fs := flag.NewFlagSet("rox", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.asmFile, "asm", "", "Assemble and run a textual bytecode file")
	fs.StringVar(&opts.runFile, "run", "", "Run a binary (ROXB) program")
	fs.StringVar(&opts.emitFile, "emit", "", "With -asm: write the binary program to this file instead of running")
	fs.BoolVar(&opts.disasm, "disasm", false, "With -asm or -run: print the listing instead of running")
	fs.BoolVar(&opts.demo, "demo", false, "Run the built-in demo program")
	fs.BoolVar(&opts.trace, "trace", false, "Trace execution (also "+manifest.TraceEnv+")")
	fs.BoolVar(&opts.serve, "serve", false, "Start the evaluation service")
	fs.StringVar(&opts.addr, "addr", "", "Service address (default from config, else "+manifest.DefaultAddr+")")
	fs.BoolVar(&opts.lsp, "lsp", false, "Start the language server on stdio")
	fs.StringVar(&opts.config, "config", "", "Directory to search for "+manifest.TOMLFile+" / "+manifest.YAMLFile)
	fs.BoolVar(&opts.init, "init", false, "Write a default "+manifest.TOMLFile+" to the config directory")
	fs.Var((*countFlag)(&opts.verbose), "v", "Increase log verbosity (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rox [options] [path]\n\n")
		fmt.Fprintf(stderr, "Without a path, starts a REPL that prints the tokens of each line.\n")
		fmt.Fprintf(stderr, "With a path, prints the tokens of that file.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  rox                          # Start REPL\n")
		fmt.Fprintf(stderr, "  rox script.rox               # Dump tokens\n")
		fmt.Fprintf(stderr, "  rox -demo -trace             # Run the demo with tracing\n")
		fmt.Fprintf(stderr, "  rox -asm prog.rasm -emit p.roxb  # Assemble to a binary program\n")
		fmt.Fprintf(stderr, "  rox -run p.roxb -disasm      # List a binary program\n")
		fmt.Fprintf(stderr, "  rox -serve -addr :8080       # Start the evaluation service\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.paths = fs.Args()
	if len(opts.paths) > 1 {
		fs.Usage()
		return nil, fmt.Errorf("at most one path may be given, got %d", len(opts.paths))
	}
	if opts.asmFile != "" && opts.runFile != "" {
		return nil, errors.New("-asm and -run are mutually exclusive")
	}
	if opts.emitFile != "" && opts.asmFile == "" {
		return nil, errors.New("-emit requires -asm")
	}
	return &opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if opts.init {
		return report(stderr, initProject(opts.config))
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	logging.Configure(cfg.Log)
	log := logging.Get("cli")
	if cfg.Path != "" {
		log.Infof("using %s", cfg.Path)
	}

	machine := vm.NewFromConfig(cfg.VM, vm.WithOutput(stdout), vm.WithLogger(logging.Get("vm")))

	switch {
	case opts.lsp:
		return report(stderr, server.NewLSP().Run())
	case opts.serve:
		return serve(cfg, stderr)
	case opts.demo:
		return report(stderr, machine.Interpret(demoChunk()))
	case opts.asmFile != "" || opts.runFile != "":
		return runProgram(opts, machine, stdout, stderr)
	case len(opts.paths) == 1:
		return dumpFile(opts.paths[0], stdout, stderr)
	default:
		return runREPL(stdin, stdout, stderr)
	}
}

// loadConfig finds the project manifest and applies flag and environment
// overrides.
func loadConfig(opts *options) (*manifest.Manifest, error) {
	dir := opts.config
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}

	cfg, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = manifest.Default()
	}

	cfg.ApplyEnv(os.LookupEnv)
	if opts.trace {
		cfg.VM.Trace = true
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	cfg.Log.Verbosity += opts.verbose
	return cfg, nil
}

// initProject writes a default manifest named after dir. An existing
// manifest is left alone.
func initProject(dir string) error {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	for _, name := range []string{manifest.TOMLFile, manifest.YAMLFile} {
		if _, err := os.Stat(filepath.Join(abs, name)); err == nil {
			return fmt.Errorf("%s already exists in %s", name, abs)
		}
	}

	cfg := manifest.Default()
	cfg.Project.Name = filepath.Base(abs)
	cfg.Project.Version = "0.1.0"
	return cfg.Write(abs)
}

// demoChunk is the fixed demo program: 10.5 - 10.5, returning on line 2.
func demoChunk() *bytecode.Chunk {
	c := bytecode.NewChunk()
	idx := c.AddConstant(bytecode.NumberVal(10.5))
	c.Write(bytecode.Instruction{Op: bytecode.OpConstant, Operand: idx, Line: 1})
	c.Write(bytecode.Instruction{Op: bytecode.OpConstant, Operand: idx, Line: 1})
	c.WriteOp(bytecode.OpSubtract, 1)
	c.WriteOp(bytecode.OpReturn, 2)
	return c
}

// runProgram handles -asm and -run.
func runProgram(opts *options, machine *vm.VM, stdout, stderr io.Writer) int {
	chunk, name, err := loadProgram(opts)
	if err != nil {
		return report(stderr, err)
	}

	switch {
	case opts.emitFile != "":
		data, err := chunk.Serialize()
		if err != nil {
			return report(stderr, err)
		}
		if err := os.WriteFile(opts.emitFile, data, 0o644); err != nil {
			return report(stderr, err)
		}
		return exitOK
	case opts.disasm:
		return report(stderr, chunk.Disassemble(stdout, name))
	default:
		return report(stderr, machine.Interpret(chunk))
	}
}

func loadProgram(opts *options) (*bytecode.Chunk, string, error) {
	if opts.asmFile != "" {
		src, err := os.ReadFile(opts.asmFile)
		if err != nil {
			return nil, "", err
		}
		chunk, err := asm.Assemble(src)
		return chunk, opts.asmFile, err
	}

	data, err := os.ReadFile(opts.runFile)
	if err != nil {
		return nil, "", err
	}
	chunk, err := bytecode.Deserialize(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", opts.runFile, err)
	}
	return chunk, opts.runFile, nil
}

// dumpFile prints the token listing for a source file.
func dumpFile(path string, stdout, stderr io.Writer) int {
	src, err := os.ReadFile(path)
	if err != nil {
		return report(stderr, err)
	}
	return report(stderr, compiler.DumpTokens(stdout, src))
}

func serve(cfg *manifest.Manifest, stderr io.Writer) int {
	srv := server.New(server.WithTrace(cfg.VM.Trace))
	defer srv.Stop()
	if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
		fmt.Fprintf(stderr, "Server error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// report prints err, if any, and maps it to an exit code.
func report(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, err)
	return exitCode(err)
}

func exitCode(err error) int {
	var compileErr *compiler.CompileError
	var asmErr *asm.Error
	switch {
	case errors.As(err, &compileErr), errors.As(err, &asmErr):
		return exitDataErr
	case errors.As(err, new(*vm.RuntimeError)):
		return exitSoftware
	default:
		return exitFailure
	}
}
