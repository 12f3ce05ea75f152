// Xtella CLI - runs a bytecode buffer on the execution core
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/xtella/manifest"
	"github.com/chazu/xtella/pkg/bytecode"
	"github.com/chazu/xtella/vm"
)

var log = commonlog.GetLogger("xtella.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	verbose     int
	trace       bool
	disassemble bool
	docs        bool
	dump        string
	expr        string
	capacity    int
	paths       []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("xtella", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	verbose := fs.Bool("v", false, "Verbose output (info logging)")
	debug := fs.Bool("vv", false, "Debug logging")
	fs.BoolVar(&opts.trace, "trace", false, "Log every executed instruction (implies -vv)")
	fs.BoolVar(&opts.disassemble, "d", false, "Disassemble the program instead of running it")
	fs.BoolVar(&opts.docs, "docs", false, "Print the opcode catalog as YAML and exit")
	fs.StringVar(&opts.dump, "dump", "", "Write a CBOR snapshot of the engine to this path after the run")
	fs.StringVar(&opts.expr, "e", "", "Program text given inline, e.g. '1 5 1 7 2 0'")
	fs.IntVar(&opts.capacity, "capacity", 0, "Operand stack capacity (overrides xtella.toml)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: xtella [options] [file]\n\n")
		fmt.Fprintf(stderr, "Runs a bytecode buffer written as whitespace-separated integers.\n")
		fmt.Fprintf(stderr, "Reads from stdin when neither a file nor -e is given.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  xtella -e '1 5 1 7 2 0'        # 5 + 7, then halt\n")
		fmt.Fprintf(stderr, "  xtella -d prog.xbc              # Disassemble prog.xbc\n")
		fmt.Fprintf(stderr, "  xtella -dump fault.cbor prog.xbc # Keep a snapshot of the run\n")
		fmt.Fprintf(stderr, "  xtella -docs                    # Opcode reference\n")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case opts.trace || *debug:
		opts.verbose = 2
	case *verbose:
		opts.verbose = 1
	}
	opts.paths = fs.Args()
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	m, err := loadManifest()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.capacity > 0 {
		m.Machine.StackCapacity = opts.capacity
	}
	if m.Run.Trace {
		opts.trace = true
		opts.verbose = 2
	}
	verbosity := m.Log.Verbosity
	if opts.verbose > verbosity {
		verbosity = opts.verbose
	}
	commonlog.Configure(verbosity, m.LogPath())

	reg, err := bytecode.NewRegistry()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.docs {
		if err := bytecode.WriteCatalog(stdout, reg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	code, name, err := readProgram(opts, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.disassemble {
		fmt.Fprint(stdout, bytecode.DisassembleWithName(code, reg, name))
		return 0
	}

	return execute(code, reg, m, opts, stdout, stderr)
}

func loadManifest() (*manifest.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

func readProgram(opts *options, stdin io.Reader) ([]int32, string, error) {
	switch {
	case opts.expr != "":
		code, err := bytecode.Parse(opts.expr)
		return code, "-e", err
	case len(opts.paths) > 1:
		return nil, "", fmt.Errorf("expected one program file, got %d", len(opts.paths))
	case len(opts.paths) == 1:
		f, err := os.Open(opts.paths[0])
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		code, err := bytecode.ParseReader(f)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", opts.paths[0], err)
		}
		return code, opts.paths[0], nil
	default:
		code, err := bytecode.ParseReader(stdin)
		return code, "stdin", err
	}
}

func execute(code []int32, reg *vm.Registry, m *manifest.Manifest, opts *options, stdout, stderr io.Writer) int {
	engine := vm.NewEngine(m.Machine.StackCapacity, code, reg,
		vm.WithAllocator(vm.NewBudget(m.Machine.MemoryLimit)),
		vm.WithTrace(opts.trace),
	)

	ctx := context.Background()
	timeout, _ := m.RunTimeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runErr := engine.RunContext(ctx)

	if opts.dump != "" {
		if err := writeSnapshot(opts.dump, engine); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}

	color := isTerminal(stdout)
	fmt.Fprintf(stdout, "%s after %d steps\n", paint(color, engine.State()), engine.Steps())
	printStack(stdout, engine.Stack())

	if runErr != nil {
		if engine.State() == vm.Faulted {
			fmt.Fprintf(stderr, "Fault at ip=%d: %v\n", engine.FaultIP(), runErr)
		} else {
			fmt.Fprintf(stderr, "Stopped at ip=%d: %v\n", engine.IP(), runErr)
		}
		return 1
	}
	return 0
}

func writeSnapshot(path string, engine *vm.Engine) error {
	data, err := vm.MarshalSnapshot(engine.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	log.Infof("wrote snapshot of run %s to %s", engine.ID(), path)
	return nil
}

func printStack(w io.Writer, stack []vm.Value) {
	if len(stack) == 0 {
		fmt.Fprintln(w, "stack: empty")
		return
	}
	fmt.Fprintln(w, "stack (top first):")
	for i := len(stack) - 1; i >= 0; i-- {
		v := stack[i]
		fmt.Fprintf(w, "  %-9s %s\n", v.Kind(), v)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func paint(color bool, s vm.State) string {
	label := strings.ToUpper(s.String())
	if !color {
		return label
	}
	switch s {
	case vm.Halted:
		return "\x1b[32m" + label + "\x1b[0m"
	case vm.Faulted:
		return "\x1b[31m" + label + "\x1b[0m"
	default:
		return "\x1b[33m" + label + "\x1b[0m"
	}
}
