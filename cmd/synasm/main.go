// Command synasm assembles and runs a synasm source file: flag parsing,
// source reading, and the fetch/decode/execute driver loop live here —
// everything internal/asm and internal/exec don't own themselves (§1, §6.1).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/synasm-project/synasm/internal/asm"
	"github.com/synasm-project/synasm/internal/config"
	"github.com/synasm-project/synasm/internal/cpu"
	"github.com/synasm-project/synasm/internal/debugger"
	"github.com/synasm-project/synasm/internal/exec"
	"github.com/synasm-project/synasm/internal/trace"
)

func main() {
	var (
		enableTrace = flag.Bool("trace", false, "Enable execution trace")
		traceFile   = flag.String("trace-file", "", "Execution trace output file (default: trace.log in log dir)")
		traceFilter = flag.String("trace-filter", "", "Filter trace by registers (comma-separated, e.g. r0,r1,r15)")

		enableMemTrace = flag.Bool("mem-trace", false, "Enable memory access trace")
		memTraceFile   = flag.String("mem-trace-file", "", "Memory trace output file (default: memtrace.log)")

		enableStats = flag.Bool("stats", false, "Enable instruction-mix and cycle-count statistics")
		statsFile   = flag.String("stats-file", "", "Statistics output file (default: stats.<format>)")
		statsFormat = flag.String("stats-format", "json", "Statistics format (json, csv, text)")

		showXref = flag.Bool("xref", false, "Print the label cross-reference table and exit")

		maxCycles = flag.Uint64("max-cycles", 1_000_000, "Maximum retired instructions before a fatal abort")

		debugMode = flag.Bool("debug", false, "Start the line-oriented CLI debugger instead of free-running")
		tuiMode   = flag.Bool("tui", false, "Start the full-screen TUI debugger")

		configFile = flag.String("config", "", "Load a TOML config overriding the flag defaults")
		verbose    = flag.Bool("verbose", false, "Verbose output")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: synasm [flags] <source-file>")
		os.Exit(1)
	}
	sourceFile := flag.Arg(0)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Config values apply to every flag not given on the command line.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for name, apply := range map[string]func(){
		"max-cycles":   func() { *maxCycles = cfg.Execution.MaxCycles },
		"trace":        func() { *enableTrace = cfg.Execution.EnableTrace },
		"mem-trace":    func() { *enableMemTrace = cfg.Execution.EnableMem },
		"stats":        func() { *enableStats = cfg.Execution.EnableStats },
		"stats-format": func() { *statsFormat = cfg.Statistics.Format },
	} {
		if !set[name] {
			apply()
		}
	}

	lines, err := readLines(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	program, err := asm.Assemble(lines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", sourceFile, err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Assembled %d instructions, %d labels\n", len(program.Instructions), program.Labels.Len())
	}

	if *showXref {
		if err := asm.WriteXref(os.Stdout, program.Xref()); err != nil {
			fmt.Fprintf(os.Stderr, "xref error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	machine := exec.NewMachine()
	if err := program.Load(machine.State.Mem); err != nil {
		fmt.Fprintf(os.Stderr, "load error: %v\n", err)
		os.Exit(1)
	}

	symbols := buildSymbolTable(program)
	sourceMap := buildSourceMap(program)

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(machine)
		dbg.LoadSymbols(symbols)
		dbg.LoadSourceMap(sourceMap)

		if *tuiMode {
			if err := debugger.RunTUI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Println("synasm debugger - type 'help' for commands")
			fmt.Printf("Program loaded: %s\n\n", sourceFile)
			if err := debugger.RunCLI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "debugger error: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	execTrace, memTrace, stats, closers := setupDiagnostics(diagFlags{
		enableTrace:    *enableTrace,
		traceFile:      *traceFile,
		traceFilter:    *traceFilter,
		enableMemTrace: *enableMemTrace,
		memTraceFile:   *memTraceFile,
		enableStats:    *enableStats,
	}, cfg)
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	if execTrace != nil {
		execTrace.SetFilterRegisters(splitFilter(*traceFilter))
	}

	exitCode := run(machine, *maxCycles, execTrace, memTrace, stats)

	flushDiagnostics(execTrace, memTrace, stats, diagFlags{
		statsFile:   *statsFile,
		statsFormat: *statsFormat,
	}, *verbose)

	os.Exit(exitCode)
}

// controlMnemonics mirrors internal/trace's branch-taken classification: the
// jump mnemonics and call, whose PC can change by something other than +4
// (ret is not counted).
var controlMnemonics = map[string]bool{
	"jmp": true, "je": true, "jne": true, "js": true, "jns": true,
	"jg": true, "jge": true, "jl": true, "jle": true, "call": true,
}

// run drives the fetch/decode/execute loop to completion (halt, fault, or
// the cycle-count safety valve), recording into the optional trace sinks
// after every retired step.
func run(m *exec.Machine, maxCycles uint64, execTrace *trace.ExecutionTrace, memTrace *trace.MemoryTrace, stats *trace.Statistics) int {
	var seq uint64
	for {
		pcBefore := m.State.PC
		result, err := m.Step()
		if err != nil {
			fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
			return 1
		}
		if result.Halted {
			return 0
		}
		seq++

		if execTrace != nil {
			execTrace.Record(seq, result, m.State.GPR, m.State.Flags)
		}
		if memTrace != nil && len(result.MemRanges) > 0 {
			memTrace.Record(seq, result.Addr, result.MemRanges)
		}
		if stats != nil {
			taken := controlMnemonics[result.Mnemonic] && m.State.PC != pcBefore+4
			stats.Record(result.Mnemonic, taken)
			for _, ev := range result.MemRanges {
				stats.RecordMemory(ev.Kind)
			}
		}

		if m.Cycles >= maxCycles {
			fmt.Fprintf(os.Stderr, "aborted: exceeded max-cycles (%d)\n", maxCycles)
			return 1
		}
	}
}

type diagFlags struct {
	enableTrace    bool
	traceFile      string
	traceFilter    string
	enableMemTrace bool
	memTraceFile   string
	enableStats    bool
	statsFile      string
	statsFormat    string
}

// setupDiagnostics opens the requested trace/statistics sinks, returning
// every opened file so the caller can close them once execution finishes.
func setupDiagnostics(f diagFlags, cfg *config.Config) (*trace.ExecutionTrace, *trace.MemoryTrace, *trace.Statistics, []*os.File) {
	var execTrace *trace.ExecutionTrace
	var memTrace *trace.MemoryTrace
	var stats *trace.Statistics
	var closers []*os.File

	if f.enableTrace {
		path := f.traceFile
		if path == "" {
			path = filepath.Join(config.GetLogPath(), cfg.Trace.OutputFile)
		}
		w, err := os.Create(path) // #nosec G304 -- user-specified trace output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating trace file: %v\n", err)
			os.Exit(1)
		}
		closers = append(closers, w)
		execTrace = trace.NewExecutionTrace(w)
		execTrace.MaxEntries = cfg.Trace.MaxEntries
		execTrace.IncludeFlags = cfg.Trace.IncludeFlags
	}

	if f.enableMemTrace {
		path := f.memTraceFile
		if path == "" {
			path = filepath.Join(config.GetLogPath(), "memtrace.log")
		}
		w, err := os.Create(path) // #nosec G304 -- user-specified memory trace output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating memory trace file: %v\n", err)
			os.Exit(1)
		}
		closers = append(closers, w)
		memTrace = trace.NewMemoryTrace(w)
	}

	if f.enableStats {
		stats = trace.NewStatistics()
	}

	return execTrace, memTrace, stats, closers
}

func flushDiagnostics(execTrace *trace.ExecutionTrace, memTrace *trace.MemoryTrace, stats *trace.Statistics, f diagFlags, verbose bool) {
	if execTrace != nil {
		if err := execTrace.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "error flushing execution trace: %v\n", err)
		} else if verbose {
			fmt.Printf("Execution trace written (%d entries)\n", len(execTrace.Entries()))
		}
	}

	if memTrace != nil {
		if err := memTrace.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "error flushing memory trace: %v\n", err)
		} else if verbose {
			fmt.Printf("Memory trace written (%d entries)\n", len(memTrace.Entries()))
		}
	}

	if stats != nil {
		path := f.statsFile
		if path == "" {
			ext := "json"
			switch f.statsFormat {
			case "csv":
				ext = "csv"
			case "text":
				ext = "txt"
			}
			path = filepath.Join(config.GetLogPath(), "stats."+ext)
		}

		w, err := os.Create(path) // #nosec G304 -- user-specified statistics output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating statistics file: %v\n", err)
			return
		}
		defer w.Close()

		switch f.statsFormat {
		case "csv":
			err = stats.ExportCSV(w)
		case "text":
			err = stats.ExportText(w)
		default:
			err = stats.ExportJSON(w)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error exporting statistics: %v\n", err)
		} else if verbose {
			fmt.Printf("Statistics exported: %s\n", path)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-specified source file path
	if err != nil {
		return nil, fmt.Errorf("cannot open source file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading source file: %w", err)
	}
	return lines, nil
}

// buildSymbolTable maps each label to the runtime address of the
// instruction it precedes, for the debugger's expression evaluator and a
// future symbolized trace.
func buildSymbolTable(p *asm.Program) map[string]uint32 {
	symbols := make(map[string]uint32, p.Labels.Len())
	for _, name := range p.Labels.Names() {
		idx, err := p.Labels.Lookup(name)
		if err != nil {
			continue
		}
		symbols[name] = cpu.InstructionStart + uint32(idx)*4
	}
	return symbols
}

// buildSourceMap maps each instruction's address to its raw source line,
// for the debugger's `list` command.
func buildSourceMap(p *asm.Program) map[uint32]string {
	m := make(map[uint32]string, len(p.Instructions))
	for _, inst := range p.Instructions {
		m[inst.Addr] = inst.Raw
	}
	return m
}

func splitFilter(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
