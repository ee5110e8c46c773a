package debugger

import (
	"fmt"
	"strings"

	"github.com/synasm-project/synasm/internal/cpu"
	"github.com/synasm-project/synasm/internal/exec"
)

// StepMode selects what ShouldBreak is waiting for.
type StepMode int

const (
	StepNone StepMode = iota
	StepSingle
	StepOver
)

// Debugger wraps a Machine with breakpoints, watchpoints, command history
// and an expression evaluator, driving execution one Step at a time rather
// than through exec's own loop (§5's embedding contract).
type Debugger struct {
	Machine *exec.Machine

	Breakpoints *Breakpoints
	Watchpoints *Watchpoints
	History     *History
	Evaluator   *Evaluator

	Running    bool
	StepMode   StepMode
	StepOverPC uint32

	Symbols   map[string]uint32
	SourceMap map[uint32]string

	LastCommand string

	Output strings.Builder
}

// NewDebugger wraps m with a fresh debugger session.
func NewDebugger(m *exec.Machine) *Debugger {
	return &Debugger{
		Machine:     m,
		Breakpoints: NewBreakpoints(),
		Watchpoints: NewWatchpoints(),
		History:     NewHistory(),
		Evaluator:   NewEvaluator(),
		Symbols:     make(map[string]uint32),
		SourceMap:   make(map[uint32]string),
	}
}

// LoadSymbols installs the label->address table used to resolve names in
// expressions and breakpoint targets.
func (d *Debugger) LoadSymbols(symbols map[string]uint32) { d.Symbols = symbols }

// LoadSourceMap installs the address->source-line table used by `list`.
func (d *Debugger) LoadSourceMap(m map[uint32]string) { d.SourceMap = m }

// ResolveAddress resolves a label or a 0x-prefixed/decimal literal to an
// address.
func (d *Debugger) ResolveAddress(s string) (uint32, error) {
	if addr, ok := d.Symbols[s]; ok {
		return addr, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return v, nil
}

// ExecuteCommand parses and dispatches one command line. An empty line
// repeats the last command, gdb-style.
func (d *Debugger) ExecuteCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		line = d.LastCommand
	}
	if line != "" {
		d.History.Add(line)
		d.LastCommand = line
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return d.dispatch(strings.ToLower(fields[0]), fields[1:])
}

// ShouldBreak reports whether execution should pause before the next Step,
// and why.
func (d *Debugger) ShouldBreak() (bool, string) {
	pc := d.Machine.State.PC

	switch d.StepMode {
	case StepSingle:
		d.StepMode = StepNone
		return true, "single step"
	case StepOver:
		if pc == d.StepOverPC {
			d.StepMode = StepNone
			return true, "step over complete"
		}
	}

	if bp := d.Breakpoints.At(pc); bp != nil && bp.Enabled {
		if bp.Condition != "" {
			ok, err := d.Evaluator.Evaluate(bp.Condition, d.Machine, d.Symbols)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !ok {
				return false, ""
			}
		}
		d.Breakpoints.RecordHit(bp)
		return true, fmt.Sprintf("breakpoint %d", bp.ID)
	}

	if wp, changed := d.Watchpoints.Check(d.Machine, d.Evaluator, d.Symbols); changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression)
	}

	return false, ""
}

// GetOutput drains and returns everything written since the last call.
func (d *Debugger) GetOutput() string {
	out := d.Output.String()
	d.Output.Reset()
	return out
}

// Printf appends formatted text to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

// Println appends a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	fmt.Fprintln(&d.Output, args...)
}

// SetStepOver arranges to stop once PC returns past the call at the
// current instruction, or falls back to a single step if the current word
// isn't `call`.
func (d *Debugger) SetStepOver(isCall bool) {
	if isCall {
		d.StepOverPC = d.Machine.State.PC + 4
		d.StepMode = StepOver
	} else {
		d.StepMode = StepSingle
	}
	d.Running = true
}

// SetStepSingle arranges to stop after exactly one Step.
func (d *Debugger) SetStepSingle() {
	d.StepMode = StepSingle
	d.Running = true
}

// flagLetters renders the condition-code byte the way `info flags` shows it.
func flagLetters(flags uint8) string {
	bit := func(mask uint8, c byte) byte {
		if flags&mask != 0 {
			return c
		}
		return '-'
	}
	return string([]byte{
		bit(cpu.FlagSF, 'S'),
		bit(cpu.FlagOF, 'O'),
		bit(cpu.FlagPF, 'P'),
		bit(cpu.FlagZF, 'Z'),
		bit(cpu.FlagCF, 'C'),
	})
}
