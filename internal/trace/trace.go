// Package trace holds the execution/memory/flag trace sinks and the
// instruction-mix statistics collector, modeled on the teacher's
// vm.ExecutionTrace/vm.MemoryTrace/vm.PerformanceStatistics: plain structs
// that a caller feeds StepResult/MemEvent snapshots and periodically
// flushes to an io.Writer. None of this touches architectural state; it
// only observes what internal/exec reports back from Step.
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/synasm-project/synasm/internal/exec"
)

// ExecutionEntry is one retired instruction, with the register changes it
// produced.
type ExecutionEntry struct {
	Sequence        uint64
	Addr            uint32
	Mnemonic        string
	RegisterChanges map[string]uint32
	Flags           uint8
}

// ExecutionTrace records one entry per Step call and renders them on
// demand. Registers not named in FilterRegs are tracked when FilterRegs is
// empty (track everything).
type ExecutionTrace struct {
	Writer       io.Writer
	FilterRegs   map[string]bool
	IncludeFlags bool
	MaxEntries   int

	entries      []ExecutionEntry
	lastSnapshot [16]uint32
	haveSnapshot bool
}

// NewExecutionTrace returns a trace sink writing to w.
func NewExecutionTrace(w io.Writer) *ExecutionTrace {
	return &ExecutionTrace{
		Writer:       w,
		IncludeFlags: true,
		MaxEntries:   100000,
		entries:      make([]ExecutionEntry, 0, 1000),
	}
}

// SetFilterRegisters restricts change-tracking to the named registers
// ("r0".."r15"). An empty list tracks all of them.
func (t *ExecutionTrace) SetFilterRegisters(regs []string) {
	t.FilterRegs = make(map[string]bool, len(regs))
	for _, r := range regs {
		t.FilterRegs[strings.ToLower(r)] = true
	}
}

// Record appends a trace entry for one Step result, diffing GPR state
// against the previous call (the first call is diffed against an all-zero
// register file).
func (t *ExecutionTrace) Record(seq uint64, result exec.StepResult, gpr [16]uint32, flags uint8) {
	if t.MaxEntries > 0 && len(t.entries) >= t.MaxEntries {
		return
	}

	entry := ExecutionEntry{
		Sequence:        seq,
		Addr:            result.Addr,
		Mnemonic:        result.Mnemonic,
		RegisterChanges: make(map[string]uint32),
		Flags:           flags,
	}

	for i, v := range gpr {
		name := fmt.Sprintf("r%d", i)
		if len(t.FilterRegs) > 0 && !t.FilterRegs[name] {
			continue
		}
		if t.lastSnapshot[i] != v {
			entry.RegisterChanges[name] = v
		}
	}
	t.lastSnapshot = gpr
	t.haveSnapshot = true

	t.entries = append(t.entries, entry)
}

// Flush writes every recorded entry to Writer, one line each.
func (t *ExecutionTrace) Flush() error {
	if t.Writer == nil {
		return nil
	}
	for _, e := range t.entries {
		if err := t.writeEntry(e); err != nil {
			return err
		}
	}
	return nil
}

func (t *ExecutionTrace) writeEntry(e ExecutionEntry) error {
	line := fmt.Sprintf("[%06d] 0x%04X: %-6s", e.Sequence, e.Addr, e.Mnemonic)

	if len(e.RegisterChanges) > 0 {
		changes := make([]string, 0, len(e.RegisterChanges))
		for name, v := range e.RegisterChanges {
			changes = append(changes, fmt.Sprintf("%s=0x%08X", name, v))
		}
		line += " | " + strings.Join(changes, " ")
	} else {
		line += " | (no changes)"
	}

	if t.IncludeFlags {
		line += " | " + flagString(e.Flags)
	}

	_, err := io.WriteString(t.Writer, line+"\n")
	return err
}

// flagString renders the condition-code byte as S/O/P/Z/C letters (SF, OF,
// PF, ZF, CF in that order), dash where clear.
func flagString(flags uint8) string {
	bit := func(mask uint8, c byte) byte {
		if flags&mask != 0 {
			return c
		}
		return '-'
	}
	return string([]byte{
		bit(1<<7, 'S'),
		bit(1<<6, 'O'),
		bit(1<<4, 'P'),
		bit(1<<2, 'Z'),
		bit(1<<0, 'C'),
	})
}

// Entries returns every recorded entry.
func (t *ExecutionTrace) Entries() []ExecutionEntry { return t.entries }

// MemoryTrace records loads, stores, pushes and pops observed via
// exec.MemEvent.
type MemoryTrace struct {
	Writer     io.Writer
	MaxEntries int

	entries []MemoryEntry
}

// MemoryEntry is one recorded memory access.
type MemoryEntry struct {
	Sequence uint64
	PC       uint32
	Kind     string
	Addr     uint32
	Value    uint32
}

// NewMemoryTrace returns a trace sink writing to w.
func NewMemoryTrace(w io.Writer) *MemoryTrace {
	return &MemoryTrace{Writer: w, MaxEntries: 100000, entries: make([]MemoryEntry, 0, 1000)}
}

// Record appends every memory event observed during one Step.
func (t *MemoryTrace) Record(seq uint64, pc uint32, events []exec.MemEvent) {
	for _, ev := range events {
		if t.MaxEntries > 0 && len(t.entries) >= t.MaxEntries {
			return
		}
		t.entries = append(t.entries, MemoryEntry{Sequence: seq, PC: pc, Kind: ev.Kind, Addr: ev.Addr, Value: ev.Value})
	}
}

// Flush writes every recorded entry to Writer.
func (t *MemoryTrace) Flush() error {
	if t.Writer == nil {
		return nil
	}
	for _, e := range t.entries {
		line := fmt.Sprintf("[%06d] [%-6s] 0x%04X -> [0x%08X] = 0x%08X\n", e.Sequence, e.Kind, e.PC, e.Addr, e.Value)
		if _, err := io.WriteString(t.Writer, line); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns every recorded entry.
func (t *MemoryTrace) Entries() []MemoryEntry { return t.entries }
