package trace

import (
	"fmt"
	"io"
)

// FlagEntry is one observed condition-code change.
type FlagEntry struct {
	Sequence    uint64
	PC          uint32
	Instruction string
	OldFlags    uint8
	NewFlags    uint8
}

// FlagTrace records condition-code changes, skipping steps that leave every
// flag untouched.
type FlagTrace struct {
	Writer io.Writer

	entries    []FlagEntry
	maxEntries int
	lastFlags  uint8
	have       bool
}

// NewFlagTrace returns a flag-change trace sink writing to w.
func NewFlagTrace(w io.Writer) *FlagTrace {
	return &FlagTrace{Writer: w, maxEntries: 100000}
}

// Record appends an entry if flags differ from the last call (the first
// call is compared against all-clear flags).
func (t *FlagTrace) Record(seq uint64, pc uint32, instr string, newFlags uint8) {
	if t.lastFlags == newFlags {
		return
	}
	if t.maxEntries > 0 && len(t.entries) >= t.maxEntries {
		t.lastFlags, t.have = newFlags, true
		return
	}
	old := t.lastFlags
	t.entries = append(t.entries, FlagEntry{Sequence: seq, PC: pc, Instruction: instr, OldFlags: old, NewFlags: newFlags})
	t.lastFlags, t.have = newFlags, true
}

// Flush writes every recorded entry to Writer.
func (t *FlagTrace) Flush() error {
	if t.Writer == nil {
		return nil
	}
	for _, e := range t.entries {
		line := fmt.Sprintf("[%06d] 0x%04X %-6s %s -> %s\n", e.Sequence, e.PC, e.Instruction, flagString(e.OldFlags), flagString(e.NewFlags))
		if _, err := io.WriteString(t.Writer, line); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns every recorded entry.
func (t *FlagTrace) Entries() []FlagEntry { return t.entries }
