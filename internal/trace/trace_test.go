package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/synasm-project/synasm/internal/exec"
)

func TestExecutionTraceRecordsChangesOnly(t *testing.T) {
	var buf bytes.Buffer
	tr := NewExecutionTrace(&buf)

	var gpr [16]uint32
	tr.Record(0, exec.StepResult{Addr: 1024, Mnemonic: "movi"}, gpr, 0)

	gpr[1] = 42
	tr.Record(1, exec.StepResult{Addr: 1028, Mnemonic: "addi"}, gpr, 1<<2)

	if err := tr.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "r1=0x0000002A") {
		t.Errorf("expected changed register r1 in output, got %q", out)
	}
	if !strings.Contains(out, "(no changes)") {
		t.Errorf("expected first entry to report no changes, got %q", out)
	}
}

func TestExecutionTraceFilterRegisters(t *testing.T) {
	var buf bytes.Buffer
	tr := NewExecutionTrace(&buf)
	tr.SetFilterRegisters([]string{"r0"})

	var gpr [16]uint32
	tr.Record(0, exec.StepResult{Addr: 1024}, gpr, 0)
	gpr[1] = 5
	gpr[0] = 9
	tr.Record(1, exec.StepResult{Addr: 1028}, gpr, 0)

	entries := tr.Entries()
	if _, ok := entries[1].RegisterChanges["r1"]; ok {
		t.Error("r1 change should have been filtered out")
	}
	if _, ok := entries[1].RegisterChanges["r0"]; !ok {
		t.Error("r0 change should have been recorded")
	}
}

func TestMemoryTraceRecordsEvents(t *testing.T) {
	var buf bytes.Buffer
	mt := NewMemoryTrace(&buf)

	mt.Record(3, 1024, []exec.MemEvent{{Kind: "store", Addr: 9216, Value: 7}})

	if len(mt.Entries()) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(mt.Entries()))
	}
	if err := mt.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.Contains(buf.String(), "0x00002400") {
		t.Errorf("expected address in output, got %q", buf.String())
	}
}

func TestMemoryTraceMaxEntries(t *testing.T) {
	mt := NewMemoryTrace(nil)
	mt.MaxEntries = 2
	mt.Record(0, 0, []exec.MemEvent{{Kind: "load"}, {Kind: "load"}, {Kind: "load"}})

	if len(mt.Entries()) != 2 {
		t.Errorf("expected entries capped at 2, got %d", len(mt.Entries()))
	}
}

func TestFlagStringOrder(t *testing.T) {
	got := flagString(1<<7 | 1<<0)
	want := "S--" + "-" + "C"
	if got != want {
		t.Errorf("flagString = %q, want %q", got, want)
	}
}
