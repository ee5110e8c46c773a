package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestStatisticsRecord(t *testing.T) {
	s := NewStatistics()
	s.Record("add", false)
	s.Record("add", false)
	s.Record("jmp", true)
	s.RecordMemory("load")
	s.RecordMemory("store")

	if s.TotalInstructions != 3 {
		t.Errorf("expected 3 total instructions, got %d", s.TotalInstructions)
	}
	if s.InstructionCounts["add"] != 2 {
		t.Errorf("expected 2 adds, got %d", s.InstructionCounts["add"])
	}
	if s.BranchCount != 1 || s.BranchTakenCount != 1 {
		t.Errorf("expected 1 branch taken, got count=%d taken=%d", s.BranchCount, s.BranchTakenCount)
	}
	if s.MemoryReads != 1 || s.MemoryWrites != 1 {
		t.Errorf("expected 1 read and 1 write, got reads=%d writes=%d", s.MemoryReads, s.MemoryWrites)
	}
}

func TestStatisticsTopInstructions(t *testing.T) {
	s := NewStatistics()
	s.Record("add", false)
	s.Record("sub", false)
	s.Record("sub", false)

	top := s.TopInstructions(1)
	if len(top) != 1 || top[0].Mnemonic != "sub" {
		t.Errorf("expected top instruction sub, got %+v", top)
	}
}

func TestStatisticsExportJSON(t *testing.T) {
	s := NewStatistics()
	s.Record("add", false)

	var buf bytes.Buffer
	if err := s.ExportJSON(&buf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out["total_instructions"].(float64) != 1 {
		t.Errorf("unexpected total_instructions: %v", out["total_instructions"])
	}
}

func TestStatisticsExportCSV(t *testing.T) {
	s := NewStatistics()
	s.Record("add", false)

	var buf bytes.Buffer
	if err := s.ExportCSV(&buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Instructions") {
		t.Errorf("expected CSV header, got %q", buf.String())
	}
}

func TestStatisticsExportText(t *testing.T) {
	s := NewStatistics()
	s.Record("jmp", true)

	var buf bytes.Buffer
	if err := s.ExportText(&buf); err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	if !strings.Contains(buf.String(), "Branches: 1") {
		t.Errorf("expected branch summary, got %q", buf.String())
	}
}
