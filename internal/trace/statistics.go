package trace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// InstructionStats is the retired count for a single mnemonic.
type InstructionStats struct {
	Mnemonic string
	Count    uint64
}

// Statistics tracks instruction-mix and memory-access counts across a run.
type Statistics struct {
	TotalInstructions uint64
	InstructionCounts map[string]uint64

	BranchCount      uint64
	BranchTakenCount uint64

	MemoryReads  uint64
	MemoryWrites uint64
}

// NewStatistics returns an empty collector.
func NewStatistics() *Statistics {
	return &Statistics{InstructionCounts: make(map[string]uint64)}
}

// controlMnemonics are the word.CategoryControl mnemonics, tracked here
// by name rather than importing internal/word/internal/exec's category
// enum, to keep this package's only dependency the public StepResult shape.
var controlMnemonics = map[string]bool{
	"jmp": true, "je": true, "jne": true, "js": true, "jns": true,
	"jg": true, "jge": true, "jl": true, "jle": true, "call": true,
}

// Record accounts for one retired instruction. taken reports whether a
// control-flow mnemonic actually redirected the PC (irrelevant for non-jumps).
func (s *Statistics) Record(mnemonic string, taken bool) {
	s.TotalInstructions++
	s.InstructionCounts[mnemonic]++

	if controlMnemonics[mnemonic] {
		s.BranchCount++
		if taken {
			s.BranchTakenCount++
		}
	}
}

// RecordMemory accounts for load/store traffic observed via exec.MemEvent.
func (s *Statistics) RecordMemory(kind string) {
	switch kind {
	case "load", "pop":
		s.MemoryReads++
	case "store", "push":
		s.MemoryWrites++
	}
}

// TopInstructions returns the n most frequently executed mnemonics, or all
// of them when n<=0.
func (s *Statistics) TopInstructions(n int) []InstructionStats {
	out := make([]InstructionStats, 0, len(s.InstructionCounts))
	for mn, count := range s.InstructionCounts {
		out = append(out, InstructionStats{Mnemonic: mn, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Mnemonic < out[j].Mnemonic
	})
	if n > 0 && n < len(out) {
		return out[:n]
	}
	return out
}

// ExportJSON writes the full breakdown as JSON.
func (s *Statistics) ExportJSON(w io.Writer) error {
	data := map[string]interface{}{
		"total_instructions": s.TotalInstructions,
		"branch_count":       s.BranchCount,
		"branch_taken":       s.BranchTakenCount,
		"memory_reads":       s.MemoryReads,
		"memory_writes":      s.MemoryWrites,
		"top_instructions":   s.TopInstructions(0),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV writes the summary metrics followed by a per-mnemonic
// breakdown.
func (s *Statistics) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	rows := [][]string{
		{"Total Instructions", fmt.Sprintf("%d", s.TotalInstructions)},
		{"Branch Count", fmt.Sprintf("%d", s.BranchCount)},
		{"Branch Taken", fmt.Sprintf("%d", s.BranchTakenCount)},
		{"Memory Reads", fmt.Sprintf("%d", s.MemoryReads)},
		{"Memory Writes", fmt.Sprintf("%d", s.MemoryWrites)},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Write([]string{})
	cw.Write([]string{"Instruction", "Count"})
	for _, stat := range s.TopInstructions(0) {
		if err := cw.Write([]string{stat.Mnemonic, fmt.Sprintf("%d", stat.Count)}); err != nil {
			return err
		}
	}
	return nil
}

// ExportText writes a plain human-readable summary.
func (s *Statistics) ExportText(w io.Writer) error {
	fmt.Fprintf(w, "Total instructions: %d\n", s.TotalInstructions)
	fmt.Fprintf(w, "Branches: %d (taken %d)\n", s.BranchCount, s.BranchTakenCount)
	fmt.Fprintf(w, "Memory reads: %d, writes: %d\n\n", s.MemoryReads, s.MemoryWrites)
	fmt.Fprintln(w, "Instruction mix:")
	for _, stat := range s.TopInstructions(0) {
		fmt.Fprintf(w, "  %-8s %d\n", stat.Mnemonic, stat.Count)
	}
	return nil
}
