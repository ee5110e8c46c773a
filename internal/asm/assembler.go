package asm

import (
	"strings"

	"github.com/synasm-project/synasm/internal/cpu"
	"github.com/synasm-project/synasm/internal/word"
)

// Instruction is one decoded source line, kept around after assembly for
// the cross-reference report and trace annotations.
type Instruction struct {
	Index    int // zero-based ordinal within the instruction stream
	Addr     uint32
	Label    string // label defined on this line, if any
	Mnemonic string
	Args     []string
	Raw      string
	LineNo   int
	Word     uint32
}

// Program is the result of a successful two-pass assembly: the encoded
// instruction stream plus enough bookkeeping for tracing and
// cross-referencing.
type Program struct {
	Labels       *LabelTable
	Instructions []Instruction
}

// line is one tokenized, non-empty source line before label resolution.
type line struct {
	label    string
	mnemonic string
	args     []string
	raw      string
	lineNo   int
}

// tokenizeLine splits a raw source line into an optional label, the
// mnemonic, and its comma-separated arguments (§6.2). Returns ok=false for
// a line that should be skipped (blank or too short).
func tokenizeLine(raw string, lineNo int) (line, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 3 {
		return line{}, false, nil
	}

	rest := trimmed
	label := ""
	if colon := strings.Index(trimmed, ":"); colon >= 0 && !strings.ContainsAny(trimmed[:colon], " \t") {
		label = trimmed[:colon]
		rest = strings.TrimSpace(trimmed[colon+1:])
	}

	if rest == "" {
		return line{label: label, raw: raw, lineNo: lineNo}, true, nil
	}

	fields := strings.Fields(rest)
	mnemonic := strings.ToLower(fields[0])
	argText := strings.TrimSpace(rest[len(fields[0]):])
	args := splitArgs(argText)

	return line{label: label, mnemonic: mnemonic, args: args, raw: raw, lineNo: lineNo}, true, nil
}

// Assemble runs both passes over src's lines and returns the resulting
// Program. It does not touch architectural state; call Load to place the
// encoded words into a cpu.Memory.
func Assemble(lines []string) (*Program, error) {
	labels := NewLabelTable()

	// Pass 1: tokenize every line once, and register labels against the
	// instruction ordinal they precede (§4.4).
	var toks []line
	instrIndex := 0
	for i, raw := range lines {
		l, ok, err := tokenizeLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if l.label != "" {
			if err := labels.Define(l.label, instrIndex); err != nil {
				return nil, err
			}
		}
		if l.mnemonic != "" {
			toks = append(toks, l)
			instrIndex++
		}
	}

	// Pass 2: validate, encode, and assign each instruction its address.
	prog := &Program{Labels: labels}
	for idx, l := range toks {
		mn, ok := word.ByName[l.mnemonic]
		if !ok {
			return nil, &ParseError{Pos: Position{Line: l.lineNo}, Line: l.raw, Message: "unknown mnemonic " + l.mnemonic}
		}

		attr, err := buildAttr(mn, l.args, labels, idx)
		if err != nil {
			return nil, &ParseError{Pos: Position{Line: l.lineNo}, Line: l.raw, Message: "invalid operands", Wrapped: err}
		}

		w, err := word.Encode(attr)
		if err != nil {
			return nil, &ParseError{Pos: Position{Line: l.lineNo}, Line: l.raw, Message: "encode failed", Wrapped: err}
		}

		prog.Instructions = append(prog.Instructions, Instruction{
			Index:    idx,
			Addr:     cpu.InstructionStart + uint32(idx)*4,
			Label:    l.label,
			Mnemonic: l.mnemonic,
			Args:     l.args,
			Raw:      l.raw,
			LineNo:   l.lineNo,
			Word:     w,
		})
	}

	return prog, nil
}

// Load writes the program's encoded words into mem starting at the
// instruction-write pointer's initial value, advancing it by 4 per word
// (I3).
func (p *Program) Load(mem *cpu.Memory) error {
	for _, inst := range p.Instructions {
		if err := mem.WriteInstruction(inst.Addr, inst.Word); err != nil {
			return err
		}
	}
	return nil
}
