package asm

import (
	"fmt"
	"io"
	"sort"

	"github.com/synasm-project/synasm/internal/word"
)

// XrefEntry is one label's cross-reference: the instruction index it was
// defined at, and every instruction index that names it as a jump/call
// target.
type XrefEntry struct {
	Label      string
	DefinedAt  int
	References []int
}

// Xref builds a cross-reference over the program's label table: a
// read-only report of where each label is defined and used, not an
// extension of the flat label table itself.
func (p *Program) Xref() []XrefEntry {
	entries := make(map[string]*XrefEntry, p.Labels.Len())
	for _, name := range p.Labels.Names() {
		idx, _ := p.Labels.Lookup(name)
		entries[name] = &XrefEntry{Label: name, DefinedAt: idx}
	}

	for _, inst := range p.Instructions {
		mn, ok := word.ByName[inst.Mnemonic]
		if !ok || mn.Category != word.CategoryControl || len(inst.Args) == 0 {
			continue
		}
		if e, ok := entries[inst.Args[0]]; ok {
			e.References = append(e.References, inst.Index)
		}
	}

	out := make([]XrefEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// WriteXref renders a cross-reference table in the teacher's column-aligned
// report style.
func WriteXref(w io.Writer, entries []XrefEntry) error {
	for _, e := range entries {
		refs := "none"
		if len(e.References) > 0 {
			refs = fmt.Sprintf("%v", e.References)
		}
		if _, err := fmt.Fprintf(w, "%-20s defined at #%-4d referenced at %s\n", e.Label, e.DefinedAt, refs); err != nil {
			return err
		}
	}
	return nil
}
