package asm

// MaxLabels is the label table's fixed capacity (§3).
const MaxLabels = 100

// LabelTable maps a label name to the zero-based instruction ordinal it
// names. It is insertion-ordered, built during pass 1, and read-only
// during pass 2 and execution (N4) — nothing patches an already-encoded
// word to fix up a forward reference; pass 2 computes the PC-relative
// offset at emission time instead.
type LabelTable struct {
	order []string
	index map[string]int
}

// NewLabelTable returns an empty label table.
func NewLabelTable() *LabelTable {
	return &LabelTable{index: make(map[string]int)}
}

// Define registers label at the given instruction ordinal. Duplicate
// definitions and table overflow are both fatal (§7).
func (t *LabelTable) Define(label string, instrIndex int) error {
	if _, exists := t.index[label]; exists {
		return &LabelError{Label: label, Message: "duplicate label definition"}
	}
	if len(t.order) >= MaxLabels {
		return &LabelError{Label: label, Message: "label table overflow (capacity 100)"}
	}
	t.order = append(t.order, label)
	t.index[label] = instrIndex
	return nil
}

// Lookup returns the instruction ordinal label was defined at, or a fatal
// LabelError if it was never defined.
func (t *LabelTable) Lookup(label string) (int, error) {
	idx, ok := t.index[label]
	if !ok {
		return 0, &LabelError{Label: label, Message: "reference to undefined label"}
	}
	return idx, nil
}

// Len reports how many labels have been defined.
func (t *LabelTable) Len() int { return len(t.order) }

// Names returns the labels in definition order.
func (t *LabelTable) Names() []string {
	return append([]string(nil), t.order...)
}
