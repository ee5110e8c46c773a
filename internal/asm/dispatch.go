package asm

import (
	"fmt"

	"github.com/synasm-project/synasm/internal/word"
)

// buildAttr validates the argument tokens for mn and constructs the
// word.Attr to encode, routing on mn.Category exactly as §4.6's dispatch
// glue describes: category determines expected arg count, validator and
// attr-builder together, via the one-shot mnemonic table in
// internal/word rather than a scan over string arrays (N3).
func buildAttr(mn word.Mnemonic, args []string, labels *LabelTable, currentIndex int) (word.Attr, error) {
	switch mn.Category {
	case word.CategoryMemory:
		return buildMemory(mn, args)
	case word.CategoryMemDisplay:
		return buildMemDisplay(mn, args)
	case word.CategoryRType:
		return buildRType(mn, args)
	case word.CategoryIType:
		return buildIType(mn, args)
	case word.CategoryStack:
		return buildStack(mn, args)
	case word.CategoryControl:
		return buildControl(mn, args, labels, currentIndex)
	case word.CategoryMov:
		return buildMov(mn, args)
	case word.CategoryNoOperand:
		return buildNoOperand(mn, args)
	default:
		return word.Attr{}, fmt.Errorf("unrecognized category for mnemonic %q", mn.Name)
	}
}

func requireArgs(mn word.Mnemonic, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s expects %d argument(s), got %d", mn.Name, n, len(args))
	}
	return nil
}

// buildMemory handles `load`/`store`/`lea`: `mnemonic reg, D(Rb+Ri)S`.
func buildMemory(mn word.Mnemonic, args []string) (word.Attr, error) {
	if err := requireArgs(mn, args, 2); err != nil {
		return word.Attr{}, err
	}
	reg, err := ParseRegister(args[0])
	if err != nil {
		return word.Attr{}, err
	}
	mo, err := ParseMemOperand(args[1])
	if err != nil {
		return word.Attr{}, err
	}
	return word.Attr{
		Opcode:   mn.Opcode,
		Format:   word.FormatLoadStore,
		OpReg:    reg,
		BaseReg:  mo.BaseReg,
		IndexReg: mo.IndexReg,
		Scale:    mo.Scale,
		Offset:   mo.Offset,
	}, nil
}

// buildMemDisplay handles `mem $c, reg`, encoded identically to IMM_REG.
func buildMemDisplay(mn word.Mnemonic, args []string) (word.Attr, error) {
	if err := requireArgs(mn, args, 2); err != nil {
		return word.Attr{}, err
	}
	c, err := ParseImmediate(args[0])
	if err != nil {
		return word.Attr{}, err
	}
	reg, err := ParseRegister(args[1])
	if err != nil {
		return word.Attr{}, err
	}
	return word.Attr{
		Opcode:   mn.Opcode,
		Format:   word.FormatMemDisplay,
		OpReg:    reg,
		Constant: int32(int8(c)),
	}, nil
}

// buildRType handles the fourteen arithmetic/logic/shift mnemonics, which
// share a common two-operand (source, destination) layout across three
// physical formats, selected by whether each operand is a register or a
// memory operand: at least one side must be a register (§6.3).
func buildRType(mn word.Mnemonic, args []string) (word.Attr, error) {
	if err := requireArgs(mn, args, 2); err != nil {
		return word.Attr{}, err
	}

	op1IsMem := isMemOperandToken(args[0])
	op2IsMem := isMemOperandToken(args[1])

	attr := word.Attr{Opcode: mn.Opcode}

	switch {
	case !op1IsMem && !op2IsMem:
		src, err := ParseRegister(args[0])
		if err != nil {
			return word.Attr{}, err
		}
		dst, err := ParseRegister(args[1])
		if err != nil {
			return word.Attr{}, err
		}
		attr.Format = word.FormatRegReg
		attr.OpReg = src
		attr.BaseReg = dst

	case !op1IsMem && op2IsMem:
		src, err := ParseRegister(args[0])
		if err != nil {
			return word.Attr{}, err
		}
		mo, err := ParseMemOperand(args[1])
		if err != nil {
			return word.Attr{}, err
		}
		attr.Format = word.FormatRegMem
		attr.OpReg = src
		attr.BaseReg = mo.BaseReg
		attr.IndexReg = mo.IndexReg
		attr.Scale = mo.Scale
		attr.Offset = mo.Offset

	case op1IsMem && !op2IsMem:
		mo, err := ParseMemOperand(args[0])
		if err != nil {
			return word.Attr{}, err
		}
		dst, err := ParseRegister(args[1])
		if err != nil {
			return word.Attr{}, err
		}
		attr.Format = word.FormatMemReg
		attr.OpReg = dst
		attr.BaseReg = mo.BaseReg
		attr.IndexReg = mo.IndexReg
		attr.Scale = mo.Scale
		attr.Offset = mo.Offset

	default:
		return word.Attr{}, fmt.Errorf("%s requires at least one register operand", mn.Name)
	}

	return attr, nil
}

// buildIType handles the thirteen immediate-operand mnemonics:
// `mnemonic $imm, (reg|mem)`.
func buildIType(mn word.Mnemonic, args []string) (word.Attr, error) {
	if err := requireArgs(mn, args, 2); err != nil {
		return word.Attr{}, err
	}
	c, err := ParseImmediate(args[0])
	if err != nil {
		return word.Attr{}, err
	}

	attr := word.Attr{Opcode: mn.Opcode, Constant: int32(int8(c))}

	if isMemOperandToken(args[1]) {
		mo, err := ParseMemOperand(args[1])
		if err != nil {
			return word.Attr{}, err
		}
		if mo.IndexReg == 0 {
			return word.Attr{}, fmt.Errorf("%s: an IMM_MEM operand must name a nonzero index register — the decoder tells IMM_REG and IMM_MEM apart by that field being zero or not", mn.Name)
		}
		attr.Format = word.FormatImmMem
		attr.BaseReg = mo.BaseReg
		attr.IndexReg = mo.IndexReg
		attr.Scale = mo.Scale
		attr.Offset = mo.Offset
		return attr, nil
	}

	reg, err := ParseRegister(args[1])
	if err != nil {
		return word.Attr{}, err
	}
	attr.Format = word.FormatImmReg
	attr.OpReg = reg
	return attr, nil
}

// buildStack handles `push reg` / `pop reg`.
func buildStack(mn word.Mnemonic, args []string) (word.Attr, error) {
	if err := requireArgs(mn, args, 1); err != nil {
		return word.Attr{}, err
	}
	reg, err := ParseRegister(args[0])
	if err != nil {
		return word.Attr{}, err
	}
	return word.Attr{Opcode: mn.Opcode, Format: word.FormatStackReg, OpReg: reg}, nil
}

// buildControl handles `mnemonic label` for jumps and call. The stored
// offset is (target_index - current_index - 1), matching pass-2 emission
// discipline (N4, §4.4).
func buildControl(mn word.Mnemonic, args []string, labels *LabelTable, currentIndex int) (word.Attr, error) {
	if err := requireArgs(mn, args, 1); err != nil {
		return word.Attr{}, err
	}
	target, err := labels.Lookup(args[0])
	if err != nil {
		return word.Attr{}, err
	}
	offset := target - currentIndex - 1
	return word.Attr{Opcode: mn.Opcode, Format: word.FormatControlLabel, Constant: int32(offset)}, nil
}

// buildMov handles `mov reg, reg` and `movi $imm, reg`. For `mov`, the
// first operand is the source and the second the destination; the codec
// stores source in BaseReg and destination in OpReg (confirmed against
// the mnemonic's call convention: the first operand feeds op1, the second
// op2, and executeMov copies *op1 into *op2).
func buildMov(mn word.Mnemonic, args []string) (word.Attr, error) {
	if err := requireArgs(mn, args, 2); err != nil {
		return word.Attr{}, err
	}
	switch mn.Name {
	case "mov":
		src, err := ParseRegister(args[0])
		if err != nil {
			return word.Attr{}, err
		}
		dst, err := ParseRegister(args[1])
		if err != nil {
			return word.Attr{}, err
		}
		return word.Attr{Opcode: mn.Opcode, Format: word.FormatMovRegReg, BaseReg: src, OpReg: dst}, nil
	case "movi":
		c, err := ParseImmediate(args[0])
		if err != nil {
			return word.Attr{}, err
		}
		dst, err := ParseRegister(args[1])
		if err != nil {
			return word.Attr{}, err
		}
		return word.Attr{Opcode: mn.Opcode, Format: word.FormatMovImmReg, OpReg: dst, Constant: int32(int16(c))}, nil
	default:
		return word.Attr{}, fmt.Errorf("unrecognized mov mnemonic %q", mn.Name)
	}
}

// buildNoOperand handles `ret`.
func buildNoOperand(mn word.Mnemonic, args []string) (word.Attr, error) {
	if err := requireArgs(mn, args, 0); err != nil {
		return word.Attr{}, err
	}
	return word.Attr{Opcode: mn.Opcode, Format: word.FormatNoOperand}, nil
}
