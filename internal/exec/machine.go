// Package exec implements the fetch-decode-execute loop: the per-mnemonic
// semantic actions dispatched by decoded format, driving PC, memory and
// flags. All state lives in a single Machine, mutated only through its
// Step method (N1) — there is no package-level architectural state.
package exec

import (
	"fmt"

	"github.com/synasm-project/synasm/internal/alu"
	"github.com/synasm-project/synasm/internal/cpu"
	"github.com/synasm-project/synasm/internal/word"
)

// FaultError reports a fatal execution-time failure: an unsupported decoded
// format, an invalid memory access, or a divide-by-zero. It always
// terminates the run.
type FaultError struct {
	PC      uint32
	Message string
	Wrapped error
}

func (e *FaultError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("execution fault at PC=0x%04X: %s: %v", e.PC, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("execution fault at PC=0x%04X: %s", e.PC, e.Message)
}

func (e *FaultError) Unwrap() error { return e.Wrapped }

// StepResult reports what Step just did, for trace sinks (internal/trace)
// and the debugger to observe without reaching into Machine internals.
type StepResult struct {
	Addr      uint32 // address the instruction was fetched from
	Word      uint32 // raw encoded word
	Mnemonic  string
	Halted    bool // true when the fetched word was zero
	MemRanges []MemEvent
}

// MemEvent records one load/store/push/pop observed during a Step, for
// memory trace sinks.
type MemEvent struct {
	Kind  string // "load", "store", "push", "pop", or "mem-display" (Addr = low end, Value = high end of the range)
	Addr  uint32
	Value uint32
}

// Machine is the architectural state plus the glue needed to execute a
// program against it: decoded-instruction dispatch lives entirely in
// Step. Embedding a Machine is how a future tool (a debugger) drives
// execution without reaching past this one method (§5).
type Machine struct {
	State *cpu.State

	// Cycles counts retired (non-halt) Step calls, for a harness-level
	// max-cycles safety valve; it has no architectural meaning.
	Cycles uint64

	events []MemEvent
}

// NewMachine returns a Machine with freshly seeded architectural state.
func NewMachine() *Machine {
	return &Machine{State: cpu.NewState()}
}

// Reset restores the machine to its seeded initial state.
func (m *Machine) Reset() {
	m.State.Reset()
	m.Cycles = 0
}

// Step fetches one instruction at PC, decodes and executes it. It returns
// a StepResult with Halted=true (and otherwise does nothing) when the
// fetched word is zero (N6).
func (m *Machine) Step() (StepResult, error) {
	s := m.State
	addr := s.PC

	raw, err := s.Mem.FetchWord(addr)
	if err != nil {
		return StepResult{}, &FaultError{PC: addr, Message: "instruction fetch failed", Wrapped: err}
	}
	if raw == 0 {
		return StepResult{Addr: addr, Word: raw, Halted: true}, nil
	}
	s.PC += 4

	opcode := uint8(raw >> 26)
	mn, ok := word.ByOpcode[opcode]
	if !ok {
		return StepResult{}, &FaultError{PC: addr, Message: fmt.Sprintf("unrecognized opcode 0x%02X", opcode)}
	}

	attr, err := word.Decode(raw, mn.Category)
	if err != nil {
		return StepResult{}, &FaultError{PC: addr, Message: "decode failed", Wrapped: err}
	}

	m.events = m.events[:0]
	if err := m.execute(mn, attr); err != nil {
		return StepResult{}, err
	}
	m.Cycles++

	return StepResult{Addr: addr, Word: raw, Mnemonic: mn.Name, MemRanges: append([]MemEvent(nil), m.events...)}, nil
}

func (m *Machine) recordMem(kind string, addr, value uint32) {
	m.events = append(m.events, MemEvent{Kind: kind, Addr: addr, Value: value})
}

// effectiveAddress computes base + index*scale + sign-extend(offset), per
// §4.3 step 4.
func (m *Machine) effectiveAddress(attr word.Attr) uint32 {
	s := m.State
	base := s.GPR[attr.BaseReg]
	index := s.GPR[attr.IndexReg]
	scale := uint32(attr.Scale)
	offset := uint32(int32(attr.Offset))
	return base + index*scale + offset
}

func (m *Machine) execute(mn word.Mnemonic, attr word.Attr) error {
	s := m.State

	switch mn.Category {
	case word.CategoryMemory:
		return m.executeMemory(mn, attr)
	case word.CategoryMemDisplay:
		return m.executeMemDisplay(attr)
	case word.CategoryRType:
		return m.executeRType(mn, attr)
	case word.CategoryIType:
		return m.executeIType(mn, attr)
	case word.CategoryStack:
		return m.executeStack(mn, attr)
	case word.CategoryControl:
		return m.executeControl(mn, attr)
	case word.CategoryMov:
		return m.executeMov(mn, attr)
	case word.CategoryNoOperand:
		return m.executeNoOperand(mn)
	default:
		return &FaultError{PC: s.PC, Message: "unsupported decoded format"}
	}
}

func (m *Machine) executeMemory(mn word.Mnemonic, attr word.Attr) error {
	s := m.State
	addr := m.effectiveAddress(attr)

	switch mn.Name {
	case "load":
		val, err := s.Mem.ReadWord(addr)
		if err != nil {
			return &FaultError{PC: s.PC, Message: "load out of bounds", Wrapped: err}
		}
		s.GPR[attr.OpReg] = val
		s.MAR = addr
		s.MDR = val
		m.recordMem("load", addr, val)
	case "store":
		val := s.GPR[attr.OpReg]
		if err := s.Mem.WriteWord(addr, val); err != nil {
			return &FaultError{PC: s.PC, Message: "store out of bounds", Wrapped: err}
		}
		s.MAR = addr
		s.MDR = val
		m.recordMem("store", addr, val)
	case "lea":
		if err := s.Mem.CheckDataBounds(addr); err != nil {
			return &FaultError{PC: s.PC, Message: "lea out of bounds", Wrapped: err}
		}
		s.GPR[attr.OpReg] = addr
	default:
		return &FaultError{PC: s.PC, Message: "unrecognized memory mnemonic " + mn.Name}
	}
	return nil
}

// executeMemDisplay handles `mem $c, reg`: a pure trace-sink event, not a
// register/memory mutation, so it produces a MemEvent for internal/trace
// to render rather than touching state.
func (m *Machine) executeMemDisplay(attr word.Attr) error {
	s := m.State
	base := s.GPR[attr.OpReg]
	delta := uint32(int32(attr.Constant))
	lo, hi := base, base+delta
	if hi < lo {
		lo, hi = hi, lo
	}
	m.recordMem("mem-display", lo, hi)
	return nil
}

func (m *Machine) executeStack(mn word.Mnemonic, attr word.Attr) error {
	s := m.State
	switch mn.Name {
	case "push":
		return m.push(s.GPR[attr.OpReg])
	case "pop":
		v, err := m.pop()
		if err != nil {
			return err
		}
		s.GPR[attr.OpReg] = v
		return nil
	default:
		return &FaultError{PC: s.PC, Message: "unrecognized stack mnemonic " + mn.Name}
	}
}

func (m *Machine) push(value uint32) error {
	s := m.State
	s.GPR[cpu.SP] -= 4
	addr := s.GPR[cpu.SP]
	if err := s.Mem.WriteWord(addr, value); err != nil {
		return &FaultError{PC: s.PC, Message: "push out of bounds", Wrapped: err}
	}
	m.recordMem("push", addr, value)
	return nil
}

func (m *Machine) pop() (uint32, error) {
	s := m.State
	addr := s.GPR[cpu.SP]
	v, err := s.Mem.ReadWord(addr)
	if err != nil {
		return 0, &FaultError{PC: s.PC, Message: "pop out of bounds", Wrapped: err}
	}
	s.GPR[cpu.SP] += 4
	m.recordMem("pop", addr, v)
	return v, nil
}

func (m *Machine) executeControl(mn word.Mnemonic, attr word.Attr) error {
	s := m.State
	delta := attr.Constant * 4

	jump := func() { s.PC = uint32(int64(s.PC) + int64(delta)) }

	switch mn.Name {
	case "jmp":
		jump()
	case "je":
		if s.Flag(cpu.FlagZF) {
			jump()
		}
	case "jne":
		if !s.Flag(cpu.FlagZF) {
			jump()
		}
	case "js":
		if s.Flag(cpu.FlagSF) {
			jump()
		}
	case "jns":
		if !s.Flag(cpu.FlagSF) {
			jump()
		}
	case "jg":
		if !s.Flag(cpu.FlagZF) && !(s.Flag(cpu.FlagSF) != s.Flag(cpu.FlagOF)) {
			jump()
		}
	case "jge":
		if !(s.Flag(cpu.FlagSF) != s.Flag(cpu.FlagOF)) {
			jump()
		}
	case "jl":
		if s.Flag(cpu.FlagSF) != s.Flag(cpu.FlagOF) {
			jump()
		}
	case "jle":
		if (s.Flag(cpu.FlagSF) != s.Flag(cpu.FlagOF)) || s.Flag(cpu.FlagZF) {
			jump()
		}
	case "call":
		if err := m.push(s.PC); err != nil {
			return err
		}
		jump()
	default:
		return &FaultError{PC: s.PC, Message: "unrecognized control mnemonic " + mn.Name}
	}
	return nil
}

func (m *Machine) executeMov(mn word.Mnemonic, attr word.Attr) error {
	s := m.State
	switch mn.Name {
	case "mov":
		// base_reg is the source, op_reg is the destination.
		s.GPR[attr.OpReg] = s.GPR[attr.BaseReg]
	case "movi":
		s.GPR[attr.OpReg] = uint32(attr.Constant)
	default:
		return &FaultError{PC: s.PC, Message: "unrecognized mov mnemonic " + mn.Name}
	}
	return nil
}

func (m *Machine) executeNoOperand(mn word.Mnemonic) error {
	switch mn.Name {
	case "ret":
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.State.PC = v
	default:
		return &FaultError{PC: m.State.PC, Message: "unrecognized no-operand mnemonic " + mn.Name}
	}
	return nil
}

// rTypeOperands resolves the (source, destination) pair for an R-type
// instruction per format: REG_REG reads/writes two GPRs; REG_MEM reads a
// GPR and writes memory; MEM_REG reads memory and writes a GPR (§4.3).
// The operand get/set pair abstracts over the register-or-memory destination so the
// ALU dispatch in executeRType stays format-agnostic.
type operand struct {
	get func() (uint32, error)
	set func(uint32) error
}

func (m *Machine) rTypeOperands(attr word.Attr) (src operand, dst operand, err error) {
	s := m.State

	switch attr.Format {
	case word.FormatRegReg:
		src = operand{get: func() (uint32, error) { return s.GPR[attr.OpReg], nil }}
		dst = operand{
			get: func() (uint32, error) { return s.GPR[attr.BaseReg], nil },
			set: func(v uint32) error { s.GPR[attr.BaseReg] = v; return nil },
		}
	case word.FormatRegMem:
		src = operand{get: func() (uint32, error) { return s.GPR[attr.OpReg], nil }}
		addr := m.effectiveAddress(attr)
		dst = operand{
			get: func() (uint32, error) {
				v, err := s.Mem.ReadWord(addr)
				return v, err
			},
			set: func(v uint32) error {
				if err := s.Mem.WriteWord(addr, v); err != nil {
					return err
				}
				m.recordMem("store", addr, v)
				return nil
			},
		}
	case word.FormatMemReg:
		addr := m.effectiveAddress(attr)
		src = operand{get: func() (uint32, error) {
			v, err := s.Mem.ReadWord(addr)
			if err == nil {
				m.recordMem("load", addr, v)
			}
			return v, err
		}}
		dst = operand{
			get: func() (uint32, error) { return s.GPR[attr.OpReg], nil },
			set: func(v uint32) error { s.GPR[attr.OpReg] = v; return nil },
		}
	default:
		return operand{}, operand{}, &FaultError{PC: s.PC, Message: "unsupported R-type format"}
	}
	return src, dst, nil
}

func (m *Machine) executeRType(mn word.Mnemonic, attr word.Attr) error {
	s := m.State
	src, dst, err := m.rTypeOperands(attr)
	if err != nil {
		return err
	}

	a, err := src.get()
	if err != nil {
		return &FaultError{PC: s.PC, Message: "operand read failed", Wrapped: err}
	}
	b, err := dst.get()
	if err != nil {
		return &FaultError{PC: s.PC, Message: "operand read failed", Wrapped: err}
	}

	var result uint32
	kind := alu.OpAdd

	switch mn.Name {
	case "add":
		result = alu.Add(a, b)
	case "sub":
		// subtract(op1, op2) in the original computes op2 - op1: the
		// destination minus the source, not the source minus the
		// destination. Flags follow the same direction, so this sets
		// them directly instead of falling through to the shared call
		// below (which assumes a is the minuend).
		result = alu.Sub(b, a)
		alu.SetFlags(s, b, a, result, alu.OpSub)
		if err := dst.set(result); err != nil {
			return &FaultError{PC: s.PC, Message: "operand write failed", Wrapped: err}
		}
		return nil
	case "mul":
		result = alu.Multiply(a, b)
	case "div":
		// Like sub, the destination is the left operand: dst / src.
		q, _, derr := alu.Divide(int32(b), int32(a))
		if derr != nil {
			return &FaultError{PC: s.PC, Message: "divide", Wrapped: derr}
		}
		s.LO = uint32(q)
		result = uint32(q)
	case "mod":
		q, r, derr := alu.Divide(int32(b), int32(a))
		if derr != nil {
			return &FaultError{PC: s.PC, Message: "divide", Wrapped: derr}
		}
		s.LO = uint32(q)
		s.HI = uint32(r)
		result = uint32(r) // O6: mod writes the remainder (HI), not the quotient.
	case "and":
		result = alu.And(a, b)
	case "or":
		result = alu.Or(a, b)
	case "xor":
		result = alu.Xor(a, b)
	case "not":
		result = alu.Not(a)
	case "nor":
		result = alu.Nor(a, b)
	case "sll":
		// sll(op1, op2) shifts op2 (the destination) left by op1 (the
		// source) positions, not the other way around.
		result = alu.Sll(b, uint(a))
	case "srl":
		result = alu.Srl(b, uint(a))
	case "sra":
		result = alu.Sra(b, uint(a))
	case "slt":
		// The signed difference is dst - src (same direction as "sub"
		// above); slt is 1 iff that difference is negative, i.e. dst < src.
		// The original leaves the destination register unwritten for SLT
		// (cpu_main.c comments out the store); this implementation writes
		// the comparison result instead, since slt/sltu are dispatched
		// through the same uniform R-type path as every other arithmetic
		// mnemonic (see DESIGN.md).
		kind = alu.OpSub
		result = alu.Sub(b, a)
		alu.SetFlags(s, b, a, result, kind)
		return dst.set(alu.Slt(b, a))
	case "sltu":
		kind = alu.OpSub
		result = alu.Sub(b, a)
		alu.SetFlags(s, b, a, result, kind)
		return dst.set(alu.Sltu(b, a))
	default:
		return &FaultError{PC: s.PC, Message: "unrecognized R-type mnemonic " + mn.Name}
	}

	alu.SetFlags(s, a, b, result, kind)
	if err := dst.set(result); err != nil {
		return &FaultError{PC: s.PC, Message: "operand write failed", Wrapped: err}
	}
	return nil
}

// iTypeOperand resolves the register-or-memory destination for an I-type
// instruction. IMM_REG addresses a sole GPR that is both source and
// destination; IMM_MEM addresses a computed memory location.
func (m *Machine) iTypeOperand(attr word.Attr) operand {
	s := m.State
	if attr.Format == word.FormatImmMem {
		addr := m.effectiveAddress(attr)
		return operand{
			get: func() (uint32, error) { return s.Mem.ReadWord(addr) },
			set: func(v uint32) error {
				if err := s.Mem.WriteWord(addr, v); err != nil {
					return err
				}
				m.recordMem("store", addr, v)
				return nil
			},
		}
	}
	return operand{
		get: func() (uint32, error) { return s.GPR[attr.OpReg], nil },
		set: func(v uint32) error { s.GPR[attr.OpReg] = v; return nil },
	}
}

func (m *Machine) executeIType(mn word.Mnemonic, attr word.Attr) error {
	s := m.State
	dst := m.iTypeOperand(attr)

	b, err := dst.get()
	if err != nil {
		return &FaultError{PC: s.PC, Message: "operand read failed", Wrapped: err}
	}
	c := uint32(attr.Constant)

	var result uint32
	kind := alu.OpAdd

	switch mn.Name {
	case "addi":
		result = alu.Add(c, b)
	case "subi":
		// subtract(constant, op2) in the original computes op2 - constant:
		// the register minus the immediate, not the immediate minus the
		// register. Flags follow the same direction, so this sets them
		// directly instead of falling through to the shared call below
		// (which assumes c is the minuend).
		result = alu.Sub(b, c)
		alu.SetFlags(s, b, c, result, alu.OpSub)
		if err := dst.set(result); err != nil {
			return &FaultError{PC: s.PC, Message: "operand write failed", Wrapped: err}
		}
		return nil
	case "muli":
		result = alu.Multiply(c, b)
	case "divi":
		q, _, derr := alu.Divide(int32(c), int32(b))
		if derr != nil {
			return &FaultError{PC: s.PC, Message: "divide", Wrapped: derr}
		}
		s.LO = uint32(q)
		result = uint32(q)
	case "modi":
		q, r, derr := alu.Divide(int32(c), int32(b))
		if derr != nil {
			return &FaultError{PC: s.PC, Message: "divide", Wrapped: derr}
		}
		s.LO = uint32(q)
		s.HI = uint32(r)
		result = uint32(r) // O6: modi writes the remainder (HI).
	case "andi":
		result = alu.And(c, b)
	case "ori":
		result = alu.Or(c, b)
	case "xori":
		result = alu.Xor(c, b)
	case "nori":
		result = alu.Nor(c, b)
	case "slli":
		// sll(constant, op2) shifts op2 (the register) left by constant
		// positions: the register holds the value, the constant the
		// shift amount, same as srai below.
		result = alu.Sll(b, uint(c))
	case "srli":
		result = alu.Srl(b, uint(c))
	case "srai":
		// executeSRAI reverses the usual (constant, register) operand
		// order: the register holds the value, the constant the shift
		// amount.
		result = alu.Sra(b, uint(c))
	case "slti":
		// Same direction as subi: the signed difference is register -
		// constant, so slti is 1 iff the register is less than the
		// constant. As with slt/sltu above, the destination is written
		// despite the original leaving it untouched for SLTI (see
		// DESIGN.md).
		kind = alu.OpSub
		result = alu.Sub(b, c)
		alu.SetFlags(s, b, c, result, kind)
		return dst.set(alu.Slt(b, c))
	default:
		return &FaultError{PC: s.PC, Message: "unrecognized I-type mnemonic " + mn.Name}
	}

	alu.SetFlags(s, c, b, result, kind)
	if err := dst.set(result); err != nil {
		return &FaultError{PC: s.PC, Message: "operand write failed", Wrapped: err}
	}
	return nil
}
