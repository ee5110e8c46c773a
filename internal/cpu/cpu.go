// Package cpu holds the architectural state of the machine: the general
// purpose register file, the special registers, and the flat byte-addressed
// memory with its fixed region layout. Nothing in this package knows how to
// decode or execute an instruction; it only owns state and enforces the
// region invariants (I1-I3) on every access.
package cpu

import "fmt"

// Register indices. R14 aliases SP, R15 aliases FP.
const (
	SP = 14
	FP = 15
)

// Memory region boundaries, in bytes.
const (
	BootstrapStart    = 0
	InstructionStart  = 1024
	InstructionEnd    = 9216 // exclusive
	DataStart         = 9216
	MemorySize        = 65536
	InitialPC         = InstructionStart
	InitialStackTop   = MemorySize - 1
)

// Flags bit positions within the FLAGS register.
const (
	FlagCF = 1 << 0
	FlagZF = 1 << 2
	FlagPF = 1 << 4
	FlagOF = 1 << 6
	FlagSF = 1 << 7
)

// FaultError reports an invalid access or unsupported operation discovered
// while executing against architectural state. It is always fatal.
type FaultError struct {
	Op      string
	Addr    uint32
	Message string
}

func (e *FaultError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s at 0x%04X: %s", e.Op, e.Addr, e.Message)
}

// Memory is the flat 65536-byte address space shared by instructions, data
// and the stack. Reads and writes are always explicit little-endian byte
// sequences; nothing aliases a byte slice as a typed word in place (N5).
type Memory struct {
	bytes [MemorySize]byte
}

// NewMemory returns a zero-initialized memory image. Zero-initialization of
// the instruction region is what makes the halt-on-zero-word contract (N6)
// reliable: an un-written instruction slot reads back as the halt word.
func NewMemory() *Memory {
	return &Memory{}
}

// checkInstructionFetch enforces I1: fetches must land inside the
// instruction region and be 4-byte aligned.
func (m *Memory) checkInstructionFetch(addr uint32) error {
	if addr%4 != 0 {
		return &FaultError{Op: "fetch", Addr: addr, Message: "instruction address not 4-byte aligned"}
	}
	if addr < InstructionStart || addr >= InstructionEnd {
		return &FaultError{Op: "fetch", Addr: addr, Message: "address outside instruction region"}
	}
	return nil
}

// checkDataAccess enforces I2: data/stack accesses must target addr in
// [DataStart, MemorySize).
func (m *Memory) checkDataAccess(op string, addr uint32) error {
	if addr < DataStart || addr >= MemorySize {
		return &FaultError{Op: op, Addr: addr, Message: "address outside data/stack region"}
	}
	if addr+3 >= MemorySize {
		return &FaultError{Op: op, Addr: addr, Message: "word access runs past end of memory"}
	}
	return nil
}

// CheckDataBounds validates addr against I2 without reading or writing,
// for operations (like LEA) that compute an effective address but don't
// touch memory through it.
func (m *Memory) CheckDataBounds(addr uint32) error {
	return m.checkDataAccess("address", addr)
}

// FetchWord reads the 32-bit word at addr for instruction fetch, enforcing I1.
func (m *Memory) FetchWord(addr uint32) (uint32, error) {
	if err := m.checkInstructionFetch(addr); err != nil {
		return 0, err
	}
	return m.readWordUnchecked(addr), nil
}

// ReadWord reads a 32-bit little-endian word from the data/stack region,
// enforcing I2.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	if err := m.checkDataAccess("load", addr); err != nil {
		return 0, err
	}
	return m.readWordUnchecked(addr), nil
}

// WriteWord writes a 32-bit little-endian word into the data/stack region,
// enforcing I2.
func (m *Memory) WriteWord(addr, value uint32) error {
	if err := m.checkDataAccess("store", addr); err != nil {
		return err
	}
	m.writeWordUnchecked(addr, value)
	return nil
}

// WriteInstruction writes a 32-bit word into the instruction region during
// assembly (pass 2). Never goes through the I2 data check: I3 governs this
// region instead (4-byte aligned, confined to [InstructionStart,
// InstructionEnd)).
func (m *Memory) WriteInstruction(addr, value uint32) error {
	if err := m.checkInstructionFetch(addr); err != nil {
		return err
	}
	m.writeWordUnchecked(addr, value)
	return nil
}

func (m *Memory) readWordUnchecked(addr uint32) uint32 {
	return uint32(m.bytes[addr]) |
		uint32(m.bytes[addr+1])<<8 |
		uint32(m.bytes[addr+2])<<16 |
		uint32(m.bytes[addr+3])<<24
}

func (m *Memory) writeWordUnchecked(addr, value uint32) {
	m.bytes[addr] = byte(value)
	m.bytes[addr+1] = byte(value >> 8)
	m.bytes[addr+2] = byte(value >> 16)
	m.bytes[addr+3] = byte(value >> 24)
}

// Reset zero-fills the entire memory image.
func (m *Memory) Reset() {
	for i := range m.bytes {
		m.bytes[i] = 0
	}
}

// State is the full architectural state: 16 GPRs plus the special registers.
// It owns no behaviour beyond bookkeeping — the ALU and execution engine
// mutate it through their own methods, never through package-level globals
// (N1).
type State struct {
	GPR   [16]uint32
	PC    uint32
	MAR   uint32
	MDR   uint32
	Flags uint8
	HI    uint32 // remainder from last divide
	LO    uint32 // quotient from last divide

	// WritePtr is the assembler-only instruction-write pointer (§3); it has
	// no architectural meaning once execution begins.
	WritePtr uint32

	Mem *Memory
}

// NewState returns architectural state with deterministic seed values
// applied (§6.5, O1 resolution): the two seed words land inside the data
// region at 9216/9220 instead of below the region floor, so Reset never
// needs an unchecked bypass around the region check.
func NewState() *State {
	s := &State{Mem: NewMemory()}
	s.Reset()
	return s
}

// Reset restores the seeded initial state documented in §6.5.
func (s *State) Reset() {
	s.Mem.Reset()
	for i := range s.GPR {
		s.GPR[i] = 0
	}
	s.PC = InitialPC
	s.WritePtr = InitialPC
	s.GPR[SP] = InitialStackTop
	s.GPR[FP] = InitialStackTop
	s.MAR = 0
	s.MDR = 0
	s.Flags = 0
	s.HI = 0
	s.LO = 0

	s.GPR[1] = 0x4567
	s.GPR[2] = 0x66
	s.GPR[3] = 0x8234
	s.GPR[5] = 9400
	s.GPR[6] = 2
	s.GPR[7] = 3

	// Seed words live inside the data region (O1): no unchecked write path.
	if err := s.Mem.WriteWord(DataStart, s.GPR[1]); err != nil {
		panic(err) // unreachable: DataStart is always in range
	}
	if err := s.Mem.WriteWord(DataStart+4, s.GPR[2]); err != nil {
		panic(err)
	}
	word, err := s.Mem.ReadWord(DataStart + 4)
	if err != nil {
		panic(err)
	}
	s.GPR[4] = word
}

// SetFlag sets or clears a single FLAGS bit.
func (s *State) SetFlag(mask uint8, on bool) {
	if on {
		s.Flags |= mask
	} else {
		s.Flags &^= mask
	}
}

// Flag reports whether a FLAGS bit is set.
func (s *State) Flag(mask uint8) bool {
	return s.Flags&mask != 0
}
