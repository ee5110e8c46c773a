// Package alu implements the integer arithmetic, logic, shift and
// comparison primitives shared by the R-type and I-type instruction
// categories, plus the single SetFlags routine that derives condition
// codes from an operation's operands and result.
package alu

import (
	"errors"
	"math/bits"

	"github.com/synasm-project/synasm/internal/cpu"
)

// ErrDivideByZero is the fatal fault raised by Divide when the divisor is
// zero (O2 resolution: the original routine spun forever instead).
var ErrDivideByZero = errors.New("division by zero")

// OpKind distinguishes addition from subtraction for flag computation,
// since carry and overflow are defined differently for each (O3).
type OpKind int

const (
	OpAdd OpKind = iota
	OpSub
)

// Add returns a+b as a 32-bit wraparound sum. HI/LO are untouched.
func Add(a, b uint32) uint32 { return a + b }

// Sub returns a-b as a 32-bit wraparound difference. HI/LO are untouched.
func Sub(a, b uint32) uint32 { return a - b }

// Multiply returns the low 32 bits of a*b.
func Multiply(a, b uint32) uint32 { return a * b }

// Divide computes quotient and remainder of the signed division a/b.
// Returns ErrDivideByZero when b==0 instead of looping forever (O2).
// Magnitude division is performed on the unsigned absolute values; the
// quotient's sign is reapplied via the XOR of the two operand signs, and
// the remainder takes the sign of the dividend a.
func Divide(a, b int32) (quotient, remainder int32, err error) {
	if b == 0 {
		return 0, 0, ErrDivideByZero
	}

	negate := (a < 0) != (b < 0)
	resultNegate := a < 0

	ua := abs32(a)
	ub := abs32(b)

	uq := ua / ub
	ur := ua % ub

	quotient = int32(uq)
	if negate {
		quotient = -quotient
	}
	remainder = int32(ur)
	if resultNegate {
		remainder = -remainder
	}
	return quotient, remainder, nil
}

func abs32(v int32) uint32 {
	if v < 0 {
		return uint32(-v)
	}
	return uint32(v)
}

// And, Or, Xor, Not, Nor are the bitwise primitives.
func And(a, b uint32) uint32 { return a & b }
func Or(a, b uint32) uint32  { return a | b }
func Xor(a, b uint32) uint32 { return a ^ b }
func Not(a uint32) uint32    { return ^a }
func Nor(a, b uint32) uint32 { return ^(a | b) }

// Sll is a logical shift left.
func Sll(a uint32, n uint) uint32 { return a << (n & 31) }

// Srl is a logical shift right (zero-filled).
func Srl(a uint32, n uint) uint32 { return a >> (n & 31) }

// Sra is an arithmetic shift right, preserving the sign bit.
func Sra(a uint32, n uint) uint32 {
	return uint32(int32(a) >> (n & 31))
}

// Slt returns 1 iff the signed difference a-b is negative, else 0.
func Slt(a, b uint32) uint32 {
	if int32(a) < int32(b) {
		return 1
	}
	return 0
}

// Sltu is the unsigned analogue of Slt.
func Sltu(a, b uint32) uint32 {
	if a < b {
		return 1
	}
	return 0
}

// SetFlags writes SF/ZF/CF/PF/OF into s.Flags for an operation that
// combined operands a and b into result, per §4.2 with the O3 carry fix
// applied.
func SetFlags(s *cpu.State, a, b, result uint32, kind OpKind) {
	s.SetFlag(cpu.FlagSF, result&0x80000000 != 0)
	s.SetFlag(cpu.FlagZF, result == 0)
	s.SetFlag(cpu.FlagCF, carry(a, b, result, kind))
	s.SetFlag(cpu.FlagPF, parity(result))
	s.SetFlag(cpu.FlagOF, overflow(a, b, result, kind))
}

// carry implements O3: CF is computed per-operation-kind instead of the
// single buggy `result < a || result < b` formula.
func carry(a, b, result uint32, kind OpKind) bool {
	switch kind {
	case OpAdd:
		return result < a
	case OpSub:
		return a < b
	default:
		return false
	}
}

// overflow detects signed overflow: for add, operand signs agree and
// disagree with the result sign; for sub, operand signs disagree and the
// result sign disagrees with the left operand's sign.
func overflow(a, b, result uint32, kind OpKind) bool {
	signA := a&0x80000000 != 0
	signB := b&0x80000000 != 0
	signR := result&0x80000000 != 0

	switch kind {
	case OpAdd:
		return signA == signB && signA != signR
	case OpSub:
		return signA != signB && signR != signA
	default:
		return false
	}
}

// parity implements O4: PF is set when popcount(result) is ODD — the
// opposite of the traditional x86 convention — kept exactly as specified,
// not "corrected" to the x86 polarity.
func parity(result uint32) bool {
	return bits.OnesCount32(result)%2 == 1
}
