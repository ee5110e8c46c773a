package alu

import (
	"testing"

	"github.com/synasm-project/synasm/internal/cpu"
)

func TestArithmeticPrimitives(t *testing.T) {
	if got := Add(1, 2); got != 3 {
		t.Errorf("Add(1,2) = %d, want 3", got)
	}
	if got := Sub(5, 3); got != 2 {
		t.Errorf("Sub(5,3) = %d, want 2", got)
	}
	if got := Multiply(4, 5); got != 20 {
		t.Errorf("Multiply(4,5) = %d, want 20", got)
	}
}

func TestDivideSignedMagnitude(t *testing.T) {
	cases := []struct {
		a, b int32
		q, r int32
	}{
		{7, 2, 3, 1},
		{-7, 2, -3, -1},
		{7, -2, -3, 1},
		{-7, -2, 3, -1},
	}
	for _, c := range cases {
		q, r, err := Divide(c.a, c.b)
		if err != nil {
			t.Fatalf("Divide(%d,%d): %v", c.a, c.b, err)
		}
		if q != c.q || r != c.r {
			t.Errorf("Divide(%d,%d) = (%d,%d), want (%d,%d)", c.a, c.b, q, r, c.q, c.r)
		}
	}
}

func TestDivideByZero(t *testing.T) {
	if _, _, err := Divide(4, 0); err != ErrDivideByZero {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}

func TestBitwisePrimitives(t *testing.T) {
	if And(0xF0, 0x3C) != 0x30 {
		t.Error("And mismatch")
	}
	if Or(0xF0, 0x0F) != 0xFF {
		t.Error("Or mismatch")
	}
	if Xor(0xFF, 0x0F) != 0xF0 {
		t.Error("Xor mismatch")
	}
	if Not(0) != 0xFFFFFFFF {
		t.Error("Not mismatch")
	}
	if Nor(0xF0, 0x0F) != 0xFFFFFF00 {
		t.Error("Nor mismatch")
	}
}

func TestShifts(t *testing.T) {
	if Sll(1, 4) != 0x10 {
		t.Error("Sll mismatch")
	}
	if Srl(0x80000000, 4) != 0x08000000 {
		t.Error("Srl mismatch")
	}
	if Sra(0x80000000, 4) != 0xF8000000 {
		t.Error("Sra mismatch (should preserve sign)")
	}
}

func TestSltAndSltu(t *testing.T) {
	if Slt(0xFFFFFFFF, 1) != 1 {
		t.Error("Slt: -1 < 1 should be true")
	}
	if Sltu(0xFFFFFFFF, 1) != 0 {
		t.Error("Sltu: 0xFFFFFFFF < 1 should be false unsigned")
	}
}

func TestSetFlagsAddCarryAndOverflow(t *testing.T) {
	s := cpu.NewState()
	SetFlags(s, 0xFFFFFFFF, 1, 0, OpAdd)
	if !s.Flag(cpu.FlagCF) {
		t.Error("expected carry set for 0xFFFFFFFF + 1 wraparound")
	}
	if !s.Flag(cpu.FlagZF) {
		t.Error("expected zero flag set for a zero result")
	}
}

func TestSetFlagsSubCarry(t *testing.T) {
	s := cpu.NewState()
	SetFlags(s, 1, 2, 0xFFFFFFFF, OpSub)
	if !s.Flag(cpu.FlagCF) {
		t.Error("expected carry (borrow) set when a < b for sub")
	}
	if !s.Flag(cpu.FlagSF) {
		t.Error("expected sign flag set for a negative result")
	}
}

func TestSetFlagsSignedOverflow(t *testing.T) {
	s := cpu.NewState()
	// 0x7FFFFFFF + 1 overflows into a negative result.
	SetFlags(s, 0x7FFFFFFF, 1, 0x80000000, OpAdd)
	if !s.Flag(cpu.FlagOF) {
		t.Error("expected overflow flag set for signed add overflow")
	}
}

func TestParityIsOddPolarity(t *testing.T) {
	s := cpu.NewState()
	SetFlags(s, 0, 0, 0x1, OpAdd) // one set bit: odd popcount
	if !s.Flag(cpu.FlagPF) {
		t.Error("expected parity flag set for an odd popcount result (O4 polarity)")
	}
	SetFlags(s, 0, 0, 0x3, OpAdd) // two set bits: even popcount
	if s.Flag(cpu.FlagPF) {
		t.Error("expected parity flag clear for an even popcount result")
	}
}
