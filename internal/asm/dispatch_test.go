package asm

import (
	"testing"

	"github.com/synasm-project/synasm/internal/word"
)

func TestBuildAttrMemoryFormat(t *testing.T) {
	attr, err := buildAttr(word.ByName["load"], []string{"r1", "4(r2+r3)2"}, nil, 0)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	if attr.Format != word.FormatLoadStore || attr.OpReg != 1 || attr.BaseReg != 2 || attr.IndexReg != 3 || attr.Scale != 2 {
		t.Errorf("unexpected attr: %+v", attr)
	}
}

func TestBuildRTypeRegRegFormat(t *testing.T) {
	attr, err := buildAttr(word.ByName["add"], []string{"r1", "r2"}, nil, 0)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	if attr.Format != word.FormatRegReg || attr.OpReg != 1 || attr.BaseReg != 2 {
		t.Errorf("unexpected attr: %+v", attr)
	}
}

func TestBuildRTypeRegMemFormat(t *testing.T) {
	attr, err := buildAttr(word.ByName["add"], []string{"r1", "(r2)"}, nil, 0)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	if attr.Format != word.FormatRegMem || attr.OpReg != 1 || attr.BaseReg != 2 {
		t.Errorf("unexpected attr: %+v", attr)
	}
}

func TestBuildRTypeMemMemRejected(t *testing.T) {
	if _, err := buildAttr(word.ByName["add"], []string{"(r1)", "(r2)"}, nil, 0); err == nil {
		t.Error("expected an error: at least one R-type operand must be a register")
	}
}

func TestBuildITypeImmRegOrder(t *testing.T) {
	attr, err := buildAttr(word.ByName["addi"], []string{"$5", "r0"}, nil, 0)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	if attr.Format != word.FormatImmReg || attr.OpReg != 0 || attr.Constant != 5 {
		t.Errorf("unexpected attr: %+v", attr)
	}
}

func TestBuildITypeImmMemRequiresIndexRegister(t *testing.T) {
	if _, err := buildAttr(word.ByName["addi"], []string{"$5", "(r1)"}, nil, 0); err == nil {
		t.Error("expected an error: IMM_MEM requires a nonzero index register to disambiguate from IMM_REG")
	}
	attr, err := buildAttr(word.ByName["addi"], []string{"$5", "(r1+r2)"}, nil, 0)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	if attr.Format != word.FormatImmMem || attr.IndexReg != 2 {
		t.Errorf("unexpected attr: %+v", attr)
	}
}

func TestBuildStackSingleOperand(t *testing.T) {
	attr, err := buildAttr(word.ByName["push"], []string{"r4"}, nil, 0)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	if attr.Format != word.FormatStackReg || attr.OpReg != 4 {
		t.Errorf("unexpected attr: %+v", attr)
	}
}

func TestBuildControlResolvesLabelOffset(t *testing.T) {
	labels := NewLabelTable()
	labels.Define("loop", 5)
	attr, err := buildAttr(word.ByName["jmp"], []string{"loop"}, labels, 2)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	// offset = target(5) - current(2) - 1 = 2
	if attr.Constant != 2 {
		t.Errorf("Constant = %d, want 2", attr.Constant)
	}
}

func TestBuildControlUndefinedLabelFails(t *testing.T) {
	labels := NewLabelTable()
	if _, err := buildAttr(word.ByName["jmp"], []string{"nope"}, labels, 0); err == nil {
		t.Error("expected an error referencing an undefined label")
	}
}

func TestBuildMovRegRegSourceThenDestination(t *testing.T) {
	attr, err := buildAttr(word.ByName["mov"], []string{"r1", "r2"}, nil, 0)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	if attr.BaseReg != 1 || attr.OpReg != 2 {
		t.Errorf("expected source=BaseReg(1) destination=OpReg(2), got %+v", attr)
	}
}

func TestBuildMoviImmThenDestination(t *testing.T) {
	attr, err := buildAttr(word.ByName["movi"], []string{"$7", "r3"}, nil, 0)
	if err != nil {
		t.Fatalf("buildAttr: %v", err)
	}
	if attr.OpReg != 3 || attr.Constant != 7 {
		t.Errorf("unexpected attr: %+v", attr)
	}
}

func TestBuildNoOperandRejectsArgs(t *testing.T) {
	if _, err := buildAttr(word.ByName["ret"], []string{"r0"}, nil, 0); err == nil {
		t.Error("expected ret to reject any arguments")
	}
	if _, err := buildAttr(word.ByName["ret"], nil, nil, 0); err != nil {
		t.Errorf("ret with no arguments should succeed: %v", err)
	}
}

func TestBuildAttrWrongArgCountFails(t *testing.T) {
	if _, err := buildAttr(word.ByName["add"], []string{"r0"}, nil, 0); err == nil {
		t.Error("expected an error for add with only one argument")
	}
}
