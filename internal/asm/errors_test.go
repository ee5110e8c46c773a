package asm

import (
	"errors"
	"strings"
	"testing"
)

func TestParseErrorFormatsLineAndSource(t *testing.T) {
	err := &ParseError{Pos: Position{Line: 7}, Line: "addi r0, r1, r2", Message: "invalid operands"}
	msg := err.Error()
	if !strings.Contains(msg, "line 7") || !strings.Contains(msg, "invalid operands") || !strings.Contains(msg, "addi r0, r1, r2") {
		t.Errorf("unexpected error text: %q", msg)
	}
}

func TestParseErrorUnwrapsWrappedError(t *testing.T) {
	inner := errors.New("bad register")
	err := &ParseError{Pos: Position{Line: 1}, Message: "invalid operands", Wrapped: inner}
	if !errors.Is(err, inner) {
		t.Error("expected ParseError to unwrap to its wrapped error")
	}
}

func TestLabelErrorFormat(t *testing.T) {
	err := &LabelError{Label: "loop", Message: "duplicate label definition"}
	msg := err.Error()
	if !strings.Contains(msg, "loop") || !strings.Contains(msg, "duplicate label definition") {
		t.Errorf("unexpected error text: %q", msg)
	}
}
