package debugger

import "testing"

func TestLexerTokenizesRegistersAndOperators(t *testing.T) {
	toks := NewLexer("r1 + [0x10] * r2").TokenizeAll()

	want := []TokenType{TokenRegister, TokenOperator, TokenLBracket, TokenNumber, TokenRBracket, TokenOperator, TokenRegister, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
}

func TestLexerNegativeNumber(t *testing.T) {
	toks := NewLexer("-5").TokenizeAll()
	if toks[0].Type != TokenNumber || toks[0].Value != "-5" {
		t.Errorf("expected negative number token, got %+v", toks[0])
	}
}

func TestLexerValueRef(t *testing.T) {
	toks := NewLexer("$3").TokenizeAll()
	if toks[0].Type != TokenValueRef || toks[0].Value != "$3" {
		t.Errorf("expected value reference token, got %+v", toks[0])
	}
}

func TestIsRegisterName(t *testing.T) {
	for _, name := range []string{"r0", "r15", "sp", "fp", "pc", "flags", "hi", "lo"} {
		if !isRegisterName(name) {
			t.Errorf("expected %q to be recognized as a register name", name)
		}
	}
	if isRegisterName("r") {
		t.Error("bare 'r' should not be a register name")
	}
	if isRegisterName("label") {
		t.Error("'label' should not be a register name")
	}
}
