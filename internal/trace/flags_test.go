package trace

import (
	"bytes"
	"testing"
)

func TestFlagTraceSkipsUnchanged(t *testing.T) {
	var buf bytes.Buffer
	ft := NewFlagTrace(&buf)

	ft.Record(0, 1024, "add", 0)
	ft.Record(1, 1028, "add", 0) // unchanged, should not be recorded
	ft.Record(2, 1032, "sub", 1<<2)

	if len(ft.Entries()) != 1 {
		t.Fatalf("expected 1 recorded change, got %d", len(ft.Entries()))
	}
	if ft.Entries()[0].Sequence != 2 {
		t.Errorf("expected the recorded entry to be sequence 2, got %d", ft.Entries()[0].Sequence)
	}
}

func TestFlagTraceFlush(t *testing.T) {
	var buf bytes.Buffer
	ft := NewFlagTrace(&buf)
	ft.Record(0, 1024, "sub", 1<<7)

	if err := ft.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected Flush to write output")
	}
}
