package debugger

import (
	"testing"

	"github.com/synasm-project/synasm/internal/exec"
)

func TestWatchpointsInitAndCheck(t *testing.T) {
	m := exec.NewMachine()
	m.State.GPR[1] = 5
	eval := NewEvaluator()
	w := NewWatchpoints()

	wp := w.Add("r1")
	if err := w.Init(wp.ID, m, eval, nil); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, changed := w.Check(m, eval, nil); changed {
		t.Error("expected no change immediately after Init")
	}

	m.State.GPR[1] = 9
	got, changed := w.Check(m, eval, nil)
	if !changed || got.ID != wp.ID {
		t.Errorf("expected watchpoint %d to fire, got changed=%v entry=%+v", wp.ID, changed, got)
	}
	if got.HitCount != 1 {
		t.Errorf("expected hit count 1, got %d", got.HitCount)
	}
}

func TestWatchpointsDisabledSkipped(t *testing.T) {
	m := exec.NewMachine()
	eval := NewEvaluator()
	w := NewWatchpoints()
	wp := w.Add("r0")
	w.Init(wp.ID, m, eval, nil)
	wp.Enabled = false

	m.State.GPR[0] = 99
	if _, changed := w.Check(m, eval, nil); changed {
		t.Error("disabled watchpoint should never fire")
	}
}

func TestWatchpointsDelete(t *testing.T) {
	w := NewWatchpoints()
	wp := w.Add("r0")
	if err := w.Delete(wp.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := w.Delete(wp.ID); err == nil {
		t.Error("expected error deleting an already-deleted watchpoint")
	}
}
