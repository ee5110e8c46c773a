package debugger

import (
	"fmt"
	"sync"

	"github.com/synasm-project/synasm/internal/exec"
)

// Watchpoint triggers when the value named by Expression changes between
// Steps. Only value-change detection is implemented — there is no
// instruction-level read/write interception to distinguish a watch from an
// rwatch/awatch, matching the teacher's same documented limitation.
type Watchpoint struct {
	ID         int
	Expression string
	Enabled    bool
	LastValue  uint32
	HitCount   int
}

// Watchpoints is a thread-safe ID-keyed watchpoint set.
type Watchpoints struct {
	mu     sync.RWMutex
	byID   map[int]*Watchpoint
	nextID int
}

// NewWatchpoints returns an empty set.
func NewWatchpoints() *Watchpoints {
	return &Watchpoints{byID: make(map[int]*Watchpoint), nextID: 1}
}

// Add creates a watchpoint over expression.
func (w *Watchpoints) Add(expression string) *Watchpoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	wp := &Watchpoint{ID: w.nextID, Expression: expression, Enabled: true}
	w.byID[wp.ID] = wp
	w.nextID++
	return wp
}

// Delete removes the watchpoint with the given ID.
func (w *Watchpoints) Delete(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byID[id]; !ok {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	delete(w.byID, id)
	return nil
}

// All returns every watchpoint.
func (w *Watchpoints) All() []*Watchpoint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Watchpoint, 0, len(w.byID))
	for _, wp := range w.byID {
		out = append(out, wp)
	}
	return out
}

// Init records expression's current value as the baseline for the given
// watchpoint, so the first Check call after Add doesn't spuriously fire.
func (w *Watchpoints) Init(id int, m *exec.Machine, eval *Evaluator, symbols map[string]uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	wp, ok := w.byID[id]
	if !ok {
		return fmt.Errorf("watchpoint %d not found", id)
	}
	v, err := eval.EvaluateExpression(wp.Expression, m, symbols)
	if err != nil {
		return err
	}
	wp.LastValue = v
	return nil
}

// Check evaluates every enabled watchpoint and returns the first whose
// value changed since the last Check/Init.
func (w *Watchpoints) Check(m *exec.Machine, eval *Evaluator, symbols map[string]uint32) (*Watchpoint, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, wp := range w.byID {
		if !wp.Enabled {
			continue
		}
		v, err := eval.EvaluateExpression(wp.Expression, m, symbols)
		if err != nil {
			continue
		}
		if v != wp.LastValue {
			wp.HitCount++
			wp.LastValue = v
			return wp, true
		}
	}
	return nil, false
}

// Count reports how many watchpoints are set.
func (w *Watchpoints) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.byID)
}
