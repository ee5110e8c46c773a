package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the tcell/tview text interface: a source/register/stack/
// breakpoints layout over a command line, refreshed after every command
// and every Step.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	Layout          *tview.Flex
	SourceView      *tview.TextView
	RegisterView    *tview.TextView
	StackView       *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI builds the layout and key bindings over d, without starting the
// event loop.
func NewTUI(d *Debugger) *TUI {
	t := &TUI{Debugger: d, App: tview.NewApplication()}
	t.initViews()
	t.buildLayout()
	t.setupKeys()
	return t
}

func (t *TUI) initViews() {
	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.StackView, 0, 1, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 9, 0, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	content := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(left, 0, 2, false).
		AddItem(right, 0, 1, false)

	t.Layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(content, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeys() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.execute("help")
			return nil
		case tcell.KeyF5:
			t.execute("continue")
			return nil
		case tcell.KeyF10:
			t.execute("next")
			return nil
		case tcell.KeyF11:
			t.execute("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	if cmd == "" {
		return
	}
	t.execute(cmd)
	t.CommandInput.SetText("")
}

// execute runs cmd, renders its output, then drives the machine forward
// while the debugger says Running, stopping at the next breakpoint/
// watchpoint or halt.
func (t *TUI) execute(cmd string) {
	if err := t.Debugger.ExecuteCommand(cmd); err != nil {
		t.writeOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if out := t.Debugger.GetOutput(); out != "" {
		t.writeOutput(out)
	}

	for t.Debugger.Running {
		if shouldBreak, reason := t.Debugger.ShouldBreak(); shouldBreak {
			t.Debugger.Running = false
			t.writeOutput(fmt.Sprintf("Stopped: %s at PC=0x%04X\n", reason, t.Debugger.Machine.State.PC))
			break
		}
		result, err := t.Debugger.Machine.Step()
		if err != nil {
			t.writeOutput(fmt.Sprintf("[red]Runtime error:[white] %v\n", err))
			t.Debugger.Running = false
			break
		}
		if result.Halted {
			t.writeOutput("Program halted\n")
			t.Debugger.Running = false
			break
		}
	}

	t.RefreshAll()
}

func (t *TUI) writeOutput(text string) {
	fmt.Fprint(t.OutputView, text)
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from current machine state.
func (t *TUI) RefreshAll() {
	t.updateSource()
	t.updateRegisters()
	t.updateStack()
	t.updateBreakpoints()
	t.App.Draw()
}

func (t *TUI) updateSource() {
	t.SourceView.Clear()
	if len(t.Debugger.SourceMap) == 0 {
		fmt.Fprint(t.SourceView, "[yellow]No source map loaded[white]")
		return
	}

	pc := t.Debugger.Machine.State.PC
	var start uint32
	if pc > 40 {
		start = pc - 40
	}

	var lines []string
	for addr := start; addr < pc+80; addr += 4 {
		src, ok := t.Debugger.SourceMap[addr]
		if !ok {
			continue
		}
		marker, color := "  ", "white"
		if addr == pc {
			marker, color = "->", "yellow"
		}
		if t.Debugger.Breakpoints.At(addr) != nil {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("[%s]%s 0x%04X: %s[white]", color, marker, addr, src))
	}
	fmt.Fprint(t.SourceView, strings.Join(lines, "\n"))
}

func (t *TUI) updateRegisters() {
	t.RegisterView.Clear()
	s := t.Debugger.Machine.State
	var lines []string
	for row := 0; row < 4; row++ {
		var cols []string
		for col := 0; col < 4; col++ {
			reg := row*4 + col
			cols = append(cols, fmt.Sprintf("r%-2d: 0x%08X", reg, s.GPR[reg]))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("pc: 0x%04X  flags: %s  hi: 0x%08X  lo: 0x%08X", s.PC, flagLetters(s.Flags), s.HI, s.LO))
	fmt.Fprint(t.RegisterView, strings.Join(lines, "\n"))
}

func (t *TUI) updateStack() {
	t.StackView.Clear()
	s := t.Debugger.Machine.State
	sp := s.GPR[14] // cpu.SP
	var lines []string
	for i := 0; i < 16; i++ {
		addr := sp + uint32(i*4)
		v, err := s.Mem.ReadWord(addr)
		if err != nil {
			break
		}
		lines = append(lines, fmt.Sprintf("0x%04X: 0x%08X", addr, v))
	}
	fmt.Fprint(t.StackView, strings.Join(lines, "\n"))
}

func (t *TUI) updateBreakpoints() {
	t.BreakpointsView.Clear()
	var lines []string
	for _, bp := range t.Debugger.Breakpoints.All() {
		state := "enabled"
		if !bp.Enabled {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("b%d: 0x%04X (%s, hits=%d)", bp.ID, bp.Address, state, bp.HitCount))
	}
	for _, wp := range t.Debugger.Watchpoints.All() {
		lines = append(lines, fmt.Sprintf("w%d: %s (hits=%d)", wp.ID, wp.Expression, wp.HitCount))
	}
	fmt.Fprint(t.BreakpointsView, strings.Join(lines, "\n"))
}

// Run starts the tview event loop, rooted at Layout with focus on the
// command input.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.Layout, true).SetFocus(t.CommandInput).Run()
}
