package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/synasm-project/synasm/internal/word"
)

// dispatch routes one parsed command line to its handler.
func (d *Debugger) dispatch(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "watch", "w":
		return d.cmdWatch(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "x":
		return d.cmdExamine(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "list", "l":
		return d.cmdList(args)

	case "reset":
		return d.cmdReset(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func (d *Debugger) cmdRun(args []string) error {
	d.Machine.Reset()
	d.Running = true
	d.StepMode = StepNone
	d.Println("Starting program execution...")
	return nil
}

func (d *Debugger) cmdContinue(args []string) error {
	d.Running = true
	d.StepMode = StepNone
	d.Println("Continuing...")
	return nil
}

func (d *Debugger) cmdStep(args []string) error {
	d.SetStepSingle()
	return nil
}

func (d *Debugger) cmdNext(args []string) error {
	raw, err := d.Machine.State.Mem.FetchWord(d.Machine.State.PC)
	isCall := err == nil && raw != 0 && uint8(raw>>26) == wordOpcodeOf("call")
	d.SetStepOver(isCall)
	return nil
}

func wordOpcodeOf(name string) uint8 {
	if mn, ok := word.ByName[name]; ok {
		return mn.Opcode
	}
	return 0xFF
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <address|label> [if <condition>]")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}

	var condition string
	if len(args) > 1 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}

	bp := d.Breakpoints.Add(addr, false, condition)
	if condition != "" {
		d.Printf("Breakpoint %d at 0x%04X (condition: %s)\n", bp.ID, addr, condition)
	} else {
		d.Printf("Breakpoint %d at 0x%04X\n", bp.ID, addr)
	}
	return nil
}

func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <address|label>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.Add(addr, true, "")
	d.Printf("Temporary breakpoint %d at 0x%04X\n", bp.ID, addr)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: delete <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	if err := d.Breakpoints.Delete(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

func (d *Debugger) cmdEnable(args []string) error {
	return d.setBreakEnabled(args, true)
}

func (d *Debugger) cmdDisable(args []string) error {
	return d.setBreakEnabled(args, false)
}

func (d *Debugger) setBreakEnabled(args []string, enabled bool) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable|disable <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	return d.Breakpoints.SetEnabled(id, enabled)
}

func (d *Debugger) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <expression>")
	}
	expr := strings.Join(args, " ")
	wp := d.Watchpoints.Add(expr)
	if err := d.Watchpoints.Init(wp.ID, d.Machine, d.Evaluator, d.Symbols); err != nil {
		return err
	}
	d.Printf("Watchpoint %d: %s\n", wp.ID, expr)
	return nil
}

func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}
	expr := strings.Join(args, " ")
	v, err := d.Evaluator.EvaluateExpression(expr, d.Machine, d.Symbols)
	if err != nil {
		return err
	}
	d.Printf("$%d = 0x%08X (%d)\n", len(d.Evaluator.history), v, int32(v))
	return nil
}

func (d *Debugger) cmdExamine(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: x <address> [count]")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	count := 1
	if len(args) > 1 {
		count, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid count: %s", args[1])
		}
	}
	for i := 0; i < count; i++ {
		a := addr + uint32(i*4)
		v, err := d.Machine.State.Mem.ReadWord(a)
		if err != nil {
			d.Printf("0x%04X: <out of bounds>\n", a)
			continue
		}
		d.Printf("0x%04X: 0x%08X\n", a, v)
	}
	return nil
}

func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <registers|flags|breakpoints|watchpoints>")
	}
	switch strings.ToLower(args[0]) {
	case "registers", "reg", "r":
		s := d.Machine.State
		for i := 0; i < 16; i++ {
			d.Printf("r%-2d = 0x%08X", i, s.GPR[i])
			if (i+1)%4 == 0 {
				d.Println()
			} else {
				d.Printf("  ")
			}
		}
		d.Println()
		d.Printf("pc = 0x%04X  hi = 0x%08X  lo = 0x%08X\n", s.PC, s.HI, s.LO)
	case "flags":
		d.Printf("flags = %s (0x%02X)\n", flagLetters(d.Machine.State.Flags), d.Machine.State.Flags)
	case "breakpoints", "break", "b":
		for _, bp := range d.Breakpoints.All() {
			state := "enabled"
			if !bp.Enabled {
				state = "disabled"
			}
			d.Printf("%d: 0x%04X (%s, hits=%d)\n", bp.ID, bp.Address, state, bp.HitCount)
		}
	case "watchpoints", "watch", "w":
		for _, wp := range d.Watchpoints.All() {
			d.Printf("%d: %s (hits=%d)\n", wp.ID, wp.Expression, wp.HitCount)
		}
	default:
		return fmt.Errorf("unknown info topic: %s", args[0])
	}
	return nil
}

func (d *Debugger) cmdList(args []string) error {
	pc := d.Machine.State.PC
	if len(args) > 0 {
		addr, err := d.ResolveAddress(args[0])
		if err != nil {
			return err
		}
		pc = addr
	}
	if src, ok := d.SourceMap[pc]; ok {
		d.Printf("0x%04X: %s\n", pc, src)
	} else {
		d.Printf("0x%04X: <no source available>\n", pc)
	}
	return nil
}

func (d *Debugger) cmdReset(args []string) error {
	d.Machine.Reset()
	d.Running = false
	d.StepMode = StepNone
	d.Evaluator.Reset()
	d.Println("Machine reset")
	return nil
}

func (d *Debugger) cmdHelp(args []string) error {
	d.Println("Commands:")
	d.Println("  run, continue, step, next")
	d.Println("  break <addr|label> [if <cond>], tbreak, delete <id>, enable <id>, disable <id>")
	d.Println("  watch <expr>")
	d.Println("  print <expr>, x <addr> [count], info registers|flags|breakpoints|watchpoints")
	d.Println("  list [addr], reset, help")
	return nil
}
