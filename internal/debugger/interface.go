package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RunCLI drives a line-oriented read-eval-print loop over stdin, pausing
// at breakpoints/watchpoints between single Steps.
func RunCLI(d *Debugger) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(synasm-dbg) ")

		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		if line == "quit" || line == "q" || line == "exit" {
			fmt.Println("Exiting debugger...")
			break
		}

		if err := d.ExecuteCommand(line); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		if out := d.GetOutput(); out != "" {
			fmt.Print(out)
		}

		for d.Running {
			if shouldBreak, reason := d.ShouldBreak(); shouldBreak {
				d.Running = false
				fmt.Printf("Stopped: %s at PC=0x%04X\n", reason, d.Machine.State.PC)
				break
			}

			result, err := d.Machine.Step()
			if err != nil {
				fmt.Printf("Runtime error: %v\n", err)
				d.Running = false
				break
			}
			if result.Halted {
				d.Running = false
				fmt.Println("Program halted")
				break
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}
	return nil
}

// RunTUI launches the tcell/tview text user interface.
func RunTUI(d *Debugger) error {
	return NewTUI(d).Run()
}
