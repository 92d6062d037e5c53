package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	avrcore "github.com/avrsim/avrcore"
)

// runInteractive puts stdin into raw mode and single-steps the core one
// scheduler burst at a time, the way terminal_host.go puts stdin into raw
// mode to feed a peripheral byte-by-byte -- here the raw keystrokes drive
// the monitor's step/continue/quit commands instead of MCU input. This is
// the debug-stub *attachment point* spec.md leaves external; it is not an
// implementation of any wire debug protocol.
func runInteractive(ctx context.Context, core *avrcore.Core, console *consoleDevice, burst uint64) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "avrsim: monitor requires a terminal: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	fmt.Fprint(os.Stdout, "avrsim monitor: [space] step burst, [c] continue, [q] quit\r\n")

	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}
		switch buf[0] {
		case 'q', 'Q', 0x03: // ^C
			return
		case 'c', 'C':
			for core.State == avrcore.Running || core.State == avrcore.Sleeping {
				core.RunMany(burst)
				console.flush()
			}
			printStatus(core)
			return
		default: // any other key steps one burst
			core.RunMany(burst)
			console.flush()
			printStatus(core)
			if core.State != avrcore.Running && core.State != avrcore.Sleeping {
				return
			}
		}
	}
}

func printStatus(core *avrcore.Core) {
	fmt.Fprintf(os.Stdout, "\r\npc=%#06x cycle=%d state=%s\r\n", core.PC, core.Cycle, core.State)
}
