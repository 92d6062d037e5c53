// Command avrsim is a minimal demonstration driver for the avrcore
// package: load a raw flash image, attach a toy console peripheral, and
// run it. It carries no semantic weight of its own and is not part of
// the core's tested surface -- every real instruction/flag/scheduler
// behavior lives in the avrcore package and its tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	avrcore "github.com/avrsim/avrcore"
)

func main() {
	flashPath := flag.String("flash", "", "path to a raw flash image")
	interactive := flag.Bool("step", false, "single-step interactively under a raw-terminal monitor")
	cyclesPerBurst := flag.Uint64("burst", 10000, "cycles to run per scheduler pass")
	flag.Parse()

	if *flashPath == "" {
		fmt.Fprintln(os.Stderr, "avrsim: -flash is required")
		os.Exit(1)
	}

	flash, err := os.ReadFile(*flashPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "avrsim: %v\n", err)
		os.Exit(1)
	}

	cfg := avrcore.Config{
		RAMEnd:     0x08FF,
		FlashEnd:   0x7FFF,
		VectorSize: 4,
		AddressSize: 2,
	}
	core := avrcore.New(cfg)
	core.LoadProgram(flash, nil)

	console := newConsoleDevice()
	console.Attach(core)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *interactive {
		runInteractive(ctx, core, console, *cyclesPerBurst)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runScheduler(ctx, core, console, *cyclesPerBurst)
	})
	g.Go(func() error {
		return console.drainLoop(ctx)
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "avrsim: %v\n", err)
		os.Exit(1)
	}
}

// runScheduler keeps calling RunMany until the core stops running or the
// context is cancelled (spec §4.F: callers drive RunMany in a loop sized
// to their own cadence, not the core's).
func runScheduler(ctx context.Context, core *avrcore.Core, console *consoleDevice, burst uint64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		core.RunMany(burst)
		switch core.State {
		case avrcore.Done, avrcore.Crashed, avrcore.Stopped:
			console.closeOutput()
			return nil
		}
	}
}
