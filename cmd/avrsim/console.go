package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	avrcore "github.com/avrsim/avrcore"
)

// consoleIOAddr is an arbitrary I/O-space byte this demo claims to stand
// in for the out-of-scope UART peripheral: every byte written there is
// echoed to stdout.
const consoleIOAddr = avrcore.IOBase + 0x10

// consoleDevice is the toy MMIODevice named in SPEC_FULL.md's cmd/avrsim
// section: a single-byte write-only "console" register that buffers writes
// and prints them to stdout, standing in for the real peripheral models
// spec.md places out of scope.
type consoleDevice struct {
	mu     sync.Mutex
	buf    []byte
	closed bool
}

func newConsoleDevice() *consoleDevice {
	return &consoleDevice{}
}

// Attach implements avrcore.MMIODevice.
func (d *consoleDevice) Attach(c *avrcore.Core) {
	c.RegisterIO(consoleIOAddr, nil, func(c *avrcore.Core, addr uint32, v uint8) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.buf = append(d.buf, v)
	})
}

func (d *consoleDevice) drain() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.buf
	d.buf = nil
	return out
}

func (d *consoleDevice) closeOutput() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// drainLoop periodically flushes buffered console bytes to stdout. It
// runs as the second half of the errgroup pair in main.go, mirroring
// runtime_ipc.go's pattern of a background goroutine a done-channel (here,
// ctx.Done) tells to stop.
func (d *consoleDevice) drainLoop(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.flush()
			return ctx.Err()
		case <-ticker.C:
			d.flush()
			d.mu.Lock()
			done := d.closed
			d.mu.Unlock()
			if done {
				return nil
			}
		}
	}
}

func (d *consoleDevice) flush() {
	if out := d.drain(); len(out) > 0 {
		fmt.Fprint(os.Stdout, string(out))
	}
}
