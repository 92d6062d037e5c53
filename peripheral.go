package avr

// MMIODevice is the attachment contract a peripheral model (UART, SPI,
// timer/counter, watchdog, GPIO port -- all out of scope for this module
// per spec §1, named here only by capability) implements against a *Core.
// Nothing in this package imports a concrete peripheral; this interface
// exists purely so an external one has a typed surface to build against.
type MMIODevice interface {
	// Attach registers the device's I/O-space bytes, IRQ vectors, and any
	// cycle timers it needs against c. Called once, after avr.New and
	// before the first RunMany.
	Attach(c *Core)
}

// RegisterVectorDescriptors is a convenience wrapper for a peripheral
// registering several related interrupt sources at once (e.g. a UART's
// RX-complete/TX-complete/data-register-empty trio), returning their
// handles in the order the numbers were given.
func (c *Core) RegisterVectorDescriptors(numbers []uint8, cfg Config) []*Vector {
	vs := make([]*Vector, len(numbers))
	for i, n := range numbers {
		vs[i] = c.RegisterVector(n, cfg)
	}
	return vs
}

// Watchdog reset condition (spec §6 supplement): original_source's
// avr_watchdog.c carries two reset-condition checks that disagree at the
// boundary between "watchdog change enable" and "watchdog system reset
// enable" -- one gates the unlock window on WDE alone, the other on WDE|WDCE
// together, which would let a stray write with only WDCE set arm a reset it
// shouldn't. The Atmel datasheet's four-cycle unlock sequence requires WDCE
// set *and* WDE set-or-already-set before WDTCSR's prescaler bits may
// change; a future watchdog peripheral should gate its unlock window on
// (WDCE set) && (WDE set), not WDCE alone. Recorded here, not implemented
// here -- the watchdog device itself stays out of scope.
const watchdogUnlockRequiresWDE = true
