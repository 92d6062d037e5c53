package avr

import "github.com/avrsim/avrcore/internal/avrlog"

// RunMany drives the core for up to budget cycles (spec §4.F): service due
// cycle-timers, then a pending interrupt if armed, then dispatch a burst
// of instructions sized so it never runs past the next timer's due cycle.
// It returns the number of cycles actually consumed, which may be less
// than budget if the core stops (Sleeping with interrupts masked, or
// Crashed).
func (c *Core) RunMany(budget uint64) uint64 {
	start := c.Cycle
	loggedSleepQuit := false

	for c.Cycle-start < budget {
		c.processTimers()

		if cy, taken := c.serviceInterrupts(); taken {
			_ = cy
			continue
		}

		if c.State == Sleeping {
			if !c.SREG[S_I] {
				if !loggedSleepQuit {
					avrlog.Tracef("sleeping with interrupts disabled at pc=%#04x cycle=%d, nothing can wake it; quitting gracefully", c.PC, c.Cycle)
					loggedSleepQuit = true
				}
				c.State = Done
				return c.Cycle - start
			}
			if due, ok := c.nextTimerDue(); ok && due > c.Cycle {
				c.Cycle = due
				continue
			}
			return c.Cycle - start
		}

		if c.State != Running {
			return c.Cycle - start
		}

		remaining := budget - (c.Cycle - start)
		if due, ok := c.nextTimerDue(); ok && due > c.Cycle {
			if gap := due - c.Cycle; gap < remaining {
				remaining = gap
			}
		}
		if remaining == 0 {
			return c.Cycle - start
		}

		c.dispatchBurst(remaining)
	}
	return c.Cycle - start
}

// Step executes exactly one micro-op (a single instruction, or one fused
// pair) from the current PC and leaves State as StepDone if the core is
// still Running afterwards, per §3's state set. It does nothing unless the
// core is Running, and it does not service timers or interrupts; only
// RunMany does that (RunMany with a budget of 0 returns at once without
// servicing anything).
func (c *Core) Step() {
	if c.State != Running {
		return
	}
	pc := c.PC
	slot := c.UFlash[pc]
	if slot == 0 {
		slot = c.translate(pc)
		if c.State == Crashed {
			return
		}
	}
	c.execMicroOp(pc, slot)
	if c.State == Running {
		c.State = StepDone
	}
}

// dispatchBurst runs consecutive micro-ops from the translation cache
// until the cycle budget is exhausted, an out-of-band event zeroes it
// early (spec §4.E: SEI/CLI edge, an I/O write, SLEEP, RETI), or the core
// leaves the Running state.
func (c *Core) dispatchBurst(budget uint64) {
	var spent uint64
	for spent < budget {
		if c.State != Running {
			return
		}
		pc := c.PC
		slot := c.UFlash[pc]
		if slot == 0 {
			slot = c.translate(pc)
			if c.State == Crashed {
				return
			}
		}
		cy, stop := c.execMicroOp(pc, slot)
		spent += uint64(cy)
		if stop {
			return
		}
	}
}
