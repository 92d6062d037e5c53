package avr

import "testing"

func TestLowestVectorNumberWinsPriority(t *testing.T) {
	c := New(testConfig())
	vHigh := c.RegisterVector(5, testConfig())
	vLow := c.RegisterVector(2, testConfig())
	c.Raise(vHigh)
	c.Raise(vLow)

	got := c.pendingVector()
	if got == nil || got.Number != 2 {
		t.Fatalf("pendingVector = %v, want vector 2", got)
	}
}

func TestRaiseIsIdempotent(t *testing.T) {
	c := New(testConfig())
	v := c.RegisterVector(3, testConfig())
	c.Raise(v)
	c.Raise(v)
	if c.Interrupts.pending&(1<<3) == 0 {
		t.Fatalf("vector 3 should be pending")
	}
	c.Clear(v)
	if c.Interrupts.pending&(1<<3) != 0 {
		t.Fatalf("vector 3 should no longer be pending after Clear")
	}
}

func TestClearOnUnraisedVectorIsNoop(t *testing.T) {
	c := New(testConfig())
	v := c.RegisterVector(1, testConfig())
	c.Clear(v) // never raised
	if c.Interrupts.pending != 0 {
		t.Fatalf("pending = %#x, want 0", c.Interrupts.pending)
	}
}

func TestSEIArmsOnlyOnRisingEdge(t *testing.T) {
	c := New(testConfig())
	c.handleIEdge(false, false)
	if c.InterruptState != interruptIdle {
		t.Fatalf("flat false->false must not arm")
	}
	c.handleIEdge(false, true)
	if c.InterruptState != interruptArmed {
		t.Fatalf("false->true must arm")
	}
	c.handleIEdge(true, true)
	if c.InterruptState != interruptArmed {
		t.Fatalf("flat true->true must leave armed state untouched")
	}
	c.handleIEdge(true, false)
	if c.InterruptState != interruptIdle {
		t.Fatalf("true->false must idle")
	}
}

func TestServiceInterruptsRequiresArmedAndEnabled(t *testing.T) {
	c := New(testConfig())
	v := c.RegisterVector(4, testConfig())
	c.Raise(v)
	c.spSet(uint16(c.cfg.RAMEnd))

	c.SREG[S_I] = true
	c.InterruptState = interruptIdle
	if _, taken := c.serviceInterrupts(); taken {
		t.Fatalf("must not service while InterruptState is idle (not armed)")
	}

	c.InterruptState = interruptArmed
	c.SREG[S_I] = false
	if _, taken := c.serviceInterrupts(); taken {
		t.Fatalf("must not service while I is clear")
	}

	c.SREG[S_I] = true
	cy, taken := c.serviceInterrupts()
	if !taken || cy != interruptEntryCycles {
		t.Fatalf("expected service with cost %d, got taken=%v cy=%d", interruptEntryCycles, taken, cy)
	}
	if c.InterruptState != interruptIdle {
		t.Fatalf("servicing must drop back to idle until the handler re-enables I")
	}
}

func TestServiceInterruptsWakesFromSleep(t *testing.T) {
	c := New(testConfig())
	v := c.RegisterVector(6, testConfig())
	c.Raise(v)
	c.spSet(uint16(c.cfg.RAMEnd))
	c.SREG[S_I] = true
	c.InterruptState = interruptArmed
	c.State = Sleeping

	_, taken := c.serviceInterrupts()
	if !taken {
		t.Fatalf("expected a pending interrupt to wake the core")
	}
	if c.State != Running {
		t.Fatalf("state = %s, want Running after wake", c.State)
	}
}

func TestPendingVectorNilWhenNothingRaised(t *testing.T) {
	c := New(testConfig())
	c.RegisterVector(0, testConfig())
	if v := c.pendingVector(); v != nil {
		t.Fatalf("pendingVector = %v, want nil", v)
	}
}

func TestRaiseArmsServiceWhenIAlreadySet(t *testing.T) {
	c := New(testConfig())
	v := c.RegisterVector(7, testConfig())
	c.SREG[S_I] = true
	if c.InterruptState != interruptIdle {
		t.Fatalf("precondition: InterruptState = %v, want idle", c.InterruptState)
	}
	c.Raise(v)
	if c.InterruptState != interruptArmed {
		t.Fatalf("Raise with I already set must arm directly, got %v", c.InterruptState)
	}
}

func TestRaiseDoesNotArmWhenIIsClear(t *testing.T) {
	c := New(testConfig())
	v := c.RegisterVector(7, testConfig())
	c.Raise(v)
	if c.InterruptState != interruptIdle {
		t.Fatalf("Raise with I clear must not arm, got %v", c.InterruptState)
	}
}

func TestClearOnStickyVectorLeavesRaisedSetButClearsPending(t *testing.T) {
	c := New(testConfig())
	v := c.RegisterVector(8, testConfig())
	v.Sticky = true
	c.Raise(v)
	c.Clear(v)
	if !v.raised {
		t.Fatalf("sticky vector must keep raised set across Clear")
	}
	if c.Interrupts.pending&(1<<8) != 0 {
		t.Fatalf("Clear must always drop the pending bit, sticky or not")
	}
}

func TestClearOnNonStickyVectorClearsRaised(t *testing.T) {
	c := New(testConfig())
	v := c.RegisterVector(9, testConfig())
	c.Raise(v)
	c.Clear(v)
	if v.raised {
		t.Fatalf("non-sticky vector must clear raised on Clear")
	}
}
